package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/gnolang/tgrit/engine"
	"github.com/gnolang/tgrit/rewrite"
	tt "github.com/gnolang/tgrit/types"
)

const matchTemplate = `{{header .Rule .MaxLineNumWidth .Filename .StartLine .StartColumn -}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .CommonIndent .Padding -}}
{{underline .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines .CommonIndent -}}
{{range .Captures}}{{capture $.Padding .Name .Text}}{{end}}
`

var matchTmpl = template.Must(template.New("match").Funcs(template.FuncMap{
	"header":    header,
	"snippet":   codeSnippet,
	"underline": underline,
	"capture":   capture,
}).Parse(matchTemplate))

type Capture struct {
	Name string
	Text string
}

type MatchData struct {
	Rule            string
	Filename        string
	Padding         string
	StartLine       int
	StartColumn     int
	EndLine         int
	EndColumn       int
	MaxLineNumWidth int
	SnippetLines    []string
	CommonIndent    string
	Captures        []Capture
}

// FormatReport renders every match of a search report with the lines it
// covers and the text bound to each named hole.
func FormatReport(report *rewrite.FileReport) string {
	lines := strings.Split(report.Source, "\n")

	var builder strings.Builder
	for _, res := range report.Results {
		for _, m := range res.Matches {
			builder.WriteString(buildMatch(res, m, report.Source, lines))
		}
		if res.Suppressed {
			builder.WriteString(note(fmt.Sprintf("%s: every match in %s is silenced by nolint", res.Rule, res.File)))
		}
	}
	return builder.String()
}

func buildMatch(res engine.Result, m tt.Range, src string, lines []string) string {
	startLine, endLine := int(m.Start.Line), int(m.End.Line)
	maxLineNumWidth := calculateMaxLineNumWidth(endLine)

	var commonIndent string
	if isValidLineRange(startLine, endLine, lines) {
		commonIndent = findCommonIndent(lines[startLine-1 : endLine])
	}

	data := MatchData{
		Rule:            res.Rule,
		Filename:        res.File,
		Padding:         strings.Repeat(" ", maxLineNumWidth+1),
		StartLine:       startLine,
		StartColumn:     int(m.Start.Column),
		EndLine:         endLine,
		EndColumn:       int(m.End.Column),
		MaxLineNumWidth: maxLineNumWidth,
		SnippetLines:    lines,
		CommonIndent:    commonIndent,
		Captures:        captures(res.Variables, m, src),
	}

	var buf bytes.Buffer
	if err := matchTmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting match: %v", err)
	}
	return buf.String()
}

// captures returns the first binding of every named hole inside m.
func captures(vars []tt.VariableMatch, m tt.Range, src string) []Capture {
	var out []Capture
	seen := make(map[string]bool)
	for _, v := range vars {
		if seen[v.Name] || strings.HasPrefix(v.Name, "$") {
			continue
		}
		for _, r := range v.Ranges {
			if r.StartByte < m.StartByte || r.EndByte > m.EndByte || int(r.EndByte) > len(src) {
				continue
			}
			seen[v.Name] = true
			out = append(out, Capture{Name: v.Name, Text: src[r.StartByte:r.EndByte]})
			break
		}
	}
	return out
}

// Summary is the one-line total printed after all reports.
func Summary(reports []*rewrite.FileReport) string {
	matches, files, changed := 0, 0, 0
	for _, r := range reports {
		n := r.MatchCount()
		matches += n
		if n > 0 {
			files++
		}
		if r.Changed() {
			changed++
		}
	}
	if changed > 0 {
		return suggestionStyle.Sprintf("%d matches in %d files, %d files rewritten\n", matches, files, changed)
	}
	return suggestionStyle.Sprintf("%d matches in %d files\n", matches, files)
}
