package formatter

import (
	"bytes"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"
)

const diffContext = 3

// FileDiff computes the line diff between before and after. It returns nil
// when the texts are equal.
func FileDiff(name, before, after string) *diff.FileDiff {
	if before == after {
		return nil
	}
	a, b := splitLines(before), splitLines(after)

	fd := &diff.FileDiff{
		OrigName: "a/" + name,
		NewName:  "b/" + name,
	}
	matcher := difflib.NewMatcher(a, b)
	for _, group := range matcher.GetGroupedOpCodes(diffContext) {
		fd.Hunks = append(fd.Hunks, buildHunk(group, a, b))
	}
	return fd
}

func buildHunk(group []difflib.OpCode, a, b []string) *diff.Hunk {
	first, last := group[0], group[len(group)-1]

	var body bytes.Buffer
	for _, op := range group {
		switch op.Tag {
		case 'e':
			writeLines(&body, ' ', a[op.I1:op.I2])
		case 'd':
			writeLines(&body, '-', a[op.I1:op.I2])
		case 'i':
			writeLines(&body, '+', b[op.J1:op.J2])
		case 'r':
			writeLines(&body, '-', a[op.I1:op.I2])
			writeLines(&body, '+', b[op.J1:op.J2])
		}
	}

	h := &diff.Hunk{
		OrigStartLine: hunkStart(first.I1, last.I2),
		OrigLines:     int32(last.I2 - first.I1),
		NewStartLine:  hunkStart(first.J1, last.J2),
		NewLines:      int32(last.J2 - first.J1),
		Body:          body.Bytes(),
	}
	return h
}

// hunkStart is the 1-based first line, or the line before an empty range.
func hunkStart(from, to int) int32 {
	if from == to {
		return int32(from)
	}
	return int32(from + 1)
}

func writeLines(buf *bytes.Buffer, prefix byte, lines []string) {
	for _, line := range lines {
		buf.WriteByte(prefix)
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// UnifiedDiff renders the diff between before and after in unified format,
// or "" when nothing changed.
func UnifiedDiff(name, before, after string) (string, error) {
	fd := FileDiff(name, before, after)
	if fd == nil {
		return "", nil
	}
	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ColorDiff is UnifiedDiff with added and removed lines coloured.
func ColorDiff(name, before, after string) (string, error) {
	out, err := UnifiedDiff(name, before, after)
	if err != nil || out == "" {
		return out, err
	}

	var b strings.Builder
	for _, line := range strings.SplitAfter(out, "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			b.WriteString(fileStyle.Sprint(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(lineStyle.Sprint(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(messageStyle.Sprint(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(suggestionStyle.Sprint(line))
		default:
			b.WriteString(line)
		}
	}
	return b.String(), nil
}
