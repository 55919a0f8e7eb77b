package treesitter

import (
	"errors"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const nolintPrefix = "//nolint"

var (
	errNotNolint        = errors.New("not a nolint comment")
	errInvalidNolint    = errors.New("invalid nolint comment format")
	errNolintNoPatterns = errors.New("invalid nolint comment: no patterns specified after colon")
)

// suppression is a line range in which matches of some patterns, or of all
// patterns when names is empty, are not reported.
type suppression struct {
	names     map[string]struct{}
	startLine uint32
	endLine   uint32
}

// IsSuppressed reports whether a match of the pattern called name starting
// on line is covered by a //nolint comment.
func (t *Tree) IsSuppressed(line uint32, name string) bool {
	for _, s := range t.suppressions {
		if line < s.startLine || line > s.endLine {
			continue
		}
		if len(s.names) == 0 {
			return true
		}
		if _, ok := s.names[name]; ok {
			return true
		}
	}
	return false
}

func parseSuppressions(t *Tree) []suppression {
	if t.root == nil {
		return nil
	}

	var (
		comments    []*sitter.Node
		statements  = make(map[uint32]*sitter.Node)
		packageLine uint32
	)
	t.Walk(func(n *sitter.Node) bool {
		line := n.StartPoint().Row + 1
		switch kind := n.Type(); {
		case kind == "comment":
			comments = append(comments, n)
		case kind == "package_clause":
			packageLine = line
		case isStatement(kind):
			// only the first statement of a line is indexed
			if _, ok := statements[line]; !ok {
				statements[line] = n
			}
		}
		return true
	})

	var out []suppression
	for _, c := range comments {
		s, err := parseNolint(t, c, statements, packageLine)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

func parseNolint(t *Tree, comment *sitter.Node, statements map[uint32]*sitter.Node, packageLine uint32) (suppression, error) {
	var s suppression
	text := comment.Content(t.content)
	if !strings.HasPrefix(text, nolintPrefix) {
		return s, errNotNolint
	}

	rest := text[len(nolintPrefix):]
	if len(rest) > 0 && rest[0] != ':' {
		return s, errInvalidNolint
	}
	if len(rest) > 0 {
		rest = strings.TrimSpace(rest[1:])
		if rest == "" {
			return s, errNolintNoPatterns
		}
	}
	s.names = parseNames(rest)

	line := comment.StartPoint().Row + 1

	// before the package clause: the whole file
	if packageLine > 0 && line < packageLine {
		s.startLine = 1
		s.endLine = t.root.EndPoint().Row + 1
		return s, nil
	}

	// after code on the same line: that statement
	if stmt, ok := statements[line]; ok && comment.StartByte() > stmt.StartByte() {
		s.startLine = line
		s.endLine = stmt.EndPoint().Row + 1
		return s, nil
	}

	// on its own line: the comment line and the statement below it
	if stmt, ok := statements[line+1]; ok {
		s.startLine = line
		s.endLine = stmt.EndPoint().Row + 1
		return s, nil
	}

	s.startLine = line
	s.endLine = line
	return s, nil
}

func parseNames(text string) map[string]struct{} {
	names := make(map[string]struct{})
	for _, name := range strings.Split(text, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names[name] = struct{}{}
		}
	}
	return names
}

func isStatement(kind string) bool {
	switch kind {
	case "short_var_declaration", "function_declaration", "method_declaration",
		"var_declaration", "const_declaration", "type_declaration":
		return true
	}
	return strings.HasSuffix(kind, "_statement")
}
