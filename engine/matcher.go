package engine

import (
	"slices"
	"strings"
)

// Span is a half-open byte interval [Start, End) of a subject.
type Span struct {
	Start int
	End   int
}

// Match is one occurrence of a pattern with the spans its holes bound.
type Match struct {
	Span
	Captures map[string]Span
}

// Text returns the captured text of hole name.
func (m Match) Text(subject, name string) (string, bool) {
	span, ok := m.Captures[name]
	if !ok {
		return "", false
	}
	return subject[span.Start:span.End], true
}

// anonymous is the hole name that matches without binding.
const anonymous = "_"

type matcher struct {
	nodes   []Node
	subject string
	// the match must cover the whole subject
	whole bool
}

// MatchWhole checks if the entire subject matches the pattern.
func MatchWhole(nodes []Node, subject string) (Match, bool) {
	m := &matcher{nodes: nodes, subject: subject, whole: true}
	end, captures, ok := m.match(0, 0, map[string]Span{})
	if !ok {
		return Match{}, false
	}
	return Match{Span: Span{Start: 0, End: end}, Captures: captures}, true
}

// FindNext finds the leftmost non-empty match starting at or after start.
func FindNext(nodes []Node, subject string, start int) (Match, bool) {
	if len(nodes) == 0 {
		return Match{}, false
	}
	m := &matcher{nodes: nodes, subject: subject}
	for i := start; i < len(subject); i++ {
		if !m.startsAt(i) {
			continue
		}
		if end, captures, ok := m.match(0, i, map[string]Span{}); ok && end > i {
			return Match{Span: Span{Start: i, End: end}, Captures: captures}, true
		}
	}
	return Match{}, false
}

// FindAll returns every non-overlapping match, leftmost first.
func FindAll(nodes []Node, subject string) []Match {
	var matches []Match
	pos := 0
	for {
		m, ok := FindNext(nodes, subject, pos)
		if !ok {
			return matches
		}
		matches = append(matches, m)
		pos = m.End
	}
}

// match attempts to match nodes[p:] against the subject from s using
// recursive backtracking. On success it returns the end offset and captures.
func (m *matcher) match(p, s int, captures map[string]Span) (int, map[string]Span, bool) {
	if p == len(m.nodes) {
		if m.accepts(s) {
			return s, captures, true
		}
		return 0, nil, false
	}

	switch node := m.nodes[p].(type) {
	case Literal:
		end, ok := matchLiteral(node.Value, m.subject, s)
		if !ok {
			return 0, nil, false
		}
		return m.match(p+1, end, captures)

	case Hole:
		// a name seen before must bind the same text again
		if prev, ok := captures[node.Name]; ok && node.Name != anonymous {
			text := m.subject[prev.Start:prev.End]
			if !strings.HasPrefix(m.subject[s:], text) {
				return 0, nil, false
			}
			return m.match(p+1, s+len(text), captures)
		}

		cuts := holeCuts(m.subject, s, node.Ellipsis)
		// the last hole takes as much as it can, the others as little
		if p == len(m.nodes)-1 {
			slices.Reverse(cuts)
		}
		for _, k := range cuts {
			next := copyCaptures(captures)
			if node.Name != anonymous {
				next[node.Name] = Span{Start: s, End: k}
			}
			if end, res, ok := m.match(p+1, k, next); ok {
				return end, res, true
			}
		}
	}
	return 0, nil, false
}

func (m *matcher) startsAt(i int) bool {
	if isWhitespace(m.subject[i]) {
		return false
	}
	// never start in the middle of an identifier
	return i == 0 || !(isIdentifierChar(m.subject[i-1]) && isIdentifierChar(m.subject[i]))
}

func (m *matcher) accepts(end int) bool {
	if m.whole {
		return end == len(m.subject)
	}
	if end == 0 || end == len(m.subject) {
		return true
	}
	return !(isIdentifierChar(m.subject[end-1]) && isIdentifierChar(m.subject[end]))
}

// matchLiteral matches lit at subject[s:]. A whitespace run in lit matches
// a non-empty whitespace run in the subject.
func matchLiteral(lit, subject string, s int) (int, bool) {
	i := 0
	for i < len(lit) {
		if isWhitespace(lit[i]) {
			for i < len(lit) && isWhitespace(lit[i]) {
				i++
			}
			if s >= len(subject) || !isWhitespace(subject[s]) {
				return 0, false
			}
			for s < len(subject) && isWhitespace(subject[s]) {
				s++
			}
			continue
		}
		if s >= len(subject) || subject[s] != lit[i] {
			return 0, false
		}
		i++
		s++
	}
	return s, true
}

// holeCuts lists, in increasing order, the offsets at which a hole starting
// at s may end. Brackets inside the hole must balance and string literals
// are skipped whole. A plain hole is non-empty, has no surrounding
// whitespace and stops at a newline, ';' or "//" outside brackets.
func holeCuts(subject string, s int, ellipsis bool) []int {
	var cuts []int
	if ellipsis {
		cuts = append(cuts, s)
	} else if s < len(subject) && isWhitespace(subject[s]) {
		return nil
	}

	var closers []byte
	i := s
scan:
	for i < len(subject) {
		c := subject[i]
		if len(closers) == 0 && !ellipsis {
			if c == '\n' || c == ';' || strings.HasPrefix(subject[i:], "//") {
				break
			}
		}
		switch c {
		case '(':
			closers = append(closers, ')')
			i++
		case '[':
			closers = append(closers, ']')
			i++
		case '{':
			closers = append(closers, '}')
			i++
		case ')', ']', '}':
			if len(closers) == 0 || closers[len(closers)-1] != c {
				break scan
			}
			closers = closers[:len(closers)-1]
			i++
		case '"', '\'', '`':
			i = skipQuoted(subject, i)
			if i < 0 {
				break scan
			}
		default:
			i++
		}
		if len(closers) == 0 && (ellipsis || !isWhitespace(subject[i-1])) {
			cuts = append(cuts, i)
		}
	}
	return cuts
}

// skipQuoted returns the offset just past the quoted literal opening at i,
// or -1 if it is not terminated.
func skipQuoted(subject string, i int) int {
	quote := subject[i]
	for j := i + 1; j < len(subject); j++ {
		switch c := subject[j]; {
		case c == '\\' && quote != '`':
			j++
		case c == quote:
			return j + 1
		case c == '\n' && quote != '`':
			return -1
		}
	}
	return -1
}

func copyCaptures(captures map[string]Span) map[string]Span {
	next := make(map[string]Span, len(captures)+1)
	for k, v := range captures {
		next[k] = v
	}
	return next
}

// Render fills a replacement template. lookup returns the text bound to a
// hole; holes it does not know are written back unchanged.
func Render(template []Node, lookup func(name string) (string, bool)) string {
	var b strings.Builder
	for _, node := range template {
		switch n := node.(type) {
		case Literal:
			b.WriteString(n.Value)
		case Hole:
			if text, ok := lookup(n.Name); ok {
				b.WriteString(text)
				continue
			}
			b.WriteString(":[")
			b.WriteString(n.Name)
			if n.Ellipsis {
				b.WriteString("...")
			}
			b.WriteString("]")
		}
	}
	return b.String()
}
