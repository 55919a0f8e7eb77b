package engine

import "fmt"

// Node is a parsed pattern element: a Literal or a Hole.
type Node interface {
	String() string
}

// Literal is text matched verbatim, except that a run of whitespace matches
// any non-empty run of whitespace.
type Literal struct {
	Value string
}

func (l Literal) String() string {
	return fmt.Sprintf("Literal(%q)", l.Value)
}

// Hole binds a span of the subject to a name. An ellipsis hole may be empty
// and may span lines.
type Hole struct {
	Name     string
	Ellipsis bool
}

func (h Hole) String() string {
	if h.Ellipsis {
		return fmt.Sprintf("Hole(%q, ellipsis)", h.Name)
	}
	return fmt.Sprintf("Hole(%q)", h.Name)
}

// Parse converts tokens into nodes.
func Parse(tokens []Token) ([]Node, error) {
	var nodes []Node
	for _, token := range tokens {
		switch token.Type {
		case TokenEOF:
			return nodes, nil
		case TokenLiteral:
			nodes = append(nodes, Literal{Value: token.Value})
		case TokenHole:
			nodes = append(nodes, Hole{Name: token.Value, Ellipsis: token.Ellipsis})
		default:
			return nil, fmt.Errorf("%w: unexpected token type: %v", ErrInvalidPattern, token.Type)
		}
	}
	return nodes, nil
}

// Compile lexes and parses a pattern or template.
func Compile(input string) ([]Node, error) {
	tokens, err := Lex(input)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// holeNames returns the distinct hole names of nodes in order of first use.
func holeNames(nodes []Node) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, n := range nodes {
		h, ok := n.(Hole)
		if !ok {
			continue
		}
		if _, dup := seen[h.Name]; dup {
			continue
		}
		seen[h.Name] = struct{}{}
		names = append(names, h.Name)
	}
	return names
}
