package treesitter

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gnolang/tgrit/pattern"
	tt "github.com/gnolang/tgrit/types"
)

// Tree is a parsed Go file.
type Tree struct {
	src     string
	content []byte
	tree    *sitter.Tree
	root    *sitter.Node

	// byte offset of the first byte of every line
	lineStarts   []uint32
	suppressions []suppression
}

var _ pattern.Tree = (*Tree)(nil)

func newTree(src string, content []byte, st *sitter.Tree) *Tree {
	t := &Tree{
		src:        src,
		content:    content,
		tree:       st,
		root:       st.RootNode(),
		lineStarts: indexLines(src),
	}
	t.suppressions = parseSuppressions(t)
	return t
}

func (t *Tree) Source() string {
	return t.src
}

// Root returns the root node of the syntax tree.
func (t *Tree) Root() *sitter.Node {
	return t.root
}

// HasError reports whether the source contains syntax errors.
func (t *Tree) HasError() bool {
	return t.root != nil && t.root.HasError()
}

// Close releases the tree-sitter tree. Bindings into the tree must not be
// used afterwards.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
		t.root = nil
	}
}

// Bind returns a binding for [start, end). When a named node covers exactly
// that span the binding refers to the node.
func (t *Tree) Bind(start, end uint32) pattern.Binding {
	if t.root != nil && start < end {
		if node := t.smallestCovering(start, end); node != nil &&
			node.StartByte() == start && node.EndByte() == end {
			return NodeBinding{tree: t, node: node}
		}
	}
	return SpanBinding{tree: t, start: start, end: end}
}

// smallestCovering descends from the root to the deepest named node that
// contains [start, end), or nil when the root does not.
func (t *Tree) smallestCovering(start, end uint32) *sitter.Node {
	node := t.root
	if node.StartByte() > start || node.EndByte() < end {
		return nil
	}
	for {
		var next *sitter.Node
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.StartByte() <= start && end <= child.EndByte() {
				next = child
				break
			}
		}
		if next == nil {
			return node
		}
		node = next
	}
}

// Walk visits every named node in document order. fn returning false
// skips the node's children.
func (t *Tree) Walk(fn func(*sitter.Node) bool) {
	if t.root == nil {
		return
	}
	var visit func(*sitter.Node)
	visit = func(n *sitter.Node) {
		if !fn(n) {
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(t.root)
}

// position converts a byte offset to a 1-based line and column. Columns
// count bytes.
func (t *Tree) position(offset uint32) tt.Position {
	line := sort.Search(len(t.lineStarts), func(i int) bool {
		return t.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	return tt.Position{
		Line:   uint32(line) + 1,
		Column: offset - t.lineStarts[line] + 1,
	}
}

func (t *Tree) rangeOf(start, end uint32) tt.Range {
	return tt.Range{
		Start:     t.position(start),
		End:       t.position(end),
		StartByte: start,
		EndByte:   end,
	}
}

func indexLines(src string) []uint32 {
	starts := []uint32{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return starts
}
