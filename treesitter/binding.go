package treesitter

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gnolang/tgrit/pattern"
	tt "github.com/gnolang/tgrit/types"
)

// NodeBinding binds a syntax node.
type NodeBinding struct {
	tree *Tree
	node *sitter.Node
}

// NewNodeBinding binds node, which must belong to tree.
func NewNodeBinding(tree *Tree, node *sitter.Node) NodeBinding {
	return NodeBinding{tree: tree, node: node}
}

// Node returns the bound syntax node.
func (b NodeBinding) Node() *sitter.Node { return b.node }

// Kind returns the grammar type of the node, e.g. "call_expression".
func (b NodeBinding) Kind() string { return b.node.Type() }

func (b NodeBinding) span() SpanBinding {
	return SpanBinding{tree: b.tree, start: b.node.StartByte(), end: b.node.EndByte()}
}

func (b NodeBinding) Source() (string, bool) { return b.tree.src, true }

func (b NodeBinding) CodeRange(lang pattern.Language) (tt.CodeRange, bool) {
	return b.span().CodeRange(lang)
}

func (b NodeBinding) ByteRange(lang pattern.Language) (tt.ByteRange, bool) {
	return b.span().ByteRange(lang)
}

func (b NodeBinding) Position(lang pattern.Language) (tt.Range, bool) {
	return b.span().Position(lang)
}

func (b NodeBinding) Text(lang pattern.Language) (string, bool) {
	return b.span().Text(lang)
}

func (b NodeBinding) IsSuppressed(lang pattern.Language, currentName string) bool {
	return b.span().IsSuppressed(lang, currentName)
}

func (b NodeBinding) LogEmptyFieldRewriteError(lang pattern.Language, logs *tt.AnalysisLogs) error {
	return b.span().LogEmptyFieldRewriteError(lang, logs)
}

// SpanBinding binds an arbitrary byte span of a tree's source.
type SpanBinding struct {
	tree       *Tree
	start, end uint32
}

func NewSpanBinding(tree *Tree, start, end uint32) SpanBinding {
	return SpanBinding{tree: tree, start: start, end: end}
}

func (b SpanBinding) Source() (string, bool) { return b.tree.src, true }

func (b SpanBinding) CodeRange(pattern.Language) (tt.CodeRange, bool) {
	return tt.NewCodeRange(b.start, b.end, b.tree.src), true
}

func (b SpanBinding) ByteRange(pattern.Language) (tt.ByteRange, bool) {
	return tt.NewByteRange(b.start, b.end), true
}

func (b SpanBinding) Position(pattern.Language) (tt.Range, bool) {
	return b.tree.rangeOf(b.start, b.end), true
}

func (b SpanBinding) Text(pattern.Language) (string, bool) {
	return b.tree.src[b.start:b.end], true
}

func (b SpanBinding) IsSuppressed(_ pattern.Language, currentName string) bool {
	return b.tree.IsSuppressed(b.tree.position(b.start).Line, currentName)
}

func (b SpanBinding) LogEmptyFieldRewriteError(pattern.Language, *tt.AnalysisLogs) error {
	return nil
}

// EmptyBinding stands for an optional field that is absent from the tree.
// It has a source but no range, so rewriting it is reported and skipped.
type EmptyBinding struct {
	tree   *Tree
	parent *sitter.Node
	field  string
}

// NewEmptyBinding records that parent has no child for field.
func NewEmptyBinding(tree *Tree, parent *sitter.Node, field string) EmptyBinding {
	return EmptyBinding{tree: tree, parent: parent, field: field}
}

func (b EmptyBinding) Source() (string, bool) { return b.tree.src, true }

func (EmptyBinding) CodeRange(pattern.Language) (tt.CodeRange, bool) { return tt.CodeRange{}, false }

func (EmptyBinding) ByteRange(pattern.Language) (tt.ByteRange, bool) { return tt.ByteRange{}, false }

func (EmptyBinding) Position(pattern.Language) (tt.Range, bool) { return tt.Range{}, false }

func (EmptyBinding) Text(pattern.Language) (string, bool) { return "", true }

func (EmptyBinding) IsSuppressed(pattern.Language, string) bool { return false }

func (b EmptyBinding) LogEmptyFieldRewriteError(_ pattern.Language, logs *tt.AnalysisLogs) error {
	entry := tt.AnalysisLog{
		Level:   tt.LevelWarn,
		Message: fmt.Sprintf("cannot rewrite empty field %q", b.field),
		Syntax:  b.field,
	}
	if b.parent != nil {
		pos := b.tree.position(b.parent.StartByte())
		entry.Position = &pos
		entry.Message = fmt.Sprintf("cannot rewrite empty field %q of %s", b.field, b.parent.Type())
	}
	logs.Add(entry)
	return nil
}

var (
	_ pattern.Binding = NodeBinding{}
	_ pattern.Binding = SpanBinding{}
	_ pattern.Binding = EmptyBinding{}
)
