package treesitter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/tgrit/pattern"
	tt "github.com/gnolang/tgrit/types"
)

const sample = `package main

import "fmt"

func main() {
	x := 1
	fmt.Println(x)
}
`

func parse(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := ParseTree(context.Background(), src)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func TestParse(t *testing.T) {
	t.Parallel()

	owner, err := Parse(context.Background(), "main.go", "/src/main.go", sample)
	require.NoError(t, err)
	assert.Equal(t, "main.go", owner.Name)
	assert.Equal(t, "/src/main.go", owner.AbsolutePath)
	assert.Equal(t, sample, owner.Tree.Source())

	tree := owner.Tree.(*Tree)
	defer tree.Close()
	assert.False(t, tree.HasError())
	assert.Equal(t, "source_file", tree.Root().Type())
}

func TestParseRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := ParseTree(context.Background(), "package main\n// \xff\xfe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidContent))

	_, err = ParseTree(context.Background(), strings.Repeat("a", DefaultMaxFileSize+1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileTooLarge))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ParseTree(ctx, sample)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParseReportsSyntaxErrors(t *testing.T) {
	t.Parallel()
	tree := parse(t, "package main\nfunc {")
	assert.True(t, tree.HasError())
}

func TestBindPrefersNodes(t *testing.T) {
	t.Parallel()
	tree := parse(t, sample)
	lang := Language{}

	start := uint32(strings.Index(sample, "fmt.Println(x)"))
	end := start + uint32(len("fmt.Println(x)"))

	b := tree.Bind(start, end)
	node, ok := b.(NodeBinding)
	require.True(t, ok, "call expression should bind as a node")
	assert.Equal(t, "call_expression", node.Kind())

	text, ok := b.Text(lang)
	require.True(t, ok)
	assert.Equal(t, "fmt.Println(x)", text)

	pos, ok := b.Position(lang)
	require.True(t, ok)
	assert.Equal(t, tt.Position{Line: 7, Column: 2}, pos.Start)
	assert.Equal(t, tt.Position{Line: 7, Column: 16}, pos.End)

	// a span that is no single node
	partial := tree.Bind(start, start+5)
	_, isSpan := partial.(SpanBinding)
	assert.True(t, isSpan)
	text, _ = partial.Text(lang)
	assert.Equal(t, "fmt.P", text)
}

func TestBindDescendsToSmallestNode(t *testing.T) {
	t.Parallel()
	tree := parse(t, sample)
	call := strings.Index(sample, "fmt.Println(x)")

	tests := []struct {
		name  string
		start int
		end   int
		kind  string
	}{
		{name: "call inside a statement of the same span", start: call, end: call + len("fmt.Println(x)"), kind: "call_expression"},
		{name: "argument", start: call + len("fmt.Println("), end: call + len("fmt.Println(x"), kind: "identifier"},
		{name: "selector", start: call, end: call + len("fmt.Println"), kind: "selector_expression"},
		{name: "leading whitespace", start: call - 1, end: call + len("fmt.Println(x)")},
		{name: "past the end", start: 0, end: len(sample) + 10},
		{name: "empty", start: call, end: call},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := tree.Bind(uint32(tc.start), uint32(tc.end))
			if tc.kind == "" {
				_, ok := b.(SpanBinding)
				assert.True(t, ok, "got %T", b)
				return
			}
			node, ok := b.(NodeBinding)
			require.True(t, ok, "got %T", b)
			assert.Equal(t, tc.kind, node.Kind())
		})
	}
}

func TestBindingCodeRangeIsTiedToSource(t *testing.T) {
	t.Parallel()
	tree := parse(t, sample)
	b := tree.Bind(0, 7)

	cr, ok := b.CodeRange(Language{})
	require.True(t, ok)
	assert.True(t, cr.AppliesTo(tree.Source()))
	assert.False(t, cr.AppliesTo(strings.Clone(sample)))
}

func TestEmptyBindingLogsRewrite(t *testing.T) {
	t.Parallel()
	tree := parse(t, sample)

	var fn = tree.Root().NamedChild(2)
	require.Equal(t, "function_declaration", fn.Type())
	b := NewEmptyBinding(tree, fn, "result")

	_, ok := b.CodeRange(Language{})
	assert.False(t, ok)

	var logs tt.AnalysisLogs
	effects := []pattern.Effect{{Binding: b}}
	whole := tt.NewCodeRange(0, uint32(len(sample)), tree.Source())
	got, err := pattern.GetTopLevelEffects(effects, nil, whole, Language{}, &logs)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.Equal(t, 1, logs.Len())
	entry := logs.Entries()[0]
	assert.Contains(t, entry.Message, `"result"`)
	require.NotNil(t, entry.Position)
	assert.Equal(t, uint32(5), entry.Position.Line)
}

func TestSuppression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		line   uint32
		rule   string
		expect bool
	}{
		{
			name:   "before package applies to the whole file",
			src:    "//nolint\npackage main\n\nfunc f() {\n\tg()\n}\n",
			line:   5,
			rule:   "any",
			expect: true,
		},
		{
			name:   "inline applies to the statement",
			src:    "package main\n\nfunc f() {\n\tg() //nolint:swap\n\th()\n}\n",
			line:   4,
			rule:   "swap",
			expect: true,
		},
		{
			name:   "inline does not leak to the next line",
			src:    "package main\n\nfunc f() {\n\tg() //nolint:swap\n\th()\n}\n",
			line:   5,
			rule:   "swap",
			expect: false,
		},
		{
			name:   "standalone applies to the next statement",
			src:    "package main\n\nfunc f() {\n\t//nolint\n\tif true {\n\t\tg()\n\t}\n}\n",
			line:   6,
			rule:   "swap",
			expect: true,
		},
		{
			name:   "other pattern names are not suppressed",
			src:    "package main\n\nfunc f() {\n\tg() //nolint:swap, rename\n}\n",
			line:   4,
			rule:   "other",
			expect: false,
		},
		{
			name:   "listed pattern names are suppressed",
			src:    "package main\n\nfunc f() {\n\tg() //nolint:swap, rename\n}\n",
			line:   4,
			rule:   "rename",
			expect: true,
		},
		{
			name:   "malformed comment is ignored",
			src:    "package main\n\nfunc f() {\n\tg() //nolintswap\n}\n",
			line:   4,
			rule:   "swap",
			expect: false,
		},
		{
			name:   "empty list after colon is ignored",
			src:    "package main\n\nfunc f() {\n\tg() //nolint:\n}\n",
			line:   4,
			rule:   "swap",
			expect: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree := parse(t, tc.src)
			assert.Equal(t, tc.expect, tree.IsSuppressed(tc.line, tc.rule))
		})
	}
}

func TestBindingIsSuppressed(t *testing.T) {
	t.Parallel()
	src := "package main\n\nfunc f() {\n\tg() //nolint:swap\n\th()\n}\n"
	tree := parse(t, src)

	g := uint32(strings.Index(src, "g()"))
	h := uint32(strings.Index(src, "h()"))

	assert.True(t, tree.Bind(g, g+3).IsSuppressed(Language{}, "swap"))
	assert.False(t, tree.Bind(h, h+3).IsSuppressed(Language{}, "swap"))
}
