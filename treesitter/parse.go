package treesitter

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/gnolang/tgrit/pattern"
)

// DefaultMaxFileSize is the largest source Parse accepts (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

var (
	ErrFileTooLarge   = errors.New("file exceeds maximum size limit")
	ErrInvalidContent = errors.New("invalid content")
)

// Language is the Go language as seen by the pattern core.
type Language struct{}

var _ pattern.Language = Language{}

func (Language) Name() string { return "go" }

// Parse parses src and wraps it as the owner of one file version.
func Parse(ctx context.Context, name, absPath, src string) (*pattern.FileOwner, error) {
	tree, err := ParseTree(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return &pattern.FileOwner{
		Name:         name,
		AbsolutePath: absPath,
		Tree:         tree,
	}, nil
}

// ParseTree parses Go source with tree-sitter. Syntax errors do not fail
// the parse; check Tree.HasError.
func ParseTree(ctx context.Context, src string) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}
	if len(src) > DefaultMaxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(src), DefaultMaxFileSize)
	}
	if !utf8.ValidString(src) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	content := []byte(src)

	// a parser instance is not safe for concurrent use
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())

	st, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	return newTree(src, content, st), nil
}
