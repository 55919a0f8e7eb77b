package pattern

import tt "github.com/gnolang/tgrit/types"

// MatchVar is the implicit variable bound to the whole match of a pattern.
const MatchVar = "$match"

// Language provides the language-specific rules used to resolve bindings.
type Language interface {
	Name() string
}

// Tree is a parsed source file.
type Tree interface {
	Source() string
}

// Binding is a value bound to a location in a source tree.
type Binding interface {
	// Source returns the text of the tree the binding originates from.
	Source() (string, bool)
	// CodeRange returns the binding's range tied to its source text.
	CodeRange(lang Language) (tt.CodeRange, bool)
	// ByteRange returns the binding's byte interval.
	ByteRange(lang Language) (tt.ByteRange, bool)
	// Position returns the human-facing location of the binding.
	Position(lang Language) (tt.Range, bool)
	// Text returns the source text covered by the binding.
	Text(lang Language) (string, bool)
	// IsSuppressed reports whether the language marks the binding as not
	// reportable for the pattern named currentName.
	IsSuppressed(lang Language, currentName string) bool
	// LogEmptyFieldRewriteError records that the binding has nothing to
	// rewrite.
	LogEmptyFieldRewriteError(lang Language, logs *tt.AnalysisLogs) error
}

// ResolvedPattern is the value a variable is bound to.
type ResolvedPattern interface {
	// Bindings returns the source bindings backing the value, if any.
	Bindings() ([]Binding, bool)
	Text(lang Language) (string, error)
}

// Pattern is a compiled pattern. A Variable is itself a Pattern, which is
// how one slot aliases another.
type Pattern interface {
	Name() string
}

// FileOwner is one loaded version of a file.
type FileOwner struct {
	Name         string
	AbsolutePath string
	Tree         Tree
}
