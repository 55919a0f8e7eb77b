package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gnolang/tgrit/pattern"
	tt "github.com/gnolang/tgrit/types"
)

// Variables bound in the root scope of every match attempt.
const (
	FilenameVar         = "$filename"
	AbsoluteFilenameVar = "$absolute_filename"
)

// the replacement template of a rule is its own pattern definition, called
// with the rule's holes as arguments
const rewriteSuffix = "#rewrite"

var ErrUnsupportedTree = errors.New("tree cannot bind source spans")

// Binder is a tree that can bind byte spans of its source.
type Binder interface {
	pattern.Tree
	Bind(start, end uint32) pattern.Binding
}

// ParseFunc parses one version of a file.
type ParseFunc func(ctx context.Context, name, absPath, src string) (*pattern.FileOwner, error)

// Rewrite is the pattern of an effect produced by a rule: the replacement
// rendered for one match.
type Rewrite struct {
	Rule string
	Text string
}

func (Rewrite) Name() string { return "rewrite" }

// Result is what one rule found in one file.
type Result struct {
	Rule      string
	File      string
	Matches   []tt.Range
	Variables []tt.VariableMatch
	// Suppressed is set when every match was silenced by a nolint comment.
	Suppressed bool
	Effects    int
}

// Evaluator runs compiled rules against the files of a pattern.State.
type Evaluator struct {
	rules []*CompiledRule
	parse ParseFunc
}

// NewEvaluator returns an evaluator for rules. parse is used to re-parse
// files after effects are applied.
func NewEvaluator(rules []*CompiledRule, parse ParseFunc) *Evaluator {
	return &Evaluator{rules: rules, parse: parse}
}

func (e *Evaluator) Rules() []*CompiledRule {
	return e.rules
}

// Execute matches rule against the latest revision of ptr. Every match
// binds $match and the rule's holes and, for rewriting rules, adds one
// effect to state.
//
// state must be fresh for each rule. Variables are looked up across every
// scope of state, so a second rule on the same state would bind $match and
// any hole sharing a name with the first rule's slots. Share the
// FileRegistry between rules instead.
func (e *Evaluator) Execute(state *pattern.State, ptr pattern.FilePtr, lang pattern.Language, rule *CompiledRule) (Result, error) {
	ptr = state.Files.LatestRevision(ptr)
	owner := state.Files.GetFileOwner(ptr)
	tree, ok := owner.Tree.(Binder)
	if !ok {
		return Result{}, fmt.Errorf("%w: %T", ErrUnsupportedTree, owner.Tree)
	}
	src := tree.Source()

	bindFileVars(state, ptr)

	tracker := state.EnterScope(state.RegisterPatternDefinition(rule.Name), nil)
	matchVar := state.RegisterVar(pattern.MatchVar).Variable()
	holes := make(map[string]pattern.Variable, len(rule.holes))
	for _, name := range rule.holes {
		if name != anonymous {
			holes[name] = state.RegisterVar(name).Variable()
		}
	}
	rewriteScope := -1
	if rule.Rewrites() {
		rewriteScope = defineRewrite(state, rule)
	}

	effects := 0
	for _, m := range sample(state, FindAll(rule.pattern, src), rule.Sample) {
		whole := tree.Bind(uint32(m.Start), uint32(m.End))
		state.Content(matchVar).SetValue(pattern.NewResolvedBinding(whole))
		for name, v := range holes {
			span := m.Captures[name]
			state.Content(v).SetValue(pattern.NewResolvedBinding(tree.Bind(uint32(span.Start), uint32(span.End))))
		}
		if rewriteScope < 0 {
			continue
		}

		text, err := render(state, lang, rule, rewriteScope, holes)
		if err != nil {
			state.ExitScope(tracker)
			return Result{}, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		state.AddEffect(pattern.Effect{
			Binding: whole,
			Pattern: Rewrite{Rule: rule.Name, Text: text},
			Kind:    rule.kind,
		})
		effects++
	}
	state.ExitScope(tracker)

	variables, top, suppressed := state.BindingsHistoryToRanges(lang, rule.Name)
	return Result{
		Rule:       rule.Name,
		File:       owner.Name,
		Matches:    top,
		Variables:  variables,
		Suppressed: suppressed,
		Effects:    effects,
	}, nil
}

// Apply writes the top-level effects of state into a new revision of ptr
// and clears them. It reports whether a revision was pushed.
//
// Effects whose match is silenced by a nolint comment for their rule are
// left out.
func (e *Evaluator) Apply(ctx context.Context, state *pattern.State, ptr pattern.FilePtr, lang pattern.Language, logs *tt.AnalysisLogs) (pattern.FilePtr, bool, error) {
	latest := state.Files.LatestRevision(ptr)
	if len(state.Effects) == 0 {
		return latest, false, nil
	}
	owner := state.Files.GetFileOwner(latest)
	src := owner.Tree.Source()

	memo := make(map[tt.CodeRange]*string, len(state.Effects))
	for _, effect := range state.Effects {
		rw, ok := effect.Pattern.(Rewrite)
		if !ok {
			continue
		}
		cr, ok := effect.Binding.CodeRange(lang)
		if !ok {
			continue
		}
		if effect.Binding.IsSuppressed(lang, rw.Rule) {
			memo[cr] = nil
			continue
		}
		text := rw.Text
		memo[cr] = &text
	}

	whole := tt.NewCodeRange(0, uint32(len(src)), src)
	top, err := pattern.GetTopLevelEffects(state.Effects, memo, whole, lang, logs)
	if err != nil {
		return latest, false, fmt.Errorf("%s: %w", owner.Name, err)
	}
	state.Effects = nil

	var (
		b   strings.Builder
		pos uint32
	)
	for _, effect := range top {
		cr, _ := effect.Binding.CodeRange(lang)
		text := memo[cr]
		if text == nil {
			continue
		}
		if effect.Kind == pattern.EffectInsert {
			b.WriteString(src[pos:cr.End])
		} else {
			b.WriteString(src[pos:cr.Start])
		}
		b.WriteString(*text)
		pos = cr.End
	}
	b.WriteString(src[pos:])

	out := b.String()
	if out == src {
		return latest, false, nil
	}

	next, err := e.parse(ctx, owner.Name, owner.AbsolutePath, out)
	if err != nil {
		return latest, false, err
	}
	if t, ok := next.Tree.(interface{ HasError() bool }); ok && t.HasError() {
		logs.Add(tt.AnalysisLog{
			Level:   tt.LevelWarn,
			Message: "rewritten source contains syntax errors",
			File:    owner.Name,
		})
	}
	state.Files.PushRevision(latest, next)
	return state.Files.LatestRevision(latest), true, nil
}

func bindFileVars(state *pattern.State, ptr pattern.FilePtr) {
	name := state.RegisterVar(FilenameVar).Variable()
	state.Content(name).SetValue(pattern.ResolvedConstant(state.Files.GetFileName(ptr)))

	if abs, err := state.Files.GetAbsolutePath(ptr); err == nil {
		v := state.RegisterVar(AbsoluteFilenameVar).Variable()
		state.Content(v).SetValue(pattern.ResolvedConstant(abs))
	}
}

// defineRewrite returns the scope of rule's replacement template, declaring
// one parameter per hole it uses.
func defineRewrite(state *pattern.State, rule *CompiledRule) int {
	scope := state.RegisterPatternDefinition(rule.Name + rewriteSuffix)
	if state.Bindings.Len(scope) == 0 {
		for _, name := range rule.params {
			state.Bindings.Append(scope, name)
		}
	}
	return scope
}

// render invokes the replacement template with the rule's holes as
// arguments. Parameters resolve through their alias to the hole's value.
func render(state *pattern.State, lang pattern.Language, rule *CompiledRule, scope int, holes map[string]pattern.Variable) (string, error) {
	args := make([]pattern.Pattern, len(rule.params))
	for i, name := range rule.params {
		if v, ok := holes[name]; ok {
			args[i] = v
		}
	}

	tracker := state.EnterScope(scope, args)
	var err error
	text := Render(rule.replacement, func(name string) (string, bool) {
		v, ok := state.FindVarInScope(name)
		if !ok {
			return "", false
		}
		content := state.Content(state.TraceVar(v))
		if content.Value == nil {
			return "", false
		}
		value, textErr := content.Value.Text(lang)
		if textErr != nil {
			err = textErr
			return "", false
		}
		return value, true
	})
	state.ExitScope(tracker)
	return text, err
}

// sample keeps at most n matches chosen with the state's generator,
// preserving their order.
func sample(state *pattern.State, matches []Match, n int) []Match {
	if n <= 0 || len(matches) <= n {
		return matches
	}
	picked := state.Rng().Perm(len(matches))[:n]
	slices.Sort(picked)
	kept := make([]Match, 0, n)
	for _, i := range picked {
		kept = append(kept, matches[i])
	}
	return kept
}
