package pattern

import (
	"fmt"

	tt "github.com/gnolang/tgrit/types"
)

// EffectKind tells how an effect's pattern is applied to its binding.
type EffectKind int

const (
	// EffectRewrite replaces the binding.
	EffectRewrite EffectKind = iota
	// EffectInsert inserts after the binding.
	EffectInsert
)

func (k EffectKind) String() string {
	switch k {
	case EffectRewrite:
		return "rewrite"
	case EffectInsert:
		return "insert"
	default:
		return "unknown"
	}
}

// Effect is a proposed edit of a source binding.
type Effect struct {
	Binding Binding
	Pattern Pattern
	Kind    EffectKind
}

// EffectRange is an Effect with its resolved byte interval.
type EffectRange struct {
	Range  tt.ByteRange
	Effect Effect
}

func (e EffectRange) Interval() (uint32, uint32) {
	return e.Range.Start, e.Range.End
}

// GetTopLevelEffects selects the outer-most effects within codeRange.
//
// Effects from another source, or whose range memo marks as suppressed
// (present with a nil value), are skipped. An effect whose binding cannot
// resolve a range is dropped with a diagnostic in logs. Partially
// overlapping effects are an error.
func GetTopLevelEffects(
	effects []Effect,
	memo map[tt.CodeRange]*string,
	codeRange tt.CodeRange,
	lang Language,
	logs *tt.AnalysisLogs,
) ([]Effect, error) {
	ranges, err := topLevelEffectRanges(effects, memo, codeRange, lang, logs)
	if err != nil {
		return nil, err
	}

	top := make([]Effect, 0, len(ranges))
	for _, e := range ranges {
		if e.Range.Start < codeRange.Start || e.Range.End > codeRange.End {
			panic(fmt.Sprintf("top-level effect %s escapes range [%d,%d)", e.Range, codeRange.Start, codeRange.End))
		}
		top = append(top, e.Effect)
	}
	return top, nil
}

func topLevelEffectRanges(
	effects []Effect,
	memo map[tt.CodeRange]*string,
	codeRange tt.CodeRange,
	lang Language,
	logs *tt.AnalysisLogs,
) ([]EffectRange, error) {
	ranges := make([]EffectRange, 0, len(effects))
	for _, effect := range effects {
		if !appliesTo(effect.Binding, memo, codeRange, lang, logs) {
			continue
		}
		byteRange, ok := effect.Binding.ByteRange(lang)
		if !ok {
			return nil, ErrBindingHasNoRange
		}
		ranges = append(ranges, EffectRange{Range: byteRange, Effect: effect})
	}

	if !EarliestDeadlineSort(ranges) {
		return nil, ErrOverlappingEffects
	}
	return TopLevelIntervalsInRange(ranges, codeRange.Start, codeRange.End), nil
}

func appliesTo(
	binding Binding,
	memo map[tt.CodeRange]*string,
	codeRange tt.CodeRange,
	lang Language,
	logs *tt.AnalysisLogs,
) bool {
	src, ok := binding.Source()
	if !ok {
		return false
	}
	bindingRange, ok := binding.CodeRange(lang)
	if !ok {
		_ = binding.LogEmptyFieldRewriteError(lang, logs)
		return false
	}
	if !codeRange.AppliesTo(src) {
		return false
	}
	if replacement, memoized := memo[bindingRange]; memoized && replacement == nil {
		return false
	}
	return true
}
