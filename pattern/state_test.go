package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState() *State {
	return NewState(NewVarRegistry(), NewFileRegistryFromPaths(nil))
}

func TestEnterExitScopeRestoresCursor(t *testing.T) {
	t.Parallel()
	s := newTestState()

	outer := s.RegisterPatternDefinition("outer")
	inner := s.RegisterPatternDefinition("inner")

	before := s.CurrentScope()
	t1 := s.EnterScope(outer, nil)
	assert.Equal(t, outer, s.CurrentScope())

	t2 := s.EnterScope(inner, nil)
	assert.Equal(t, inner, s.CurrentScope())

	s.ExitScope(t2)
	assert.Equal(t, outer, s.CurrentScope())
	s.ExitScope(t1)
	assert.Equal(t, before, s.CurrentScope())
}

func TestExitScopeKeepsFrameHistory(t *testing.T) {
	t.Parallel()
	s := newTestState()
	scope := s.RegisterPatternDefinition("p")
	require.Equal(t, 1, s.Bindings.FrameCount(scope))

	for i := 0; i < 3; i++ {
		tracker := s.EnterScope(scope, nil)
		s.ExitScope(tracker)
	}
	assert.Equal(t, 4, s.Bindings.FrameCount(scope))
}

func TestRegisterPatternDefinitionIsIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestState()

	a := s.RegisterPatternDefinition("a")
	b := s.RegisterPatternDefinition("b")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, s.RegisterPatternDefinition("a"))
	assert.Equal(t, 3, s.Bindings.ScopeCount())
}

func TestRegisterVar(t *testing.T) {
	t.Parallel()
	s := newTestState()

	x1 := s.RegisterVar("x")
	x2 := s.RegisterVar("x")
	y := s.RegisterVar("y")
	z := s.RegisterVar("z")

	assert.Equal(t, x1, x2)
	assert.Equal(t, 0, x1.Index)
	assert.Equal(t, 1, y.Index)
	assert.Equal(t, 2, z.Index)
	assert.Equal(t, "y", s.GetName(y.Variable()))
}

func TestRegisterVarFindsAcrossScopes(t *testing.T) {
	t.Parallel()
	s := newTestState()
	root := s.RegisterVar("x")

	scope := s.RegisterPatternDefinition("p")
	tracker := s.EnterScope(scope, nil)
	defer s.ExitScope(tracker)

	assert.Equal(t, root, s.RegisterVar("x"), "existing name in another scope is reused")
	local := s.RegisterVar("local")
	assert.Equal(t, scope, local.Scope)

	_, ok := s.FindVarInScope("x")
	assert.False(t, ok)
	v, ok := s.FindVarInScope("local")
	require.True(t, ok)
	assert.Equal(t, local.Variable(), v)
}

func TestFindVar(t *testing.T) {
	t.Parallel()
	s := newTestState()

	_, ok := s.FindVar("missing")
	assert.False(t, ok)

	s.RegisterVar("x")
	scope := s.RegisterPatternDefinition("p")
	index := s.Bindings.Append(scope, "x")

	v, ok := s.FindVar("x")
	require.True(t, ok)
	assert.Equal(t, NewVariable(scope, index), v, "newest scope is searched first")
}

func TestEnterScopeResetsValuesAndAttachesArgs(t *testing.T) {
	t.Parallel()
	s := newTestState()
	src := "a + b"

	caller := s.RegisterVar("arg").Variable()
	s.Content(caller).SetValue(NewResolvedBinding(bind(src, 0, 1)))

	scope := s.Bindings.AddScope("first", "second", "third")
	s.Bindings.Slot(scope, 1).SetValue(ResolvedConstant("old"))

	tracker := s.EnterScope(scope, []Pattern{caller, nil, fakePattern("lit")})
	defer s.ExitScope(tracker)

	first := s.Content(NewVariable(scope, 0))
	assert.Equal(t, "first", first.Name)
	assert.Equal(t, caller, first.Pattern)
	assert.Nil(t, first.Value)

	second := s.Content(NewVariable(scope, 1))
	assert.Nil(t, second.Pattern)
	assert.Nil(t, second.Value)
	assert.Empty(t, second.ValueHistory)

	assert.Equal(t, fakePattern("lit"), s.Content(NewVariable(scope, 2)).Pattern)

	assert.Equal(t, caller, s.TraceVar(NewVariable(scope, 0)))
	assert.Equal(t, NewVariable(scope, 2), s.TraceVar(NewVariable(scope, 2)))
}

func TestEnterScopeRecordsMirrors(t *testing.T) {
	t.Parallel()
	s := newTestState()

	caller := s.RegisterVar("outer").Variable()
	scope := s.Bindings.AddScope("param")

	tracker := s.EnterScope(scope, []Pattern{caller})
	s.ExitScope(tracker)

	param := NewVariable(scope, 0)
	assert.Equal(t, []Variable{caller}, s.Bindings.Mirrors(scope, 0))
	assert.Equal(t, []Variable{param}, s.Bindings.Mirrors(caller.Scope, caller.Index))

	// a later frame that does not touch the slot still sees its mirrors
	tracker = s.EnterScope(scope, nil)
	s.ExitScope(tracker)
	assert.Equal(t, []Variable{caller}, s.Bindings.Mirrors(scope, 0))
}

func TestEnterScopeBreaksAliasCycles(t *testing.T) {
	t.Parallel()
	s := newTestState()
	scope := s.Bindings.AddScope("a", "b")

	// recursive invocation passing its own parameter back in
	self := NewVariable(scope, 0)
	tracker := s.EnterScope(scope, []Pattern{self})
	assert.Nil(t, s.Content(self).Pattern)
	assert.Equal(t, self, s.TraceVar(self))
	s.ExitScope(tracker)

	// b -> a is fine, then a -> b would close the loop
	a, b := NewVariable(scope, 0), NewVariable(scope, 1)
	tracker = s.EnterScope(scope, []Pattern{nil, a})
	s.ExitScope(tracker)
	require.Equal(t, a, s.TraceVar(b))

	s.Content(a).Pattern = nil
	tracker = s.EnterScope(scope, []Pattern{b, a})
	defer s.ExitScope(tracker)
	assert.Equal(t, b, s.TraceVar(a))
	assert.Nil(t, s.Content(b).Pattern, "second alias would create a cycle")
	assert.Equal(t, b, s.TraceVarMut(a))
}

func TestTraceVarChain(t *testing.T) {
	t.Parallel()
	s := newTestState()

	root := s.RegisterVar("root").Variable()
	mid := s.RegisterVar("mid").Variable()
	leaf := s.RegisterVar("leaf").Variable()
	s.Content(mid).Pattern = root
	s.Content(leaf).Pattern = mid

	assert.Equal(t, root, s.TraceVar(leaf))
	assert.Equal(t, root, s.TraceVarMut(leaf))
	assert.Equal(t, root, s.TraceVar(root))
}

func TestGetNamePanicsOnBadAddress(t *testing.T) {
	t.Parallel()
	s := newTestState()
	s.RegisterVar("x")

	assert.Panics(t, func() { s.GetName(NewVariable(0, 5)) })
	assert.Panics(t, func() { s.GetName(NewVariable(9, 0)) })
}

func TestRngIsDeterministic(t *testing.T) {
	t.Parallel()
	a := newTestState()
	b := newTestState()

	for i := 0; i < 32; i++ {
		assert.Equal(t, a.Rng().IntN(1_000_000), b.Rng().IntN(1_000_000))
	}
	assert.Equal(t, a.Rng().Float64(), b.Rng().Float64())
}

func TestBindingsHistoryToRanges(t *testing.T) {
	t.Parallel()
	src := "foo(bar)"
	lang := fakeLanguage{}

	t.Run("collects history and top-level matches", func(t *testing.T) {
		s := newTestState()
		match := s.RegisterVar(MatchVar).Variable()
		arg := s.RegisterVar("arg").Variable()
		s.RegisterVar("unbound")

		s.Content(match).SetValue(NewResolvedBinding(bind(src, 0, 8)))
		s.Content(arg).SetValue(NewResolvedBinding(bind(src, 4, 7)))
		s.Content(arg).SetValue(ResolvedConstant("ignored"))

		matches, top, suppressed := s.BindingsHistoryToRanges(lang, "")
		assert.False(t, suppressed)
		require.Len(t, top, 1)
		assert.Equal(t, uint32(0), top[0].StartByte)

		require.Len(t, matches, 3)
		assert.Equal(t, MatchVar, matches[0].Name)
		assert.Len(t, matches[0].Ranges, 1)
		assert.Equal(t, "0_1_arg", matches[1].ScopedName)
		assert.Len(t, matches[1].Ranges, 1)
		assert.Empty(t, matches[2].Ranges)
	})

	t.Run("fully suppressed variable without top-level match", func(t *testing.T) {
		s := newTestState()
		x := s.RegisterVar("x").Variable()
		hidden := bind(src, 0, 3)
		hidden.suppressed = true
		s.Content(x).SetValue(NewResolvedBinding(hidden))

		matches, top, suppressed := s.BindingsHistoryToRanges(lang, "rule")
		assert.True(t, suppressed)
		assert.Empty(t, top)
		assert.Empty(t, matches)
	})

	t.Run("top-level match overrides suppressed variable", func(t *testing.T) {
		s := newTestState()
		match := s.RegisterVar(MatchVar).Variable()
		x := s.RegisterVar("x").Variable()
		hidden := bind(src, 4, 7)
		hidden.suppressed = true
		s.Content(match).SetValue(NewResolvedBinding(bind(src, 0, 8)))
		s.Content(x).SetValue(NewResolvedBinding(hidden))

		matches, top, suppressed := s.BindingsHistoryToRanges(lang, "rule")
		assert.False(t, suppressed)
		assert.Len(t, top, 1)
		require.Len(t, matches, 1)
		assert.Equal(t, MatchVar, matches[0].Name)
	})

	t.Run("partially suppressed variable is kept", func(t *testing.T) {
		s := newTestState()
		x := s.RegisterVar("x").Variable()
		hidden := bind(src, 0, 3)
		hidden.suppressed = true
		s.Content(x).SetValue(NewResolvedBinding(hidden, bind(src, 4, 7)))

		matches, _, suppressed := s.BindingsHistoryToRanges(lang, "rule")
		assert.False(t, suppressed)
		require.Len(t, matches, 1)
		assert.Len(t, matches[0].Ranges, 1)
	})
}
