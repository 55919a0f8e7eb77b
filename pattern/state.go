package pattern

import (
	"fmt"
	"math/rand/v2"

	tt "github.com/gnolang/tgrit/types"
)

// rngSeed is fixed so identical inputs always make identical random choices.
const rngSeed = 32

// State is the execution state of one top-level match attempt.
// It is not safe for concurrent use; give each attempt its own State.
type State struct {
	Bindings *VarRegistry
	Effects  []Effect
	Files    *FileRegistry

	rng          *rand.Rand
	currentScope int
	// scopes of pattern definitions created at match time, by name
	patternScopes map[string]int
}

// ScopeTracker remembers the scope that was current before EnterScope.
type ScopeTracker struct {
	previousScope int
}

func NewState(bindings *VarRegistry, files *FileRegistry) *State {
	return &State{
		Bindings:      bindings,
		Files:         files,
		rng:           rand.New(rand.NewPCG(rngSeed, rngSeed)),
		currentScope:  0,
		patternScopes: make(map[string]int),
	}
}

// Rng returns the state's deterministic random generator.
func (s *State) Rng() *rand.Rand {
	return s.rng
}

func (s *State) CurrentScope() int {
	return s.currentScope
}

// AddEffect records a proposed edit.
func (s *State) AddEffect(effect Effect) {
	s.Effects = append(s.Effects, effect)
}

// EnterScope pushes a new frame for scope and makes it current.
//
// Every slot of the new frame starts without a value. args[i], when not nil,
// becomes the pattern of slot i. A Variable argument also links both
// variables as mirrors of each other.
//
// The returned tracker must be passed to ExitScope exactly once.
func (s *State) EnterScope(scope int, args []Pattern) ScopeTracker {
	s.Bindings.push(scope)

	size := s.Bindings.Len(scope)
	for index := 0; index < size && index < len(args); index++ {
		arg := args[index]
		if arg == nil {
			continue
		}
		content := s.Bindings.Slot(scope, index)
		if v, ok := arg.(Variable); ok {
			target := NewVariable(scope, index)
			if v != target {
				content.addMirror(v)
				if s.Bindings.Has(v.Scope, v.Index) {
					s.Bindings.Slot(v.Scope, v.Index).addMirror(target)
				}
			}
			// an alias that leads back to this slot would make tracing loop
			if s.aliasReaches(v, target) {
				continue
			}
		}
		content.Pattern = arg
	}

	previous := s.currentScope
	s.currentScope = scope
	return ScopeTracker{previousScope: previous}
}

// ExitScope restores the scope that was current before the matching
// EnterScope. The frame pushed by EnterScope stays in the registry.
func (s *State) ExitScope(tracker ScopeTracker) {
	s.currentScope = tracker.previousScope
}

// RegisterPatternDefinition returns the scope of a pattern definition
// created at match time, allocating a new scope on first use.
func (s *State) RegisterPatternDefinition(name string) int {
	if scope, ok := s.patternScopes[name]; ok {
		return scope
	}
	scope := s.Bindings.AddScope()
	s.patternScopes[name] = scope
	return scope
}

// GetName returns the name of the slot addressed by v.
func (s *State) GetName(v Variable) string {
	return s.Bindings.Name(v.Scope, v.Index)
}

// Content returns the mutable slot addressed by v.
func (s *State) Content(v Variable) *VariableContent {
	return s.Bindings.Slot(v.Scope, v.Index)
}

// FindVar looks name up in every scope, newest scope first.
//
// This is a linear search; when a Variable is already at hand use TraceVar.
func (s *State) FindVar(name string) (Variable, bool) {
	if scope, ok := s.findVarScope(name); ok {
		return scope.Variable(), true
	}
	return Variable{}, false
}

func (s *State) findVarScope(name string) (VariableScope, bool) {
	for scope := s.Bindings.ScopeCount() - 1; scope >= 0; scope-- {
		if index, ok := s.Bindings.Find(scope, name); ok {
			return NewVariableScope(scope, index), true
		}
	}
	return VariableScope{}, false
}

// RegisterVar returns the existing variable called name, searching every
// scope, or appends a new slot to the current scope.
func (s *State) RegisterVar(name string) VariableScope {
	if existing, ok := s.findVarScope(name); ok {
		return existing
	}
	index := s.Bindings.Append(s.currentScope, name)
	return NewVariableScope(s.currentScope, index)
}

// FindVarInScope looks name up in the current scope only.
func (s *State) FindVarInScope(name string) (Variable, bool) {
	if index, ok := s.Bindings.Find(s.currentScope, name); ok {
		return NewVariable(s.currentScope, index), true
	}
	return Variable{}, false
}

// TraceVar follows the alias chain starting at v and returns the variable
// that holds the binding.
func (s *State) TraceVar(v Variable) Variable {
	content, ok := s.Bindings.lookup(v.Scope, v.Index)
	if !ok {
		return v
	}
	if next, ok := content.Alias(); ok {
		return s.TraceVar(next)
	}
	return v
}

// TraceVarMut is TraceVar for callers about to modify the traced slot: every
// slot on the chain is materialized in its current frame.
func (s *State) TraceVarMut(v Variable) Variable {
	if next, ok := s.Bindings.Slot(v.Scope, v.Index).Alias(); ok {
		return s.TraceVarMut(next)
	}
	return v
}

func (s *State) aliasReaches(from, target Variable) bool {
	seen := make(map[Variable]struct{})
	for v := from; ; {
		if v == target {
			return true
		}
		if _, ok := seen[v]; ok || !s.Bindings.Has(v.Scope, v.Index) {
			return false
		}
		seen[v] = struct{}{}
		content, ok := s.Bindings.lookup(v.Scope, v.Index)
		if !ok {
			return false
		}
		next, ok := content.Alias()
		if !ok {
			return false
		}
		v = next
	}
}

// BindingsHistoryToRanges collects every location each variable of the
// current frames was ever bound to.
//
// Bindings suppressed for currentName are left out. A variable whose every
// binding was suppressed is dropped from the result; the returned flag is
// set when that happened and no whole-match location survived.
func (s *State) BindingsHistoryToRanges(lang Language, currentName string) ([]tt.VariableMatch, []tt.Range, bool) {
	var (
		matches         []tt.VariableMatch
		topLevelMatches []tt.Range
		suppressed      bool
	)
	for scope := 0; scope < s.Bindings.ScopeCount(); scope++ {
		for index := 0; index < s.Bindings.Len(scope); index++ {
			name := s.Bindings.Name(scope, index)

			var (
				varRanges       []tt.Range
				bindingsCount   int
				suppressedCount int
			)
			if content, ok := s.Bindings.lookup(scope, index); ok {
				for _, value := range content.ValueHistory {
					bindings, ok := value.Bindings()
					if !ok {
						continue
					}
					for _, binding := range bindings {
						bindingsCount++
						if binding.IsSuppressed(lang, currentName) {
							suppressedCount++
							continue
						}
						position, ok := binding.Position(lang)
						if !ok {
							continue
						}
						if name == MatchVar {
							topLevelMatches = append(topLevelMatches, position)
						}
						varRanges = append(varRanges, position)
					}
				}
			}
			if suppressedCount > 0 && suppressedCount == bindingsCount {
				suppressed = true
				continue
			}
			scopedName := fmt.Sprintf("%d_%d_%s", scope, index, name)
			matches = append(matches, tt.NewVariableMatch(name, scopedName, varRanges))
		}
	}
	suppressed = suppressed && len(topLevelMatches) == 0
	return matches, topLevelMatches, suppressed
}
