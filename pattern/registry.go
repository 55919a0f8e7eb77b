package pattern

import (
	"fmt"
	"slices"
)

/*
VarRegistry stores every binding slot of a match attempt.

Slots live in a flat arena and are addressed by integer handles. Scopes and
frames are a small directory on top of the arena:

  - a scope is the variable namespace of one pattern definition and owns the
    list of frames ever pushed for it; the last one is the current frame.
  - a frame records the names of its slots and an overlay mapping a variable
    index to the arena slot materialized for it in this frame.

Entering a scope pushes a frame that shares the names of the previous top
frame and starts with an empty overlay. A slot that is never touched in the
new frame is read as a fresh slot (no alias, no value, the parent's mirrors),
so entering a scope costs O(1) regardless of how many variables it declares.
Frames are never removed: the frame list doubles as the invocation history.
*/
type VarRegistry struct {
	slots  []*VariableContent
	frames []frame
	scopes [][]int
}

type frame struct {
	scope  int
	parent int // -1 for the first frame of a scope
	// names is shared with the parent frame up to the parent's length.
	// Its capacity is capped when the frame is created so appends never
	// write into the parent's backing array.
	names   []string
	overlay map[int]int
}

// NewVarRegistry creates a registry with the root scope 0 and its first,
// empty frame.
func NewVarRegistry() *VarRegistry {
	r := &VarRegistry{}
	r.AddScope()
	return r
}

// AddScope allocates a new scope with one frame declaring names, and returns
// the scope id.
func (r *VarRegistry) AddScope(names ...string) int {
	scope := len(r.scopes)
	id := len(r.frames)
	r.frames = append(r.frames, frame{scope: scope, parent: -1})
	r.scopes = append(r.scopes, []int{id})
	for _, name := range names {
		r.Append(scope, name)
	}
	return scope
}

func (r *VarRegistry) ScopeCount() int {
	return len(r.scopes)
}

// FrameCount returns how many frames were ever pushed for scope.
func (r *VarRegistry) FrameCount(scope int) int {
	r.checkScope(scope)
	return len(r.scopes[scope])
}

// Len returns the number of slots in the current frame of scope.
func (r *VarRegistry) Len(scope int) int {
	return len(r.frames[r.top(scope)].names)
}

// Name returns the name of a slot in the current frame of scope.
func (r *VarRegistry) Name(scope, index int) string {
	f := &r.frames[r.top(scope)]
	r.checkIndex(f, index)
	return f.names[index]
}

// Find returns the index of name in the current frame of scope.
func (r *VarRegistry) Find(scope int, name string) (int, bool) {
	f := &r.frames[r.top(scope)]
	for index, n := range f.names {
		if n == name {
			return index, true
		}
	}
	return 0, false
}

// Append adds a slot named name to the current frame of scope and returns
// its index. Names are not checked for uniqueness here.
func (r *VarRegistry) Append(scope int, name string) int {
	id := r.top(scope)
	f := &r.frames[id]
	index := len(f.names)
	f.names = append(f.names, name)
	r.materialize(id, index)
	return index
}

// Slot returns the mutable slot for a variable in the current frame of its
// scope, materializing it if the frame has not touched it yet.
func (r *VarRegistry) Slot(scope, index int) *VariableContent {
	id := r.top(scope)
	r.checkIndex(&r.frames[id], index)
	return r.materialize(id, index)
}

// lookup returns the slot materialized in the current frame. When it
// reports false the slot is fresh: no alias, no value and no history.
func (r *VarRegistry) lookup(scope, index int) (*VariableContent, bool) {
	f := &r.frames[r.top(scope)]
	r.checkIndex(f, index)
	slot, ok := f.overlay[index]
	if !ok {
		return nil, false
	}
	return r.slots[slot], true
}

// Mirrors returns the mirrors of a slot in the current frame of scope.
func (r *VarRegistry) Mirrors(scope, index int) []Variable {
	id := r.top(scope)
	r.checkIndex(&r.frames[id], index)
	return r.inheritedMirrors(id, index)
}

// Has reports whether scope and index address a slot.
func (r *VarRegistry) Has(scope, index int) bool {
	if scope < 0 || scope >= len(r.scopes) {
		return false
	}
	return index >= 0 && index < r.Len(scope)
}

// push adds a new frame to scope derived from its current frame.
func (r *VarRegistry) push(scope int) int {
	parent := r.top(scope)
	names := r.frames[parent].names
	id := len(r.frames)
	r.frames = append(r.frames, frame{
		scope:  scope,
		parent: parent,
		names:  names[:len(names):len(names)],
	})
	r.scopes[scope] = append(r.scopes[scope], id)
	return id
}

func (r *VarRegistry) materialize(id, index int) *VariableContent {
	f := &r.frames[id]
	if slot, ok := f.overlay[index]; ok {
		return r.slots[slot]
	}
	content := NewVariableContent(f.names[index])
	if f.parent >= 0 {
		content.Mirrors = slices.Clone(r.inheritedMirrors(f.parent, index))
	}
	if f.overlay == nil {
		f.overlay = make(map[int]int)
	}
	f.overlay[index] = len(r.slots)
	r.slots = append(r.slots, content)
	return content
}

func (r *VarRegistry) inheritedMirrors(id, index int) []Variable {
	for id >= 0 {
		f := &r.frames[id]
		if slot, ok := f.overlay[index]; ok {
			return r.slots[slot].Mirrors
		}
		id = f.parent
	}
	return nil
}

func (r *VarRegistry) top(scope int) int {
	r.checkScope(scope)
	frames := r.scopes[scope]
	if len(frames) == 0 {
		panic(fmt.Sprintf("scope %d has no frame", scope))
	}
	return frames[len(frames)-1]
}

func (r *VarRegistry) checkScope(scope int) {
	if scope < 0 || scope >= len(r.scopes) {
		panic(fmt.Sprintf("variable scope out of bounds: scope=%d, scopes=%d", scope, len(r.scopes)))
	}
}

func (r *VarRegistry) checkIndex(f *frame, index int) {
	if index < 0 || index >= len(f.names) {
		panic(fmt.Sprintf("variable index out of bounds: scope=%d, index=%d, slots=%d", f.scope, index, len(f.names)))
	}
}
