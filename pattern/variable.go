package pattern

import "fmt"

// Variable addresses a binding slot by scope and index within the scope's
// current frame.
type Variable struct {
	Scope int
	Index int
}

var _ Pattern = Variable{}

func NewVariable(scope, index int) Variable {
	return Variable{Scope: scope, Index: index}
}

func (v Variable) Name() string { return "variable" }

func (v Variable) String() string {
	return fmt.Sprintf("$%d.%d", v.Scope, v.Index)
}

// VariableScope is the address returned while registering a variable,
// before it is used as a Variable.
type VariableScope struct {
	Scope int
	Index int
}

func NewVariableScope(scope, index int) VariableScope {
	return VariableScope{Scope: scope, Index: index}
}

func (s VariableScope) Variable() Variable {
	return Variable{Scope: s.Scope, Index: s.Index}
}

// VariableContent is one binding slot.
type VariableContent struct {
	Name string
	// Pattern, when it is a Variable, makes this slot an alias of that variable.
	Pattern      Pattern
	Value        ResolvedPattern
	ValueHistory []ResolvedPattern
	// Mirrors lists variables aliased to this one. Informational only.
	Mirrors []Variable
}

func NewVariableContent(name string) *VariableContent {
	return &VariableContent{Name: name}
}

// SetValue binds value and records it in the history.
func (c *VariableContent) SetValue(value ResolvedPattern) {
	c.Value = value
	c.ValueHistory = append(c.ValueHistory, value)
}

// Alias returns the variable this slot points to, if any.
func (c *VariableContent) Alias() (Variable, bool) {
	v, ok := c.Pattern.(Variable)
	return v, ok
}

func (c *VariableContent) addMirror(v Variable) {
	for _, m := range c.Mirrors {
		if m == v {
			return
		}
	}
	c.Mirrors = append(c.Mirrors, v)
}
