package pattern

import (
	"errors"
	"strings"
)

var (
	_ ResolvedPattern = (*ResolvedBinding)(nil)
	_ ResolvedPattern = ResolvedConstant("")
)

// ResolvedBinding is a value bound to one or more source locations.
type ResolvedBinding struct {
	bindings []Binding
}

func NewResolvedBinding(bindings ...Binding) *ResolvedBinding {
	return &ResolvedBinding{bindings: bindings}
}

func (r *ResolvedBinding) Bindings() ([]Binding, bool) {
	return r.bindings, true
}

func (r *ResolvedBinding) Text(lang Language) (string, error) {
	var sb strings.Builder
	for _, b := range r.bindings {
		text, ok := b.Text(lang)
		if !ok {
			return "", errors.New("binding has no text")
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// ResolvedConstant is a value with no source location.
type ResolvedConstant string

func (c ResolvedConstant) Bindings() ([]Binding, bool) {
	return nil, false
}

func (c ResolvedConstant) Text(Language) (string, error) {
	return string(c), nil
}
