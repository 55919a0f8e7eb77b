package pattern

import "errors"

var (
	// ErrAbsolutePathBeforeLoad is returned when the absolute path of a file
	// is requested before any version of it was loaded.
	ErrAbsolutePathBeforeLoad = errors.New("absolute file path accessed before file was loaded")

	// ErrOverlappingEffects is returned when two effects partially overlap.
	ErrOverlappingEffects = errors.New("effects have overlapping ranges")

	ErrBindingHasNoRange = errors.New("binding has no range")
)
