package evolution

import "errors"

// Engine errors.
var (
	// ErrInvalidConfiguration indicates population parameters that cannot
	// produce a valid engine, such as an elite count not below the size.
	ErrInvalidConfiguration = errors.New("evolution: invalid configuration")

	// ErrInvalidGenome indicates a restored genome that does not fit the assets.
	ErrInvalidGenome = errors.New("evolution: genome does not match assets")
)
