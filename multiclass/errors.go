package multiclass

import "errors"

var (
	// ErrInvalidConfiguration is returned when a Contextualiser is built with fewer than one arm.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrShapeMismatch is returned when the input is not a rank-2 (batch x features) layout.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidInput is returned for nil or zero-sized inputs and unsupported dtypes.
	ErrInvalidInput = errors.New("invalid input")
)
