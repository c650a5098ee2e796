package model

import "errors"

var (
	// ErrIndexOutOfRange is returned when a table, row, or column address
	// falls outside the grid.
	ErrIndexOutOfRange = errors.New("model: index out of range")

	// ErrShapeMismatch is returned when two tables that must agree in
	// dimensions do not.
	ErrShapeMismatch = errors.New("model: table shape mismatch")
)
