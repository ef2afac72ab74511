package geom

import "errors"

// Failure modes for the geometry codec (spec.md §4.2).
var (
	ErrOverrun      = errors.New("geom: buffer overrun")
	ErrInvalidInput = errors.New("geom: invalid or malformed geometry data")
	ErrTooManyParts = errors.New("geom: too many parts")
	ErrTooManyVerts = errors.New("geom: too many vertices in a single part")

	errShortBuffer = ErrOverrun
)
