package domain

import "errors"

// ErrInvalidConfiguration marks startup errors that must stop the process:
// non-positive intervals, negative delays, malformed bounding boxes, and
// unknown sources. Fetch failures never wrap it.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ErrUnknownSampleType is returned by the codec for a SampleType it does not support.
var ErrUnknownSampleType = errors.New("unknown sample type")

// Coordinate errors returned by Grid.Cell.
var (
	ErrInvalidCoordinate = errors.New("invalid longitude or latitude")
	ErrOutOfBounds       = errors.New("coordinate outside bounding box")
)
