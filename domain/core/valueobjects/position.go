package valueobjects

import (
	"math"

	pkgerrors "relate-backend/pkg/errors"
)

// Position is a value object for a dataset box's top-left corner on the
// canvas. Coordinates are always finite and never negative: boxes cannot be
// dragged above or left of the canvas origin.
type Position struct {
	x float64
	y float64
}

// NewPosition creates a position with validation. Negative coordinates are
// rejected; use ClampedPosition for pointer-derived values.
func NewPosition(x, y float64) (Position, error) {
	if !isValidCoordinate(x) || !isValidCoordinate(y) {
		return Position{}, pkgerrors.NewInternal("invalid coordinates: must be finite numbers", nil)
	}
	if x < 0 || y < 0 {
		return Position{}, pkgerrors.NewInternal("invalid coordinates: must be non-negative", nil)
	}
	return Position{x: x, y: y}, nil
}

// ClampedPosition creates a position from raw pointer arithmetic, clamping
// negative coordinates to the canvas origin. Non-finite inputs clamp to 0.
func ClampedPosition(x, y float64) Position {
	if !isValidCoordinate(x) || x < 0 {
		x = 0
	}
	if !isValidCoordinate(y) || y < 0 {
		y = 0
	}
	return Position{x: x, y: y}
}

// X returns the X coordinate
func (p Position) X() float64 {
	return p.x
}

// Y returns the Y coordinate
func (p Position) Y() float64 {
	return p.y
}

// Equals checks if two positions are equal
func (p Position) Equals(other Position) bool {
	const epsilon = 1e-9
	return math.Abs(p.x-other.x) < epsilon &&
		math.Abs(p.y-other.y) < epsilon
}

// Translate moves the position by the given offsets, clamped to the canvas
func (p Position) Translate(dx, dy float64) Position {
	return ClampedPosition(p.x+dx, p.y+dy)
}

// Midpoint calculates the midpoint between two positions
func (p Position) Midpoint(other Position) Position {
	return Position{
		x: (p.x + other.x) / 2,
		y: (p.y + other.y) / 2,
	}
}

// isValidCoordinate checks if a coordinate is a valid finite number
func isValidCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
