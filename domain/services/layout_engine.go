package services

import (
	"math"

	"relate-backend/domain/core/aggregates"
	"relate-backend/domain/core/valueobjects"
)

// Ellipse radii as fractions of the canvas, so seeded boxes stay on-canvas.
const (
	ellipseFractionX = 0.36
	ellipseFractionY = 0.36
)

// BoxGeometry fixes the on-screen dimensions of a dataset box. The browser
// original measured DOM elements; the service pins these so edge routing is
// deterministic.
type BoxGeometry struct {
	Width        float64
	HeaderHeight float64
	RowHeight    float64
}

// DefaultBoxGeometry returns the standard box dimensions
func DefaultBoxGeometry() BoxGeometry {
	return BoxGeometry{
		Width:        220,
		HeaderHeight: 36,
		RowHeight:    24,
	}
}

// BoxHeight returns the full height of a box with the given column count
func (g BoxGeometry) BoxHeight(columnCount int) float64 {
	return g.HeaderHeight + float64(columnCount)*g.RowHeight
}

// LayoutEngine owns the circular seeding algorithm. Positions are created
// lazily on first layout; after that they belong to the drag gesture and the
// engine never moves them.
type LayoutEngine struct {
	geometry BoxGeometry
}

// NewLayoutEngine creates a layout engine with the given box geometry
func NewLayoutEngine(geometry BoxGeometry) *LayoutEngine {
	return &LayoutEngine{geometry: geometry}
}

// Geometry returns the box geometry in use
func (e *LayoutEngine) Geometry() BoxGeometry {
	return e.geometry
}

// EnsurePositions seeds a position for every catalog dataset that does not
// have one. Dataset i of N lands with its center on an ellipse around the
// canvas center at angle 2π·i/N − π/2, so dataset 0 starts at the top.
// Re-seeding is idempotent: an existing position is never moved.
func (e *LayoutEngine) EnsurePositions(s *aggregates.EditorSession) {
	catalog := s.Catalog()
	if catalog == nil {
		return
	}

	datasets := catalog.Datasets()
	n := len(datasets)
	if n == 0 {
		return
	}

	canvasW, canvasH := s.CanvasSize()
	centerX := canvasW / 2
	centerY := canvasH / 2
	radiusX := canvasW * ellipseFractionX
	radiusY := canvasH * ellipseFractionY

	for i, ds := range datasets {
		if s.HasPosition(ds.ID()) {
			continue
		}
		angle := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
		boxH := e.geometry.BoxHeight(ds.ColumnCount())
		// Offset by half the box so the center, not the corner, sits on
		// the ellipse. Clamping keeps narrow canvases on-screen.
		x := centerX + radiusX*math.Cos(angle) - e.geometry.Width/2
		y := centerY + radiusY*math.Sin(angle) - boxH/2
		pos := valueobjects.ClampedPosition(x, y)
		_ = s.SetPosition(ds.ID(), pos.X(), pos.Y())
	}
}

// InHeader reports whether a pointer coordinate falls on the header strip of
// a box at the given position. Only the header starts a drag.
func (e *LayoutEngine) InHeader(pos valueobjects.Position, x, y float64) bool {
	return x >= pos.X() && x <= pos.X()+e.geometry.Width &&
		y >= pos.Y() && y <= pos.Y()+e.geometry.HeaderHeight
}
