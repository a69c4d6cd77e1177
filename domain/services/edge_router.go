package services

import (
	"relate-backend/domain/core/aggregates"
	"relate-backend/domain/core/entities"
	"relate-backend/domain/core/valueobjects"
)

// labelLift is how far above the segment midpoint the label anchor sits.
const labelLift = 6

// Marker styles on the two ends of a routed edge. Equality of relationships
// is undirected, but the rendered edge shows direction: dot at from, arrow
// at to.
const (
	MarkerDot   = "dot"
	MarkerArrow = "arrow"
)

// Point is a renderable 2-D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RoutedEdge is the renderable form of one relationship: two connection
// points, end markers, and a label anchored near the segment midpoint.
type RoutedEdge struct {
	RelationshipID string `json:"relationship_id"`
	Origin         string `json:"origin"`
	From           Point  `json:"from"`
	To             Point  `json:"to"`
	FromMarker     string `json:"from_marker"`
	ToMarker       string `json:"to_marker"`
	Label          string `json:"label"`
	LabelAt        Point  `json:"label_at"`
}

// EdgeRouter computes connection points and labels for every relationship.
// It reads session state and never writes it; each pass is a full recompute
// because moving one box can flip the left/right rule for every edge
// touching it.
type EdgeRouter struct {
	geometry BoxGeometry
}

// NewEdgeRouter creates a router with the given box geometry
func NewEdgeRouter(geometry BoxGeometry) *EdgeRouter {
	return &EdgeRouter{geometry: geometry}
}

// Route computes the full renderable line set for the session's current
// relationships and positions, in store order.
func (r *EdgeRouter) Route(s *aggregates.EditorSession) []RoutedEdge {
	catalog := s.Catalog()
	if catalog == nil {
		return nil
	}

	rels := s.Relationships().All()
	edges := make([]RoutedEdge, 0, len(rels))
	for _, rel := range rels {
		edge, ok := r.routeOne(s, catalog, rel)
		if !ok {
			continue
		}
		edges = append(edges, edge)
	}
	return edges
}

func (r *EdgeRouter) routeOne(s *aggregates.EditorSession, catalog *entities.Catalog, rel *aggregates.Relationship) (RoutedEdge, bool) {
	fromDS, okA := catalog.Get(rel.From.DatasetID)
	toDS, okB := catalog.Get(rel.To.DatasetID)
	if !okA || !okB {
		return RoutedEdge{}, false
	}
	fromPos, okA := s.Position(rel.From.DatasetID)
	toPos, okB := s.Position(rel.To.DatasetID)
	if !okA || !okB {
		return RoutedEdge{}, false
	}

	fromY := r.rowCenterY(fromPos, fromDS, rel.From.Column)
	toY := r.rowCenterY(toPos, toDS, rel.To.Column)

	var fromPt, toPt Point
	switch {
	case fromPos.X()+r.geometry.Width < toPos.X():
		// from-box entirely left of to-box: right edge to left edge.
		fromPt = Point{X: fromPos.X() + r.geometry.Width, Y: fromY}
		toPt = Point{X: toPos.X(), Y: toY}
	case toPos.X()+r.geometry.Width < fromPos.X():
		fromPt = Point{X: fromPos.X(), Y: fromY}
		toPt = Point{X: toPos.X() + r.geometry.Width, Y: toY}
	default:
		// Horizontal overlap: anchor each side at its own row center so
		// the line is not drawn through the overlapping interior.
		fromPt = Point{X: fromPos.X() + r.geometry.Width/2, Y: fromY}
		toPt = Point{X: toPos.X() + r.geometry.Width/2, Y: toY}
	}

	label := rel.From.Column
	if rel.From.Column != rel.To.Column {
		label = rel.From.Column + " ↔ " + rel.To.Column
	}

	return RoutedEdge{
		RelationshipID: rel.ID,
		Origin:         string(rel.Origin),
		From:           fromPt,
		To:             toPt,
		FromMarker:     MarkerDot,
		ToMarker:       MarkerArrow,
		Label:          label,
		LabelAt: Point{
			X: (fromPt.X + toPt.X) / 2,
			Y: (fromPt.Y+toPt.Y)/2 - labelLift,
		},
	}, true
}

// rowCenterY finds the vertical center of a column row. A column that cannot
// be located degrades to the box center rather than failing the edge.
func (r *EdgeRouter) rowCenterY(pos valueobjects.Position, ds *entities.Dataset, column string) float64 {
	idx, ok := ds.ColumnIndex(column)
	if !ok {
		return pos.Y() + r.geometry.BoxHeight(ds.ColumnCount())/2
	}
	return pos.Y() + r.geometry.HeaderHeight + float64(idx)*r.geometry.RowHeight + r.geometry.RowHeight/2
}
