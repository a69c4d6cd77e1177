package services

import (
	"relate-backend/domain/core/aggregates"
	"relate-backend/domain/core/valueobjects"
	domainservices "relate-backend/domain/services"
)

// ColumnView is one column row as displayed in a box.
type ColumnView struct {
	Name      string `json:"name"`
	Type      string `json:"dtype"`
	Role      string `json:"role"`
	LikelyKey bool   `json:"likely_key"`
}

// BoxView is one dataset box with its position, fixed geometry, and
// classified column rows in schema order. SelectionOrder lists column names
// with likely join keys first, for selection drop-downs only.
type BoxView struct {
	DatasetID      string       `json:"dataset_id"`
	Name           string       `json:"name"`
	X              float64      `json:"x"`
	Y              float64      `json:"y"`
	Width          float64      `json:"width"`
	Height         float64      `json:"height"`
	HeaderHeight   float64      `json:"header_height"`
	RowHeight      float64      `json:"row_height"`
	Columns        []ColumnView `json:"columns"`
	SelectionOrder []string     `json:"selection_order"`
}

// EndpointView is a serializable endpoint reference.
type EndpointView struct {
	DatasetID string `json:"dataset_id"`
	Column    string `json:"column"`
}

// RelationshipView is one stored relationship with provenance.
type RelationshipView struct {
	ID     string       `json:"id"`
	From   EndpointView `json:"from"`
	To     EndpointView `json:"to"`
	Origin string       `json:"origin"`
}

// DiagramView is the complete renderable state of a session: a pure function
// of current session state, recomputed after every transition.
type DiagramView struct {
	SessionID     string                      `json:"session_id"`
	DashboardID   string                      `json:"dashboard_id"`
	Version       int                         `json:"version"`
	CanvasWidth   float64                     `json:"canvas_width"`
	CanvasHeight  float64                     `json:"canvas_height"`
	Boxes         []BoxView                   `json:"boxes"`
	Edges         []domainservices.RoutedEdge `json:"edges"`
	Relationships []RelationshipView          `json:"relationships"`
	Armed         *EndpointView               `json:"armed,omitempty"`
	Dragging      string                      `json:"dragging,omitempty"`
}

// buildDiagram renders the session: classify every column, then route every
// edge. Always a full recompute, in the same step as the mutation that
// triggered it.
func (e *EditorService) buildDiagram(s *aggregates.EditorSession) *DiagramView {
	geom := e.layout.Geometry()
	view := &DiagramView{
		SessionID:   s.ID().String(),
		DashboardID: s.DashboardID(),
		Version:     s.Version(),
	}
	view.CanvasWidth, view.CanvasHeight = s.CanvasSize()

	catalog := s.Catalog()
	if catalog == nil {
		return view
	}

	rels := s.Relationships()
	for _, ds := range catalog.Datasets() {
		pos, ok := s.Position(ds.ID())
		if !ok {
			pos = valueobjects.ClampedPosition(0, 0)
		}

		columns := ds.Columns()
		columnViews := make([]ColumnView, 0, len(columns))
		for _, col := range columns {
			endpoint := valueobjects.NewEndpoint(ds.ID(), col.Name)
			columnViews = append(columnViews, ColumnView{
				Name:      col.Name,
				Type:      col.Type,
				Role:      string(e.classifier.Classify(col, endpoint, rels)),
				LikelyKey: domainservices.LikelyKeyName(col.Name),
			})
		}

		ordered := domainservices.OrderForSelection(columns)
		selectionOrder := make([]string, 0, len(ordered))
		for _, col := range ordered {
			selectionOrder = append(selectionOrder, col.Name)
		}

		view.Boxes = append(view.Boxes, BoxView{
			DatasetID:      ds.ID().String(),
			Name:           ds.Name(),
			X:              pos.X(),
			Y:              pos.Y(),
			Width:          geom.Width,
			Height:         geom.BoxHeight(ds.ColumnCount()),
			HeaderHeight:   geom.HeaderHeight,
			RowHeight:      geom.RowHeight,
			Columns:        columnViews,
			SelectionOrder: selectionOrder,
		})
	}

	for _, rel := range rels.All() {
		view.Relationships = append(view.Relationships, RelationshipView{
			ID:     rel.ID,
			From:   EndpointView{DatasetID: rel.From.DatasetID.String(), Column: rel.From.Column},
			To:     EndpointView{DatasetID: rel.To.DatasetID.String(), Column: rel.To.Column},
			Origin: string(rel.Origin),
		})
	}

	view.Edges = e.router.Route(s)

	if armed, ok := s.LinkSelection(); ok {
		view.Armed = &EndpointView{DatasetID: armed.DatasetID.String(), Column: armed.Column}
	}
	if target, ok := s.DragTarget(); ok {
		view.Dragging = target.String()
	}
	return view
}
