package services

import (
	"context"
	"sync"

	"relate-backend/application/ports"
	"relate-backend/domain/core/aggregates"
	"relate-backend/domain/core/entities"
	"relate-backend/domain/core/valueobjects"
	domainservices "relate-backend/domain/services"
	pkgerrors "relate-backend/pkg/errors"
	"relate-backend/pkg/observability"

	"go.uber.org/zap"
)

// EditorService is the interaction controller and session registry: it owns
// the live editor sessions, drives the drag and link state machines, and
// keeps every mutation followed by a re-route within the same step.
//
// The HTTP server is concurrent but each session is single-writer: a
// per-session mutex serializes its handlers. Network calls to the analysis
// backend run outside the lock so the local graph stays interactive while a
// call is outstanding; responses are applied under the lock with a sequence
// check that discards superseded fetches.
type EditorService struct {
	gateway    ports.AnalysisGateway
	layout     *domainservices.LayoutEngine
	router     *domainservices.EdgeRouter
	classifier *domainservices.KeyClassifier
	builder    *MergeBuilder
	logger     *zap.Logger
	metrics    *observability.Collector

	mu       sync.RWMutex
	sessions map[aggregates.SessionID]*sessionEntry

	canvasMu      sync.RWMutex
	defaultWidth  float64
	defaultHeight float64
}

type sessionEntry struct {
	mu      sync.Mutex
	session *aggregates.EditorSession
}

// NewEditorService creates the editor service
func NewEditorService(
	gateway ports.AnalysisGateway,
	geometry domainservices.BoxGeometry,
	defaultCanvasWidth, defaultCanvasHeight float64,
	logger *zap.Logger,
	metrics *observability.Collector,
) *EditorService {
	return &EditorService{
		gateway:       gateway,
		layout:        domainservices.NewLayoutEngine(geometry),
		router:        domainservices.NewEdgeRouter(geometry),
		classifier:    domainservices.NewKeyClassifier(),
		builder:       NewMergeBuilder(),
		logger:        logger,
		metrics:       metrics,
		sessions:      make(map[aggregates.SessionID]*sessionEntry),
		defaultWidth:  defaultCanvasWidth,
		defaultHeight: defaultCanvasHeight,
	}
}

// UpdateCanvasDefaults applies hot-reloaded canvas defaults to new sessions
func (e *EditorService) UpdateCanvasDefaults(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	e.canvasMu.Lock()
	e.defaultWidth = width
	e.defaultHeight = height
	e.canvasMu.Unlock()
}

func (e *EditorService) canvasDefaults() (float64, float64) {
	e.canvasMu.RLock()
	defer e.canvasMu.RUnlock()
	return e.defaultWidth, e.defaultHeight
}

// CreateSession fetches the schema for a dashboard and opens an editor
// session seeded with auto-suggested relationships and a circular layout.
func (e *EditorService) CreateSession(ctx context.Context, dashboardID string) (*DiagramView, error) {
	width, height := e.canvasDefaults()
	session, err := aggregates.NewEditorSession(dashboardID, width, height)
	if err != nil {
		return nil, err
	}

	seq := session.BeginSchemaFetch()
	resp, err := e.gateway.FetchSchema(ctx, dashboardID)
	if err != nil {
		return nil, err
	}

	catalog, suggestions, err := toCatalog(resp)
	if err != nil {
		return nil, err
	}
	if _, applied := session.ApplyCatalog(seq, catalog, suggestions); !applied {
		return nil, pkgerrors.NewInternal("initial schema fetch superseded", nil)
	}
	e.layout.EnsurePositions(session)

	entry := &sessionEntry{session: session}
	e.mu.Lock()
	e.sessions[session.ID()] = entry
	e.mu.Unlock()

	e.metrics.SessionsCreated.Inc()
	e.metrics.RelationshipsCreated.WithLabelValues(string(aggregates.OriginAuto)).
		Add(float64(session.Relationships().Len()))
	e.logger.Info("session created",
		zap.String("sessionID", session.ID().String()),
		zap.String("dashboardID", dashboardID),
		zap.Int("datasets", catalog.Len()),
		zap.Int("suggestions", session.Relationships().Len()),
	)

	return e.buildDiagram(session), nil
}

// Diagram returns the current renderable state of a session
func (e *EditorService) Diagram(sessionID aggregates.SessionID) (*DiagramView, error) {
	entry, err := e.entry(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return e.buildDiagram(entry.session), nil
}

// ── Drag sub-machine ────────────────────────────────────────────────────────

// PointerDown starts a drag when the pointer lands on a box's header strip.
// A pointer-down elsewhere on the box, or on empty canvas, does nothing.
func (e *EditorService) PointerDown(sessionID aggregates.SessionID, datasetID valueobjects.DatasetID, x, y float64) (*DiagramView, error) {
	entry, err := e.entry(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	s := entry.session
	pos, ok := s.Position(datasetID)
	if !ok {
		return nil, pkgerrors.NewNotFound("dataset not found: " + datasetID.String())
	}
	if e.layout.InHeader(pos, x, y) {
		s.BeginDrag(datasetID, x-pos.X(), y-pos.Y())
	}
	return e.buildDiagram(s), nil
}

// PointerMove repositions the dragged box and re-routes edges in the same
// step, so the displayed graph never lags the box by more than one event.
func (e *EditorService) PointerMove(sessionID aggregates.SessionID, x, y float64) (*DiagramView, error) {
	entry, err := e.entry(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	s := entry.session
	if _, moved := s.DragTo(x, y); moved {
		e.metrics.DragMoves.Inc()
	}
	return e.buildDiagram(s), nil
}

// PointerUp ends the drag wherever the pointer is
func (e *EditorService) PointerUp(sessionID aggregates.SessionID) (*DiagramView, error) {
	entry, err := e.entry(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.session.EndDrag()
	return e.buildDiagram(entry.session), nil
}

// ── Link sub-machine ────────────────────────────────────────────────────────

// LinkResult reports what a column click did.
type LinkResult struct {
	Outcome aggregates.LinkOutcome
	Notice  string
}

// ClickColumn advances the two-click link gesture
func (e *EditorService) ClickColumn(sessionID aggregates.SessionID, datasetID valueobjects.DatasetID, column string) (*LinkResult, *DiagramView, error) {
	entry, err := e.entry(sessionID)
	if err != nil {
		return nil, nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	s := entry.session
	outcome, rel, err := s.ClickColumn(valueobjects.NewEndpoint(datasetID, column))
	if err != nil && outcome != aggregates.LinkRejected {
		return nil, nil, err
	}

	result := &LinkResult{Outcome: outcome}
	switch outcome {
	case aggregates.LinkArmed:
		result.Notice = "Now pick the matching column on another table"
	case aggregates.LinkCancelled:
		result.Notice = "Selection cleared"
	case aggregates.LinkCreated:
		e.metrics.RelationshipsCreated.WithLabelValues(string(aggregates.OriginManual)).Inc()
		e.logger.Info("relationship created",
			zap.String("sessionID", s.ID().String()),
			zap.String("relationshipID", rel.ID),
		)
	case aggregates.LinkRejected:
		e.metrics.RelationshipsRejected.WithLabelValues("duplicate").Inc()
		result.Notice = err.Error()
	}

	return result, e.buildDiagram(s), nil
}

// AddRelationship is the manual-form path; the four fields are already
// validated non-empty by the transport layer.
func (e *EditorService) AddRelationship(sessionID aggregates.SessionID, from, to valueobjects.Endpoint) (*DiagramView, error) {
	entry, err := e.entry(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	s := entry.session
	rel, err := s.AddManualRelationship(from, to)
	if err != nil {
		if pkgerrors.IsStructural(err) {
			e.metrics.RelationshipsRejected.WithLabelValues("structural").Inc()
		}
		return nil, err
	}

	e.metrics.RelationshipsCreated.WithLabelValues(string(aggregates.OriginManual)).Inc()
	e.logger.Info("relationship created",
		zap.String("sessionID", s.ID().String()),
		zap.String("relationshipID", rel.ID),
	)
	return e.buildDiagram(s), nil
}

// RemoveRelationship deletes one relationship
func (e *EditorService) RemoveRelationship(sessionID aggregates.SessionID, relationshipID string) (*DiagramView, error) {
	entry, err := e.entry(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := entry.session.RemoveRelationship(relationshipID); err != nil {
		return nil, err
	}
	return e.buildDiagram(entry.session), nil
}

// ── Canvas and catalog refresh ──────────────────────────────────────────────

// Resize updates the canvas and seeds positions only for datasets that have
// none; manual arrangement stays put.
func (e *EditorService) Resize(sessionID aggregates.SessionID, width, height float64) (*DiagramView, error) {
	entry, err := e.entry(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	s := entry.session
	if err := s.Resize(width, height); err != nil {
		return nil, err
	}
	e.layout.EnsurePositions(s)
	return e.buildDiagram(s), nil
}

// CleanOutcome carries the cleaning logs plus what the rebuild pruned.
type CleanOutcome struct {
	Logs        map[string][]ports.CleanLogEntry
	PrunedCount int
	Superseded  bool
}

// Clean forwards cleaning options to the analysis backend, then rebuilds the
// catalog and relationship store from the refreshed schema. On collaborator
// failure the session keeps its last-known-good state.
func (e *EditorService) Clean(ctx context.Context, sessionID aggregates.SessionID, options map[string]ports.CleanOptions) (*CleanOutcome, *DiagramView, error) {
	entry, err := e.entry(sessionID)
	if err != nil {
		return nil, nil, err
	}

	entry.mu.Lock()
	s := entry.session
	dashboardID := s.DashboardID()
	seq := s.BeginSchemaFetch()
	entry.mu.Unlock()

	result, err := e.gateway.TriggerCleaning(ctx, dashboardID, options)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err != nil {
		e.logger.Warn("cleaning failed, keeping last-known-good state",
			zap.String("sessionID", s.ID().String()),
			zap.Error(err),
		)
		return nil, nil, err
	}

	catalog, suggestions, err := toCatalog(&result.Schema)
	if err != nil {
		return nil, nil, err
	}

	pruned, applied := s.ApplyCatalog(seq, catalog, suggestions)
	if !applied {
		// A newer fetch landed while this one was outstanding.
		return &CleanOutcome{Logs: result.Logs, Superseded: true}, e.buildDiagram(s), nil
	}
	e.layout.EnsurePositions(s)

	if len(pruned) > 0 {
		e.metrics.RelationshipsPruned.Add(float64(len(pruned)))
		for _, rel := range pruned {
			e.logger.Debug("pruned dangling relationship",
				zap.String("type", string(pkgerrors.ErrorTypeDangling)),
				zap.String("sessionID", s.ID().String()),
				zap.String("relationshipID", rel.ID),
			)
		}
	}

	return &CleanOutcome{Logs: result.Logs, PrunedCount: len(pruned)}, e.buildDiagram(s), nil
}

// ── Merge ───────────────────────────────────────────────────────────────────

// Merge builds the request from the current store and submits it. An empty
// store fails before any network call is made.
func (e *EditorService) Merge(ctx context.Context, sessionID aggregates.SessionID, how string, columnMappings map[string]map[string]string) (*ports.MergeResult, error) {
	entry, err := e.entry(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	req, err := e.builder.Build(entry.session, how, columnMappings)
	entry.mu.Unlock()
	if err != nil {
		e.metrics.MergeSubmissions.WithLabelValues("incomplete").Inc()
		return nil, err
	}

	result, err := e.gateway.SubmitMerge(ctx, req)
	if err != nil {
		e.metrics.MergeSubmissions.WithLabelValues("failure").Inc()
		return nil, err
	}

	e.metrics.MergeSubmissions.WithLabelValues("success").Inc()
	e.logger.Info("merge submitted",
		zap.String("sessionID", sessionID.String()),
		zap.String("how", req.How),
		zap.Int("relationships", len(req.Relationships)),
		zap.Int("rows", result.Rows),
	)
	return result, nil
}

// Export proxies a merge-result download. No editor state is involved.
func (e *EditorService) Export(ctx context.Context, sessionID aggregates.SessionID, resultID string) (*ports.ExportDownload, error) {
	if _, err := e.entry(sessionID); err != nil {
		return nil, err
	}
	return e.gateway.Export(ctx, resultID)
}

// ── Internals ───────────────────────────────────────────────────────────────

func (e *EditorService) entry(id aggregates.SessionID) (*sessionEntry, error) {
	e.mu.RLock()
	entry, ok := e.sessions[id]
	e.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.NewNotFound("session not found: " + id.String())
	}
	return entry, nil
}

// toCatalog translates the gateway schema payload into domain entities
func toCatalog(resp *ports.SchemaResponse) (*entities.Catalog, []aggregates.Suggestion, error) {
	datasets := make([]*entities.Dataset, 0, len(resp.Datasets))
	for _, ds := range resp.Datasets {
		columns := make([]entities.Column, 0, len(ds.Columns))
		for _, col := range ds.Columns {
			hint := entities.KeyHintNone
			switch col.KeyHint {
			case string(entities.KeyHintPrimary):
				hint = entities.KeyHintPrimary
			case string(entities.KeyHintCandidate):
				hint = entities.KeyHintCandidate
			}
			columns = append(columns, entities.Column{
				Name: col.Name,
				Type: col.Type,
				Hint: hint,
			})
		}
		dataset, err := entities.NewDataset(valueobjects.DatasetID(ds.ID), ds.Name, columns)
		if err != nil {
			return nil, nil, err
		}
		datasets = append(datasets, dataset)
	}

	catalog, err := entities.NewCatalog(datasets)
	if err != nil {
		return nil, nil, err
	}

	suggestions := make([]aggregates.Suggestion, 0, len(resp.Suggestions))
	for _, sug := range resp.Suggestions {
		suggestions = append(suggestions, aggregates.Suggestion{
			From: valueobjects.NewEndpoint(valueobjects.DatasetID(sug.FromDataset), sug.FromColumn),
			To:   valueobjects.NewEndpoint(valueobjects.DatasetID(sug.ToDataset), sug.ToColumn),
		})
	}
	return catalog, suggestions, nil
}
