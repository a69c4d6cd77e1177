package aggregates

import (
	"time"

	"relate-backend/domain/core/entities"
	"relate-backend/domain/core/valueobjects"
	pkgerrors "relate-backend/pkg/errors"

	"github.com/google/uuid"
)

// SessionID represents a unique editor session identifier
type SessionID string

// NewSessionID creates a new random SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// String returns the string representation
func (id SessionID) String() string {
	return string(id)
}

// LinkState is the transient first half of a link gesture: the column the
// user selected on the first click. At most one instance exists at a time.
type LinkState struct {
	Endpoint valueobjects.Endpoint
}

// DragState is the transient state of a box drag: which dataset is being
// moved and the pointer-to-corner offset captured at grab time.
type DragState struct {
	DatasetID valueobjects.DatasetID
	OffsetX   float64
	OffsetY   float64
}

// LinkOutcome describes what a column click did to the link sub-machine.
type LinkOutcome string

const (
	LinkArmed     LinkOutcome = "armed"
	LinkCancelled LinkOutcome = "cancelled"
	LinkCreated   LinkOutcome = "created"
	LinkRejected  LinkOutcome = "rejected"
	LinkIgnored   LinkOutcome = "ignored"
)

// EditorSession is the aggregate root for one relationship-graph editing
// session. It owns the schema catalog view, the relationship store, the box
// positions, and the transient link/drag state. All mutation goes through it,
// preserving the single-writer model.
type EditorSession struct {
	id          SessionID
	dashboardID string

	catalog       *entities.Catalog
	relationships *RelationshipSet
	positions     map[valueobjects.DatasetID]valueobjects.Position

	canvasWidth  float64
	canvasHeight float64

	link *LinkState
	drag *DragState

	// Schema fetch sequencing: a response applied with a stale sequence
	// number is discarded so a superseded fetch cannot clobber a newer one.
	issuedSeq  uint64
	appliedSeq uint64

	createdAt time.Time
	updatedAt time.Time
	version   int
}

// NewEditorSession creates an empty session bound to a dashboard. The catalog
// arrives through ApplyCatalog once the schema fetch resolves.
func NewEditorSession(dashboardID string, canvasWidth, canvasHeight float64) (*EditorSession, error) {
	if dashboardID == "" {
		return nil, pkgerrors.NewIncomplete("dashboard id is required")
	}
	if canvasWidth <= 0 || canvasHeight <= 0 {
		return nil, pkgerrors.NewIncomplete("canvas dimensions must be positive")
	}

	now := time.Now()
	return &EditorSession{
		id:            NewSessionID(),
		dashboardID:   dashboardID,
		relationships: NewRelationshipSet(),
		positions:     make(map[valueobjects.DatasetID]valueobjects.Position),
		canvasWidth:   canvasWidth,
		canvasHeight:  canvasHeight,
		createdAt:     now,
		updatedAt:     now,
		version:       1,
	}, nil
}

// ID returns the session identifier
func (s *EditorSession) ID() SessionID {
	return s.id
}

// DashboardID returns the dashboard this session edits
func (s *EditorSession) DashboardID() string {
	return s.dashboardID
}

// Catalog returns the current schema catalog; nil before the first fetch
func (s *EditorSession) Catalog() *entities.Catalog {
	return s.catalog
}

// Relationships returns the relationship store
func (s *EditorSession) Relationships() *RelationshipSet {
	return s.relationships
}

// CanvasSize returns the current canvas dimensions
func (s *EditorSession) CanvasSize() (width, height float64) {
	return s.canvasWidth, s.canvasHeight
}

// Version returns the session version, bumped on every mutation
func (s *EditorSession) Version() int {
	return s.version
}

// UpdatedAt returns the time of the last mutation
func (s *EditorSession) UpdatedAt() time.Time {
	return s.updatedAt
}

// ── Schema fetch sequencing ─────────────────────────────────────────────────

// BeginSchemaFetch reserves a sequence number for an outgoing schema fetch.
// The session stays fully interactive while the call is outstanding.
func (s *EditorSession) BeginSchemaFetch() uint64 {
	s.issuedSeq++
	return s.issuedSeq
}

// ApplyCatalog installs a fetched catalog. Returns false when the response is
// stale (a newer fetch already applied); the caller must then discard it.
// The relationship store is rebuilt, never merged: auto suggestions are
// re-seeded and manual relationships with vanished endpoints are pruned.
func (s *EditorSession) ApplyCatalog(seq uint64, catalog *entities.Catalog, suggestions []Suggestion) (pruned []*Relationship, applied bool) {
	if seq <= s.appliedSeq {
		return nil, false
	}
	s.appliedSeq = seq

	s.catalog = catalog
	pruned = s.relationships.Rebuild(catalog, suggestions)

	// Positions of datasets that disappeared are dropped; survivors keep
	// their manual arrangement.
	for id := range s.positions {
		if _, ok := catalog.Get(id); !ok {
			delete(s.positions, id)
		}
	}

	s.link = nil
	s.drag = nil
	s.touch()
	return pruned, true
}

// ── Layout state ────────────────────────────────────────────────────────────

// Position returns a dataset's box position
func (s *EditorSession) Position(id valueobjects.DatasetID) (valueobjects.Position, bool) {
	p, ok := s.positions[id]
	return p, ok
}

// HasPosition reports whether the dataset has been placed
func (s *EditorSession) HasPosition(id valueobjects.DatasetID) bool {
	_, ok := s.positions[id]
	return ok
}

// SetPosition overwrites a dataset's position, clamped to the canvas origin
func (s *EditorSession) SetPosition(id valueobjects.DatasetID, x, y float64) error {
	if s.catalog == nil {
		return pkgerrors.NewNotFound("session has no catalog")
	}
	if _, ok := s.catalog.Get(id); !ok {
		return pkgerrors.NewNotFound("dataset not found: " + id.String())
	}
	s.positions[id] = valueobjects.ClampedPosition(x, y)
	s.touch()
	return nil
}

// Resize updates the canvas dimensions. Existing positions are untouched;
// only datasets without a position get seeded afterwards.
func (s *EditorSession) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return pkgerrors.NewIncomplete("canvas dimensions must be positive")
	}
	s.canvasWidth = width
	s.canvasHeight = height
	s.touch()
	return nil
}

// ── Drag sub-machine: Idle → Dragging → Idle ───────────────────────────────

// Dragging reports whether a drag is in progress
func (s *EditorSession) Dragging() bool {
	return s.drag != nil
}

// DragTarget returns the dataset being dragged, if any
func (s *EditorSession) DragTarget() (valueobjects.DatasetID, bool) {
	if s.drag == nil {
		return "", false
	}
	return s.drag.DatasetID, true
}

// BeginDrag captures the pointer-to-corner offset and enters Dragging.
// A pointer-down while already dragging is ignored.
func (s *EditorSession) BeginDrag(id valueobjects.DatasetID, offsetX, offsetY float64) {
	if s.drag != nil {
		return
	}
	s.drag = &DragState{DatasetID: id, OffsetX: offsetX, OffsetY: offsetY}
}

// DragTo moves the dragged box to pointer − offset, clamped non-negative.
// Returns the moved dataset so the caller can re-route in the same step.
func (s *EditorSession) DragTo(pointerX, pointerY float64) (valueobjects.DatasetID, bool) {
	if s.drag == nil {
		return "", false
	}
	s.positions[s.drag.DatasetID] = valueobjects.ClampedPosition(
		pointerX-s.drag.OffsetX,
		pointerY-s.drag.OffsetY,
	)
	s.touch()
	return s.drag.DatasetID, true
}

// EndDrag returns to Idle. Fires on pointer-up anywhere, not only over the
// box, so a fast pointer cannot strand the drag.
func (s *EditorSession) EndDrag() {
	s.drag = nil
}

// ── Link sub-machine: NoSelection → ArmedOnColumn → NoSelection ────────────

// LinkSelection returns the armed endpoint, if any
func (s *EditorSession) LinkSelection() (valueobjects.Endpoint, bool) {
	if s.link == nil {
		return valueobjects.Endpoint{}, false
	}
	return s.link.Endpoint, true
}

// ClickColumn advances the link sub-machine. Clicks are ignored while a drag
// is in progress; drag and link gestures are mutually exclusive.
func (s *EditorSession) ClickColumn(target valueobjects.Endpoint) (LinkOutcome, *Relationship, error) {
	if s.drag != nil {
		return LinkIgnored, nil, nil
	}
	if s.catalog == nil || !s.catalog.HasEndpoint(target) {
		return LinkIgnored, nil, pkgerrors.NewNotFound("column not found: " + target.Column)
	}

	if s.link == nil {
		s.link = &LinkState{Endpoint: target}
		return LinkArmed, nil, nil
	}

	// Second click on the same dataset cancels: it covers accidental
	// re-clicks and would otherwise create a self-relationship.
	if s.link.Endpoint.DatasetID == target.DatasetID {
		s.link = nil
		return LinkCancelled, nil, nil
	}

	from := s.link.Endpoint
	s.link = nil
	rel, err := s.relationships.Add(from, target, OriginManual)
	if err != nil {
		return LinkRejected, nil, err
	}
	s.touch()
	return LinkCreated, rel, nil
}

// AddManualRelationship is the manual-form path. It runs the same guards as
// the gesture path, self-loop first.
func (s *EditorSession) AddManualRelationship(from, to valueobjects.Endpoint) (*Relationship, error) {
	if s.catalog == nil {
		return nil, pkgerrors.NewNotFound("session has no catalog")
	}
	if !s.catalog.HasEndpoint(from) {
		return nil, pkgerrors.NewNotFound("column not found: " + from.Column)
	}
	if !s.catalog.HasEndpoint(to) {
		return nil, pkgerrors.NewNotFound("column not found: " + to.Column)
	}
	rel, err := s.relationships.Add(from, to, OriginManual)
	if err != nil {
		return nil, err
	}
	s.touch()
	return rel, nil
}

// RemoveRelationship deletes a relationship by id
func (s *EditorSession) RemoveRelationship(id string) error {
	if err := s.relationships.Remove(id); err != nil {
		return err
	}
	s.touch()
	return nil
}

func (s *EditorSession) touch() {
	s.updatedAt = time.Now()
	s.version++
}
