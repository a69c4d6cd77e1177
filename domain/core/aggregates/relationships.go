package aggregates

import (
	"time"

	"relate-backend/domain/core/entities"
	"relate-backend/domain/core/valueobjects"
	pkgerrors "relate-backend/pkg/errors"

	"github.com/google/uuid"
)

// Origin records the provenance of a relationship.
type Origin string

const (
	OriginAuto   Origin = "auto"
	OriginManual Origin = "manual"
)

// Relationship is a declared join key pairing between two datasets' columns.
// Direction is kept for display (the arrow points at To) but equality is
// undirected: a relationship and its reverse are the same edge.
type Relationship struct {
	ID        string
	From      valueobjects.Endpoint
	To        valueobjects.Endpoint
	Origin    Origin
	CreatedAt time.Time
}

// Suggestion is an auto-detected relationship candidate supplied by the
// analysis backend alongside the schema.
type Suggestion struct {
	From valueobjects.Endpoint
	To   valueobjects.Endpoint
}

// RelationshipSet is the mutable store of declared relationships. It owns the
// self-loop and duplicate guards; callers never insert around them.
type RelationshipSet struct {
	ordered []*Relationship
	byPair  map[string]*Relationship
}

// NewRelationshipSet creates an empty store
func NewRelationshipSet() *RelationshipSet {
	return &RelationshipSet{
		byPair: make(map[string]*Relationship),
	}
}

// Add inserts a relationship after running the guards: self-loop first, then
// undirected duplicate detection. Both failures leave the store unchanged.
func (s *RelationshipSet) Add(from, to valueobjects.Endpoint, origin Origin) (*Relationship, error) {
	if from.IsZero() || to.IsZero() {
		return nil, pkgerrors.NewIncomplete("both relationship endpoints are required")
	}
	if from.DatasetID == to.DatasetID {
		return nil, pkgerrors.NewStructural("cannot relate a dataset to itself")
	}
	if s.IsDuplicate(from, to) {
		return nil, pkgerrors.NewStructural("relationship between these columns already exists")
	}

	rel := &Relationship{
		ID:        uuid.New().String(),
		From:      from,
		To:        to,
		Origin:    origin,
		CreatedAt: time.Now(),
	}
	s.ordered = append(s.ordered, rel)
	s.byPair[pairKey(from, to)] = rel
	return rel, nil
}

// IsDuplicate reports whether the store already contains this edge or its
// reverse. A.x→B.y and B.y→A.x are the same edge.
func (s *RelationshipSet) IsDuplicate(from, to valueobjects.Endpoint) bool {
	_, exists := s.byPair[pairKey(from, to)]
	return exists
}

// Remove deletes a relationship by id
func (s *RelationshipSet) Remove(id string) error {
	for i, rel := range s.ordered {
		if rel.ID == id {
			s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
			delete(s.byPair, pairKey(rel.From, rel.To))
			return nil
		}
	}
	return pkgerrors.NewNotFound("relationship not found")
}

// Get looks up a relationship by id
func (s *RelationshipSet) Get(id string) (*Relationship, bool) {
	for _, rel := range s.ordered {
		if rel.ID == id {
			return rel, true
		}
	}
	return nil, false
}

// All returns relationships in insertion order
func (s *RelationshipSet) All() []*Relationship {
	return append([]*Relationship(nil), s.ordered...)
}

// Len returns the number of relationships
func (s *RelationshipSet) Len() int {
	return len(s.ordered)
}

// EndpointRole reports whether the endpoint appears as a from side or a to
// side of any relationship. Feeds the key classifier.
func (s *RelationshipSet) EndpointRole(e valueobjects.Endpoint) (isFrom, isTo bool) {
	for _, rel := range s.ordered {
		if rel.From.Equals(e) {
			isFrom = true
		}
		if rel.To.Equals(e) {
			isTo = true
		}
	}
	return isFrom, isTo
}

// Rebuild replaces the whole store after a catalog refresh: auto suggestions
// are re-seeded from the fresh list (in the order given, no tie-break between
// conflicting suggestions), then surviving manual relationships are re-added.
// Manual relationships whose endpoints vanished are returned as pruned.
// Suggestions that fail a guard are skipped silently.
func (s *RelationshipSet) Rebuild(catalog *entities.Catalog, suggestions []Suggestion) (pruned []*Relationship) {
	previous := s.ordered
	s.ordered = nil
	s.byPair = make(map[string]*Relationship)

	for _, sug := range suggestions {
		if !catalog.HasEndpoint(sug.From) || !catalog.HasEndpoint(sug.To) {
			continue
		}
		_, _ = s.Add(sug.From, sug.To, OriginAuto)
	}

	for _, rel := range previous {
		if rel.Origin != OriginManual {
			continue
		}
		if !catalog.HasEndpoint(rel.From) || !catalog.HasEndpoint(rel.To) {
			pruned = append(pruned, rel)
			continue
		}
		if s.IsDuplicate(rel.From, rel.To) {
			// Now covered by an auto suggestion; not a loss worth surfacing.
			continue
		}
		kept := *rel
		s.ordered = append(s.ordered, &kept)
		s.byPair[pairKey(kept.From, kept.To)] = &kept
	}

	return pruned
}

// pairKey builds the canonical unordered key for an endpoint pair
func pairKey(a, b valueobjects.Endpoint) string {
	ka, kb := a.Key(), b.Key()
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + "\x1e" + kb
}
