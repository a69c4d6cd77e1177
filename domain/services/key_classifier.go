package services

import (
	"sort"
	"strings"

	"relate-backend/domain/core/aggregates"
	"relate-backend/domain/core/entities"
	"relate-backend/domain/core/valueobjects"
)

// KeyRole is the display role of a column on the diagram.
type KeyRole string

const (
	RolePrimary       KeyRole = "primary"
	RoleCandidate     KeyRole = "candidate"
	RoleForeignKey    KeyRole = "foreignKey"
	RoleReferencedKey KeyRole = "referencedKey"
	RoleNone          KeyRole = "none"
)

// KeyClassifier derives display roles from catalog hints plus the current
// relationship store. Catalog hints always win over relationship roles.
type KeyClassifier struct{}

// NewKeyClassifier creates a classifier
func NewKeyClassifier() *KeyClassifier {
	return &KeyClassifier{}
}

// Classify returns the display role for one column. Precedence: catalog key
// hint, then from-endpoint (foreign key), then to-endpoint (referenced key).
// The name heuristic never produces a classification.
func (c *KeyClassifier) Classify(col entities.Column, endpoint valueobjects.Endpoint, rels *aggregates.RelationshipSet) KeyRole {
	switch col.Hint {
	case entities.KeyHintPrimary:
		return RolePrimary
	case entities.KeyHintCandidate:
		return RoleCandidate
	}

	isFrom, isTo := rels.EndpointRole(endpoint)
	if isFrom {
		return RoleForeignKey
	}
	if isTo {
		return RoleReferencedKey
	}
	return RoleNone
}

// LikelyKeyName reports whether a column name looks like a join key:
// exact "id" or a suffix of id/_id/_key/_code, case-insensitive. Used only to
// prioritize columns in selection lists, never shown on the diagram.
func LikelyKeyName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "id" {
		return true
	}
	for _, suffix := range []string{"id", "_id", "_key", "_code"} {
		if strings.HasSuffix(n, suffix) {
			return true
		}
	}
	return false
}

// OrderForSelection returns the columns reordered for selection lists:
// likely key names first, original order preserved within each group.
func OrderForSelection(columns []entities.Column) []entities.Column {
	ordered := append([]entities.Column(nil), columns...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return LikelyKeyName(ordered[i].Name) && !LikelyKeyName(ordered[j].Name)
	})
	return ordered
}
