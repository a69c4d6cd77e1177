package services

import (
	"testing"

	"relate-backend/domain/core/aggregates"
	"relate-backend/domain/core/entities"
	"relate-backend/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ep(dataset, column string) valueobjects.Endpoint {
	return valueobjects.NewEndpoint(valueobjects.DatasetID(dataset), column)
}

func TestClassify(t *testing.T) {
	classifier := NewKeyClassifier()

	rels := aggregates.NewRelationshipSet()
	_, err := rels.Add(ep("orders", "customer_id"), ep("customers", "customer_id"), aggregates.OriginManual)
	require.NoError(t, err)

	tests := []struct {
		name     string
		column   entities.Column
		endpoint valueobjects.Endpoint
		want     KeyRole
	}{
		{
			name:     "primary hint wins over relationship role",
			column:   entities.Column{Name: "customer_id", Hint: entities.KeyHintPrimary},
			endpoint: ep("customers", "customer_id"),
			want:     RolePrimary,
		},
		{
			name:     "candidate hint wins over relationship role",
			column:   entities.Column{Name: "customer_id", Hint: entities.KeyHintCandidate},
			endpoint: ep("orders", "customer_id"),
			want:     RoleCandidate,
		},
		{
			name:     "from endpoint is a foreign key",
			column:   entities.Column{Name: "customer_id"},
			endpoint: ep("orders", "customer_id"),
			want:     RoleForeignKey,
		},
		{
			name:     "to endpoint is a referenced key",
			column:   entities.Column{Name: "customer_id"},
			endpoint: ep("customers", "customer_id"),
			want:     RoleReferencedKey,
		},
		{
			name:     "unrelated column has no role",
			column:   entities.Column{Name: "amount"},
			endpoint: ep("orders", "amount"),
			want:     RoleNone,
		},
		{
			name: "key-looking name alone never classifies",
			// "order_id" matches the name heuristic but appears in no
			// relationship and carries no hint.
			column:   entities.Column{Name: "order_id"},
			endpoint: ep("orders", "order_id"),
			want:     RoleNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(tt.column, tt.endpoint, rels)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLikelyKeyName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"id", true},
		{"ID", true},
		{"  id  ", true},
		{"customer_id", true},
		{"orderid", true},
		{"product_key", true},
		{"country_code", true},
		{"amount", false},
		{"identity_crisis", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LikelyKeyName(tt.name))
		})
	}
}

func TestOrderForSelection(t *testing.T) {
	columns := []entities.Column{
		{Name: "amount"},
		{Name: "customer_id"},
		{Name: "notes"},
		{Name: "order_id"},
	}

	ordered := OrderForSelection(columns)

	names := make([]string, 0, len(ordered))
	for _, col := range ordered {
		names = append(names, col.Name)
	}
	// Likely keys first, original order preserved within each group
	assert.Equal(t, []string{"customer_id", "order_id", "amount", "notes"}, names)

	// Input slice is untouched
	assert.Equal(t, "amount", columns[0].Name)
}
