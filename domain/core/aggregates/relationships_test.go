package aggregates

import (
	"testing"

	"relate-backend/domain/core/entities"
	"relate-backend/domain/core/valueobjects"
	pkgerrors "relate-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ep(dataset, column string) valueobjects.Endpoint {
	return valueobjects.NewEndpoint(valueobjects.DatasetID(dataset), column)
}

func testCatalog(t *testing.T) *entities.Catalog {
	t.Helper()

	orders, err := entities.NewDataset("orders", "Orders", []entities.Column{
		{Name: "order_id", Type: "int64", Hint: entities.KeyHintPrimary},
		{Name: "customer_id", Type: "int64"},
		{Name: "amount", Type: "float64"},
	})
	require.NoError(t, err)

	customers, err := entities.NewDataset("customers", "Customers", []entities.Column{
		{Name: "customer_id", Type: "int64", Hint: entities.KeyHintPrimary},
		{Name: "name", Type: "object"},
	})
	require.NoError(t, err)

	catalog, err := entities.NewCatalog([]*entities.Dataset{orders, customers})
	require.NoError(t, err)
	return catalog
}

func TestRelationshipSetAdd(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(s *RelationshipSet)
		from, to valueobjects.Endpoint
		wantErr  bool
		errCheck func(error) bool
	}{
		{
			name: "first relationship succeeds",
			from: ep("orders", "customer_id"),
			to:   ep("customers", "customer_id"),
		},
		{
			name:     "self relationship rejected",
			from:     ep("orders", "order_id"),
			to:       ep("orders", "customer_id"),
			wantErr:  true,
			errCheck: pkgerrors.IsStructural,
		},
		{
			name: "self relationship rejected even when duplicate",
			setup: func(s *RelationshipSet) {
				_, err := s.Add(ep("orders", "a"), ep("orders", "a"), OriginManual)
				assert.Error(t, err)
			},
			from:     ep("orders", "a"),
			to:       ep("orders", "a"),
			wantErr:  true,
			errCheck: pkgerrors.IsStructural,
		},
		{
			name: "exact duplicate rejected",
			setup: func(s *RelationshipSet) {
				_, err := s.Add(ep("orders", "customer_id"), ep("customers", "customer_id"), OriginManual)
				require.NoError(t, err)
			},
			from:     ep("orders", "customer_id"),
			to:       ep("customers", "customer_id"),
			wantErr:  true,
			errCheck: pkgerrors.IsStructural,
		},
		{
			name: "reversed duplicate rejected",
			setup: func(s *RelationshipSet) {
				_, err := s.Add(ep("orders", "customer_id"), ep("customers", "customer_id"), OriginManual)
				require.NoError(t, err)
			},
			from:     ep("customers", "customer_id"),
			to:       ep("orders", "customer_id"),
			wantErr:  true,
			errCheck: pkgerrors.IsStructural,
		},
		{
			name: "same datasets different columns allowed",
			setup: func(s *RelationshipSet) {
				_, err := s.Add(ep("orders", "customer_id"), ep("customers", "customer_id"), OriginManual)
				require.NoError(t, err)
			},
			from: ep("orders", "order_id"),
			to:   ep("customers", "customer_id"),
		},
		{
			name:     "missing endpoint rejected",
			from:     valueobjects.Endpoint{},
			to:       ep("customers", "customer_id"),
			wantErr:  true,
			errCheck: pkgerrors.IsIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewRelationshipSet()
			if tt.setup != nil {
				tt.setup(set)
			}
			before := set.Len()

			rel, err := set.Add(tt.from, tt.to, OriginManual)
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errCheck != nil {
					assert.True(t, tt.errCheck(err))
				}
				// A rejected add leaves the store unchanged
				assert.Equal(t, before, set.Len())
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, rel.ID)
				assert.Equal(t, before+1, set.Len())
			}
		})
	}
}

func TestRelationshipSetRemove(t *testing.T) {
	set := NewRelationshipSet()
	rel, err := set.Add(ep("orders", "customer_id"), ep("customers", "customer_id"), OriginManual)
	require.NoError(t, err)

	require.NoError(t, set.Remove(rel.ID))
	assert.Equal(t, 0, set.Len())

	// Removal frees the pair for re-adding
	_, err = set.Add(ep("customers", "customer_id"), ep("orders", "customer_id"), OriginManual)
	assert.NoError(t, err)

	err = set.Remove("no-such-id")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRelationshipSetEndpointRole(t *testing.T) {
	set := NewRelationshipSet()
	_, err := set.Add(ep("orders", "customer_id"), ep("customers", "customer_id"), OriginManual)
	require.NoError(t, err)

	isFrom, isTo := set.EndpointRole(ep("orders", "customer_id"))
	assert.True(t, isFrom)
	assert.False(t, isTo)

	isFrom, isTo = set.EndpointRole(ep("customers", "customer_id"))
	assert.False(t, isFrom)
	assert.True(t, isTo)

	isFrom, isTo = set.EndpointRole(ep("orders", "amount"))
	assert.False(t, isFrom)
	assert.False(t, isTo)
}

func TestRelationshipSetRebuild(t *testing.T) {
	catalog := testCatalog(t)

	t.Run("reseeds auto suggestions", func(t *testing.T) {
		set := NewRelationshipSet()
		pruned := set.Rebuild(catalog, []Suggestion{
			{From: ep("orders", "customer_id"), To: ep("customers", "customer_id")},
		})
		assert.Empty(t, pruned)
		require.Equal(t, 1, set.Len())
		assert.Equal(t, OriginAuto, set.All()[0].Origin)
	})

	t.Run("keeps surviving manual relationships", func(t *testing.T) {
		set := NewRelationshipSet()
		_, err := set.Add(ep("orders", "order_id"), ep("customers", "customer_id"), OriginManual)
		require.NoError(t, err)

		pruned := set.Rebuild(catalog, nil)
		assert.Empty(t, pruned)
		require.Equal(t, 1, set.Len())
		assert.Equal(t, OriginManual, set.All()[0].Origin)
	})

	t.Run("prunes manual relationships with vanished endpoints", func(t *testing.T) {
		set := NewRelationshipSet()
		_, err := set.Add(ep("orders", "dropped_column"), ep("customers", "customer_id"), OriginManual)
		require.NoError(t, err)

		pruned := set.Rebuild(catalog, nil)
		require.Len(t, pruned, 1)
		assert.Equal(t, "dropped_column", pruned[0].From.Column)
		assert.Equal(t, 0, set.Len())
	})

	t.Run("drops stale auto relationships without pruning", func(t *testing.T) {
		set := NewRelationshipSet()
		set.Rebuild(catalog, []Suggestion{
			{From: ep("orders", "customer_id"), To: ep("customers", "customer_id")},
		})
		require.Equal(t, 1, set.Len())

		// Fresh suggestion list no longer contains the pairing
		pruned := set.Rebuild(catalog, nil)
		assert.Empty(t, pruned)
		assert.Equal(t, 0, set.Len())
	})

	t.Run("manual covered by new suggestion collapses silently", func(t *testing.T) {
		set := NewRelationshipSet()
		_, err := set.Add(ep("orders", "customer_id"), ep("customers", "customer_id"), OriginManual)
		require.NoError(t, err)

		pruned := set.Rebuild(catalog, []Suggestion{
			{From: ep("orders", "customer_id"), To: ep("customers", "customer_id")},
		})
		assert.Empty(t, pruned)
		require.Equal(t, 1, set.Len())
		assert.Equal(t, OriginAuto, set.All()[0].Origin)
	})

	t.Run("skips suggestions with unknown endpoints", func(t *testing.T) {
		set := NewRelationshipSet()
		pruned := set.Rebuild(catalog, []Suggestion{
			{From: ep("orders", "no_such"), To: ep("customers", "customer_id")},
		})
		assert.Empty(t, pruned)
		assert.Equal(t, 0, set.Len())
	})
}

func BenchmarkRelationshipSetIsDuplicate(b *testing.B) {
	set := NewRelationshipSet()
	_, _ = set.Add(ep("orders", "customer_id"), ep("customers", "customer_id"), OriginManual)

	from := ep("customers", "customer_id")
	to := ep("orders", "customer_id")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = set.IsDuplicate(from, to)
	}
}
