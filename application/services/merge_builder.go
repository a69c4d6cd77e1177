package services

import (
	"relate-backend/application/ports"
	"relate-backend/domain/core/aggregates"
	pkgerrors "relate-backend/pkg/errors"
)

// validJoinModes matches the join types the merge backend executes.
var validJoinModes = map[string]bool{
	"inner": true,
	"left":  true,
	"right": true,
	"outer": true,
}

// MergeBuilder serializes the relationship store into the request contract
// of the join-execution backend.
type MergeBuilder struct{}

// NewMergeBuilder creates a merge builder
func NewMergeBuilder() *MergeBuilder {
	return &MergeBuilder{}
}

// Build produces the merge request. At least one relationship must exist;
// otherwise the build fails and no request is made. Rename collisions are
// not checked here: the backend reports them as a request-level error.
func (b *MergeBuilder) Build(s *aggregates.EditorSession, how string, columnMappings map[string]map[string]string) (*ports.MergeRequest, error) {
	if how == "" {
		how = "inner"
	}
	if !validJoinModes[how] {
		return nil, pkgerrors.NewIncomplete("invalid join mode: " + how)
	}

	rels := s.Relationships().All()
	if len(rels) == 0 {
		return nil, pkgerrors.NewIncomplete("no relationships defined")
	}

	out := make([]ports.MergeRelationship, 0, len(rels))
	for _, rel := range rels {
		out = append(out, ports.MergeRelationship{
			FromDataset: rel.From.DatasetID.String(),
			FromColumn:  rel.From.Column,
			ToDataset:   rel.To.DatasetID.String(),
			ToColumn:    rel.To.Column,
		})
	}

	return &ports.MergeRequest{
		DashboardID:    s.DashboardID(),
		How:            how,
		Relationships:  out,
		ColumnMappings: columnMappings,
	}, nil
}
