package entities

import (
	pkgerrors "relate-backend/pkg/errors"

	"relate-backend/domain/core/valueobjects"
)

// Catalog is the ordered, read-only set of datasets shown in one editor
// session. It is replaced wholesale when the analysis backend reports a
// changed column set; it is never patched in place.
type Catalog struct {
	datasets []*Dataset
	byID     map[valueobjects.DatasetID]*Dataset
}

// NewCatalog creates a catalog from an ordered dataset list
func NewCatalog(datasets []*Dataset) (*Catalog, error) {
	byID := make(map[valueobjects.DatasetID]*Dataset, len(datasets))
	for _, d := range datasets {
		if d == nil {
			return nil, pkgerrors.NewIncomplete("dataset cannot be nil")
		}
		if _, dup := byID[d.ID()]; dup {
			return nil, pkgerrors.NewStructural("duplicate dataset id: " + d.ID().String())
		}
		byID[d.ID()] = d
	}
	return &Catalog{
		datasets: append([]*Dataset(nil), datasets...),
		byID:     byID,
	}, nil
}

// Datasets returns the datasets in catalog order
func (c *Catalog) Datasets() []*Dataset {
	return append([]*Dataset(nil), c.datasets...)
}

// Get looks up a dataset by id
func (c *Catalog) Get(id valueobjects.DatasetID) (*Dataset, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Len returns the number of datasets
func (c *Catalog) Len() int {
	return len(c.datasets)
}

// HasEndpoint reports whether the endpoint's dataset and column both exist.
// Used to prune dangling relationships after a refresh.
func (c *Catalog) HasEndpoint(e valueobjects.Endpoint) bool {
	d, ok := c.byID[e.DatasetID]
	return ok && d.HasColumn(e.Column)
}
