package entities

import (
	pkgerrors "relate-backend/pkg/errors"

	"relate-backend/domain/core/valueobjects"
)

// KeyHint is the catalog-supplied marker that a column is a key.
type KeyHint string

const (
	KeyHintNone      KeyHint = "none"
	KeyHintCandidate KeyHint = "candidate"
	KeyHintPrimary   KeyHint = "primary"
)

// Column is one column of a dataset: a name unique within the dataset, a
// declared data type tag, and an optional key hint. Immutable.
type Column struct {
	Name string
	Type string
	Hint KeyHint
}

// Dataset is a read-only view of one uploaded tabular source as supplied by
// the schema catalog. The editor never mutates it during a session.
type Dataset struct {
	id      valueobjects.DatasetID
	name    string
	columns []Column
	byName  map[string]int
}

// NewDataset creates a dataset with its ordered column sequence
func NewDataset(id valueobjects.DatasetID, name string, columns []Column) (*Dataset, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewIncomplete("dataset id is required")
	}
	if name == "" {
		name = id.String()
	}

	byName := make(map[string]int, len(columns))
	for i, col := range columns {
		if col.Name == "" {
			return nil, pkgerrors.NewIncomplete("column name is required")
		}
		if _, dup := byName[col.Name]; dup {
			return nil, pkgerrors.NewStructural("duplicate column name: " + col.Name)
		}
		byName[col.Name] = i
	}

	return &Dataset{
		id:      id,
		name:    name,
		columns: append([]Column(nil), columns...),
		byName:  byName,
	}, nil
}

// ID returns the dataset's identity
func (d *Dataset) ID() valueobjects.DatasetID {
	return d.id
}

// Name returns the display name
func (d *Dataset) Name() string {
	return d.name
}

// Columns returns the ordered column sequence
func (d *Dataset) Columns() []Column {
	return append([]Column(nil), d.columns...)
}

// ColumnCount returns the number of columns
func (d *Dataset) ColumnCount() int {
	return len(d.columns)
}

// Column looks up a column by name
func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Column{}, false
	}
	return d.columns[i], true
}

// ColumnIndex returns the position of a column within the dataset's row list
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	i, ok := d.byName[name]
	return i, ok
}

// HasColumn reports whether the dataset contains the named column
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.byName[name]
	return ok
}
