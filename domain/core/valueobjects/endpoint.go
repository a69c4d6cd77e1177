package valueobjects

// DatasetID is the opaque identity of one uploaded tabular source.
type DatasetID string

// String returns the string representation
func (id DatasetID) String() string {
	return string(id)
}

// IsZero reports whether the id is unset
func (id DatasetID) IsZero() bool {
	return id == ""
}

// Endpoint identifies one side of a relationship: a column within a dataset.
type Endpoint struct {
	DatasetID DatasetID
	Column    string
}

// NewEndpoint creates an endpoint value
func NewEndpoint(datasetID DatasetID, column string) Endpoint {
	return Endpoint{DatasetID: datasetID, Column: column}
}

// Equals checks if two endpoints refer to the same dataset column
func (e Endpoint) Equals(other Endpoint) bool {
	return e.DatasetID == other.DatasetID && e.Column == other.Column
}

// IsZero reports whether the endpoint is unset
func (e Endpoint) IsZero() bool {
	return e.DatasetID.IsZero() && e.Column == ""
}

// Key returns a canonical string form used for map keys.
// The unit separator keeps dataset ids containing dots unambiguous.
func (e Endpoint) Key() string {
	return string(e.DatasetID) + "\x1f" + e.Column
}
