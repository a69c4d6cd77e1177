// Package ports defines the boundary contracts the application layer
// depends on. The analysis backend implements file parsing, cleaning, join
// execution, and export; this service only consumes its edges.
package ports

import (
	"context"
)

// SchemaColumn is one column as reported by the analysis backend.
type SchemaColumn struct {
	Name    string `json:"name"`
	Type    string `json:"dtype"`
	KeyHint string `json:"key_hint,omitempty"`
}

// SchemaDataset is one dataset (uploaded file) with its columns.
type SchemaDataset struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Columns []SchemaColumn `json:"columns"`
}

// SchemaSuggestion is a pre-computed relationship suggestion, seeded into the
// store as origin=auto.
type SchemaSuggestion struct {
	FromDataset string `json:"from_dataset"`
	FromColumn  string `json:"from_column"`
	ToDataset   string `json:"to_dataset"`
	ToColumn    string `json:"to_column"`
}

// SchemaResponse is the full schema-fetch payload for a dashboard.
type SchemaResponse struct {
	Datasets    []SchemaDataset    `json:"datasets"`
	Suggestions []SchemaSuggestion `json:"suggested_relationships"`
}

// CleanOptions holds the per-dataset cleaning knobs forwarded verbatim to the
// backend. The option surface mirrors the cleaner's configuration.
type CleanOptions struct {
	NumericStrategy string   `json:"numeric_strategy,omitempty" validate:"omitempty,oneof=mean median drop"`
	CategoricalFill string   `json:"categorical_fill,omitempty"`
	DedupSubset     []string `json:"dedup_subset,omitempty"`
	OutlierMethod   string   `json:"outlier_method,omitempty" validate:"omitempty,oneof=iqr zscore"`
	Normalize       string   `json:"normalize,omitempty" validate:"omitempty,oneof=minmax zscore"`
	DateFormat      string   `json:"date_format,omitempty"`
}

// CleanLogEntry is one cleaning action reported by the backend.
type CleanLogEntry struct {
	Action string `json:"action"`
	Column string `json:"column,omitempty"`
	Detail string `json:"detail"`
}

// CleanResult carries the per-dataset cleaning logs plus the refreshed
// schema, which may have a changed column set.
type CleanResult struct {
	Logs   map[string][]CleanLogEntry `json:"logs"`
	Schema SchemaResponse             `json:"schema"`
}

// MergeRelationship is one join key pairing, stripped of provenance: the
// execution backend does not need to know auto from manual.
type MergeRelationship struct {
	FromDataset string `json:"from_dataset"`
	FromColumn  string `json:"from_column"`
	ToDataset   string `json:"to_dataset"`
	ToColumn    string `json:"to_column"`
}

// MergeRequest is the contract consumed by the join-execution backend.
// Rename-collision detection is delegated to it.
type MergeRequest struct {
	DashboardID    string                       `json:"dashboard_id"`
	How            string                       `json:"how"`
	Relationships  []MergeRelationship          `json:"relationships"`
	ColumnMappings map[string]map[string]string `json:"column_mappings,omitempty"`
}

// MergeLogEntry is one step of the merge log, tagged by action
// (e.g. column_mapping, merge, summary, warning).
type MergeLogEntry struct {
	Action string `json:"action"`
	Detail string `json:"detail"`
}

// MergeResult is displayed to the user; it never becomes editor state.
type MergeResult struct {
	ResultID string           `json:"result_id"`
	Rows     int              `json:"rows"`
	Cols     int              `json:"cols"`
	Columns  []string         `json:"columns"`
	Log      []MergeLogEntry  `json:"log"`
	Preview  []map[string]any `json:"preview"`
}

// ExportDownload is the raw export payload proxied back to the client.
type ExportDownload struct {
	ContentType string
	Filename    string
	Body        []byte
}

// AnalysisGateway is the boundary to the external analysis backend.
type AnalysisGateway interface {
	// FetchSchema retrieves datasets, columns, key hints, and suggested
	// relationships for a dashboard.
	FetchSchema(ctx context.Context, dashboardID string) (*SchemaResponse, error)

	// TriggerCleaning runs server-side cleaning and returns logs plus the
	// refreshed schema.
	TriggerCleaning(ctx context.Context, dashboardID string, options map[string]CleanOptions) (*CleanResult, error)

	// SubmitMerge posts a merge request and returns counts, log, preview.
	SubmitMerge(ctx context.Context, req *MergeRequest) (*MergeResult, error)

	// Export downloads a finished merge result.
	Export(ctx context.Context, resultID string) (*ExportDownload, error)
}
