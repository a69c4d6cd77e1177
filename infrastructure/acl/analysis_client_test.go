package acl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"relate-backend/application/ports"
	pkgerrors "relate-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*AnalysisClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAnalysisClient(DefaultClientConfig(server.URL), zap.NewNop()), server
}

func TestFetchSchema(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/dashboards/dash-1/schema", r.URL.Path)
		json.NewEncoder(w).Encode(ports.SchemaResponse{
			Datasets: []ports.SchemaDataset{
				{ID: "orders", Name: "Orders", Columns: []ports.SchemaColumn{{Name: "id", Type: "int64"}}},
			},
			Suggestions: []ports.SchemaSuggestion{
				{FromDataset: "orders", FromColumn: "id", ToDataset: "items", ToColumn: "order_id"},
			},
		})
	}))

	resp, err := client.FetchSchema(context.Background(), "dash-1")
	require.NoError(t, err)
	require.Len(t, resp.Datasets, 1)
	assert.Equal(t, "orders", resp.Datasets[0].ID)
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "order_id", resp.Suggestions[0].ToColumn)
}

func TestSubmitMergePostsRequest(t *testing.T) {
	var received ports.MergeRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/dashboards/dash-1/merge", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(ports.MergeResult{ResultID: "res-1", Rows: 10})
	}))

	result, err := client.SubmitMerge(context.Background(), &ports.MergeRequest{
		DashboardID: "dash-1",
		How:         "inner",
		Relationships: []ports.MergeRelationship{
			{FromDataset: "orders", FromColumn: "customer_id", ToDataset: "customers", ToColumn: "customer_id"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "res-1", result.ResultID)
	assert.Equal(t, "inner", received.How)
	require.Len(t, received.Relationships, 1)
}

func TestNonSuccessStatusIsCollaboratorFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "merge would produce duplicate column names", http.StatusUnprocessableEntity)
	}))

	_, err := client.SubmitMerge(context.Background(), &ports.MergeRequest{DashboardID: "dash-1", How: "inner"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCollaborator(err))
	assert.Contains(t, err.Error(), "duplicate column names")
}

func TestExportDownload(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/merges/res-1/export", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="merged.csv"`)
		w.Write([]byte("a,b\n1,2\n"))
	}))

	download, err := client.Export(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", download.ContentType)
	assert.Equal(t, "merged.csv", download.Filename)
	assert.Equal(t, "a,b\n1,2\n", string(download.Body))
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	calls := 0
	cfg := DefaultClientConfig("")
	cfg.FailureThreshold = 0.5
	cfg.MinRequests = 3

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	cfg.BaseURL = server.URL
	client := NewAnalysisClient(cfg, zap.NewNop())

	for i := 0; i < 10; i++ {
		_, err := client.FetchSchema(context.Background(), "dash-1")
		assert.Error(t, err)
	}

	// Once open, requests short-circuit without reaching the backend
	assert.Less(t, calls, 10)
}
