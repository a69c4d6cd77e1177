package services

import (
	"context"
	"errors"
	"testing"

	"relate-backend/application/ports"
	"relate-backend/domain/core/aggregates"
	domainservices "relate-backend/domain/services"
	pkgerrors "relate-backend/pkg/errors"
	"relate-backend/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGateway is a scriptable AnalysisGateway that counts calls.
type fakeGateway struct {
	schema      *ports.SchemaResponse
	schemaErr   error
	cleanResult *ports.CleanResult
	cleanErr    error
	mergeResult *ports.MergeResult
	mergeErr    error

	fetchCalls int
	cleanCalls int
	mergeCalls int
}

func (f *fakeGateway) FetchSchema(ctx context.Context, dashboardID string) (*ports.SchemaResponse, error) {
	f.fetchCalls++
	return f.schema, f.schemaErr
}

func (f *fakeGateway) TriggerCleaning(ctx context.Context, dashboardID string, options map[string]ports.CleanOptions) (*ports.CleanResult, error) {
	f.cleanCalls++
	return f.cleanResult, f.cleanErr
}

func (f *fakeGateway) SubmitMerge(ctx context.Context, req *ports.MergeRequest) (*ports.MergeResult, error) {
	f.mergeCalls++
	return f.mergeResult, f.mergeErr
}

func (f *fakeGateway) Export(ctx context.Context, resultID string) (*ports.ExportDownload, error) {
	return &ports.ExportDownload{ContentType: "text/csv", Filename: "merged.csv", Body: []byte("a,b\n")}, nil
}

func testSchema() *ports.SchemaResponse {
	return &ports.SchemaResponse{
		Datasets: []ports.SchemaDataset{
			{
				ID:   "orders",
				Name: "Orders",
				Columns: []ports.SchemaColumn{
					{Name: "order_id", Type: "int64", KeyHint: "primary"},
					{Name: "customer_id", Type: "int64"},
					{Name: "amount", Type: "float64"},
				},
			},
			{
				ID:   "customers",
				Name: "Customers",
				Columns: []ports.SchemaColumn{
					{Name: "customer_id", Type: "int64", KeyHint: "primary"},
					{Name: "name", Type: "object"},
				},
			},
		},
		Suggestions: []ports.SchemaSuggestion{
			{FromDataset: "orders", FromColumn: "customer_id", ToDataset: "customers", ToColumn: "customer_id"},
		},
	}
}

func newTestEditor(t *testing.T, gateway *fakeGateway) *EditorService {
	t.Helper()
	return NewEditorService(
		gateway,
		domainservices.DefaultBoxGeometry(),
		1600, 900,
		zap.NewNop(),
		observability.NewCollector("relate_test"),
	)
}

func createTestSession(t *testing.T, editor *EditorService) aggregates.SessionID {
	t.Helper()
	view, err := editor.CreateSession(context.Background(), "dash-1")
	require.NoError(t, err)
	return aggregates.SessionID(view.SessionID)
}

func TestCreateSession(t *testing.T) {
	gateway := &fakeGateway{schema: testSchema()}
	editor := newTestEditor(t, gateway)

	view, err := editor.CreateSession(context.Background(), "dash-1")
	require.NoError(t, err)

	assert.Equal(t, "dash-1", view.DashboardID)
	require.Len(t, view.Boxes, 2)

	// Suggestion seeded as an auto relationship and routed
	require.Len(t, view.Relationships, 1)
	assert.Equal(t, "auto", view.Relationships[0].Origin)
	require.Len(t, view.Edges, 1)
	assert.Equal(t, "customer_id", view.Edges[0].Label)

	// Every box got a seeded, non-negative position
	for _, box := range view.Boxes {
		assert.GreaterOrEqual(t, box.X, 0.0)
		assert.GreaterOrEqual(t, box.Y, 0.0)
	}

	// Catalog hints surface as display roles
	orders := view.Boxes[0]
	assert.Equal(t, "Orders", orders.Name)
	assert.Equal(t, "primary", orders.Columns[0].Role)
	assert.Equal(t, "foreignKey", orders.Columns[1].Role)

	// Likely key names sort first in the selection order only
	assert.Equal(t, []string{"order_id", "customer_id", "amount"}, orders.SelectionOrder)
}

func TestCreateSessionGatewayFailure(t *testing.T) {
	gateway := &fakeGateway{schemaErr: pkgerrors.NewCollaborator("backend down", errors.New("connect refused"))}
	editor := newTestEditor(t, gateway)

	view, err := editor.CreateSession(context.Background(), "dash-1")
	assert.Nil(t, view)
	assert.True(t, pkgerrors.IsCollaborator(err))
}

func TestDiagramUnknownSession(t *testing.T) {
	editor := newTestEditor(t, &fakeGateway{schema: testSchema()})

	_, err := editor.Diagram("00000000-0000-0000-0000-000000000000")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDragThroughService(t *testing.T) {
	gateway := &fakeGateway{schema: testSchema()}
	editor := newTestEditor(t, gateway)
	sessionID := createTestSession(t, editor)

	view, err := editor.Diagram(sessionID)
	require.NoError(t, err)
	box := view.Boxes[0]

	// Pointer-down on the header grabs the box
	view, err = editor.PointerDown(sessionID, "orders", box.X+10, box.Y+10)
	require.NoError(t, err)
	assert.Equal(t, "orders", view.Dragging)

	// Move: box lands at pointer minus grab offset, edges re-routed in step
	view, err = editor.PointerMove(sessionID, box.X+110, box.Y+60)
	require.NoError(t, err)
	assert.Equal(t, box.X+100, view.Boxes[0].X)
	assert.Equal(t, box.Y+50, view.Boxes[0].Y)
	require.Len(t, view.Edges, 1)

	view, err = editor.PointerUp(sessionID)
	require.NoError(t, err)
	assert.Empty(t, view.Dragging)
}

func TestPointerDownOnBodyDoesNotDrag(t *testing.T) {
	gateway := &fakeGateway{schema: testSchema()}
	editor := newTestEditor(t, gateway)
	sessionID := createTestSession(t, editor)

	view, err := editor.Diagram(sessionID)
	require.NoError(t, err)
	box := view.Boxes[0]

	// Below the header strip
	view, err = editor.PointerDown(sessionID, "orders", box.X+10, box.Y+box.HeaderHeight+5)
	require.NoError(t, err)
	assert.Empty(t, view.Dragging)
}

func TestClickColumnThroughService(t *testing.T) {
	gateway := &fakeGateway{schema: testSchema()}
	editor := newTestEditor(t, gateway)
	sessionID := createTestSession(t, editor)

	result, view, err := editor.ClickColumn(sessionID, "orders", "order_id")
	require.NoError(t, err)
	assert.Equal(t, aggregates.LinkArmed, result.Outcome)
	assert.Contains(t, result.Notice, "another table")
	require.NotNil(t, view.Armed)
	assert.Equal(t, "order_id", view.Armed.Column)

	result, view, err = editor.ClickColumn(sessionID, "customers", "name")
	require.NoError(t, err)
	assert.Equal(t, aggregates.LinkCreated, result.Outcome)
	assert.Nil(t, view.Armed)
	assert.Len(t, view.Relationships, 2)

	// Duplicate of the seeded suggestion: rejected with a notice, not an error
	result, _, err = editor.ClickColumn(sessionID, "customers", "customer_id")
	require.NoError(t, err)
	require.Equal(t, aggregates.LinkArmed, result.Outcome)
	result, view, err = editor.ClickColumn(sessionID, "orders", "customer_id")
	require.NoError(t, err)
	assert.Equal(t, aggregates.LinkRejected, result.Outcome)
	assert.Contains(t, result.Notice, "already exists")
	assert.Len(t, view.Relationships, 2)
}

func TestMergeWithEmptyStoreMakesNoCall(t *testing.T) {
	schema := testSchema()
	schema.Suggestions = nil
	gateway := &fakeGateway{schema: schema}
	editor := newTestEditor(t, gateway)
	sessionID := createTestSession(t, editor)

	result, err := editor.Merge(context.Background(), sessionID, "inner", nil)
	assert.Nil(t, result)
	assert.True(t, pkgerrors.IsIncomplete(err))
	assert.Equal(t, 0, gateway.mergeCalls)
}

func TestMergeSubmits(t *testing.T) {
	gateway := &fakeGateway{
		schema: testSchema(),
		mergeResult: &ports.MergeResult{
			ResultID: "res-1",
			Rows:     42,
			Cols:     4,
			Columns:  []string{"order_id", "customer_id", "amount", "name"},
		},
	}
	editor := newTestEditor(t, gateway)
	sessionID := createTestSession(t, editor)

	result, err := editor.Merge(context.Background(), sessionID, "left", nil)
	require.NoError(t, err)
	assert.Equal(t, "res-1", result.ResultID)
	assert.Equal(t, 1, gateway.mergeCalls)
}

func TestCleanFailureKeepsState(t *testing.T) {
	gateway := &fakeGateway{
		schema:   testSchema(),
		cleanErr: pkgerrors.NewCollaborator("cleaning failed", errors.New("500")),
	}
	editor := newTestEditor(t, gateway)
	sessionID := createTestSession(t, editor)

	before, err := editor.Diagram(sessionID)
	require.NoError(t, err)

	_, _, err = editor.Clean(context.Background(), sessionID, map[string]ports.CleanOptions{
		"orders": {NumericStrategy: "mean"},
	})
	assert.True(t, pkgerrors.IsCollaborator(err))

	// Last-known-good state survives
	after, err := editor.Diagram(sessionID)
	require.NoError(t, err)
	assert.Equal(t, len(before.Boxes), len(after.Boxes))
	assert.Equal(t, len(after.Relationships), len(before.Relationships))
}

func TestCleanRefreshesAndPrunes(t *testing.T) {
	// Refreshed schema drops orders.amount and the customers dataset entirely
	refreshed := ports.SchemaResponse{
		Datasets: []ports.SchemaDataset{
			{
				ID:   "orders",
				Name: "Orders",
				Columns: []ports.SchemaColumn{
					{Name: "order_id", Type: "int64", KeyHint: "primary"},
					{Name: "customer_id", Type: "int64"},
				},
			},
		},
	}
	gateway := &fakeGateway{
		schema: testSchema(),
		cleanResult: &ports.CleanResult{
			Logs: map[string][]ports.CleanLogEntry{
				"orders": {{Action: "missing_numeric", Column: "amount", Detail: "filled 3 values with mean"}},
			},
			Schema: refreshed,
		},
	}
	editor := newTestEditor(t, gateway)
	sessionID := createTestSession(t, editor)

	// A manual relationship that will dangle after the refresh
	_, err := editor.AddRelationship(sessionID,
		ep("orders", "order_id"), ep("customers", "name"))
	require.NoError(t, err)

	outcome, view, err := editor.Clean(context.Background(), sessionID, map[string]ports.CleanOptions{
		"orders": {NumericStrategy: "mean"},
	})
	require.NoError(t, err)

	assert.False(t, outcome.Superseded)
	assert.Equal(t, 1, outcome.PrunedCount)
	require.Contains(t, outcome.Logs, "orders")

	// Suggestion endpoints vanished too, so the store is empty
	assert.Len(t, view.Boxes, 1)
	assert.Empty(t, view.Relationships)
	assert.Empty(t, view.Edges)
}

func TestResizeThroughService(t *testing.T) {
	gateway := &fakeGateway{schema: testSchema()}
	editor := newTestEditor(t, gateway)
	sessionID := createTestSession(t, editor)

	view, err := editor.Resize(sessionID, 800, 600)
	require.NoError(t, err)
	assert.Equal(t, 800.0, view.CanvasWidth)
	assert.Equal(t, 600.0, view.CanvasHeight)
}

func TestExport(t *testing.T) {
	gateway := &fakeGateway{schema: testSchema()}
	editor := newTestEditor(t, gateway)
	sessionID := createTestSession(t, editor)

	download, err := editor.Export(context.Background(), sessionID, "res-1")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", download.ContentType)
	assert.Equal(t, "merged.csv", download.Filename)
}
