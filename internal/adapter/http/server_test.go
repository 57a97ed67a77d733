package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/neighborhood-report-builder/internal/adapter/http"
	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
	"github.com/couchcryptid/neighborhood-report-builder/internal/observability"
	"github.com/couchcryptid/neighborhood-report-builder/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLink = "https://reports.example.org/r/1"

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type staticGenerator struct{}

func (staticGenerator) Generate(_ context.Context, _ domain.QueryDescriptor) (string, error) {
	return testLink, nil
}

func testCatalog() domain.Catalog {
	return domain.NewCatalog([]domain.RequestType{
		{ID: "pothole", DisplayName: "Pothole", Color: "#FF0000"},
		{ID: "graffiti", DisplayName: "Graffiti Removal", Color: "#00FF00"},
		{ID: "bulky_items", DisplayName: "Bulky Items", Color: "#0000FF"},
	})
}

func newTestServer(t *testing.T, readyErr error) *httpadapter.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := report.NewManager(report.SessionDeps{
		Catalog:   testCatalog(),
		Generator: staticGenerator{},
		Logger:    logger,
		Metrics:   observability.NewMetricsForTesting(),
		Options:   report.ControllerOptions{MinGenerating: -1},
	}, time.Hour)
	t.Cleanup(m.Close)
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, m, testCatalog(), logger)
}

func do(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

type sessionBody struct {
	ID      string `json:"id"`
	Filters struct {
		Mode         string   `json:"mode"`
		Year         int      `json:"year"`
		StartMonth   int      `json:"startMonth"`
		EndMonth     int      `json:"endMonth"`
		RequestTypes []string `json:"requestTypes"`
		CouncilID    string   `json:"councilId"`
	} `json:"filters"`
	Legend []struct {
		ID       string `json:"id"`
		Selected bool   `json:"selected"`
	} `json:"legend"`
	Generation struct {
		Status string `json:"status"`
		Link   string `json:"link"`
		Query  *struct {
			StartDate string `json:"startDate"`
			EndDate   string `json:"endDate"`
			Council   string `json:"council"`
		} `json:"query"`
	} `json:"generation"`
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionBody {
	t.Helper()
	var body sessionBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func createSession(t *testing.T, srv http.Handler) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeSession(t, rec).ID
	require.NotEmpty(t, id)
	return id
}

// --- health endpoints ---

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(t, fmt.Errorf("not ready yet"))
	rec := do(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestReadinessGroup(t *testing.T) {
	ok := &mockReadiness{}
	bad := &mockReadiness{err: fmt.Errorf("publisher down")}

	require.NoError(t, httpadapter.ReadinessGroup{ok, ok}.CheckReadiness(context.Background()))
	assert.EqualError(t, httpadapter.ReadinessGroup{ok, bad}.CheckReadiness(context.Background()), "publisher down")
}

// --- session API ---

func TestCatalogEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"requestTypes":[
		{"id":"bulky_items","displayName":"Bulky Items","color":"#0000FF"},
		{"id":"graffiti","displayName":"Graffiti Removal","color":"#00FF00"},
		{"id":"pothole","displayName":"Pothole","color":"#FF0000"}]}`, rec.Body.String())
}

func TestCreateSession_Defaults(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeSession(t, rec)
	assert.Equal(t, "/api/v1/sessions/"+body.ID, rec.Header().Get("Location"))
	assert.Equal(t, "year_month_range", body.Filters.Mode)
	assert.Equal(t, []string{"bulky_items", "graffiti", "pothole"}, body.Filters.RequestTypes)
	assert.Equal(t, "idle", body.Generation.Status)
	assert.Nil(t, body.Generation.Query)
	require.Len(t, body.Legend, 3)
	assert.True(t, body.Legend[0].Selected)
}

func TestUnknownSessionReturns404(t *testing.T) {
	srv := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/v1/sessions/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodDelete, "/api/v1/sessions/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/api/v1/sessions/missing/build", nil).Code)
}

func TestUpdateFilter(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodPatch, "/api/v1/sessions/"+id+"/filters",
		map[string]string{"dimension": "year", "value": "2022"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeSession(t, rec)
	assert.Equal(t, 2022, body.Filters.Year)
	assert.Equal(t, 1, body.Filters.StartMonth)
	assert.Equal(t, 12, body.Filters.EndMonth)
}

func TestUpdateFilter_Errors(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv)
	path := "/api/v1/sessions/" + id + "/filters"

	tests := []struct {
		name string
		body any
		want int
	}{
		{"unknown dimension", map[string]string{"dimension": "week", "value": "3"}, http.StatusBadRequest},
		{"invalid month", map[string]string{"dimension": "endMonth", "value": "13"}, http.StatusBadRequest},
		{"unknown field", map[string]string{"dimension": "year", "value": "2022", "extra": "x"}, http.StatusBadRequest},
		{"not an object", []int{1, 2}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPatch, path, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestLayerRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv)
	base := "/api/v1/sessions/" + id + "/layers/"

	rec := do(t, srv, http.MethodPost, base+"deselect-all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeSession(t, rec).Filters.RequestTypes)

	rec = do(t, srv, http.MethodPost, base+"pothole/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"pothole"}, decodeSession(t, rec).Filters.RequestTypes)

	rec = do(t, srv, http.MethodPost, base+"select-all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeSession(t, rec).Filters.RequestTypes, 3)

	rec = do(t, srv, http.MethodPost, base+"streetlight/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBuild_IncompleteRange(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/build", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "incomplete range")
}

func TestBuild_ReachesReady(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv)
	path := "/api/v1/sessions/" + id

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPatch, path+"/filters",
		map[string]string{"dimension": "year", "value": "2022"}).Code)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPatch, path+"/filters",
		map[string]string{"dimension": "councilId", "value": "SHERMAN OAKS NC"}).Code)

	rec := do(t, srv, http.MethodPost, path+"/build", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body sessionBody
	require.Eventually(t, func() bool {
		body = decodeSession(t, do(t, srv, http.MethodGet, path, nil))
		return body.Generation.Status == "ready"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, testLink, body.Generation.Link)
	require.NotNil(t, body.Generation.Query)
	assert.Equal(t, "2022-01-01", body.Generation.Query.StartDate)
	assert.Equal(t, "2022-12-31", body.Generation.Query.EndDate)
	assert.Equal(t, "SHERMAN OAKS NC", body.Generation.Query.Council)

	// A filter change discards the link.
	rec = do(t, srv, http.MethodPatch, path+"/filters", map[string]string{"dimension": "endMonth", "value": "6"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeSession(t, rec)
	assert.Equal(t, "idle", body.Generation.Status)
	assert.Empty(t, body.Generation.Link)
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/v1/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/v1/sessions/"+id, nil).Code)
}
