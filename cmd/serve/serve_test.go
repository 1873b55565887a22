package serve

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/beacon/internal/config"
	"github.com/joshsymonds/beacon/internal/models"
	"github.com/joshsymonds/beacon/internal/report"
	"github.com/joshsymonds/beacon/internal/storage"
	"github.com/joshsymonds/beacon/pkg/logger"
)

func testServer(t *testing.T) *server {
	t.Helper()

	dataDir := t.TempDir()
	store := storage.NewStorage(dataDir)

	created := models.NewTime(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	snap := &models.Snapshot{
		ID:        "serve-test",
		FetchedAt: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		Accounts: []models.Account{
			{OrgID: "org-a", Name: "Acme Corp"},
		},
		Findings: []models.Finding{
			{FindingID: "f1", OrgName: "Acme Corp", Name: "Password spray", Priority: models.PriorityCritical, StatusName: models.StatusOpen, TypeName: "Threat", Created: created},
			{FindingID: "f2", OrgName: "Acme Corp", Name: "Port scan", Priority: models.PriorityInfo, StatusName: "Closed", TypeName: "Operational", Created: created},
		},
	}
	_, err := store.SaveSnapshot(snap)
	require.NoError(t, err)

	cfg := config.Default()
	log := logger.NewMockLogger()

	return &server{
		cfg:   cfg,
		store: store,
		log:   log,
		html: report.NewHTMLGenerator(report.Options{
			Logger:     log,
			AppBaseURL: cfg.API.AppURL,
			Title:      cfg.Report.Title,
		}),
	}
}

func TestServer_Dashboard(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestServer_Health(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Summary(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/summary")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Metadata models.SnapshotMetadata `json:"metadata"`
		Summary  struct {
			Total int `json:"total"`
			Open  int `json:"open"`
		} `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "serve-test", body.Metadata.ID)
	assert.Equal(t, 2, body.Summary.Total)
	assert.Equal(t, 1, body.Summary.Open)
}

func TestServer_FindingsFilter(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/findings?priority=1")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Count    int              `json:"count"`
		Findings []models.Finding `json:"findings"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Password spray", body.Findings[0].Name)
}

func TestServer_FindingsBadPriority(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/findings?priority=99")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_NoSnapshot(t *testing.T) {
	srv := testServer(t)
	srv.store = storage.NewStorage(t.TempDir())
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/summary")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// The dashboard page itself degrades to an empty render.
	page, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer page.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusOK, page.StatusCode)
}

func TestFilterFromQuery_Since(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/findings?since=2024-01-12", nil)
	f, err := filterFromQuery(req)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), f.Since)

	req = httptest.NewRequest(http.MethodGet, "/api/findings?since=not-a-date", nil)
	_, err = filterFromQuery(req)
	assert.Error(t, err)
}
