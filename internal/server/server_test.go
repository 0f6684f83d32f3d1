package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testkube/report-dashboard/internal/database"
	"github.com/testkube/report-dashboard/internal/logging"
	"github.com/testkube/report-dashboard/internal/manifest"
	"github.com/testkube/report-dashboard/internal/report"
	"github.com/testkube/report-dashboard/internal/stats"
)

const (
	dashboardDir = "/site"
	manifestPath = "/site/reports/manifest.json"
	historyPath  = "/site/reports/stats-history.json"
)

func newTestServer(t *testing.T) (*Server, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, dashboardDir+"/index.html", []byte("<h1>Test Reports Dashboard</h1>"), 0644))
	require.NoError(t, stats.SaveHistory(fs, historyPath, &stats.HistoryLog{
		LastUpdated: "2026-02-19T08:30:00.000Z",
		Entries: []stats.DayEntry{{
			Date:         "2026-02-18",
			Totals:       stats.DailyStat{Runs: 2, Passed: 15, Failed: 2},
			Platforms:    map[string]stats.DailyStat{stats.PlatformAndroid: {Runs: 2, Passed: 15, Failed: 2}},
			Environments: map[string]stats.DailyStat{},
		}},
	}))
	srv := NewServer(fs, dashboardDir, manifestPath, NewFileHistory(fs, historyPath), logging.Discard())
	return srv, fs
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("GET", path, nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	return rr
}

func TestStaticFiles(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Test Reports Dashboard")
}

func TestHistoryAPI(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/api/v1/history")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var h stats.HistoryLog
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &h))
	require.Len(t, h.Entries, 1)
	assert.Equal(t, 15, h.Entries[0].Totals.Passed)
}

func TestManifestAPI(t *testing.T) {
	srv, fs := newTestServer(t)

	rr := get(t, srv, "/api/v1/manifest")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	require.NoError(t, manifest.Write(fs, manifestPath, []report.ReportRecord{{Timestamp: "2026-02-18_100000", Job: "ios"}}))
	rr = get(t, srv, "/api/v1/manifest")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"job":"ios"`)
}

func TestCharts(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/charts/pass-rate")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Pass Rate Trend")

	rr = get(t, srv, "/charts/platforms")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "android")
}

func TestCorruptHistory(t *testing.T) {
	srv, fs := newTestServer(t)
	require.NoError(t, afero.WriteFile(fs, historyPath, []byte("{"), 0644))

	rr := get(t, srv, "/api/v1/history")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestDatabaseHistory(t *testing.T) {
	db := database.NewMockDatabase()
	require.NoError(t, db.UpsertDayEntry(stats.DayEntry{Date: "2026-02-18", Totals: stats.DailyStat{Runs: 3}}))
	require.NoError(t, db.UpsertDayEntry(stats.DayEntry{Date: "2026-02-17", Totals: stats.DailyStat{Runs: 1}}))

	h, err := NewDatabaseHistory(db, 30).History()

	require.NoError(t, err)
	require.Len(t, h.Entries, 2)
	assert.Equal(t, "2026-02-17", h.Entries[0].Date)
}
