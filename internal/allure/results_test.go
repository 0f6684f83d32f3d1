package allure

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testkube/report-dashboard/internal/logging"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

func TestCountGeneratedTestCases(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/reports/run-1"
	cases := filepath.Join(dir, TestCasesDir)
	writeFile(t, fs, filepath.Join(cases, "a.json"), `{"uid":"a","historyId":"h1","status":"passed","time":{"stop":100}}`)
	writeFile(t, fs, filepath.Join(cases, "b.json"), `{"uid":"b","historyId":"h2","status":"failed","time":{"stop":100}}`)
	writeFile(t, fs, filepath.Join(cases, "c.json"), `{"uid":"c","historyId":"h3","status":"broken","time":{"stop":100}}`)
	writeFile(t, fs, filepath.Join(cases, "d.json"), `{"uid":"d","historyId":"h4","status":"skipped","time":{"stop":100}}`)
	writeFile(t, fs, filepath.Join(cases, "e.json"), `not json`)
	writeFile(t, fs, filepath.Join(cases, "notes.txt"), `ignored`)
	// Raw results are ignored when generated test cases exist.
	writeFile(t, fs, filepath.Join(dir, RawResultsDir, "x-result.json"), `{"status":"passed"}`)

	counts, ok, err := NewReader(fs, logging.Discard()).Count(dir)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Counts{Passed: 1, Failed: 2, Total: 4}, counts)
}

func TestCountRawResults(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/reports/run-2"
	raw := filepath.Join(dir, RawResultsDir)
	writeFile(t, fs, filepath.Join(raw, "1-result.json"), `{"uuid":"1","historyId":"h1","status":"failed","stop":100}`)
	writeFile(t, fs, filepath.Join(raw, "2-result.json"), `{"uuid":"2","historyId":"h1","status":"passed","stop":200}`)
	writeFile(t, fs, filepath.Join(raw, "3-result.json"), `{"uuid":"3","status":"passed","stop":50}`)
	writeFile(t, fs, filepath.Join(raw, "4-container.json"), `{"uuid":"4"}`)

	counts, ok, err := NewReader(fs, logging.Discard()).Count(dir)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Counts{Passed: 2, Failed: 0, Total: 2}, counts)
}

func TestCountNoResults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/reports/empty", 0755))

	_, ok, err := NewReader(fs, logging.Discard()).Count("/reports/empty")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTallyRetries(t *testing.T) {
	results := []TestResult{
		{HistoryID: "login", Status: StatusPassed, Stop: 300},
		{HistoryID: "login", Status: StatusFailed, Stop: 100},
		{HistoryID: "checkout", Status: StatusPassed, Stop: 100},
		{HistoryID: "checkout", Status: StatusBroken, Stop: 200},
		{Status: "Passed"},
	}

	assert.Equal(t, Counts{Passed: 2, Failed: 1, Total: 3}, Tally(results))
}
