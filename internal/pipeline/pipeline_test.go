package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testkube/report-dashboard/internal/logging"
	"github.com/testkube/report-dashboard/internal/manifest"
	"github.com/testkube/report-dashboard/internal/report"
	"github.com/testkube/report-dashboard/internal/stats"
)

var testConfig = Config{
	ReportsDir:   "/reports",
	ManifestPath: "/reports/manifest.json",
	HistoryPath:  "/reports/stats-history.json",
}

func addReport(t *testing.T, fs afero.Fs, timestamp, job, env string, passed, failed int) {
	t.Helper()
	md := report.NewMetadata()
	md.Set(report.KeyTimestamp, timestamp)
	md.Set(report.KeyJob, job)
	md.Set(report.KeyEnvironment, env)
	md.SetCounts(passed, failed, passed+failed)
	folder := report.FolderName(timestamp, job, env, "main", passed, failed)
	require.NoError(t, report.WriteMetadata(fs, filepath.Join(testConfig.ReportsDir, folder), md))
}

func TestRegenerate(t *testing.T) {
	fs := afero.NewMemMapFs()
	addReport(t, fs, "2026-02-18_100000", "android-smoke", "staging", 10, 2)
	addReport(t, fs, "2026-02-18_110000", "ios-e2e", "sandbox", 5, 0)

	require.NoError(t, New(fs, testConfig, nil, logging.Discard()).Regenerate())

	records, err := manifest.Load(fs, testConfig.ManifestPath)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ios-e2e", records[0].Job)

	h, err := stats.LoadHistory(fs, testConfig.HistoryPath)
	require.NoError(t, err)
	require.Len(t, h.Entries, 1)
	assert.Equal(t, stats.DailyStat{Runs: 2, Passed: 15, Failed: 2}, h.Entries[0].Totals)
	assert.Equal(t, stats.DailyStat{Runs: 1, Passed: 10, Failed: 2}, h.Entries[0].Platforms[stats.PlatformAndroid])
	assert.Equal(t, stats.DailyStat{Runs: 1, Passed: 5}, h.Entries[0].Environments[stats.EnvironmentSandbox])
}

func TestAggregateWithoutManifest(t *testing.T) {
	_, err := New(afero.NewMemMapFs(), testConfig, nil, logging.Discard()).Aggregate()
	assert.ErrorIs(t, err, manifest.ErrManifestNotFound)
}
