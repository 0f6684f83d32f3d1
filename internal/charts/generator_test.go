package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testkube/report-dashboard/internal/stats"
)

var entries = []stats.DayEntry{
	{
		Date:      "2026-02-17",
		Totals:    stats.DailyStat{Runs: 2, Passed: 9, Failed: 1},
		Platforms: map[string]stats.DailyStat{stats.PlatformIOS: {Runs: 2, Passed: 9, Failed: 1}},
	},
	{
		Date:   "2026-02-18",
		Totals: stats.DailyStat{Runs: 2, Passed: 15, Failed: 2},
		Platforms: map[string]stats.DailyStat{
			stats.PlatformAndroid: {Runs: 1, Passed: 10, Failed: 2},
			stats.PlatformIOS:     {Runs: 1, Passed: 5},
		},
	},
}

func TestPassRateChart(t *testing.T) {
	html, err := NewGenerator().PassRateChart(entries)
	require.NoError(t, err)

	assert.Contains(t, html, "Pass Rate Trend")
	assert.Contains(t, html, "2026-02-18")
	assert.Contains(t, html, "88.2")
}

func TestPlatformRunsChart(t *testing.T) {
	html, err := NewGenerator().PlatformRunsChart(entries)
	require.NoError(t, err)

	assert.Contains(t, html, "Runs per Platform")
	assert.Contains(t, html, stats.PlatformAndroid)
	assert.Contains(t, html, stats.PlatformIOS)
}

func TestPlatformTags(t *testing.T) {
	assert.Equal(t, []string{stats.PlatformAndroid, stats.PlatformIOS}, platformTags(entries))
}

func TestRoundPercent(t *testing.T) {
	assert.Equal(t, 88.2, roundPercent(15.0/17.0*100))
	assert.Equal(t, 0.0, roundPercent(0))
}
