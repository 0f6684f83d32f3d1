package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("REPORTS_DIR", "/data/reports")
	t.Setenv("USE_MOCK", "true")
	t.Setenv("LOG_LEVEL", "")

	c := FromEnv()

	assert.Equal(t, "/data/reports", c.ReportsDir)
	assert.True(t, c.UseMock)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, DefaultListenAddr, c.ListenAddr)
}

func TestResolve(t *testing.T) {
	c := Config{ReportsDir: "/data/reports"}
	c.Resolve()
	assert.Equal(t, "/data/reports/manifest.json", c.ManifestPath)
	assert.Equal(t, "/data/reports/stats-history.json", c.HistoryPath)

	c = Config{ReportsDir: "/data/reports", HistoryPath: "/srv/history.json"}
	c.Resolve()
	assert.Equal(t, "/srv/history.json", c.HistoryPath)
}

func TestSetReportsDir(t *testing.T) {
	c := Config{ReportsDir: DefaultReportsDir}
	c.SetReportsDir(nil)
	assert.Equal(t, DefaultReportsDir, c.ReportsDir)

	c.SetReportsDir([]string{"/tmp/r"})
	assert.Equal(t, "/tmp/r", c.ReportsDir)
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/reportctl.yaml", []byte(
		"reportsDir: /var/reports\nlistenAddr: \":9090\"\nhistoryDays: 30\n"), 0644))
	c := Config{ReportsDir: DefaultReportsDir, ListenAddr: DefaultListenAddr, LogLevel: "info", HistoryDays: DefaultHistoryDays}

	require.NoError(t, c.LoadFile(fs, "/etc/reportctl.yaml", nil))

	assert.Equal(t, "/var/reports", c.ReportsDir)
	assert.Equal(t, ":9090", c.ListenAddr)
	assert.Equal(t, 30, c.HistoryDays)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadFileInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("reportsDir: [unterminated"), 0644))
	c := Config{}
	assert.Error(t, c.LoadFile(fs, "/bad.yaml", nil))
	assert.Error(t, c.LoadFile(fs, "/missing.yaml", nil))
}

func TestAddFlags(t *testing.T) {
	c := Config{LogLevel: "info"}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{"--history", "/h.json", "--log-level", "debug"}))

	assert.Equal(t, "/h.json", c.HistoryPath)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestLoadFileKeepsExplicitFlags(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte("logLevel: error\nhistoryPath: /file.json\n"), 0644))
	c := Config{LogLevel: "info"}
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.AddFlags(flags)
	require.NoError(t, flags.Parse([]string{"--log-level", "debug"}))

	require.NoError(t, c.LoadFile(fs, "/c.yaml", flags))

	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "/file.json", c.HistoryPath)
}
