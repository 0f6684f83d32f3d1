package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	DefaultReportsDir   = "./reports"
	DefaultManifestFile = "manifest.json"
	DefaultHistoryFile  = "stats-history.json"
	DefaultListenAddr   = ":8080"
	DefaultHistoryDays  = 90
	DefaultKeepDays     = 30
)

// Config is the runtime configuration shared by all commands. Values come
// from the environment, then an optional YAML file, then flags.
type Config struct {
	ReportsDir   string `yaml:"reportsDir"`
	ManifestPath string `yaml:"manifestPath"`
	HistoryPath  string `yaml:"historyPath"`
	DashboardDir string `yaml:"dashboardDir"`
	ListenAddr   string `yaml:"listenAddr"`
	DatabaseDSN  string `yaml:"databaseDSN"`
	HistoryDays  int    `yaml:"historyDays"`
	KeepDays     int    `yaml:"keepDays"`
	UseMock      bool   `yaml:"useMock"`
	LogLevel     string `yaml:"logLevel"`
}

// FromEnv builds a Config from environment variables, falling back to defaults.
func FromEnv() Config {
	return Config{
		ReportsDir:   getEnvOrDefault("REPORTS_DIR", DefaultReportsDir),
		ManifestPath: os.Getenv("MANIFEST_FILE"),
		HistoryPath:  os.Getenv("HISTORY_FILE"),
		DashboardDir: getEnvOrDefault("DASHBOARD_DIR", "."),
		ListenAddr:   getEnvOrDefault("LISTEN_ADDR", DefaultListenAddr),
		DatabaseDSN:  os.Getenv("DATABASE_DSN"),
		HistoryDays:  DefaultHistoryDays,
		KeepDays:     DefaultKeepDays,
		UseMock:      os.Getenv("USE_MOCK") == "true",
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// LoadFile overlays the non-empty fields of a YAML file onto c. Fields whose
// flag was set explicitly on flags keep the flag value; flags may be nil.
func (c *Config) LoadFile(fs afero.Fs, path string, flags *pflag.FlagSet) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	changed := func(name string) bool {
		if flags == nil {
			return false
		}
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}
	c.merge(file, changed)
	return nil
}

func (c *Config) merge(o Config, changed func(flag string) bool) {
	setString(&c.ReportsDir, o.ReportsDir)
	if !changed("manifest") {
		setString(&c.ManifestPath, o.ManifestPath)
	}
	if !changed("history") {
		setString(&c.HistoryPath, o.HistoryPath)
	}
	if !changed("dir") {
		setString(&c.DashboardDir, o.DashboardDir)
	}
	if !changed("addr") {
		setString(&c.ListenAddr, o.ListenAddr)
	}
	if !changed("database-dsn") {
		setString(&c.DatabaseDSN, o.DatabaseDSN)
	}
	if !changed("log-level") {
		setString(&c.LogLevel, o.LogLevel)
	}
	if o.HistoryDays > 0 {
		c.HistoryDays = o.HistoryDays
	}
	if o.KeepDays > 0 && !changed("keep-days") {
		c.KeepDays = o.KeepDays
	}
	if o.UseMock {
		c.UseMock = true
	}
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

// AddFlags binds the settings shared by every command to fs.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ManifestPath, "manifest", c.ManifestPath, "Path to the manifest file (default <reports-dir>/"+DefaultManifestFile+")")
	fs.StringVar(&c.HistoryPath, "history", c.HistoryPath, "Path to the stats history file (default <reports-dir>/"+DefaultHistoryFile+")")
	fs.StringVar(&c.DatabaseDSN, "database-dsn", c.DatabaseDSN, "MySQL DSN to mirror the stats history into")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warning, error)")
}

// SetReportsDir applies the optional positional reports-directory argument.
func (c *Config) SetReportsDir(args []string) {
	if len(args) > 0 && args[0] != "" {
		c.ReportsDir = args[0]
	}
}

// Resolve fills in paths derived from ReportsDir.
func (c *Config) Resolve() {
	if c.ManifestPath == "" {
		c.ManifestPath = filepath.Join(c.ReportsDir, DefaultManifestFile)
	}
	if c.HistoryPath == "" {
		c.HistoryPath = filepath.Join(c.ReportsDir, DefaultHistoryFile)
	}
}
