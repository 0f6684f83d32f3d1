package pipeline

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/testkube/report-dashboard/internal/manifest"
	"github.com/testkube/report-dashboard/internal/stats"
)

// Config locates the reports directory and the files derived from it.
type Config struct {
	ReportsDir   string
	ManifestPath string
	HistoryPath  string
}

// Pipeline regenerates the manifest from the report folders and then
// refreshes the stats history from it.
type Pipeline struct {
	fs         afero.Fs
	cfg        Config
	aggregator *stats.Aggregator
	log        *logrus.Entry
}

func New(fs afero.Fs, cfg Config, mirror stats.Mirror, log *logrus.Entry) *Pipeline {
	return &Pipeline{
		fs:  fs,
		cfg: cfg,
		aggregator: stats.NewAggregator(fs, stats.Config{
			ManifestPath: cfg.ManifestPath,
			HistoryPath:  cfg.HistoryPath,
		}, mirror, log),
		log: log.WithField("component", "manifest"),
	}
}

// Regenerate rewrites the manifest and the stats history.
func (p *Pipeline) Regenerate() error {
	records, err := manifest.Scan(p.fs, p.cfg.ReportsDir, p.log)
	if err != nil {
		return fmt.Errorf("failed to scan reports: %w", err)
	}
	if err := manifest.Write(p.fs, p.cfg.ManifestPath, records); err != nil {
		return err
	}
	p.log.WithField("reports", len(records)).Infof("Manifest written to %s", p.cfg.ManifestPath)

	if _, err := p.aggregator.Run(); err != nil {
		return fmt.Errorf("failed to update stats history: %w", err)
	}
	return nil
}

// Aggregate refreshes the stats history from the existing manifest only.
func (p *Pipeline) Aggregate() (*stats.HistoryLog, error) {
	return p.aggregator.Run()
}
