package retention

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/testkube/report-dashboard/internal/report"
)

const timestampLayout = "2006-01-02_150405"

// Pruner deletes report folders whose run is older than the retention window.
// The stats history keeps their daily totals.
type Pruner struct {
	fs         afero.Fs
	reportsDir string
	keepDays   int
	dryRun     bool
	log        *logrus.Entry
	now        func() time.Time
}

func NewPruner(fs afero.Fs, reportsDir string, keepDays int, dryRun bool, log *logrus.Entry) *Pruner {
	return &Pruner{
		fs:         fs,
		reportsDir: reportsDir,
		keepDays:   keepDays,
		dryRun:     dryRun,
		log:        log.WithField("component", "retention"),
		now:        time.Now,
	}
}

// Prune removes expired folders and returns their names. Folders whose age
// cannot be determined are kept. The retention window must be at least one day.
func (p *Pruner) Prune() ([]string, error) {
	if p.keepDays < 1 {
		return nil, fmt.Errorf("invalid retention window: keep days must be at least 1, got %d", p.keepDays)
	}

	entries, err := afero.ReadDir(p.fs, p.reportsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", p.reportsDir, err)
	}

	cutoff := p.now().AddDate(0, 0, -p.keepDays)
	var removed []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(p.reportsDir, entry.Name())
		started, ok := p.runTime(dir, entry.Name())
		if !ok || !started.Before(cutoff) {
			continue
		}

		if !p.dryRun {
			if err := p.fs.RemoveAll(dir); err != nil {
				p.log.WithError(err).WithField("folder", entry.Name()).Warn("Failed to remove expired report")
				continue
			}
		}
		p.log.WithFields(logrus.Fields{"folder": entry.Name(), "dry_run": p.dryRun}).
			Infof("Expired report (run %s)", started.Format(time.DateOnly))
		removed = append(removed, entry.Name())
	}
	return removed, nil
}

// runTime reads the run timestamp from the folder's metadata, falling back to
// the timestamp segment of the folder name.
func (p *Pruner) runTime(dir, folder string) (time.Time, bool) {
	var candidates []string
	if md, err := report.ReadMetadata(p.fs, dir); err == nil {
		candidates = append(candidates, md.Get(report.KeyTimestamp))
	}
	candidates = append(candidates, folder)

	for _, ts := range candidates {
		if len(ts) < len(timestampLayout) {
			continue
		}
		if t, err := time.ParseInLocation(timestampLayout, ts[:len(timestampLayout)], time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
