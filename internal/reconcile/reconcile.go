package reconcile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/testkube/report-dashboard/internal/allure"
	"github.com/testkube/report-dashboard/internal/fsutil"
	"github.com/testkube/report-dashboard/internal/report"
)

// Regenerator rebuilds the files derived from the report folders.
type Regenerator interface {
	Regenerate() error
}

// Summary describes what a reconciliation pass did.
type Summary struct {
	Scanned int
	Updated int
	Renamed int
	Skipped int
}

// Reconciler recomputes report counts from raw Allure results and fixes
// metadata and folder names that disagree.
type Reconciler struct {
	fs          afero.Fs
	reportsDir  string
	results     *allure.Reader
	regenerator Regenerator
	dryRun      bool
	log         *logrus.Entry
}

// New returns a Reconciler. regenerator may be nil to skip regeneration.
func New(fs afero.Fs, reportsDir string, regenerator Regenerator, dryRun bool, log *logrus.Entry) *Reconciler {
	log = log.WithField("component", "reconcile")
	return &Reconciler{
		fs:          fs,
		reportsDir:  reportsDir,
		results:     allure.NewReader(fs, log),
		regenerator: regenerator,
		dryRun:      dryRun,
		log:         log,
	}
}

// Run reconciles every report folder, then regenerates the manifest and stats.
// Regeneration failures are logged, not returned: the metadata fixes have
// already been written by then.
func (r *Reconciler) Run() (Summary, error) {
	var summary Summary

	entries, err := afero.ReadDir(r.fs, r.reportsDir)
	if err != nil {
		return summary, fmt.Errorf("failed to list %s: %w", r.reportsDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		summary.Scanned++
		updated, renamed, err := r.reconcileFolder(entry.Name())
		if err != nil {
			r.log.WithError(err).WithField("folder", entry.Name()).Warn("Failed to reconcile folder")
			summary.Skipped++
			continue
		}
		if updated {
			summary.Updated++
		}
		if renamed {
			summary.Renamed++
		}
	}

	r.log.WithFields(logrus.Fields{
		"scanned": summary.Scanned,
		"updated": summary.Updated,
		"renamed": summary.Renamed,
		"skipped": summary.Skipped,
	}).Info("Reconciliation finished")

	if r.dryRun || r.regenerator == nil {
		return summary, nil
	}
	if err := r.regenerator.Regenerate(); err != nil {
		r.log.WithError(err).Warn("Failed to regenerate manifest and stats")
	}
	return summary, nil
}

func (r *Reconciler) reconcileFolder(folder string) (updated, renamed bool, err error) {
	dir := filepath.Join(r.reportsDir, folder)
	log := r.log.WithField("folder", folder)

	counts, ok, err := r.results.Count(dir)
	if err != nil {
		return false, false, err
	}
	if !ok {
		log.Debug("No Allure results, skipping")
		return false, false, nil
	}

	md, err := report.ReadMetadata(r.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug("No metadata, skipping")
			return false, false, nil
		}
		return false, false, err
	}

	stored := md.Record(folder)
	if stored.Passed.Int() == counts.Passed && stored.Failed.Int() == counts.Failed && stored.Total.Int() == counts.Total {
		return false, false, nil
	}

	log.WithFields(logrus.Fields{
		"passed": fmt.Sprintf("%s -> %d", stored.Passed, counts.Passed),
		"failed": fmt.Sprintf("%s -> %d", stored.Failed, counts.Failed),
		"total":  fmt.Sprintf("%s -> %d", stored.Total, counts.Total),
	}).Info("Counts changed")

	if r.dryRun {
		return true, false, nil
	}

	md.SetCounts(counts.Passed, counts.Failed, counts.Total)
	if err := report.WriteMetadata(r.fs, dir, md); err != nil {
		return false, false, err
	}

	return true, r.retag(folder, counts), nil
}

// retag renames the folder so its status tag matches counts. Folders whose
// name does not end in a status tag are left alone, as are renames onto an
// existing folder. Failures are logged; the metadata is already fixed.
func (r *Reconciler) retag(folder string, counts allure.Counts) bool {
	newName, ok := report.RetagFolderName(folder, counts.Passed, counts.Failed)
	if !ok || newName == folder {
		return false
	}

	log := r.log.WithField("folder", folder)
	newPath := filepath.Join(r.reportsDir, newName)
	if fsutil.Exists(r.fs, newPath) {
		log.Warnf("Cannot rename to %s: target already exists", newName)
		return false
	}
	if err := r.fs.Rename(filepath.Join(r.reportsDir, folder), newPath); err != nil {
		log.WithError(err).Warnf("Failed to rename to %s", newName)
		return false
	}
	log.Infof("Renamed to %s", newName)
	return true
}
