package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/testkube/report-dashboard/internal/fsutil"
	"github.com/testkube/report-dashboard/internal/report"
)

// ErrManifestNotFound is returned by Load when there is no manifest to read.
var ErrManifestNotFound = errors.New("manifest not found")

// Scan reads the metadata of every report folder directly under reportsDir
// and returns the records newest-first. Folders without metadata are skipped.
func Scan(fs afero.Fs, reportsDir string, log *logrus.Entry) ([]report.ReportRecord, error) {
	entries, err := afero.ReadDir(fs, reportsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", reportsDir, err)
	}

	var records []report.ReportRecord
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(reportsDir, entry.Name())
		md, err := report.ReadMetadata(fs, dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.WithField("folder", entry.Name()).Debug("No metadata, skipping folder")
			} else {
				log.WithError(err).WithField("folder", entry.Name()).Warn("Unreadable metadata, skipping folder")
			}
			continue
		}
		records = append(records, md.Record(entry.Name()))
	}

	SortNewestFirst(records)
	return records, nil
}

// SortNewestFirst orders records by timestamp, newest first, breaking ties by
// folder name.
func SortNewestFirst(records []report.ReportRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Timestamp != records[j].Timestamp {
			return records[i].Timestamp > records[j].Timestamp
		}
		return records[i].Folder > records[j].Folder
	})
}

// Write stores records as an indented JSON array, replacing path atomically.
func Write(fs afero.Fs, path string, records []report.ReportRecord) error {
	if records == nil {
		records = []report.ReportRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteFileAtomic(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Load reads the manifest at path. A missing file yields ErrManifestNotFound.
func Load(fs afero.Fs, path string) ([]report.ReportRecord, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var records []report.ReportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return records, nil
}
