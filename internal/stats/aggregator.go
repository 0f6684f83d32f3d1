package stats

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/testkube/report-dashboard/internal/manifest"
)

// LastUpdatedLayout formats HistoryLog.LastUpdated.
const LastUpdatedLayout = "2006-01-02T15:04:05.000Z07:00"

// Config locates the aggregator's input and output.
type Config struct {
	ManifestPath string
	HistoryPath  string
}

// Mirror receives every entry of a freshly written history.
type Mirror interface {
	UpsertDayEntry(entry DayEntry) error
}

// Aggregator folds the manifest into the persisted stats history.
type Aggregator struct {
	fs     afero.Fs
	cfg    Config
	mirror Mirror
	log    *logrus.Entry
	now    func() time.Time
}

// NewAggregator returns an Aggregator. mirror may be nil.
func NewAggregator(fs afero.Fs, cfg Config, mirror Mirror, log *logrus.Entry) *Aggregator {
	return &Aggregator{
		fs:     fs,
		cfg:    cfg,
		mirror: mirror,
		log:    log.WithField("component", "stats"),
		now:    time.Now,
	}
}

// Run reads the manifest and prior history, merges and writes the new
// history. A missing manifest is an error; a corrupt history is replaced.
func (a *Aggregator) Run() (*HistoryLog, error) {
	records, err := manifest.Load(a.fs, a.cfg.ManifestPath)
	if err != nil {
		return nil, err
	}

	prior, err := LoadHistory(a.fs, a.cfg.HistoryPath)
	if err != nil {
		if !errors.Is(err, ErrCorruptHistory) {
			return nil, err
		}
		a.log.WithError(err).Warn("Could not parse existing stats history, starting fresh")
		prior = &HistoryLog{Entries: []DayEntry{}}
	}

	fresh := Aggregate(records)
	history := &HistoryLog{
		LastUpdated: a.now().UTC().Format(LastUpdatedLayout),
		Entries:     Merge(prior.Entries, fresh),
	}

	if err := SaveHistory(a.fs, a.cfg.HistoryPath, history); err != nil {
		return nil, err
	}

	first, last := history.DateRange()
	a.log.WithFields(logrus.Fields{
		"records":   len(records),
		"refreshed": len(fresh),
		"entries":   len(history.Entries),
		"from":      first,
		"to":        last,
	}).Infof("Stats history written to %s", a.cfg.HistoryPath)

	if a.mirror != nil {
		if err := a.mirrorEntries(history.Entries); err != nil {
			a.log.WithError(err).Warn("Failed to mirror stats history")
		}
	}

	return history, nil
}

func (a *Aggregator) mirrorEntries(entries []DayEntry) error {
	for _, entry := range entries {
		if err := a.mirror.UpsertDayEntry(entry); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", entry.Date, err)
		}
	}
	return nil
}
