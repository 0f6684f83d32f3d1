package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/afero"

	"github.com/testkube/report-dashboard/internal/fsutil"
	"github.com/testkube/report-dashboard/internal/report"
)

// ErrCorruptHistory is returned by LoadHistory when the file exists but
// cannot be parsed.
var ErrCorruptHistory = errors.New("corrupt stats history")

// DailyStat holds counters for one grouping of runs.
type DailyStat struct {
	Runs   int `json:"runs"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

func (s *DailyStat) add(passed, failed int) {
	s.Runs++
	s.Passed += passed
	s.Failed += failed
}

// PassRate returns passed/(passed+failed) as a percentage, or 0 when nothing ran.
func (s DailyStat) PassRate() float64 {
	executed := s.Passed + s.Failed
	if executed == 0 {
		return 0
	}
	return float64(s.Passed) / float64(executed) * 100
}

// DayEntry aggregates all runs of one calendar date.
type DayEntry struct {
	Date         string               `json:"date"`
	Totals       DailyStat            `json:"totals"`
	Platforms    map[string]DailyStat `json:"platforms"`
	Environments map[string]DailyStat `json:"environments"`
}

func newDayEntry(date string) *DayEntry {
	return &DayEntry{
		Date:         date,
		Platforms:    map[string]DailyStat{},
		Environments: map[string]DailyStat{},
	}
}

func (e *DayEntry) add(rec report.ReportRecord) {
	passed, failed := rec.Passed.Int(), rec.Failed.Int()
	e.Totals.add(passed, failed)
	addTo(e.Platforms, Platform(rec.Job), passed, failed)
	addTo(e.Environments, Environment(rec.Environment), passed, failed)
}

func addTo(stats map[string]DailyStat, tag string, passed, failed int) {
	s := stats[tag]
	s.add(passed, failed)
	stats[tag] = s
}

// HistoryLog is the persisted stats history.
type HistoryLog struct {
	LastUpdated string     `json:"lastUpdated"`
	Entries     []DayEntry `json:"entries"`
}

// DateRange returns the first and last dates of the history.
func (h *HistoryLog) DateRange() (string, string) {
	if len(h.Entries) == 0 {
		return "", ""
	}
	return h.Entries[0].Date, h.Entries[len(h.Entries)-1].Date
}

// LoadHistory reads the history at path. A missing file is an empty history;
// an unparseable one is reported as ErrCorruptHistory.
func LoadHistory(fs afero.Fs, path string) (*HistoryLog, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &HistoryLog{Entries: []DayEntry{}}, nil
		}
		return nil, fmt.Errorf("failed to read history %s: %w", path, err)
	}

	var h HistoryLog
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptHistory, path, err)
	}
	for i := range h.Entries {
		if h.Entries[i].Platforms == nil {
			h.Entries[i].Platforms = map[string]DailyStat{}
		}
		if h.Entries[i].Environments == nil {
			h.Entries[i].Environments = map[string]DailyStat{}
		}
	}
	if h.Entries == nil {
		h.Entries = []DayEntry{}
	}
	return &h, nil
}

// SaveHistory writes h to path, replacing any previous file atomically.
func SaveHistory(fs afero.Fs, path string, h *HistoryLog) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteFileAtomic(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

func sortEntries(entries []DayEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})
}
