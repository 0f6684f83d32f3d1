package server

import (
	"sort"

	"github.com/spf13/afero"

	"github.com/testkube/report-dashboard/internal/database"
	"github.com/testkube/report-dashboard/internal/stats"
)

// FileHistory serves the history file written by the aggregator.
type FileHistory struct {
	fs   afero.Fs
	path string
}

func NewFileHistory(fs afero.Fs, path string) *FileHistory {
	return &FileHistory{fs: fs, path: path}
}

func (f *FileHistory) History() (*stats.HistoryLog, error) {
	return stats.LoadHistory(f.fs, f.path)
}

// DatabaseHistory serves the history mirrored into a database.
type DatabaseHistory struct {
	db   database.Database
	days int
}

func NewDatabaseHistory(db database.Database, days int) *DatabaseHistory {
	return &DatabaseHistory{db: db, days: days}
}

func (d *DatabaseHistory) History() (*stats.HistoryLog, error) {
	entries, err := d.db.ListDayEntries(d.days)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})
	if entries == nil {
		entries = []stats.DayEntry{}
	}
	return &stats.HistoryLog{Entries: entries}, nil
}
