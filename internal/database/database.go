package database

import (
	"github.com/testkube/report-dashboard/internal/stats"
)

// Database mirrors the stats history into a SQL store so dashboards can
// query it without reading the history file.
type Database interface {
	UpsertDayEntry(entry stats.DayEntry) error
	// ListDayEntries returns the last days entries, oldest first. days <= 0
	// returns everything.
	ListDayEntries(days int) ([]stats.DayEntry, error)
	Close() error
}
