package database

import (
	"sort"
	"sync"

	"github.com/testkube/report-dashboard/internal/stats"
)

// MockDatabase keeps mirrored entries in memory.
type MockDatabase struct {
	mu      sync.Mutex
	entries map[string]stats.DayEntry
}

func NewMockDatabase() *MockDatabase {
	return &MockDatabase{
		entries: map[string]stats.DayEntry{},
	}
}

func (db *MockDatabase) UpsertDayEntry(entry stats.DayEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.entries[entry.Date] = entry
	return nil
}

func (db *MockDatabase) ListDayEntries(days int) ([]stats.DayEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entries := make([]stats.DayEntry, 0, len(db.entries))
	for _, e := range db.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})
	if days > 0 && len(entries) > days {
		entries = entries[len(entries)-days:]
	}
	return entries, nil
}

func (db *MockDatabase) Close() error {
	return nil
}
