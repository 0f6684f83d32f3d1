package stats

import "github.com/testkube/report-dashboard/internal/report"

// Aggregate builds one fresh DayEntry per date found in records. Records
// without a date prefix are dropped.
func Aggregate(records []report.ReportRecord) map[string]DayEntry {
	days := make(map[string]*DayEntry)
	for _, rec := range records {
		date, ok := rec.Date()
		if !ok {
			continue
		}
		day, ok := days[date]
		if !ok {
			day = newDayEntry(date)
			days[date] = day
		}
		day.add(rec)
	}

	result := make(map[string]DayEntry, len(days))
	for date, day := range days {
		result[date] = *day
	}
	return result
}

// Merge overlays fresh entries onto prior ones by date. A date present in
// fresh replaces the prior entry wholesale; dates only in prior are kept as
// they are. The result is sorted by date.
func Merge(prior []DayEntry, fresh map[string]DayEntry) []DayEntry {
	byDate := make(map[string]DayEntry, len(prior)+len(fresh))
	for _, entry := range prior {
		byDate[entry.Date] = entry
	}
	for date, entry := range fresh {
		byDate[date] = entry
	}

	merged := make([]DayEntry, 0, len(byDate))
	for _, entry := range byDate {
		merged = append(merged, entry)
	}
	sortEntries(merged)
	return merged
}
