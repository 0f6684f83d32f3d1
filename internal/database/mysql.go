package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/testkube/report-dashboard/internal/stats"
)

type MySQLDatabase struct {
	db *sql.DB
}

func NewMySQLDatabase(dsn string) (*MySQLDatabase, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	mysqlDb := &MySQLDatabase{db: db}
	if err := mysqlDb.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return mysqlDb, nil
}

func (d *MySQLDatabase) InitSchema() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_stats (
			stat_date DATE PRIMARY KEY,
			runs INT NOT NULL DEFAULT 0,
			passed INT NOT NULL DEFAULT 0,
			failed INT NOT NULL DEFAULT 0,
			platforms JSON NOT NULL,
			environments JSON NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create daily_stats: %w", err)
	}
	return nil
}

func (d *MySQLDatabase) Close() error {
	return d.db.Close()
}

// UpsertDayEntry replaces the row for entry.Date, matching the history's
// overwrite-by-date semantics.
func (d *MySQLDatabase) UpsertDayEntry(entry stats.DayEntry) error {
	platforms, err := json.Marshal(entry.Platforms)
	if err != nil {
		return fmt.Errorf("failed to encode platforms: %w", err)
	}
	environments, err := json.Marshal(entry.Environments)
	if err != nil {
		return fmt.Errorf("failed to encode environments: %w", err)
	}

	_, err = d.db.Exec(`
		INSERT INTO daily_stats (stat_date, runs, passed, failed, platforms, environments)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			runs = VALUES(runs),
			passed = VALUES(passed),
			failed = VALUES(failed),
			platforms = VALUES(platforms),
			environments = VALUES(environments)
	`, entry.Date, entry.Totals.Runs, entry.Totals.Passed, entry.Totals.Failed, string(platforms), string(environments))
	return err
}

func (d *MySQLDatabase) ListDayEntries(days int) ([]stats.DayEntry, error) {
	query := `
		SELECT DATE_FORMAT(stat_date, '%Y-%m-%d'), runs, passed, failed, platforms, environments
		FROM daily_stats
		ORDER BY stat_date DESC`
	var args []interface{}
	if days > 0 {
		query += ` LIMIT ?`
		args = append(args, days)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []stats.DayEntry
	for rows.Next() {
		var e stats.DayEntry
		var platforms, environments []byte
		if err := rows.Scan(&e.Date, &e.Totals.Runs, &e.Totals.Passed, &e.Totals.Failed, &platforms, &environments); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(platforms, &e.Platforms); err != nil {
			return nil, fmt.Errorf("failed to decode platforms for %s: %w", e.Date, err)
		}
		if err := json.Unmarshal(environments, &e.Environments); err != nil {
			return nil, fmt.Errorf("failed to decode environments for %s: %w", e.Date, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest rows were selected for the limit; callers want oldest first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
