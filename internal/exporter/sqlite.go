package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vahanpulse/pkg/contracts/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS registrations (
	date             TEXT    NOT NULL,
	year             INTEGER NOT NULL,
	quarter          TEXT    NOT NULL,
	vehicle_category TEXT    NOT NULL,
	manufacturer     TEXT    NOT NULL,
	registrations    INTEGER NOT NULL CHECK (registrations >= 0),
	PRIMARY KEY (date, vehicle_category, manufacturer)
);
CREATE INDEX IF NOT EXISTS idx_registrations_date ON registrations(date);
`

// SQLiteStore keeps a canonical table in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database and its schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Replace swaps the stored table for records in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, records []domain.Registration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM registrations`); err != nil {
		return fmt.Errorf("clear table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO registrations
		(date, year, quarter, vehicle_category, manufacturer, registrations)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Date.Format(domain.DateLayout), r.Year, r.Quarter,
			string(r.VehicleCategory), r.Manufacturer, r.Registrations,
		); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Registrations returns the stored table ordered by date, category then manufacturer.
func (s *SQLiteStore) Registrations(ctx context.Context) ([]domain.Registration, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, vehicle_category, manufacturer, registrations
		FROM registrations ORDER BY date, vehicle_category, manufacturer`)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	records := []domain.Registration{}
	for rows.Next() {
		var (
			date, category, manufacturer string
			count                        int64
		)
		if err := rows.Scan(&date, &category, &manufacturer, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		day, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		records = append(records, domain.NewRegistration(day, domain.VehicleCategory(category), manufacturer, count))
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
