package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"gocv.io/x/gocv"
	_ "modernc.org/sqlite"
)

// History stores run records in a SQLite database.
type History struct {
	db *sql.DB
}

// OpenHistory opens (and if needed creates) the history database at path.
// Use ":memory:" for a throwaway store.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	h := &History{db: db}
	if err := h.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return h, nil
}

func (h *History) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL, -- Unix nanoseconds
		label TEXT NOT NULL,
		weight_g REAL NOT NULL,
		volume_cm3 REAL NOT NULL,
		density_g_cm3 REAL NOT NULL,
		density_tier TEXT NOT NULL,
		scale_cm_per_px REAL NOT NULL,
		scale_source TEXT NOT NULL,
		data JSON NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_label ON runs(label);
	`
	_, err := h.db.Exec(schema)
	return err
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// Save inserts or replaces a record.
func (h *History) Save(ctx context.Context, rec Record) error {
	if rec.Version == 0 {
		rec.Version = RecordVersion
	}
	if rec.Created.IsZero() {
		rec.Created = time.Now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(run_id, created_at, label, weight_g, volume_cm3, density_g_cm3, density_tier, scale_cm_per_px, scale_source, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Created.UnixNano(), rec.Label,
		rec.WeightGrams, rec.VolumeCm3, rec.DensityGCm3, rec.DensityTier,
		rec.ScaleCmPerPx, rec.ScaleSource, string(data))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.RunID, err)
	}
	return nil
}

// Get returns the record with the given run ID, or sql.ErrNoRows.
func (h *History) Get(ctx context.Context, runID string) (*Record, error) {
	var data string
	err := h.db.QueryRowContext(ctx, `SELECT data FROM runs WHERE run_id = ?`, runID).Scan(&data)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &rec, nil
}

// Recent returns up to n records, newest first.
func (h *History) Recent(ctx context.Context, n int) ([]Record, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT data FROM runs ORDER BY created_at DESC, run_id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var rec Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Report implements Reporter by saving the record.
func (h *History) Report(ctx context.Context, rec *Record, _ gocv.Mat) error {
	return h.Save(ctx, *rec)
}
