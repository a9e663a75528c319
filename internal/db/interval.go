package db

import (
	"fmt"

	"github.com/google/uuid"
)

// IntervalRow is one stored interval of a recording's collection.
// Position preserves the midpoint order of the in-memory store.
type IntervalRow struct {
	ID          string
	RecordingID string
	Collection  string
	Label       string
	Start       float64
	End         float64
	Position    int
}

// SaveCollection replaces every interval of the named collection with rows
// in one transaction. Row IDs are kept when set; Position is rewritten from
// the slice order.
func (db *DB) SaveCollection(recordingID, collection string, rows []IntervalRow) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM recordings WHERE id = ?`, recordingID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up recording: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrRecordingNotFound, recordingID)
	}

	if _, err := tx.Exec(`DELETE FROM intervals WHERE recording_id = ? AND collection = ?`,
		recordingID, collection); err != nil {
		return fmt.Errorf("failed to clear collection %q: %w", collection, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO intervals (id, recording_id, collection, label, start_s, end_s, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.Exec(id, recordingID, collection, r.Label, r.Start, r.End, i); err != nil {
			return fmt.Errorf("failed to insert interval %d of %q: %w", i, collection, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit collection %q: %w", collection, err)
	}
	return nil
}

// LoadCollection returns the named collection ordered by position.
// A collection that was never saved loads as empty.
func (db *DB) LoadCollection(recordingID, collection string) ([]IntervalRow, error) {
	rows, err := db.Query(`
		SELECT id, recording_id, collection, label, start_s, end_s, position
		FROM intervals
		WHERE recording_id = ? AND collection = ?
		ORDER BY position`, recordingID, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection %q: %w", collection, err)
	}
	defer rows.Close()

	var out []IntervalRow
	for rows.Next() {
		var r IntervalRow
		if err := rows.Scan(&r.ID, &r.RecordingID, &r.Collection, &r.Label, &r.Start, &r.End, &r.Position); err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Collections lists the collection names stored for a recording.
func (db *DB) Collections(recordingID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT DISTINCT collection FROM intervals
		WHERE recording_id = ? ORDER BY collection`, recordingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
