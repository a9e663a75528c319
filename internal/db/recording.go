package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRecordingNotFound is returned when no recording has the requested ID.
var ErrRecordingNotFound = errors.New("recording not found")

// Recording describes one physiological recording whose intervals are
// stored in the intervals table.
type Recording struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	SampleRateHz    float64   `json:"sample_rate_hz"`
	DurationSeconds float64   `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateRecording inserts r, assigning an ID and creation time when unset.
func (db *DB) CreateRecording(r *Recording) error {
	if r.SampleRateHz <= 0 {
		return fmt.Errorf("sample rate must be positive, got %f", r.SampleRateHz)
	}
	if r.DurationSeconds < 0 {
		return fmt.Errorf("duration must be non-negative, got %f", r.DurationSeconds)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := db.Exec(`
		INSERT INTO recordings (id, name, sample_rate_hz, duration_seconds, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.SampleRateHz, r.DurationSeconds, r.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	return nil
}

// GetRecording returns the recording with the given ID.
func (db *DB) GetRecording(id string) (*Recording, error) {
	row := db.QueryRow(`
		SELECT id, name, sample_rate_hz, duration_seconds, created_at
		FROM recordings WHERE id = ?`, id)

	r, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRecordingNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recording: %w", err)
	}
	return r, nil
}

// ListRecordings returns all recordings, newest first.
func (db *DB) ListRecordings() ([]Recording, error) {
	rows, err := db.Query(`
		SELECT id, name, sample_rate_hz, duration_seconds, created_at
		FROM recordings ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	defer rows.Close()

	var recordings []Recording
	for rows.Next() {
		r, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recording: %w", err)
		}
		recordings = append(recordings, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recordings, nil
}

// DeleteRecording removes a recording and, through the foreign key, all of
// its intervals.
func (db *DB) DeleteRecording(id string) error {
	res, err := db.Exec(`DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRecordingNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecording(s scanner) (*Recording, error) {
	var r Recording
	var created int64
	if err := s.Scan(&r.ID, &r.Name, &r.SampleRateHz, &r.DurationSeconds, &created); err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(created, 0).UTC()
	return &r, nil
}
