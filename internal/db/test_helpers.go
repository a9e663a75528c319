package db

import (
	"path/filepath"
	"testing"
)

// newTestDB returns a migrated database in a per-test temporary directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "annotate.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestRecording inserts a 10 minute recording sampled at 250 Hz.
func createTestRecording(t *testing.T, db *DB, name string) *Recording {
	t.Helper()
	r := &Recording{Name: name, SampleRateHz: 250, DurationSeconds: 600}
	if err := db.CreateRecording(r); err != nil {
		t.Fatalf("CreateRecording failed: %v", err)
	}
	return r
}
