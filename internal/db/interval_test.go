package db

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadCollection(t *testing.T) {
	db := newTestDB(t)
	r := createTestRecording(t, db, "rec")

	rows := []IntervalRow{
		{ID: "a", Label: "sample", Start: 0, End: 10},
		{ID: "b", Label: "sample", Start: 10, End: 20},
		{Label: "sample", Start: 30, End: 40},
	}
	require.NoError(t, db.SaveCollection(r.ID, "samples", rows))

	got, err := db.LoadCollection(r.ID, "samples")
	require.NoError(t, err)

	want := []IntervalRow{
		{ID: "a", RecordingID: r.ID, Collection: "samples", Label: "sample", Start: 0, End: 10, Position: 0},
		{ID: "b", RecordingID: r.ID, Collection: "samples", Label: "sample", Start: 10, End: 20, Position: 1},
		{RecordingID: r.ID, Collection: "samples", Label: "sample", Start: 30, End: 40, Position: 2},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(IntervalRow{}, "ID")); diff != "" {
		t.Errorf("LoadCollection mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "a", got[0].ID)
	assert.NotEmpty(t, got[2].ID, "missing IDs are generated")
}

func TestSaveCollection_Replaces(t *testing.T) {
	db := newTestDB(t)
	r := createTestRecording(t, db, "rec")

	require.NoError(t, db.SaveCollection(r.ID, "noise", []IntervalRow{
		{Label: "noise", Start: 1, End: 2},
		{Label: "noise", Start: 5, End: 6},
	}))
	require.NoError(t, db.SaveCollection(r.ID, "partitions", []IntervalRow{
		{Label: "rest", Start: 0, End: 100},
	}))
	require.NoError(t, db.SaveCollection(r.ID, "noise", []IntervalRow{
		{Label: "noise", Start: 7, End: 9},
	}))

	noise, err := db.LoadCollection(r.ID, "noise")
	require.NoError(t, err)
	require.Len(t, noise, 1)
	assert.Equal(t, 7.0, noise[0].Start)

	parts, err := db.LoadCollection(r.ID, "partitions")
	require.NoError(t, err)
	assert.Len(t, parts, 1, "other collections are untouched")

	names, err := db.Collections(r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"noise", "partitions"}, names)
}

func TestSaveCollection_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	r := createTestRecording(t, db, "rec")

	require.NoError(t, db.SaveCollection(r.ID, "noise", []IntervalRow{{Label: "noise", Start: 1, End: 2}}))

	// The second row violates CHECK (end_s > start_s).
	err := db.SaveCollection(r.ID, "noise", []IntervalRow{
		{Label: "noise", Start: 3, End: 4},
		{Label: "noise", Start: 6, End: 5},
	})
	require.Error(t, err)

	got, err := db.LoadCollection(r.ID, "noise")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Start, "failed save must leave the previous collection intact")
}

func TestSaveCollection_UnknownRecording(t *testing.T) {
	db := newTestDB(t)

	err := db.SaveCollection("missing", "noise", []IntervalRow{{Label: "noise", Start: 1, End: 2}})
	assert.True(t, errors.Is(err, ErrRecordingNotFound))
}

func TestLoadCollection_Empty(t *testing.T) {
	db := newTestDB(t)
	r := createTestRecording(t, db, "rec")

	got, err := db.LoadCollection(r.ID, "never-saved")
	require.NoError(t, err)
	assert.Empty(t, got)
}
