package session

import (
	"errors"
	"fmt"

	"github.com/physiolabel/annotate/internal/config"
	"github.com/physiolabel/annotate/internal/db"
	"github.com/physiolabel/annotate/internal/partition"
	"github.com/physiolabel/annotate/internal/timebase"
)

// Save writes the recording and all three collections. The recording row
// is created on the first save and s.ID is set to its ID.
func (s *Session) Save(database *db.DB) error {
	if err := s.ensureRecording(database); err != nil {
		return err
	}
	for _, c := range Collections {
		all := s.stores[c].All()
		rows := make([]db.IntervalRow, len(all))
		for i, iv := range all {
			rows[i] = db.IntervalRow{ID: iv.ID, Label: iv.Label, Start: iv.Start, End: iv.End}
		}
		if err := database.SaveCollection(s.ID, c, rows); err != nil {
			return fmt.Errorf("save %q: %w", s.Name, err)
		}
		tracef("%s: saved %d %s rows", s.ID, len(rows), c)
	}
	diagf("saved recording %s (%s)", s.ID, s.Name)
	return nil
}

func (s *Session) ensureRecording(database *db.DB) error {
	if s.ID != "" {
		_, err := database.GetRecording(s.ID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, db.ErrRecordingNotFound) {
			return err
		}
	}
	rec := &db.Recording{
		ID:              s.ID,
		Name:            s.Name,
		SampleRateHz:    s.Mapping.SampleRateHz,
		DurationSeconds: s.Mapping.Duration(),
	}
	if err := database.CreateRecording(rec); err != nil {
		return err
	}
	s.ID = rec.ID
	return nil
}

// Load opens a saved recording. Every collection is rebuilt through
// BatchReplace and validated; a collection that fails validation rejects
// the whole load.
func Load(database *db.DB, id string, cfg *config.AnnotateConfig) (*Session, error) {
	rec, err := database.GetRecording(id)
	if err != nil {
		return nil, err
	}
	m, err := timebase.FromDuration(rec.SampleRateHz, rec.DurationSeconds)
	if err != nil {
		return nil, fmt.Errorf("recording %s: %w", id, err)
	}

	s := New(rec.Name, m, cfg)
	s.ID = rec.ID
	for _, c := range Collections {
		rows, err := database.LoadCollection(id, c)
		if err != nil {
			return nil, err
		}
		records := make([]partition.Record, len(rows))
		for i, r := range rows {
			records[i] = partition.Record{Label: r.Label, Start: r.Start, End: r.End}
		}
		if err := s.stores[c].ReplaceRecords(records); err != nil {
			opsf("%s: rejected %s collection: %v", id, c, err)
			return nil, fmt.Errorf("load %s %q: %w", id, c, err)
		}
		tracef("%s: loaded %d %s rows", id, len(records), c)
	}
	if err := s.Validate(); err != nil {
		opsf("%s: loaded collections failed validation: %v", id, err)
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	diagf("loaded recording %s (%s)", s.ID, s.Name)
	return s, nil
}
