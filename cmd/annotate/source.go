package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/physiolabel/annotate/internal/config"
	"github.com/physiolabel/annotate/internal/db"
	"github.com/physiolabel/annotate/internal/export"
	"github.com/physiolabel/annotate/internal/session"
	"github.com/physiolabel/annotate/internal/timebase"
)

// sourceFlags select the recording a command works on.
type sourceFlags struct {
	configPath string
	dbPath     string
	id         string
	name       string
	noise      string
	partitions string
	samples    string
	duration   float64
	rate       float64

	verbose     bool
	veryVerbose bool
}

func (s *sourceFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&s.configPath, "config", "", "annotation config JSON (defaults built in)")
	fs.StringVar(&s.dbPath, "db", "", "SQLite database path")
	fs.StringVar(&s.id, "id", "", "stored recording ID (requires -db)")
	fs.StringVar(&s.name, "name", "recording", "recording name for new recordings")
	fs.StringVar(&s.noise, "noise", "", "noise intervals CSV (label,start,end)")
	fs.StringVar(&s.partitions, "partitions", "", "partition intervals CSV")
	fs.StringVar(&s.samples, "samples-in", "", "existing sample windows CSV")
	fs.Float64Var(&s.duration, "duration", 0, "recording duration in seconds")
	fs.Float64Var(&s.rate, "rate", 0, "sample rate in Hz (default from config)")
	fs.BoolVar(&s.verbose, "v", false, "log diagnostics to stderr")
	fs.BoolVar(&s.veryVerbose, "vv", false, "log diagnostics and traces to stderr")
}

func (s *sourceFlags) loadConfig() (*config.AnnotateConfig, error) {
	if s.configPath == "" {
		return config.DefaultAnnotateConfig(), nil
	}
	return config.LoadAnnotateConfig(s.configPath)
}

// open returns the session and, when -db is set, the open database. The
// caller closes the database.
func (s *sourceFlags) open(cfg *config.AnnotateConfig) (*session.Session, *db.DB, error) {
	var database *db.DB
	if s.dbPath != "" {
		var err error
		if database, err = db.NewDB(s.dbPath); err != nil {
			return nil, nil, err
		}
	}

	sess, err := s.session(database, cfg)
	if err != nil {
		if database != nil {
			database.Close()
		}
		return nil, nil, err
	}
	return sess, database, nil
}

func (s *sourceFlags) session(database *db.DB, cfg *config.AnnotateConfig) (*session.Session, error) {
	var sess *session.Session
	switch {
	case s.id != "":
		if database == nil {
			return nil, errors.New("-id requires -db")
		}
		var err error
		if sess, err = session.Load(database, s.id, cfg); err != nil {
			return nil, err
		}
	case s.duration > 0:
		rate := s.rate
		if rate == 0 {
			rate = cfg.GetSampleRateHz()
		}
		m, err := timebase.FromDuration(rate, s.duration)
		if err != nil {
			return nil, err
		}
		sess = session.New(s.name, m, cfg)
	default:
		return nil, errors.New("either -id or a positive -duration is required")
	}

	for collection, path := range map[string]string{
		session.Noise:      s.noise,
		session.Partitions: s.partitions,
		session.Samples:    s.samples,
	} {
		if path == "" {
			continue
		}
		records, err := export.ReadCSVFile(path)
		if err != nil {
			return nil, err
		}
		st, _ := sess.Store(collection)
		if err := st.ReplaceRecords(records); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return sess, nil
}

// createOutput opens path for writing, or returns stdout for "" and "-".
func createOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
