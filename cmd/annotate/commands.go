package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/physiolabel/annotate/internal/config"
	"github.com/physiolabel/annotate/internal/db"
	"github.com/physiolabel/annotate/internal/export"
	"github.com/physiolabel/annotate/internal/partition"
	"github.com/physiolabel/annotate/internal/session"
	"github.com/physiolabel/annotate/internal/timebase"
	"github.com/physiolabel/annotate/internal/view"
)

func runPlan(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("plan", stderr)
	var src sourceFlags
	src.register(fs)
	out := fs.String("samples", "-", "output CSV for the accepted windows")
	indices := fs.Bool("indices", false, "append start_index,end_index columns")

	// Overrides for the sample planning keys of the config file.
	start := fs.Float64("start", 0, "first window start in seconds")
	window := fs.Float64("window", 0, "window duration in seconds")
	minValid := fs.Float64("min-valid", 0, "minimum noise-free seconds per window")
	label := fs.String("label", "", "label for the new windows")
	count := fs.Int("count", 0, "generate exactly this many candidate windows")
	until := fs.Float64("until", 0, "generate windows starting before this time")
	overlap := fs.Float64("overlap", 0, "overlap between windows in percent")
	gap := fs.Float64("gap", 0, "gap between windows in seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLogging(stderr, src.verbose, src.veryVerbose)

	cfg, err := src.loadConfig()
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "start":
			cfg.StartSeconds = start
		case "window":
			cfg.SampleDurationSeconds = window
		case "min-valid":
			cfg.MinimumValidDurationSeconds = minValid
		case "label":
			cfg.SampleLabel = label
		case "count":
			rep := config.RepetitionCount
			cfg.Repetition, cfg.RepetitionCount = &rep, count
		case "until":
			rep := config.RepetitionUntil
			cfg.Repetition, cfg.RepetitionUntilSeconds = &rep, until
		case "overlap":
			sp := config.SpacingOverlap
			cfg.Spacing, cfg.OverlapPercent, cfg.GapSeconds = &sp, overlap, nil
		case "gap":
			sp := config.SpacingGap
			cfg.Spacing, cfg.GapSeconds, cfg.OverlapPercent = &sp, gap, nil
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid plan options: %w", err)
	}
	req, err := session.PlanRequestFromConfig(cfg)
	if err != nil {
		return err
	}

	sess, database, err := src.open(cfg)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	windows, err := sess.AddSamples(req)
	if err != nil {
		return err
	}
	records := make([]partition.Record, len(windows))
	for i, w := range windows {
		records[i] = w.Interval.Record()
	}

	if database != nil {
		if err := sess.Save(database); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "saved %d windows to recording %s\n", len(windows), sess.ID)
	}

	w, closeOut, err := createOutput(*out, stdout)
	if err != nil {
		return err
	}
	var m timebase.Mapping
	if *indices {
		m = sess.Mapping
	}
	if err := export.WriteCSV(w, records, m); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func runExport(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("export", stderr)
	var src sourceFlags
	src.register(fs)
	collection := fs.String("collection", session.Samples, "collection to export (noise, samples, partitions)")
	out := fs.String("out", "-", "output CSV path")
	indices := fs.Bool("indices", false, "append start_index,end_index columns")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLogging(stderr, src.verbose, src.veryVerbose)

	cfg, err := src.loadConfig()
	if err != nil {
		return err
	}
	sess, database, err := src.open(cfg)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	st, err := sess.Store(*collection)
	if err != nil {
		return err
	}
	w, closeOut, err := createOutput(*out, stdout)
	if err != nil {
		return err
	}
	var m timebase.Mapping
	if *indices {
		m = sess.Mapping
	}
	if err := export.WriteCSV(w, st.Records(), m); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func runRender(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("render", stderr)
	var src sourceFlags
	src.register(fs)
	htmlPath := fs.String("html", "", "write an interactive HTML timeline")
	pngPath := fs.String("png", "", "write a static timeline image (.png, .svg, .pdf)")
	assets := fs.String("assets", "", "echarts assets host for the HTML page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLogging(stderr, src.verbose, src.veryVerbose)
	if *htmlPath == "" && *pngPath == "" {
		return fmt.Errorf("render needs -html or -png")
	}

	cfg, err := src.loadConfig()
	if err != nil {
		return err
	}
	sess, database, err := src.open(cfg)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	tl := view.LayersFromSession(sess)
	if *htmlPath != "" {
		w, closeOut, err := createOutput(*htmlPath, stdout)
		if err != nil {
			return err
		}
		if err := view.RenderHTML(w, tl, view.HTMLOptions{AssetsHost: *assets}); err != nil {
			closeOut()
			return err
		}
		if err := closeOut(); err != nil {
			return err
		}
	}
	if *pngPath != "" {
		if err := view.RenderPNG(*pngPath, tl); err != nil {
			return err
		}
	}
	return nil
}

func runSummary(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("summary", stderr)
	var src sourceFlags
	src.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	setupLogging(stderr, src.verbose, src.veryVerbose)

	cfg, err := src.loadConfig()
	if err != nil {
		return err
	}
	sess, database, err := src.open(cfg)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	fmt.Fprintf(stdout, "recording\t%s\n", sess.Name)
	_, err = sess.Summary().WriteTo(stdout)
	return err
}

func runList(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("list", stderr)
	dbPath := fs.String("db", "annotate.db", "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	recs, err := database.ListRecordings()
	if err != nil {
		return err
	}
	for _, r := range recs {
		collections, err := database.Collections(r.ID)
		if err != nil {
			return err
		}
		stored := "-"
		if len(collections) > 0 {
			stored = strings.Join(collections, ",")
		}
		fmt.Fprintf(stdout, "%s\t%s\t%.0f Hz\t%.3fs\t%s\t%s\n",
			r.ID, r.Name, r.SampleRateHz, r.DurationSeconds, r.CreatedAt.Format("2006-01-02 15:04:05"), stored)
	}
	return nil
}

func runDelete(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("delete", stderr)
	dbPath := fs.String("db", "annotate.db", "SQLite database path")
	id := fs.String("id", "", "recording to delete along with its intervals")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("delete requires -id")
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.DeleteRecording(*id); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "deleted recording %s\n", *id)
	return nil
}

func runMigrate(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("migrate", stderr)
	dbPath := fs.String("db", "annotate.db", "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd := &db.MigrateCommand{DBPath: *dbPath, In: stdin, Out: stdout}
	return cmd.Run(fs.Args())
}
