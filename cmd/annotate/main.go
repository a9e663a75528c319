// Command annotate plans noise-aware sample windows over physiological
// recordings and manages their stored interval collections.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/physiolabel/annotate/internal/partition"
	"github.com/physiolabel/annotate/internal/samples"
	"github.com/physiolabel/annotate/internal/session"
	"github.com/physiolabel/annotate/internal/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "annotate: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return fmt.Errorf("missing command")
	}

	command, args := args[0], args[1:]
	switch command {
	case "plan":
		return runPlan(args, stdout, stderr)
	case "export":
		return runExport(args, stdout, stderr)
	case "render":
		return runRender(args, stdout, stderr)
	case "summary":
		return runSummary(args, stdout, stderr)
	case "list":
		return runList(args, stdout, stderr)
	case "delete":
		return runDelete(args, stdout, stderr)
	case "migrate":
		return runMigrate(args, stdin, stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "annotate %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return nil
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", command)
	}
}

// setupLogging routes ops to stderr always, diag with -v and trace with -vv.
func setupLogging(stderr io.Writer, verbose, veryVerbose bool) {
	var diag, trace io.Writer
	if verbose || veryVerbose {
		diag = stderr
	}
	if veryVerbose {
		trace = stderr
	}
	partition.SetLogWriters(stderr, diag, trace)
	samples.SetLogWriters(stderr, diag, trace)
	session.SetLogWriters(stderr, diag, trace)
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `annotate - noise-aware sample window planning for physiological recordings

Usage: annotate <command> [options]

Commands:
  plan       Plan sample windows around noise and write them as CSV
  export     Write a stored collection as CSV
  render     Render the noise, samples and partitions lanes (-html, -png)
  summary    Print counts and noise coverage for a recording
  list       List stored recordings and their saved collections
  delete     Delete a stored recording and its intervals
  migrate    Manage the database schema (up, down, status, version, force)
  version    Show version information
  help       Show this help message

Recording source (plan, render, summary):
  -db <path> -id <recording>       a stored recording
  -duration <s> [-rate <hz>]       or a recording described on the command line,
  -noise <csv> [-partitions <csv>] with its collections read from CSV

Examples:
  annotate plan -duration 600 -noise noise.csv -samples out.csv
  annotate plan -config cfg.json -duration 3600 -noise noise.csv -db annotate.db -name s07
  annotate export -db annotate.db -id <recording> -collection samples -indices
  annotate render -db annotate.db -id <recording> -html timeline.html -png timeline.png
  annotate migrate -db annotate.db status
`)
}
