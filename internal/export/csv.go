// Package export reads and writes interval collections as CSV.
//
// The header is label,start,end with times in seconds. When a mapping is
// supplied on write, start_index and end_index columns are appended.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/physiolabel/annotate/internal/partition"
	"github.com/physiolabel/annotate/internal/timebase"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

var (
	baseHeader  = []string{"label", "start", "end"}
	indexHeader = []string{"start_index", "end_index"}
)

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes records in order. m may be nil, in which case the
// sample-index columns are omitted.
func WriteCSV(w io.Writer, records []partition.Record, m timebase.Mapping) error {
	cw := csv.NewWriter(w)

	header := baseHeader
	if m != nil {
		header = append(append([]string{}, baseHeader...), indexHeader...)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(header))
	for i, r := range records {
		row[0] = r.Label
		row[1] = formatSeconds(r.Start)
		row[2] = formatSeconds(r.End)
		if m != nil {
			row[3] = strconv.Itoa(m.TimeToSampleIndex(r.Start))
			row[4] = strconv.Itoa(m.TimeToSampleIndex(r.End))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses records from r. Columns are located by header name, so
// their order is free and unknown columns such as start_index are ignored.
func ReadCSV(r io.Reader) ([]partition.Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idx := make([]int, len(baseHeader))
	for i, name := range baseHeader {
		c, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		idx[i] = c
	}

	var records []partition.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for _, c := range idx {
			if c >= len(row) {
				return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, c+1, len(row))
			}
		}

		start, err := parseSeconds(row[idx[1]])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid start %q: %w", line, row[idx[1]], err)
		}
		end, err := parseSeconds(row[idx[2]])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid end %q: %w", line, row[idx[2]], err)
		}
		records = append(records, partition.Record{Label: row[idx[0]], Start: start, End: end})
	}
	return records, nil
}

func parseSeconds(field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, partition.ErrNonFinite
	}
	return v, nil
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) ([]partition.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// WriteCSVFile creates path and writes records to it with WriteCSV.
func WriteCSVFile(path string, records []partition.Record, m timebase.Mapping) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, records, m); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
