// Package file reads and writes the tabular note interchange format: CSV
// with the columns onset,track,pitch,dur.
package file

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jsphweid/scoretensor/model"
	"github.com/jsphweid/scoretensor/table"
	"github.com/pkg/errors"
)

type ReadOptions struct {
	Table table.Config
	// keep rows in file order; unsorted input then fails validation
	SkipSort bool
}

func DefaultReadOptions() ReadOptions {
	return ReadOptions{Table: table.DefaultConfig()}
}

func CreateFileNumMap(paths []string) model.FileNumToPath {
	res := make(model.FileNumToPath)
	for i, v := range paths {
		res[uint32(i)] = v
	}
	return res
}

func ReadNoteCSVFile(path string, opts ReadOptions) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open note csv")
	}
	defer f.Close()

	t, err := ReadNoteCSV(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return t, nil
}

// ReadNoteCSV accepts a header of onset,track,pitch,dur or onset,pitch,dur.
// Without a header, rows of 4 or 3 numbers are read in the same orders.
func ReadNoteCSV(r io.Reader, opts ReadOptions) (*table.Table, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "malformed csv")
	}

	notes := []model.Note{}
	if len(rows) > 0 {
		hasTrack, isHeader, err := columnLayout(rows[0])
		if err != nil {
			return nil, err
		}
		if isHeader {
			rows = rows[1:]
		}
		for i, row := range rows {
			n, err := parseRow(row, hasTrack)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d", i)
			}
			notes = append(notes, n)
		}
	}

	if opts.SkipSort {
		return table.New(notes, opts.Table)
	}
	return table.Sorted(notes, opts.Table)
}

func columnLayout(first []string) (hasTrack, isHeader bool, err error) {
	numeric := true
	for _, v := range first {
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			numeric = false
			break
		}
	}
	if !numeric {
		hasTrack, err = table.CheckColumns(first)
		return hasTrack, true, err
	}

	switch len(first) {
	case len(model.Columns):
		return true, false, nil
	case len(model.Columns) - 1:
		return false, false, nil
	}
	return false, false, &table.SchemaError{Kind: table.SchemaExtra, Columns: first}
}

func parseRow(row []string, hasTrack bool) (model.Note, error) {
	want := len(model.Columns)
	if !hasTrack {
		want--
	}
	if len(row) != want {
		return model.Note{}, errors.Errorf("expected %d fields, got %d", want, len(row))
	}

	vals := make([]float64, len(row))
	for i, v := range row {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return model.Note{}, errors.Wrapf(err, "field %d", i)
		}
		vals[i] = f
	}
	if !hasTrack {
		vals = []float64{vals[0], 0, vals[1], vals[2]}
	}

	track, err := toInt(vals[1], "track")
	if err != nil {
		return model.Note{}, err
	}
	pitch, err := toInt(vals[2], "pitch")
	if err != nil {
		return model.Note{}, err
	}
	return model.Note{Onset: vals[0], Track: track, Pitch: pitch, Dur: vals[3]}, nil
}

func toInt(f float64, column string) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, errors.Errorf("%s must be an integer, got %v", column, f)
	}
	return int(f), nil
}

func WriteNoteCSVFile(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create note csv")
	}
	if err := WriteNoteCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteNoteCSV always writes the full header, track included.
func WriteNoteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.Columns); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, n := range t.Notes() {
		row := []string{
			formatFloat(n.Onset),
			strconv.Itoa(n.Track),
			strconv.Itoa(n.Pitch),
			formatFloat(n.Dur),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
