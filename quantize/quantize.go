// Package quantize snaps note tables onto a time grid.
package quantize

import (
	"fmt"
	"math"

	"github.com/jsphweid/scoretensor/model"
	"github.com/jsphweid/scoretensor/table"
)

// Table is a note table whose onsets and durations are whole quanta.
// Divisions is the number of quanta per source time unit.
type Table struct {
	grid      *table.Table
	divisions float64
}

// New validates notes already expressed in quanta.
func New(notes []model.Note, divisions float64, cfg table.Config) (*Table, error) {
	if divisions <= 0 || math.IsInf(divisions, 0) || math.IsNaN(divisions) {
		return nil, fmt.Errorf("divisions must be positive, got %v", divisions)
	}
	for i, n := range notes {
		if n.Onset != math.Trunc(n.Onset) || n.Dur != math.Trunc(n.Dur) {
			return nil, &table.InvalidNoteError{Index: i, Note: n, Reason: "onset and dur must be whole quanta"}
		}
	}
	grid, err := table.New(notes, cfg)
	if err != nil {
		return nil, err
	}
	return &Table{grid: grid, divisions: divisions}, nil
}

// Grid returns the table in quantum units.
func (q *Table) Grid() *table.Table {
	return q.grid
}

func (q *Table) Notes() []model.Note {
	return q.grid.Notes()
}

func (q *Table) Len() int {
	return q.grid.Len()
}

func (q *Table) Divisions() float64 {
	return q.divisions
}

// NumQuanta is the first quantum after every note has ended.
func (q *Table) NumQuanta() int {
	return int(q.grid.End())
}

// Units projects the table back into source time units.
func (q *Table) Units() (*table.Table, error) {
	notes := q.grid.Notes()
	for i := range notes {
		notes[i].Onset /= q.divisions
		notes[i].Dur /= q.divisions
	}
	return table.New(notes, q.grid.Config())
}

func (q *Table) Equal(o *Table) bool {
	return q.divisions == o.divisions && q.grid.Equal(o.grid)
}

// ConflictError means two notes of one track and pitch land on the same
// onset quantum, so no duration of at least one quantum keeps them apart.
type ConflictError struct {
	Track     int
	Pitch     int
	Quantum   int
	Divisions float64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("track %d pitch %d: two notes quantize onto onset quantum %d at %v divisions", e.Track, e.Pitch, e.Quantum, e.Divisions)
}

type trackPitch struct {
	track int
	pitch int
}

func round(x float64) float64 {
	return math.RoundToEven(x)
}

// Quantize snaps onsets and offsets to the nearest of divisions quanta per
// unit. A note that rounds to nothing keeps one quantum. Rounding may push a
// note into the next one of the same pitch; such notes are shortened until
// they end at that onset.
func Quantize(t *table.Table, divisions int) (*Table, error) {
	if divisions <= 0 {
		return nil, fmt.Errorf("divisions must be positive, got %d", divisions)
	}
	d := float64(divisions)

	notes := t.Notes()
	for i, n := range notes {
		onset := round(n.Onset * d)
		dur := round(n.Offset()*d) - onset
		if dur < 1 {
			dur = 1
		}
		notes[i] = model.Note{Onset: onset, Track: n.Track, Pitch: n.Pitch, Dur: dur}
	}
	table.SortNotes(notes)

	next := make(map[trackPitch]model.Note)
	for i := len(notes) - 1; i >= 0; i-- {
		n := notes[i]
		key := trackPitch{n.Track, n.Pitch}
		if following, ok := next[key]; ok {
			if following.Onset == n.Onset {
				return nil, &ConflictError{Track: n.Track, Pitch: n.Pitch, Quantum: int(n.Onset), Divisions: d}
			}
			// onsets differ by at least one quantum, so the floor always holds
			for n.Onset+n.Dur > following.Onset {
				n.Dur--
			}
			notes[i] = n
		}
		next[key] = n
	}

	table.SortNotes(notes)
	return New(notes, d, t.Config())
}
