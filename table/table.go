// Package table holds the validated note table every other stage consumes.
//
// A *Table can only be built through New or Sorted, both of which run the
// full validation, so any *Table in hand is canonically sorted, in pitch
// range, and free of same-pitch overlaps.
package table

import (
	"math"
	"sort"

	"github.com/jsphweid/scoretensor/model"
	"golang.org/x/exp/slices"
)

// tolerance for comparing float offsets against onsets
const epsilon = 1e-9

type Config struct {
	Pitches model.PitchRange
}

func DefaultConfig() Config {
	return Config{Pitches: model.FullPitchRange()}
}

type Table struct {
	notes []model.Note
	cfg   Config
}

// New validates notes, which must already be in canonical order.
func New(notes []model.Note, cfg Config) (*Table, error) {
	owned := slices.Clone(notes)
	if err := validate(owned, cfg); err != nil {
		return nil, err
	}
	return &Table{notes: owned, cfg: cfg}, nil
}

// Sorted is New on a canonically sorted copy of notes.
func Sorted(notes []model.Note, cfg Config) (*Table, error) {
	owned := slices.Clone(notes)
	SortNotes(owned)
	if err := validate(owned, cfg); err != nil {
		return nil, err
	}
	return &Table{notes: owned, cfg: cfg}, nil
}

func SortNotes(notes []model.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return model.Less(notes[i], notes[j])
	})
}

func validate(notes []model.Note, cfg Config) error {
	var badPitches []int
	for i, n := range notes {
		switch {
		case math.IsNaN(n.Onset) || math.IsInf(n.Onset, 0) || n.Onset < 0:
			return &InvalidNoteError{Index: i, Note: n, Reason: "onset must be a finite non-negative number"}
		case math.IsNaN(n.Dur) || math.IsInf(n.Dur, 0) || n.Dur <= 0:
			return &InvalidNoteError{Index: i, Note: n, Reason: "dur must be a finite positive number"}
		}
		if !cfg.Pitches.Contains(n.Pitch) {
			badPitches = append(badPitches, n.Pitch)
		}
	}
	if len(badPitches) > 0 {
		return &PitchRangeError{Pitches: sortedUnique(badPitches), Range: cfg.Pitches}
	}

	for i := 1; i < len(notes); i++ {
		if model.Less(notes[i], notes[i-1]) {
			return &SortOrderError{Index: i, Note: notes[i]}
		}
	}

	if tracks, pitches := samePitchViolations(notes); len(tracks) > 0 {
		return &OverlapError{Tracks: tracks, Pitches: pitches}
	}
	return nil
}

// Notes returns a copy of the table's notes.
func (t *Table) Notes() []model.Note {
	return slices.Clone(t.notes)
}

func (t *Table) Len() int {
	return len(t.notes)
}

func (t *Table) At(i int) model.Note {
	return t.notes[i]
}

func (t *Table) Config() Config {
	return t.cfg
}

// Tracks returns the distinct track ids in ascending order.
func (t *Table) Tracks() []int {
	var tracks []int
	for _, n := range t.notes {
		tracks = append(tracks, n.Track)
	}
	return sortedUnique(tracks)
}

// End returns the latest offset in the table.
func (t *Table) End() float64 {
	var end float64
	for _, n := range t.notes {
		end = math.Max(end, n.Offset())
	}
	return end
}

func (t *Table) Equal(o *Table) bool {
	return slices.Equal(t.notes, o.notes)
}

// Overlaps reports whether a, which starts no later than b, still sounds at b's onset.
func Overlaps(a, b model.Note) bool {
	return a.Offset()-b.Onset > epsilon*math.Max(1, math.Abs(b.Onset))
}

func sortedUnique(vals []int) []int {
	out := slices.Clone(vals)
	slices.Sort(out)
	return slices.Compact(out)
}
