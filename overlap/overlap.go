// Package overlap repairs temporal conflicts between notes by shortening
// durations. Onsets are never moved.
package overlap

import (
	"fmt"

	"github.com/jsphweid/scoretensor/model"
	"github.com/jsphweid/scoretensor/table"
)

type Options struct {
	// shortest duration a truncation may leave behind
	MinDuration float64
	Table       table.Config
}

func DefaultOptions() Options {
	return Options{Table: table.DefaultConfig()}
}

type MinDurationError struct {
	Note      model.Note
	Truncated float64
	Min       float64
}

func (e *MinDurationError) Error() string {
	return fmt.Sprintf("truncating %v would leave dur %v, below the minimum %v", e.Note, e.Truncated, e.Min)
}

type trackPitch struct {
	track int
	pitch int
}

func truncate(n model.Note, until float64, min float64) (model.Note, error) {
	dur := until - n.Onset
	if dur <= 0 || dur < min {
		return n, &MinDurationError{Note: n, Truncated: dur, Min: min}
	}
	n.Dur = dur
	return n, nil
}

// ResolveSamePitchOverlaps cuts every note short at the onset of the next note
// with the same track and pitch. notes may arrive in any order; they cannot be
// a *table.Table yet because they overlap.
func ResolveSamePitchOverlaps(notes []model.Note, opts Options) (*table.Table, error) {
	sorted := append([]model.Note(nil), notes...)
	table.SortNotes(sorted)

	next := make(map[trackPitch]model.Note)
	for i := len(sorted) - 1; i >= 0; i-- {
		n := sorted[i]
		key := trackPitch{n.Track, n.Pitch}
		if following, ok := next[key]; ok && table.Overlaps(n, following) {
			fixed, err := truncate(n, following.Onset, opts.MinDuration)
			if err != nil {
				return nil, err
			}
			sorted[i] = fixed
		}
		next[key] = n
	}

	return table.Sorted(sorted, opts.Table)
}

// ForceMonophonic removes all overlap inside each track, regardless of pitch,
// by cutting every note short at the next later onset in its track.
//
// Notes of one track that share an onset cannot all survive. Every note but
// the last of them in canonical order (highest pitch, then longest dur) would
// be cut to zero width, so those are dropped and reported as diagnostics.
func ForceMonophonic(t *table.Table, opts Options) (*table.Table, []model.Diagnostic, error) {
	byTrack := make(map[int][]model.Note)
	var order []int
	for _, n := range t.Notes() {
		if _, ok := byTrack[n.Track]; !ok {
			order = append(order, n.Track)
		}
		byTrack[n.Track] = append(byTrack[n.Track], n)
	}

	var kept []model.Note
	var diags []model.Diagnostic
	for _, track := range order {
		notes := byTrack[track]
		for i, n := range notes {
			if i+1 < len(notes) && notes[i+1].Onset == n.Onset {
				diags = append(diags, model.NoteDiagnostic(model.DiagDroppedNote, n,
					fmt.Sprintf("shares its onset with pitch %d in the same track", notes[i+1].Pitch)))
				continue
			}
			if i+1 < len(notes) && table.Overlaps(n, notes[i+1]) {
				fixed, err := truncate(n, notes[i+1].Onset, opts.MinDuration)
				if err != nil {
					return nil, nil, err
				}
				n = fixed
			}
			kept = append(kept, n)
		}
	}

	res, err := table.Sorted(kept, t.Config())
	if err != nil {
		return nil, nil, err
	}
	return res, diags, nil
}
