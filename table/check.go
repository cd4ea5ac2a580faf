package table

import (
	"github.com/jsphweid/scoretensor/model"
	"golang.org/x/exp/slices"
)

type trackPitch struct {
	track int
	pitch int
}

// samePitchViolations expects notes in canonical order.
func samePitchViolations(notes []model.Note) ([]int, []int) {
	last := make(map[trackPitch]model.Note)
	var tracks, pitches []int
	for _, n := range notes {
		key := trackPitch{n.Track, n.Pitch}
		if prev, ok := last[key]; ok && Overlaps(prev, n) {
			tracks = append(tracks, n.Track)
			pitches = append(pitches, n.Pitch)
		}
		if prev, ok := last[key]; !ok || n.Offset() > prev.Offset() {
			last[key] = n
		}
	}
	return sortedUnique(tracks), sortedUnique(pitches)
}

// monophony expects notes in canonical order.
func monophony(notes []model.Note) map[int]bool {
	res := make(map[int]bool)
	latest := make(map[int]model.Note)
	for _, n := range notes {
		prev, seen := latest[n.Track]
		if !seen {
			res[n.Track] = true
			latest[n.Track] = n
			continue
		}
		if Overlaps(prev, n) {
			res[n.Track] = false
		}
		if n.Offset() > prev.Offset() {
			latest[n.Track] = n
		}
	}
	return res
}

func canonical(notes []model.Note) []model.Note {
	sorted := slices.Clone(notes)
	SortNotes(sorted)
	return sorted
}

// HasSamePitchOverlap reports whether two notes of one track and pitch overlap.
// Input order does not matter.
func HasSamePitchOverlap(notes []model.Note) bool {
	tracks, _ := samePitchViolations(canonical(notes))
	return len(tracks) > 0
}

// HasOverlap reports whether any track has two notes sounding at once, of any pitch.
func HasOverlap(notes []model.Note) bool {
	for _, mono := range monophony(canonical(notes)) {
		if !mono {
			return true
		}
	}
	return false
}

// IsMonophonic maps each track id to whether its notes never overlap in time.
func IsMonophonic(t *Table) map[int]bool {
	return monophony(t.notes)
}

// MonophonicTracks lists the monophonic track ids in ascending order.
func MonophonicTracks(t *Table) []int {
	res := []int{}
	for track, mono := range IsMonophonic(t) {
		if mono {
			res = append(res, track)
		}
	}
	slices.Sort(res)
	return res
}

// RequireMonophonic fails with a MonophonyViolation naming every polyphonic track.
func RequireMonophonic(t *Table) error {
	var bad []int
	for track, mono := range IsMonophonic(t) {
		if !mono {
			bad = append(bad, track)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	slices.Sort(bad)
	return &MonophonyViolation{Tracks: bad}
}
