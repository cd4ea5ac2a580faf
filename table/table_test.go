package table

import (
	"errors"
	"testing"

	"github.com/jsphweid/scoretensor/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notes(onsets []float64, tracks []int, pitches []int, durs []float64) []model.Note {
	res := make([]model.Note, len(onsets))
	for i := range onsets {
		track := 0
		if len(tracks) == 1 {
			track = tracks[0]
		} else if len(tracks) > 0 {
			track = tracks[i]
		}
		res[i] = model.Note{Onset: onsets[i], Track: track, Pitch: pitches[i], Dur: durs[i]}
	}
	return res
}

var (
	overlappingPitch    = notes([]float64{0, 1}, nil, []int{60, 60}, []float64{2, 1})
	overlappingPitchFix = notes([]float64{0, 1}, nil, []int{60, 60}, []float64{1, 1})
	overlappingNote     = notes([]float64{0, 1}, nil, []int{60, 61}, []float64{2, 1})
	twoPitchAligned     = notes([]float64{0, 0, 1, 2, 3, 4}, nil, []int{61, 60, 60, 60, 60, 60}, []float64{4, 1, 1, 0.5, 0.5, 2})
	withSilence         = notes([]float64{0, 0, 1, 2, 3, 4}, []int{0, 1, 0, 0, 0, 0}, []int{60, 61, 60, 60, 60, 60}, []float64{1, 3.75, 1, 0.5, 0.5, 2})

	allMono = mustSort(notes(
		[]float64{0, 1, 2, 3, 0, 1, 2, 3, 0, 1, 2, 3},
		[]int{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2},
		[]int{60, 61, 62, 63, 70, 71, 72, 73, 80, 81, 82, 83},
		[]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}))
	someMono = mustSort(notes(
		[]float64{0, 1, 2, 3, 0, 1, 2, 3, 0, 1, 2, 3},
		[]int{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2},
		[]int{60, 61, 62, 63, 70, 71, 72, 73, 80, 81, 82, 83},
		[]float64{1, 1, 1, 1, 4, 1, 1, 1, 1, 1, 1, 1}))
	allPoly = mustSort(notes(
		[]float64{0, 1, 2, 3, 0, 1, 2, 3, 0, 1, 2, 3},
		[]int{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2},
		[]int{60, 61, 62, 63, 70, 71, 72, 73, 80, 81, 82, 83},
		[]float64{2, 1, 1, 1, 4, 1, 1, 1, 3, 1, 1, 1}))
)

func mustSort(ns []model.Note) []model.Note {
	SortNotes(ns)
	return ns
}

func TestNewAcceptsValidTables(t *testing.T) {
	cases := map[string][]model.Note{
		"overlapping pitch fixed": overlappingPitchFix,
		"overlapping note":        overlappingNote,
		"with silence":            withSilence,
		"all mono":                allMono,
		"some mono":               someMono,
		"all poly":                allPoly,
		"empty":                   nil,
	}
	for name, ns := range cases {
		t.Run(name, func(t *testing.T) {
			tbl, err := New(ns, DefaultConfig())
			require.NoError(t, err)
			assert.Equal(t, len(ns), tbl.Len())
		})
	}
}

func TestNewRejectsOverlappingPitch(t *testing.T) {
	_, err := New(overlappingPitch, DefaultConfig())

	var overlapErr *OverlapError
	require.True(t, errors.As(err, &overlapErr))
	assert.Equal(t, []int{0}, overlapErr.Tracks)
	assert.Equal(t, []int{60}, overlapErr.Pitches)
	assert.Equal(t, "track(s) [0] has an overlapping note at pitch(es) [60], i.e. there is a note which overlaps another at the same pitch", err.Error())
}

func TestOverlapErrorNamesAllViolators(t *testing.T) {
	ns := mustSort([]model.Note{
		{Onset: 0, Track: 3, Pitch: 64, Dur: 2},
		{Onset: 1, Track: 3, Pitch: 64, Dur: 1},
		{Onset: 0, Track: 1, Pitch: 50, Dur: 5},
		{Onset: 4, Track: 1, Pitch: 50, Dur: 1},
		{Onset: 0, Track: 2, Pitch: 40, Dur: 1},
		{Onset: 1, Track: 2, Pitch: 40, Dur: 1},
	})
	_, err := New(ns, DefaultConfig())

	var overlapErr *OverlapError
	require.True(t, errors.As(err, &overlapErr))
	assert.Equal(t, []int{1, 3}, overlapErr.Tracks)
	assert.Equal(t, []int{50, 64}, overlapErr.Pitches)
}

func TestOverlapAcrossNonAdjacentNotes(t *testing.T) {
	// the long first note still sounds when the third one starts
	ns := []model.Note{
		{Onset: 0, Pitch: 60, Dur: 10},
		{Onset: 1, Pitch: 61, Dur: 1},
		{Onset: 2, Pitch: 60, Dur: 1},
	}
	_, err := New(ns, DefaultConfig())
	var overlapErr *OverlapError
	assert.True(t, errors.As(err, &overlapErr))
}

func TestNewRejectsUnsorted(t *testing.T) {
	_, err := New(twoPitchAligned, DefaultConfig())

	var sortErr *SortOrderError
	require.True(t, errors.As(err, &sortErr))
	assert.Equal(t, 1, sortErr.Index)

	tbl, err := Sorted(twoPitchAligned, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 60, tbl.At(0).Pitch)
	assert.Equal(t, 61, tbl.At(1).Pitch)
}

func TestNewRejectsInvalidValues(t *testing.T) {
	cases := map[string]model.Note{
		"negative onset": {Onset: -1, Pitch: 60, Dur: 1},
		"zero dur":       {Onset: 0, Pitch: 60, Dur: 0},
		"negative dur":   {Onset: 0, Pitch: 60, Dur: -2},
	}
	for name, n := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New([]model.Note{n}, DefaultConfig())
			var invalid *InvalidNoteError
			assert.True(t, errors.As(err, &invalid))
		})
	}
}

func TestNewRejectsPitchOutOfRange(t *testing.T) {
	cfg := Config{Pitches: model.PitchRange{Min: 21, Max: 108}}
	ns := []model.Note{{Onset: 0, Pitch: 20, Dur: 1}, {Onset: 1, Pitch: 109, Dur: 1}, {Onset: 2, Pitch: 20, Dur: 1}}
	_, err := New(ns, cfg)

	var rangeErr *PitchRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, []int{20, 109}, rangeErr.Pitches)
}

func TestNewDoesNotAliasInput(t *testing.T) {
	ns := []model.Note{{Onset: 0, Pitch: 60, Dur: 1}}
	tbl, err := New(ns, DefaultConfig())
	require.NoError(t, err)

	ns[0].Pitch = 10
	out := tbl.Notes()
	out[0].Pitch = 11
	assert.Equal(t, 60, tbl.At(0).Pitch)
}

func TestHasOverlap(t *testing.T) {
	assert := assert.New(t)
	assert.True(HasOverlap(overlappingPitch))
	assert.True(HasOverlap(overlappingNote))
	assert.False(HasOverlap(overlappingPitchFix))
}

func TestHasSamePitchOverlap(t *testing.T) {
	assert := assert.New(t)
	assert.True(HasSamePitchOverlap(overlappingPitch))
	assert.False(HasSamePitchOverlap(overlappingPitchFix))
	assert.False(HasSamePitchOverlap(overlappingNote))
}

func TestIsMonophonic(t *testing.T) {
	cases := []struct {
		name  string
		notes []model.Note
		want  map[int]bool
		mono  []int
	}{
		{"all mono", allMono, map[int]bool{0: true, 1: true, 2: true}, []int{0, 1, 2}},
		{"some mono", someMono, map[int]bool{0: true, 1: false, 2: true}, []int{0, 2}},
		{"all poly", allPoly, map[int]bool{0: false, 1: false, 2: false}, []int{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tbl, err := New(tc.notes, DefaultConfig())
			require.NoError(t, err)
			assert.Equal(t, tc.want, IsMonophonic(tbl))
			assert.Equal(t, tc.mono, MonophonicTracks(tbl))
		})
	}
}

func TestMonophonicTracksAgreesWithIsMonophonic(t *testing.T) {
	for _, ns := range [][]model.Note{allMono, someMono, allPoly, withSilence} {
		tbl, err := Sorted(ns, DefaultConfig())
		require.NoError(t, err)

		mono := IsMonophonic(tbl)
		tracks := tbl.Tracks()
		for _, track := range MonophonicTracks(tbl) {
			assert.Contains(t, tracks, track)
			assert.True(t, mono[track])
		}
		for track, ok := range mono {
			assert.Equal(t, ok, contains(MonophonicTracks(tbl), track))
		}
	}
}

func contains(vals []int, v int) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}

func TestRequireMonophonic(t *testing.T) {
	tbl, err := New(someMono, DefaultConfig())
	require.NoError(t, err)

	err = RequireMonophonic(tbl)
	var violation *MonophonyViolation
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, []int{1}, violation.Tracks)

	tbl, err = New(allMono, DefaultConfig())
	require.NoError(t, err)
	assert.NoError(t, RequireMonophonic(tbl))
}

func TestCheckColumns(t *testing.T) {
	cases := []struct {
		header   []string
		hasTrack bool
		kind     SchemaErrorKind
	}{
		{[]string{"onset", "track", "pitch", "dur"}, true, 0},
		{[]string{"onset", "pitch", "dur"}, false, 0},
		{[]string{" onset", "track ", "pitch", "dur"}, true, 0},
		{[]string{"onset", "pitch"}, false, SchemaMissing},
		{[]string{"pitch", "track", "onset", "dur"}, false, SchemaOrder},
		{[]string{"onset", "track", "pitch", "dur", "sparecol"}, false, SchemaExtra},
		{[]string{"onset", "track", "pitch", "dur", "dur"}, false, SchemaExtra},
	}
	for _, tc := range cases {
		hasTrack, err := CheckColumns(tc.header)
		if tc.kind == 0 {
			assert.NoError(t, err, "%v", tc.header)
			assert.Equal(t, tc.hasTrack, hasTrack)
			continue
		}
		var schemaErr *SchemaError
		if assert.True(t, errors.As(err, &schemaErr), "%v", tc.header) {
			assert.Equal(t, tc.kind, schemaErr.Kind)
		}
	}
}
