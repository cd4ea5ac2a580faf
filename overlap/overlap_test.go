package overlap

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/jsphweid/scoretensor/model"
	"github.com/jsphweid/scoretensor/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSamePitchOverlaps(t *testing.T) {
	in := []model.Note{
		{Onset: 0, Track: 0, Pitch: 60, Dur: 2},
		{Onset: 1, Track: 0, Pitch: 60, Dur: 1},
	}
	res, err := ResolveSamePitchOverlaps(in, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []model.Note{
		{Onset: 0, Track: 0, Pitch: 60, Dur: 1},
		{Onset: 1, Track: 0, Pitch: 60, Dur: 1},
	}, res.Notes())
	assert.False(t, table.HasSamePitchOverlap(res.Notes()))
	// input untouched
	assert.Equal(t, 2.0, in[0].Dur)
}

func TestResolveLeavesOtherPitchesAlone(t *testing.T) {
	in := []model.Note{
		{Onset: 0, Pitch: 60, Dur: 2},
		{Onset: 1, Pitch: 61, Dur: 1},
	}
	res, err := ResolveSamePitchOverlaps(in, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, in, res.Notes())
}

func TestResolveSpansSeveralNotes(t *testing.T) {
	in := []model.Note{
		{Onset: 3, Pitch: 60, Dur: 1},
		{Onset: 0, Pitch: 60, Dur: 10},
		{Onset: 2, Pitch: 60, Dur: 4},
	}
	res, err := ResolveSamePitchOverlaps(in, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []model.Note{
		{Onset: 0, Pitch: 60, Dur: 2},
		{Onset: 2, Pitch: 60, Dur: 1},
		{Onset: 3, Pitch: 60, Dur: 1},
	}, res.Notes())
}

func TestResolveRefusesZeroDuration(t *testing.T) {
	in := []model.Note{
		{Onset: 1, Pitch: 60, Dur: 1},
		{Onset: 1, Pitch: 60, Dur: 2},
	}
	_, err := ResolveSamePitchOverlaps(in, DefaultOptions())
	var durErr *MinDurationError
	require.True(t, errors.As(err, &durErr))
	assert.Equal(t, 0.0, durErr.Truncated)
}

func TestResolveRespectsMinDuration(t *testing.T) {
	in := []model.Note{
		{Onset: 0, Pitch: 60, Dur: 2},
		{Onset: 0.25, Pitch: 60, Dur: 1},
	}
	opts := DefaultOptions()
	opts.MinDuration = 0.5
	_, err := ResolveSamePitchOverlaps(in, opts)
	var durErr *MinDurationError
	assert.True(t, errors.As(err, &durErr))
}

func TestForceMonophonic(t *testing.T) {
	poly := []model.Note{
		{Onset: 0, Track: 0, Pitch: 60, Dur: 2}, {Onset: 1, Track: 0, Pitch: 61, Dur: 1},
		{Onset: 2, Track: 0, Pitch: 62, Dur: 1}, {Onset: 3, Track: 0, Pitch: 63, Dur: 1},
		{Onset: 0, Track: 1, Pitch: 70, Dur: 4}, {Onset: 1, Track: 1, Pitch: 71, Dur: 1},
		{Onset: 2, Track: 1, Pitch: 72, Dur: 1}, {Onset: 3, Track: 1, Pitch: 73, Dur: 1},
		{Onset: 0, Track: 2, Pitch: 80, Dur: 3}, {Onset: 1, Track: 2, Pitch: 81, Dur: 1},
		{Onset: 2, Track: 2, Pitch: 82, Dur: 1}, {Onset: 3, Track: 2, Pitch: 83, Dur: 1},
	}
	mono := make([]model.Note, len(poly))
	for i, n := range poly {
		n.Dur = 1
		mono[i] = n
	}
	in, err := table.Sorted(poly, table.DefaultConfig())
	require.NoError(t, err)
	want, err := table.Sorted(mono, table.DefaultConfig())
	require.NoError(t, err)

	res, diags, err := ForceMonophonic(in, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, want.Notes(), res.Notes())
}

func TestForceMonophonicSharedOnsetKeepsHighestPitch(t *testing.T) {
	in, err := table.Sorted([]model.Note{
		{Onset: 0, Pitch: 64, Dur: 2},
		{Onset: 0, Pitch: 60, Dur: 4},
		{Onset: 0, Track: 1, Pitch: 40, Dur: 1},
		{Onset: 1, Pitch: 67, Dur: 1},
	}, table.DefaultConfig())
	require.NoError(t, err)

	res, diags, err := ForceMonophonic(in, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []model.Note{
		{Onset: 0, Pitch: 64, Dur: 1},
		{Onset: 0, Track: 1, Pitch: 40, Dur: 1},
		{Onset: 1, Pitch: 67, Dur: 1},
	}, res.Notes())
	require.Len(t, diags, 1)
	assert.Equal(t, model.DiagDroppedNote, diags[0].Kind)
	assert.Equal(t, 60, diags[0].Pitch)
}

func randomNotes(r *rand.Rand, n int) []model.Note {
	res := make([]model.Note, n)
	for i := range res {
		res[i] = model.Note{
			Onset: float64(r.Intn(40)) / 4,
			Track: r.Intn(3),
			Pitch: 60 + r.Intn(4),
			Dur:   float64(1+r.Intn(12)) / 4,
		}
	}
	return res
}

func TestResolveAndForceMonophonicProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		notes := randomNotes(r, 1+r.Intn(30))

		res, err := ResolveSamePitchOverlaps(notes, DefaultOptions())
		var durErr *MinDurationError
		if errors.As(err, &durErr) {
			// duplicated onsets on one pitch cannot be resolved
			continue
		}
		require.NoError(t, err)
		assert.False(t, table.HasSamePitchOverlap(res.Notes()))

		mono, _, err := ForceMonophonic(res, DefaultOptions())
		require.NoError(t, err)
		for track, ok := range table.IsMonophonic(mono) {
			assert.True(t, ok, "track %d", track)
		}
	}
}
