package synth

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/jsphweid/scoretensor/model"
	"github.com/jsphweid/scoretensor/quantize"
	"github.com/jsphweid/scoretensor/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequency(t *testing.T) {
	assert.InDelta(t, 440.0, Frequency(69), 1e-9)
	assert.InDelta(t, 880.0, Frequency(81), 1e-9)
	assert.InDelta(t, 261.6256, Frequency(60), 1e-3)
}

func TestRenderSilenceBetweenNotes(t *testing.T) {
	tbl, err := table.New([]model.Note{
		{Onset: 0, Pitch: 69, Dur: 100},
		{Onset: 200, Pitch: 69, Dur: 100},
	}, table.DefaultConfig())
	require.NoError(t, err)

	opts := Options{SampleRate: 1000, SecondsPerUnit: 0.001}
	samples := Render(tbl, opts)
	require.Len(t, samples, 300)

	for i := 100; i < 200; i++ {
		assert.Equal(t, float32(0), samples[i])
	}
	var energy float64
	for _, s := range samples[:100] {
		energy += float64(s * s)
		assert.LessOrEqual(t, math.Abs(float64(s)), 1.0)
	}
	assert.Greater(t, energy, 1.0)
}

func TestRenderNormalizesChords(t *testing.T) {
	var notes []model.Note
	for p := 60; p < 72; p++ {
		notes = append(notes, model.Note{Onset: 0, Pitch: p, Dur: 50})
	}
	tbl, err := table.New(notes, table.DefaultConfig())
	require.NoError(t, err)

	for _, s := range Render(tbl, DefaultOptions()) {
		assert.LessOrEqual(t, math.Abs(float64(s)), 1.0)
	}
}

func TestRenderQuantizedMatchesSourceLength(t *testing.T) {
	q, err := quantize.New([]model.Note{{Onset: 0, Pitch: 60, Dur: 12}}, 12, table.DefaultConfig())
	require.NoError(t, err)

	samples, err := RenderQuantized(q, Options{SampleRate: 8000, SecondsPerUnit: 0.5})
	require.NoError(t, err)
	assert.Len(t, samples, 4000)
}

func TestWriteWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	samples := []float32{0, 0.5, -0.5, 1, -1}
	require.NoError(t, WriteWAV(f, samples, 8000))
	require.NoError(t, f.Close())

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()

	dec := wav.NewDecoder(in)
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, 8000, buf.Format.SampleRate)
	assert.Equal(t, []int{0, 16384, -16384, 32767, -32767}, buf.Data)
}
