// Package synth renders note tables to a plain additive sine waveform so that
// decoded output can be checked by ear.
package synth

import (
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/jsphweid/scoretensor/constants"
	"github.com/jsphweid/scoretensor/quantize"
	"github.com/jsphweid/scoretensor/table"
	"github.com/pkg/errors"
)

type Options struct {
	SampleRate int
	// how long one table time unit lasts; 0.001 for tables in milliseconds
	SecondsPerUnit float64
	// linear fade in and out per note, in seconds
	Ramp float64
}

func DefaultOptions() Options {
	return Options{
		SampleRate:     constants.DefaultSampleRate,
		SecondsPerUnit: 0.001,
		Ramp:           0.005,
	}
}

// Frequency is the equal-tempered frequency of a MIDI pitch, A4 = 440Hz.
func Frequency(pitch int) float64 {
	return 440 * math.Pow(2, float64(pitch-69)/12)
}

// Render sums one sine oscillator per note over its span. The result is
// mono and scaled down if its peak would exceed 1.
func Render(t *table.Table, opts Options) []float32 {
	rate := float64(opts.SampleRate)
	toSample := func(x float64) int {
		return int(math.Round(x * opts.SecondsPerUnit * rate))
	}

	mix := make([]float64, toSample(t.End()))
	ramp := opts.Ramp * rate
	for _, n := range t.Notes() {
		start, end := toSample(n.Onset), toSample(n.Offset())
		if end > len(mix) {
			end = len(mix)
		}
		step := 2 * math.Pi * Frequency(n.Pitch) / rate
		for i := start; i < end; i++ {
			env := 1.0
			if ramp > 0 {
				env = math.Min(env, float64(i-start)/ramp)
				env = math.Min(env, float64(end-i)/ramp)
			}
			mix[i] += math.Sin(step*float64(i-start)) * env
		}
	}

	var peak float64
	for _, s := range mix {
		peak = math.Max(peak, math.Abs(s))
	}
	scale := 1.0
	if peak > 1 {
		scale = 1 / peak
	}
	out := make([]float32, len(mix))
	for i, s := range mix {
		out[i] = float32(s * scale)
	}
	return out
}

// RenderQuantized renders a quantized table in its source time units.
func RenderQuantized(q *quantize.Table, opts Options) ([]float32, error) {
	units, err := q.Units()
	if err != nil {
		return nil, err
	}
	return Render(units, opts), nil
}

// WriteWAV stores mono samples as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(math.Round(float64(s) * math.MaxInt16))
	}
	if err := enc.Write(buf); err != nil {
		return errors.Wrap(err, "could not write wav samples")
	}
	return errors.Wrap(enc.Close(), "could not finish wav file")
}
