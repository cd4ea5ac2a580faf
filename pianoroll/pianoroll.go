// Package pianoroll encodes quantized note tables as a dense
// [track, channel, pitch, quantum] grid and decodes such grids back.
package pianoroll

import (
	"fmt"
	"strings"

	"github.com/jsphweid/scoretensor/model"
	"github.com/jsphweid/scoretensor/quantize"
	"github.com/jsphweid/scoretensor/table"
	"golang.org/x/exp/slices"
)

const (
	Sustain = 0
	Onset   = 1

	numChannels = 2
)

type Options struct {
	Pitches model.PitchRange
	// 0 means just long enough for the last note
	NumQuanta int
	// track ids laid out along the first axis; nil means every track in the table
	Tracks []int
}

func DefaultOptions() Options {
	return Options{Pitches: model.FullPitchRange()}
}

type Pianoroll struct {
	Data      []uint8
	Tracks    []int
	Pitches   model.PitchRange
	NumQuanta int
	Divisions float64
}

func newPianoroll(tracks []int, pitches model.PitchRange, numQuanta int, divisions float64) *Pianoroll {
	p := &Pianoroll{
		Tracks:    tracks,
		Pitches:   pitches,
		NumQuanta: numQuanta,
		Divisions: divisions,
	}
	p.Data = make([]uint8, p.size())
	return p
}

func (p *Pianoroll) Shape() [4]int {
	return [4]int{len(p.Tracks), numChannels, p.Pitches.Len(), p.NumQuanta}
}

func (p *Pianoroll) size() int {
	s := p.Shape()
	return s[0] * s[1] * s[2] * s[3]
}

// index takes a track axis position and an absolute pitch.
func (p *Pianoroll) index(track, channel, pitch, quantum int) int {
	s := p.Shape()
	return ((track*s[1]+channel)*s[2]+pitch-p.Pitches.Min)*s[3] + quantum
}

func (p *Pianoroll) At(track, channel, pitch, quantum int) uint8 {
	return p.Data[p.index(track, channel, pitch, quantum)]
}

func (p *Pianoroll) Set(track, channel, pitch, quantum int, v uint8) {
	p.Data[p.index(track, channel, pitch, quantum)] = v
}

// Encode marks, for each note, the onset channel at its first quantum and the
// sustain channel over [onset, onset+dur).
func Encode(q *quantize.Table, opts Options) (*Pianoroll, []model.Diagnostic, error) {
	tracks := opts.Tracks
	if tracks == nil {
		tracks = q.Grid().Tracks()
	}
	numQuanta := opts.NumQuanta
	if numQuanta == 0 {
		numQuanta = q.NumQuanta()
	}

	trackIdx := make(map[int]int, len(tracks))
	for i, t := range tracks {
		trackIdx[t] = i
	}

	var badPitches []int
	for _, n := range q.Notes() {
		if !opts.Pitches.Contains(n.Pitch) {
			badPitches = append(badPitches, n.Pitch)
		}
	}
	if len(badPitches) > 0 {
		slices.Sort(badPitches)
		return nil, nil, &table.PitchRangeError{Pitches: slices.Compact(badPitches), Range: opts.Pitches}
	}

	p := newPianoroll(slices.Clone(tracks), opts.Pitches, numQuanta, q.Divisions())
	var diags []model.Diagnostic
	for _, n := range q.Notes() {
		ti, ok := trackIdx[n.Track]
		if !ok {
			diags = append(diags, model.NoteDiagnostic(model.DiagUnknownTrack, n, "track not laid out in the pianoroll"))
			continue
		}
		onset, offset := int(n.Onset), int(n.Offset())
		if offset > numQuanta {
			return nil, nil, fmt.Errorf("note %v ends at quantum %d, past the pianoroll length %d", n, offset, numQuanta)
		}
		p.Set(ti, Onset, n.Pitch, onset, 1)
		for t := onset; t < offset; t++ {
			p.Set(ti, Sustain, n.Pitch, t, 1)
		}
	}
	return p, diags, nil
}

type InconsistentTensorError struct {
	Track   int
	Pitch   int
	Quantum int
	Reason  string
}

func (e *InconsistentTensorError) Error() string {
	return fmt.Sprintf("inconsistent pianoroll at track %d pitch %d quantum %d: %s", e.Track, e.Pitch, e.Quantum, e.Reason)
}

// Decode turns every run of sustain into notes, starting a new note at each
// onset mark inside the run so back-to-back notes of one pitch come apart.
// The onset channel must be set where a run starts and only where sustain is.
func Decode(p *Pianoroll) (*quantize.Table, error) {
	if len(p.Data) != p.size() {
		return nil, fmt.Errorf("pianoroll data has %d cells, shape %v needs %d", len(p.Data), p.Shape(), p.size())
	}

	var notes []model.Note
	for ti, track := range p.Tracks {
		for pitch := p.Pitches.Min; pitch <= p.Pitches.Max; pitch++ {
			start := -1
			for t := 0; t <= p.NumQuanta; t++ {
				sounding := t < p.NumQuanta && p.At(ti, Sustain, pitch, t) != 0
				marked := t < p.NumQuanta && p.At(ti, Onset, pitch, t) != 0
				switch {
				case sounding && start < 0:
					if !marked {
						return nil, &InconsistentTensorError{Track: track, Pitch: pitch, Quantum: t, Reason: "sustain starts without an onset"}
					}
					start = t
				case sounding && marked:
					notes = append(notes, model.Note{Onset: float64(start), Track: track, Pitch: pitch, Dur: float64(t - start)})
					start = t
				case !sounding && marked:
					return nil, &InconsistentTensorError{Track: track, Pitch: pitch, Quantum: t, Reason: "onset without sustain"}
				case !sounding && start >= 0:
					notes = append(notes, model.Note{Onset: float64(start), Track: track, Pitch: pitch, Dur: float64(t - start)})
					start = -1
				}
			}
		}
	}

	table.SortNotes(notes)
	return quantize.New(notes, p.Divisions, table.Config{Pitches: p.Pitches})
}

// String draws each track with the highest pitch on top: '#' onset, '=' sustain.
func (p *Pianoroll) String() string {
	var sb strings.Builder
	for ti, track := range p.Tracks {
		fmt.Fprintf(&sb, "track %d\n", track)
		for pitch := p.Pitches.Max; pitch >= p.Pitches.Min; pitch-- {
			var row strings.Builder
			active := false
			for t := 0; t < p.NumQuanta; t++ {
				switch {
				case p.At(ti, Onset, pitch, t) != 0:
					row.WriteByte('#')
					active = true
				case p.At(ti, Sustain, pitch, t) != 0:
					row.WriteByte('=')
					active = true
				default:
					row.WriteByte('.')
				}
			}
			if active {
				fmt.Fprintf(&sb, "%4d %s\n", pitch, row.String())
			}
		}
	}
	return sb.String()
}
