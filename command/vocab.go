package command

import (
	"fmt"
	"math"

	"github.com/jsphweid/scoretensor/constants"
	"github.com/jsphweid/scoretensor/model"
)

type Kind int

const (
	NoteOn Kind = iota
	NoteOff
	Shift
	EOF
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "NOTE_ON"
	case NoteOff:
		return "NOTE_OFF"
	case Shift:
		return "SHIFT"
	default:
		return "EOF"
	}
}

type Token struct {
	Kind Kind
	// set for NoteOn and NoteOff
	Pitch int
	// frames advanced, set for Shift
	Frames int
}

func (t Token) String() string {
	switch t.Kind {
	case NoteOn, NoteOff:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Pitch)
	case Shift:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Frames)
	default:
		return t.Kind.String()
	}
}

type Config struct {
	Pitches model.PitchRange
	// length of one frame, in table time units
	FrameLength float64
	// longest single shift, in table time units; a multiple of FrameLength
	MaxShift float64
}

func DefaultConfig() Config {
	return Config{
		Pitches:     model.PitchRange{Min: constants.MinPitch, Max: constants.MaxPitch},
		FrameLength: constants.DefaultFrameLength,
		MaxShift:    constants.DefaultMaxShift,
	}
}

type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid command encoding config: " + e.Reason
}

func (c Config) Vocab() (Vocab, error) {
	switch {
	case c.FrameLength <= 0:
		return Vocab{}, &ConfigError{"frame length must be positive"}
	case c.MaxShift <= 0:
		return Vocab{}, &ConfigError{"max shift must be positive"}
	case c.Pitches.Max < c.Pitches.Min:
		return Vocab{}, &ConfigError{"max pitch must be >= min pitch"}
	}
	shifts := c.MaxShift / c.FrameLength
	if math.Abs(shifts-math.Round(shifts)) > 1e-9 || math.Round(shifts) < 1 {
		return Vocab{}, &ConfigError{"max shift must be divisible by frame length"}
	}
	return Vocab{Pitches: c.Pitches, NumShifts: int(math.Round(shifts))}, nil
}

// Vocab lays token ids out as NOTE_ON per pitch, NOTE_OFF per pitch,
// SHIFT(1..NumShifts), then a single EOF.
type Vocab struct {
	Pitches   model.PitchRange
	NumShifts int
}

func (v Vocab) Size() int {
	return 2*v.Pitches.Len() + v.NumShifts + 1
}

func (v Vocab) NoteOn(pitch int) int {
	return pitch - v.Pitches.Min
}

func (v Vocab) NoteOff(pitch int) int {
	return v.Pitches.Len() + pitch - v.Pitches.Min
}

func (v Vocab) Shift(frames int) int {
	return 2*v.Pitches.Len() + frames - 1
}

func (v Vocab) EOF() int {
	return v.Size() - 1
}

func (v Vocab) Token(id int) (Token, error) {
	n := v.Pitches.Len()
	switch {
	case id < 0 || id >= v.Size():
		return Token{}, fmt.Errorf("token id %d outside vocabulary of %d", id, v.Size())
	case id < n:
		return Token{Kind: NoteOn, Pitch: v.Pitches.Min + id}, nil
	case id < 2*n:
		return Token{Kind: NoteOff, Pitch: v.Pitches.Min + id - n}, nil
	case id < 2*n+v.NumShifts:
		return Token{Kind: Shift, Frames: id - 2*n + 1}, nil
	default:
		return Token{Kind: EOF}, nil
	}
}

func (v Vocab) OneHot(ids []int) ([][]float32, error) {
	res := make([][]float32, len(ids))
	for i, id := range ids {
		if id < 0 || id >= v.Size() {
			return nil, fmt.Errorf("token %d: id %d outside vocabulary of %d", i, id, v.Size())
		}
		res[i] = make([]float32, v.Size())
		res[i][id] = 1
	}
	return res, nil
}

// FromOneHot takes the argmax of each vector, so model scores decode too.
func (v Vocab) FromOneHot(vecs [][]float32) ([]int, error) {
	ids := make([]int, len(vecs))
	for i, vec := range vecs {
		if len(vec) != v.Size() {
			return nil, fmt.Errorf("vector %d has width %d, vocabulary has %d", i, len(vec), v.Size())
		}
		best := 0
		for j, x := range vec {
			if x > vec[best] {
				best = j
			}
		}
		ids[i] = best
	}
	return ids, nil
}
