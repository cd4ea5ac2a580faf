// Package command encodes note tables as a stream of NOTE_ON, NOTE_OFF,
// SHIFT and EOF tokens and decodes such streams back.
package command

import (
	"fmt"
	"math"
	"sort"

	"github.com/jsphweid/scoretensor/model"
	"github.com/jsphweid/scoretensor/quantize"
	"github.com/jsphweid/scoretensor/table"
	"golang.org/x/exp/slices"
)

// offsets sort ahead of onsets on the same frame
type actionKind int

const (
	offsetAction actionKind = iota
	onsetAction
)

type action struct {
	frame int
	kind  actionKind
	note  model.Note
}

type Stream struct {
	Tokens []int
	// frame of the first action; decoding starts counting from here
	StartFrame int
}

func (s *Stream) OneHot(v Vocab) ([][]float32, error) {
	return v.OneHot(s.Tokens)
}

func frameOf(t, frameLength float64) int {
	return int(math.RoundToEven(t / frameLength))
}

// Encode ignores tracks. Notes shorter than half a frame are skipped and
// reported as diagnostics. A note starting while its pitch already sounds
// from another track is merged into that sounding span: it emits no tokens,
// the span lasts until the last of the merged notes ends, and a
// DiagMergedNote is reported for it.
func Encode(t *table.Table, cfg Config) (*Stream, []model.Diagnostic, error) {
	v, err := cfg.Vocab()
	if err != nil {
		return nil, nil, err
	}

	var badPitches []int
	var actions []action
	var diags []model.Diagnostic
	for _, n := range t.Notes() {
		if !cfg.Pitches.Contains(n.Pitch) {
			badPitches = append(badPitches, n.Pitch)
			continue
		}
		on, off := frameOf(n.Onset, cfg.FrameLength), frameOf(n.Offset(), cfg.FrameLength)
		if on == off {
			diags = append(diags, model.NoteDiagnostic(model.DiagSkippedNote, n,
				fmt.Sprintf("onset and offset both fall on frame %d; try a smaller frame length than %v", on, cfg.FrameLength)))
			continue
		}
		actions = append(actions, action{on, onsetAction, n}, action{off, offsetAction, n})
	}
	if len(badPitches) > 0 {
		slices.Sort(badPitches)
		return nil, nil, &table.PitchRangeError{Pitches: slices.Compact(badPitches), Range: cfg.Pitches}
	}

	sort.Slice(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		if a.frame != b.frame {
			return a.frame < b.frame
		}
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		if a.note.Pitch != b.note.Pitch {
			return a.note.Pitch < b.note.Pitch
		}
		return a.note.Track < b.note.Track
	})

	s := &Stream{}
	if len(actions) == 0 {
		s.Tokens = []int{v.EOF()}
		return s, diags, nil
	}

	current := actions[0].frame
	s.StartFrame = current
	// notes currently sounding per pitch
	sounding := make(map[int]int)
	for _, a := range actions {
		for a.frame > current {
			diff := a.frame - current
			if diff > v.NumShifts {
				diff = v.NumShifts
			}
			s.Tokens = append(s.Tokens, v.Shift(diff))
			current += diff
		}

		pitch := a.note.Pitch
		if a.kind == onsetAction {
			sounding[pitch]++
			if sounding[pitch] > 1 {
				diags = append(diags, model.NoteDiagnostic(model.DiagMergedNote, a.note,
					fmt.Sprintf("pitch %d already sounds at frame %d; merged into the sounding note", pitch, a.frame)))
				continue
			}
			s.Tokens = append(s.Tokens, v.NoteOn(pitch))
		} else {
			sounding[pitch]--
			if sounding[pitch] > 0 {
				continue
			}
			delete(sounding, pitch)
			s.Tokens = append(s.Tokens, v.NoteOff(pitch))
		}
	}
	s.Tokens = append(s.Tokens, v.EOF())
	return s, diags, nil
}

type MalformedStreamError struct {
	Position int
	Frame    int
	Reason   string
}

func (e *MalformedStreamError) Error() string {
	return fmt.Sprintf("malformed stream at token %d (frame %d): %s", e.Position, e.Frame, e.Reason)
}

// Decode replays a stream into a table whose quanta are frames. All notes
// land on track 0.
func Decode(s *Stream, cfg Config) (*quantize.Table, error) {
	v, err := cfg.Vocab()
	if err != nil {
		return nil, err
	}

	frame := s.StartFrame
	open := make(map[int]int)
	var notes []model.Note
	ended := false
	for i, id := range s.Tokens {
		if ended {
			return nil, &MalformedStreamError{Position: i, Frame: frame, Reason: "token after EOF"}
		}
		tok, err := v.Token(id)
		if err != nil {
			return nil, &MalformedStreamError{Position: i, Frame: frame, Reason: err.Error()}
		}

		switch tok.Kind {
		case Shift:
			frame += tok.Frames
		case NoteOn:
			if _, ok := open[tok.Pitch]; ok {
				return nil, &MalformedStreamError{Position: i, Frame: frame, Reason: fmt.Sprintf("NOTE_ON for pitch %d which is already sounding", tok.Pitch)}
			}
			open[tok.Pitch] = frame
		case NoteOff:
			start, ok := open[tok.Pitch]
			if !ok {
				return nil, &MalformedStreamError{Position: i, Frame: frame, Reason: fmt.Sprintf("NOTE_OFF for pitch %d which is not sounding", tok.Pitch)}
			}
			if start == frame {
				return nil, &MalformedStreamError{Position: i, Frame: frame, Reason: fmt.Sprintf("pitch %d ends on the frame it starts", tok.Pitch)}
			}
			notes = append(notes, model.Note{Onset: float64(start), Pitch: tok.Pitch, Dur: float64(frame - start)})
			delete(open, tok.Pitch)
		case EOF:
			ended = true
		}
	}

	if !ended {
		return nil, &MalformedStreamError{Position: len(s.Tokens), Frame: frame, Reason: "missing EOF"}
	}
	if len(open) > 0 {
		var pitches []int
		for p := range open {
			pitches = append(pitches, p)
		}
		slices.Sort(pitches)
		return nil, &MalformedStreamError{Position: len(s.Tokens) - 1, Frame: frame, Reason: fmt.Sprintf("pitches %v still sounding at EOF", pitches)}
	}

	table.SortNotes(notes)
	return quantize.New(notes, 1/cfg.FrameLength, table.Config{Pitches: cfg.Pitches})
}

// Strings renders token ids for inspection.
func Strings(v Vocab, ids []int) []string {
	res := make([]string, len(ids))
	for i, id := range ids {
		tok, err := v.Token(id)
		if err != nil {
			res[i] = fmt.Sprintf("?%d", id)
			continue
		}
		res[i] = tok.String()
	}
	return res
}
