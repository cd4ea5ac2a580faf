// Package midi converts standard MIDI files to note tables and back.
package midi

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/jsphweid/scoretensor/model"
	"github.com/jsphweid/scoretensor/table"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ticksPerQuarter at writeBPM makes one tick last exactly one millisecond.
const (
	ticksPerQuarter = 500
	writeBPM        = 120
)

func ReadMidiFile(filepath string) (s *smf.SMF, e error) {
	// gomidi panics on some malformed files
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s, e = nil, fmt.Errorf("parsing midi file %s: %v", filepath, r)
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading midi file")
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, errors.Wrap(err, "error parsing midi file")
	}
	return res, nil
}

type trackKey struct {
	track int
	key   uint8
}

// ToNotes pairs note starts and ends per track and key. Onsets and durations
// are in milliseconds and Track is the index of the SMF track.
func ToNotes(s *smf.SMF) ([]model.Note, []model.Diagnostic) {
	var notes []model.Note
	var diags []model.Diagnostic

	started := make(map[trackKey]float64)
	end := func(k trackKey, at float64) {
		n := model.Note{Onset: started[k], Track: k.track, Pitch: int(k.key), Dur: at - started[k]}
		delete(started, k)
		if n.Dur <= 0 {
			diags = append(diags, model.NoteDiagnostic(model.DiagSkippedNote, n, "note ends where it starts"))
			return
		}
		notes = append(notes, n)
	}

	for i, track := range s.Tracks {
		var absTicks int64
		for _, ev := range track {
			absTicks += int64(ev.Delta)
			msg := midi.Message(ev.Message)
			var ch, key, vel uint8
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				at := float64(s.TimeAt(absTicks)) / 1000
				k := trackKey{i, key}
				// a retrigger ends the sounding note
				if _, ok := started[k]; ok {
					end(k, at)
				}
				started[k] = at
			case msg.GetNoteEnd(&ch, &key):
				k := trackKey{i, key}
				if _, ok := started[k]; ok {
					end(k, float64(s.TimeAt(absTicks))/1000)
				}
			}
		}
	}

	for k, onset := range started {
		n := model.Note{Onset: onset, Track: k.track, Pitch: int(k.key)}
		diags = append(diags, model.NoteDiagnostic(model.DiagUnterminatedNote, n, "note never ends"))
	}
	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Onset < diags[j].Onset
	})
	return notes, diags
}

// ReadMidiTable reads a MIDI file straight into a validated table.
func ReadMidiTable(path string, cfg table.Config) (*table.Table, []model.Diagnostic, error) {
	s, err := ReadMidiFile(path)
	if err != nil {
		return nil, nil, err
	}
	notes, diags := ToNotes(s)
	t, err := table.Sorted(notes, cfg)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "midi file %s", path)
	}
	return t, diags, nil
}

type Options struct {
	// how long one table time unit lasts
	SecondsPerUnit float64
	Velocity       uint8
}

func DefaultOptions() Options {
	return Options{SecondsPerUnit: 0.001, Velocity: 100}
}

type event struct {
	tick  uint32
	isOff bool
	key   uint8
}

// FromTable writes one SMF track per table track, in ascending track order,
// on channel track%16.
func FromTable(t *table.Table, opts Options) (*smf.SMF, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	// velocity 0 would read back as a note end
	velocity := opts.Velocity
	if velocity == 0 {
		velocity = DefaultOptions().Velocity
	}

	toTick := func(x float64) uint32 {
		return uint32(math.Round(x * opts.SecondsPerUnit * 1000))
	}

	byTrack := make(map[int][]event)
	for _, n := range t.Notes() {
		byTrack[n.Track] = append(byTrack[n.Track],
			event{toTick(n.Onset), false, uint8(n.Pitch)},
			event{toTick(n.Offset()), true, uint8(n.Pitch)})
	}

	tracks := t.Tracks()
	if len(tracks) == 0 {
		var tr smf.Track
		tr.Add(0, smf.MetaTempo(writeBPM))
		tr.Close(0)
		return s, errors.Wrap(s.Add(tr), "adding track")
	}

	for i, id := range tracks {
		events := byTrack[id]
		sort.SliceStable(events, func(a, b int) bool {
			if events[a].tick != events[b].tick {
				return events[a].tick < events[b].tick
			}
			return events[a].isOff && !events[b].isOff
		})

		var tr smf.Track
		if i == 0 {
			tr.Add(0, smf.MetaTempo(writeBPM))
		}
		ch := id % 16
		if ch < 0 {
			ch += 16
		}
		var last uint32
		for _, ev := range events {
			if ev.isOff {
				tr.Add(ev.tick-last, midi.NoteOff(uint8(ch), ev.key))
			} else {
				tr.Add(ev.tick-last, midi.NoteOn(uint8(ch), ev.key, velocity))
			}
			last = ev.tick
		}
		tr.Close(0)
		if err := s.Add(tr); err != nil {
			return nil, errors.Wrap(err, "adding track")
		}
	}
	return s, nil
}

func WriteMidi(w io.Writer, t *table.Table, opts Options) error {
	s, err := FromTable(t, opts)
	if err != nil {
		return err
	}
	_, err = s.WriteTo(w)
	return errors.Wrap(err, "writing midi")
}

func WriteMidiFile(path string, t *table.Table, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create midi file")
	}
	if err := WriteMidi(f, t, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
