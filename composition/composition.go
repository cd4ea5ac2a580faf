// Package composition ties one validated note table to its lazily derived
// quantized table, pianorolls and command streams.
package composition

import (
	"github.com/google/uuid"
	"github.com/jsphweid/scoretensor/command"
	"github.com/jsphweid/scoretensor/file"
	"github.com/jsphweid/scoretensor/model"
	"github.com/jsphweid/scoretensor/pianoroll"
	"github.com/jsphweid/scoretensor/quantize"
	"github.com/jsphweid/scoretensor/synth"
	"github.com/jsphweid/scoretensor/table"
)

type Options struct {
	Table table.Config
	// require notes to arrive in canonical order instead of sorting them
	NoSort bool
	Name   string
}

func DefaultOptions() Options {
	return Options{Table: table.DefaultConfig()}
}

type pianorollKey struct {
	divisions int
	pitches   model.PitchRange
}

type pianorollResult struct {
	roll  *pianoroll.Pianoroll
	diags []model.Diagnostic
}

type streamResult struct {
	stream *command.Stream
	diags  []model.Diagnostic
}

// Composition memoizes every derived artifact per parameter set. It is not
// safe for concurrent use; give each goroutine its own.
type Composition struct {
	ID   string
	Name string

	notes      *table.Table
	quantized  map[int]*quantize.Table
	pianorolls map[pianorollKey]pianorollResult
	streams    map[command.Config]streamResult
}

func New(notes []model.Note, opts Options) (*Composition, error) {
	var t *table.Table
	var err error
	if opts.NoSort {
		t, err = table.New(notes, opts.Table)
	} else {
		t, err = table.Sorted(notes, opts.Table)
	}
	if err != nil {
		return nil, err
	}
	return FromTable(t, opts.Name), nil
}

func FromTable(t *table.Table, name string) *Composition {
	return &Composition{
		ID:         uuid.New().String(),
		Name:       name,
		notes:      t,
		quantized:  make(map[int]*quantize.Table),
		pianorolls: make(map[pianorollKey]pianorollResult),
		streams:    make(map[command.Config]streamResult),
	}
}

// ReadCSV loads a composition from a note CSV, named after its path.
func ReadCSV(path string, opts Options) (*Composition, error) {
	t, err := file.ReadNoteCSVFile(path, file.ReadOptions{Table: opts.Table, SkipSort: opts.NoSort})
	if err != nil {
		return nil, err
	}
	name := opts.Name
	if name == "" {
		name = path
	}
	return FromTable(t, name), nil
}

func (c *Composition) Notes() *table.Table {
	return c.notes
}

func (c *Composition) MonophonicTracks() []int {
	return table.MonophonicTracks(c.notes)
}

func (c *Composition) Quantized(divisions int) (*quantize.Table, error) {
	if q, ok := c.quantized[divisions]; ok {
		return q, nil
	}
	q, err := quantize.Quantize(c.notes, divisions)
	if err != nil {
		return nil, err
	}
	c.quantized[divisions] = q
	return q, nil
}

func (c *Composition) Pianoroll(divisions int, pitches model.PitchRange) (*pianoroll.Pianoroll, []model.Diagnostic, error) {
	key := pianorollKey{divisions, pitches}
	if res, ok := c.pianorolls[key]; ok {
		return res.roll, res.diags, nil
	}
	q, err := c.Quantized(divisions)
	if err != nil {
		return nil, nil, err
	}
	roll, diags, err := pianoroll.Encode(q, pianoroll.Options{Pitches: pitches})
	if err != nil {
		return nil, nil, err
	}
	c.pianorolls[key] = pianorollResult{roll, diags}
	return roll, diags, nil
}

func (c *Composition) EventStream(cfg command.Config) (*command.Stream, []model.Diagnostic, error) {
	if res, ok := c.streams[cfg]; ok {
		return res.stream, res.diags, nil
	}
	s, diags, err := command.Encode(c.notes, cfg)
	if err != nil {
		return nil, nil, err
	}
	c.streams[cfg] = streamResult{s, diags}
	return s, diags, nil
}

// Diagnostics collects the notices of every artifact derived so far.
func (c *Composition) Diagnostics() []model.Diagnostic {
	var res []model.Diagnostic
	for _, r := range c.pianorolls {
		res = append(res, r.diags...)
	}
	for _, r := range c.streams {
		res = append(res, r.diags...)
	}
	return res
}

func (c *Composition) Synthesize(opts synth.Options) []float32 {
	return synth.Render(c.notes, opts)
}
