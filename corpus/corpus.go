// Package corpus encodes whole directories of note files concurrently and
// stores the results as chunks.
package corpus

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/scoretensor/chunk"
	"github.com/jsphweid/scoretensor/command"
	"github.com/jsphweid/scoretensor/composition"
	"github.com/jsphweid/scoretensor/file"
	"github.com/jsphweid/scoretensor/midi"
	"github.com/jsphweid/scoretensor/model"
	"github.com/jsphweid/scoretensor/overlap"
	"github.com/jsphweid/scoretensor/table"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const maxGoroutines = 10

var log = zap.NewNop()

func SetLogger(l *zap.Logger) {
	log = l.Named("corpus")
}

// ErrFmtNotSupported is returned for files that are neither CSV nor MIDI.
var ErrFmtNotSupported = errors.New("format not supported")

type Options struct {
	Table table.Config
	// quanta per time unit for the pianoroll; 0 skips the pianoroll
	Divisions int
	Pitches   model.PitchRange
	Command   command.Config
	// drop polyphony within each track before encoding
	Monophonic bool
	Workers    int
	// stored keys are relative to Root when set
	Root string
}

func DefaultOptions() Options {
	return Options{
		Table:   table.DefaultConfig(),
		Pitches: model.FullPitchRange(),
		Command: command.DefaultConfig(),
		Workers: maxGoroutines,
	}
}

type Result struct {
	Path    string
	Encoded *model.EncodedComposition
	Err     error
}

// LoadTable reads a CSV or MIDI file. MIDI onsets and durations are in
// milliseconds.
func LoadTable(path string, cfg table.Config) (*table.Table, []model.Diagnostic, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		t, err := file.ReadNoteCSVFile(path, file.ReadOptions{Table: cfg})
		return t, nil, err
	case ".mid", ".midi":
		s, err := midi.ReadMidiFile(path)
		if err != nil {
			return nil, nil, err
		}
		notes, diags := midi.ToNotes(s)
		t, err := overlap.ResolveSamePitchOverlaps(notes, overlap.Options{Table: cfg})
		if err != nil {
			return nil, nil, errors.Wrapf(err, "midi file %s", path)
		}
		return t, diags, nil
	}
	return nil, nil, errors.Wrapf(ErrFmtNotSupported, "%s", path)
}

func EncodeFile(path string, opts Options) *Result {
	out := &Result{Path: path}

	t, diags, err := LoadTable(path, opts.Table)
	if err != nil {
		out.Err = err
		return out
	}
	if opts.Monophonic {
		var dropped []model.Diagnostic
		t, dropped, err = overlap.ForceMonophonic(t, overlap.Options{Table: opts.Table})
		if err != nil {
			out.Err = err
			return out
		}
		diags = append(diags, dropped...)
	}

	key := path
	if opts.Root != "" {
		if rel, err := filepath.Rel(opts.Root, path); err == nil {
			key = rel
		}
	}

	c := composition.FromTable(t, key)
	enc := &model.EncodedComposition{
		ID:         c.ID,
		Path:       key,
		NumNotes:   t.Len(),
		Monophonic: c.MonophonicTracks(),
	}

	stream, _, err := c.EventStream(opts.Command)
	if err != nil {
		out.Err = errors.Wrap(err, "event stream")
		return out
	}
	enc.Tokens = stream.Tokens
	enc.StartFrame = stream.StartFrame

	if opts.Divisions > 0 {
		roll, _, err := c.Pianoroll(opts.Divisions, opts.Pitches)
		if err != nil {
			out.Err = errors.Wrap(err, "pianoroll")
			return out
		}
		enc.Pianoroll = roll.Data
		enc.Shape = roll.Shape()
	}

	enc.Diagnostics = append(diags, c.Diagnostics()...)
	out.Encoded = enc
	return out
}

func encodeWorker(ctx context.Context, paths <-chan string, opts Options) (<-chan *Result, <-chan struct{}) {
	out := make(chan *Result)
	done := make(chan struct{}, 1)

	cntRoutines := opts.Workers
	if cntRoutines <= 0 {
		cntRoutines = maxGoroutines
	}

	go func() {
		var wg sync.WaitGroup
		goroutines := make(chan struct{}, cntRoutines)

	loop:
		for path := range paths {
			select {
			case goroutines <- struct{}{}:
			case <-ctx.Done():
				log.Debug("encodeWorker context done")
				break loop
			}
			wg.Add(1)
			go func(ctx context.Context, path string, goroutines <-chan struct{}, out chan<- *Result, wg *sync.WaitGroup) {
				defer wg.Done()

				select {
				case out <- EncodeFile(path, opts):
				case <-ctx.Done():
					log.Debug("encodeFile context done", zap.String("path", path))
				}
				<-goroutines
			}(ctx, path, goroutines, out, &wg)
		}

		wg.Wait()
		close(goroutines)
		close(out)

		done <- struct{}{}
		close(done)
	}()

	return out, done
}

type Stats struct {
	Processed   int
	Failed      int
	Diagnostics int
}

// Run encodes every path into w. Files that fail to load or encode are
// logged and counted, not fatal.
func Run(parent context.Context, paths []string, opts Options, w *chunk.Writer) (Stats, error) {
	var stats Stats
	ctx, cancel := context.WithCancel(parent)

	in := make(chan string)
	go func() {
		defer close(in)
		for _, p := range paths {
			select {
			case in <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	results, done := encodeWorker(ctx, in, opts)
	defer func() {
		cancel()
		<-done // wait encodeWorker closed
	}()

	progress := debounce.New(time.Second)
	for result := range results {
		stats.Processed++
		if result.Err != nil {
			stats.Failed++
			log.Warn("skipping file", zap.String("path", result.Path), zap.Error(result.Err))
			continue
		}

		stats.Diagnostics += len(result.Encoded.Diagnostics)
		if err := w.Add(*result.Encoded); err != nil {
			return stats, err
		}

		processed := stats.Processed
		progress(func() {
			log.Info("progress", zap.Int("processed", processed), zap.Int("total", len(paths)))
		})
	}

	return stats, parent.Err()
}
