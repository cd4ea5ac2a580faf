package cmd

import (
	"github.com/jsphweid/scoretensor/command"
	"github.com/jsphweid/scoretensor/constants"
	"github.com/jsphweid/scoretensor/model"
	"github.com/spf13/pflag"
)

// encodeFlags are shared by every command that encodes.
type encodeFlags struct {
	divisions   int
	frameLength float64
	maxShift    float64
	monophonic  bool
	pianoRange  bool
}

func (f *encodeFlags) register(fs *pflag.FlagSet, divisions int) {
	fs.IntVar(&f.divisions, "divisions", divisions, "pianoroll quanta per time unit")
	fs.Float64Var(&f.frameLength, "frame-length", constants.DefaultFrameLength, "command stream frame length in time units")
	fs.Float64Var(&f.maxShift, "max-shift", constants.DefaultMaxShift, "longest single shift in time units")
	fs.BoolVar(&f.monophonic, "monophonic", false, "drop polyphony within each track first")
	fs.BoolVar(&f.pianoRange, "piano-range", false, "restrict pianorolls to the 88 piano keys")
}

func (f *encodeFlags) pitches() model.PitchRange {
	if f.pianoRange {
		return model.PitchRange{Min: constants.PianorollMinPitch, Max: constants.PianorollMaxPitch}
	}
	return model.FullPitchRange()
}

func (f *encodeFlags) command() command.Config {
	return command.Config{
		Pitches:     model.FullPitchRange(),
		FrameLength: f.frameLength,
		MaxShift:    f.maxShift,
	}
}
