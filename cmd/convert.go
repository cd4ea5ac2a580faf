package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jsphweid/scoretensor/file"
	"github.com/jsphweid/scoretensor/midi"
	"github.com/spf13/cobra"
)

var convertSecondsPerUnit float64

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().Float64Var(&convertSecondsPerUnit, "seconds-per-unit", 0.001, "seconds per table time unit when writing MIDI")
}

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Converts between note CSV and MIDI, by file extension",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return convert(args[0], args[1])
	},
}

func convert(in, out string) error {
	c, diags, err := loadComposition(in, false)
	if err != nil {
		return err
	}
	for _, d := range diags {
		logger.Sugar().Warnf("%s: %v", in, d)
	}

	switch strings.ToLower(filepath.Ext(out)) {
	case ".csv":
		return file.WriteNoteCSVFile(out, c.Notes())
	case ".mid", ".midi":
		opts := midi.DefaultOptions()
		opts.SecondsPerUnit = convertSecondsPerUnit
		return midi.WriteMidiFile(out, c.Notes(), opts)
	}
	return fmt.Errorf("cannot write %s: use a .csv or .mid extension", out)
}
