package cmd

import (
	"os"

	"github.com/jsphweid/scoretensor/constants"
	"github.com/jsphweid/scoretensor/synth"
	"github.com/spf13/cobra"
)

var (
	synthOut            string
	synthRate           int
	synthSecondsPerUnit float64
	synthDivisions      int
)

func init() {
	rootCmd.AddCommand(synthCmd)
	synthCmd.Flags().StringVarP(&synthOut, "out", "o", "out.wav", "wav file to write")
	synthCmd.Flags().IntVar(&synthRate, "sample-rate", constants.DefaultSampleRate, "samples per second")
	synthCmd.Flags().Float64Var(&synthSecondsPerUnit, "seconds-per-unit", 0.001, "seconds per table time unit (0.001 for MIDI)")
	synthCmd.Flags().IntVar(&synthDivisions, "divisions", 0, "quantize first, with this many quanta per time unit")
}

var synthCmd = &cobra.Command{
	Use:   "synth <file>",
	Short: "Renders a CSV or MIDI file to a sine wave wav file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := loadComposition(args[0], false)
		if err != nil {
			return err
		}

		opts := synth.DefaultOptions()
		opts.SampleRate = synthRate
		opts.SecondsPerUnit = synthSecondsPerUnit

		samples := c.Synthesize(opts)
		if synthDivisions > 0 {
			q, err := c.Quantized(synthDivisions)
			if err != nil {
				return err
			}
			if samples, err = synth.RenderQuantized(q, opts); err != nil {
				return err
			}
		}

		f, err := os.Create(synthOut)
		if err != nil {
			return err
		}
		if err := synth.WriteWAV(f, samples, synthRate); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}
