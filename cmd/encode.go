package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jsphweid/scoretensor/command"
	"github.com/jsphweid/scoretensor/composition"
	"github.com/jsphweid/scoretensor/constants"
	"github.com/jsphweid/scoretensor/corpus"
	"github.com/jsphweid/scoretensor/model"
	"github.com/jsphweid/scoretensor/overlap"
	"github.com/jsphweid/scoretensor/table"
	"github.com/spf13/cobra"
)

var (
	encFlags  encodeFlags
	encFormat string
)

func init() {
	rootCmd.AddCommand(encodeCmd)
	encFlags.register(encodeCmd.Flags(), constants.DefaultDivisions)
	encodeCmd.Flags().StringVar(&encFormat, "format", "tokens", "tokens, ids, json or pianoroll")
}

var encodeCmd = &cobra.Command{
	Use:   "encode <file>",
	Short: "Encodes one CSV or MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return encodeFile(args[0], encFlags, encFormat, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func loadComposition(path string, monophonic bool) (*composition.Composition, []model.Diagnostic, error) {
	t, diags, err := corpus.LoadTable(path, table.DefaultConfig())
	if err != nil {
		return nil, nil, err
	}
	if monophonic {
		var dropped []model.Diagnostic
		t, dropped, err = overlap.ForceMonophonic(t, overlap.DefaultOptions())
		if err != nil {
			return nil, nil, err
		}
		diags = append(diags, dropped...)
	}
	return composition.FromTable(t, path), diags, nil
}

func encodeFile(path string, f encodeFlags, format string, out, errOut io.Writer) error {
	c, diags, err := loadComposition(path, f.monophonic)
	if err != nil {
		return err
	}

	switch format {
	case "pianoroll":
		roll, _, err := c.Pianoroll(f.divisions, f.pitches())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "shape: %v tracks: %v\n", roll.Shape(), roll.Tracks)
		fmt.Fprint(out, roll.String())
	case "tokens", "ids", "json":
		cfg := f.command()
		s, _, err := c.EventStream(cfg)
		if err != nil {
			return err
		}
		v, err := cfg.Vocab()
		if err != nil {
			return err
		}
		switch format {
		case "tokens":
			for _, tok := range command.Strings(v, s.Tokens) {
				fmt.Fprintln(out, tok)
			}
		case "ids":
			fmt.Fprintln(out, s.Tokens)
		default:
			res := model.EncodeCommandResponse{
				Tokens:      s.Tokens,
				StartFrame:  s.StartFrame,
				VocabSize:   v.Size(),
				Diagnostics: c.Diagnostics(),
			}
			if err := json.NewEncoder(out).Encode(res); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	for _, d := range append(diags, c.Diagnostics()...) {
		fmt.Fprintln(errOut, d)
	}
	return nil
}
