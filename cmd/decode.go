package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/jsphweid/scoretensor/command"
	"github.com/jsphweid/scoretensor/file"
	"github.com/jsphweid/scoretensor/model"
	"github.com/spf13/cobra"
)

var decFlags encodeFlags

func init() {
	rootCmd.AddCommand(decodeCmd)
	decFlags.register(decodeCmd.Flags(), 0)
}

var decodeCmd = &cobra.Command{
	Use:   "decode <tokens.json>",
	Short: "Decodes a command token stream to CSV",
	Long: `Reads {"tokens": [...], "start_frame": n} from a file, or stdin for -,
and writes the decoded notes as CSV.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		return decodeTokens(in, decFlags.command(), cmd.OutOrStdout())
	},
}

func decodeTokens(in io.Reader, cfg command.Config, out io.Writer) error {
	var req model.DecodeCommandRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return err
	}
	q, err := command.Decode(&command.Stream{Tokens: req.Tokens, StartFrame: req.StartFrame}, cfg)
	if err != nil {
		return err
	}
	t, err := q.Units()
	if err != nil {
		return err
	}
	return file.WriteNoteCSV(out, t)
}
