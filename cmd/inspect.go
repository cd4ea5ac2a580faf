package cmd

import (
	"fmt"
	"os"

	"github.com/jsphweid/scoretensor/chunk"
	"github.com/jsphweid/scoretensor/command"
	"github.com/jsphweid/scoretensor/util"
	"github.com/spf13/cobra"
)

var inspectFlags encodeFlags

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectFlags.register(inspectCmd.Flags(), 0)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <chunk> [key]",
	Short: "Inspects a chunk",
	Long: `Lists the keys of a chunk file, or with a key prints that
composition's tokens and diagnostics.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			return inspectComposition(args[0], args[1])
		}
		return inspect(args[0])
	},
}

func inspect(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	index, _, err := chunk.ReadIndex(f)
	if err != nil {
		return err
	}
	for _, key := range util.GetKeys(index) {
		fmt.Printf("key: %v\n", key)
		fmt.Printf("val: %v\n", index[key])
	}
	return nil
}

func inspectComposition(path, key string) error {
	c, err := chunk.ReadComposition(path, key)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("no composition %q in %s", key, path)
	}

	fmt.Printf("id: %v\n", c.ID)
	fmt.Printf("notes: %v\n", c.NumNotes)
	fmt.Printf("monophonic tracks: %v\n", c.Monophonic)
	fmt.Printf("pianoroll shape: %v\n", c.Shape)
	fmt.Printf("start frame: %v\n", c.StartFrame)

	v, err := inspectFlags.command().Vocab()
	if err != nil {
		return err
	}
	fmt.Printf("tokens: %v\n", command.Strings(v, c.Tokens))
	for _, d := range c.Diagnostics {
		fmt.Println(d)
	}
	return nil
}
