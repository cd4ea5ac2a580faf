package cmd

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/jsphweid/scoretensor/chunk"
	"github.com/jsphweid/scoretensor/constants"
	"github.com/jsphweid/scoretensor/corpus"
	"github.com/jsphweid/scoretensor/file"
	"github.com/jsphweid/scoretensor/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	indexFlags   encodeFlags
	indexWorkers int
	indexMedia   string
	indexOut     string
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexFlags.register(indexCmd.Flags(), 0)
	indexCmd.Flags().IntVar(&indexWorkers, "workers", 10, "files encoded in parallel")
	indexCmd.Flags().StringVar(&indexMedia, "media", constants.GetMediaDir(), "directory of CSV and MIDI files (MEDIA_PATH)")
	indexCmd.Flags().StringVar(&indexOut, "out", constants.GetIndexDir(), "output directory for chunks (INDEX_PATH)")
}

var indexCmd = &cobra.Command{
	Use:   "index [maxNum]",
	Short: "Encodes a directory of note files into chunks",
	Long: `Encodes every CSV and MIDI file under the media directory and stores
the token streams (and pianorolls when --divisions > 0) in chunk files.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var maxNum int
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			maxNum = n
		}

		opts := corpus.DefaultOptions()
		opts.Divisions = indexFlags.divisions
		opts.Pitches = indexFlags.pitches()
		opts.Command = indexFlags.command()
		opts.Monophonic = indexFlags.monophonic
		opts.Workers = indexWorkers
		return Index(cmd.Context(), indexMedia, indexOut, maxNum, opts)
	},
}

// Index rebuilds out from the files under media.
func Index(ctx context.Context, media, out string, maxNum int, opts corpus.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := util.RecreateDir(out); err != nil {
		return err
	}
	paths, err := util.GatherAllPaths(media, util.NoteExtensions, maxNum)
	if err != nil {
		return err
	}
	opts.Root = media

	w := chunk.NewWriter(out, constants.PreferredChunkSize)
	stats, err := corpus.Run(ctx, paths, opts, w)
	if err != nil {
		return err
	}
	chunks, err := w.Close()
	if err != nil {
		return err
	}

	rel := make([]string, len(paths))
	for i, p := range paths {
		if r, err := filepath.Rel(media, p); err == nil {
			rel[i] = r
		} else {
			rel[i] = p
		}
	}
	if err := util.CreateBinary(filepath.Join(out, constants.AllChunksFilename), chunks); err != nil {
		return err
	}
	if err := util.CreateBinary(filepath.Join(out, constants.FileNumToPathFilename), file.CreateFileNumMap(rel)); err != nil {
		return err
	}

	logger.Info("index done",
		zap.Int("processed", stats.Processed),
		zap.Int("failed", stats.Failed),
		zap.Int("diagnostics", stats.Diagnostics),
		zap.Int("chunks", len(chunks)))
	return nil
}
