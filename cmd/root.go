package cmd

import (
	"github.com/jsphweid/scoretensor/chunk"
	"github.com/jsphweid/scoretensor/corpus"
	"github.com/jsphweid/scoretensor/download"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	debug  bool
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "scoretensor",
	Short: "Note tables to tensors and back",
	Long: `scoretensor validates note tables (CSV or MIDI), quantizes them and
encodes them as pianorolls or command token streams, and decodes both back.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "development logging at debug level")
}

func setupLogging() error {
	var l *zap.Logger
	var err error
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	logger = l
	chunk.SetLogger(l)
	corpus.SetLogger(l)
	download.SetLogger(l)
	return nil
}

func Execute() {
	defer logger.Sync()
	cobra.CheckErr(rootCmd.Execute())
}
