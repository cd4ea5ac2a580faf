package cmd

import (
	"fmt"

	"github.com/jsphweid/scoretensor/download"
	"github.com/spf13/cobra"
)

var (
	downloadFormat string
	downloadCache  string
	downloadClean  bool
	s3Source       download.S3
)

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringVar(&downloadFormat, "format", "midi", "midi or csv")
	downloadCmd.Flags().StringVar(&downloadCache, "cache", "", "download cache (CACHE_PATH)")
	downloadCmd.Flags().BoolVar(&downloadClean, "clean", false, "remove cached archives afterwards")
	downloadCmd.Flags().StringVar(&s3Source.Bucket, "s3-bucket", "", "bucket for the s3 dataset")
	downloadCmd.Flags().StringVar(&s3Source.Prefix, "s3-prefix", "", "key prefix for the s3 dataset")
	downloadCmd.Flags().StringVar(&s3Source.Region, "s3-region", "us-east-1", "region for the s3 dataset")
	downloadCmd.Flags().StringVar(&s3Source.Endpoint, "s3-endpoint", "", "endpoint of an S3-compatible store")
}

var downloadCmd = &cobra.Command{
	Use:   "download <dataset> <out>",
	Short: "Downloads a dataset: ppdd-mono, ppdd-poly, piano-midi or s3",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDownloader(args[0])
		if err != nil {
			return err
		}

		switch downloadFormat {
		case "midi":
			return d.DownloadMidi(cmd.Context(), args[1])
		case "csv":
			return d.DownloadCSV(cmd.Context(), args[1])
		}
		return fmt.Errorf("unknown format %q", downloadFormat)
	},
}

func newDownloader(name string) (download.Downloader, error) {
	if name == "s3" {
		return &s3Source, nil
	}
	d, err := download.New(name)
	if err != nil {
		return nil, err
	}
	switch v := d.(type) {
	case *download.PPDD:
		v.CacheDir = downloadCache
		v.Clean = downloadClean
	case *download.PianoMidi:
		v.CacheDir = downloadCache
		v.Clean = downloadClean
	}
	return d, nil
}
