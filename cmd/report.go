package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jsphweid/scoretensor/chunk"
	"github.com/jsphweid/scoretensor/constants"
	"github.com/jsphweid/scoretensor/util"
	"github.com/spf13/cobra"
)

var reportDir string

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportDir, "out", constants.GetIndexDir(), "index directory (INDEX_PATH)")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarizes the chunks in the index directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := analyzeChunks(reportDir)
		if err != nil {
			return err
		}
		r.print()
		return nil
	},
}

var chunkFilename = regexp.MustCompile("^[0-9a-fA-F]{8}-([0-9a-fA-F]{4}-){3}[0-9a-fA-F]{12}.dat$")

type chunksReport struct {
	numFiles        int
	compositions    []int
	indexPercents   []float32
	avgIndexPercent float32
	totalBytes      int64
	dataBytes       int64
}

func analyzeChunks(dir string) (chunksReport, error) {
	var report chunksReport
	files, err := os.ReadDir(dir)
	if err != nil {
		return report, err
	}

	for _, file := range files {
		if !chunkFilename.MatchString(file.Name()) {
			continue
		}
		report.numFiles += 1

		f, err := os.Open(filepath.Join(dir, file.Name()))
		if err != nil {
			return report, err
		}
		index, indexLength, err := chunk.ReadIndex(f)
		if err != nil {
			f.Close()
			return report, err
		}
		stats, err := f.Stat()
		f.Close()
		if err != nil {
			return report, err
		}

		report.compositions = append(report.compositions, len(index))
		report.indexPercents = append(report.indexPercents, float32(indexLength+4)/float32(stats.Size()))
		report.totalBytes += stats.Size()
		report.dataBytes += stats.Size() - int64(indexLength+4)
	}
	if report.totalBytes > 0 {
		report.avgIndexPercent = float32(report.totalBytes-report.dataBytes) / float32(report.totalBytes)
	}
	return report, nil
}

func (r chunksReport) print() {
	fmt.Printf("chunks: %v\n", r.numFiles)
	fmt.Printf("compositions: %v\n", util.Sum(r.compositions))
	fmt.Printf("compositions per chunk: %v\n", r.compositions)
	fmt.Printf("index percent per chunk: %v\n", r.indexPercents)
	fmt.Printf("avg index percent: %v\n", r.avgIndexPercent)
	fmt.Printf("total bytes: %v\n", r.totalBytes)
	fmt.Printf("data bytes: %v\n", r.dataBytes)
}
