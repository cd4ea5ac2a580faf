package constants

import (
	"os"
	"path/filepath"
)

func GetIndexDir() string {
	path := os.Getenv("INDEX_PATH")
	if path != "" {
		return path
	}
	return "./out"
}

func GetMediaDir() string {
	return os.Getenv("MEDIA_PATH")
}

func GetCacheDir() string {
	path := os.Getenv("CACHE_PATH")
	if path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scoretensor_cache"
	}
	return filepath.Join(home, ".scoretensor_cache")
}

const (
	MinPitch = 0
	MaxPitch = 127

	// pianoroll pitch range used for corpus runs (piano keyboard)
	PianorollMinPitch = 21
	PianorollMaxPitch = 108

	// quanta per time unit
	DefaultDivisions = 12

	// command encoding, in the same units as note onsets (milliseconds for MIDI input)
	DefaultFrameLength = 40
	DefaultMaxShift    = 1000

	DefaultSampleRate = 44100
)

const PreferredChunkSize = 64 * 1024 * 1024

const AllChunksFilename = "allChunks.dat"
const FileNumToPathFilename = "fileNumToPath.dat"
