package model

import "fmt"

// Columns is the interchange field order. Tables are sorted by it too.
var Columns = []string{"onset", "track", "pitch", "dur"}

type Note struct {
	Onset float64
	Track int
	Pitch int
	Dur   float64
}

func (n Note) Offset() float64 {
	return n.Onset + n.Dur
}

func (n Note) String() string {
	return fmt.Sprintf("{onset:%v track:%v pitch:%v dur:%v}", n.Onset, n.Track, n.Pitch, n.Dur)
}

// Less reports whether a sorts before b in canonical (onset, track, pitch, dur) order.
func Less(a, b Note) bool {
	if a.Onset != b.Onset {
		return a.Onset < b.Onset
	}
	if a.Track != b.Track {
		return a.Track < b.Track
	}
	if a.Pitch != b.Pitch {
		return a.Pitch < b.Pitch
	}
	return a.Dur < b.Dur
}

type PitchRange struct {
	Min int
	Max int
}

func FullPitchRange() PitchRange {
	return PitchRange{Min: 0, Max: 127}
}

func (r PitchRange) Contains(pitch int) bool {
	return pitch >= r.Min && pitch <= r.Max
}

func (r PitchRange) Len() int {
	return r.Max - r.Min + 1
}
