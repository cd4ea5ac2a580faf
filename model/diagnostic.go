package model

import "fmt"

type DiagnosticKind string

const (
	// a note whose onset and offset land on the same frame
	DiagSkippedNote DiagnosticKind = "skipped_note"
	// a note truncated to zero width while removing polyphony
	DiagDroppedNote DiagnosticKind = "dropped_note"
	// a note whose track was not requested in a pianoroll
	DiagUnknownTrack DiagnosticKind = "unknown_track"
	// a note folded into a same-pitch note already sounding on another track
	DiagMergedNote DiagnosticKind = "merged_note"
	// a MIDI note start without a matching end
	DiagUnterminatedNote DiagnosticKind = "unterminated_note"
)

// Diagnostic is a non-fatal notice returned alongside an artifact.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Track   int            `json:"track"`
	Pitch   int            `json:"pitch"`
	Onset   float64        `json:"onset"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s track=%v pitch=%v onset=%v: %s", d.Kind, d.Track, d.Pitch, d.Onset, d.Message)
}

func NoteDiagnostic(kind DiagnosticKind, n Note, msg string) Diagnostic {
	return Diagnostic{Kind: kind, Track: n.Track, Pitch: n.Pitch, Onset: n.Onset, Message: msg}
}
