package table

import (
	"fmt"
	"strings"

	"github.com/jsphweid/scoretensor/model"
)

type SchemaErrorKind int

const (
	SchemaMissing SchemaErrorKind = iota + 1
	SchemaOrder
	SchemaExtra
)

// SchemaError reports a header that does not match model.Columns.
type SchemaError struct {
	Kind    SchemaErrorKind
	Columns []string
}

func (e *SchemaError) Error() string {
	switch e.Kind {
	case SchemaMissing:
		return fmt.Sprintf("note table must contain all columns in %v, missing %v", model.Columns, e.Columns)
	case SchemaOrder:
		return fmt.Sprintf("note table columns must be in order: %v, got %v", model.Columns, e.Columns)
	default:
		return fmt.Sprintf("note table must only contain columns in %v, found %v", model.Columns, e.Columns)
	}
}

type SortOrderError struct {
	// first row that sorts before its predecessor
	Index int
	Note  model.Note
}

func (e *SortOrderError) Error() string {
	return fmt.Sprintf("note table must be sorted by %v: row %d %v is out of order", model.Columns, e.Index, e.Note)
}

// OverlapError names every track and pitch holding two overlapping notes of the same pitch.
type OverlapError struct {
	Tracks  []int
	Pitches []int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("track(s) %v has an overlapping note at pitch(es) %v, i.e. there is a note which overlaps another at the same pitch", e.Tracks, e.Pitches)
}

type MonophonyViolation struct {
	Tracks []int
}

func (e *MonophonyViolation) Error() string {
	return fmt.Sprintf("track(s) %v has a note with a duration overlapping a subsequent note onset", e.Tracks)
}

type InvalidNoteError struct {
	Index  int
	Note   model.Note
	Reason string
}

func (e *InvalidNoteError) Error() string {
	return fmt.Sprintf("row %d %v is invalid: %s", e.Index, e.Note, e.Reason)
}

type PitchRangeError struct {
	Pitches []int
	Range   model.PitchRange
}

func (e *PitchRangeError) Error() string {
	strs := make([]string, len(e.Pitches))
	for i, p := range e.Pitches {
		strs[i] = fmt.Sprint(p)
	}
	return fmt.Sprintf("all pitches must be in range [%d, %d], got %s", e.Range.Min, e.Range.Max, strings.Join(strs, ", "))
}
