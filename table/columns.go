package table

import (
	"strings"

	"github.com/jsphweid/scoretensor/model"
	"golang.org/x/exp/slices"
)

// CheckColumns validates a tabular header against model.Columns. The track
// column may be left out, in which case hasTrack is false.
func CheckColumns(header []string) (hasTrack bool, err error) {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}

	seen := make(map[string]bool)
	var extra []string
	for _, c := range cols {
		if !slices.Contains(model.Columns, c) || seen[c] {
			extra = append(extra, c)
		}
		seen[c] = true
	}
	if len(extra) > 0 {
		return false, &SchemaError{Kind: SchemaExtra, Columns: extra}
	}

	var missing []string
	for _, c := range model.Columns {
		if c != "track" && !seen[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return false, &SchemaError{Kind: SchemaMissing, Columns: missing}
	}

	var expected []string
	for _, c := range model.Columns {
		if seen[c] {
			expected = append(expected, c)
		}
	}
	if !slices.Equal(cols, expected) {
		return false, &SchemaError{Kind: SchemaOrder, Columns: cols}
	}
	return seen["track"], nil
}
