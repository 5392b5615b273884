package trials

import (
	"cmp"
	"slices"

	"github.com/eflab/nwbtrials/pkg/models"
)

// IndexEntry is a series identifier with its stored shape.
type IndexEntry struct {
	Name  string
	Shape []int
}

// BuildIndex parses every identifier and returns the rows sorted by trial
// number, then identifier. Entries without a trial token are dropped.
func BuildIndex(entries []IndexEntry, channels []string, log Logger) []models.IndexRow {
	rows := make([]models.IndexRow, 0, len(entries))
	for _, e := range entries {
		key, err := ParseSeriesName(e.Name, channels)
		if err != nil {
			log.Warnf("excluding series from index: %v", err)
			continue
		}
		rows = append(rows, models.IndexRow{
			Identifier: e.Name,
			Shape:      slices.Clone(e.Shape),
			Trial:      key.Trial,
		})
	}
	slices.SortFunc(rows, func(a, b models.IndexRow) int {
		if c := cmp.Compare(a.Trial, b.Trial); c != 0 {
			return c
		}
		return cmp.Compare(a.Identifier, b.Identifier)
	})
	return rows
}
