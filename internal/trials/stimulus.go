package trials

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/eflab/nwbtrials/pkg/models"
)

// DefaultStimulusFeatures are joined when no feature names are requested.
var DefaultStimulusFeatures = []string{
	"orientation", "contrast", "x_position", "y_position",
	"delay", "diameter", "spatial_frequency", "temporal_frequency",
}

var ErrUnknownFeature = errors.New("feature not in interval table")

// IntervalOrder controls how overlapping intervals of one trial are applied.
// Later-applied rows overwrite earlier ones on the samples they share.
type IntervalOrder int

const (
	// TableOrder applies rows in the order they appear in the table.
	TableOrder IntervalOrder = iota
	// StartTimeOrder applies rows by ascending start time, ties in table order.
	StartTimeOrder
)

func (o IntervalOrder) String() string {
	if o == StartTimeOrder {
		return "start_time"
	}
	return "table"
}

// ParseIntervalOrder accepts "table" or "start_time".
func ParseIntervalOrder(s string) (IntervalOrder, error) {
	switch s {
	case "", "table":
		return TableOrder, nil
	case "start_time":
		return StartTimeOrder, nil
	}
	return TableOrder, fmt.Errorf("unknown interval order %q", s)
}

// JoinStimulus attaches one vector per feature to every trial of ex. Each
// vector matches the trial's timestamps and holds the feature value of the
// interval whose [Start, Stop] window contains the sample, NaN elsewhere.
func JoinStimulus(ex *models.Extraction, table *models.IntervalTable, features []string, order IntervalOrder) error {
	if len(features) == 0 {
		features = DefaultStimulusFeatures
	}
	for _, f := range features {
		if !table.HasColumn(f) {
			return fmt.Errorf("%w: %q (table %s has %v)", ErrUnknownFeature, f, table.Name, table.Columns)
		}
	}

	byTrial := make(map[int][]models.Interval)
	for _, row := range table.Rows {
		byTrial[row.Trial] = append(byTrial[row.Trial], row)
	}
	if order == StartTimeOrder {
		for _, rows := range byTrial {
			slices.SortStableFunc(rows, func(a, b models.Interval) int {
				return cmp.Compare(a.Start, b.Start)
			})
		}
	}

	for _, n := range ex.TrialNumbers() {
		tr := ex.Trials[n]
		stim := make(map[string][]float64, len(features))
		for _, f := range features {
			v := make([]float64, len(tr.Time))
			for i := range v {
				v[i] = math.NaN()
			}
			stim[f] = v
		}

		for _, row := range byTrial[n] {
			for i, t := range tr.Time {
				if t < row.Start || t > row.Stop {
					continue
				}
				for _, f := range features {
					val, ok := row.Features[f]
					if !ok {
						val = math.NaN()
					}
					stim[f][i] = val
				}
			}
		}
		tr.Stim = stim
	}
	return nil
}
