package trials

import (
	"math"
	"slices"

	"github.com/eflab/nwbtrials/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// SamplingRates computes per-trial sampling statistics, ordered by trial
// number. Trials with fewer than two samples are skipped with a warning.
// Offsets are measured from the earliest first timestamp across all trials.
func SamplingRates(ex *models.Extraction, log Logger) []models.RateStats {
	nums := ex.TrialNumbers()

	globalStart := math.Inf(1)
	for _, n := range nums {
		if t := ex.Trials[n].Time; len(t) > 0 {
			globalStart = math.Min(globalStart, t[0])
		}
	}

	rates := make([]models.RateStats, 0, len(nums))
	for _, n := range nums {
		t := ex.Trials[n].Time
		if len(t) < 2 {
			log.Warnf("not enough data to estimate rate for trial %d (%d samples)", n, len(t))
			continue
		}

		dt := diff(t)
		meanDt, stdDt := stat.PopMeanStdDev(dt, nil)
		medianDt := median(dt)
		first, last := t[0], t[len(t)-1]

		rates = append(rates, models.RateStats{
			Trial:       n,
			Duration:    last - first,
			StartOffset: first - globalStart,
			EndOffset:   last - globalStart,
			MeanRate:    1 / meanDt,
			MedianRate:  1 / medianDt,
			MeanDtMs:    meanDt * 1000,
			MedianDtMs:  medianDt * 1000,
			DtStdMs:     stdDt * 1000,
			NumSamples:  len(t),
		})
	}
	return rates
}

func diff(x []float64) []float64 {
	d := make([]float64, len(x)-1)
	for i := range d {
		d[i] = x[i+1] - x[i]
	}
	return d
}

// median averages the two middle values for even-length input.
func median(x []float64) float64 {
	s := slices.Clone(x)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
