package models

import (
	"slices"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// IndexRow is one entry of the trial index built from series identifiers.
type IndexRow struct {
	Identifier string // Series identifier, e.g. "Trial12_DMD2"
	Shape      []int  // Sample array dimensions as stored
	Trial      int    // Trial number parsed from the identifier
}

// Trial holds the anchored samples of one trial.
type Trial struct {
	Number   int                   // Trial number
	Time     []float64             // Timestamps relative to the reference anchor
	Channels map[string]*mat.Dense // Channel id -> (time, width) matrix
	Stim     map[string][]float64  // Feature name -> per-sample value (NaN outside windows)
}

// NumSamples returns the length of the trial's timestamp vector.
func (t *Trial) NumSamples() int {
	return len(t.Time)
}

// ChannelIDs returns the trial's channel ids in sorted order.
func (t *Trial) ChannelIDs() []string {
	ids := make([]string, 0, len(t.Channels))
	for id := range t.Channels {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Extraction is the trial-aligned view of every series in a session.
type Extraction struct {
	ReferenceTrial int            // Trial whose first sample anchors all timestamps
	Anchor         float64        // Raw timestamp subtracted from every trial
	Trials         map[int]*Trial // Trial number -> trial
}

// TrialNumbers returns the trial numbers in ascending order.
func (e *Extraction) TrialNumbers() []int {
	nums := make([]int, 0, len(e.Trials))
	for n := range e.Trials {
		nums = append(nums, n)
	}
	slices.Sort(nums)
	return nums
}

// RateStats summarises the sampling of one trial. Durations and offsets are
// in seconds, rates in Hz and intervals in milliseconds.
type RateStats struct {
	Trial       int
	Duration    float64 // Last minus first timestamp of the trial
	StartOffset float64 // First timestamp relative to the earliest trial start
	EndOffset   float64 // Last timestamp relative to the earliest trial start
	MeanRate    float64
	MedianRate  float64
	MeanDtMs    float64
	MedianDtMs  float64
	DtStdMs     float64
	NumSamples  int
}

// Rounded returns a copy with values rounded for display.
func (r RateStats) Rounded() RateStats {
	r.Duration = scalar.Round(r.Duration, 3)
	r.StartOffset = scalar.Round(r.StartOffset, 3)
	r.EndOffset = scalar.Round(r.EndOffset, 3)
	r.MeanRate = scalar.Round(r.MeanRate, 2)
	r.MedianRate = scalar.Round(r.MedianRate, 2)
	r.MeanDtMs = scalar.Round(r.MeanDtMs, 3)
	r.MedianDtMs = scalar.Round(r.MedianDtMs, 3)
	r.DtStdMs = scalar.Round(r.DtStdMs, 4)
	return r
}
