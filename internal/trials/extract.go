package trials

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/eflab/nwbtrials/pkg/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultReferenceTrial anchors timestamps when no other trial is configured.
const DefaultReferenceTrial = 1

var (
	ErrReferenceTrialMissing = errors.New("reference trial missing")
	ErrMissingTimestamps     = errors.New("timestamps missing")
	ErrLengthMismatch        = errors.New("data and timestamp lengths differ")
	ErrClockMismatch         = errors.New("channels of one trial disagree on sample count")
)

// SeriesSource enumerates and reads response series.
type SeriesSource interface {
	SeriesNames() ([]string, error)
	Series(name string) (*models.Series, error)
}

// ExtractOptions selects the reference trial and channel vocabulary.
type ExtractOptions struct {
	ReferenceTrial int
	Channels       []string
}

type keyedSeries struct {
	key    SeriesKey
	series *models.Series
}

// Extract reads every series in src and regroups them by trial and channel.
// All timestamps are shifted by the same anchor: the earliest first sample
// among the reference trial's series.
func Extract(src SeriesSource, opts ExtractOptions, log Logger) (*models.Extraction, error) {
	if opts.Channels == nil {
		opts.Channels = DefaultChannels
	}

	names, err := src.SeriesNames()
	if err != nil {
		return nil, fmt.Errorf("listing series: %w", err)
	}
	names = slices.Clone(names)
	slices.Sort(names)

	loaded := make([]keyedSeries, 0, len(names))
	for _, name := range names {
		key, err := ParseSeriesName(name, opts.Channels)
		if err != nil {
			log.Warnf("skipping series: %v", err)
			continue
		}
		s, err := src.Series(name)
		if err != nil {
			return nil, fmt.Errorf("reading series %s: %w", name, err)
		}
		if s.Timestamps == nil {
			return nil, fmt.Errorf("series %s: %w", name, ErrMissingTimestamps)
		}
		loaded = append(loaded, keyedSeries{key: key, series: s})
	}

	anchor, err := findAnchor(loaded, opts.ReferenceTrial)
	if err != nil {
		return nil, err
	}

	if trial, earliest, ok := earliestStart(loaded); ok && earliest < anchor {
		log.Warnf("trial %d does not have the earliest timestamp: trial %d starts at %.3f, but trial %d starts at %.3f",
			opts.ReferenceTrial, opts.ReferenceTrial, anchor, trial, earliest)
	}

	out := &models.Extraction{
		ReferenceTrial: opts.ReferenceTrial,
		Anchor:         anchor,
		Trials:         make(map[int]*models.Trial),
	}
	clocks := make(map[int]string)
	for _, ks := range loaded {
		if err := place(out, ks, anchor, clocks, log); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func findAnchor(loaded []keyedSeries, reference int) (float64, error) {
	anchor := math.Inf(1)
	found := false
	for _, ks := range loaded {
		if ks.key.Trial != reference {
			continue
		}
		if len(ks.series.Timestamps) == 0 {
			return 0, fmt.Errorf("series %s: %w: empty timestamp vector", ks.series.Name, ErrMissingTimestamps)
		}
		anchor = math.Min(anchor, ks.series.Timestamps[0])
		found = true
	}
	if !found {
		return 0, fmt.Errorf("%w: no series for trial %d", ErrReferenceTrialMissing, reference)
	}
	return anchor, nil
}

func earliestStart(loaded []keyedSeries) (trial int, start float64, ok bool) {
	start = math.Inf(1)
	for _, ks := range loaded {
		if len(ks.series.Timestamps) == 0 {
			continue
		}
		if t0 := ks.series.Timestamps[0]; t0 < start {
			start, trial, ok = t0, ks.key.Trial, true
		}
	}
	return trial, start, ok
}

// place stores one series in its trial. clocks records which series last set
// each trial's time vector.
func place(out *models.Extraction, ks keyedSeries, anchor float64, clocks map[int]string, log Logger) error {
	s := ks.series
	n := len(s.Timestamps)
	if len(s.Data.Dims) != 2 {
		return fmt.Errorf("series %s: expected 2-D data, got dims %v", s.Name, s.Data.Dims)
	}
	if s.Data.Dims[1] != n || len(s.Data.Values) != s.Data.Len() {
		return fmt.Errorf("series %s: %w: dims %v, %d values, %d timestamps",
			s.Name, ErrLengthMismatch, s.Data.Dims, len(s.Data.Values), n)
	}

	t := slices.Clone(s.Timestamps)
	floats.AddConst(-anchor, t)

	tr, ok := out.Trials[ks.key.Trial]
	if !ok {
		tr = &models.Trial{Number: ks.key.Trial, Channels: make(map[string]*mat.Dense)}
		out.Trials[ks.key.Trial] = tr
	} else if tr.Time != nil {
		if len(tr.Time) != n {
			return fmt.Errorf("trial %d, series %s: %w: %d vs %d samples",
				ks.key.Trial, s.Name, ErrClockMismatch, n, len(tr.Time))
		}
		if !floats.Equal(tr.Time, t) {
			log.Warnf("trial %d: timestamps of series %s differ from series %s; using %s, overwriting %s",
				ks.key.Trial, s.Name, clocks[ks.key.Trial], s.Name, clocks[ks.key.Trial])
		}
	}
	if _, dup := tr.Channels[ks.key.Channel]; dup {
		log.Warnf("trial %d: channel %s provided twice; keeping series %s", ks.key.Trial, ks.key.Channel, s.Name)
	}

	tr.Channels[ks.key.Channel] = timeMajor(s.Data)
	tr.Time = t
	clocks[ks.key.Trial] = s.Name
	return nil
}

// timeMajor transposes stored (width, samples) data into a (samples, width) matrix.
func timeMajor(a models.Array) *mat.Dense {
	width, samples := a.Dims[0], a.Dims[1]
	if width == 0 || samples == 0 {
		return &mat.Dense{}
	}
	raw := mat.NewDense(width, samples, slices.Clone(a.Values))
	return mat.DenseCopyOf(raw.T())
}
