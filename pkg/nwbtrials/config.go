package nwbtrials

import (
	"github.com/eflab/nwbtrials/internal/trials"
	"github.com/eflab/nwbtrials/pkg/nwbtrials/nwbfile"
)

// DefaultSegmentationKey is the plane used when no key is given.
const DefaultSegmentationKey = "DMD1_plane_segmentation"

// DefaultStimulusTable is the interval table holding stimulus presentations.
const DefaultStimulusTable = "stimulus_presentations"

type Config struct {
	ReferenceTrial   int
	Channels         []string
	StimulusTable    string
	StimulusFeatures []string
	IntervalOrder    trials.IntervalOrder
	Layout           nwbfile.Layout
	Logger           Logger
	Opener           Opener
}

type Option func(*Config)

func WithReferenceTrial(trial int) Option {
	return func(c *Config) {
		c.ReferenceTrial = trial
	}
}

func WithChannels(channels ...string) Option {
	return func(c *Config) {
		c.Channels = channels
	}
}

func WithStimulusTable(name string) Option {
	return func(c *Config) {
		c.StimulusTable = name
	}
}

// WithStimulusFeatures sets the features joined when AddStimulusTimeseries
// is called without explicit names.
func WithStimulusFeatures(features ...string) Option {
	return func(c *Config) {
		c.StimulusFeatures = features
	}
}

// WithIntervalOrder selects how overlapping stimulus intervals are applied.
func WithIntervalOrder(order trials.IntervalOrder) Option {
	return func(c *Config) {
		c.IntervalOrder = order
	}
}

func WithLayout(layout nwbfile.Layout) Option {
	return func(c *Config) {
		c.Layout = layout
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithOpener replaces the NWB file opener used by Open.
func WithOpener(open Opener) Option {
	return func(c *Config) {
		c.Opener = open
	}
}

func defaultConfig() *Config {
	return &Config{
		ReferenceTrial:   trials.DefaultReferenceTrial,
		Channels:         trials.DefaultChannels,
		StimulusTable:    DefaultStimulusTable,
		StimulusFeatures: trials.DefaultStimulusFeatures,
		IntervalOrder:    trials.TableOrder,
		Layout:           nwbfile.DefaultLayout(),
		Logger:           nil,
		Opener:           openNWBFile,
	}
}
