package nwbtrials

import (
	"errors"
	"fmt"
	"slices"

	"github.com/eflab/nwbtrials/internal/trials"
	"github.com/eflab/nwbtrials/pkg/logger"
	"github.com/eflab/nwbtrials/pkg/models"
	"github.com/google/uuid"
)

// Session owns one open container. Use WithSession to have it closed
// automatically.
type Session struct {
	id     string
	src    Container
	log    Logger
	config *Config
	closed bool
}

// Open opens the container at path with the configured Opener.
func Open(path string, opts ...Option) (*Session, error) {
	cfg := buildConfig(opts)
	src, err := cfg.Opener(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	s := newSession(src, cfg)
	s.log.Infof("Opened session for %s", path)
	return s, nil
}

// NewSession wraps an already open container. The session takes ownership
// and closes src on Close.
func NewSession(src Container, opts ...Option) *Session {
	return newSession(src, buildConfig(opts))
}

// WithSession opens path, runs fn and closes the session on every exit path.
// A close error is joined to fn's error.
func WithSession(path string, fn func(*Session) error, opts ...Option) (err error) {
	s, err := Open(path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(s)
}

func buildConfig(opts []Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Opener == nil {
		cfg.Opener = openNWBFile
	}
	return cfg
}

func newSession(src Container, cfg *Config) *Session {
	id := uuid.NewString()
	log := cfg.Logger
	if log == nil {
		log = logger.GetLogger().With("session", id)
	}
	return &Session{id: id, src: src, log: log, config: cfg}
}

// ID returns the session's random identifier, attached to its log lines.
func (s *Session) ID() string {
	return s.id
}

// Close releases the container. Closing twice is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.src.Close(); err != nil {
		return fmt.Errorf("closing session %s: %w", s.id, err)
	}
	s.log.Debugf("Closed session")
	return nil
}

func (s *Session) ensureOpen() error {
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// LoadMetaData indexes every response series by trial number.
func (s *Session) LoadMetaData() ([]models.IndexRow, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	names, err := s.src.SeriesNames()
	if err != nil {
		return nil, fmt.Errorf("listing series: %w", err)
	}

	entries := make([]trials.IndexEntry, 0, len(names))
	for _, name := range names {
		shape, err := s.src.SeriesShape(name)
		if err != nil {
			return nil, fmt.Errorf("reading shape of %s: %w", name, err)
		}
		entries = append(entries, trials.IndexEntry{Name: name, Shape: shape})
	}

	rows := trials.BuildIndex(entries, s.config.Channels, s.log)
	s.log.Debugf("Indexed %d of %d series", len(rows), len(names))
	return rows, nil
}

// LoadDFOverFData reads every series into trial-aligned matrices anchored to
// the reference trial's first sample.
func (s *Session) LoadDFOverFData() (*models.Extraction, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	ex, err := trials.Extract(s.src, trials.ExtractOptions{
		ReferenceTrial: s.config.ReferenceTrial,
		Channels:       s.config.Channels,
	}, s.log)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Extracted %d trials anchored at %.6f (trial %d)", len(ex.Trials), ex.Anchor, ex.ReferenceTrial)
	return ex, nil
}

// LoadSamplingRateInfo estimates per-trial sampling statistics from an
// extraction.
func (s *Session) LoadSamplingRateInfo(ex *models.Extraction) ([]models.RateStats, error) {
	if ex == nil {
		return nil, ErrNilExtraction
	}
	return trials.SamplingRates(ex, s.log), nil
}

// LoadStimulusData returns the configured stimulus interval table.
func (s *Session) LoadStimulusData() (*models.IntervalTable, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	name := s.config.StimulusTable
	names, err := s.src.IntervalTableNames()
	if err != nil {
		return nil, fmt.Errorf("listing interval tables: %w", err)
	}
	if !slices.Contains(names, name) {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrIntervalTableMissing, name, names)
	}
	table, err := s.src.IntervalTable(name)
	if err != nil {
		return nil, fmt.Errorf("reading interval table %s: %w", name, err)
	}
	return table, nil
}

// AddStimulusTimeseries joins the table's features onto every trial of ex
// and returns ex. Without feature names the configured defaults are used.
func (s *Session) AddStimulusTimeseries(ex *models.Extraction, table *models.IntervalTable, features ...string) (*models.Extraction, error) {
	if ex == nil {
		return nil, ErrNilExtraction
	}
	if table == nil {
		return nil, fmt.Errorf("%w: nil table", ErrIntervalTableMissing)
	}
	if len(features) == 0 {
		features = s.config.StimulusFeatures
	}
	if err := trials.JoinStimulus(ex, table, features, s.config.IntervalOrder); err != nil {
		return nil, err
	}
	s.log.Debugf("Joined %d features from %s (%s order)", len(features), table.Name, s.config.IntervalOrder)
	return ex, nil
}

func (s *Session) planeNames() ([]string, error) {
	names, err := s.src.PlaneSegmentationNames()
	if err != nil {
		return nil, fmt.Errorf("listing plane segmentations: %w", err)
	}
	if len(names) == 0 {
		return nil, ErrNoSegmentations
	}
	return names, nil
}

// GetROIMasksByDMD returns the ROI masks of the named plane segmentation,
// or of DefaultSegmentationKey when key is empty.
func (s *Session) GetROIMasksByDMD(key string) (*models.ROIMasks, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if key == "" {
		key = DefaultSegmentationKey
	}
	names, err := s.planeNames()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(names, key) {
		return nil, &SegmentationNotFoundError{Key: key, Available: names}
	}

	plane, err := s.src.PlaneSegmentation(key)
	if err != nil {
		return nil, fmt.Errorf("reading plane segmentation %s: %w", key, err)
	}
	masks := &models.ROIMasks{Plane: key, Kind: plane.Kind(), ROIIDs: plane.ROIIDs}
	switch masks.Kind {
	case models.MaskImage:
		masks.Image = plane.ImageMask
	case models.MaskPixel:
		masks.Pixels = plane.PixelMask
	default:
		return nil, fmt.Errorf("%w: plane %s uses %s", ErrUnsupportedMask, key, masks.Kind)
	}
	return masks, nil
}

// ROIMetaData summarises every plane segmentation.
func (s *Session) ROIMetaData() ([]models.PlaneSummary, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	names, err := s.planeNames()
	if err != nil {
		return nil, err
	}
	out := make([]models.PlaneSummary, 0, len(names))
	for _, name := range names {
		plane, err := s.src.PlaneSegmentation(name)
		if err != nil {
			return nil, fmt.Errorf("reading plane segmentation %s: %w", name, err)
		}
		out = append(out, models.PlaneSummary{Name: name, NumROIs: len(plane.ROIIDs), Kind: plane.Kind()})
	}
	return out, nil
}
