package nwbtrials

import "github.com/eflab/nwbtrials/pkg/models"

// Container is an open data source holding response series, interval tables
// and plane segmentations.
type Container interface {
	SeriesNames() ([]string, error)
	Series(name string) (*models.Series, error)
	SeriesShape(name string) ([]int, error)
	IntervalTableNames() ([]string, error)
	IntervalTable(name string) (*models.IntervalTable, error)
	PlaneSegmentationNames() ([]string, error)
	PlaneSegmentation(name string) (*models.PlaneSegmentation, error)
	Close() error
}

// Opener opens the container stored at path.
type Opener func(path string, cfg *Config) (Container, error)

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
