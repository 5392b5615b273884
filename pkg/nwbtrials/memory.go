package nwbtrials

import (
	"errors"
	"fmt"
	"slices"

	"github.com/eflab/nwbtrials/pkg/models"
)

var (
	ErrNotFound        = errors.New("not found")
	errContainerClosed = errors.New("container is closed")
)

// MemoryContainer is a Container whose contents are supplied by the caller.
type MemoryContainer struct {
	series map[string]*models.Series
	tables map[string]*models.IntervalTable
	planes map[string]*models.PlaneSegmentation
	closed bool
}

func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{
		series: make(map[string]*models.Series),
		tables: make(map[string]*models.IntervalTable),
		planes: make(map[string]*models.PlaneSegmentation),
	}
}

func (m *MemoryContainer) AddSeries(s *models.Series) *MemoryContainer {
	m.series[s.Name] = s
	return m
}

func (m *MemoryContainer) AddIntervalTable(t *models.IntervalTable) *MemoryContainer {
	m.tables[t.Name] = t
	return m
}

func (m *MemoryContainer) AddPlaneSegmentation(p *models.PlaneSegmentation) *MemoryContainer {
	m.planes[p.Name] = p
	return m
}

// Closed reports whether Close has been called.
func (m *MemoryContainer) Closed() bool {
	return m.closed
}

func (m *MemoryContainer) Close() error {
	m.closed = true
	return nil
}

func sortedKeys[V any](in map[string]V) []string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func lookup[V any](m *MemoryContainer, in map[string]V, kind, name string) (V, error) {
	var zero V
	if m.closed {
		return zero, errContainerClosed
	}
	v, ok := in[name]
	if !ok {
		return zero, fmt.Errorf("%s %s: %w", kind, name, ErrNotFound)
	}
	return v, nil
}

func (m *MemoryContainer) SeriesNames() ([]string, error) {
	if m.closed {
		return nil, errContainerClosed
	}
	return sortedKeys(m.series), nil
}

func (m *MemoryContainer) Series(name string) (*models.Series, error) {
	return lookup(m, m.series, "series", name)
}

func (m *MemoryContainer) SeriesShape(name string) ([]int, error) {
	s, err := m.Series(name)
	if err != nil {
		return nil, err
	}
	return s.Data.Dims, nil
}

func (m *MemoryContainer) IntervalTableNames() ([]string, error) {
	if m.closed {
		return nil, errContainerClosed
	}
	return sortedKeys(m.tables), nil
}

func (m *MemoryContainer) IntervalTable(name string) (*models.IntervalTable, error) {
	return lookup(m, m.tables, "interval table", name)
}

func (m *MemoryContainer) PlaneSegmentationNames() ([]string, error) {
	if m.closed {
		return nil, errContainerClosed
	}
	return sortedKeys(m.planes), nil
}

func (m *MemoryContainer) PlaneSegmentation(name string) (*models.PlaneSegmentation, error) {
	return lookup(m, m.planes, "plane segmentation", name)
}
