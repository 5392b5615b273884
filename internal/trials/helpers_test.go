package trials

import (
	"fmt"
	"slices"

	"github.com/eflab/nwbtrials/pkg/models"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debugf(string, ...any) {}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

type fakeSource struct {
	series map[string]*models.Series
	order  []string
	reads  int
}

func newFakeSource() *fakeSource {
	return &fakeSource{series: make(map[string]*models.Series)}
}

// add registers a series with width rows; data[r][c] = base + r*100 + c.
func (f *fakeSource) add(name string, width int, ts []float64, base float64) *fakeSource {
	values := make([]float64, 0, width*len(ts))
	for r := 0; r < width; r++ {
		for c := range ts {
			values = append(values, base+float64(r*100+c))
		}
	}
	f.series[name] = &models.Series{
		Name:       name,
		Data:       models.Array{Values: values, Dims: []int{width, len(ts)}},
		Timestamps: ts,
	}
	f.order = append(f.order, name)
	return f
}

func (f *fakeSource) SeriesNames() ([]string, error) {
	return slices.Clone(f.order), nil
}

func (f *fakeSource) Series(name string) (*models.Series, error) {
	f.reads++
	s, ok := f.series[name]
	if !ok {
		return nil, fmt.Errorf("no series %s", name)
	}
	return s, nil
}

func seq(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
