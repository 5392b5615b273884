package nwbfile

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/eflab/nwbtrials/pkg/models"
	"gonum.org/v1/gonum/mat"
)

// Layout names the groups the reader looks in.
type Layout struct {
	SeriesGroup       string // Response series, one child group per series
	IntervalsGroup    string // Interval tables, one child group per table
	SegmentationGroup string // Plane segmentations, one child group per plane
}

// DefaultLayout is where NWB ophys files keep dF/F series, intervals and
// segmentations.
func DefaultLayout() Layout {
	return Layout{
		SeriesGroup:       "processing/ophys/DfOverF",
		IntervalsGroup:    "intervals",
		SegmentationGroup: "processing/ophys/ImageSegmentation",
	}
}

var (
	ErrNotFound            = errors.New("not found")
	ErrShapeMismatch       = errors.New("stored shape does not match")
	ErrRaggedIndex         = errors.New("invalid ragged index")
	ErrUnsupportedDatatype = errors.New("unsupported datatype")
	ErrUnsupportedMask     = errors.New("unsupported mask representation")
)

// cleanPath trims the leading and trailing slashes of an object path.
func cleanPath(p string) string {
	return strings.Trim(p, "/")
}

func join(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = cleanPath(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// children returns the sorted names of the direct children of group found
// among paths.
func children(paths []string, group string) []string {
	prefix := cleanPath(group) + "/"
	seen := make(map[string]struct{})
	for _, p := range paths {
		rest, ok := strings.CutPrefix(cleanPath(p), prefix)
		if !ok || rest == "" {
			continue
		}
		name, _, _ := strings.Cut(rest, "/")
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// orientSeries arranges a series stored with dims as (width, samples).
// NWB stores response series time-major (samples, width); a (width, samples)
// layout is accepted when only its second axis matches the timestamps. A 1-D
// series is a single time-major column. Without timestamps the stored layout
// is assumed time-major.
func orientSeries(name string, values []float64, stored []int, timestamps []float64) (models.Array, error) {
	switch len(stored) {
	case 1:
		stored = []int{stored[0], 1}
	case 2:
	default:
		return models.Array{}, fmt.Errorf("series %s: %w: stored dims %v are not 1-D or 2-D", name, ErrShapeMismatch, stored)
	}
	rows, cols := stored[0], stored[1]
	if rows*cols != len(values) {
		return models.Array{}, fmt.Errorf("series %s: %w: stored dims %v, %d values", name, ErrShapeMismatch, stored, len(values))
	}

	timeMajor := true
	if timestamps != nil {
		n := len(timestamps)
		switch {
		case rows == n:
		case cols == n:
			timeMajor = false
		default:
			return models.Array{}, fmt.Errorf("series %s: %w: stored dims %v, %d timestamps", name, ErrShapeMismatch, stored, n)
		}
	}
	if !timeMajor {
		return models.Array{Values: values, Dims: []int{rows, cols}}, nil
	}
	return models.Array{Values: transpose(values, rows, cols), Dims: []int{cols, rows}}, nil
}

// transpose returns the row-major values of the (cols, rows) transpose.
func transpose(values []float64, rows, cols int) []float64 {
	if rows == 0 || cols == 0 {
		return []float64{}
	}
	t := mat.DenseCopyOf(mat.NewDense(rows, cols, values).T())
	return t.RawMatrix().Data
}

// splitRagged splits flat records into one slice per row using NWB's
// cumulative end-offset index.
func splitRagged[T any](flat []T, index []float64) ([][]T, error) {
	out := make([][]T, len(index))
	start := 0
	for i, f := range index {
		end := int(f)
		if float64(end) != f || end < start || end > len(flat) {
			return nil, fmt.Errorf("%w: entry %d = %v (previous %d, %d records)", ErrRaggedIndex, i, f, start, len(flat))
		}
		out[i] = flat[start:end:end]
		start = end
	}
	return out, nil
}

// pixelWeights decodes flattened (x, y, weight) triples.
func pixelWeights(flat []float64) ([]models.PixelWeight, error) {
	if len(flat)%3 != 0 {
		return nil, fmt.Errorf("pixel mask: %d values is not a multiple of 3", len(flat))
	}
	out := make([]models.PixelWeight, len(flat)/3)
	for i := range out {
		out[i] = models.PixelWeight{
			X:      uint32(flat[3*i]),
			Y:      uint32(flat[3*i+1]),
			Weight: float32(flat[3*i+2]),
		}
	}
	return out, nil
}

// voxelWeights decodes flattened (x, y, z, weight) quadruples.
func voxelWeights(flat []float64) ([]models.VoxelWeight, error) {
	if len(flat)%4 != 0 {
		return nil, fmt.Errorf("voxel mask: %d values is not a multiple of 4", len(flat))
	}
	out := make([]models.VoxelWeight, len(flat)/4)
	for i := range out {
		out[i] = models.VoxelWeight{
			X:      uint32(flat[4*i]),
			Y:      uint32(flat[4*i+1]),
			Z:      uint32(flat[4*i+2]),
			Weight: float32(flat[4*i+3]),
		}
	}
	return out, nil
}

// recordFields extracts named numeric fields of one compound record.
func recordFields(rec map[string]any, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		v, ok := toFloat(rec[name])
		if !ok {
			return nil, fmt.Errorf("field %q is missing or not numeric (%T)", name, rec[name])
		}
		out[i] = v
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// pixelRecords decodes compound (x, y, weight) pixel mask records.
func pixelRecords(recs []map[string]any) ([]models.PixelWeight, error) {
	out := make([]models.PixelWeight, len(recs))
	for i, rec := range recs {
		f, err := recordFields(rec, "x", "y", "weight")
		if err != nil {
			return nil, fmt.Errorf("pixel mask record %d: %w", i, err)
		}
		out[i] = models.PixelWeight{X: uint32(f[0]), Y: uint32(f[1]), Weight: float32(f[2])}
	}
	return out, nil
}

// voxelRecords decodes compound (x, y, z, weight) voxel mask records.
func voxelRecords(recs []map[string]any) ([]models.VoxelWeight, error) {
	out := make([]models.VoxelWeight, len(recs))
	for i, rec := range recs {
		f, err := recordFields(rec, "x", "y", "z", "weight")
		if err != nil {
			return nil, fmt.Errorf("voxel mask record %d: %w", i, err)
		}
		out[i] = models.VoxelWeight{X: uint32(f[0]), Y: uint32(f[1]), Z: uint32(f[2]), Weight: float32(f[3])}
	}
	return out, nil
}

// Column names with a fixed meaning in NWB interval tables.
const (
	colID    = "id"
	colStart = "start_time"
	colStop  = "stop_time"
	colTrial = "trial"
)

// column is one decoded interval-table column.
type column struct {
	name    string
	numbers []float64
	strings []string
}

func (c column) len() int {
	if c.numbers != nil {
		return len(c.numbers)
	}
	return len(c.strings)
}

// buildIntervalTable assembles rows from decoded columns. Trial labels are
// normalized here, once, by parse.
func buildIntervalTable(name string, cols []column, parseNumber func(float64) (int, error), parseLabel func(string) (int, error)) (*models.IntervalTable, []string, error) {
	byName := make(map[string]column, len(cols))
	for _, c := range cols {
		byName[c.name] = c
	}
	start, ok := byName[colStart]
	if !ok || start.numbers == nil {
		return nil, nil, fmt.Errorf("interval table %s: %w: numeric %s column", name, ErrNotFound, colStart)
	}
	stop, ok := byName[colStop]
	if !ok || stop.numbers == nil {
		return nil, nil, fmt.Errorf("interval table %s: %w: numeric %s column", name, ErrNotFound, colStop)
	}
	rows := len(start.numbers)
	if len(stop.numbers) != rows {
		return nil, nil, fmt.Errorf("interval table %s: %s has %d rows, %s has %d", name, colStart, rows, colStop, len(stop.numbers))
	}

	tc, ok := byName[colTrial]
	if !ok {
		return nil, nil, fmt.Errorf("interval table %s: %w: %s column", name, ErrNotFound, colTrial)
	}
	if tc.len() != rows {
		return nil, nil, fmt.Errorf("interval table %s: %s has %d rows, want %d", name, colTrial, tc.len(), rows)
	}
	trials := make([]int, rows)
	for i := range trials {
		var err error
		if tc.numbers != nil {
			trials[i], err = parseNumber(tc.numbers[i])
		} else {
			trials[i], err = parseLabel(tc.strings[i])
		}
		if err != nil {
			return nil, nil, fmt.Errorf("interval table %s row %d: %w", name, i, err)
		}
	}

	table := &models.IntervalTable{Name: name, Rows: make([]models.Interval, rows)}
	for i := range table.Rows {
		table.Rows[i] = models.Interval{
			Trial:    trials[i],
			Start:    start.numbers[i],
			Stop:     stop.numbers[i],
			Features: make(map[string]float64),
			Labels:   make(map[string]string),
		}
	}

	var skipped []string
	for _, c := range cols {
		switch c.name {
		case colID, colStart, colStop, colTrial:
			continue
		}
		if c.len() != rows {
			skipped = append(skipped, c.name)
			continue
		}
		table.Columns = append(table.Columns, c.name)
		for i := range table.Rows {
			if c.numbers != nil {
				table.Rows[i].Features[c.name] = c.numbers[i]
			} else {
				table.Rows[i].Labels[c.name] = c.strings[i]
			}
		}
	}
	return table, skipped, nil
}
