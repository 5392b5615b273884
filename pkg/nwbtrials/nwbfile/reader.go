// Package nwbfile reads ophys data out of NWB (HDF5) files.
package nwbfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/eflab/nwbtrials/internal/trials"
	"github.com/eflab/nwbtrials/pkg/logger"
	"github.com/eflab/nwbtrials/pkg/models"
	"github.com/scigolib/hdf5"
)

// File is an open NWB file with its object tree indexed by path.
type File struct {
	path     string
	size     int64
	layout   Layout
	h5       *hdf5.File
	datasets map[string]*hdf5.Dataset
	paths    []string
}

// Open opens path read-only and indexes every object in it.
func Open(path string, layout Layout) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat nwb file: %w", err)
	}

	h5, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening nwb file %s: %w", path, err)
	}

	f := &File{
		path:     path,
		size:     info.Size(),
		layout:   layout,
		h5:       h5,
		datasets: make(map[string]*hdf5.Dataset),
	}
	h5.Walk(func(p string, obj hdf5.Object) {
		key := cleanPath(p)
		if key == "" {
			return
		}
		if ds, ok := obj.(*hdf5.Dataset); ok {
			f.datasets[key] = ds
		}
		f.paths = append(f.paths, key)
	})

	logger.Debugf("opened %s (%s, %d objects, %d datasets)",
		path, humanize.Bytes(uint64(f.size)), len(f.paths), len(f.datasets))
	return f, nil
}

// Path returns the file's location on disk.
func (f *File) Path() string {
	return f.path
}

// Size returns the file size in bytes.
func (f *File) Size() int64 {
	return f.size
}

func (f *File) Close() error {
	if f.h5 == nil {
		return nil
	}
	err := f.h5.Close()
	f.h5 = nil
	f.datasets = nil
	return err
}

func (f *File) dataset(path string) (*hdf5.Dataset, bool) {
	ds, ok := f.datasets[path]
	return ds, ok
}

// info reads a dataset's datatype and stored dims from its header.
func (f *File) info(path string) (datasetInfo, error) {
	ds, ok := f.dataset(path)
	if !ok {
		return datasetInfo{}, fmt.Errorf("dataset %s: %w", path, ErrNotFound)
	}
	s, err := ds.Info()
	if err != nil {
		return datasetInfo{}, fmt.Errorf("describing %s: %w", path, err)
	}
	info, err := parseDatasetInfo(s)
	if err != nil {
		return datasetInfo{}, fmt.Errorf("describing %s: %w", path, err)
	}
	return info, nil
}

// dtype names a dataset's element type for error messages.
func (f *File) dtype(path string) string {
	info, err := f.info(path)
	if err != nil {
		return "unknown type"
	}
	return info.dtype()
}

func (f *File) readNumbers(path string) ([]float64, error) {
	ds, ok := f.dataset(path)
	if !ok {
		return nil, fmt.Errorf("dataset %s: %w", path, ErrNotFound)
	}
	values, err := ds.Read()
	if err != nil {
		if info, ierr := f.info(path); ierr == nil && !info.numeric() {
			return nil, fmt.Errorf("reading %s: %w: %s", path, ErrUnsupportedDatatype, info.dtype())
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return values, nil
}

func (f *File) readRecords(path string) ([]map[string]any, error) {
	ds, ok := f.dataset(path)
	if !ok {
		return nil, fmt.Errorf("dataset %s: %w", path, ErrNotFound)
	}
	values, err := ds.ReadCompound()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w: %s: %w", path, ErrUnsupportedDatatype, f.dtype(path), err)
	}
	recs := make([]map[string]any, len(values))
	for i, v := range values {
		recs[i] = v
	}
	return recs, nil
}

// childrenWith lists the children of group that contain a dataset named leaf.
func (f *File) childrenWith(group string, leaves ...string) []string {
	var out []string
	for _, name := range children(f.paths, group) {
		for _, leaf := range leaves {
			if _, ok := f.dataset(join(group, name, leaf)); ok {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// SeriesNames lists the response series in the series group.
func (f *File) SeriesNames() ([]string, error) {
	return f.childrenWith(f.layout.SeriesGroup, "data"), nil
}

// Series reads one response series, oriented as (width, samples) using the
// stored dims. Timestamps are nil when the series has no timestamps dataset.
func (f *File) Series(name string) (*models.Series, error) {
	base := join(f.layout.SeriesGroup, name)
	info, err := f.info(join(base, "data"))
	if err != nil {
		return nil, err
	}
	values, err := f.readNumbers(join(base, "data"))
	if err != nil {
		return nil, err
	}

	var timestamps []float64
	if f.has(base, "timestamps") {
		if timestamps, err = f.readNumbers(join(base, "timestamps")); err != nil {
			return nil, err
		}
	}

	data, err := orientSeries(name, values, info.Dims, timestamps)
	if err != nil {
		return nil, err
	}
	return &models.Series{Name: name, Data: data, Timestamps: timestamps}, nil
}

// SeriesShape reports the dims of a series' data as stored, from its header.
func (f *File) SeriesShape(name string) ([]int, error) {
	info, err := f.info(join(f.layout.SeriesGroup, name, "data"))
	if err != nil {
		return nil, err
	}
	return info.Dims, nil
}

// IntervalTableNames lists the interval tables.
func (f *File) IntervalTableNames() ([]string, error) {
	return f.childrenWith(f.layout.IntervalsGroup, colStart), nil
}

// IntervalTable reads a DynamicTable of time intervals. Columns that decode
// neither as numbers nor as strings are skipped.
func (f *File) IntervalTable(name string) (*models.IntervalTable, error) {
	base := join(f.layout.IntervalsGroup, name)
	if _, ok := f.dataset(join(base, colStart)); !ok {
		return nil, fmt.Errorf("interval table %s: %w", name, ErrNotFound)
	}

	var cols []column
	for _, c := range children(f.paths, base) {
		ds, ok := f.dataset(join(base, c))
		if !ok {
			continue
		}
		if numbers, err := ds.Read(); err == nil {
			cols = append(cols, column{name: c, numbers: numbers})
			continue
		}
		strs, err := ds.ReadStrings()
		if err != nil {
			if c == colTrial {
				return nil, fmt.Errorf("interval table %s: %s column: %w: %s", name, c, ErrUnsupportedDatatype, f.dtype(join(base, c)))
			}
			logger.Debugf("interval table %s: skipping column %s: %v", name, c, err)
			continue
		}
		cols = append(cols, column{name: c, strings: strs})
	}

	table, skipped, err := buildIntervalTable(name, cols, trials.TrialFromFloat, trials.ParseTrialLabel)
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		logger.Debugf("interval table %s: skipped ragged columns %v", name, skipped)
	}
	return table, nil
}

// PlaneSegmentationNames lists the plane segmentations.
func (f *File) PlaneSegmentationNames() ([]string, error) {
	return f.childrenWith(f.layout.SegmentationGroup, "image_mask", "pixel_mask", "voxel_mask"), nil
}

// PlaneSegmentation reads one plane's ROI ids and masks.
func (f *File) PlaneSegmentation(name string) (*models.PlaneSegmentation, error) {
	base := join(f.layout.SegmentationGroup, name)
	ids, err := f.readNumbers(join(base, colID))
	if err != nil {
		return nil, fmt.Errorf("plane segmentation %s: %w", name, err)
	}

	plane := &models.PlaneSegmentation{Name: name, ROIIDs: make([]int64, len(ids))}
	for i, id := range ids {
		plane.ROIIDs[i] = int64(id)
	}

	switch {
	case f.has(base, "image_mask"):
		path := join(base, "image_mask")
		info, err := f.info(path)
		if err != nil {
			return nil, err
		}
		values, err := f.readNumbers(path)
		if err != nil {
			return nil, err
		}
		if len(info.Dims) < 2 || info.Dims[0] != len(ids) {
			return nil, fmt.Errorf("plane segmentation %s: %w: image mask dims %v for %d rois", name, ErrShapeMismatch, info.Dims, len(ids))
		}
		plane.ImageMask = &models.Array{Values: values, Dims: info.Dims}

	case f.has(base, "pixel_mask"):
		if plane.PixelMask, err = readSparseMask(f, base, "pixel_mask", pixelWeights, pixelRecords); err != nil {
			return nil, fmt.Errorf("plane segmentation %s: %w", name, err)
		}

	case f.has(base, "voxel_mask"):
		if plane.VoxelMask, err = readSparseMask(f, base, "voxel_mask", voxelWeights, voxelRecords); err != nil {
			return nil, fmt.Errorf("plane segmentation %s: %w", name, err)
		}
	}
	return plane, nil
}

func (f *File) has(base, leaf string) bool {
	_, ok := f.dataset(join(base, leaf))
	return ok
}

// readSparseMask reads an NWB ragged mask column and splits it per ROI. The
// mask may be compound records or a numeric (n, fields) array. Index columns
// the reader cannot decode make the mask unsupported.
func readSparseMask[T any](f *File, base, leaf string, fromFlat func([]float64) ([]T, error), fromRecords func([]map[string]any) ([]T, error)) ([][]T, error) {
	path := join(base, leaf)
	info, err := f.info(path)
	if err != nil {
		return nil, err
	}

	var weights []T
	if info.Class == "compound" {
		recs, err := f.readRecords(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedMask, err)
		}
		weights, err = fromRecords(recs)
		if err != nil {
			return nil, err
		}
	} else {
		flat, err := f.readNumbers(path)
		if err != nil {
			return nil, err
		}
		if weights, err = fromFlat(flat); err != nil {
			return nil, err
		}
	}

	index, err := f.readNumbers(path + "_index")
	if errors.Is(err, ErrUnsupportedDatatype) {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedMask, err)
	}
	if err != nil {
		return nil, err
	}
	return splitRagged(weights, index)
}
