package nwbfile

import (
	"path/filepath"
	"testing"

	"github.com/eflab/nwbtrials/pkg/models"
	"github.com/scigolib/hdf5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureWriter builds small NWB-shaped files for reader tests.
type fixtureWriter struct {
	t  *testing.T
	fw *hdf5.FileWriter
}

func newFixture(t *testing.T, groups ...string) (*fixtureWriter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.nwb")
	fw, err := hdf5.CreateForWrite(path, hdf5.CreateTruncate)
	require.NoError(t, err)
	w := &fixtureWriter{t: t, fw: fw}
	for _, g := range groups {
		w.group(g)
	}
	return w, path
}

func (w *fixtureWriter) group(path string) {
	w.t.Helper()
	_, err := w.fw.CreateGroup(path)
	require.NoError(w.t, err, path)
}

func (w *fixtureWriter) dataset(path string, dtype hdf5.Datatype, dims []uint64, data any, opts ...hdf5.DatasetOption) {
	w.t.Helper()
	dw, err := w.fw.CreateDataset(path, dtype, dims, opts...)
	require.NoError(w.t, err, path)
	require.NoError(w.t, dw.Write(data), path)
}

func (w *fixtureWriter) floats(path string, dims []uint64, data []float64) {
	w.t.Helper()
	w.dataset(path, hdf5.Float64, dims, data)
}

func (w *fixtureWriter) strings(path string, data []string) {
	w.t.Helper()
	w.dataset(path, hdf5.String, []uint64{uint64(len(data))}, data, hdf5.WithStringSize(16))
}

func (w *fixtureWriter) close() {
	w.t.Helper()
	require.NoError(w.t, w.fw.Close())
}

func openFixture(t *testing.T, path string) *File {
	t.Helper()
	f, err := Open(path, DefaultLayout())
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func writeSeriesFixture(t *testing.T) string {
	const dff = "/processing/ophys/DfOverF"
	w, path := newFixture(t, "/processing", "/processing/ophys", dff,
		dff+"/Trial1_DMD1", dff+"/Trial2_DMD1", dff+"/Trial3_DMD1")

	// Time-major: 4 samples of 3 rois, value = sample*10 + roi.
	data := make([]float64, 0, 12)
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			data = append(data, float64(i*10+j))
		}
	}
	w.floats(dff+"/Trial1_DMD1/data", []uint64{4, 3}, data)
	w.floats(dff+"/Trial1_DMD1/timestamps", []uint64{4}, []float64{0, 0.5, 1, 1.5})

	w.floats(dff+"/Trial2_DMD1/data", []uint64{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	w.floats(dff+"/Trial2_DMD1/timestamps", []uint64{3}, []float64{0, 1, 2})

	w.floats(dff+"/Trial3_DMD1/data", []uint64{5}, []float64{1, 2, 3, 4, 5})
	w.close()
	return path
}

func TestReaderSeries(t *testing.T) {
	f := openFixture(t, writeSeriesFixture(t))

	names, err := f.SeriesNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Trial1_DMD1", "Trial2_DMD1", "Trial3_DMD1"}, names)

	s, err := f.Series("Trial1_DMD1")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, s.Data.Dims)
	assert.Equal(t, []float64{0, 10, 20, 30, 1, 11, 21, 31, 2, 12, 22, 32}, s.Data.Values)
	assert.Equal(t, []float64{0, 0.5, 1, 1.5}, s.Timestamps)

	shape, err := f.SeriesShape("Trial1_DMD1")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3}, shape)

	s, err = f.Series("Trial2_DMD1")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, s.Data.Dims)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, s.Data.Values)

	s, err = f.Series("Trial3_DMD1")
	require.NoError(t, err)
	assert.Nil(t, s.Timestamps)
	assert.Equal(t, []int{1, 5}, s.Data.Dims)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, s.Data.Values)

	_, err = f.Series("Trial9_DMD1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReaderSeriesShapeMismatch(t *testing.T) {
	const dff = "/processing/ophys/DfOverF"
	w, path := newFixture(t, "/processing", "/processing/ophys", dff, dff+"/Trial1_DMD1")
	w.floats(dff+"/Trial1_DMD1/data", []uint64{2, 2}, []float64{1, 2, 3, 4})
	w.floats(dff+"/Trial1_DMD1/timestamps", []uint64{3}, []float64{0, 1, 2})
	w.close()

	f := openFixture(t, path)
	_, err := f.Series("Trial1_DMD1")
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func writeIntervalFixture(t *testing.T) string {
	w, path := newFixture(t, "/intervals", "/intervals/stimulus_presentations",
		"/intervals/labelled", "/intervals/untrialled", "/intervals/narrow")

	const stim = "/intervals/stimulus_presentations"
	w.dataset(stim+"/id", hdf5.Int64, []uint64{3}, []int64{0, 1, 2})
	w.floats(stim+"/start_time", []uint64{3}, []float64{0, 2, 4})
	w.floats(stim+"/stop_time", []uint64{3}, []float64{1, 3, 5})
	w.dataset(stim+"/trial", hdf5.Int64, []uint64{3}, []int64{1, 2, 3})
	w.floats(stim+"/orientation", []uint64{3}, []float64{0, 45, 90})
	w.strings(stim+"/stimulus", []string{"grating", "grating", "blank"})

	w.floats("/intervals/labelled/start_time", []uint64{2}, []float64{0, 2})
	w.floats("/intervals/labelled/stop_time", []uint64{2}, []float64{1, 3})
	w.strings("/intervals/labelled/trial", []string{"1", "Trial2"})

	w.floats("/intervals/untrialled/start_time", []uint64{2}, []float64{0, 2})
	w.floats("/intervals/untrialled/stop_time", []uint64{2}, []float64{1, 3})

	w.floats("/intervals/narrow/start_time", []uint64{2}, []float64{0, 2})
	w.floats("/intervals/narrow/stop_time", []uint64{2}, []float64{1, 3})
	w.dataset("/intervals/narrow/trial", hdf5.Uint8, []uint64{2}, []uint8{1, 2})
	w.close()
	return path
}

func rowTrials(table *models.IntervalTable) []int {
	out := make([]int, len(table.Rows))
	for i, r := range table.Rows {
		out[i] = r.Trial
	}
	return out
}

func TestReaderIntervalTable(t *testing.T) {
	f := openFixture(t, writeIntervalFixture(t))

	names, err := f.IntervalTableNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"labelled", "narrow", "stimulus_presentations", "untrialled"}, names)

	table, err := f.IntervalTable("stimulus_presentations")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"orientation", "stimulus"}, table.Columns)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []int{1, 2, 3}, rowTrials(table))
	assert.Equal(t, 2.0, table.Rows[1].Start)
	assert.Equal(t, 3.0, table.Rows[1].Stop)
	assert.Equal(t, 45.0, table.Rows[1].Features["orientation"])
	assert.Equal(t, "blank", table.Rows[2].Labels["stimulus"])

	table, err = f.IntervalTable("labelled")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, rowTrials(table))
	assert.Empty(t, table.Columns)

	_, err = f.IntervalTable("untrialled")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "trial")

	_, err = f.IntervalTable("narrow")
	assert.ErrorIs(t, err, ErrUnsupportedDatatype)
	assert.ErrorContains(t, err, "integer (size=1 bytes)")

	_, err = f.IntervalTable("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func writePlaneFixture(t *testing.T) string {
	const seg = "/processing/ophys/ImageSegmentation"
	w, path := newFixture(t, "/processing", "/processing/ophys", seg,
		seg+"/DMD1_plane_segmentation", seg+"/DMD2_plane_segmentation", seg+"/DMD3_plane_segmentation")

	dense := seg + "/DMD1_plane_segmentation"
	w.dataset(dense+"/id", hdf5.Int64, []uint64{2}, []int64{7, 9})
	w.floats(dense+"/image_mask", []uint64{2, 2, 2}, []float64{0, 1, 2, 3, 4, 5, 6, 7})

	sparse := seg + "/DMD2_plane_segmentation"
	w.dataset(sparse+"/id", hdf5.Int64, []uint64{2}, []int64{0, 1})
	w.floats(sparse+"/pixel_mask", []uint64{3, 3}, []float64{0, 0, 1, 1, 0, 0.5, 1, 1, 0.25})
	w.dataset(sparse+"/pixel_mask_index", hdf5.Uint32, []uint64{2}, []uint32{1, 3})

	narrow := seg + "/DMD3_plane_segmentation"
	w.dataset(narrow+"/id", hdf5.Int64, []uint64{1}, []int64{0})
	w.floats(narrow+"/pixel_mask", []uint64{1, 3}, []float64{2, 3, 1})
	w.dataset(narrow+"/pixel_mask_index", hdf5.Uint8, []uint64{1}, []uint8{1})
	w.close()
	return path
}

func TestReaderPlaneSegmentation(t *testing.T) {
	f := openFixture(t, writePlaneFixture(t))

	names, err := f.PlaneSegmentationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"DMD1_plane_segmentation", "DMD2_plane_segmentation", "DMD3_plane_segmentation"}, names)

	plane, err := f.PlaneSegmentation("DMD1_plane_segmentation")
	require.NoError(t, err)
	assert.Equal(t, models.MaskImage, plane.Kind())
	assert.Equal(t, []int64{7, 9}, plane.ROIIDs)
	require.NotNil(t, plane.ImageMask)
	assert.Equal(t, []int{2, 2, 2}, plane.ImageMask.Dims)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7}, plane.ImageMask.Values)

	plane, err = f.PlaneSegmentation("DMD2_plane_segmentation")
	require.NoError(t, err)
	assert.Equal(t, models.MaskPixel, plane.Kind())
	assert.Equal(t, [][]models.PixelWeight{
		{{X: 0, Y: 0, Weight: 1}},
		{{X: 1, Y: 0, Weight: 0.5}, {X: 1, Y: 1, Weight: 0.25}},
	}, plane.PixelMask)

	_, err = f.PlaneSegmentation("DMD3_plane_segmentation")
	assert.ErrorIs(t, err, ErrUnsupportedMask)
	assert.ErrorIs(t, err, ErrUnsupportedDatatype)
	assert.ErrorContains(t, err, "integer (size=1 bytes)")
}

func TestReaderOpenAndClose(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.nwb"), DefaultLayout())
	assert.Error(t, err)

	path := writeSeriesFixture(t)
	f, err := Open(path, DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, path, f.Path())
	assert.Positive(t, f.Size())
	require.NoError(t, f.Close())
	assert.NoError(t, f.Close())
}
