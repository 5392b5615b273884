package nwbfile

import (
	"testing"

	"github.com/eflab/nwbtrials/internal/trials"
	"github.com/eflab/nwbtrials/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinAndCleanPath(t *testing.T) {
	assert.Equal(t, "processing/ophys/DfOverF", cleanPath("/processing/ophys/DfOverF/"))
	assert.Equal(t, "intervals/stim/start_time", join("/intervals/", "", "stim", "start_time"))
}

func TestChildren(t *testing.T) {
	paths := []string{
		"/processing",
		"/processing/ophys",
		"/processing/ophys/DfOverF",
		"/processing/ophys/DfOverF/Trial2_DMD1",
		"/processing/ophys/DfOverF/Trial2_DMD1/data",
		"/processing/ophys/DfOverF/Trial1_DMD1/data",
		"/processing/ophys/DfOverF/Trial1_DMD1/timestamps",
		"/processing/ophys/DfOverFExtra/x",
	}
	got := children(paths, "processing/ophys/DfOverF")
	assert.Equal(t, []string{"Trial1_DMD1", "Trial2_DMD1"}, got)
	assert.Empty(t, children(paths, "intervals"))
}

func TestOrientSeries(t *testing.T) {
	// Time-major (4 samples, 3 rois): value = sample*10 + roi.
	stored := []float64{0, 1, 2, 10, 11, 12, 20, 21, 22, 30, 31, 32}
	a, err := orientSeries("Trial1_DMD1", stored, []int{4, 3}, make([]float64, 4))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, a.Dims)
	assert.Equal(t, []float64{0, 10, 20, 30, 1, 11, 21, 31, 2, 12, 22, 32}, a.Values)

	a, err = orientSeries("Trial1_DMD1", stored, []int{3, 4}, make([]float64, 4))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, a.Dims)
	assert.Equal(t, stored, a.Values)

	a, err = orientSeries("Trial1_DMD1", []float64{1, 2, 3}, []int{3}, make([]float64, 3))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, a.Dims)

	a, err = orientSeries("Trial1_DMD1", []float64{1, 2, 3, 4}, []int{2, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 2, 4}, a.Values)

	a, err = orientSeries("Trial1_DMD1", nil, []int{0, 3}, []float64{})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0}, a.Dims)

	_, err = orientSeries("Trial1_DMD1", make([]float64, 12), []int{4, 3}, make([]float64, 5))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = orientSeries("Trial1_DMD1", make([]float64, 10), []int{4, 3}, make([]float64, 4))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = orientSeries("Trial1_DMD1", make([]float64, 8), []int{2, 2, 2}, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestParseDatasetInfo(t *testing.T) {
	tests := []struct {
		in      string
		want    datasetInfo
		numeric bool
	}{
		{"Dataset: float (size=8 bytes), 2D array [4 x 3], contiguous (address=0x800, size=96)",
			datasetInfo{Class: "float", Size: 8, Dims: []int{4, 3}}, true},
		{"Dataset: integer (size=1 bytes), 1D array [2], contiguous (address=0x800, size=2)",
			datasetInfo{Class: "integer", Size: 1, Dims: []int{2}}, false},
		{"Dataset: compound (size=12 bytes), 1D array [5], contiguous (address=0x800, size=60)",
			datasetInfo{Class: "compound", Size: 12, Dims: []int{5}}, false},
		{"Dataset: float (size=4 bytes), 3D array [2 3 4], chunked (chunks=[1 3 4])",
			datasetInfo{Class: "float", Size: 4, Dims: []int{2, 3, 4}}, true},
		{"Dataset: integer (size=8 bytes), scalar, compact (size=8)",
			datasetInfo{Class: "integer", Size: 8}, true},
	}
	for _, tt := range tests {
		got, err := parseDatasetInfo(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.numeric, got.numeric(), tt.in)
	}

	_, err := parseDatasetInfo("Group: /x")
	assert.Error(t, err)
	assert.Equal(t, "integer (size=2 bytes)", datasetInfo{Class: "integer", Size: 2}.dtype())
}

func TestSplitRagged(t *testing.T) {
	rows, err := splitRagged([]int{1, 2, 3, 4, 5}, []float64{2, 2, 5})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {}, {3, 4, 5}}, rows)

	_, err = splitRagged([]int{1, 2}, []float64{3})
	assert.ErrorIs(t, err, ErrRaggedIndex)

	_, err = splitRagged([]int{1, 2}, []float64{2, 1})
	assert.ErrorIs(t, err, ErrRaggedIndex)
}

func TestPixelAndVoxelWeights(t *testing.T) {
	px, err := pixelWeights([]float64{1, 2, 0.5, 3, 4, 1})
	require.NoError(t, err)
	assert.Equal(t, []models.PixelWeight{{X: 1, Y: 2, Weight: 0.5}, {X: 3, Y: 4, Weight: 1}}, px)

	_, err = pixelWeights([]float64{1, 2})
	assert.Error(t, err)

	vx, err := voxelWeights([]float64{1, 2, 3, 0.25})
	require.NoError(t, err)
	assert.Equal(t, []models.VoxelWeight{{X: 1, Y: 2, Z: 3, Weight: 0.25}}, vx)
}

func TestMaskRecords(t *testing.T) {
	px, err := pixelRecords([]map[string]any{
		{"x": int32(3), "y": int32(4), "weight": float32(0.5)},
		{"x": uint32(5), "y": int64(6), "weight": 1.0},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.PixelWeight{{X: 3, Y: 4, Weight: 0.5}, {X: 5, Y: 6, Weight: 1}}, px)

	_, err = pixelRecords([]map[string]any{{"x": int32(1), "y": "2", "weight": float32(1)}})
	assert.ErrorContains(t, err, `"y"`)

	_, err = pixelRecords([]map[string]any{{"x": int32(1), "weight": float32(1)}})
	assert.Error(t, err)

	vx, err := voxelRecords([]map[string]any{{"x": int32(1), "y": int32(2), "z": int32(3), "weight": float32(0.25)}})
	require.NoError(t, err)
	assert.Equal(t, []models.VoxelWeight{{X: 1, Y: 2, Z: 3, Weight: 0.25}}, vx)
}

func TestBuildIntervalTable(t *testing.T) {
	cols := []column{
		{name: "contrast", numbers: []float64{0.5, 1}},
		{name: "id", numbers: []float64{0, 1}},
		{name: "start_time", numbers: []float64{1, 3}},
		{name: "stimulus_name", strings: []string{"grating", "blank"}},
		{name: "stop_time", numbers: []float64{2, 4}},
		{name: "tags", strings: []string{"a", "b", "c"}},
		{name: "trial", strings: []string{"1", "Trial2"}},
	}

	table, skipped, err := buildIntervalTable("stimulus_presentations", cols, trials.TrialFromFloat, trials.ParseTrialLabel)
	require.NoError(t, err)
	assert.Equal(t, []string{"tags"}, skipped)
	assert.Equal(t, []string{"contrast", "stimulus_name"}, table.Columns)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, 1, table.Rows[0].Trial)
	assert.Equal(t, 2, table.Rows[1].Trial)
	assert.Equal(t, 3.0, table.Rows[1].Start)
	assert.Equal(t, 4.0, table.Rows[1].Stop)
	assert.Equal(t, 0.5, table.Rows[0].Features["contrast"])
	assert.Equal(t, "blank", table.Rows[1].Labels["stimulus_name"])
}

func TestBuildIntervalTableNumericTrials(t *testing.T) {
	cols := []column{
		{name: "start_time", numbers: []float64{0}},
		{name: "stop_time", numbers: []float64{1}},
		{name: "trial", numbers: []float64{4}},
	}
	table, _, err := buildIntervalTable("t", cols, trials.TrialFromFloat, trials.ParseTrialLabel)
	require.NoError(t, err)
	assert.Equal(t, 4, table.Rows[0].Trial)

	cols[2].numbers = []float64{4.5}
	_, _, err = buildIntervalTable("t", cols, trials.TrialFromFloat, trials.ParseTrialLabel)
	assert.ErrorIs(t, err, trials.ErrMalformedLabel)
}

func TestBuildIntervalTableRequiresWindows(t *testing.T) {
	_, _, err := buildIntervalTable("t", []column{{name: "start_time", numbers: []float64{0}}}, trials.TrialFromFloat, trials.ParseTrialLabel)
	assert.ErrorIs(t, err, ErrNotFound)

	noTrial := []column{
		{name: "start_time", numbers: []float64{0, 1}},
		{name: "stop_time", numbers: []float64{1, 2}},
		{name: "orientation", numbers: []float64{90, 45}},
	}
	_, _, err = buildIntervalTable("t", noTrial, trials.TrialFromFloat, trials.ParseTrialLabel)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "trial")

	shortTrial := append(noTrial, column{name: "trial", numbers: []float64{1}})
	_, _, err = buildIntervalTable("t", shortTrial, trials.TrialFromFloat, trials.ParseTrialLabel)
	assert.ErrorContains(t, err, "trial has 1 rows")
}
