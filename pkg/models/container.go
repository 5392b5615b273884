package models

// Array is a dense row-major array of samples.
type Array struct {
	Values []float64
	Dims   []int
}

// Len returns the number of elements described by Dims.
func (a Array) Len() int {
	if len(a.Dims) == 0 {
		return 0
	}
	n := 1
	for _, d := range a.Dims {
		n *= d
	}
	return n
}

// Series is one named response series as stored in the container.
type Series struct {
	Name       string
	Data       Array     // (width, samples)
	Timestamps []float64 // nil when the series carries no timestamp vector
}

// Interval is one row of an interval table.
type Interval struct {
	Trial    int // Normalized trial label
	Start    float64
	Stop     float64
	Features map[string]float64 // Numeric columns
	Labels   map[string]string  // Text columns
}

// IntervalTable is a row-oriented annotation table (e.g. stimulus presentations).
type IntervalTable struct {
	Name    string
	Columns []string // Feature and label column names, in table order
	Rows    []Interval
}

// HasColumn reports whether name is one of the table's feature or label columns.
func (t *IntervalTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MaskKind identifies how a plane segmentation stores its ROI masks.
type MaskKind int

const (
	MaskNone MaskKind = iota
	MaskImage
	MaskPixel
	MaskVoxel
)

func (k MaskKind) String() string {
	switch k {
	case MaskImage:
		return "image_mask"
	case MaskPixel:
		return "pixel_mask"
	case MaskVoxel:
		return "voxel_mask"
	default:
		return "none"
	}
}

// PixelWeight is one entry of a sparse pixel mask.
type PixelWeight struct {
	X, Y   uint32
	Weight float32
}

// VoxelWeight is one entry of a sparse voxel mask.
type VoxelWeight struct {
	X, Y, Z uint32
	Weight  float32
}

// PlaneSegmentation is a named set of ROI masks over one imaging plane.
// Exactly one of ImageMask, PixelMask and VoxelMask is populated.
type PlaneSegmentation struct {
	Name      string
	ROIIDs    []int64
	ImageMask *Array          // (rois, pixels...) dense weights
	PixelMask [][]PixelWeight // One list per ROI
	VoxelMask [][]VoxelWeight // One list per ROI
}

// Kind reports which mask representation the plane uses.
func (p *PlaneSegmentation) Kind() MaskKind {
	switch {
	case p.ImageMask != nil:
		return MaskImage
	case p.PixelMask != nil:
		return MaskPixel
	case p.VoxelMask != nil:
		return MaskVoxel
	default:
		return MaskNone
	}
}

// ROIMasks are the masks of one plane in a representation the loaders support.
type ROIMasks struct {
	Plane  string
	Kind   MaskKind
	ROIIDs []int64
	Image  *Array
	Pixels [][]PixelWeight
}

// ROI returns the dense weights of the i-th ROI. It returns nil for sparse
// masks or an out-of-range index.
func (m *ROIMasks) ROI(i int) []float64 {
	if m.Image == nil || len(m.Image.Dims) < 2 || i < 0 || i >= m.Image.Dims[0] {
		return nil
	}
	per := m.Image.Len() / m.Image.Dims[0]
	return m.Image.Values[i*per : (i+1)*per]
}

// PlaneSummary describes a plane segmentation without its mask data.
type PlaneSummary struct {
	Name    string
	NumROIs int
	Kind    MaskKind
}
