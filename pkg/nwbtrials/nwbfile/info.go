package nwbfile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// datasetInfo is the datatype and stored shape of a dataset, read from its
// header without touching the data.
type datasetInfo struct {
	Class string // integer, float, string, compound, ...
	Size  int    // Element size in bytes
	Dims  []int  // Nil for scalars
}

var (
	infoTypeRe = regexp.MustCompile(`^Dataset: ([a-z_0-9]+) \(size=(\d+) bytes\)`)
	infoDimsRe = regexp.MustCompile(`(\d+)D array \[([^\]]*)\]`)
)

// parseDatasetInfo decodes the summary produced by hdf5.Dataset.Info, e.g.
// "Dataset: float (size=8 bytes), 2D array [4 x 3], contiguous (...)".
func parseDatasetInfo(s string) (datasetInfo, error) {
	m := infoTypeRe.FindStringSubmatch(s)
	if m == nil {
		return datasetInfo{}, fmt.Errorf("unrecognised dataset info %q", s)
	}
	size, _ := strconv.Atoi(m[2])
	info := datasetInfo{Class: m[1], Size: size}

	d := infoDimsRe.FindStringSubmatch(s)
	if d == nil {
		return info, nil
	}
	rank, _ := strconv.Atoi(d[1])
	fields := strings.Fields(strings.ReplaceAll(d[2], " x ", " "))
	if len(fields) != rank {
		return datasetInfo{}, fmt.Errorf("dataset info %q: %d dims listed for rank %d", s, len(fields), rank)
	}
	info.Dims = make([]int, rank)
	var err error
	for i, f := range fields {
		if info.Dims[i], err = strconv.Atoi(f); err != nil {
			return datasetInfo{}, fmt.Errorf("dataset info %q: %w", s, err)
		}
	}
	return info, nil
}

func (i datasetInfo) dtype() string {
	return fmt.Sprintf("%s (size=%d bytes)", i.Class, i.Size)
}

// numeric reports whether hdf5.Dataset.Read can convert the elements.
func (i datasetInfo) numeric() bool {
	switch i.Class {
	case "float", "integer":
		return i.Size == 4 || i.Size == 8
	}
	return false
}
