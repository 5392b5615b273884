package nwbtrials

import (
	"github.com/eflab/nwbtrials/pkg/nwbtrials/nwbfile"
)

var _ Container = (*nwbfile.File)(nil)

// openNWBFile is the default Opener: an HDF5-backed NWB reader.
func openNWBFile(path string, cfg *Config) (Container, error) {
	f, err := nwbfile.Open(path, cfg.Layout)
	if err != nil {
		return nil, err
	}
	return f, nil
}
