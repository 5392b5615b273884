package nwbtrials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eflab/nwbtrials/internal/trials"
	"github.com/eflab/nwbtrials/pkg/nwbtrials/nwbfile"
)

var (
	ErrSessionClosed        = errors.New("session is closed")
	ErrNoSegmentations      = errors.New("no plane segmentations found")
	ErrSegmentationNotFound = errors.New("plane segmentation not found")
	ErrIntervalTableMissing = errors.New("interval table not found")
	ErrNilExtraction        = errors.New("nil extraction")

	// Re-exported so callers need not import the trial core.
	ErrReferenceTrialMissing = trials.ErrReferenceTrialMissing
	ErrMissingTimestamps     = trials.ErrMissingTimestamps
	ErrLengthMismatch        = trials.ErrLengthMismatch
	ErrClockMismatch         = trials.ErrClockMismatch
	ErrUnknownFeature        = trials.ErrUnknownFeature

	ErrUnsupportedMask     = nwbfile.ErrUnsupportedMask
	ErrUnsupportedDatatype = nwbfile.ErrUnsupportedDatatype
)

// SegmentationNotFoundError reports a missing plane and the planes that exist.
type SegmentationNotFoundError struct {
	Key       string
	Available []string
}

func (e *SegmentationNotFoundError) Error() string {
	return fmt.Sprintf("segmentation %q not found; available: %s", e.Key, strings.Join(e.Available, ", "))
}

func (e *SegmentationNotFoundError) Is(target error) bool {
	return target == ErrSegmentationNotFound
}
