// Package trials turns named response series into trial-aligned data: it
// parses series identifiers, anchors every trial to a reference trial,
// estimates sampling rates and joins stimulus intervals onto the samples.
package trials

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// TrialPrefix is the literal that precedes the trial number in identifiers.
	TrialPrefix = "Trial"
	// Separator splits the trial token from the channel token.
	Separator = "_"
)

// DefaultChannels is the channel vocabulary of dual-DMD recordings.
var DefaultChannels = []string{"DMD1", "DMD2"}

var (
	ErrMalformedName  = errors.New("malformed series identifier")
	ErrMalformedLabel = errors.New("malformed trial label")
)

// Logger receives advisory messages.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// SeriesKey is the trial and channel encoded in a series identifier.
type SeriesKey struct {
	Trial   int
	Channel string
}

// ParseSeriesName splits an identifier such as "Trial12_DMD2" into its trial
// number and channel id. The trial token is everything before the first
// separator and must be "Trial" followed by an unsigned integer.
func ParseSeriesName(name string, channels []string) (SeriesKey, error) {
	head, rest, _ := strings.Cut(name, Separator)
	digits, ok := strings.CutPrefix(head, TrialPrefix)
	if !ok || digits == "" {
		return SeriesKey{}, fmt.Errorf("%w: %q has no trial token", ErrMalformedName, name)
	}
	n, err := strconv.ParseUint(digits, 10, 31)
	if err != nil {
		return SeriesKey{}, fmt.Errorf("%w: %q: %v", ErrMalformedName, name, err)
	}
	return SeriesKey{Trial: int(n), Channel: matchChannel(name, rest, channels)}, nil
}

// matchChannel picks the channel of an identifier: a vocabulary token, then a
// vocabulary substring, then whatever follows the trial token. An identifier
// with nothing after its trial token is its own channel.
func matchChannel(name, rest string, channels []string) string {
	tokens := strings.Split(rest, Separator)
	for _, ch := range channels {
		for _, tok := range tokens {
			if tok == ch {
				return ch
			}
		}
	}
	for _, ch := range channels {
		if strings.Contains(name, ch) {
			return ch
		}
	}
	if rest == "" {
		return name
	}
	return rest
}

// ParseTrialLabel normalizes a trial label from an annotation table. It
// accepts "12", "12.0" and "Trial12".
func ParseTrialLabel(label string) (int, error) {
	s := strings.TrimSpace(label)
	s = strings.TrimPrefix(s, TrialPrefix)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%w: %q is negative", ErrMalformedLabel, label)
		}
		return int(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedLabel, label)
	}
	return TrialFromFloat(f)
}

// TrialFromFloat converts a numeric trial label, rejecting fractional,
// negative and non-finite values.
func TrialFromFloat(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %v is not a trial number", ErrMalformedLabel, f)
	}
	return int(f), nil
}
