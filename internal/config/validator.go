package config

import (
	"fmt"
	"strings"

	"github.com/eflab/nwbtrials/internal/trials"
	"github.com/eflab/nwbtrials/pkg/logger"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "session.reference_trial")
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks every field and returns all failures at once.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	s := c.Session
	if s.ReferenceTrial < 0 {
		add("session.reference_trial", s.ReferenceTrial, "must not be negative")
	}
	if len(s.Channels) == 0 {
		add("session.channels", s.Channels, "at least one channel is required")
	}
	for _, ch := range s.Channels {
		if ch == "" || strings.Contains(ch, trials.Separator) {
			add("session.channels", ch, "channel names must be non-empty and contain no "+trials.Separator)
			break
		}
	}
	if s.StimulusTable == "" {
		add("session.stimulus_table", s.StimulusTable, "must not be empty")
	}
	if _, err := trials.ParseIntervalOrder(s.IntervalOrder); err != nil {
		add("session.interval_order", s.IntervalOrder, "must be table or start_time")
	}
	if _, ok := logger.ParseLevel(c.Logging.Level); !ok {
		add("logging.level", c.Logging.Level, "must be debug, info, warn or error")
	}
	return errs
}
