package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Description explains when a cron spec fires.
type Description struct {
	Spec     string
	Summary  string
	NextRuns []time.Time
	TimeZone string
}

// Describe parses spec with the scheduler's parser and returns its next
// runs after from.
func (s *Scheduler) Describe(spec string, from time.Time, runs int) (Description, error) {
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return Description{}, fmt.Errorf("invalid spec %q: %w", spec, err)
	}

	next := make([]time.Time, 0, runs)
	current := from.In(s.config.Location)
	for i := 0; i < runs; i++ {
		current = schedule.Next(current)
		if current.IsZero() {
			break
		}
		next = append(next, current)
	}

	return Description{
		Spec:     spec,
		Summary:  summarize(spec),
		NextRuns: next,
		TimeZone: s.config.Location.String(),
	}, nil
}

// Validate reports whether spec parses.
func (s *Scheduler) Validate(spec string) error {
	_, err := s.parser.Parse(spec)
	return err
}

func summarize(spec string) string {
	switch spec {
	case "@yearly", "@annually":
		return "once a year (January 1st at midnight)"
	case "@monthly":
		return "once a month (1st day at midnight)"
	case "@weekly":
		return "once a week (Sunday at midnight)"
	case "@daily", "@midnight":
		return "once a day (at midnight)"
	case "@hourly":
		return "once an hour (at minute 0)"
	}
	return "custom schedule: " + spec
}

// cronLogger routes robfig/cron's logging through zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
