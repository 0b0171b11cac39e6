package domain

import (
	"errors"
	"time"
)

type RecurrenceFrequency string

const (
	RecurrenceFrequencyDaily  RecurrenceFrequency = "daily"
	RecurrenceFrequencyWeekly RecurrenceFrequency = "weekly"
)

// MaxSeriesOccurrences bounds series expansion so an open-ended or mistyped
// rule cannot produce unbounded work.
const MaxSeriesOccurrences = 366

// RecurrenceRule describes how a series anchor repeats. Exactly one of Count
// or Until must be set.
type RecurrenceRule struct {
	Frequency RecurrenceFrequency `json:"frequency"`
	Interval  int                 `json:"interval"`
	Count     *int                `json:"count,omitempty"`
	Until     *time.Time          `json:"until,omitempty"`
}

// Occurrence is one concrete interval produced by expanding a rule.
type Occurrence struct {
	StartTime time.Time
	EndTime   time.Time
}

var (
	ErrUnsupportedFrequency = errors.New("unsupported recurrence frequency")
	ErrRuleUnbounded        = errors.New("recurrence rule requires count or until")
	ErrRuleOverbounded      = errors.New("recurrence rule sets both count and until")
	ErrTooManyOccurrences   = errors.New("recurrence rule produces too many occurrences")
)

// ExpandRule materializes every occurrence of a series, anchor included. The
// anchor interval is stepped forward by whole days in UTC.
func ExpandRule(start, end time.Time, rule RecurrenceRule) ([]Occurrence, error) {
	if !end.After(start) {
		return nil, errors.New("end must be after start")
	}

	var stepDays int
	switch rule.Frequency {
	case RecurrenceFrequencyDaily:
		stepDays = 1
	case RecurrenceFrequencyWeekly:
		stepDays = 7
	default:
		return nil, ErrUnsupportedFrequency
	}

	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}
	stepDays *= interval

	if rule.Count == nil && rule.Until == nil {
		return nil, ErrRuleUnbounded
	}
	if rule.Count != nil && rule.Until != nil {
		return nil, ErrRuleOverbounded
	}
	if rule.Count != nil {
		if *rule.Count < 1 {
			return nil, errors.New("count must be at least 1")
		}
		if *rule.Count > MaxSeriesOccurrences {
			return nil, ErrTooManyOccurrences
		}
	}

	start = start.UTC()
	end = end.UTC()

	var until time.Time
	if rule.Until != nil {
		until = rule.Until.UTC()
		if until.Before(start) {
			return nil, errors.New("until must not precede start")
		}
	}

	out := make([]Occurrence, 0, 8)
	for i := 0; ; i++ {
		if rule.Count != nil && i >= *rule.Count {
			break
		}

		occStart := start.AddDate(0, 0, i*stepDays)
		if rule.Until != nil && occStart.After(until) {
			break
		}
		if len(out) >= MaxSeriesOccurrences {
			return nil, ErrTooManyOccurrences
		}

		out = append(out, Occurrence{
			StartTime: occStart,
			EndTime:   end.AddDate(0, 0, i*stepDays),
		})
	}

	return out, nil
}
