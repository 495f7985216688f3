package timeseries

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	// ErrInvalidRange marks a custom range with a missing start or start >= end.
	ErrInvalidRange = errors.New("invalid time range")
	// ErrInvalidFormat marks an unparseable relative-time shorthand.
	ErrInvalidFormat = errors.New("invalid time format")
	// ErrMappingNotFound marks a query for an asset/signal pair with no mapping.
	ErrMappingNotFound = errors.New("mapping not found")
)

type TimeRange string

const (
	RangeLastHour    TimeRange = "LastHour"
	RangeLast6Hours  TimeRange = "Last6Hours"
	RangeLast24Hours TimeRange = "Last24Hours"
	RangeLast7Days   TimeRange = "Last7Days"
	RangeLast30Days  TimeRange = "Last30Days"
	RangeCustom      TimeRange = "Custom"
)

// RangeSpec is a requested query window: either a named relative range or a
// custom pair. End is optional for Custom and defaults to now.
type RangeSpec struct {
	Range TimeRange
	Start *time.Time
	End   *time.Time
}

// Resolve computes the concrete [start, end) window at the given instant.
func (r RangeSpec) Resolve(now time.Time) (time.Time, time.Time, error) {
	switch r.Range {
	case RangeLastHour:
		return now.Add(-time.Hour), now, nil
	case RangeLast6Hours:
		return now.Add(-6 * time.Hour), now, nil
	case RangeLast24Hours:
		return now.Add(-24 * time.Hour), now, nil
	case RangeLast7Days:
		return now.AddDate(0, 0, -7), now, nil
	case RangeLast30Days:
		return now.AddDate(0, 0, -30), now, nil
	case RangeCustom:
		if r.Start == nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start date is required for a custom range", ErrInvalidRange)
		}
		start := r.Start.UTC()
		end := now
		if r.End != nil {
			end = r.End.UTC()
		}
		if !start.Before(end) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start must be before end", ErrInvalidRange)
		}
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unsupported time range %q", ErrInvalidRange, string(r.Range))
	}
}

var relativePattern = regexp.MustCompile(`^-(\d+)([hd])$`)

// ParseRelativeTime resolves shorthand like "-1h", "-24h" or "-7d" against
// the given instant. Anything else fails with ErrInvalidFormat.
func ParseRelativeTime(raw string, now time.Time) (time.Time, error) {
	match := relativePattern.FindStringSubmatch(raw)
	if match == nil {
		return time.Time{}, fmt.Errorf("%w: %q (use -<N>h or -<N>d)", ErrInvalidFormat, raw)
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
	switch match[2] {
	case "h":
		return now.Add(-time.Duration(n) * time.Hour), nil
	case "d":
		return now.AddDate(0, 0, -n), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
}

// ParseStartTime accepts either an ISO-8601 timestamp or the relative
// shorthand used by the legacy series endpoint.
func ParseStartTime(raw string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if len(raw) > 0 && raw[0] == '-' {
		return ParseRelativeTime(raw, now)
	}
	return time.Time{}, fmt.Errorf("%w: %q (use ISO 8601 or -<N>h/-<N>d)", ErrInvalidFormat, raw)
}
