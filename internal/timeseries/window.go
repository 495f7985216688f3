package timeseries

import (
	"fmt"
	"time"
)

// windowSteps maps a queried span to the down-sampling window. Bounds the
// point count returned to a client regardless of range size.
var windowSteps = []struct {
	maxSpan time.Duration
	window  time.Duration
}{
	{6 * time.Hour, 5 * time.Second},
	{24 * time.Hour, time.Minute},
	{7 * 24 * time.Hour, 5 * time.Minute},
	{30 * 24 * time.Hour, 10 * time.Minute},
	{90 * 24 * time.Hour, 30 * time.Minute},
	{180 * 24 * time.Hour, time.Hour},
	{365 * 24 * time.Hour, 2 * time.Hour},
}

const maxWindow = 5 * time.Hour

// WindowFor picks the aggregation window for a time range. Deterministic and
// non-decreasing in the span.
func WindowFor(start, end time.Time) time.Duration {
	span := end.Sub(start)
	for _, step := range windowSteps {
		if span <= step.maxSpan {
			return step.window
		}
	}
	return maxWindow
}

// FluxDuration renders a window as a Flux duration literal.
func FluxDuration(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}
