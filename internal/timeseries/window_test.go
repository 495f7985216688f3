package timeseries

import (
	"testing"
	"time"
)

func TestWindowFor(t *testing.T) {
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		span time.Duration
		want time.Duration
	}{
		{time.Hour, 5 * time.Second},
		{6 * time.Hour, 5 * time.Second},
		{6*time.Hour + time.Second, time.Minute},
		{24 * time.Hour, time.Minute},
		{3 * 24 * time.Hour, 5 * time.Minute},
		{7 * 24 * time.Hour, 5 * time.Minute},
		{30 * 24 * time.Hour, 10 * time.Minute},
		{90 * 24 * time.Hour, 30 * time.Minute},
		{180 * 24 * time.Hour, time.Hour},
		{365 * 24 * time.Hour, 2 * time.Hour},
		{400 * 24 * time.Hour, 5 * time.Hour},
	}
	for _, tc := range cases {
		if got := WindowFor(end.Add(-tc.span), end); got != tc.want {
			t.Fatalf("WindowFor(span=%v)=%v want %v", tc.span, got, tc.want)
		}
	}
}

func TestWindowFor_NonDecreasing(t *testing.T) {
	end := time.Now().UTC()
	prev := time.Duration(0)
	for span := time.Hour; span <= 400*24*time.Hour; span += 6 * time.Hour {
		w := WindowFor(end.Add(-span), end)
		if w < prev {
			t.Fatalf("window shrank at span %v: %v < %v", span, w, prev)
		}
		prev = w
	}
}

func TestFluxDuration(t *testing.T) {
	cases := map[time.Duration]string{
		5 * time.Second:  "5s",
		time.Minute:      "1m",
		10 * time.Minute: "10m",
		time.Hour:        "1h",
		2 * time.Hour:    "2h",
		5 * time.Hour:    "5h",
	}
	for d, want := range cases {
		if got := FluxDuration(d); got != want {
			t.Fatalf("FluxDuration(%v)=%q want %q", d, got, want)
		}
	}
}
