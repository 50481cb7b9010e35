// Package burst finds the densest fixed-width window of star events
package burst

import (
	"slices"
	"time"
)

// Config tunes detection. A non-positive Window and a negative Threshold or
// MinEvents take the defaults; zero Threshold and MinEvents are honoured
type Config struct {
	// Window is the sliding window width W
	Window time.Duration
	// Threshold T; a ratio strictly above it is suspicious
	Threshold float64
	// MinEvents below which a result is never suspicious
	MinEvents int
}

// Defaults
const (
	DefaultWindow    = 24 * time.Hour
	DefaultThreshold = 0.6
	DefaultMinEvents = 2
)

// DefaultConfig returns the default window, threshold and minimum
func DefaultConfig() Config {
	return Config{Window: DefaultWindow, Threshold: DefaultThreshold, MinEvents: DefaultMinEvents}
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Threshold < 0 {
		c.Threshold = DefaultThreshold
	}
	if c.MinEvents < 0 {
		c.MinEvents = DefaultMinEvents
	}
	return c
}

// Result of one detection
type Result struct {
	Total       int
	MaxCount    int
	Ratio       float64
	Suspicious  bool
	WindowHours float64
	// WindowStart is the first event of the densest window; WindowEnd is
	// WindowStart + Window. Both zero when there are no events
	WindowStart time.Time
	WindowEnd   time.Time
}

// Detect slides a window [t_i, t_i+W] anchored at every event and keeps the
// largest count. The input is copied, never reordered in place
func Detect(times []time.Time, cfg Config) Result {
	cfg = cfg.withDefaults()
	res := Result{Total: len(times), WindowHours: cfg.Window.Hours()}
	if len(times) == 0 {
		return res
	}

	ts := slices.Clone(times)
	slices.SortStableFunc(ts, func(a, b time.Time) int { return a.Compare(b) })

	j, best, at := 0, 0, 0
	for i := range ts {
		end := ts[i].Add(cfg.Window)
		if j < i {
			j = i
		}
		for j < len(ts) && !ts[j].After(end) {
			j++
		}
		if n := j - i; n > best {
			best, at = n, i
		}
	}

	res.MaxCount = best
	res.Ratio = float64(best) / float64(len(ts))
	res.Suspicious = len(ts) >= cfg.MinEvents && res.Ratio > cfg.Threshold
	res.WindowStart = ts[at]
	res.WindowEnd = ts[at].Add(cfg.Window)
	return res
}
