package analysis

import (
	"fmt"
	"math"
	"time"

	"babytrack/internal/store"
)

// partialThreshold marks a window as still accumulating when its end
// boundary is this close to now.
const partialThreshold = 30 * time.Minute

// Window is a half-open analysis interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Validate rejects windows whose end is not strictly after start.
func (w Window) Validate() error {
	if !w.End.After(w.Start) {
		return fmt.Errorf("%w: start=%s end=%s", ErrInvalidWindow,
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// Hours returns the window length in hours.
func (w Window) Hours() float64 {
	return w.End.Sub(w.Start).Hours()
}

// Baseline returns the same-length window immediately preceding this
// one.
func (w Window) Baseline() Window {
	d := w.End.Sub(w.Start)
	return Window{Start: w.Start.Add(-d), End: w.Start}
}

// Context carries the temporal facts the prompt assembler needs. Built
// once per request, then read-only.
type Context struct {
	Window           Window
	IsPartial        bool
	HoursElapsed     float64
	FeedingsExpected int
	BaselineCount    int
	BaselineVolume   int
	BaselineLabel    string
}

// BuildContext aggregates the window, the baseline feedings and the
// baby's age into a Context. Pure: no I/O, deterministic given inputs.
// The window must have been validated by the caller.
func BuildContext(win Window, now time.Time, baselineFeedings []store.Feeding, birthDate time.Time) Context {
	hours := win.Hours()

	baselineVolume := 0
	for _, f := range baselineFeedings {
		baselineVolume += f.QuantityML
	}

	expected := int(math.Round(expectedRate(ageInDays(birthDate, now)) * hours))
	if expected < 1 {
		expected = 1
	}

	return Context{
		Window:           win,
		IsPartial:        now.Sub(win.End) < partialThreshold,
		HoursElapsed:     hours,
		FeedingsExpected: expected,
		BaselineCount:    len(baselineFeedings),
		BaselineVolume:   baselineVolume,
		BaselineLabel:    fmt.Sprintf("previous %s", formatHours(hours)),
	}
}

// expectedRate returns the heuristic feedings-per-hour rate for an age
// in days. Retrieved guideline ranges take precedence over this table
// in the assembled prompt.
func expectedRate(ageDays int) float64 {
	switch {
	case ageDays < 30:
		return 9.0 / 24
	case ageDays < 60:
		return 7.5 / 24
	case ageDays < 120:
		return 6.0 / 24
	default:
		return 5.0 / 24
	}
}

func ageInDays(birthDate, now time.Time) int {
	return int(now.Sub(birthDate).Hours() / 24)
}

// AgeBucket renders an age for display: days under two weeks, weeks
// under eight weeks, months otherwise.
func AgeBucket(birthDate, now time.Time) string {
	days := ageInDays(birthDate, now)
	switch {
	case days < 14:
		return fmt.Sprintf("%d days", days)
	case days/7 < 8:
		return fmt.Sprintf("%d weeks", days/7)
	default:
		return fmt.Sprintf("%d months", days/30)
	}
}

func formatHours(h float64) string {
	if h == math.Trunc(h) {
		return fmt.Sprintf("%.0f hours", h)
	}
	return fmt.Sprintf("%.1f hours", h)
}
