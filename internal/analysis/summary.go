package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"babytrack/internal/store"
)

// summarizeEvents renders the event summary section: totals, type
// breakdown, per-day averages and the full chronological listing, plus
// diaper counts and the latest weight when present. Per-day averages
// divide by days that actually have a feeding, never by the calendar
// span, so unrecorded days do not dilute them.
func summarizeEvents(ev Events) string {
	var b strings.Builder

	if len(ev.Feedings) == 0 {
		b.WriteString("No feedings recorded in this period.")
	} else {
		feedings := make([]store.Feeding, len(ev.Feedings))
		copy(feedings, ev.Feedings)
		sort.Slice(feedings, func(i, j int) bool { return feedings[i].FedAt.Before(feedings[j].FedAt) })

		totalML := 0
		byDay := map[string]int{}
		volumeByDay := map[string]int{}
		types := map[store.FeedingType]int{}
		for _, f := range feedings {
			totalML += f.QuantityML
			day := f.FedAt.Format("2006-01-02")
			byDay[day]++
			volumeByDay[day] += f.QuantityML
			types[f.Type]++
		}

		fmt.Fprintf(&b, "Number of feedings: %d\n", len(feedings))
		fmt.Fprintf(&b, "Total volume: %d ml\n", totalML)
		fmt.Fprintf(&b, "Feeding type: %s\n", typeLabel(types))

		if activeDays := len(byDay); activeDays > 1 {
			fmt.Fprintf(&b, "Averages over %d days with recorded feedings: %.1f feedings/day, %.0f ml/day\n",
				activeDays, float64(len(feedings))/float64(activeDays), float64(totalML)/float64(activeDays))
		}

		b.WriteString("Chronological listing:\n")
		for _, f := range feedings {
			fmt.Fprintf(&b, "- %s: %d ml (%s)", f.FedAt.Format("Jan 2 15:04"), f.QuantityML, f.Type)
			if f.Notes != "" {
				fmt.Fprintf(&b, " (note: %s)", f.Notes)
			}
			b.WriteString("\n")
		}
	}

	if len(ev.Diapers) > 0 {
		pee, poop := 0, 0
		for _, d := range ev.Diapers {
			if d.HasPee {
				pee++
			}
			if d.HasPoop {
				poop++
			}
		}
		fmt.Fprintf(&b, "\nDiapers: %d changes (%d wet, %d dirty)\n", len(ev.Diapers), pee, poop)
	}

	if len(ev.Weights) > 0 {
		latest := ev.Weights[0]
		for _, w := range ev.Weights[1:] {
			if w.MeasuredAt.After(latest.MeasuredAt) {
				latest = w
			}
		}
		fmt.Fprintf(&b, "\nLatest weight: %d g on %s\n", latest.Grams, latest.MeasuredAt.Format("Jan 2"))
	}

	return strings.TrimRight(b.String(), "\n")
}

func typeLabel(types map[store.FeedingType]int) string {
	_, bottle := types[store.FeedingBottle]
	_, breast := types[store.FeedingBreast]
	switch {
	case bottle && breast:
		return "mixed (bottle + breastfeeding)"
	case breast:
		return "breastfeeding only"
	default:
		return "bottle only"
	}
}

// collectNotes gathers free-text notes from all events in the window,
// chronologically ordered.
func collectNotes(ev Events) []string {
	type note struct {
		at   time.Time
		text string
	}
	var notes []note

	for _, f := range ev.Feedings {
		if f.Notes != "" {
			notes = append(notes, note{f.FedAt, f.Notes})
		}
	}
	for _, w := range ev.Weights {
		if w.Notes != "" {
			notes = append(notes, note{w.MeasuredAt, w.Notes})
		}
	}
	for _, d := range ev.Diapers {
		if d.Notes != "" {
			notes = append(notes, note{d.ChangedAt, d.Notes})
		}
	}

	sort.Slice(notes, func(i, j int) bool { return notes[i].at.Before(notes[j].at) })

	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, fmt.Sprintf("- %s: %s", n.at.Format("Jan 2 15:04"), n.text))
	}
	return lines
}
