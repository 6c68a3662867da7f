// Package report aggregates clock entries into weekly totals.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"example.com/timeclock/internal/store"
)

type WeekTotal struct {
	Start time.Time // Monday, midnight
	Hours float64
}

func (w WeekTotal) End() time.Time {
	return w.Start.AddDate(0, 0, 6)
}

func (w WeekTotal) Label() string {
	return w.Start.Format(store.DateLayout) + " to " + w.End().Format(store.DateLayout)
}

// WeekStart returns midnight of the Monday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// Weekly pairs each "in" with an immediately following "out". An "in"
// without one is still running and is measured up to now. Anything else
// is skipped. Durations count toward the week the session started in.
func Weekly(entries []store.Entry, now time.Time) []WeekTotal {
	hours := make(map[time.Time]float64)

	for i := 0; i < len(entries); i++ {
		ent := entries[i]
		if ent.Status != store.StatusIn {
			continue
		}

		end := now
		if i+1 < len(entries) && entries[i+1].Status == store.StatusOut {
			end = entries[i+1].Timestamp
			i++
		}

		hours[WeekStart(ent.Timestamp)] += end.Sub(ent.Timestamp).Hours()
	}

	totals := make([]WeekTotal, 0, len(hours))
	for start, h := range hours {
		totals = append(totals, WeekTotal{Start: start, Hours: h})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Start.Before(totals[j].Start)
	})
	return totals
}

// Latest keeps the last limit weeks. A limit of zero or less keeps all.
func Latest(totals []WeekTotal, limit int) []WeekTotal {
	if limit > 0 && len(totals) > limit {
		return totals[len(totals)-limit:]
	}
	return totals
}

// Render writes the two column week table.
func Render(w io.Writer, totals []WeekTotal, limit int) error {
	if _, err := fmt.Fprintf(w, "%-30s%8s\n", "WEEK", "HOURS"); err != nil {
		return err
	}
	for _, wt := range Latest(totals, limit) {
		if _, err := fmt.Fprintf(w, "%-30s%8.1f\n", wt.Label(), wt.Hours); err != nil {
			return err
		}
	}
	return nil
}
