// Package clock implements the clock-in/clock-out actions on top of the
// entry log.
package clock

import (
	"errors"
	"fmt"
	"time"

	"example.com/timeclock/internal/store"
)

var (
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("cannot clock out unless clocked in")
)

// Log is the part of the store the tracker needs.
type Log interface {
	ReadEntries() ([]store.Entry, error)
	Append(ts time.Time, status store.Status) error
}

type Tracker struct {
	log Log
	now func() time.Time
}

func NewTracker(log Log) *Tracker {
	return &Tracker{log: log, now: time.Now}
}

// WithClock returns a copy of the tracker that reads the time from now.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	return &Tracker{log: t.log, now: now}
}

func (t *Tracker) Now() time.Time {
	return t.now().Truncate(time.Second)
}

func (t *Tracker) ClockIn() (store.Entry, error) {
	return t.record(store.StatusIn)
}

func (t *Tracker) ClockOut() (store.Entry, error) {
	return t.record(store.StatusOut)
}

func (t *Tracker) record(status store.Status) (store.Entry, error) {
	entries, err := t.log.ReadEntries()
	if err != nil {
		return store.Entry{}, err
	}

	last, _ := store.LastStatus(entries)
	switch {
	case status == store.StatusIn && last == store.StatusIn:
		return store.Entry{}, ErrAlreadyClockedIn
	case status == store.StatusOut && last != store.StatusIn:
		return store.Entry{}, ErrNotClockedIn
	}

	ent := store.Entry{Timestamp: t.Now(), Status: status}
	if err := t.log.Append(ent.Timestamp, ent.Status); err != nil {
		return store.Entry{}, fmt.Errorf("record %s: %w", status, err)
	}
	return ent, nil
}

// State is the current position of the clock.
type State struct {
	HasEntries bool
	ClockedIn  bool
	Last       store.Entry
	Elapsed    time.Duration // only set when clocked in
}

func (t *Tracker) Status() (State, error) {
	entries, err := t.log.ReadEntries()
	if err != nil {
		return State{}, err
	}
	if len(entries) == 0 {
		return State{}, nil
	}

	st := State{HasEntries: true, Last: entries[len(entries)-1]}
	if st.Last.Status == store.StatusIn {
		st.ClockedIn = true
		st.Elapsed = t.Now().Sub(st.Last.Timestamp)
	}
	return st, nil
}

// FormatElapsed renders d as "1d 2h 3m 4s", leaving out the day part
// when it is zero.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)

	days := secs / 86400
	secs %= 86400
	hours := secs / 3600
	secs %= 3600
	mins := secs / 60
	secs %= 60

	s := fmt.Sprintf("%dh %dm %ds", hours, mins, secs)
	if days > 0 {
		s = fmt.Sprintf("%dd %s", days, s)
	}
	return s
}
