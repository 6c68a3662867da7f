// Package listener turns chat messages from the owner into clock actions.
package listener

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"example.com/timeclock/internal/model"
	"example.com/timeclock/internal/store"
	"example.com/timeclock/internal/util/config"
)

// Clock is the subset of clock.Tracker the listener drives.
type Clock interface {
	ClockIn() (store.Entry, error)
	ClockOut() (store.Entry, error)
}

// Result is the outcome of one recognised command message.
type Result struct {
	UserID string
	Status store.Status
	Entry  store.Entry
	Err    error
}

type Listener struct {
	clock Clock
	log   *slog.Logger
	owner string
	in    map[string]bool
	out   map[string]bool

	staleAfter time.Duration
	now        func() time.Time
	lastBeat   atomic.Int64
}

func New(cfg config.Config, clock Clock, log *slog.Logger) *Listener {
	l := &Listener{
		clock:      clock,
		log:        log,
		owner:      cfg.Listen.OwnerID,
		in:         wordSet(cfg.Listen.InWords),
		out:        wordSet(cfg.Listen.OutWords),
		staleAfter: cfg.StaleAfter(),
		now:        time.Now,
	}
	l.lastBeat.Store(l.now().UnixNano())
	return l
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return set
}

// HandleFrame processes one websocket frame. It is the wsclient callback,
// so frames are handled one at a time.
func (l *Listener) HandleFrame(raw []byte) []Result {
	var results []Result
	for _, ev := range model.SplitFrame(raw) {
		if meta, heartbeat := model.Meta(ev); meta {
			if heartbeat {
				l.lastBeat.Store(l.now().UnixNano())
			}
			continue
		}
		if res, ok := l.handleOne(ev); ok {
			results = append(results, res)
		}
	}
	return results
}

func (l *Listener) handleOne(raw []byte) (Result, bool) {
	msg, ok := model.DecodeMessage(raw)
	if !ok || msg.FromSelf || msg.UserID != l.owner {
		return Result{}, false
	}

	word := strings.ToLower(strings.TrimSpace(msg.Text))
	res := Result{UserID: msg.UserID}
	switch {
	case l.in[word]:
		res.Status = store.StatusIn
		res.Entry, res.Err = l.clock.ClockIn()
	case l.out[word]:
		res.Status = store.StatusOut
		res.Entry, res.Err = l.clock.ClockOut()
	default:
		return Result{}, false
	}

	if res.Err != nil {
		l.log.Warn("clock action rejected", "user", msg.UserID, "action", res.Status, "error", res.Err)
	} else {
		l.log.Info("recorded", "user", msg.UserID, "action", res.Status, "at", res.Entry.Timestamp.Format(time.RFC3339))
	}
	return res, true
}

// Watch warns once each time the feed goes longer than the stale period
// without a heartbeat. It returns when ctx is done.
func (l *Listener) Watch(ctx context.Context) error {
	if l.staleAfter <= 0 {
		<-ctx.Done()
		return nil
	}

	interval := l.staleAfter / 4
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	warned := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if l.checkStale(&warned) {
				l.log.Warn("no heartbeat, feed may be down", "stale_for", l.sinceBeat().Round(time.Second))
			}
		}
	}
}

// checkStale reports whether a new stale period has begun.
func (l *Listener) checkStale(warned *bool) bool {
	stale := l.sinceBeat() > l.staleAfter
	if !stale {
		*warned = false
		return false
	}
	if *warned {
		return false
	}
	*warned = true
	return true
}

func (l *Listener) sinceBeat() time.Duration {
	return l.now().Sub(time.Unix(0, l.lastBeat.Load()))
}
