package view

import (
	"context"
	"eggsnake/src/events"
	"strings"
	"sync"
	"time"
)

//Kind classifies a received LogEvent payload
type Kind int

const (
	KindInfo Kind = iota
	KindLagged
	KindError
)

//Entry is one received LogEvent
type Entry struct {
	At   time.Time
	Kind Kind
	Text string
}

//Status represents the counters of the feed at concrete moment
type Status struct {
	Received int
	Lagged   int
	Errors   int
	Started  time.Time
	Last     time.Time
}

//Viewer is the interface to any Viewer - the object who can display the feed
type Viewer interface {
	Register(f *Feed)
	Refresh()
	Start() error
}

//Feed keeps the latest events and refreshes the registered viewers on every new one
type Feed struct {
	history int
	mu      sync.Mutex
	entries []Entry
	status  Status
	views   []Viewer
	now     func() time.Time
}

func NewFeed(history int) *Feed {
	if history <= 0 {
		history = 1
	}
	return &Feed{
		history: history,
		entries: make([]Entry, 0, history),
		status:  Status{Started: time.Now()},
		now:     time.Now,
	}
}

//Classify tells the lagged marker and the error payloads from the regular events
func Classify(payload string) Kind {
	switch {
	case payload == events.Lagged:
		return KindLagged
	case strings.HasPrefix(payload, "error: "):
		return KindError
	default:
		return KindInfo
	}
}

//RegisterViewer registers the viewer - the feed will call the viewer on every event
func (f *Feed) RegisterViewer(v Viewer) {
	f.views = append(f.views, v)
	v.Register(f)
}

//Add records one payload and refreshes the viewers
func (f *Feed) Add(payload string) {
	e := Entry{At: f.now(), Kind: Classify(payload), Text: payload}
	f.mu.Lock()
	if len(f.entries) == f.history {
		copy(f.entries, f.entries[1:])
		f.entries = f.entries[:len(f.entries)-1]
	}
	f.entries = append(f.entries, e)
	f.status.Received++
	f.status.Last = e.At
	switch e.Kind {
	case KindLagged:
		f.status.Lagged++
	case KindError:
		f.status.Errors++
	}
	f.mu.Unlock()
	f.refreshView()
}

//Pump adds every payload of in until it is closed or ctx is done
func (f *Feed) Pump(ctx context.Context, in <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-in:
			if !ok {
				return
			}
			f.Add(p)
		}
	}
}

//Clear drops the history, the counters are kept
func (f *Feed) Clear() {
	f.mu.Lock()
	f.entries = f.entries[:0]
	f.mu.Unlock()
	f.refreshView()
}

//Entries returns a copy of the history, the oldest first
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

func (f *Feed) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

//refreshView calls Refresh event for all registered views
func (f *Feed) refreshView() {
	for _, v := range f.views {
		v.Refresh()
	}
}
