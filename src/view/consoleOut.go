package view

import (
	"eggsnake/src/events"
	"fmt"
	"github.com/logrusorgru/aurora"
	"io"
	"sync"
	"time"
)

//ConsoleOut prints every event as a line
type ConsoleOut struct {
	f       *Feed
	w       io.Writer
	mu      sync.Mutex
	printed int
}

func NewConsoleOut(w io.Writer) *ConsoleOut {
	return &ConsoleOut{w: w}
}

func (c *ConsoleOut) Register(f *Feed) {
	c.f = f
}

func (c *ConsoleOut) Start() error {
	_, err := fmt.Fprintf(c.w, "Listening for %s (%s.%s at %s)\n", events.LogEvent, events.BusInterface, events.LogEvent, events.ObjectPath)
	return err
}

//Refresh prints the entries received since the previous call
func (c *ConsoleOut) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.f.Status()
	entries := c.f.Entries()
	fresh := st.Received - c.printed
	if fresh > len(entries) {
		fresh = len(entries)
	}
	for _, e := range entries[len(entries)-fresh:] {
		_, _ = fmt.Fprintf(c.w, "%s %s\n", e.At.Format(time.StampMilli), colorize(e))
	}
	c.printed = st.Received
}

func colorize(e Entry) string {
	switch e.Kind {
	case KindLagged:
		return aurora.Yellow(e.Text).String()
	case KindError:
		return aurora.Red(e.Text).String()
	default:
		return e.Text
	}
}
