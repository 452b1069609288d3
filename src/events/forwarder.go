package events

import (
	"context"
	"errors"
	"io"
	"log"
)

//LogEvent is the signal name every forwarded event is delivered under
const LogEvent = "LogEvent"

//Lagged is delivered instead of the messages lost in an overflow
const Lagged = "lagged"

//Transport delivers a named signal with a string payload outside the process
type Transport interface {
	Deliver(signal string, payload string) error
	Close() error
}

//Forwarder drains a subscription into a transport
type Forwarder struct {
	sub  *Subscription
	t    Transport
	diag *log.Logger
}

func NewForwarder(sub *Subscription, t Transport, diag *log.Logger) *Forwarder {
	if diag == nil {
		diag = log.New(io.Discard, "", 0)
	}
	return &Forwarder{sub: sub, t: t, diag: diag}
}

//Run forwards messages in emission order until the bus is closed or ctx is done
//a bus overflow is delivered as Lagged, other receive errors as "error: <desc>"
func (f *Forwarder) Run(ctx context.Context) error {
	for {
		msg, err := f.sub.Recv(ctx)
		var lagged *LaggedError
		switch {
		case err == nil:
			f.deliver(msg)
		case errors.As(err, &lagged):
			f.deliver(Lagged)
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			f.deliver("error: " + err.Error())
			if errors.Is(err, ErrClosed) {
				return nil
			}
		}
	}
}

func (f *Forwarder) deliver(payload string) {
	if err := f.t.Deliver(LogEvent, payload); err != nil {
		f.diag.Printf("(eggsnake) error: could not deliver %s: %v", LogEvent, err)
	}
}

//LogTransport writes every signal as a log line
type LogTransport struct {
	l *log.Logger
	c io.Closer
}

//NewLogTransport logs to w, w is closed with the transport when it is an io.Closer
func NewLogTransport(w io.Writer) *LogTransport {
	t := &LogTransport{l: log.New(w, "", log.LstdFlags|log.Lmicroseconds)}
	if c, ok := w.(io.Closer); ok {
		t.c = c
	}
	return t
}

func (t *LogTransport) Deliver(signal string, payload string) error {
	t.l.Printf("%s %q", signal, payload)
	return nil
}

func (t *LogTransport) Close() error {
	if t.c == nil {
		return nil
	}
	return t.c.Close()
}

//NopTransport discards everything
type NopTransport struct{}

func (NopTransport) Deliver(string, string) error { return nil }
func (NopTransport) Close() error                 { return nil }
