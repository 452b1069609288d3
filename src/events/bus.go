package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
)

//Sink is a fire-and-forget receiver of event strings
//Emit never blocks and never fails the caller
type Sink interface {
	Emit(msg string)
}

//Nop drops every event
type Nop struct{}

func (Nop) Emit(string) {}

//DefCapacity is the default backlog of every listener
const DefCapacity = 1024

var (
	ErrNoListeners = errors.New("no active listeners")
	ErrClosed      = errors.New("channel closed")
)

//LaggedError is returned by Recv when the backlog overflowed
//Skipped messages were dropped, the oldest first
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("channel lagged by %d", e.Skipped)
}

//Bus is a broadcast channel: every message goes to every subscription
//each subscription keeps a bounded backlog and drops its oldest message on overflow
type Bus struct {
	capacity int
	diag     *log.Logger
	mu       sync.RWMutex
	subs     map[*Subscription]struct{}
	closed   bool
}

//NewBus creates the bus, capacity <= 0 means DefCapacity
//diag receives the local delivery failures, nil discards them
func NewBus(capacity int, diag *log.Logger) *Bus {
	if capacity <= 0 {
		capacity = DefCapacity
	}
	if diag == nil {
		diag = log.New(io.Discard, "", 0)
	}
	return &Bus{
		capacity: capacity,
		diag:     diag,
		subs:     map[*Subscription]struct{}{},
	}
}

//Send delivers msg to all subscriptions and returns their number
func (b *Bus) Send(msg string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, ErrClosed
	}
	if len(b.subs) == 0 {
		return 0, ErrNoListeners
	}
	for s := range b.subs {
		s.push(msg)
	}
	return len(b.subs), nil
}

//Emit is Send with the failure logged locally
func (b *Bus) Emit(msg string) {
	if _, err := b.Send(msg); err != nil {
		b.diag.Printf("(eggsnake) error: could not broadcast message over bus: %v", err)
	}
}

//Subscribe registers a new listener, it sees only messages sent after this call
func (b *Bus) Subscribe() *Subscription {
	s := &Subscription{
		bus:    b,
		buf:    make([]string, b.capacity),
		notify: make(chan struct{}, 1),
	}
	b.mu.Lock()
	if b.closed {
		s.closed = true
	} else {
		b.subs[s] = struct{}{}
	}
	b.mu.Unlock()
	return s
}

//Close closes the bus, listeners drain their backlog and then get ErrClosed
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		s.close()
	}
	b.subs = nil
}

func (b *Bus) unsubscribe(s *Subscription) {
	b.mu.Lock()
	if !b.closed {
		delete(b.subs, s)
	}
	b.mu.Unlock()
	s.close()
}

//Subscription is one listener of the bus
type Subscription struct {
	bus *Bus

	mu      sync.Mutex
	buf     []string //ring buffer
	head    int
	size    int
	skipped uint64
	closed  bool
	notify  chan struct{}
}

func (s *Subscription) push(msg string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.size == len(s.buf) {
		//overwrite the oldest
		s.buf[s.head] = msg
		s.head = (s.head + 1) % len(s.buf)
		s.skipped++
	} else {
		s.buf[(s.head+s.size)%len(s.buf)] = msg
		s.size++
	}
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

//TryRecv returns the next message without waiting
//ok is false when nothing is pending
func (s *Subscription) TryRecv() (msg string, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skipped > 0 {
		n := s.skipped
		s.skipped = 0
		return "", false, &LaggedError{Skipped: n}
	}
	if s.size > 0 {
		msg = s.buf[s.head]
		s.buf[s.head] = ""
		s.head = (s.head + 1) % len(s.buf)
		s.size--
		return msg, true, nil
	}
	if s.closed {
		return "", false, ErrClosed
	}
	return "", false, nil
}

//Recv waits for the next message
//a *LaggedError is returned once after an overflow, before the retained messages
func (s *Subscription) Recv(ctx context.Context) (string, error) {
	for {
		msg, ok, err := s.TryRecv()
		if ok || err != nil {
			return msg, err
		}
		select {
		case <-s.notify:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

//Unsubscribe removes the listener from the bus
func (s *Subscription) Unsubscribe() {
	s.bus.unsubscribe(s)
}
