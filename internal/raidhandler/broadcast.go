package raidhandler

import (
	"context"
	"sync"
	"sync/atomic"
)

// RecvOutcome classifies the result of one Receiver.Recv call.
type RecvOutcome int

const (
	// RecvItem indicates Recv returned a real value.
	RecvItem RecvOutcome = iota
	// RecvLagged indicates the receiver fell behind the channel's
	// capacity; items were dropped and the receiver has fast-forwarded
	// to the oldest value still buffered.
	RecvLagged
	// RecvClosed indicates the broadcast was closed (or the caller's
	// context was done) and no further items will ever arrive.
	RecvClosed
)

// broadcast is a fan-out publication channel with a bounded backlog
// and a drop-oldest lag policy (§5): slow subscribers that fall behind
// more than capacity items miss the oldest ones and are told so, but
// are never themselves disconnected by a slow peer. No library in the
// example corpus implements in-process multi-subscriber broadcast
// with this lag semantics (gorilla/websocket is a transport, not an
// in-process fan-out primitive), so this is built directly on
// sync.Mutex and plain channels, grounded in the same "done channel"
// signalling idiom the jetstream connectors use for shutdown.
type broadcast[T any] struct {
	mu     sync.Mutex
	cap    int
	base   int64 // sequence number of buf[0]
	buf    []T
	closed bool
	waitCh chan struct{}

	refCount atomic.Int64
}

func newBroadcast[T any](capacity int) *broadcast[T] {
	return &broadcast[T]{cap: capacity, waitCh: make(chan struct{})}
}

// send publishes v to every current and future subscriber. A send
// after Close is a silent no-op, mirroring a dropped sender in a
// channel-based design.
func (b *broadcast[T]) send(v T) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.buf = append(b.buf, v)
	if len(b.buf) > b.cap {
		drop := len(b.buf) - b.cap
		b.buf = b.buf[drop:]
		b.base += int64(drop)
	}
	old := b.waitCh
	b.waitCh = make(chan struct{})
	b.mu.Unlock()
	close(old)
}

// close permanently shuts the broadcast down. Existing receivers drain
// any buffered items they haven't yet seen, then observe RecvClosed.
func (b *broadcast[T]) close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	old := b.waitCh
	b.mu.Unlock()
	close(old)
}

// subscribe returns a receiver positioned at the newest published
// item, so a fresh subscriber only ever sees items sent after it
// joined.
func (b *broadcast[T]) subscribe() *receiver[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refCount.Add(1)
	return &receiver[T]{b: b, next: b.base + int64(len(b.buf))}
}

// subscriberCount reports how many receivers currently hold a live
// subscription, used to purge waiting slots with no one left to adopt
// them (§4.5.6) and to report the subscriptions gauge (§6).
func (b *broadcast[T]) subscriberCount() int {
	return int(b.refCount.Load())
}

// receiver is one subscriber's read cursor into a broadcast.
type receiver[T any] struct {
	b        *broadcast[T]
	next     int64
	released bool
}

// release gives up this receiver's subscription slot. Callers must
// call release exactly once when they stop polling a receiver,
// typically via defer.
func (r *receiver[T]) release() {
	if r.released {
		return
	}
	r.released = true
	r.b.refCount.Add(-1)
}

// recv blocks until an item is available, the receiver has lagged, or
// the broadcast is closed / ctx is done.
func (r *receiver[T]) recv(ctx context.Context) (T, RecvOutcome) {
	for {
		r.b.mu.Lock()
		if r.next < r.b.base {
			r.next = r.b.base
			r.b.mu.Unlock()
			var zero T
			return zero, RecvLagged
		}

		idx := r.next - r.b.base
		if idx < int64(len(r.b.buf)) {
			v := r.b.buf[idx]
			r.next++
			r.b.mu.Unlock()
			return v, RecvItem
		}

		if r.b.closed {
			r.b.mu.Unlock()
			var zero T
			return zero, RecvClosed
		}

		wait := r.b.waitCh
		r.b.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			var zero T
			return zero, RecvClosed
		}
	}
}
