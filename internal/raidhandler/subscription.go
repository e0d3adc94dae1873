package raidhandler

import (
	"context"

	"github.com/walfie-raid/petronel/internal/model"
)

// resubscriber is the sliver of Handler a Subscription needs: enough
// to re-bind to a fresh broadcast receiver after a merge or an
// eviction closes the one it was reading from. Defined here (rather than
// depending on *Handler directly) so this file has no import cycle
// back onto handler.go.
type resubscriber interface {
	subscribeRaw(bossName string) *receiver[model.Raid]
}

// Subscription is a stream of Raids for one boss name. It never
// terminates from the consumer's point of view (§4.5.5): a lag is
// swallowed and polling continues, and a closed channel (orphaned by
// a cross-language merge, or because the boss was evicted and later
// reappeared) triggers a transparent re-subscribe rather than ending
// the stream.
type Subscription struct {
	handler  resubscriber
	bossName string

	recv *receiver[model.Raid]
}

func newSubscription(handler resubscriber, bossName string, recv *receiver[model.Raid]) *Subscription {
	return &Subscription{handler: handler, bossName: bossName, recv: recv}
}

// Next blocks until the next Raid for this boss, or ctx is done. A
// false return means ctx ended; it is never returned because the
// underlying boss was merged, evicted, or otherwise reorganized —
// those conditions are handled internally by re-subscribing.
func (s *Subscription) Next(ctx context.Context) (model.Raid, bool) {
	for {
		v, outcome := s.recv.recv(ctx)
		switch outcome {
		case RecvItem:
			return v, true
		case RecvLagged:
			continue
		case RecvClosed:
			select {
			case <-ctx.Done():
				return model.Raid{}, false
			default:
			}
			s.recv.release()
			s.recv = s.handler.subscribeRaw(s.bossName)
		}
	}
}

// Close releases this subscription's receiver slot. Callers must call
// Close when they stop consuming, typically via defer.
func (s *Subscription) Close() {
	s.recv.release()
}
