package raidhandler

import (
	"sort"
	"sync"

	"github.com/walfie-raid/petronel/internal/model"
)

// history is a bounded ring buffer of a boss's most recent raids,
// guarded by a single reader/writer lock (§5): the critical section is
// O(1) for push and O(size) for a snapshot.
type history struct {
	mu   sync.RWMutex
	size int
	buf  []model.Raid // oldest first; len(buf) <= size
}

func newHistory(size int) *history {
	if size < 1 {
		size = 1
	}
	return &history{size: size, buf: make([]model.Raid, 0, size)}
}

// push appends raid as the newest entry, evicting the oldest if the
// buffer is already at capacity.
func (h *history) push(raid model.Raid) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf = append(h.buf, raid)
	if len(h.buf) > h.size {
		h.buf = h.buf[len(h.buf)-h.size:]
	}
}

// snapshot returns the buffered raids, newest first.
func (h *history) snapshot() []model.Raid {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]model.Raid, len(h.buf))
	for i, r := range h.buf {
		out[len(h.buf)-1-i] = r
	}
	return out
}

// mergeHistories combines two bosses' histories (§4.5.4, invariant
// I6): sorted by CreatedAt, truncated to the most recent size.
func mergeHistories(a, b *history, size int) *history {
	combined := append(a.snapshot(), b.snapshot()...)
	sort.Slice(combined, func(i, j int) bool {
		return combined[i].CreatedAt.Before(combined[j].CreatedAt)
	})
	if len(combined) > size {
		combined = combined[len(combined)-size:]
	}

	out := newHistory(size)
	out.buf = combined
	return out
}
