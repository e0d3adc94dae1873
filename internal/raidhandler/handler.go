// Package raidhandler implements the core of the specification: the
// concurrent boss registry, bounded per-boss history, per-boss and
// global broadcast channels, subscription re-binding across merges,
// atomic last-seen timestamps, and language-aware merge on
// image-hash equality (§4.5).
package raidhandler

import (
	"context"
	"weak"

	"github.com/walfie-raid/petronel/internal/config"
	"github.com/walfie-raid/petronel/internal/metrics"
	"github.com/walfie-raid/petronel/internal/model"
)

// Handler is the raid dispatch and aggregation engine's public
// surface (§4.5.1). All methods are safe to call concurrently from
// any goroutine without external locking.
type Handler struct {
	bosses  *bossMap
	metrics *metrics.Factory // nil-safe: a Handler built without one simply skips metric updates

	globalUpdates *broadcast[weak.Pointer[BossEntry]]
}

// NewHandler builds a Handler from cfg. metricsFactory may be nil.
func NewHandler(cfg config.Config, metricsFactory *metrics.Factory) *Handler {
	return &Handler{
		bosses:        newBossMap(cfg.RaidHistorySize, cfg.BroadcastCapacity),
		metrics:       metricsFactory,
		globalUpdates: newBroadcast[weak.Pointer[BossEntry]](cfg.BroadcastCapacity),
	}
}

// Push delivers raid to the registry: it updates the matching boss's
// last-seen time, history, and broadcast, or creates a new boss entry
// if this is the first raid seen for that name (§4.5.3).
func (h *Handler) Push(raid model.Raid) {
	entry, created, imageFilledIn := h.bosses.push(raid)

	if h.metrics != nil {
		h.metrics.IncTweet(entry.Boss.Name.Ja.String(), entry.Boss.Name.En.String(), raid.Language.String())
	}

	if created || imageFilledIn {
		h.publishGlobalUpdate(entry)
	}
}

// SeedBosses installs bosses restored from a persistence.Store as the
// registry's initial state. Call once, before the upstream client or
// any API handler starts running.
func (h *Handler) SeedBosses(bosses []model.Boss) {
	for _, b := range bosses {
		h.bosses.seed(b)
	}
	h.bosses.recompute()
}

// Subscribe returns a stream of Raids for bossName. Works even when
// the boss has not been seen yet (§4.5.1).
func (h *Handler) Subscribe(bossName string) *Subscription {
	recv := h.subscribeRaw(bossName)
	return newSubscription(h, bossName, recv)
}

// subscribeRaw implements the resubscriber interface Subscription uses
// to rebind after its channel is closed (a merge or an eviction).
func (h *Handler) subscribeRaw(bossName string) *receiver[model.Raid] {
	return h.bosses.subscribeBossChannel(bossName)
}

// Boss resolves a boss by either of its locale names.
func (h *Handler) Boss(name string) (*BossEntry, bool) {
	return h.bosses.boss(name)
}

// SetAlias pins name so every future push or lookup under name
// resolves to canonical, without waiting for an image-hash merge.
// Intended for an operator correcting a known-bad boss name.
func (h *Handler) SetAlias(name, canonical string) {
	h.bosses.setAlias(name, canonical)
}

// Bosses returns the current snapshot of all live bosses, sorted by
// (level, canonical name) and de-duplicated by identity.
func (h *Handler) Bosses() []*BossEntry {
	return h.bosses.list()
}

// UpdateImageHash records a perceptual hash for bossName, possibly
// triggering a cross-language merge with another boss sharing that
// hash and level (§4.5.4). Returns false if bossName is unknown or
// already has a hash (a no-op, not an error).
func (h *Handler) UpdateImageHash(bossName string, hash model.ImageHash) bool {
	entry, _, ok := h.bosses.updateImageHash(bossName, hash)
	if !ok {
		return false
	}
	h.publishGlobalUpdate(entry)
	return true
}

// Retain evicts every boss entry for which predicate returns false,
// and purges any waiting broadcast slots left with no subscribers
// (§4.5.6).
func (h *Handler) Retain(predicate func(*BossEntry) bool) {
	h.bosses.retain(predicate)
}

// SyncMetrics reports every live boss's current subscriber count to
// the metrics factory, so the gauge stays consistent even for bosses
// that neither pushed nor merged recently. The periodic cleanup task
// calls this once per tick.
func (h *Handler) SyncMetrics() {
	if h.metrics == nil {
		return
	}
	for _, entry := range h.bosses.list() {
		h.metrics.SetSubscriptions(entry.Boss.Name.Ja.String(), entry.Boss.Name.En.String(), entry.SubscriberCount())
	}
}

func (h *Handler) publishGlobalUpdate(entry *BossEntry) {
	h.globalUpdates.send(weak.Make(entry))
}

// BossUpdateSubscription is the global stream of boss-entry changes:
// one item per creation, image-field fill-in, or merge (§4.5.1).
type BossUpdateSubscription struct {
	recv *receiver[weak.Pointer[BossEntry]]
}

// SubscribeBossUpdates opens the global boss-update stream.
func (h *Handler) SubscribeBossUpdates() *BossUpdateSubscription {
	return &BossUpdateSubscription{recv: h.globalUpdates.subscribe()}
}

// Next blocks until the next surviving boss update, or ctx is done. A
// boss update whose entry has already been garbage-collected (evicted
// and dropped by every other holder) is skipped rather than yielded,
// per the weak-reference design in §9.
func (s *BossUpdateSubscription) Next(ctx context.Context) (*BossEntry, bool) {
	for {
		ptr, outcome := s.recv.recv(ctx)
		switch outcome {
		case RecvItem:
			if entry := ptr.Value(); entry != nil {
				return entry, true
			}
			// Collected before we got to it; keep waiting.
		case RecvLagged:
			// Continue; missed updates are acceptable per §5.
		case RecvClosed:
			return nil, false
		}
	}
}

// Close releases this subscription's slot on the global channel.
func (s *BossUpdateSubscription) Close() {
	s.recv.release()
}
