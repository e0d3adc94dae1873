package raidhandler

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/walfie-raid/petronel/internal/model"
)

// bossMap is the concurrent registry described in §4.5.2: a
// dictionary from every name a BossEntry carries to that entry, an
// atomically-swapped sorted snapshot for bosses(), and a table of
// "waiting" broadcast slots for bosses that have subscribers before
// they've ever been seen.
type bossMap struct {
	historySize       int
	broadcastCapacity int

	mu      sync.RWMutex
	entries map[string]*BossEntry
	waiting map[string]*broadcast[model.Raid]
	aliases map[string]string // raw boss name -> canonical name an operator has pinned it to

	snapshot atomic.Pointer[[]*BossEntry]
}

func newBossMap(historySize, broadcastCapacity int) *bossMap {
	m := &bossMap{
		historySize:       historySize,
		broadcastCapacity: broadcastCapacity,
		entries:           make(map[string]*BossEntry),
		waiting:           make(map[string]*broadcast[model.Raid]),
		aliases:           make(map[string]string),
	}
	empty := []*BossEntry{}
	m.snapshot.Store(&empty)
	return m
}

// setAlias pins name so every future lookup or push under name resolves
// to canonical instead, without waiting for an image-hash merge to
// establish the link (a manual override for a known-bad boss name).
func (m *bossMap) setAlias(name, canonical string) {
	m.mu.Lock()
	m.aliases[name] = canonical
	m.mu.Unlock()
}

// resolveAlias returns the canonical name for name, or name itself if
// it has no alias. Callers must not hold mu.
func (m *bossMap) resolveAlias(name string) string {
	m.mu.RLock()
	canonical, ok := m.aliases[name]
	m.mu.RUnlock()
	if !ok {
		return name
	}
	return canonical
}

// get returns the current entry indexed under name, if any.
func (m *bossMap) get(name string) (*BossEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[name]
	return e, ok
}

// list returns the current sorted, de-duplicated snapshot of all live
// entries. Safe to call without holding any lock.
func (m *bossMap) list() []*BossEntry {
	return *m.snapshot.Load()
}

// subscribeBossChannel returns a receiver for boss_name's per-boss
// broadcast, creating a waiting slot if the boss has never been seen.
// Works even when the boss is not yet known (§4.5.1).
func (m *bossMap) subscribeBossChannel(name string) *receiver[model.Raid] {
	name = m.resolveAlias(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[name]; ok {
		return e.broadcast.subscribe()
	}
	bc, ok := m.waiting[name]
	if !ok {
		bc = newBroadcast[model.Raid](m.broadcastCapacity)
		m.waiting[name] = bc
	}
	return bc.subscribe()
}

// push delivers raid to the registry, returning the entry it landed
// in and whether that entry is newly created (so the caller can
// decide whether to publish a global boss-update). Implements §4.5.3.
func (m *bossMap) push(raid model.Raid) (entry *BossEntry, created bool, imageFilledIn bool) {
	name := m.resolveAlias(raid.BossName.String())
	if name != raid.BossName.String() {
		raid.BossName = model.Intern(name)
	}

	m.mu.Lock()
	existing, ok := m.entries[name]
	if !ok {
		adopted, hadWaiting := m.waiting[name]
		if hadWaiting {
			delete(m.waiting, name)
		} else {
			adopted = nil
		}
		entry = newBossEntryFromRaid(raid, adopted, m.historySize, m.broadcastCapacity)
		for _, n := range entry.names() {
			m.entries[n] = entry
		}
		m.mu.Unlock()

		entry.history.push(raid)
		entry.broadcast.send(raid)
		m.recompute()
		return entry, true, false
	}
	m.mu.Unlock()

	existing.Boss.LastSeenAt.Store(raid.CreatedAt)
	existing.broadcast.send(raid)
	existing.history.push(raid)

	if existing.Boss.Image.Get(raid.Language) == "" && raid.ImageURL != "" {
		newBoss := existing.Boss.Clone()
		newBoss.Image.Set(raid.Language, raid.ImageURL)
		updated := existing.cloneWithBoss(newBoss)

		m.mu.Lock()
		for _, n := range updated.names() {
			m.entries[n] = updated
		}
		m.mu.Unlock()
		m.recompute()
		return updated, false, true
	}

	return existing, false, false
}

// boss resolves a boss by either of its locale names, or by a name
// that has been manually aliased to one.
func (m *bossMap) boss(name string) (*BossEntry, bool) {
	return m.get(m.resolveAlias(name))
}

// seed installs boss as a freshly-restored entry with empty history
// and a fresh broadcast channel, used once at startup to repopulate
// the registry from a persistence.Store. A boss whose name collides
// with one already registered (only possible if seed is called more
// than once) is skipped rather than overwriting live state.
func (m *bossMap) seed(boss model.Boss) {
	bossCopy := boss
	entry := &BossEntry{
		NodeID:    model.BossNodeID(bossCopy.Name.Canonical().String()).Encode(),
		Boss:      &bossCopy,
		history:   newHistory(m.historySize),
		broadcast: newBroadcast[model.Raid](m.broadcastCapacity),
	}

	m.mu.Lock()
	for _, n := range entry.names() {
		if _, exists := m.entries[n]; exists {
			m.mu.Unlock()
			return
		}
	}
	for _, n := range entry.names() {
		m.entries[n] = entry
	}
	m.mu.Unlock()
}

// updateImageHash implements the merge protocol of §4.5.4. It returns
// the resulting entry (possibly merged) and whether a merge happened,
// or ok=false if there was nothing to do (boss unknown, or it already
// has a hash).
func (m *bossMap) updateImageHash(name string, hash model.ImageHash) (entry *BossEntry, merged bool, ok bool) {
	m.mu.Lock()

	target, found := m.entries[name]
	if !found || target.Boss.ImageHash.Valid {
		m.mu.Unlock()
		return nil, false, false
	}

	var match *BossEntry
	for _, candidate := range m.entries {
		if candidate == target {
			continue
		}
		if !candidate.Boss.ImageHash.Valid || candidate.Boss.ImageHash.Hash != hash {
			continue
		}
		if candidate.Boss.HasLevel != target.Boss.HasLevel || candidate.Boss.Level != target.Boss.Level {
			continue
		}
		match = candidate
		break
	}

	if match == nil {
		newBoss := target.Boss.Clone()
		newBoss.ImageHash = model.NewImageHash(hash)
		updated := target.cloneWithBoss(newBoss)

		for _, n := range updated.names() {
			m.entries[n] = updated
		}
		m.mu.Unlock()
		m.recompute()
		return updated, false, true
	}

	keep, discard := target, match
	if discard.Boss.Name.Ja != "" && keep.Boss.Name.Ja == "" {
		keep, discard = discard, keep
	}

	mergedName := keep.Boss.Name.Merge(discard.Boss.Name)
	mergedImage := keep.Boss.Image.Merge(discard.Boss.Image)

	keepLast := keep.Boss.LastSeenAt.Load()
	discardLast := discard.Boss.LastSeenAt.Load()
	lastSeen := keepLast
	if discardLast.After(keepLast) {
		lastSeen = discardLast
	}

	mergedBoss := &model.Boss{
		Name:       mergedName,
		Image:      mergedImage,
		Level:      keep.Boss.Level,
		HasLevel:   keep.Boss.HasLevel,
		LastSeenAt: model.NewAtomicDateTime(lastSeen),
		ImageHash:  model.NewImageHash(hash),
	}

	mergedHistory := mergeHistories(keep.history, discard.history, m.historySize)

	mergedEntry := &BossEntry{
		NodeID:    model.BossNodeID(mergedBoss.Name.Canonical().String()).Encode(),
		Boss:      mergedBoss,
		history:   mergedHistory,
		broadcast: keep.broadcast,
	}

	for _, n := range keep.names() {
		m.entries[n] = mergedEntry
	}
	for _, n := range discard.names() {
		m.entries[n] = mergedEntry
	}
	m.mu.Unlock()

	// The discarded channel is orphaned: close it so any subscribers
	// still reading it observe RecvClosed and re-subscribe under the
	// (now-merged) boss name, per §4.5.5.
	discard.broadcast.close()

	m.recompute()
	return mergedEntry, true, true
}

// retain evicts every entry failing predicate, and purges waiting
// slots with no subscribers left (§4.5.6). An evicted entry's broadcast
// is closed so its subscribers observe RecvClosed and re-subscribe.
func (m *bossMap) retain(predicate func(*BossEntry) bool) {
	m.mu.Lock()
	changed := false
	evicted := make(map[*broadcast[model.Raid]]bool)
	for name, entry := range m.entries {
		if !predicate(entry) {
			delete(m.entries, name)
			evicted[entry.broadcast] = true
			changed = true
		}
	}
	for _, entry := range m.entries {
		delete(evicted, entry.broadcast)
	}
	for name, bc := range m.waiting {
		if bc.subscriberCount() == 0 {
			delete(m.waiting, name)
		}
	}
	m.mu.Unlock()

	for bc := range evicted {
		bc.close()
	}

	if changed {
		m.recompute()
	}
}

// recompute rebuilds the sorted, de-duplicated-by-identity snapshot
// used by bosses() and swaps it in atomically.
func (m *bossMap) recompute() {
	m.mu.RLock()
	seen := make(map[*BossEntry]bool, len(m.entries))
	out := make([]*BossEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		if seen[entry] {
			continue
		}
		seen[entry] = true
		out = append(out, entry)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Boss.HasLevel != b.Boss.HasLevel {
			// Leveled bosses sort before unleveled ones; an open
			// question in the spec with no behavioral test to pin it.
			return a.Boss.HasLevel
		}
		if a.Boss.HasLevel && a.Boss.Level != b.Boss.Level {
			return a.Boss.Level < b.Boss.Level
		}
		return a.Boss.Name.Canonical().String() < b.Boss.Name.Canonical().String()
	})

	m.snapshot.Store(&out)
}
