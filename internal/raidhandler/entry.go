package raidhandler

import (
	"github.com/walfie-raid/petronel/internal/model"
)

// BossEntry is the handler's runtime record for a Boss: its current
// bilingual metadata, a bounded history of recent raids, and the
// per-boss broadcast channel subscribers read from (§3, §4.5.2).
//
// A BossEntry value is treated as immutable once published: metadata
// changes (image fill-in, merge) build a new BossEntry and the
// registry is swapped to point at it, never mutating a published
// value in place. The history and broadcast, however, are long-lived
// objects that outlive any single BossEntry value describing the same
// boss identity — a plain push mutates them directly without
// replacing the entry, since LastSeenAt is independently atomic and
// history/broadcast already carry their own internal locking.
type BossEntry struct {
	NodeID string
	Boss   *model.Boss

	history   *history
	broadcast *broadcast[model.Raid]
}

// names returns every LangString side currently populated on this
// entry's name, i.e. every key the registry should index it under.
func (e *BossEntry) names() []string {
	var out []string
	if en := e.Boss.Name.En.String(); en != "" {
		out = append(out, en)
	}
	if ja := e.Boss.Name.Ja.String(); ja != "" {
		out = append(out, ja)
	}
	return out
}

// History returns a snapshot of this boss's recent raids, newest
// first.
func (e *BossEntry) History() []model.Raid {
	return e.history.snapshot()
}

// SubscriberCount reports the number of live Subscriptions currently
// reading from this entry's broadcast channel.
func (e *BossEntry) SubscriberCount() int {
	return e.broadcast.subscriberCount()
}

// newBossEntryFromRaid builds the first BossEntry for a boss name
// never seen before, optionally adopting a waiting slot's broadcast
// channel so early subscribers don't miss this raid (§4.5.3).
func newBossEntryFromRaid(raid model.Raid, adopted *broadcast[model.Raid], historySize, broadcastCapacity int) *BossEntry {
	boss := model.NewBossFromRaid(&raid)

	bc := adopted
	if bc == nil {
		bc = newBroadcast[model.Raid](broadcastCapacity)
	}

	entry := &BossEntry{
		NodeID:    model.BossNodeID(boss.Name.Canonical().String()).Encode(),
		Boss:      boss,
		history:   newHistory(historySize),
		broadcast: bc,
	}
	return entry
}

// cloneWithBoss returns a new BossEntry sharing this entry's history
// and broadcast channel, but with boss as its published metadata.
func (e *BossEntry) cloneWithBoss(boss *model.Boss) *BossEntry {
	return &BossEntry{
		NodeID:    model.BossNodeID(boss.Name.Canonical().String()).Encode(),
		Boss:      boss,
		history:   e.history,
		broadcast: e.broadcast,
	}
}
