package raidhandler

import (
	"testing"
	"time"

	"github.com/walfie-raid/petronel/internal/model"
)

func raidAt(tweetID int64, t time.Time) model.Raid {
	return model.Raid{TweetID: tweetID, CreatedAt: t, BossName: model.Intern("boss")}
}

func TestHistoryBoundedAndNewestFirst(t *testing.T) {
	h := newHistory(3)
	base := time.Now()
	for i := int64(1); i <= 5; i++ {
		h.push(raidAt(i, base.Add(time.Duration(i)*time.Second)))
	}

	snap := h.snapshot()
	if len(snap) != 3 {
		t.Fatalf("len(snapshot) = %d, want 3", len(snap))
	}
	wantOrder := []int64{5, 4, 3}
	for i, r := range snap {
		if r.TweetID != wantOrder[i] {
			t.Fatalf("snapshot[%d].TweetID = %d, want %d", i, r.TweetID, wantOrder[i])
		}
	}
}

func TestMergeHistoriesSortsAndTruncates(t *testing.T) {
	base := time.Now()
	a := newHistory(10)
	a.push(raidAt(1, base))
	a.push(raidAt(3, base.Add(3*time.Second)))

	b := newHistory(10)
	b.push(raidAt(2, base.Add(time.Second)))
	b.push(raidAt(4, base.Add(4*time.Second)))

	merged := mergeHistories(a, b, 3)
	snap := merged.snapshot()
	if len(snap) != 3 {
		t.Fatalf("len(merged snapshot) = %d, want 3", len(snap))
	}
	wantOrder := []int64{4, 3, 2}
	for i, r := range snap {
		if r.TweetID != wantOrder[i] {
			t.Fatalf("merged[%d].TweetID = %d, want %d", i, r.TweetID, wantOrder[i])
		}
	}
}
