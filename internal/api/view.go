// Package api is the thin query/subscription adapter (§6): it maps
// HTTP and WebSocket requests onto internal/raidhandler.Handler
// operations and internal/relay pagination, serializing results as
// JSON the way the teacher's api/handlers packages serialize their
// domain types.
package api

import (
	"github.com/walfie-raid/petronel/internal/model"
	"github.com/walfie-raid/petronel/internal/raidhandler"
	"github.com/walfie-raid/petronel/internal/relay"
)

// bossView is the JSON projection of a BossEntry's Boss metadata plus
// its node id, returned from boss(id)/bosses()/node(id).
type bossView struct {
	ID         string `json:"id"`
	NameEn     string `json:"nameEn,omitempty"`
	NameJa     string `json:"nameJa,omitempty"`
	ImageEn    string `json:"imageEn,omitempty"`
	ImageJa    string `json:"imageJa,omitempty"`
	Level      int16  `json:"level,omitempty"`
	HasLevel   bool   `json:"hasLevel"`
	LastSeenAt int64  `json:"lastSeenAt"`
	ImageHash  *int64 `json:"imageHash,omitempty"`
}

func newBossView(entry *raidhandler.BossEntry) bossView {
	v := bossView{
		ID:         entry.NodeID,
		NameEn:     entry.Boss.Name.En.String(),
		NameJa:     entry.Boss.Name.Ja.String(),
		ImageEn:    entry.Boss.Image.En.String(),
		ImageJa:    entry.Boss.Image.Ja.String(),
		HasLevel:   entry.Boss.HasLevel,
		LastSeenAt: entry.Boss.LastSeenAt.Millis(),
	}
	if entry.Boss.HasLevel {
		v.Level = entry.Boss.Level
	}
	if entry.Boss.ImageHash.Valid {
		h := int64(entry.Boss.ImageHash.Hash)
		v.ImageHash = &h
	}
	return v
}

// tweetView is the JSON projection of one model.Raid, as returned in
// a boss's tweets() connection or a subscribe(boss_name) stream item.
type tweetView struct {
	ID            string `json:"id"`
	RaidID        string `json:"raidId"`
	TweetID       int64  `json:"tweetId"`
	UserName      string `json:"userName"`
	UserImage     string `json:"userImage,omitempty"`
	BossName      string `json:"bossName"`
	Text          string `json:"text,omitempty"`
	Language      string `json:"language"`
	CreatedAtText string `json:"createdAtText"`
	ImageURL      string `json:"imageUrl,omitempty"`
}

func newTweetView(bossName string, raid model.Raid) tweetView {
	return tweetView{
		ID:            model.TweetNodeID(bossName, raid.TweetID).Encode(),
		RaidID:        raid.ID,
		TweetID:       raid.TweetID,
		UserName:      raid.UserName,
		UserImage:     raid.UserImage,
		BossName:      bossName,
		Text:          raid.Text,
		Language:      raid.Language.String(),
		CreatedAtText: raid.CreatedAtText,
		ImageURL:      raid.ImageURL.String(),
	}
}

// bossConnectionView is the JSON shape of a paginated bosses() result.
type bossConnectionView struct {
	Edges    []bossEdgeView `json:"edges"`
	PageInfo pageInfoView   `json:"pageInfo"`
}

type bossEdgeView struct {
	Cursor string   `json:"cursor"`
	Node   bossView `json:"node"`
}

// tweetConnectionView is the JSON shape of a paginated tweets() result.
type tweetConnectionView struct {
	Edges    []tweetEdgeView `json:"edges"`
	PageInfo pageInfoView    `json:"pageInfo"`
}

type tweetEdgeView struct {
	Cursor string    `json:"cursor"`
	Node   tweetView `json:"node"`
}

type pageInfoView struct {
	HasPreviousPage bool   `json:"hasPreviousPage"`
	HasNextPage     bool   `json:"hasNextPage"`
	StartCursor     string `json:"startCursor,omitempty"`
	EndCursor       string `json:"endCursor,omitempty"`
}

func newPageInfoView(pi relay.PageInfo) pageInfoView {
	return pageInfoView{
		HasPreviousPage: pi.HasPreviousPage,
		HasNextPage:     pi.HasNextPage,
		StartCursor:     pi.StartCursor,
		EndCursor:       pi.EndCursor,
	}
}
