package model

import "time"

// Raid is an immutable record extracted from one accepted tweet.
type Raid struct {
	// ID is the short alphanumeric "raid ID" captured from the tweet body.
	ID string
	// TweetID uniquely identifies the source tweet.
	TweetID int64

	UserName     string
	UserImage    string // empty when absent
	HasUserImage bool

	BossName CachedString

	// CreatedAtText preserves the tweet's original timestamp string, so
	// re-serializing a Raid never re-formats (and potentially
	// round-trips lossily) the source value.
	CreatedAtText string
	// CreatedAt is CreatedAtText parsed into an instant.
	CreatedAt time.Time

	Text    string // empty when absent
	HasText bool

	Language Language

	ImageURL CachedString // empty when absent
}
