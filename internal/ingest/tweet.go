// Package ingest turns one external tweet into a structured raid
// invite record (internal/model.Raid), applying the strict acceptance
// gate described in the spec: exact client-source match, exactly one
// of two bilingual regex shapes, and a handful of anti-spoofing checks
// against the daily in-game auto-refresh tweet that otherwise looks
// similar to a real raid invite.
package ingest

// Tweet is the subset of an upstream tweet's fields the parser needs.
// The streaming-HTTP client (internal/upstream, out of core scope)
// is responsible for producing these from whatever wire format the
// upstream API actually uses.
type Tweet struct {
	ID        int64
	CreatedAt string // original timestamp string, e.g. "Wed May 20 01:02:03 +0000 2020"
	Text      string
	Source    string // HTML anchor tag identifying the posting client

	User     TweetUser
	Entities TweetEntities
}

// TweetUser is the subset of the tweet author's profile the parser needs.
type TweetUser struct {
	ScreenName           string
	DefaultProfileImage  bool
	ProfileImageURLHTTPS string
}

// TweetEntities carries any media attached to the tweet.
type TweetEntities struct {
	// MediaURL is the https URL of the first attached media item, if any.
	MediaURL string
	HasMedia bool
}
