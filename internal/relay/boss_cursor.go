package relay

// EncodeBossCursor renders a boss-list cursor (BossCursor, §3) to its
// wire form: the opaque key used to order the bosses() connection.
func EncodeBossCursor(bossKey string) string {
	return BossKeyCodec.Encode(bossKey)
}

// DecodeBossCursor reverses EncodeBossCursor.
func DecodeBossCursor(cursor string) (string, bool) {
	return BossKeyCodec.Decode(cursor)
}

// EncodeTweetCursor renders a per-boss history cursor (TweetCursor, §3)
// to its wire form, keyed by tweet id.
func EncodeTweetCursor(tweetID int64) string {
	return TweetKeyCodec.Encode(tweetID)
}

// DecodeTweetCursor reverses EncodeTweetCursor.
func DecodeTweetCursor(cursor string) (int64, bool) {
	return TweetKeyCodec.Decode(cursor)
}
