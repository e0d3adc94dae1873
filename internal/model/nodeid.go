package model

import (
	"errors"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// ErrNodeNotFound is returned by DecodeNodeID for any string that is
// not a validly-encoded NodeID. It is intentionally uninformative
// ("not found") rather than a parse-error, per §6 of the spec: a
// malformed node id should look like a missing node to callers.
var ErrNodeNotFound = errors.New("not found")

// NodeIDKind distinguishes the two shapes a NodeID can take.
type NodeIDKind int

const (
	// NodeKindBoss identifies a Boss by its (possibly locale-specific) name.
	NodeKindBoss NodeIDKind = iota
	// NodeKindTweet identifies a single Raid by boss name and tweet id.
	NodeKindTweet
)

// NodeID is an opaque identifier for a Boss or a single Raid ("Tweet"),
// as exposed through the query/subscription adapter's `node(id)` operation.
type NodeID struct {
	Kind     NodeIDKind
	BossName string
	TweetID  int64 // only meaningful when Kind == NodeKindTweet
}

// BossNodeID builds a NodeID identifying a Boss by name.
func BossNodeID(bossName string) NodeID {
	return NodeID{Kind: NodeKindBoss, BossName: bossName}
}

// TweetNodeID builds a NodeID identifying a single Raid.
func TweetNodeID(bossName string, tweetID int64) NodeID {
	return NodeID{Kind: NodeKindTweet, BossName: bossName, TweetID: tweetID}
}

// Encode renders the NodeID to its base58 wire form.
func (n NodeID) Encode() string {
	var plain string
	switch n.Kind {
	case NodeKindBoss:
		plain = "boss:" + n.BossName
	case NodeKindTweet:
		plain = "tweet:" + n.BossName + "/" + strconv.FormatInt(n.TweetID, 10)
	}
	return base58.Encode([]byte(plain))
}

// DecodeNodeID reverses Encode. It is an invariant of the codec that
// DecodeNodeID(n.Encode()) == n for every NodeID value n.
func DecodeNodeID(encoded string) (NodeID, error) {
	raw, err := base58.Decode(encoded)
	if err != nil {
		return NodeID{}, ErrNodeNotFound
	}
	plain := string(raw)

	if rest, ok := strings.CutPrefix(plain, "boss:"); ok {
		return BossNodeID(rest), nil
	}

	if rest, ok := strings.CutPrefix(plain, "tweet:"); ok {
		idx := strings.LastIndex(rest, "/")
		if idx < 0 {
			return NodeID{}, ErrNodeNotFound
		}
		tweetID, err := strconv.ParseInt(rest[idx+1:], 10, 64)
		if err != nil {
			return NodeID{}, ErrNodeNotFound
		}
		return TweetNodeID(rest[:idx], tweetID), nil
	}

	return NodeID{}, ErrNodeNotFound
}
