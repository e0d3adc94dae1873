// Package relay implements opaque-cursor pagination over a finite
// ordered sequence of edges, following the Relay connection spec's
// first/after/last/before arguments (with one intentional divergence,
// noted on Paginate).
package relay

import (
	"encoding/binary"
	"errors"

	"github.com/mr-tron/base58"
)

// PageInfo describes the position of a page within its full sequence.
type PageInfo struct {
	HasPreviousPage bool
	HasNextPage     bool
	StartCursor     string
	HasStartCursor  bool
	EndCursor       string
	HasEndCursor    bool
}

// KeyCodec encodes and decodes the opaque key embedded in a cursor.
// Implementations use a postcard-style compact binary encoding (plain
// varints for integers, raw UTF-8 bytes for strings) before the
// base58 wrapping every cursor shares — see BossKeyCodec and
// TweetKeyCodec below.
type KeyCodec[K any] interface {
	Encode(key K) string
	Decode(s string) (K, bool)
}

// stringKeyCodec encodes a string key as base58 of its raw UTF-8 bytes.
type stringKeyCodec struct{}

func (stringKeyCodec) Encode(key string) string {
	return base58.Encode([]byte(key))
}

func (stringKeyCodec) Decode(s string) (string, bool) {
	raw, err := base58.Decode(s)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// int64KeyCodec encodes an int64 key as base58 of its varint form.
type int64KeyCodec struct{}

func (int64KeyCodec) Encode(key int64) string {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutVarint(buf, key)
	return base58.Encode(buf[:n])
}

func (int64KeyCodec) Decode(s string) (int64, bool) {
	raw, err := base58.Decode(s)
	if err != nil {
		return 0, false
	}
	v, n := binary.Varint(raw)
	if n <= 0 {
		return 0, false
	}
	return v, true
}

// BossKeyCodec is the KeyCodec for BossCursor (§4.2): an opaque boss key.
var BossKeyCodec KeyCodec[string] = stringKeyCodec{}

// TweetKeyCodec is the KeyCodec for TweetCursor (§4.2): a tweet id.
var TweetKeyCodec KeyCodec[int64] = int64KeyCodec{}

// ErrInvalidArguments is the pagination-argument error surfaced to
// callers per §7, when neither or both of first/last are given, or
// either is negative.
var ErrInvalidArguments = errors.New("invalid pagination arguments")

// Args bundles the Relay connection arguments for one Paginate call.
type Args[K any] struct {
	First     int
	HasFirst  bool
	After     K
	HasAfter  bool
	Last      int
	HasLast   bool
	Before    K
	HasBefore bool
}

// Paginate slices edges according to args, returning the selected
// edges (in their input order) and the resulting PageInfo.
//
// Divergence from the Relay spec, kept intentionally (see spec.md §9):
// when `after` names a cursor absent from edges, the spec says not to
// slice at all; this implementation instead consumes the whole
// remaining sequence, so the page is empty. A `before` cursor absent
// from edges is ignored, as if it had not been given.
func Paginate[E any, K comparable](
	edges []E,
	edgeKey func(E) K,
	codec KeyCodec[K],
	args Args[K],
) ([]E, PageInfo, error) {
	total := len(edges)

	switch {
	case !args.HasFirst && !args.HasLast:
		return nil, PageInfo{}, errFirstOrLast
	case args.HasFirst && args.HasLast:
		return nil, PageInfo{}, errOnlyOne
	case args.HasFirst && args.First < 0:
		return nil, PageInfo{}, errNonNegative
	case args.HasLast && args.Last < 0:
		return nil, PageInfo{}, errNonNegative
	}

	remaining := edges
	skipped := 0

	if args.HasAfter {
		idx := indexOfKey(remaining, edgeKey, args.After)
		if idx < 0 {
			skipped = len(remaining)
			remaining = nil
		} else {
			skipped = idx + 1
			remaining = remaining[idx+1:]
		}
	}

	remainingLen := total - skipped

	var out []E
	switch {
	case args.HasFirst && !args.HasBefore:
		out = takeFirst(remaining, args.First)

	case args.HasFirst && args.HasBefore:
		limit := indexOfKey(remaining, edgeKey, args.Before)
		if limit < 0 {
			limit = len(remaining)
		}
		out = takeFirst(remaining[:limit], args.First)

	case args.HasLast && !args.HasBefore:
		skipN := 0
		if remainingLen > args.Last {
			skipN = remainingLen - args.Last
		}
		skipped += skipN
		out = dropFirst(remaining, skipN)

	case args.HasLast && args.HasBefore:
		limit := indexOfKey(remaining, edgeKey, args.Before)
		if limit < 0 {
			limit = len(remaining)
		}
		window := remaining[:limit]
		if len(window) > args.Last {
			skipN := len(window) - args.Last
			skipped += skipN
			out = window[skipN:]
		} else {
			out = window
		}
	}

	pageInfo := PageInfo{
		HasPreviousPage: skipped > 0,
		HasNextPage:     len(out)+skipped < total,
	}
	if len(out) > 0 {
		pageInfo.StartCursor = codec.Encode(edgeKey(out[0]))
		pageInfo.HasStartCursor = true
		pageInfo.EndCursor = codec.Encode(edgeKey(out[len(out)-1]))
		pageInfo.HasEndCursor = true
	}

	return out, pageInfo, nil
}

var (
	errFirstOrLast = wrapArgError("Either first or last must be specified")
	errOnlyOne     = wrapArgError("Only one of first or last should be specified")
	errNonNegative = wrapArgError("first and last must be non-negative")
)

func wrapArgError(msg string) error {
	return argError(msg)
}

// argError is a distinct string-carrying error type so callers can
// surface msg verbatim to users while still matching ErrInvalidArguments.
type argError string

func (e argError) Error() string { return string(e) }

func (e argError) Unwrap() error { return ErrInvalidArguments }

func indexOfKey[E any, K comparable](edges []E, edgeKey func(E) K, key K) int {
	for i, e := range edges {
		if edgeKey(e) == key {
			return i
		}
	}
	return -1
}

func takeFirst[E any](edges []E, n int) []E {
	if n >= len(edges) {
		return edges
	}
	return edges[:n]
}

func dropFirst[E any](edges []E, n int) []E {
	if n >= len(edges) {
		return nil
	}
	return edges[n:]
}
