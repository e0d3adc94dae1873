// Package model defines the data types shared across the raid dispatch
// and aggregation engine: bilingual strings, timestamps, image
// fingerprints, and the Raid/Boss/BossEntry records built from them.
package model

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedString is a short, immutable string that is likely to be
// shared by many records (boss names, image URLs). Values are interned
// through a process-wide pool so that repeated occurrences of the same
// string share one underlying Go string header, and so equality checks
// on the hot path (boss-name lookups) are cheap string comparisons
// against already-deduplicated backing arrays.
type CachedString string

// internPoolSize bounds the intern table. Interning is a performance
// optimization, not a correctness requirement: if an old entry is
// evicted, the next occurrence is simply interned again under a new
// backing array. A long-running process ingesting years of tweets
// would otherwise grow this table without bound.
const internPoolSize = 8192

var internPool = mustNewInternPool()

func mustNewInternPool() *lru.Cache[string, CachedString] {
	pool, err := lru.New[string, CachedString](internPoolSize)
	if err != nil {
		// Only returns an error for a non-positive size, which is a
		// constant above; this can't happen.
		panic(err)
	}
	return pool
}

// Intern returns the canonical CachedString for s, reusing a
// previously interned value when available.
func Intern(s string) CachedString {
	if s == "" {
		return ""
	}
	if existing, ok := internPool.Get(s); ok {
		return existing
	}
	cs := CachedString(s)
	internPool.Add(s, cs)
	return cs
}

// String returns the underlying string.
func (c CachedString) String() string {
	return string(c)
}
