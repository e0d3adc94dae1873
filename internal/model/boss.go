package model

import (
	"regexp"
	"strconv"
)

// levelRegexp extracts the boss level from a boss name such as
// "Lv60 Ozorotter" or "Lvl 60 Ozorotter".
var levelRegexp = regexp.MustCompile(`^Lv(?:l )?([0-9]+) `)

// ParseLevel extracts the boss level prefix from a boss name, or
// returns (0, false) if the name has no recognizable level prefix.
func ParseLevel(name string) (int16, bool) {
	m := levelRegexp.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 16)
	if err != nil {
		return 0, false
	}
	return int16(n), true
}

// Boss is the aggregated, bilingual view of a raid boss. A Boss value
// is treated as immutable once published: updates allocate a new Boss
// and the owning BossEntry is swapped for a new one, never mutated in
// place (see internal/raidhandler).
type Boss struct {
	Name  LangString
	Image LangString

	Level    int16
	HasLevel bool

	LastSeenAt *AtomicDateTime

	ImageHash OptionalImageHash
}

// NeedsImageHashUpdate reports whether this Boss is missing an image
// hash but has enough image data to compute one.
func (b *Boss) NeedsImageHashUpdate() bool {
	return !b.ImageHash.Valid && b.Image.Canonical() != ""
}

// NewBossFromRaid builds the initial Boss aggregate for a boss seen
// for the first time, from the raid that introduced it.
func NewBossFromRaid(r *Raid) *Boss {
	image := LangString{}
	if r.ImageURL != "" {
		image.Set(r.Language, r.ImageURL)
	}

	level, hasLevel := ParseLevel(r.BossName.String())

	return &Boss{
		Name:       NewLangString(r.Language, r.BossName),
		Image:      image,
		Level:      level,
		HasLevel:   hasLevel,
		LastSeenAt: NewAtomicDateTime(r.CreatedAt),
		ImageHash:  OptionalImageHash{},
	}
}

// Clone returns a shallow copy of b, safe to mutate before publishing
// as a replacement entry. LastSeenAt is cloned so the new Boss owns an
// independent atomic cell.
func (b *Boss) Clone() *Boss {
	out := *b
	out.LastSeenAt = b.LastSeenAt.Clone()
	return &out
}
