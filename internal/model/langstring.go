package model

// LangString holds the bilingual form of a value (boss name, boss
// image URL): an optional English side and an optional Japanese side.
// A LangString that originates from a parsed Raid always has at least
// one side present.
type LangString struct {
	En CachedString
	Ja CachedString
}

// NewLangString builds a LangString with a single side populated,
// according to lang.
func NewLangString(lang Language, value CachedString) LangString {
	ls := LangString{}
	ls.Set(lang, value)
	return ls
}

// Get returns the side for lang, which may be empty.
func (l LangString) Get(lang Language) CachedString {
	if lang == Japanese {
		return l.Ja
	}
	return l.En
}

// Set replaces the side for lang with value, in place. Callers needing
// to publish a mutation clone the owning Boss/BossEntry first and call
// Set on the clone.
func (l *LangString) Set(lang Language, value CachedString) {
	if lang == Japanese {
		l.Ja = value
	} else {
		l.En = value
	}
}

// Canonical returns the Japanese side if present, else the English
// side. Either may still be empty if the LangString is itself empty.
func (l LangString) Canonical() CachedString {
	if l.Ja != "" {
		return l.Ja
	}
	return l.En
}

// IsEmpty reports whether neither side is populated.
func (l LangString) IsEmpty() bool {
	return l.En == "" && l.Ja == ""
}

// Merge combines l with other, field-wise, with l winning whenever
// both sides have a value for the same language.
func (l LangString) Merge(other LangString) LangString {
	out := l
	if out.En == "" {
		out.En = other.En
	}
	if out.Ja == "" {
		out.Ja = other.Ja
	}
	return out
}
