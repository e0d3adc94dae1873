package model

import (
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		name      string
		wantLevel int16
		wantOK    bool
	}{
		{"Lv75 セレスト・マグナ", 75, true},
		{"Lvl 75 Celeste Omega", 75, true},
		{"Lv60 オオゾラッコ", 60, true},
		{"no level here", 0, false},
	}

	for _, tc := range cases {
		level, ok := ParseLevel(tc.name)
		if ok != tc.wantOK || level != tc.wantLevel {
			t.Errorf("ParseLevel(%q) = (%d, %v), want (%d, %v)", tc.name, level, ok, tc.wantLevel, tc.wantOK)
		}
	}
}

func TestBossNeedsImageHashUpdate(t *testing.T) {
	b := &Boss{
		Image:      LangString{En: "http://example.com/image.png"},
		LastSeenAt: NewAtomicDateTime(time.Now()),
	}
	if !b.NeedsImageHashUpdate() {
		t.Fatal("expected NeedsImageHashUpdate to be true when hash absent and image present")
	}

	b.ImageHash = NewImageHash(123)
	if b.NeedsImageHashUpdate() {
		t.Fatal("expected NeedsImageHashUpdate to be false once hash present")
	}

	b2 := &Boss{LastSeenAt: NewAtomicDateTime(time.Now())}
	if b2.NeedsImageHashUpdate() {
		t.Fatal("expected NeedsImageHashUpdate to be false with no image")
	}
}
