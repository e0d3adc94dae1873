package model

import "testing"

func TestNodeIDRoundTripBoss(t *testing.T) {
	n := BossNodeID("Lvl 60 Ozorotter")
	encoded := n.Encode()

	decoded, err := DecodeNodeID(encoded)
	if err != nil {
		t.Fatalf("DecodeNodeID: %v", err)
	}
	if decoded != n {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", decoded, n)
	}
}

func TestNodeIDRoundTripTweet(t *testing.T) {
	n := TweetNodeID("Lv60 オオゾラッコ", 123456789)
	decoded, err := DecodeNodeID(n.Encode())
	if err != nil {
		t.Fatalf("DecodeNodeID: %v", err)
	}
	if decoded != n {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", decoded, n)
	}
}

func TestDecodeNodeIDRejectsGarbage(t *testing.T) {
	if _, err := DecodeNodeID("not-base58-!!!"); err != ErrNodeNotFound {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}
