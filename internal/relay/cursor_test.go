package relay

import "testing"

func allEdges() []int {
	edges := make([]int, 101)
	for i := range edges {
		edges[i] = i
	}
	return edges
}

func identity(i int) int { return i }

var testCodec KeyCodec[int] = int64IdentityCodec{}

// int64IdentityCodec lets the tests work with plain ints rather than
// threading an int64 conversion through every case.
type int64IdentityCodec struct{}

func (int64IdentityCodec) Encode(key int) string {
	return TweetKeyCodec.Encode(int64(key))
}

func (int64IdentityCodec) Decode(s string) (int, bool) {
	v, ok := TweetKeyCodec.Decode(s)
	return int(v), ok
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestPaginateFirstMoreThanExist(t *testing.T) {
	out, info, err := Paginate(allEdges(), identity, testCodec, Args[int]{First: 200, HasFirst: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(out, seq(0, 100)) {
		t.Fatalf("out = %v", out)
	}
	if info.HasPreviousPage || info.HasNextPage {
		t.Fatalf("info = %+v", info)
	}
}

func TestPaginateFirstOnly(t *testing.T) {
	out, info, err := Paginate(allEdges(), identity, testCodec, Args[int]{First: 10, HasFirst: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(out, seq(0, 9)) {
		t.Fatalf("out = %v", out)
	}
	if info.HasPreviousPage || !info.HasNextPage {
		t.Fatalf("info = %+v", info)
	}
}

func TestPaginateFirstAfter(t *testing.T) {
	out, info, err := Paginate(allEdges(), identity, testCodec, Args[int]{
		First: 10, HasFirst: true, After: 50, HasAfter: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(out, seq(51, 60)) {
		t.Fatalf("out = %v", out)
	}
	if !info.HasPreviousPage || !info.HasNextPage {
		t.Fatalf("info = %+v", info)
	}
}

func TestPaginateFirstAfterNotEnoughAtEnd(t *testing.T) {
	out, info, err := Paginate(allEdges(), identity, testCodec, Args[int]{
		First: 10, HasFirst: true, After: 95, HasAfter: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(out, seq(96, 100)) {
		t.Fatalf("out = %v", out)
	}
	if !info.HasPreviousPage || info.HasNextPage {
		t.Fatalf("info = %+v", info)
	}
}

func TestPaginateAfterCursorNotFound(t *testing.T) {
	out, info, err := Paginate(allEdges(), identity, testCodec, Args[int]{
		First: 10, HasFirst: true, After: 43253, HasAfter: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("out = %v, want empty", out)
	}
	if !info.HasPreviousPage || info.HasNextPage {
		t.Fatalf("info = %+v", info)
	}
	if info.HasStartCursor || info.HasEndCursor {
		t.Fatalf("info = %+v, want no cursors on an empty page", info)
	}
}

func TestPaginateLastMoreThanExist(t *testing.T) {
	out, info, err := Paginate(allEdges(), identity, testCodec, Args[int]{Last: 200, HasLast: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(out, seq(0, 100)) {
		t.Fatalf("out = %v", out)
	}
	if info.HasPreviousPage || info.HasNextPage {
		t.Fatalf("info = %+v", info)
	}
}

func TestPaginateLastOnly(t *testing.T) {
	out, info, err := Paginate(allEdges(), identity, testCodec, Args[int]{Last: 10, HasLast: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(out, seq(91, 100)) {
		t.Fatalf("out = %v", out)
	}
	if !info.HasPreviousPage || info.HasNextPage {
		t.Fatalf("info = %+v", info)
	}
}

func TestPaginateLastBefore(t *testing.T) {
	out, info, err := Paginate(allEdges(), identity, testCodec, Args[int]{
		Last: 10, HasLast: true, Before: 50, HasBefore: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(out, seq(40, 49)) {
		t.Fatalf("out = %v", out)
	}
	if !info.HasPreviousPage || !info.HasNextPage {
		t.Fatalf("info = %+v", info)
	}
}

func TestPaginateLastBeforeNotEnoughAtStart(t *testing.T) {
	out, info, err := Paginate(allEdges(), identity, testCodec, Args[int]{
		Last: 10, HasLast: true, Before: 5, HasBefore: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(out, seq(0, 4)) {
		t.Fatalf("out = %v", out)
	}
	if info.HasPreviousPage || !info.HasNextPage {
		t.Fatalf("info = %+v", info)
	}
}

func TestPaginateBeforeCursorNotFound(t *testing.T) {
	out, info, err := Paginate(allEdges(), identity, testCodec, Args[int]{
		Last: 10, HasLast: true, Before: 3532, HasBefore: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(out, seq(91, 100)) {
		t.Fatalf("out = %v", out)
	}
	if !info.HasPreviousPage || info.HasNextPage {
		t.Fatalf("info = %+v", info)
	}
}

func TestPaginateFirstAfterBefore(t *testing.T) {
	out, info, err := Paginate(allEdges(), identity, testCodec, Args[int]{
		First: 10, HasFirst: true, After: 40, HasAfter: true, Before: 60, HasBefore: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(out, seq(41, 50)) {
		t.Fatalf("out = %v", out)
	}
	if !info.HasPreviousPage || !info.HasNextPage {
		t.Fatalf("info = %+v", info)
	}
}

func TestPaginateLastAfterBefore(t *testing.T) {
	out, info, err := Paginate(allEdges(), identity, testCodec, Args[int]{
		After: 40, HasAfter: true, Last: 10, HasLast: true, Before: 60, HasBefore: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(out, seq(50, 59)) {
		t.Fatalf("out = %v", out)
	}
	if !info.HasPreviousPage || !info.HasNextPage {
		t.Fatalf("info = %+v", info)
	}
}

func TestPaginateRejectsNeitherFirstNorLast(t *testing.T) {
	_, _, err := Paginate(allEdges(), identity, testCodec, Args[int]{})
	if err == nil {
		t.Fatal("expected an error when neither first nor last is given")
	}
}

func TestPaginateRejectsBothFirstAndLast(t *testing.T) {
	_, _, err := Paginate(allEdges(), identity, testCodec, Args[int]{
		First: 1, HasFirst: true, Last: 1, HasLast: true,
	})
	if err == nil {
		t.Fatal("expected an error when both first and last are given")
	}
}

func TestPaginateRejectsNegative(t *testing.T) {
	_, _, err := Paginate(allEdges(), identity, testCodec, Args[int]{First: -1, HasFirst: true})
	if err == nil {
		t.Fatal("expected an error for a negative first")
	}
}

func TestBossAndTweetCursorRoundTrip(t *testing.T) {
	bossKey := "Lv60 オオゾラッコ"
	if got, ok := DecodeBossCursor(EncodeBossCursor(bossKey)); !ok || got != bossKey {
		t.Fatalf("boss cursor round-trip: got (%q, %v)", got, ok)
	}

	var tweetID int64 = 123456789
	if got, ok := DecodeTweetCursor(EncodeTweetCursor(tweetID)); !ok || got != tweetID {
		t.Fatalf("tweet cursor round-trip: got (%d, %v)", got, ok)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
