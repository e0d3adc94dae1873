package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/walfie-raid/petronel/internal/ingest"
	"github.com/walfie-raid/petronel/internal/model"
)

func validLine(tweetID int64, bossName string) string {
	return fmt.Sprintf(`{"id_str":"%d","created_at":"Wed May 20 01:02:03 +0000 2020","text":"ABCD1234 :Battle ID\nI need backup!\n%s\n","source":%q,"user":{"screen_name":"walfieee","profile_image_url_https":"https://example.com/avatar.png"},"entities":{"media":[]}}`,
		tweetID, bossName, ingest.GameAppSource)
}

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientStreamsParsedRaids(t *testing.T) {
	body := validLine(1, "Lvl 60 Ozorotter") + "\n" + validLine(2, "Lvl 70 Ozorotter") + "\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, body)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 10*time.Millisecond, time.Second, silentLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out := make(chan model.Raid, 8)
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx, out) }()

	var got []model.Raid
	for len(got) < 2 {
		select {
		case r := <-out:
			got = append(got, r)
		case <-ctx.Done():
			t.Fatalf("timed out waiting for raids, got %d", len(got))
		}
	}

	if got[0].TweetID != 1 || got[0].BossName.String() != "Lvl 60 Ozorotter" {
		t.Errorf("first raid = %+v", got[0])
	}
	if got[1].TweetID != 2 || got[1].BossName.String() != "Lvl 70 Ozorotter" {
		t.Errorf("second raid = %+v", got[1])
	}

	cancel()
	<-errCh
}

func TestClientSkipsMalformedAndRejectedLines(t *testing.T) {
	body := "not json at all\n" +
		`{"id_str":"1","created_at":"Wed May 20 01:02:03 +0000 2020","text":"unrelated text","source":"other client"}` + "\n" +
		validLine(3, "Lvl 60 Ozorotter") + "\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, body)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 10*time.Millisecond, time.Second, silentLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out := make(chan model.Raid, 8)
	go c.Run(ctx, out)

	select {
	case r := <-out:
		if r.TweetID != 3 {
			t.Fatalf("got tweet id %d, want only the valid one (3)", r.TweetID)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for the one valid raid")
	}
}

func TestClientFailsFastOnFirstAttemptUnauthorized(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Millisecond, time.Second, silentLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out := make(chan model.Raid, 1)
	err := c.Run(ctx, out)
	if err == nil {
		t.Fatal("expected an error")
	}
	if attempts.Load() != 1 {
		t.Fatalf("attempts = %d, want exactly 1 (no retry after first-attempt 401)", attempts.Load())
	}
}

func TestClientReconnectsAfterStreamEnds(t *testing.T) {
	var connections atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := connections.Add(1)
		w.WriteHeader(http.StatusOK)
		if n == 1 {
			io.WriteString(w, validLine(1, "Lvl 60 Ozorotter")+"\n")
			return
		}
		io.WriteString(w, validLine(2, "Lvl 70 Ozorotter")+"\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Millisecond, time.Second, silentLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out := make(chan model.Raid, 8)
	go c.Run(ctx, out)

	var got []model.Raid
	for len(got) < 2 {
		select {
		case r := <-out:
			got = append(got, r)
		case <-ctx.Done():
			t.Fatalf("timed out waiting for raids across reconnect, got %d", len(got))
		}
	}
	if got[0].TweetID != 1 || got[1].TweetID != 2 {
		t.Fatalf("raids = %+v, want tweet ids 1 then 2 across the reconnect", got)
	}
	if connections.Load() < 2 {
		t.Fatalf("connections = %d, want at least 2", connections.Load())
	}
}

func TestClientRetriesRateLimitStatus(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, validLine(9, "Lvl 60 Ozorotter")+"\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Millisecond, time.Second, silentLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out := make(chan model.Raid, 1)
	go c.Run(ctx, out)

	select {
	case r := <-out:
		if r.TweetID != 9 {
			t.Fatalf("tweet id = %d, want 9", r.TweetID)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for the raid after a retried rate limit")
	}
	if attempts.Load() < 2 {
		t.Fatalf("attempts = %d, want at least 2 (retry after 429)", attempts.Load())
	}
}
