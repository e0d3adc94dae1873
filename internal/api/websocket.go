package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/walfie-raid/petronel/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// SetMetrics attaches a metrics factory so websocket connection count
// is tracked (§6's petronel_websocket_connections gauge). Optional;
// a Handler without one simply skips the gauge updates.
func (h *Handler) SetMetrics(m *metrics.Factory) {
	h.metricsFactory = m
}

// handleSubscribeBoss implements subscribe(boss_name): a WebSocket
// stream of newline-framed JSON tweetViews for one boss, open even
// before the boss has been seen (§4.5.1).
func (h *Handler) handleSubscribeBoss(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[API] websocket upgrade failed", "error", err, "connectionId", uuid.NewString())
		return
	}

	sub := h.raids.Subscribe(name)
	h.serveSubscription(conn, func(ctx context.Context) (any, bool) {
		raid, ok := sub.Next(ctx)
		if !ok {
			return nil, false
		}
		return newTweetView(name, raid), true
	}, sub.Close)
}

// handleSubscribeBossUpdates implements subscribe_boss_updates(): a
// WebSocket stream of bossViews, one per boss creation, image fill-in,
// or cross-language merge.
func (h *Handler) handleSubscribeBossUpdates(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[API] websocket upgrade failed", "error", err, "connectionId", uuid.NewString())
		return
	}

	sub := h.raids.SubscribeBossUpdates()
	h.serveSubscription(conn, func(ctx context.Context) (any, bool) {
		entry, ok := sub.Next(ctx)
		if !ok {
			return nil, false
		}
		return newBossView(entry), true
	}, sub.Close)
}

// serveSubscription drives one websocket connection until the client
// disconnects: it pumps next() results to the client as JSON frames,
// pings on an interval to detect a dead peer, and tears the
// subscription down via closeSub on exit, the way the teacher's
// websocket hub pairs a read pump (liveness) with a write pump
// (payload delivery).
func (h *Handler) serveSubscription(conn *websocket.Conn, next func(ctx context.Context) (any, bool), closeSub func()) {
	connectionID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	if h.metricsFactory != nil {
		h.metricsFactory.IncWebsocketConnections()
	}

	defer func() {
		cancel()
		closeSub()
		conn.Close()
		if h.metricsFactory != nil {
			h.metricsFactory.DecWebsocketConnections()
		}
	}()

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// readPump: the only job is detecting the peer going away, since
	// this stream is server-to-client only.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	out := make(chan any, 16)
	go func() {
		defer close(out)
		for {
			v, ok := next(ctx)
			if !ok {
				return
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case v, ok := <-out:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(v); err != nil {
				slog.Warn("[API] websocket write failed", "error", err, "connectionId", connectionID)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
