package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/walfie-raid/petronel/internal/metrics"
	"github.com/walfie-raid/petronel/internal/model"
	"github.com/walfie-raid/petronel/internal/raidhandler"
	"github.com/walfie-raid/petronel/internal/relay"
)

// Handler serves the query/subscription adapter's HTTP surface (§6):
// node/boss/bosses/tweets over REST-ish GET endpoints, and
// subscribe/subscribeBossUpdates over WebSocket (see websocket.go).
type Handler struct {
	raids          *raidhandler.Handler
	metricsFactory *metrics.Factory
}

// NewHandler builds a Handler backed by raids.
func NewHandler(raids *raidhandler.Handler) *Handler {
	return &Handler{raids: raids}
}

// Mount registers every route this adapter serves onto r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/node/{id}", h.handleNode)
	r.Get("/boss/{name}", h.handleBoss)
	r.Get("/bosses", h.handleBosses)
	r.Get("/boss/{name}/tweets", h.handleTweets)
	r.Get("/subscribe/{name}", h.handleSubscribeBoss)
	r.Get("/subscribe-boss-updates", h.handleSubscribeBossUpdates)
	r.Post("/boss/{name}/alias", h.handleSetAlias)
}

// handleNode implements node(id): decodes a base58 NodeId and
// dispatches to the boss or tweet it names.
func (h *Handler) handleNode(w http.ResponseWriter, r *http.Request) {
	encoded := chi.URLParam(r, "id")

	nodeID, err := model.DecodeNodeID(encoded)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch nodeID.Kind {
	case model.NodeKindBoss:
		entry, ok := h.raids.Boss(nodeID.BossName)
		if !ok {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, newBossView(entry))

	case model.NodeKindTweet:
		entry, ok := h.raids.Boss(nodeID.BossName)
		if !ok {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		for _, raid := range entry.History() {
			if raid.TweetID == nodeID.TweetID {
				writeJSON(w, http.StatusOK, newTweetView(nodeID.BossName, raid))
				return
			}
		}
		writeError(w, http.StatusNotFound, "not found")

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleBoss implements boss(id): looks up a single boss by either
// locale name.
func (h *Handler) handleBoss(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	entry, ok := h.raids.Boss(name)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, newBossView(entry))
}

// handleBosses implements bosses(first|after|last|before): the full
// live boss list in the handler's (level, canonical name) order,
// paginated by relay.Paginate with the canonical name as cursor key.
func (h *Handler) handleBosses(w http.ResponseWriter, r *http.Request) {
	entries := h.raids.Bosses()

	args, err := parsePaginationArgs(r, relay.BossKeyCodec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, pageInfo, err := relay.Paginate(entries, bossEdgeKey, relay.BossKeyCodec, args)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	edges := make([]bossEdgeView, len(page))
	for i, entry := range page {
		edges[i] = bossEdgeView{
			Cursor: relay.EncodeBossCursor(bossEdgeKey(entry)),
			Node:   newBossView(entry),
		}
	}

	writeJSON(w, http.StatusOK, bossConnectionView{Edges: edges, PageInfo: newPageInfoView(pageInfo)})
}

// handleTweets implements tweets(boss, first|after|last|before): one
// boss's bounded history, paginated by tweet id.
func (h *Handler) handleTweets(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	entry, ok := h.raids.Boss(name)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	raids := entry.History()

	args, err := parsePaginationArgs(r, relay.TweetKeyCodec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, pageInfo, err := relay.Paginate(raids, func(r model.Raid) int64 { return r.TweetID }, relay.TweetKeyCodec, args)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	edges := make([]tweetEdgeView, len(page))
	for i, raid := range page {
		edges[i] = tweetEdgeView{
			Cursor: relay.EncodeTweetCursor(raid.TweetID),
			Node:   newTweetView(name, raid),
		}
	}

	writeJSON(w, http.StatusOK, tweetConnectionView{Edges: edges, PageInfo: newPageInfoView(pageInfo)})
}

// handleSetAlias pins the boss name in the URL path so future pushes
// and lookups under it redirect to the canonical name given in the
// request body, ahead of any image-hash merge (an operator correcting
// a known-bad boss name).
func (h *Handler) handleSetAlias(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body struct {
		Canonical string `json:"canonical"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Canonical == "" {
		writeError(w, http.StatusBadRequest, "canonical must not be empty")
		return
	}

	h.raids.SetAlias(name, body.Canonical)
	w.WriteHeader(http.StatusNoContent)
}

func bossEdgeKey(entry *raidhandler.BossEntry) string {
	return entry.Boss.Name.Canonical().String()
}

// parsePaginationArgs reads first/after/last/before query parameters
// into a relay.Args, decoding the cursor with codec. An absent
// parameter is left unset (relay.Paginate then reports a missing
// first/last itself); a non-integer first/last or a malformed cursor
// is returned as an error, so a bad cursor is a client error rather
// than a silently-ignored one.
func parsePaginationArgs[K any](r *http.Request, codec relay.KeyCodec[K]) (relay.Args[K], error) {
	q := r.URL.Query()
	args := relay.Args[K]{}

	if v := q.Get("first"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return args, errors.New("first must be an integer")
		}
		args.First = n
		args.HasFirst = true
	}
	if v := q.Get("last"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return args, errors.New("last must be an integer")
		}
		args.Last = n
		args.HasLast = true
	}
	if v := q.Get("after"); v != "" {
		k, ok := codec.Decode(v)
		if !ok {
			return args, errors.New("after is not a valid cursor")
		}
		args.After = k
		args.HasAfter = true
	}
	if v := q.Get("before"); v != "" {
		k, ok := codec.Decode(v)
		if !ok {
			return args, errors.New("before is not a valid cursor")
		}
		args.Before = k
		args.HasBefore = true
	}

	return args, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("[API] failed to write response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
