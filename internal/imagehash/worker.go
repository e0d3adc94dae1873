package imagehash

import (
	"context"
	"log/slog"
	"sync"

	"github.com/walfie-raid/petronel/internal/model"
)

// state is the lifecycle of a single boss name's hash, per §4.4.
type state int

const (
	stateAbsent state = iota
	statePending
	stateSuccess
	stateFailure
)

// Result is delivered downstream for every request the worker
// resolves, successful or not (BossImageHash in the spec).
type Result struct {
	BossName string
	Hash     model.ImageHash
	Err      error
}

type request struct {
	bossName string
	url      string
}

// Worker is the bounded-concurrency, deduplicating, cached URL->hash
// pipeline described in §4.4. At most `concurrency` fetches are ever
// in flight, at most one fetch per boss name is ever in flight at a
// time, and a successful hash is computed at most once for the
// lifetime of the Worker (invariant I5).
type Worker struct {
	hasher ImageHasher
	logger *slog.Logger

	requests  chan request
	out       chan Result
	sem       chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu     sync.Mutex
	states map[string]state
	cache  map[string]model.ImageHash
}

// NewWorker starts a Worker backed by hasher, allowing up to
// concurrency in-flight fetches at once.
func NewWorker(hasher ImageHasher, concurrency int, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}

	w := &Worker{
		hasher:   hasher,
		logger:   logger,
		requests: make(chan request, 256),
		out:      make(chan Result, 256),
		sem:      make(chan struct{}, concurrency),
		done:     make(chan struct{}),
		states:   make(map[string]state),
		cache:    make(map[string]model.ImageHash),
	}

	go w.intake()
	return w
}

// Request enqueues a hash request for bossName's image at url. A
// request for a boss name that is already in flight is silently
// dropped (no stampede); a request for a boss name with a cached
// success immediately forwards the cached hash downstream.
func (w *Worker) Request(bossName, url string) {
	select {
	case <-w.done:
		return
	default:
	}

	select {
	case w.requests <- request{bossName: bossName, url: url}:
	case <-w.done:
	}
}

// RequestForBoss enqueues a single hash request for bossName's image at
// imageURL, exactly as Request does. It does not look at the boss's
// other language side.
func (w *Worker) RequestForBoss(bossName string, imageURL string) {
	w.Request(bossName, imageURL)
}

// Results returns the channel of outcomes. Close closes this channel
// once in-flight fetches drain; a Worker that is never closed keeps
// it open.
func (w *Worker) Results() <-chan Result {
	return w.out
}

// Close shuts the worker down: the intake loop stops accepting new
// requests, and once every in-flight fetch finishes the output
// channel is closed.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		go func() {
			w.wg.Wait()
			close(w.out)
		}()
	})
}

func (w *Worker) intake() {
	for {
		select {
		case req := <-w.requests:
			w.handle(req)
		case <-w.done:
			return
		}
	}
}

func (w *Worker) handle(req request) {
	w.mu.Lock()
	switch w.states[req.bossName] {
	case statePending:
		w.mu.Unlock()
		return
	case stateSuccess:
		hash := w.cache[req.bossName]
		w.mu.Unlock()
		w.emit(Result{BossName: req.bossName, Hash: hash})
		return
	default: // stateAbsent or stateFailure: (re)try
		w.states[req.bossName] = statePending
		w.mu.Unlock()
	}

	w.wg.Add(1)
	go w.fetch(req)
}

func (w *Worker) fetch(req request) {
	defer w.wg.Done()

	select {
	case w.sem <- struct{}{}:
	case <-w.done:
		return
	}
	defer func() { <-w.sem }()

	hash, err := w.hasher.Hash(context.Background(), req.url)

	w.mu.Lock()
	if err != nil {
		w.states[req.bossName] = stateFailure
	} else {
		w.states[req.bossName] = stateSuccess
		w.cache[req.bossName] = hash
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("[IMAGEHASH] fetch failed", "boss_name", req.bossName, "url", req.url, "error", err)
	}

	w.emit(Result{BossName: req.bossName, Hash: hash, Err: err})
}

func (w *Worker) emit(r Result) {
	select {
	case w.out <- r:
	case <-w.done:
	}
}
