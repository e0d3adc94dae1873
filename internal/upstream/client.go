// Package upstream adapts an external streaming-HTTP source of tweets
// into parsed Raids for the handler (§6, "upstream stream adapter").
// It reconnects on transport errors with exponential back-off, treats
// 401/403 on the very first connection attempt as fatal, and retries
// everything else (420/429 rate limiting, 5xx, network errors)
// forever — grounded on the jetstream connectors' reconnect-loop idiom
// and twitter/stream.rs's connect_with_retries from the original
// implementation.
package upstream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/walfie-raid/petronel/internal/ingest"
	"github.com/walfie-raid/petronel/internal/model"
)

// ErrUnauthorized is returned by Run when the very first connection
// attempt is rejected with 401 or 403: per §6/§7 this is the one
// upstream failure that is not retried and instead signals a
// process-level shutdown.
var ErrUnauthorized = errors.New("upstream: unauthorized on first connection attempt")

// Client streams newline-delimited tweet JSON from a single HTTP
// endpoint and parses each line into a Raid.
type Client struct {
	httpClient *http.Client
	url        string
	authHeader string

	retryDelay time.Duration
	timeout    time.Duration

	logger *slog.Logger
}

// NewClient builds a Client against url (the streaming endpoint),
// authenticated with authHeader (sent verbatim as the Authorization
// header, e.g. "Bearer ..."). timeout bounds how long one connection
// attempt waits for the response headers; it does not limit how long
// an established stream stays open.
func NewClient(url, authHeader string, retryDelay, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if timeout > 0 {
		transport.ResponseHeaderTimeout = timeout
	}
	return &Client{
		httpClient: &http.Client{Transport: transport},
		url:        url,
		authHeader: authHeader,
		retryDelay: retryDelay,
		timeout:    timeout,
		logger:     logger,
	}
}

// Run streams Raids to out until ctx is done or a permanent failure
// occurs. Parse rejections (§4.1, §7) are silently dropped — only
// tweets internal/ingest.Parse accepts reach out.
func (c *Client) Run(ctx context.Context, out chan<- model.Raid) error {
	backoff, err := retry.NewExponential(c.retryDelay)
	if err != nil {
		return fmt.Errorf("upstream: building backoff: %w", err)
	}

	firstAttempt := true
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt := firstAttempt
		firstAttempt = false

		err := c.connectAndStream(ctx, out)
		if err == nil {
			return nil
		}

		var status statusError
		if errors.As(err, &status) {
			if attempt && (status.code == http.StatusUnauthorized || status.code == http.StatusForbidden) {
				return fmt.Errorf("%w: status %d", ErrUnauthorized, status.code)
			}
			c.logger.Warn("[UPSTREAM] http error, reconnecting", "status", status.code, "error", err)
			return retry.RetryableError(err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("[UPSTREAM] connection error, reconnecting", "error", err)
		return retry.RetryableError(err)
	})
}

type statusError struct{ code int }

func (e statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.code) }

// connectAndStream opens one connection and reads it until it ends,
// errors, or ctx is done. A graceful stream end (EOF with no read
// error) is treated as retryable, matching the reconnect loop in the
// original implementation.
func (c *Client) connectAndStream(ctx context.Context, out chan<- model.Raid) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("upstream: building request: %w", err)
	}
	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream: connecting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError{code: resp.StatusCode}
	}

	c.logger.Info("[UPSTREAM] connected")

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var wire wireTweet
		if err := json.Unmarshal(line, &wire); err != nil {
			c.logger.Warn("[UPSTREAM] malformed tweet payload, skipping", "error", err)
			continue
		}

		raid, ok := ingest.Parse(wire.toIngestTweet())
		if !ok {
			continue
		}

		select {
		case out <- raid:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("upstream: reading stream: %w", err)
	}

	return errors.New("upstream: stream ended")
}
