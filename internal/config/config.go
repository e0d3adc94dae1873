// Package config loads the handful of tunables the raid dispatch and
// aggregation engine needs, the way internal/core/imageproxy loads
// its own Config: sensible defaults, environment-variable overrides,
// and a Validate method that NewConfig runs before returning.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidHistorySize     = errors.New("RaidHistorySize must be positive")
	ErrInvalidBroadcastCap    = errors.New("BroadcastCapacity must be positive")
	ErrInvalidHashConcurrency = errors.New("ImageHashConcurrency must be positive")
	ErrInvalidCleanupInterval = errors.New("CleanupInterval must be positive")
	ErrInvalidBossTTL         = errors.New("BossTTL must be positive")
	ErrInvalidFlushInterval   = errors.New("storage flush interval must be positive")
	ErrInvalidRetryDelay      = errors.New("ConnectionRetryDelay must be positive")
	ErrInvalidConnectTimeout  = errors.New("ConnectionTimeout must be positive")
)

// Config holds every tunable enumerated in §6 of the specification.
type Config struct {
	// RaidHistorySize bounds the per-boss ring buffer of recent raids.
	RaidHistorySize int

	// BroadcastCapacity bounds the backlog of each per-boss and the
	// global boss-update broadcast channel.
	BroadcastCapacity int

	// ImageHashConcurrency bounds the number of in-flight perceptual
	// hash fetches at any one time.
	ImageHashConcurrency int

	// CleanupInterval is how often the periodic sweep evicts stale
	// bosses and requests missing image hashes.
	CleanupInterval time.Duration

	// BossTTL is how long a boss may go unseen before cleanup evicts
	// it.
	BossTTL time.Duration

	// StorageFileFlushInterval is how often the file-backed
	// persistence store snapshots the boss list.
	StorageFileFlushInterval time.Duration

	// StorageRedisFlushInterval is how often a remote key/value
	// persistence store snapshots the boss list.
	StorageRedisFlushInterval time.Duration

	// ConnectionRetryDelay is the base back-off delay between
	// upstream stream reconnect attempts.
	ConnectionRetryDelay time.Duration

	// ConnectionTimeout bounds a single upstream connection attempt.
	ConnectionTimeout time.Duration
}

// NewConfig builds a Config from explicit values and validates it.
// This is the recommended way to construct a Config outside of
// DefaultConfig/ConfigFromEnv.
func NewConfig(
	raidHistorySize int,
	broadcastCapacity int,
	imageHashConcurrency int,
	cleanupInterval time.Duration,
	bossTTL time.Duration,
	storageFileFlushInterval time.Duration,
	storageRedisFlushInterval time.Duration,
	connectionRetryDelay time.Duration,
	connectionTimeout time.Duration,
) (Config, error) {
	cfg := Config{
		RaidHistorySize:           raidHistorySize,
		BroadcastCapacity:         broadcastCapacity,
		ImageHashConcurrency:      imageHashConcurrency,
		CleanupInterval:           cleanupInterval,
		BossTTL:                   bossTTL,
		StorageFileFlushInterval:  storageFileFlushInterval,
		StorageRedisFlushInterval: storageRedisFlushInterval,
		ConnectionRetryDelay:      connectionRetryDelay,
		ConnectionTimeout:         connectionTimeout,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field for the invariants the handler and its
// collaborators rely on.
func (c Config) Validate() error {
	if c.RaidHistorySize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidHistorySize, c.RaidHistorySize)
	}
	if c.BroadcastCapacity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBroadcastCap, c.BroadcastCapacity)
	}
	if c.ImageHashConcurrency <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidHashConcurrency, c.ImageHashConcurrency)
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidCleanupInterval, c.CleanupInterval)
	}
	if c.BossTTL <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidBossTTL, c.BossTTL)
	}
	if c.StorageFileFlushInterval <= 0 || c.StorageRedisFlushInterval <= 0 {
		return fmt.Errorf("%w: file=%v redis=%v", ErrInvalidFlushInterval, c.StorageFileFlushInterval, c.StorageRedisFlushInterval)
	}
	if c.ConnectionRetryDelay <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidRetryDelay, c.ConnectionRetryDelay)
	}
	if c.ConnectionTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidConnectTimeout, c.ConnectionTimeout)
	}
	return nil
}

// DefaultConfig returns the defaults enumerated in §6.
func DefaultConfig() Config {
	return Config{
		RaidHistorySize:           10,
		BroadcastCapacity:         10,
		ImageHashConcurrency:      5,
		CleanupInterval:           15 * time.Minute,
		BossTTL:                   15 * 24 * time.Hour,
		StorageFileFlushInterval:  10 * time.Minute,
		StorageRedisFlushInterval: 10 * time.Minute,
		ConnectionRetryDelay:      10 * time.Second,
		ConnectionTimeout:         60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling
// back to DefaultConfig for anything unset or unparsable.
//
// Environment variables:
//   - RAID_HISTORY_SIZE
//   - BROADCAST_CAPACITY
//   - IMAGE_HASH_CONCURRENCY
//   - CLEANUP_INTERVAL (duration string, e.g. "15m")
//   - BOSS_TTL (duration string, e.g. "15d")
//   - STORAGE_FILE_FLUSH_INTERVAL
//   - STORAGE_REDIS_FLUSH_INTERVAL
//   - CONNECTION_RETRY_DELAY
//   - CONNECTION_TIMEOUT
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if n, ok := envInt("RAID_HISTORY_SIZE", cfg.RaidHistorySize); ok {
		cfg.RaidHistorySize = n
	}
	if n, ok := envInt("BROADCAST_CAPACITY", cfg.BroadcastCapacity); ok {
		cfg.BroadcastCapacity = n
	}
	if n, ok := envInt("IMAGE_HASH_CONCURRENCY", cfg.ImageHashConcurrency); ok {
		cfg.ImageHashConcurrency = n
	}
	if d, ok := envDuration("CLEANUP_INTERVAL", cfg.CleanupInterval); ok {
		cfg.CleanupInterval = d
	}
	if d, ok := envDuration("BOSS_TTL", cfg.BossTTL); ok {
		cfg.BossTTL = d
	}
	if d, ok := envDuration("STORAGE_FILE_FLUSH_INTERVAL", cfg.StorageFileFlushInterval); ok {
		cfg.StorageFileFlushInterval = d
	}
	if d, ok := envDuration("STORAGE_REDIS_FLUSH_INTERVAL", cfg.StorageRedisFlushInterval); ok {
		cfg.StorageRedisFlushInterval = d
	}
	if d, ok := envDuration("CONNECTION_RETRY_DELAY", cfg.ConnectionRetryDelay); ok {
		cfg.ConnectionRetryDelay = d
	}
	if d, ok := envDuration("CONNECTION_TIMEOUT", cfg.ConnectionTimeout); ok {
		cfg.ConnectionTimeout = d
	}

	return cfg
}

func envInt(key string, fallback int) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("[CONFIG] invalid integer value, using default", "key", key, "value", v, "default", fallback, "error", err)
		return fallback, false
	}
	return n, true
}

func envDuration(key string, fallback time.Duration) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, false
	}
	d, err := ParseDuration(v)
	if err != nil {
		slog.Warn("[CONFIG] invalid duration value, using default", "key", key, "value", v, "default", fallback, "error", err)
		return fallback, false
	}
	return d, true
}

// ParseDuration parses a duration string with the suffixes this
// system's configuration table requires: ms, s, m, h, and d (days),
// the last of which time.ParseDuration does not understand.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") && !strings.HasSuffix(s, "ms") {
		numeric := strings.TrimSuffix(s, "d")
		n, err := strconv.ParseFloat(numeric, 64)
		if err != nil {
			return 0, fmt.Errorf("config: invalid day duration %q: %w", s, err)
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}
	return time.ParseDuration(s)
}
