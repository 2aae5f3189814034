package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trendsight/trendsight-go/internal/models"
)

// Store is the key-value contract the trend cache runs on. Redis in
// production, an in-memory map or miniredis in tests.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) error
	TTLRemaining(ctx context.Context, key string) (time.Duration, error)
	Delete(ctx context.Context, keys ...string) error
	KeysByPattern(ctx context.Context, pattern string) ([]string, error)
}

// Stats is a snapshot of the cache performance counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Sets        int64 `json:"sets"`
	StaleServes int64 `json:"stale_serves"`
}

// staleEnvelope wraps the long-lived fallback copy with its write time so
// the age annotation can be computed on read.
type staleEnvelope struct {
	Data     *models.TrendResult `json:"data"`
	CachedAt int64               `json:"cached_at"` // unix ms
}

// StaleWarning is carried on every result served from the stale tier.
const StaleWarning = "Data may be outdated due to temporary API issues"

// TrendCache fronts the acquisition pipeline with a two-tier store: a fresh
// copy on a short TTL and a stale copy on a strictly longer TTL that only
// serves as a fallback when acquisition fails.
type TrendCache struct {
	store    Store
	ttl      time.Duration
	staleTTL time.Duration
	version  string
	logger   *logrus.Logger

	statsMu sync.RWMutex
	stats   Stats
}

func NewTrendCache(store Store, ttl, staleTTL time.Duration, version string, logger *logrus.Logger) *TrendCache {
	return &TrendCache{
		store:    store,
		ttl:      ttl,
		staleTTL: staleTTL,
		version:  version,
		logger:   logger,
	}
}

// Key builds the namespaced cache key for a normalized query tuple.
func (c *TrendCache) Key(keyword, region string, windowDays, baselineDays int) string {
	return fmt.Sprintf("trend:%s:%s:%s:%d:%d",
		c.version, strings.ToLower(keyword), region, windowDays, baselineDays)
}

func (c *TrendCache) staleKey(key string) string {
	return key + ":stale"
}

// GetOrFetch implements the cache-aside flow: fresh hit, otherwise fetch and
// double-write, and on fetch failure a pure read of the stale tier. The
// stale path never re-triggers acquisition.
func (c *TrendCache) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (*models.TrendResult, error)) (*models.TrendResult, error) {
	if fresh, ok := c.getFresh(ctx, key); ok {
		c.countHit()
		return fresh, nil
	}
	c.countMiss()

	result, fetchErr := fetch(ctx)
	if fetchErr == nil {
		result.Cache = models.CacheMeta{Hit: false, TTLSeconds: int64(c.ttl.Seconds())}
		c.Set(ctx, key, result)
		return result, nil
	}

	c.logger.WithFields(logrus.Fields{
		"key":   key,
		"error": fetchErr.Error(),
	}).Error("Fetch failed, attempting stale cache fallback")

	if stale, age, ok := c.getStale(ctx, key); ok {
		c.countStaleServe()
		c.logger.WithFields(logrus.Fields{
			"key":             key,
			"stale_age_hours": age / time.Hour,
		}).Warn("Returning stale cached data due to acquisition failure")

		stale.Cache = models.CacheMeta{
			Hit:        true,
			Stale:      true,
			TTLSeconds: 0,
			AgeSeconds: int64(age.Seconds()),
		}
		stale.Warning = StaleWarning
		stale.SourcesUsed = []string{string(models.SourceStaleCache)}
		return stale, nil
	}

	return nil, fetchErr
}

// Set writes both tiers. The stale copy is overwritten on every successful
// fetch. Write failures are logged and swallowed; caching is best-effort.
func (c *TrendCache) Set(ctx context.Context, key string, result *models.TrendResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		c.logger.WithField("key", key).WithError(err).Error("Failed to serialize trend result")
		return
	}
	if err := c.store.SetWithTTL(ctx, key, string(payload), c.ttl); err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("Failed to write fresh cache entry")
		return
	}

	envelope, err := json.Marshal(staleEnvelope{
		Data:     result,
		CachedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		c.logger.WithField("key", key).WithError(err).Error("Failed to serialize stale envelope")
		return
	}
	if err := c.store.SetWithTTL(ctx, c.staleKey(key), string(envelope), c.staleTTL); err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("Failed to write stale cache entry")
		return
	}

	c.statsMu.Lock()
	c.stats.Sets++
	c.statsMu.Unlock()
}

// getFresh returns the fresh entry annotated with its remaining TTL. Store
// errors degrade to a miss so the pipeline can fall through to a direct
// fetch.
func (c *TrendCache) getFresh(ctx context.Context, key string) (*models.TrendResult, bool) {
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("Cache store unreachable, degrading to direct fetch")
		return nil, false
	}
	if !found {
		return nil, false
	}

	var result models.TrendResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.logger.WithField("key", key).WithError(err).Error("Failed to deserialize cached trend result")
		return nil, false
	}

	ttl, err := c.store.TTLRemaining(ctx, key)
	if err != nil {
		ttl = 0
	}
	result.Cache = models.CacheMeta{Hit: true, TTLSeconds: int64(ttl.Seconds())}
	return &result, true
}

// getStale is a pure read of the fallback tier. The hard upper bound is the
// stale TTL itself, enforced by the store's expiry.
func (c *TrendCache) getStale(ctx context.Context, key string) (*models.TrendResult, time.Duration, bool) {
	raw, found, err := c.store.Get(ctx, c.staleKey(key))
	if err != nil || !found {
		return nil, 0, false
	}

	var envelope staleEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil || envelope.Data == nil {
		c.logger.WithField("key", key).Error("Failed to deserialize stale envelope")
		return nil, 0, false
	}

	age := time.Since(time.UnixMilli(envelope.CachedAt))
	if age < 0 {
		age = 0
	}
	return envelope.Data, age, true
}

// Purge removes all entries matching pattern, both tiers included.
func (c *TrendCache) Purge(ctx context.Context, pattern string) (int, error) {
	keys, err := c.store.KeysByPattern(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		return 0, fmt.Errorf("failed to purge cache entries: %w", err)
	}
	return len(keys), nil
}

// GetStats returns a snapshot of the cache counters.
func (c *TrendCache) GetStats() Stats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

func (c *TrendCache) countHit() {
	c.statsMu.Lock()
	c.stats.Hits++
	c.statsMu.Unlock()
}

func (c *TrendCache) countMiss() {
	c.statsMu.Lock()
	c.stats.Misses++
	c.statsMu.Unlock()
}

func (c *TrendCache) countStaleServe() {
	c.statsMu.Lock()
	c.stats.StaleServes++
	c.statsMu.Unlock()
}
