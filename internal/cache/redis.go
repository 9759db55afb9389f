package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"llm-decision-engine/internal/interfaces"
	"llm-decision-engine/internal/metrics"
	"llm-decision-engine/internal/schedule"
	"llm-decision-engine/internal/types"
)

// RedisStore backs the analysis cache with a shared Redis so several engine
// processes can reuse each other's refreshes. The key TTL mirrors the
// Schedule boundary, so Redis evicts entries on its own and a miss means
// "absent or expired" just like the memory store's planner contract.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ interfaces.CacheStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "decision-engine"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(symbol string, tf types.Timeframe) string {
	return fmt.Sprintf("%s:analysis:%s:%s", s.prefix, symbol, tf)
}

func (s *RedisStore) Get(ctx context.Context, symbol string, tf types.Timeframe) (types.AnalysisEntry, bool) {
	raw, err := s.client.Get(ctx, s.key(symbol, tf)).Bytes()
	if err != nil {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return types.AnalysisEntry{}, false
	}
	var entry types.AnalysisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return types.AnalysisEntry{}, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return entry, true
}

func (s *RedisStore) Put(ctx context.Context, symbol string, tf types.Timeframe, payload types.AnalysisPayload, computedAt time.Time) error {
	entry := types.AnalysisEntry{
		Symbol:     symbol,
		Timeframe:  tf,
		ComputedAt: computedAt,
		ExpiresAt:  schedule.NextBoundary(tf, computedAt),
		Payload:    payload,
		Source:     types.SourceFresh,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal analysis entry: %w", err)
	}

	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		// Already past the boundary (replays of historic timestamps);
		// nothing worth storing.
		return nil
	}
	if err := s.client.Set(ctx, s.key(symbol, tf), raw, ttl).Err(); err != nil {
		return fmt.Errorf("store analysis entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, symbol string, tf types.Timeframe) error {
	if err := s.client.Del(ctx, s.key(symbol, tf)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("invalidate analysis entry: %w", err)
	}
	return nil
}
