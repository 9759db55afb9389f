package continuity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"llm-decision-engine/internal/interfaces"
	"llm-decision-engine/internal/types"
)

// MemoryStateStore holds one ContinuityState per symbol in process memory.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]*types.ContinuityState
}

var _ interfaces.StateStore = (*MemoryStateStore)(nil)

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]*types.ContinuityState)}
}

func (s *MemoryStateStore) Load(_ context.Context, symbol string) (*types.ContinuityState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[symbol]
	if !ok {
		return nil, nil
	}
	// Copy out so callers cannot mutate the stored snapshot.
	out := *state
	out.EntryConditions = append([]types.EntryCondition(nil), state.EntryConditions...)
	out.LastRecord = state.LastRecord.Clone()
	return &out, nil
}

func (s *MemoryStateStore) Save(_ context.Context, state *types.ContinuityState) error {
	if state == nil || state.Symbol == "" {
		return errors.New("continuity state requires a symbol")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.Symbol] = state
	return nil
}

// RedisStateStore persists continuity state in Redis so the snapshot
// survives restarts and can be shared between processes.
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

var _ interfaces.StateStore = (*RedisStateStore)(nil)

func NewRedisStateStore(client *redis.Client, prefix string) *RedisStateStore {
	if prefix == "" {
		prefix = "decision-engine"
	}
	return &RedisStateStore{client: client, prefix: prefix}
}

func (s *RedisStateStore) key(symbol string) string {
	return fmt.Sprintf("%s:continuity:%s", s.prefix, symbol)
}

func (s *RedisStateStore) Load(ctx context.Context, symbol string) (*types.ContinuityState, error) {
	raw, err := s.client.Get(ctx, s.key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load continuity state: %w", err)
	}
	var state types.ContinuityState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode continuity state: %w", err)
	}
	return &state, nil
}

func (s *RedisStateStore) Save(ctx context.Context, state *types.ContinuityState) error {
	if state == nil || state.Symbol == "" {
		return errors.New("continuity state requires a symbol")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode continuity state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(state.Symbol), raw, 0).Err(); err != nil {
		return fmt.Errorf("save continuity state: %w", err)
	}
	return nil
}
