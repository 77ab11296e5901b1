package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/models"
)

// Attempt is one invocation of the payment widget. It accepts exactly one
// outcome; a widget that is closed and reopened starts a new attempt.
type Attempt struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	OrderID   models.ID `json:"order_id"`
	SnapToken string    `json:"snap_token"`
	CreatedAt time.Time `json:"created_at"`
	Outcome   Outcome   `json:"outcome,omitempty"`
}

var (
	ErrAttemptNotFound = apperrors.ErrNotFound.WithMessage("payment attempt not found")
	ErrAttemptResolved = apperrors.ErrConflict.WithMessage("payment attempt already has an outcome")
)

// AttemptStore keeps attempts until they expire. Resolve is first-writer-wins.
type AttemptStore interface {
	Begin(ctx context.Context, a Attempt) error
	Get(ctx context.Context, id string) (Attempt, error)
	Resolve(ctx context.Context, id string, outcome Outcome) (Attempt, error)
}

type memoryEntry struct {
	attempt Attempt
	expires time.Time
}

// MemoryAttemptStore is a process-local AttemptStore.
type MemoryAttemptStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	attempts map[string]*memoryEntry
	now      func() time.Time
}

func NewMemoryAttemptStore(ttl time.Duration) *MemoryAttemptStore {
	return &MemoryAttemptStore{ttl: ttl, attempts: make(map[string]*memoryEntry), now: time.Now}
}

func (s *MemoryAttemptStore) Begin(_ context.Context, a Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.attempts[a.ID] = &memoryEntry{attempt: a, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryAttemptStore) Get(_ context.Context, id string) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.liveLocked(id)
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return e.attempt, nil
}

func (s *MemoryAttemptStore) Resolve(_ context.Context, id string, outcome Outcome) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.liveLocked(id)
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if e.attempt.Outcome != "" {
		return e.attempt, ErrAttemptResolved
	}
	e.attempt.Outcome = outcome
	return e.attempt, nil
}

func (s *MemoryAttemptStore) liveLocked(id string) (*memoryEntry, bool) {
	e, ok := s.attempts[id]
	if !ok || !s.now().Before(e.expires) {
		return nil, false
	}
	return e, true
}

func (s *MemoryAttemptStore) sweepLocked() {
	now := s.now()
	for id, e := range s.attempts {
		if !now.Before(e.expires) {
			delete(s.attempts, id)
		}
	}
}

// RedisAttemptStore keeps attempts in redis so any BFF instance can accept the
// outcome. The outcome key is claimed with SETNX.
type RedisAttemptStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

func NewRedisAttemptStore(client *redis.Client, namespace string, ttl time.Duration) *RedisAttemptStore {
	return &RedisAttemptStore{client: client, namespace: namespace, ttl: ttl}
}

func (s *RedisAttemptStore) attemptKey(id string) string {
	return fmt.Sprintf("%s:attempt:%s", s.namespace, id)
}

func (s *RedisAttemptStore) outcomeKey(id string) string {
	return s.attemptKey(id) + ":outcome"
}

func (s *RedisAttemptStore) Begin(ctx context.Context, a Attempt) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.attemptKey(a.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store payment attempt: %w", err)
	}
	return nil
}

func (s *RedisAttemptStore) Get(ctx context.Context, id string) (Attempt, error) {
	data, err := s.client.Get(ctx, s.attemptKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Attempt{}, ErrAttemptNotFound
	}
	if err != nil {
		return Attempt{}, fmt.Errorf("failed to read payment attempt: %w", err)
	}

	var a Attempt
	if err := json.Unmarshal(data, &a); err != nil {
		return Attempt{}, fmt.Errorf("failed to decode payment attempt: %w", err)
	}

	outcome, err := s.client.Get(ctx, s.outcomeKey(id)).Result()
	switch {
	case err == nil:
		a.Outcome = Outcome(outcome)
	case !errors.Is(err, redis.Nil):
		return Attempt{}, fmt.Errorf("failed to read payment outcome: %w", err)
	}
	return a, nil
}

func (s *RedisAttemptStore) Resolve(ctx context.Context, id string, outcome Outcome) (Attempt, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return Attempt{}, err
	}

	claimed, err := s.client.SetNX(ctx, s.outcomeKey(id), string(outcome), s.ttl).Result()
	if err != nil {
		return Attempt{}, fmt.Errorf("failed to record payment outcome: %w", err)
	}
	if !claimed {
		return s.resolved(ctx, a)
	}
	a.Outcome = outcome
	return a, nil
}

func (s *RedisAttemptStore) resolved(ctx context.Context, a Attempt) (Attempt, error) {
	if winner, err := s.client.Get(ctx, s.outcomeKey(a.ID)).Result(); err == nil {
		a.Outcome = Outcome(winner)
	}
	return a, ErrAttemptResolved
}
