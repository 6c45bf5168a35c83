package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"rainharvest-advisor/internal/domain"
)

// ErrMiss means no snapshot exists for the session.
var ErrMiss = errors.New("snapshot miss")

// NewID issues a session identifier.
func NewID() string { return uuid.NewString() }

// SnapshotStore keeps the most recent assessment result per session. It is
// written best-effort before each report download so a retry or the fallback
// path can still reference the result.
type SnapshotStore interface {
	SaveAssessment(ctx context.Context, sessionID string, result *domain.AssessmentResult) error
	LoadAssessment(ctx context.Context, sessionID string) (*domain.AssessmentResult, error)
}

func snapshotKey(sessionID string) string {
	return fmt.Sprintf("rainharvest:session:%s:assessment", sessionID)
}

// RedisStore is the go-redis backed snapshot store.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) SaveAssessment(ctx context.Context, sessionID string, result *domain.AssessmentResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(sessionID), string(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store assessment snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadAssessment(ctx context.Context, sessionID string) (*domain.AssessmentResult, error) {
	val, err := s.client.Get(ctx, snapshotKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, err
	}
	var result domain.AssessmentResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assessment snapshot: %w", err)
	}
	return &result, nil
}

// MemoryStore keeps snapshots in process memory with a TTL. Used when no
// Redis address is configured, and in tests.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	data map[string]memoryItem
}

type memoryItem struct {
	result  *domain.AssessmentResult
	expires time.Time // zero = no ttl
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:  ttl,
		data: make(map[string]memoryItem),
	}
}

func (s *MemoryStore) SaveAssessment(ctx context.Context, sessionID string, result *domain.AssessmentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exp time.Time
	if s.ttl > 0 {
		exp = time.Now().Add(s.ttl)
	}
	s.data[snapshotKey(sessionID)] = memoryItem{result: result, expires: exp}
	return nil
}

func (s *MemoryStore) LoadAssessment(ctx context.Context, sessionID string) (*domain.AssessmentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.data[snapshotKey(sessionID)]
	if !ok {
		return nil, ErrMiss
	}
	if !item.expires.IsZero() && time.Now().After(item.expires) {
		delete(s.data, snapshotKey(sessionID))
		return nil, ErrMiss
	}
	return item.result, nil
}
