package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// SessionStore keeps per-session conversation state. Each chat session owns
// its own history; resetting one session never touches another.
type SessionStore interface {
	// Load returns the session history, or an empty history for an unknown
	// session.
	Load(ctx context.Context, sessionID string) ([]ChatMessage, error)
	// Save replaces the session history.
	Save(ctx context.Context, sessionID string, history []ChatMessage) error
	// Reset clears the session.
	Reset(ctx context.Context, sessionID string) error
}

// RedisSessionStore persists session histories in Redis with a TTL.
type RedisSessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisSessionStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if tracer == nil {
		tracer = otel.Tracer("clinic.internal.conversation.session")
	}
	return &RedisSessionStore{redis: client, ttl: ttl, tracer: tracer}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("chat:session:%s", sessionID)
}

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return []ChatMessage{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load session: %w", err)
	}

	var history []ChatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode session: %w", err)
	}
	return history, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, history []ChatMessage) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_session")
	defer span.End()

	data, err := json.Marshal(history)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Reset(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "conversation.reset_session")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to reset session: %w", err)
	}
	return nil
}

// MemorySessionStore is an in-process session store for development and
// tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]ChatMessage
}

// NewMemorySessionStore creates an in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string][]ChatMessage)}
}

func (s *MemorySessionStore) Load(_ context.Context, sessionID string) ([]ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.sessions[sessionID]
	out := make([]ChatMessage, len(history))
	copy(out, history)
	return out, nil
}

func (s *MemorySessionStore) Save(_ context.Context, sessionID string, history []ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]ChatMessage, len(history))
	copy(stored, history)
	s.sessions[sessionID] = stored
	return nil
}

func (s *MemorySessionStore) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
