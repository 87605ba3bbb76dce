package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const stopKeyPrefix = "focus-group:stop:"

func stopKey(sessionID uuid.UUID) string {
	return stopKeyPrefix + sessionID.String()
}

// RedisStopSignal shares stop requests between the API and the workers
type RedisStopSignal struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStopSignal creates a stop signal whose flags expire after ttl
func NewRedisStopSignal(client *redis.Client, ttl time.Duration) *RedisStopSignal {
	return &RedisStopSignal{client: client, ttl: ttl}
}

// RequestStop raises the stop flag of a session
func (s *RedisStopSignal) RequestStop(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.client.Set(ctx, stopKey(sessionID), time.Now().UTC().Format(time.RFC3339), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to raise stop signal: %w", err)
	}
	return nil
}

// IsStopRequested reports whether the stop flag of a session is raised
func (s *RedisStopSignal) IsStopRequested(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	err := s.client.Get(ctx, stopKey(sessionID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read stop signal: %w", err)
	}
	return true, nil
}

// Clear lowers the stop flag once the session ended
func (s *RedisStopSignal) Clear(ctx context.Context, sessionID uuid.UUID) error {
	return s.client.Del(ctx, stopKey(sessionID)).Err()
}

// MemoryStopSignal keeps stop requests in process, for the single-binary mode
type MemoryStopSignal struct {
	store *MemoryStore
	ttl   time.Duration
}

// NewMemoryStopSignal creates an in-process stop signal
func NewMemoryStopSignal(store *MemoryStore, ttl time.Duration) *MemoryStopSignal {
	return &MemoryStopSignal{store: store, ttl: ttl}
}

// RequestStop raises the stop flag of a session
func (s *MemoryStopSignal) RequestStop(ctx context.Context, sessionID uuid.UUID) error {
	s.store.Raise(stopKey(sessionID), s.ttl)
	return nil
}

// IsStopRequested reports whether the stop flag of a session is raised
func (s *MemoryStopSignal) IsStopRequested(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	_, ok := s.store.RaisedAt(stopKey(sessionID))
	return ok, nil
}

// Clear lowers the stop flag
func (s *MemoryStopSignal) Clear(ctx context.Context, sessionID uuid.UUID) error {
	s.store.Lower(stopKey(sessionID))
	return nil
}

// Close stops the backing store's sweeper.
func (s *MemoryStopSignal) Close() error {
	s.store.Close()
	return nil
}
