package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"concierge/web/types"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChatMemory is the per-session conversation log: append-only, trimmed to
// the most recent maxTurns user/assistant pairs, expiring after ttl. State
// is keyed solely by the caller-supplied session id; ownership checks belong
// to a collaborator.
type ChatMemory struct {
	client   *redis.Client
	maxTurns int
	ttl      time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

func New(client *redis.Client, maxTurns int, ttl time.Duration, logger *zap.Logger) *ChatMemory {
	return &ChatMemory{
		client:   client,
		maxTurns: maxTurns,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*sync.Mutex),
	}
}

func key(sessionID string) string {
	return fmt.Sprintf("chat:%s", sessionID)
}

// sessionLock serializes the read-modify-write append cycle per session.
// Concurrent turns for the same session still resolve last-write-wins on the
// trimmed log; only interleaving within one append is prevented.
func (m *ChatMemory) sessionLock(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.sessions[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.sessions[sessionID] = lock
	}
	return lock
}

// GetHistory returns the session's turns in chronological order. A missing
// key or malformed stored state yields empty history, never an error.
func (m *ChatMemory) GetHistory(ctx context.Context, sessionID string) []types.ConversationTurn {
	data, err := m.client.Get(ctx, key(sessionID)).Result()
	if err != nil {
		if err != redis.Nil {
			m.logger.Warn("Failed to read chat history, treating as empty",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
		return nil
	}

	var history []types.ConversationTurn
	if err := json.Unmarshal([]byte(data), &history); err != nil {
		m.logger.Warn("Corrupted chat history, treating as empty",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil
	}
	return history
}

// Append adds one turn, trims to the most recent 2*maxTurns entries, and
// rewrites the log with a refreshed expiration.
func (m *ChatMemory) Append(ctx context.Context, sessionID, role, content string) error {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	history := m.GetHistory(ctx, sessionID)
	history = append(history, types.ConversationTurn{Role: role, Content: content})

	if limit := m.maxTurns * 2; len(history) > limit {
		history = history[len(history)-limit:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal chat history: %w", err)
	}
	if err := m.client.Set(ctx, key(sessionID), data, m.ttl).Err(); err != nil {
		return fmt.Errorf("write chat history: %w", err)
	}
	return nil
}

// Clear removes all stored state for the session, including its lock entry
// so the keyed-mutex map does not grow with every session id ever seen.
func (m *ChatMemory) Clear(ctx context.Context, sessionID string) error {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}

	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}
