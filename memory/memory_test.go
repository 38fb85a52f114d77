package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"concierge/web/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newTestMemory(t *testing.T, maxTurns int, ttl time.Duration) (*ChatMemory, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, maxTurns, ttl, zap.NewNop()), srv
}

func TestGetHistoryMissingSession(t *testing.T) {
	mem, _ := newTestMemory(t, 20, time.Hour)

	if got := mem.GetHistory(context.Background(), "nobody"); len(got) != 0 {
		t.Errorf("GetHistory() = %d turns for a missing session, want 0", len(got))
	}
}

func TestAppendPreservesChronologicalOrder(t *testing.T) {
	mem, _ := newTestMemory(t, 20, time.Hour)
	ctx := context.Background()

	turns := []types.ConversationTurn{
		{Role: types.RoleUser, Content: "hello"},
		{Role: types.RoleAssistant, Content: "hi there"},
		{Role: types.RoleUser, Content: "book me in"},
		{Role: types.RoleAssistant, Content: "what date?"},
	}
	for _, turn := range turns {
		if err := mem.Append(ctx, "s1", turn.Role, turn.Content); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got := mem.GetHistory(ctx, "s1")
	if len(got) != len(turns) {
		t.Fatalf("GetHistory() = %d turns, want %d", len(got), len(turns))
	}
	for i, turn := range turns {
		if got[i] != turn {
			t.Errorf("turn[%d] = %+v, want %+v", i, got[i], turn)
		}
	}
}

func TestAppendTrimsToTwiceMaxTurns(t *testing.T) {
	mem, _ := newTestMemory(t, 3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := mem.Append(ctx, "s1", types.RoleUser, fmt.Sprintf("user %d", i)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if err := mem.Append(ctx, "s1", types.RoleAssistant, fmt.Sprintf("assistant %d", i)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got := mem.GetHistory(ctx, "s1")
	if len(got) != 6 {
		t.Fatalf("GetHistory() = %d entries, want maxTurns*2 = 6", len(got))
	}
	if got[0].Content != "user 7" {
		t.Errorf("oldest surviving entry = %q, want the trim to keep the most recent pairs", got[0].Content)
	}
	if got[5].Content != "assistant 9" {
		t.Errorf("newest entry = %q, want the latest append", got[5].Content)
	}
}

func TestGetHistoryCorruptedStateIsEmpty(t *testing.T) {
	mem, srv := newTestMemory(t, 20, time.Hour)
	ctx := context.Background()

	if err := srv.Set("chat:s1", "{not json"); err != nil {
		t.Fatalf("seed corrupted state: %v", err)
	}

	if got := mem.GetHistory(ctx, "s1"); len(got) != 0 {
		t.Errorf("GetHistory() = %d turns from corrupted state, want 0", len(got))
	}

	// The session stays usable: the next append starts a fresh log.
	if err := mem.Append(ctx, "s1", types.RoleUser, "hello again"); err != nil {
		t.Fatalf("Append() after corruption error = %v", err)
	}
	if got := mem.GetHistory(ctx, "s1"); len(got) != 1 {
		t.Errorf("GetHistory() = %d turns after recovery append, want 1", len(got))
	}
}

func TestAppendRefreshesTTL(t *testing.T) {
	mem, srv := newTestMemory(t, 20, time.Hour)
	ctx := context.Background()

	if err := mem.Append(ctx, "s1", types.RoleUser, "first"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	srv.FastForward(30 * time.Minute)
	if err := mem.Append(ctx, "s1", types.RoleUser, "second"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if ttl := srv.TTL("chat:s1"); ttl != time.Hour {
		t.Errorf("TTL after second append = %v, want reset to %v", ttl, time.Hour)
	}

	srv.FastForward(2 * time.Hour)
	if got := mem.GetHistory(ctx, "s1"); len(got) != 0 {
		t.Errorf("GetHistory() = %d turns after expiry, want 0", len(got))
	}
}

func TestClearRemovesSession(t *testing.T) {
	mem, _ := newTestMemory(t, 20, time.Hour)
	ctx := context.Background()

	if err := mem.Append(ctx, "s1", types.RoleUser, "hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mem.Append(ctx, "s2", types.RoleUser, "hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := mem.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if got := mem.GetHistory(ctx, "s1"); len(got) != 0 {
		t.Errorf("GetHistory() = %d turns after Clear, want 0", len(got))
	}
	if got := mem.GetHistory(ctx, "s2"); len(got) != 1 {
		t.Errorf("Clear removed another session's history")
	}
}

func TestClearEvictsSessionLock(t *testing.T) {
	mem, _ := newTestMemory(t, 20, time.Hour)
	ctx := context.Background()

	if err := mem.Append(ctx, "s1", types.RoleUser, "hello"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mem.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	mem.mu.Lock()
	_, ok := mem.sessions["s1"]
	mem.mu.Unlock()
	if ok {
		t.Error("session lock entry survived Clear")
	}

	// The session stays usable after eviction.
	if err := mem.Append(ctx, "s1", types.RoleUser, "hello again"); err != nil {
		t.Fatalf("Append() after Clear error = %v", err)
	}
	if got := mem.GetHistory(ctx, "s1"); len(got) != 1 {
		t.Errorf("GetHistory() = %d turns after re-append, want 1", len(got))
	}
}

func TestClearMissingSessionIsNoError(t *testing.T) {
	mem, _ := newTestMemory(t, 20, time.Hour)

	if err := mem.Clear(context.Background(), "never-existed"); err != nil {
		t.Errorf("Clear() on a missing session error = %v, want nil", err)
	}
}
