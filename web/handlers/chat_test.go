package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"concierge/memory"
	"concierge/web/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type stubAgent struct {
	response    types.ChatResponse
	gotMessage  string
	gotHistory  []types.ConversationTurn
	gotSession  string
}

func (s *stubAgent) RunTurn(ctx context.Context, sessionID, message string, history []types.ConversationTurn) types.ChatResponse {
	s.gotSession = sessionID
	s.gotMessage = message
	s.gotHistory = history
	return s.response
}

func newTestRouter(t *testing.T, agent *stubAgent) (*gin.Engine, *memory.ChatMemory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	mem := memory.New(client, 20, time.Hour, zap.NewNop())

	handler := NewChatHandler(agent, mem, zap.NewNop())
	router := gin.New()
	router.POST("/chat", handler.SendMessage)
	router.DELETE("/sessions/:id", handler.ClearSession)
	return router, mem
}

func postChat(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSendMessageRunsTurnAndRecordsBothSides(t *testing.T) {
	agent := &stubAgent{response: types.ChatResponse{Reply: "hello back"}}
	router, mem := newTestRouter(t, agent)

	rec := postChat(t, router, types.ChatRequest{SessionID: "s1", Message: "hello"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp types.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reply != "hello back" {
		t.Errorf("reply = %q, want %q", resp.Reply, "hello back")
	}
	if agent.gotSession != "s1" || agent.gotMessage != "hello" {
		t.Errorf("agent saw session=%q message=%q", agent.gotSession, agent.gotMessage)
	}

	history := mem.GetHistory(context.Background(), "s1")
	if len(history) != 2 {
		t.Fatalf("history = %d turns, want the user and assistant turns", len(history))
	}
	if history[0].Role != types.RoleUser || history[0].Content != "hello" {
		t.Errorf("history[0] = %+v", history[0])
	}
	if history[1].Role != types.RoleAssistant || history[1].Content != "hello back" {
		t.Errorf("history[1] = %+v", history[1])
	}
}

func TestSendMessagePassesPriorHistoryToAgent(t *testing.T) {
	agent := &stubAgent{response: types.ChatResponse{Reply: "second reply"}}
	router, mem := newTestRouter(t, agent)
	ctx := context.Background()

	if err := mem.Append(ctx, "s1", types.RoleUser, "first"); err != nil {
		t.Fatalf("seed history: %v", err)
	}
	if err := mem.Append(ctx, "s1", types.RoleAssistant, "first reply"); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	postChat(t, router, types.ChatRequest{SessionID: "s1", Message: "second"})

	if len(agent.gotHistory) != 2 {
		t.Fatalf("agent saw %d history turns, want 2", len(agent.gotHistory))
	}
	if agent.gotHistory[0].Content != "first" {
		t.Errorf("history passed out of order: %+v", agent.gotHistory)
	}
}

func TestSendMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing_session", map[string]string{"message": "hello"}},
		{"missing_message", map[string]string{"session_id": "s1"}},
		{"empty_body", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, &stubAgent{})
			rec := postChat(t, router, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestClearSession(t *testing.T) {
	agent := &stubAgent{response: types.ChatResponse{Reply: "ok"}}
	router, mem := newTestRouter(t, agent)
	ctx := context.Background()

	if err := mem.Append(ctx, "s1", types.RoleUser, "hello"); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/sessions/s1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := mem.GetHistory(ctx, "s1"); len(got) != 0 {
		t.Errorf("history = %d turns after clear, want 0", len(got))
	}
}
