package handlers

import (
	"context"
	"net/http"

	"concierge/memory"
	"concierge/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TurnRunner resolves one conversational turn.
type TurnRunner interface {
	RunTurn(ctx context.Context, sessionID, message string, history []types.ConversationTurn) types.ChatResponse
}

type ChatHandler struct {
	agent  TurnRunner
	memory *memory.ChatMemory
	logger *zap.Logger
}

func NewChatHandler(agent TurnRunner, mem *memory.ChatMemory, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{agent: agent, memory: mem, logger: logger}
}

// SendMessage handles POST /chat: load history, run the turn, append both
// new turns to memory, return the reply with its sources.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	history := h.memory.GetHistory(ctx, req.SessionID)

	response := h.agent.RunTurn(ctx, req.SessionID, req.Message, history)

	if err := h.memory.Append(ctx, req.SessionID, types.RoleUser, req.Message); err != nil {
		h.logger.Warn("Failed to append user turn to memory",
			zap.String("session_id", req.SessionID),
			zap.Error(err))
	}
	if err := h.memory.Append(ctx, req.SessionID, types.RoleAssistant, response.Reply); err != nil {
		h.logger.Warn("Failed to append assistant turn to memory",
			zap.String("session_id", req.SessionID),
			zap.Error(err))
	}

	c.JSON(http.StatusOK, response)
}

// ClearSession handles DELETE /sessions/:id, removing the session's history.
func (h *ChatHandler) ClearSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := h.memory.Clear(c.Request.Context(), sessionID); err != nil {
		h.logger.Error("Failed to clear session",
			zap.String("session_id", sessionID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear session"})
		return
	}
	c.Status(http.StatusNoContent)
}
