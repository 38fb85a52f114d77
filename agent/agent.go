package agent

import (
	"context"
	"strings"
	"time"

	"concierge/config"
	"concierge/llmclient"
	"concierge/prompts"
	"concierge/web/types"

	"go.uber.org/zap"
)

const (
	generationFailureReply = "Sorry, I encountered an error. Please try again."
	emptyGenerationReply   = "I am unable to provide a response at this time."
	internalErrorReply     = "I couldn't finalize the booking due to an internal error."
	sourcePreviewChars     = 200
)

// Generator invokes the external text generator.
type Generator interface {
	Chat(ctx context.Context, messages []llmclient.Message) (string, error)
	ChatWithTools(ctx context.Context, messages []llmclient.Message, tools []llmclient.Tool) (llmclient.Message, error)
}

// Retriever is the fusion/context-assembly path of the pipeline.
type Retriever interface {
	RetrieveAndRank(ctx context.Context, query string, kLexical, kVector, kFinal int) ([]types.RetrievalCandidate, error)
	AssembleContext(candidates []types.RetrievalCandidate) string
}

// BookingStore persists validated bookings.
type BookingStore interface {
	PersistBooking(ctx context.Context, slots types.BookingSlots) (types.Booking, error)
}

// Agent drives a single conversational turn: booking intent gating and tool
// orchestration first, retrieval-augmented answering as the fallthrough.
type Agent struct {
	cfg       *config.Config
	generator Generator
	retriever Retriever
	bookings  BookingStore
	logger    *zap.Logger
}

func New(cfg *config.Config, generator Generator, retriever Retriever, bookings BookingStore, logger *zap.Logger) *Agent {
	return &Agent{
		cfg:       cfg,
		generator: generator,
		retriever: retriever,
		bookings:  bookings,
		logger:    logger,
	}
}

// RunTurn resolves one turn to exactly one outcome and finalizes it into the
// response payload. History must already be trimmed to the session's recent
// window and in chronological order; the caller appends the new turns to
// memory afterwards.
func (a *Agent) RunTurn(ctx context.Context, sessionID, message string, history []types.ConversationTurn) types.ChatResponse {
	outcome, err := a.attemptBooking(ctx, message, history)
	if err != nil {
		// Persistence failure during commit is fatal for the turn.
		a.logger.Error("Booking commit failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return types.ChatResponse{Reply: internalErrorReply, BookingCreated: false}
	}

	if _, fallthroughToRAG := outcome.(NoIntent); fallthroughToRAG {
		outcome = a.answerFromContext(ctx, message, history)
	}

	return a.finalize(outcome)
}

// answerFromContext is the FallThroughToRAG state: hybrid retrieval, context
// assembly, and a plain generation call.
func (a *Agent) answerFromContext(ctx context.Context, message string, history []types.ConversationTurn) TurnOutcome {
	candidates, err := a.retriever.RetrieveAndRank(ctx, message,
		a.cfg.TopKLexical, a.cfg.TopKVector, a.cfg.TopKFinal)
	if err != nil {
		// Retrieval being unavailable degrades to an empty context.
		a.logger.Warn("Retrieval failed, answering without context", zap.Error(err))
		candidates = nil
	}

	contextText := a.retriever.AssembleContext(candidates)

	messages := []llmclient.Message{{Role: "system", Content: prompts.RAGAnswer(contextText)}}
	messages = append(messages, a.historyWindow(history)...)
	messages = append(messages, llmclient.Message{Role: types.RoleUser, Content: message})

	reply, err := a.generator.Chat(ctx, messages)
	if err != nil {
		a.logger.Error("Generation failed for retrieval answer", zap.Error(err))
		return AnsweredFromContext{Reply: generationFailureReply}
	}
	if strings.TrimSpace(reply) == "" {
		reply = emptyGenerationReply
	}
	return AnsweredFromContext{Reply: reply, Sources: candidates}
}

// buildToolConversation assembles the tool-calling conversation: system
// prompt, recent history window in chronological order, current message.
func (a *Agent) buildToolConversation(message string, history []types.ConversationTurn) []llmclient.Message {
	messages := []llmclient.Message{{Role: "system", Content: prompts.AgentSystem(time.Now())}}
	messages = append(messages, a.historyWindow(history)...)
	return append(messages, llmclient.Message{Role: types.RoleUser, Content: message})
}

func (a *Agent) historyWindow(history []types.ConversationTurn) []llmclient.Message {
	window := a.cfg.HistoryWindow
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}

	messages := make([]llmclient.Message, 0, len(history))
	for _, turn := range history {
		if turn.Content == "" {
			continue
		}
		messages = append(messages, llmclient.Message{Role: turn.Role, Content: turn.Content})
	}
	return messages
}

func (a *Agent) finalize(outcome TurnOutcome) types.ChatResponse {
	switch o := outcome.(type) {
	case Clarification:
		return types.ChatResponse{Reply: o.Question, BookingCreated: false}
	case Committed:
		id := o.Booking.ID
		return types.ChatResponse{Reply: o.Reply, BookingCreated: true, BookingID: &id}
	case AnsweredFromContext:
		return types.ChatResponse{
			Reply:          o.Reply,
			Sources:        sourcePreviews(o.Sources),
			BookingCreated: false,
		}
	default:
		// Unreachable: NoIntent is resolved to AnsweredFromContext before
		// finalization.
		return types.ChatResponse{Reply: emptyGenerationReply, BookingCreated: false}
	}
}

func sourcePreviews(candidates []types.RetrievalCandidate) []types.SourceChunk {
	sources := make([]types.SourceChunk, 0, len(candidates))
	for _, cand := range candidates {
		preview := cand.Text
		if runes := []rune(preview); len(runes) > sourcePreviewChars {
			preview = string(runes[:sourcePreviewChars]) + "..."
		}
		sources = append(sources, types.SourceChunk{
			DocumentID:  cand.DocumentID,
			ChunkIndex:  cand.Index,
			TextPreview: preview,
		})
	}
	return sources
}
