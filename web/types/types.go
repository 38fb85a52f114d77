package types

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is a contiguous span of a source document. Immutable once created;
// Index preserves the chunk's position within its document.
type Chunk struct {
	ID         uuid.UUID `json:"chunk_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Index      int       `json:"chunk_index"`
	Text       string    `json:"text"`
}

// RetrievalCandidate is a per-query scored chunk. Score is source-specific
// (cosine similarity or BM25) until fusion, then cross-encoder relevance
// after reranking. Never persisted.
type RetrievalCandidate struct {
	ChunkID    uuid.UUID
	DocumentID uuid.UUID
	Index      int
	Text       string
	Score      float64
}

// ConversationTurn is one entry in a session's chat history.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Document records an ingested file.
type Document struct {
	ID          uuid.UUID `json:"document_id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookingSlots holds raw slot values extracted from a tool call, each
// optional until validated.
type BookingSlots struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

// Booking is the persisted appointment record, the only durable artifact
// the agent produces.
type Booking struct {
	ID        uuid.UUID `json:"booking_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Time      string    `json:"time"` // HH:MM, 24-hour
	CreatedAt time.Time `json:"created_at"`
}

// ChatRequest is the inbound chat message.
type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// SourceChunk is a retrieved source reference returned alongside a reply.
type SourceChunk struct {
	DocumentID  uuid.UUID `json:"document_id"`
	ChunkIndex  int       `json:"chunk_index"`
	TextPreview string    `json:"text_preview"`
}

// ChatResponse is the outcome of one conversational turn.
type ChatResponse struct {
	Reply          string        `json:"reply"`
	Sources        []SourceChunk `json:"sources"`
	BookingCreated bool          `json:"booking_created"`
	BookingID      *uuid.UUID    `json:"booking_id,omitempty"`
}

// IngestResponse reports one ingested document.
type IngestResponse struct {
	DocumentID    uuid.UUID `json:"document_id"`
	ChunksIndexed int       `json:"chunks_indexed"`
}

// IngestBatchResponse reports a whole upload batch.
type IngestBatchResponse struct {
	Results []IngestResponse `json:"results"`
}
