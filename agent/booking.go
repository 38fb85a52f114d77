package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"concierge/llmclient"
	"concierge/web/types"

	"go.uber.org/zap"
)

const createBookingName = "create_booking"

func createBookingTool() llmclient.Tool {
	return llmclient.Tool{
		Type: "function",
		Function: llmclient.ToolFunction{
			Name: createBookingName,
			Description: "Create a booking when all fields are explicit and unambiguous. " +
				"Only call this when you have: name, email, date as YYYY-MM-DD, and time as HH:MM (24-hour). " +
				"If any info is missing or ambiguous (e.g., 'tomorrow', 'next Friday', '3pm', 'evening'), " +
				"ask a short clarifying question instead of calling the function.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":  map[string]any{"type": "string", "description": "Full name of the person."},
					"email": map[string]any{"type": "string", "description": "Email address of the person."},
					"date":  map[string]any{"type": "string", "description": "Date in YYYY-MM-DD."},
					"time":  map[string]any{"type": "string", "description": "Time in HH:MM, 24-hour."},
				},
				"required": []string{"name", "email", "date", "time"},
			},
		},
	}
}

// attemptBooking drives the booking sub-path of one turn: intent gate, model
// invocation with the declared tool, slot validation, and commit. A NoIntent
// result hands the turn to the retrieval path. The returned error is non-nil
// only for a persistence failure during commit, which is fatal to the turn.
func (a *Agent) attemptBooking(ctx context.Context, message string, history []types.ConversationTurn) (TurnOutcome, error) {
	if !HasBookingIntent(message) {
		return NoIntent{}, nil
	}

	messages := a.buildToolConversation(message, history)
	response, err := a.generator.ChatWithTools(ctx, messages, []llmclient.Tool{createBookingTool()})
	if err != nil {
		// Generator failure aborts the booking attempt but is never
		// user-visible on this sub-path; the turn degrades to RAG.
		a.logger.Warn("Tool-calling generation failed, falling through to retrieval", zap.Error(err))
		return NoIntent{}, nil
	}

	call, ok := firstToolCall(response)
	if !ok {
		if text := strings.TrimSpace(response.Content); text != "" {
			// The model asked its own clarifying question; pass it
			// through verbatim.
			return Clarification{Question: text}, nil
		}
		return NoIntent{}, nil
	}

	if call.Function.Name != createBookingName {
		a.logger.Warn("Model requested an undeclared tool, falling through to retrieval",
			zap.String("tool", call.Function.Name))
		return NoIntent{}, nil
	}

	var slots types.BookingSlots
	if err := json.Unmarshal([]byte(call.Function.Arguments), &slots); err != nil {
		a.logger.Warn("Malformed tool call arguments, falling through to retrieval", zap.Error(err))
		return NoIntent{}, nil
	}
	slots.Name = strings.TrimSpace(slots.Name)
	slots.Email = strings.TrimSpace(slots.Email)
	slots.Date = strings.TrimSpace(slots.Date)
	slots.Time = strings.TrimSpace(slots.Time)

	if slots.Name == "" || slots.Email == "" || IsAmbiguousDate(slots.Date) || IsAmbiguousTime(slots.Time) {
		return Clarification{
			Question: ClarificationQuestion(slots.Name, slots.Email, slots.Date, slots.Time),
		}, nil
	}

	booking, err := a.bookings.PersistBooking(ctx, slots)
	if err != nil {
		return nil, err
	}

	reply := a.finalizeConfirmation(ctx, messages, response, call, booking)
	return Committed{Booking: booking, Reply: reply}, nil
}

func firstToolCall(msg llmclient.Message) (llmclient.ToolCall, bool) {
	if len(msg.ToolCalls) == 0 {
		return llmclient.ToolCall{}, false
	}
	return msg.ToolCalls[0], true
}

// finalizeConfirmation re-invokes the generator with the model's raw tool
// call plus a synthetic tool-result message to obtain a natural-language
// confirmation. The commit already happened, so any failure here falls back
// to a templated confirmation instead of surfacing.
func (a *Agent) finalizeConfirmation(ctx context.Context, conversation []llmclient.Message, toolResponse llmclient.Message, call llmclient.ToolCall, booking types.Booking) string {
	result, err := json.Marshal(map[string]any{
		"result": map[string]string{
			"booking_id": booking.ID.String(),
			"name":       booking.Name,
			"email":      booking.Email,
			"date":       booking.Date,
			"time":       booking.Time,
		},
	})
	if err == nil {
		messages := append(conversation, toolResponse, llmclient.Message{
			Role:       "tool",
			ToolCallID: call.ID,
			Name:       createBookingName,
			Content:    string(result),
		})
		reply, chatErr := a.generator.Chat(ctx, messages)
		if chatErr == nil && strings.TrimSpace(reply) != "" {
			return strings.TrimSpace(reply)
		}
		if chatErr != nil {
			a.logger.Warn("Confirmation generation failed, using templated reply", zap.Error(chatErr))
		}
	}

	return fmt.Sprintf("Your booking is confirmed: %s on %s at %s. A confirmation will be sent to %s.",
		booking.Name, booking.Date, booking.Time, booking.Email)
}
