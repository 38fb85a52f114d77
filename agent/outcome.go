package agent

import "concierge/web/types"

// TurnOutcome is the closed set of ways a conversational turn can resolve.
// Exactly one variant is produced per turn and drives the response path.
type TurnOutcome interface {
	turnOutcome()
}

// NoIntent means the booking path yielded nothing actionable; the turn falls
// through to retrieval-augmented answering.
type NoIntent struct{}

// Clarification means the turn ends by asking the user for missing or
// ambiguous booking details.
type Clarification struct {
	Question string
}

// Committed means a booking was persisted; Reply carries the natural-language
// confirmation.
type Committed struct {
	Booking types.Booking
	Reply   string
}

// AnsweredFromContext means the turn was answered from retrieved documents.
type AnsweredFromContext struct {
	Reply   string
	Sources []types.RetrievalCandidate
}

func (NoIntent) turnOutcome()            {}
func (Clarification) turnOutcome()       {}
func (Committed) turnOutcome()           {}
func (AnsweredFromContext) turnOutcome() {}
