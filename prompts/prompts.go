package prompts

import (
	_ "embed"
	"fmt"
	"time"
)

// Embedded prompt files

//go:embed agent_system.txt
var agentSystem string

//go:embed rag_answer.txt
var ragAnswer string

// AgentSystem returns the booking agent's system prompt with today's date
// filled in, so the model can recognize relative dates as ambiguous.
func AgentSystem(today time.Time) string {
	return fmt.Sprintf(agentSystem, today.Format("2006-01-02"))
}

// RAGAnswer returns the retrieval-answering system prompt with the assembled
// document context embedded.
func RAGAnswer(context string) string {
	return fmt.Sprintf(ragAnswer, context)
}
