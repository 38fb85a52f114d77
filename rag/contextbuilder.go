package rag

import (
	"strings"

	"concierge/web/types"
)

const candidateSeparator = "\n\n"

// AssembleContext concatenates ranked candidate texts, blank-line separated,
// into a prompt context of at most the configured character budget.
func (r *RAG) AssembleContext(candidates []types.RetrievalCandidate) string {
	return assembleContext(candidates, r.cfg.MaxContextChars)
}

// assembleContext greedily appends candidates in rank order. The candidate
// that would overflow the budget is truncated to fill exactly the remaining
// space and processing stops there; nothing after the overflow point is
// included. The budget counts characters, not bytes, and the separator
// counts against it, so the total length never exceeds it.
func assembleContext(candidates []types.RetrievalCandidate, budget int) string {
	if budget <= 0 {
		return ""
	}

	var builder strings.Builder
	used := 0
	for _, cand := range candidates {
		sep := ""
		if used > 0 {
			sep = candidateSeparator
		}

		remaining := budget - used - len(sep)
		if remaining <= 0 {
			break
		}

		runes := []rune(cand.Text)
		if len(runes) > remaining {
			builder.WriteString(sep)
			builder.WriteString(string(runes[:remaining]))
			break
		}
		builder.WriteString(sep)
		builder.WriteString(cand.Text)
		used += len(sep) + len(runes)
	}
	return builder.String()
}
