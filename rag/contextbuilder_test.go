package rag

import (
	"strings"
	"testing"
	"unicode/utf8"

	"concierge/web/types"
)

func candidatesFromTexts(texts ...string) []types.RetrievalCandidate {
	candidates := make([]types.RetrievalCandidate, len(texts))
	for i, text := range texts {
		candidates[i] = types.RetrievalCandidate{Text: text}
	}
	return candidates
}

func TestAssembleContextNeverExceedsBudget(t *testing.T) {
	tests := []struct {
		name   string
		texts  []string
		budget int
	}{
		{"all_fit", []string{"aaa", "bbb", "ccc"}, 100},
		{"overflow_mid_list", []string{strings.Repeat("a", 40), strings.Repeat("b", 40), strings.Repeat("c", 40)}, 60},
		{"single_candidate_longer_than_budget", []string{strings.Repeat("x", 500)}, 100},
		{"exact_fit", []string{strings.Repeat("a", 10)}, 10},
		{"tiny_budget", []string{"hello", "world"}, 3},
		{"empty_candidates", nil, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assembleContext(candidatesFromTexts(tt.texts...), tt.budget)
			if len(got) > tt.budget {
				t.Errorf("assembleContext() length = %d, exceeds budget %d", len(got), tt.budget)
			}
		})
	}
}

func TestAssembleContextTruncatesOverflowCandidate(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := assembleContext(candidatesFromTexts(long), 100)
	if got != long[:100] {
		t.Errorf("assembleContext() = %q, want the candidate truncated to the budget, not dropped", got)
	}
}

func TestAssembleContextStopsAfterOverflow(t *testing.T) {
	// 40 + 2 (separator) + truncated 18 fills the budget; the third
	// candidate must not appear at all.
	got := assembleContext(candidatesFromTexts(
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	), 60)

	if strings.Contains(got, "c") {
		t.Errorf("assembleContext() included a candidate after the overflow point: %q", got)
	}
	if !strings.Contains(got, "b") {
		t.Errorf("assembleContext() dropped the overflow candidate instead of truncating it: %q", got)
	}
	if len(got) != 60 {
		t.Errorf("assembleContext() length = %d, want the overflow candidate to fill exactly the budget", len(got))
	}
}

func TestAssembleContextSeparatesWithBlankLine(t *testing.T) {
	got := assembleContext(candidatesFromTexts("first", "second"), 100)
	if got != "first\n\nsecond" {
		t.Errorf("assembleContext() = %q, want blank-line separated concatenation", got)
	}
}

func TestAssembleContextBudgetCountsCharacters(t *testing.T) {
	// Multibyte text: the budget is characters, so 10 two-byte runes fit
	// a budget of 10 even though they are 20 bytes.
	tenRunes := strings.Repeat("é", 10)
	got := assembleContext(candidatesFromTexts(tenRunes), 10)
	if got != tenRunes {
		t.Errorf("assembleContext() = %q, want all 10 runes within a 10-character budget", got)
	}

	got = assembleContext(candidatesFromTexts(strings.Repeat("é", 50)), 10)
	if utf8.RuneCountInString(got) != 10 {
		t.Errorf("assembleContext() = %d runes, want truncation to 10 characters", utf8.RuneCountInString(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("assembleContext() = %q, truncation split a rune", got)
	}
}

func TestAssembleContextZeroBudget(t *testing.T) {
	if got := assembleContext(candidatesFromTexts("text"), 0); got != "" {
		t.Errorf("assembleContext() with zero budget = %q, want empty", got)
	}
}
