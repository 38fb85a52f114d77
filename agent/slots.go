package agent

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	hhmmPattern    = regexp.MustCompile(`^\d{2}:\d{2}$`)
	meridiemWord   = regexp.MustCompile(`\b(am|pm)\b`)
)

// Relative or vague date phrasing. Vagueness always wins: "tomorrow
// (2025-03-15)" stays ambiguous even though a strict date appears in it.
var relativeDateTerms = []string{
	"today", "tomorrow", "yesterday", "tonight",
	"next ", "this ", "coming ",
	"in ", "later", "soon", "end of", "start of",
}

var vagueTimeTerms = []string{
	"morning", "afternoon", "evening", "noon", "midnight", "around",
}

func isISODate(s string) bool {
	return isoDatePattern.MatchString(strings.TrimSpace(s))
}

func is24hTime(s string) bool {
	s = strings.TrimSpace(s)
	if !hhmmPattern.MatchString(s) {
		return false
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return false
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil {
		return false
	}
	return h >= 0 && h <= 23 && m >= 0 && m <= 59
}

// IsAmbiguousDate reports whether the date slot needs clarification: empty,
// relative/vague phrasing, or anything but a strict YYYY-MM-DD value.
func IsAmbiguousDate(s string) bool {
	if s == "" {
		return true
	}
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, term := range relativeDateTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return !isISODate(s)
}

// IsAmbiguousTime reports whether the time slot needs clarification: empty,
// vague markers or am/pm phrasing, or anything but a strict in-range HH:MM.
func IsAmbiguousTime(s string) bool {
	if s == "" {
		return true
	}
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, term := range vagueTimeTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	if meridiemWord.MatchString(lower) {
		return true
	}
	return !is24hTime(s)
}

// ClarificationQuestion composes one message naming every missing or
// ambiguous field. The generic fallback should not occur for a genuine
// booking attempt but keeps the composer total.
func ClarificationQuestion(name, email, date, timeStr string) string {
	var missing []string
	var asks []string

	if name == "" {
		missing = append(missing, "full name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if IsAmbiguousDate(date) {
		asks = append(asks, "an exact date in YYYY-MM-DD (e.g., 2025-03-15), not 'tomorrow' or 'next Friday'")
	}
	if IsAmbiguousTime(timeStr) {
		asks = append(asks, "an exact time in 24-hour HH:MM (e.g., 14:30), not '3pm' or 'evening'")
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "Please provide your "+strings.Join(missing, ", ")+".")
	}
	if len(asks) > 0 {
		parts = append(parts, "Also, please confirm "+strings.Join(asks, " and ")+".")
	}
	if len(parts) == 0 {
		return "Could you confirm the exact date (YYYY-MM-DD) and time (HH:MM, 24-hour)?"
	}
	return strings.Join(parts, " ")
}
