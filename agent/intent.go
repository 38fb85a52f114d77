package agent

import (
	"regexp"
	"strings"
)

// Informational phrases that suppress booking intent. The reject list runs
// before the accept patterns: a question ABOUT booking ("what is your
// booking policy") must not trigger the tool path on keyword overlap alone.
var negativePhrases = []string{
	"what is", "what's", "how do", "how to", "how does",
	"explain", "tell me about", "docs", "documentation",
	"guide", "policy", "pricing", "price", "cost",
	"example", "sample", "tutorial", "booking.com",
}

var (
	actionPattern = regexp.MustCompile(`\b(book|schedule|reserve|arrange|set\s*up|setup|make|create|confirm|reschedule|cancel|add|put)\b`)
	nounPattern   = regexp.MustCompile(`\b(appointment|interview|booking|meeting|slot|booking table)\b`)
	bookMePattern = regexp.MustCompile(`\b(book|schedule|reserve)\s+me\b`)
)

// HasBookingIntent reports whether the message expresses a wish to make a
// booking, as opposed to asking about bookings in general.
func HasBookingIntent(message string) bool {
	if message == "" {
		return false
	}
	m := strings.ToLower(message)

	for _, phrase := range negativePhrases {
		if strings.Contains(m, phrase) {
			return false
		}
	}

	if strings.Contains(m, "booking table") {
		return true
	}
	if actionPattern.MatchString(m) && nounPattern.MatchString(m) {
		return true
	}
	return bookMePattern.MatchString(m)
}
