package agent

import "testing"

func TestHasBookingIntent(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"direct_request", "I want to book an appointment", true},
		{"schedule_meeting", "Can you schedule a meeting for Friday?", true},
		{"reserve_slot", "Please reserve a slot for me", true},
		{"book_me", "Book me in for next week", true},
		{"booking_table_idiom", "I need a booking table for two", true},
		{"reschedule", "I'd like to reschedule my appointment", true},
		{"cancel", "Cancel my booking please", true},
		{"policy_question", "What is your cancellation policy?", false},
		{"pricing_about_booking", "What is your pricing for booking a table?", false},
		{"how_to_question", "How do I book an appointment?", false},
		{"explain_request", "Explain the booking process", false},
		{"docs_mention", "Where are the docs on appointments?", false},
		{"tutorial", "Show me a tutorial on scheduling", false},
		{"booking_com", "I found this hotel on booking.com", false},
		{"action_without_noun", "Can you make this faster?", false},
		{"noun_without_action", "My appointment was yesterday", false},
		{"empty", "", false},
		{"unrelated", "The weather is nice today", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasBookingIntent(tt.message); got != tt.want {
				t.Errorf("HasBookingIntent(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}
