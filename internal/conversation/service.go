package conversation

import (
	"context"
	"strings"

	"github.com/wolfman30/medconsult-ai/internal/booking"
)

// Intent is the routing decision for a chat turn.
type Intent string

const (
	IntentBooking      Intent = "BOOKING"
	IntentConsultation Intent = "CONSULTATION"
)

// knownIntents must each have a turn handler.
var knownIntents = []Intent{IntentBooking, IntentConsultation}

// ParseIntent maps a raw label to an Intent. Anything other than BOOKING is a consultation.
func ParseIntent(raw string) Intent {
	if Intent(strings.ToUpper(strings.TrimSpace(raw))) == IntentBooking {
		return IntentBooking
	}
	return IntentConsultation
}

// Message represents a single message in a conversation transcript.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is one user turn plus the transcript so far.
type ChatRequest struct {
	ConversationID string    `json:"conversation_id,omitempty"`
	Message        string    `json:"message"`
	History        []Message `json:"history"`
}

// ChatResponse is what the assistant says back.
type ChatResponse struct {
	ConversationID string               `json:"conversation_id"`
	Messages       []string             `json:"messages"`
	NeedMoreInfo   bool                 `json:"need_more_info"`
	Intent         Intent               `json:"intent"`
	Appointment    *booking.Appointment `json:"appointment,omitempty"`
}

// Chatter answers chat turns. Implementations never return an error to the caller;
// failures become user-facing messages.
type Chatter interface {
	Chat(ctx context.Context, req ChatRequest) ChatResponse
}
