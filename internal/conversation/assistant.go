package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/medconsult-ai/internal/booking"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

var tracer = otel.Tracer("medconsult.internal.conversation")

const (
	consultationFailedMessage = "죄송합니다. 답변을 준비하는 중 문제가 발생했습니다. 잠시 후 다시 질문해 주세요."
	bookingUnavailableMessage = "죄송합니다. 예약 정보를 확인하는 중 문제가 발생했습니다. 잠시 후 다시 말씀해 주세요."
)

// IntentClassifier decides how a turn is routed.
type IntentClassifier interface {
	Classify(ctx context.Context, message string, history []Message) Intent
}

// BookingDialogue is the slot-filling flow behind BOOKING turns.
type BookingDialogue interface {
	Active(ctx context.Context, conversationID string) (bool, error)
	Begin(ctx context.Context, conversationID, summary, message string) booking.Reply
	Continue(ctx context.Context, conversationID, message string) booking.Reply
}

// Responder answers CONSULTATION turns.
type Responder interface {
	Answer(ctx context.Context, message string, history []Message) (string, error)
}

// TurnHandler produces the response for one routed turn. ConversationID is always set on req.
type TurnHandler func(ctx context.Context, req ChatRequest) ChatResponse

// AssistantOption configures an Assistant.
type AssistantOption func(*Assistant)

// WithHandler replaces the handler for intent.
func WithHandler(intent Intent, h TurnHandler) AssistantOption {
	return func(a *Assistant) {
		a.handlers[intent] = h
	}
}

// WithStickyBooking keeps routing to the booking flow while a session is open,
// unless the message is an explicit refusal.
func WithStickyBooking(enabled bool) AssistantOption {
	return func(a *Assistant) {
		a.sticky = enabled
	}
}

// WithIDGenerator overrides how missing conversation ids are minted.
func WithIDGenerator(fn func() string) AssistantOption {
	return func(a *Assistant) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// Assistant dispatches chat turns to the handler registered for the classified intent.
type Assistant struct {
	router     IntentClassifier
	dialogue   BookingDialogue
	consultant Responder
	handlers   map[Intent]TurnHandler
	sticky     bool
	newID      func() string
	logger     *logging.Logger
}

var _ Chatter = (*Assistant)(nil)

// NewAssistant builds the dispatch table and verifies every known intent has a handler.
func NewAssistant(router IntentClassifier, dialogue BookingDialogue, consultant Responder, logger *logging.Logger, opts ...AssistantOption) (*Assistant, error) {
	if router == nil {
		return nil, errors.New("conversation: intent router is required")
	}
	if dialogue == nil {
		return nil, errors.New("conversation: booking dialogue is required")
	}
	if consultant == nil {
		return nil, errors.New("conversation: consultation responder is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	a := &Assistant{
		router:     router,
		dialogue:   dialogue,
		consultant: consultant,
		newID:      uuid.NewString,
		logger:     logger,
	}
	a.handlers = map[Intent]TurnHandler{
		IntentBooking:      a.handleBooking,
		IntentConsultation: a.handleConsultation,
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := validateHandlers(a.handlers); err != nil {
		return nil, err
	}
	return a, nil
}

func validateHandlers(handlers map[Intent]TurnHandler) error {
	known := make(map[Intent]struct{}, len(knownIntents))
	for _, intent := range knownIntents {
		known[intent] = struct{}{}
		if handlers[intent] == nil {
			return fmt.Errorf("conversation: no handler registered for intent %s", intent)
		}
	}
	for intent := range handlers {
		if _, ok := known[intent]; !ok {
			return fmt.Errorf("conversation: handler registered for unknown intent %q", intent)
		}
	}
	return nil
}

// Chat classifies the turn and runs its handler. It never fails; errors become messages.
func (a *Assistant) Chat(ctx context.Context, req ChatRequest) ChatResponse {
	if strings.TrimSpace(req.ConversationID) == "" {
		req.ConversationID = a.newID()
	}
	ctx, span := tracer.Start(ctx, "conversation.chat")
	defer span.End()

	intent := a.router.Classify(ctx, req.Message, req.History)
	if a.sticky && intent != IntentBooking {
		intent = a.stickyIntent(ctx, req, intent)
	}
	span.SetAttributes(
		attribute.String("medconsult.conversation_id", req.ConversationID),
		attribute.String("medconsult.intent", string(intent)),
	)

	resp := a.handlers[intent](ctx, req)
	resp.ConversationID = req.ConversationID
	resp.Intent = intent
	if resp.Messages == nil {
		resp.Messages = []string{}
	}

	a.logger.Info("chat turn handled",
		"conversation_id", req.ConversationID,
		"intent", intent,
		"need_more_info", resp.NeedMoreInfo,
	)
	return resp
}

func (a *Assistant) stickyIntent(ctx context.Context, req ChatRequest, classified Intent) Intent {
	if _, rule := KeywordIntent(req.Message); rule == "negative" {
		return classified
	}
	active, err := a.dialogue.Active(ctx, req.ConversationID)
	if err != nil {
		a.logger.Warn("session lookup failed", "conversation_id", req.ConversationID, "error", err)
		return classified
	}
	if active {
		return IntentBooking
	}
	return classified
}

func (a *Assistant) handleBooking(ctx context.Context, req ChatRequest) ChatResponse {
	active, err := a.dialogue.Active(ctx, req.ConversationID)
	if err != nil {
		a.logger.Error("session lookup failed", "conversation_id", req.ConversationID, "error", err)
		return ChatResponse{Messages: []string{bookingUnavailableMessage}, NeedMoreInfo: true}
	}

	var reply booking.Reply
	if active {
		reply = a.dialogue.Continue(ctx, req.ConversationID, req.Message)
	} else {
		summary := ConsultationSummary(req.History, req.Message)
		reply = a.dialogue.Begin(ctx, req.ConversationID, summary, req.Message)
	}
	return ChatResponse{
		Messages:     []string{reply.Message},
		NeedMoreInfo: reply.NeedMoreInfo,
		Appointment:  reply.Appointment,
	}
}

func (a *Assistant) handleConsultation(ctx context.Context, req ChatRequest) ChatResponse {
	answer, err := a.consultant.Answer(ctx, req.Message, req.History)
	if err != nil {
		a.logger.Error("consultation failed", "conversation_id", req.ConversationID, "error", err)
		answer = consultationFailedMessage
	}
	return ChatResponse{Messages: []string{answer}, NeedMoreInfo: true}
}
