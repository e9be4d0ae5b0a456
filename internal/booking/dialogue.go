package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/medconsult-ai/internal/llm"
	"github.com/wolfman30/medconsult-ai/internal/observability/metrics"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// State is the derived position of a conversation in the booking flow.
type State string

const (
	StateNoSession       State = "NO_SESSION"
	StateCollecting      State = "COLLECTING"
	StateAwaitingConfirm State = "COMPLETE_AWAITING_CONFIRM"
	StateFinalized       State = "FINALIZED"
)

const (
	sessionMissingMessage = "예약 세션을 찾을 수 없습니다. 다시 시작해주세요."
	turnFailedMessage     = "죄송합니다. 예약 처리 중 일시적인 문제가 발생했습니다. 잠시 후 다시 말씀해 주세요."
)

const progressSystemPrompt = `당신은 병원 예약을 도와주는 친절한 안내 직원입니다.
환자에게 예약에 필요한 정보(성함, 연락처, 희망 날짜, 희망 시간)를 자연스럽게 요청하세요.
이미 받은 정보는 다시 묻지 말고, 부족한 정보만 한두 문장으로 정중하게 요청하세요.
모든 정보가 모였다면 수집된 내용을 요약해 보여주고 이대로 예약을 확정할지 물어보세요.
환자가 이미 확정에 동의했다면 다시 묻지 말고 감사 인사만 짧게 전하세요.
예약 번호나 확정 여부를 임의로 만들어내지 마세요.`

// FieldExtractor is the delegated extraction pathway.
type FieldExtractor interface {
	Extract(ctx context.Context, message string, collected Fields) (Extraction, error)
}

// DepartmentResolver maps a consultation summary to a department label.
type DepartmentResolver interface {
	Classify(ctx context.Context, summary string) string
}

// Reply is the outcome of one booking turn.
type Reply struct {
	Message      string
	NeedMoreInfo bool
	State        State
	Appointment  *Appointment
}

// Dialogue drives slot filling for a conversation. It holds no session state itself;
// every turn reads and writes through the Service under a per-conversation lock.
type Dialogue struct {
	service    *Service
	rules      *RuleExtractor
	extractor  FieldExtractor
	classifier DepartmentResolver
	completer  *llm.Completer
	metrics    *metrics.BookingMetrics
	logger     *logging.Logger
	tracer     trace.Tracer
}

// DialogueOption configures a Dialogue.
type DialogueOption func(*Dialogue)

// WithRuleExtractor replaces the deterministic extractor, typically to inject a clock.
func WithRuleExtractor(rules *RuleExtractor) DialogueOption {
	return func(d *Dialogue) {
		if rules != nil {
			d.rules = rules
		}
	}
}

// WithDialogueMetrics attaches turn and finalize counters.
func WithDialogueMetrics(m *metrics.BookingMetrics) DialogueOption {
	return func(d *Dialogue) { d.metrics = m }
}

func NewDialogue(service *Service, extractor FieldExtractor, classifier DepartmentResolver, completer *llm.Completer, logger *logging.Logger, opts ...DialogueOption) *Dialogue {
	if service == nil {
		panic("booking: service cannot be nil")
	}
	if extractor == nil {
		panic("booking: field extractor cannot be nil")
	}
	if classifier == nil {
		panic("booking: department resolver cannot be nil")
	}
	if completer == nil {
		panic("booking: completer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dialogue{
		service:    service,
		rules:      NewRuleExtractor(nil),
		extractor:  extractor,
		classifier: classifier,
		completer:  completer,
		logger:     logger,
		tracer:     otel.Tracer("medconsult.internal.booking"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Active reports whether a booking session is in progress for the conversation.
func (d *Dialogue) Active(ctx context.Context, conversationID string) (bool, error) {
	_, ok, err := d.service.Get(ctx, conversationID)
	return ok, err
}

// Begin starts (or restarts) a booking session from the consultation summary and
// processes the triggering message as the first collecting turn.
func (d *Dialogue) Begin(ctx context.Context, conversationID, summary, message string) Reply {
	ctx, span := d.tracer.Start(ctx, "booking.begin", trace.WithAttributes(
		attribute.String("conversation_id", conversationID),
	))
	defer span.End()

	unlock := d.service.Lock(conversationID)
	defer unlock()

	department := d.classifier.Classify(ctx, summary)
	span.SetAttributes(attribute.String("department", department))
	if _, err := d.service.Start(ctx, conversationID, department, summary); err != nil {
		span.RecordError(err)
		d.logger.Error("failed to start booking session", "conversation_id", conversationID, "error", err)
		return d.observe(Reply{Message: turnFailedMessage, State: StateNoSession})
	}
	return d.observe(d.turn(ctx, conversationID, message))
}

// Continue processes one message of an in-progress booking.
func (d *Dialogue) Continue(ctx context.Context, conversationID, message string) Reply {
	ctx, span := d.tracer.Start(ctx, "booking.continue", trace.WithAttributes(
		attribute.String("conversation_id", conversationID),
	))
	defer span.End()

	unlock := d.service.Lock(conversationID)
	defer unlock()

	return d.observe(d.turn(ctx, conversationID, message))
}

func (d *Dialogue) observe(r Reply) Reply {
	d.metrics.ObserveTurn(string(r.State))
	return r
}

// turn must be called with the conversation lock held.
func (d *Dialogue) turn(ctx context.Context, conversationID, message string) Reply {
	session, ok, err := d.service.Get(ctx, conversationID)
	if err != nil {
		d.logger.Error("failed to load booking session", "conversation_id", conversationID, "error", err)
		return Reply{Message: turnFailedMessage, State: StateNoSession}
	}
	if !ok {
		return Reply{Message: sessionMissingMessage, State: StateNoSession}
	}

	ruleFields := d.rules.ExtractFor(message, session.Fields)
	ext, extErr := d.extractor.Extract(ctx, message, session.Fields)
	if extErr != nil {
		d.logger.Warn("delegated extraction failed",
			"conversation_id", conversationID,
			"error", extErr,
			"parse_error", errors.Is(extErr, ErrExtractionParse),
		)
	}
	update := ruleFields.Merge(ext.Fields)

	if !update.Empty() {
		session, err = d.service.Update(ctx, conversationID, update)
		if err != nil {
			d.logger.Error("failed to update booking session", "conversation_id", conversationID, "error", err)
			if errors.Is(err, ErrSessionNotFound) {
				return Reply{Message: sessionMissingMessage, State: StateNoSession}
			}
			return Reply{Message: turnFailedMessage, NeedMoreInfo: true, State: StateCollecting}
		}
	}

	complete := session.Complete()
	confirming := complete && extErr == nil && ext.ConfirmationIntent

	state := StateCollecting
	if complete {
		state = StateAwaitingConfirm
	}

	response, err := d.renderProgress(ctx, session, message, confirming)
	if err != nil {
		d.logger.Error("booking progress prompt failed", "conversation_id", conversationID, "error", err)
		return Reply{Message: turnFailedMessage, NeedMoreInfo: true, State: state}
	}

	if !confirming {
		return Reply{Message: response, NeedMoreInfo: true, State: state}
	}

	appt, err := d.service.Finalize(ctx, conversationID)
	if err != nil {
		d.metrics.ObserveFinalize("error")
		d.logger.Error("booking finalize failed", "conversation_id", conversationID, "error", err)
		// NeedMoreInfo stays false so the client does not loop on a failing confirm.
		return Reply{
			Message: response + fmt.Sprintf("\n\n예약 처리 중 오류가 발생했습니다: %s", finalizeFailureReason(err)),
			State:   state,
		}
	}
	d.metrics.ObserveFinalize("success")
	return Reply{
		Message: response + fmt.Sprintf("\n\n예약이 완료되었습니다!\n예약번호: %s\n%s %s에 %s로 오시면 됩니다.",
			appt.ID, appt.Date, appt.Time, appt.Department),
		State:       StateFinalized,
		Appointment: appt,
	}
}

func finalizeFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "예약 세션이 이미 종료되었습니다"
	case errors.Is(err, ErrIncompleteBooking):
		return "예약 정보가 아직 부족합니다"
	default:
		return "잠시 후 다시 시도해주세요"
	}
}

func (d *Dialogue) renderProgress(ctx context.Context, session *Session, message string, confirming bool) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "진료과: %s\n", session.Department)
	fmt.Fprintf(&b, "상담 요약:\n%s\n\n", session.ConsultationSummary)
	fmt.Fprintf(&b, "현재까지 수집된 예약 정보:\n%s\n\n", session.Fields.Summary())
	if missing := session.Fields.Missing(); len(missing) > 0 {
		fmt.Fprintf(&b, "아직 필요한 정보: %s\n", MissingLabels(missing))
	} else {
		b.WriteString("아직 필요한 정보: 없음\n")
	}
	if date := session.Fields.PreferredDate; date != "" {
		slots, err := d.service.AvailableSlots(ctx, session.Department, date)
		if err != nil {
			d.logger.Warn("available slot lookup failed", "conversation_id", session.ConversationID, "error", err)
		} else if len(slots) > 0 {
			fmt.Fprintf(&b, "%s 예약 가능 시간: %s\n", date, strings.Join(slots, ", "))
		}
	}
	if confirming {
		b.WriteString("환자가 예약 확정에 동의했습니다.\n")
	}
	fmt.Fprintf(&b, "\n환자 메시지: %s", message)

	return d.completer.Complete(ctx, []llm.Message{
		llm.System(progressSystemPrompt),
		llm.User(b.String()),
	}, llm.FormatText)
}
