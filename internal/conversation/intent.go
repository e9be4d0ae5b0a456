package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wolfman30/medconsult-ai/internal/llm"
	"github.com/wolfman30/medconsult-ai/internal/observability/metrics"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

const intentSystemPrompt = `You are an intent classifier for a Korean medical consultation chatbot.
Classify the user's latest message, using the history for context, into exactly one intent:
- "BOOKING": the user wants to book, schedule or confirm a hospital appointment, is providing
  booking details (name, phone number, date, time), or is agreeing to a booking offer.
- "CONSULTATION": anything else, such as describing symptoms or asking medical questions.
Respond only with JSON: {"intent": "BOOKING"} or {"intent": "CONSULTATION"}.`

// shortAffirmativeMaxRunes bounds how long a bare "yes" can be and still count as accepting a booking offer.
const shortAffirmativeMaxRunes = 12

var (
	negativeOpeners   = []string{"아니요", "아니오", "아뇨", "아니", "노노", "싫어", "됐어", "괜찮아요", "괜찮습니다"}
	refusalPhrases    = []string{"안 할게", "안할게", "필요 없", "필요없", "하지 않", "안 하고", "안하고"}
	bookingVocabulary = []string{"예약", "잡아", "접수", "진료 받고 싶", "진료받고 싶", "방문하고 싶", "방문할게"}
	affirmatives      = map[string]struct{}{
		"네": {}, "넵": {}, "네네": {}, "예": {}, "예예": {}, "응": {}, "웅": {}, "ㅇㅇ": {},
		"좋아요": {}, "좋습니다": {}, "좋아": {}, "그래요": {}, "그래": {}, "그럼요": {},
		"부탁해요": {}, "부탁드려요": {}, "부탁드립니다": {}, "맞아요": {}, "맞습니다": {}, "당연하죠": {},
	}
)

// keywordRule is one entry of the ordered fallback classifier. The first matching rule wins.
type keywordRule struct {
	name   string
	intent Intent
	match  func(msg string) bool
}

var keywordRules = []keywordRule{
	{
		name:   "negative",
		intent: IntentConsultation,
		match: func(msg string) bool {
			return hasAnyPrefix(msg, negativeOpeners) || containsAny(msg, refusalPhrases)
		},
	},
	{
		name:   "booking_vocabulary",
		intent: IntentBooking,
		match:  func(msg string) bool { return containsAny(msg, bookingVocabulary) },
	},
	{
		name:   "short_affirmative",
		intent: IntentBooking,
		match: func(msg string) bool {
			return utf8.RuneCountInString(msg) <= shortAffirmativeMaxRunes && startsWithAffirmative(msg)
		},
	},
}

// KeywordIntent classifies msg with the ordered keyword rules, defaulting to CONSULTATION.
func KeywordIntent(msg string) (Intent, string) {
	msg = strings.TrimSpace(msg)
	for _, rule := range keywordRules {
		if rule.match(msg) {
			return rule.intent, rule.name
		}
	}
	return IntentConsultation, "default"
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// startsWithAffirmative reports whether the first word, minus trailing punctuation, is a yes.
func startsWithAffirmative(msg string) bool {
	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return false
	}
	_, ok := affirmatives[strings.TrimRight(fields[0], ".,!?~ㅎㅋ^")]
	return ok
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// IntentRouter classifies turns with the completion service and falls back to keywords
// when the reply cannot be parsed.
type IntentRouter struct {
	completer *llm.Completer
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
}

func NewIntentRouter(completer *llm.Completer, m *metrics.BookingMetrics, logger *logging.Logger) *IntentRouter {
	if logger == nil {
		logger = logging.Default()
	}
	return &IntentRouter{completer: completer, metrics: m, logger: logger}
}

type intentReply struct {
	Intent *string `json:"intent"`
}

// Classify never fails: parse errors use the keyword rules, any other error yields CONSULTATION.
func (r *IntentRouter) Classify(ctx context.Context, message string, history []Message) Intent {
	intent, source := r.classify(ctx, message, history)
	r.metrics.ObserveIntent(string(intent), source)
	r.logger.Debug("intent classified", "intent", intent, "source", source)
	return intent
}

func (r *IntentRouter) classify(ctx context.Context, message string, history []Message) (Intent, string) {
	if r.completer == nil {
		intent, _ := KeywordIntent(message)
		return intent, "keyword"
	}

	raw, err := r.completer.Complete(ctx, []llm.Message{
		llm.System(intentSystemPrompt),
		llm.User(IntentPrompt(message, history)),
	}, llm.FormatJSONObject)
	if err != nil {
		r.logger.Error("intent classification failed", "error", err)
		return IntentConsultation, "error"
	}

	var reply intentReply
	if err := llm.DecodeJSONObject(raw, &reply); err != nil {
		intent, rule := KeywordIntent(message)
		r.logger.Warn("intent reply unparseable, using keyword rules",
			"error", err,
			"rule", rule,
			"no_json", errors.Is(err, llm.ErrNoJSONObject),
		)
		return intent, "keyword"
	}
	if reply.Intent == nil {
		return IntentConsultation, "default"
	}
	return ParseIntent(*reply.Intent), "llm"
}

// IntentPrompt embeds the joined history ahead of the message.
func IntentPrompt(message string, history []Message) string {
	parts := make([]string, 0, len(history))
	for _, m := range history {
		parts = append(parts, fmt.Sprintf("%s - %s", m.Role, m.Content))
	}
	return fmt.Sprintf("History: [%s]\n\nUser Message: %s", strings.Join(parts, ", "), message)
}
