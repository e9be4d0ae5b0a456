package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/medconsult-ai/internal/llm"
	"github.com/wolfman30/medconsult-ai/internal/observability/metrics"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

func TestKeywordIntent(t *testing.T) {
	tests := []struct {
		msg    string
		intent Intent
		rule   string
	}{
		{"아니요", IntentConsultation, "negative"},
		{"아니요, 예약은 괜찮아요", IntentConsultation, "negative"},
		{"예약은 안 할게요", IntentConsultation, "negative"},
		{"괜찮습니다", IntentConsultation, "negative"},
		{"예약하고 싶어요", IntentBooking, "booking_vocabulary"},
		{"소화기내과 진료 받고 싶어요", IntentBooking, "booking_vocabulary"},
		{"네", IntentBooking, "short_affirmative"},
		{"네!", IntentBooking, "short_affirmative"},
		{"좋아요 부탁드려요", IntentBooking, "short_affirmative"},
		{"예전부터 머리가 아파요", IntentConsultation, "default"},
		{"네 그런데 두통이 계속되면 어떤 약을 먹어야 하나요?", IntentConsultation, "default"},
		{"배가 아파요", IntentConsultation, "default"},
		{"", IntentConsultation, "default"},
	}
	for _, tt := range tests {
		intent, rule := KeywordIntent(tt.msg)
		if intent != tt.intent || rule != tt.rule {
			t.Errorf("KeywordIntent(%q) = %s/%s, want %s/%s", tt.msg, intent, rule, tt.intent, tt.rule)
		}
	}
}

func TestParseIntent(t *testing.T) {
	cases := map[string]Intent{
		"BOOKING":      IntentBooking,
		" booking ":    IntentBooking,
		"CONSULTATION": IntentConsultation,
		"SMALLTALK":    IntentConsultation,
		"":             IntentConsultation,
	}
	for raw, want := range cases {
		if got := ParseIntent(raw); got != want {
			t.Errorf("ParseIntent(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestIntentRouter_Classify(t *testing.T) {
	tests := []struct {
		name    string
		message string
		reply   string
		err     error
		want    Intent
		source  string
	}{
		{name: "llm booking", message: "그럼 부탁할게요", reply: `{"intent": "BOOKING"}`, want: IntentBooking, source: "llm"},
		{name: "fenced lowercase", message: "네", reply: "```json\n{\"intent\": \"booking\"}\n```", want: IntentBooking, source: "llm"},
		{name: "unknown label", message: "예약", reply: `{"intent": "SMALLTALK"}`, want: IntentConsultation, source: "llm"},
		{name: "missing key", message: "예약할게요", reply: `{"label": "BOOKING"}`, want: IntentConsultation, source: "default"},
		{name: "prose falls back to keywords", message: "예약하고 싶어요", reply: "The user wants to book.", want: IntentBooking, source: "keyword"},
		{name: "prose refusal", message: "아니요", reply: "BOOKING", want: IntentConsultation, source: "keyword"},
		{name: "provider error", message: "예약할게요", err: errors.New("503"), want: IntentConsultation, source: "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			m := metrics.NewBookingMetrics(reg)
			client := &stubLLM{handle: func(llm.Request) (string, error) { return tt.reply, tt.err }}
			router := NewIntentRouter(testCompleter(client), m, logging.Discard())

			if got := router.Classify(context.Background(), tt.message, nil); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
			if got := intentCount(t, reg, string(tt.want), tt.source); got != 1 {
				t.Fatalf("expected intent metric %s/%s to be 1, got %v", tt.want, tt.source, got)
			}
		})
	}
}

func TestIntentRouter_PromptCarriesHistory(t *testing.T) {
	client := fixedReply(`{"intent":"BOOKING"}`)
	router := NewIntentRouter(testCompleter(client), nil, logging.Discard())
	history := []Message{
		{Role: "user", Content: "속이 쓰려요"},
		{Role: "assistant", Content: "소화기내과에 예약을 잡아드릴까요?"},
	}

	router.Classify(context.Background(), "네", history)

	req := client.last()
	if req.Format != llm.FormatJSONObject {
		t.Fatalf("expected json mode, got %s", req.Format)
	}
	want := "History: [user - 속이 쓰려요, assistant - 소화기내과에 예약을 잡아드릴까요?]\n\nUser Message: 네"
	if got := req.Messages[len(req.Messages)-1].Content; got != want {
		t.Fatalf("unexpected prompt:\n%s", got)
	}
}

func TestIntentRouter_NoCompleterUsesKeywords(t *testing.T) {
	router := NewIntentRouter(nil, nil, logging.Discard())
	if got := router.Classify(context.Background(), "예약할게요", nil); got != IntentBooking {
		t.Fatalf("expected BOOKING, got %s", got)
	}
	if got := router.Classify(context.Background(), "아니요", nil); got != IntentConsultation {
		t.Fatalf("expected CONSULTATION, got %s", got)
	}
}

func intentCount(t *testing.T, reg *prometheus.Registry, intent, source string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "medconsult_intent_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["intent"] == intent && labels["source"] == source {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}
