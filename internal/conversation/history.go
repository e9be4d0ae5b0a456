package conversation

import (
	"fmt"
	"strings"

	"github.com/wolfman30/medconsult-ai/internal/llm"
)

// consultationMarkers identify assistant messages that carry a structured consultation.
var consultationMarkers = []string{"추정진단", "권장 검사", "치료 및 처치", "의료진 연계", "환자교육", "예후"}

const bookingOfferMarker = "예약을 잡아드릴까요"

// ConsultationSummary locates the consultation a booking request refers to:
// assistant messages with consultation markers or a booking offer, else the last
// assistant message, else a summary synthesized from the message itself.
func ConsultationSummary(history []Message, message string) string {
	var parts []string
	for _, m := range history {
		if m.Role != llm.RoleAssistant {
			continue
		}
		if containsAny(m.Content, consultationMarkers) || strings.Contains(m.Content, bookingOfferMarker) {
			parts = append(parts, m.Content)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}
	if last := lastAssistantMessage(history); last != "" {
		return last
	}
	return fmt.Sprintf("사용자가 직접 예약을 요청했습니다: '%s'", message)
}

func lastAssistantMessage(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == llm.RoleAssistant {
			return history[i].Content
		}
	}
	return ""
}

// toLLMMessages keeps user and assistant turns and drops anything else.
func toLLMMessages(history []Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case llm.RoleUser, llm.RoleAssistant:
			if strings.TrimSpace(m.Content) != "" {
				out = append(out, llm.Message{Role: m.Role, Content: m.Content})
			}
		}
	}
	return out
}
