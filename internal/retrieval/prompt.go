package retrieval

import (
	"fmt"
	"strings"
)

const sourceSeparator = "=================\n"

const groundingSystemPrompt = `당신은 환자의 증상을 듣고 상담을 돕는 의료 상담 도우미입니다.
아래 제공된 자료(Sources)만 근거로 답변하세요. 자료에 없는 내용은 추측하지 말고 모른다고 답하세요.
답변에는 다음 항목을 포함하세요: 추정진단, 권장 검사, 치료 및 처치, 의료진 연계, 환자교육, 예후.
진료가 필요하다고 판단되면 마지막에 "<진료과>에 예약을 잡아드릴까요?" 형식으로 예약을 제안하세요.`

// FormatSources renders documents as TITLE/CONTENT blocks.
func FormatSources(docs []Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf("TITLE: %s, CONTENT: %s\n", d.Title, d.Content))
	}
	return strings.Join(parts, sourceSeparator)
}

// GroundingPrompt returns the system and user prompt for a grounded consultation answer.
func GroundingPrompt(query string, docs []Document) (system, user string) {
	user = fmt.Sprintf("Question: %s\n\nSources:\n%s", strings.TrimSpace(query), FormatSources(docs))
	return groundingSystemPrompt, user
}
