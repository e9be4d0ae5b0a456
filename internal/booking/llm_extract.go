package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wolfman30/medconsult-ai/internal/llm"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

const extractionSystemPrompt = `당신은 병원 예약 정보를 추출하는 도우미입니다.
사용자 메시지에서 예약 정보를 추출해 아래 JSON 형식으로만 답하세요. 다른 텍스트는 쓰지 마세요.
{
  "extracted": {
    "patient_name": "환자 이름 또는 null",
    "phone_number": "전화번호(010-1234-5678 형식) 또는 null",
    "preferred_date": "희망 날짜(예: 10월 27일) 또는 null",
    "preferred_time": "희망 시간(24시간 HH:MM) 또는 null"
  },
  "missing": ["아직 모르는 필드 이름"],
  "confirmation_intent": true 또는 false
}
confirmation_intent는 사용자가 예약 내용에 동의하거나 예약 확정을 원한다는 의사를 밝혔을 때만 true입니다.
메시지에 없는 정보는 추측하지 말고 null로 두세요.`

// Extraction is the structured result of delegated extraction.
type Extraction struct {
	Fields             Fields
	Missing            []Field
	ConfirmationIntent bool
}

// failClosed is returned whenever the delegated reply cannot be trusted.
func failClosed() Extraction {
	return Extraction{Missing: append([]Field(nil), AllFields...)}
}

// LLMExtractor delegates field extraction to the completion service.
type LLMExtractor struct {
	completer *llm.Completer
	logger    *logging.Logger
}

func NewLLMExtractor(completer *llm.Completer, logger *logging.Logger) *LLMExtractor {
	if completer == nil {
		panic("booking: completer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMExtractor{completer: completer, logger: logger}
}

// Extract never returns a partially trusted result: on any failure it returns the
// fail-closed extraction together with the cause.
func (x *LLMExtractor) Extract(ctx context.Context, message string, collected Fields) (Extraction, error) {
	user := fmt.Sprintf("현재까지 수집된 정보:\n%s\n\n사용자 메시지: %s", collected.Summary(), message)
	raw, err := x.completer.Complete(ctx, []llm.Message{
		llm.System(extractionSystemPrompt),
		llm.User(user),
	}, llm.FormatJSONObject)
	if err != nil {
		return failClosed(), err
	}
	ext, err := ParseExtraction(raw)
	if err != nil {
		return failClosed(), err
	}
	return ext, nil
}

// ParseExtraction validates the delegated reply. All three top-level keys are required.
func ParseExtraction(raw string) (Extraction, error) {
	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return failClosed(), fmt.Errorf("%w: %w", ErrExtractionParse, err)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &envelope); err != nil {
		return failClosed(), fmt.Errorf("%w: %w", ErrExtractionParse, err)
	}
	for _, key := range []string{"extracted", "missing", "confirmation_intent"} {
		if _, ok := envelope[key]; !ok {
			return failClosed(), fmt.Errorf("%w: missing key %q", ErrExtractionParse, key)
		}
	}

	var extracted map[string]*string
	if err := json.Unmarshal(envelope["extracted"], &extracted); err != nil {
		return failClosed(), fmt.Errorf("%w: extracted: %w", ErrExtractionParse, err)
	}
	var missing []string
	if err := json.Unmarshal(envelope["missing"], &missing); err != nil {
		return failClosed(), fmt.Errorf("%w: missing: %w", ErrExtractionParse, err)
	}
	var confirm bool
	if err := json.Unmarshal(envelope["confirmation_intent"], &confirm); err != nil {
		return failClosed(), fmt.Errorf("%w: confirmation_intent: %w", ErrExtractionParse, err)
	}

	var out Extraction
	for _, field := range AllFields {
		if v := extracted[string(field)]; v != nil && !isNullish(*v) {
			out.Fields.set(field, strings.TrimSpace(*v))
		}
	}
	if out.Fields.PhoneNumber != "" {
		out.Fields.PhoneNumber = NormalizePhone(out.Fields.PhoneNumber)
	}
	for _, name := range missing {
		field := Field(strings.TrimSpace(name))
		for _, known := range AllFields {
			if field == known {
				out.Missing = append(out.Missing, field)
			}
		}
	}
	out.ConfirmationIntent = confirm
	return out, nil
}

func isNullish(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "null", "none", "n/a":
		return true
	}
	return false
}
