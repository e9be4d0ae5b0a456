package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/wolfman30/medconsult-ai/internal/llm"
)

func TestDepartmentClassifier_UsesDelegatedLabel(t *testing.T) {
	c := NewDepartmentClassifier(testCompleter(fixedReply("소화기내과입니다.")), nil)
	if got := c.Classify(context.Background(), "속쓰림이 2주째 계속됩니다"); got != "소화기내과" {
		t.Fatalf("Classify() = %q, want 소화기내과", got)
	}
}

func TestDepartmentClassifier_SkipsNonDepartmentTokens(t *testing.T) {
	tests := []struct {
		reply string
		want  string
	}{
		{"진료과는 소화기내과입니다", "소화기내과"},
		{"상담 결과 피부과 진료가 필요합니다", "피부과"},
		{"치주과", "치주과"},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			c := NewDepartmentClassifier(testCompleter(fixedReply(tt.reply)), nil)
			if got := c.Classify(context.Background(), "상담 요약"); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDepartmentClassifier_FallsBackToOfferPhrase(t *testing.T) {
	failing := &stubLLM{handle: func(llm.Request) (string, error) { return "", errors.New("unavailable") }}
	c := NewDepartmentClassifier(testCompleter(failing), nil)

	summary := "추정진단: 위염\n**정형외과**에 예약을 잡아드릴까요?"
	if got := c.Classify(context.Background(), summary); got != "정형외과" {
		t.Fatalf("Classify() = %q, want 정형외과", got)
	}
}

func TestDepartmentClassifier_ReplyWithoutDepartmentFallsBack(t *testing.T) {
	c := NewDepartmentClassifier(testCompleter(fixedReply("잘 모르겠습니다")), nil)
	if got := c.Classify(context.Background(), "의료진 연계: 피부과 방문 권장"); got != "피부과" {
		t.Fatalf("Classify() = %q, want 피부과", got)
	}
}

func TestDepartmentClassifier_DefaultsToInternalMedicine(t *testing.T) {
	failing := &stubLLM{handle: func(llm.Request) (string, error) { return "", errors.New("unavailable") }}
	for _, c := range []*DepartmentClassifier{
		NewDepartmentClassifier(nil, nil),
		NewDepartmentClassifier(testCompleter(failing), nil),
	} {
		if got := c.Classify(context.Background(), "머리가 아파요"); got != DefaultDepartment {
			t.Fatalf("Classify() = %q, want %q", got, DefaultDepartment)
		}
	}
}

func TestDepartmentClassifier_Normalization(t *testing.T) {
	c := NewDepartmentClassifier(testCompleter(fixedReply("내과")), nil, WithNormalization(true))
	if got := c.Classify(context.Background(), "가슴 통증, 순환기내과 진료 필요"); got != "순환기내과" {
		t.Fatalf("Classify() = %q, want 순환기내과", got)
	}
	if got := c.Classify(context.Background(), "복통"); got != "소화기내과" {
		t.Fatalf("Classify() = %q, want 소화기내과", got)
	}

	raw := NewDepartmentClassifier(testCompleter(fixedReply("내과")), nil)
	if got := raw.Classify(context.Background(), "복통"); got != "내과" {
		t.Fatalf("without normalization Classify() = %q, want 내과", got)
	}
}

func TestDepartmentFromText(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"신경과에 예약을 잡아드릴까요?", "신경과", true},
		{"의료진 연계: 이비인후과 방문", "이비인후과", true},
		{"정형외과 또는 신경외과 진료가 필요합니다", "정형외과", true},
		{"증상이 가볍습니다", "", false},
	}
	for _, tt := range tests {
		got, ok := DepartmentFromText(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("DepartmentFromText(%q) = %q,%v want %q,%v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeDepartment(t *testing.T) {
	if got := NormalizeDepartment("외과", "무릎 통증"); got != "일반외과" {
		t.Fatalf("got %q, want 일반외과", got)
	}
	if got := NormalizeDepartment("외과", "신경외과 상담 권장"); got != "신경외과" {
		t.Fatalf("got %q, want 신경외과", got)
	}
	if got := NormalizeDepartment("피부과", "아무거나"); got != "피부과" {
		t.Fatalf("specific labels must pass through, got %q", got)
	}
}
