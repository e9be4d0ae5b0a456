package booking

import (
	"context"
	"regexp"
	"strings"

	"github.com/wolfman30/medconsult-ai/internal/llm"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// DefaultDepartment is returned when no department can be determined.
const DefaultDepartment = "내과"

const departmentSystemPrompt = `다음 의료 상담 내용을 읽고 환자가 방문해야 할 진료과 하나만 답하세요.
반드시 "OO과" 형태의 진료과 이름 하나만 출력하고 다른 설명은 쓰지 마세요. 예: 소화기내과`

var (
	departmentTokenRE = regexp.MustCompile(`[가-힣]+과`)
	bookingOfferRE    = regexp.MustCompile(`\**([가-힣]+과)\**\s*에\s*예약을\s*잡아드릴까요`)
	referralRE        = regexp.MustCompile(`의료진 연계[:\s]*([^:\n]+)`)
)

// knownDepartments is the vocabulary used for longest-match refinement.
var knownDepartments = []string{
	"소화기내과", "순환기내과", "호흡기내과", "내분비내과", "신장내과", "감염내과",
	"류마티스내과", "혈액종양내과", "알레르기내과", "내과",
	"일반외과", "정형외과", "신경외과", "흉부외과", "성형외과", "외과",
	"신경과", "피부과", "안과", "이비인후과", "산부인과", "비뇨의학과", "비뇨기과",
	"소아청소년과", "소아과", "정신건강의학과", "재활의학과", "가정의학과",
	"응급의학과", "영상의학과", "마취통증의학과", "치과",
}

// DepartmentClassifier derives a department label from a consultation summary.
// Order: delegated classification, then the upstream booking-offer phrase, then
// the referral section, then DefaultDepartment.
type DepartmentClassifier struct {
	completer *llm.Completer
	normalize bool
	logger    *logging.Logger
}

// DepartmentOption configures a DepartmentClassifier.
type DepartmentOption func(*DepartmentClassifier)

// WithNormalization refines generic delegated labels (내과, 외과) using the summary.
func WithNormalization(enabled bool) DepartmentOption {
	return func(c *DepartmentClassifier) { c.normalize = enabled }
}

// NewDepartmentClassifier accepts a nil completer, in which case only patterns are used.
func NewDepartmentClassifier(completer *llm.Completer, logger *logging.Logger, opts ...DepartmentOption) *DepartmentClassifier {
	if logger == nil {
		logger = logging.Default()
	}
	c := &DepartmentClassifier{completer: completer, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify never returns an empty string.
func (c *DepartmentClassifier) Classify(ctx context.Context, summary string) string {
	if c.completer != nil {
		if dept, ok := c.classifyWithLLM(ctx, summary); ok {
			if c.normalize {
				dept = NormalizeDepartment(dept, summary)
			}
			return dept
		}
	}
	if dept, ok := DepartmentFromText(summary); ok {
		return dept
	}
	return DefaultDepartment
}

func (c *DepartmentClassifier) classifyWithLLM(ctx context.Context, summary string) (string, bool) {
	reply, err := c.completer.Complete(ctx, []llm.Message{
		llm.System(departmentSystemPrompt),
		llm.User(summary),
	}, llm.FormatText)
	if err != nil {
		c.logger.Warn("department classification failed", "error", err)
		return "", false
	}
	token := departmentIn(reply)
	if token == "" {
		c.logger.Warn("department reply had no department token", "reply_len", len(reply))
		return "", false
	}
	return token, true
}

// DepartmentFromText looks for the canonical booking offer phrase, then the referral
// section, then the longest known department name mentioned anywhere.
func DepartmentFromText(text string) (string, bool) {
	if m := bookingOfferRE.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := referralRE.FindStringSubmatch(text); m != nil {
		if token := departmentIn(m[1]); token != "" {
			return token, true
		}
	}
	if dept := longestKnownDepartment(text, ""); dept != "" {
		return dept, true
	}
	return "", false
}

// departmentIn prefers a known department over the first "…과" token, which may be a word like 결과.
func departmentIn(text string) string {
	if known := longestKnownDepartment(text, ""); known != "" {
		return known
	}
	return departmentTokenRE.FindString(text)
}

// longestKnownDepartment returns the longest known department in text ending with suffix.
func longestKnownDepartment(text, suffix string) string {
	best := ""
	for _, known := range knownDepartments {
		if !strings.HasSuffix(known, suffix) {
			continue
		}
		if strings.Contains(text, known) && len([]rune(known)) > len([]rune(best)) {
			best = known
		}
	}
	return best
}

// NormalizeDepartment replaces a generic label with the most specific known department
// mentioned in summary (longest match wins), falling back to 내과→소화기내과 and 외과→일반외과.
func NormalizeDepartment(dept, summary string) string {
	if dept != "내과" && dept != "외과" {
		return dept
	}
	if best := longestKnownDepartment(summary, dept); best != "" && best != dept {
		return best
	}
	if dept == "내과" {
		return "소화기내과"
	}
	return "일반외과"
}
