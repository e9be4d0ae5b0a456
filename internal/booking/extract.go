package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RuleExtractor pulls booking fields out of a single message with ordered patterns.
// Within each field the first matching pattern wins.
type RuleExtractor struct {
	now func() time.Time
}

// NewRuleExtractor returns an extractor that resolves relative dates against now.
// A nil clock uses time.Now.
func NewRuleExtractor(now func() time.Time) *RuleExtractor {
	if now == nil {
		now = time.Now
	}
	return &RuleExtractor{now: now}
}

// Extract returns the fields found in message. Fields not found are left empty.
func (e *RuleExtractor) Extract(message string) Fields {
	return e.ExtractFor(message, Fields{})
}

// ExtractFor is Extract for a turn of a session that has already collected fields.
// Once a name is known, only explicit name phrasing ("…입니다", "성함은 …") can replace it.
func (e *RuleExtractor) ExtractFor(message string, collected Fields) Fields {
	return Fields{
		PatientName:   extractName(message, collected.PatientName != ""),
		PhoneNumber:   extractPhone(message),
		PreferredDate: extractDate(message, e.now()),
		PreferredTime: extractTime(message),
	}
}

type namePattern struct {
	re *regexp.Regexp
	// positional patterns take the leading word of the message, which is often not a name.
	positional bool
}

var namePatterns = []namePattern{
	{re: regexp.MustCompile(`([가-힣]{2,4})입니다`)},
	{re: regexp.MustCompile(`([가-힣]{2,4})이에요`)},
	{re: regexp.MustCompile(`([가-힣]{2,4})이라고`)},
	{re: regexp.MustCompile(`([가-힣]{2,4})라고`)},
	{re: regexp.MustCompile(`성함은\s*([가-힣]{2,4})`)},
	{re: regexp.MustCompile(`이름은\s*([가-힣]{2,4})`)},
	{re: regexp.MustCompile(`^\s*([가-힣]{2,4})\s*,`), positional: true},
	{re: regexp.MustCompile(`^\s*([가-힣]{2,4})\s+`), positional: true},
	{re: regexp.MustCompile(`([가-힣]{2,4})\s+01\d`)},
}

// reservedNameWords are tokens the name patterns can capture that are never names.
var reservedNameWords = map[string]struct{}{
	"내일": {}, "모레": {}, "오늘": {}, "내일모레": {}, "낼모레": {},
	"오전": {}, "오후": {}, "아침": {}, "점심": {}, "저녁": {},
	"이번주": {}, "다음주": {}, "주말": {}, "평일": {},
	"좋아요": {}, "좋습니다": {}, "맞아요": {}, "맞습니다": {}, "맞네요": {},
	"그래요": {}, "그렇습니다": {}, "아니요": {}, "아니오": {}, "아닙니다": {},
	"괜찮아요": {}, "감사합니다": {}, "고맙습니다": {}, "확인": {}, "네네": {},
	"저는": {}, "제가": {}, "제이름": {}, "성함": {}, "이름": {}, "연락처": {}, "전화번호": {},
	"진료": {}, "상담": {}, "부탁": {}, "가능": {}, "지금": {},
	"그럼": {}, "그러면": {}, "그리고": {}, "혹시": {}, "일단": {}, "저기요": {},
}

// nonNameEndings mark a leading word as a verb, adverb or particle phrase ("확정해", "이대로", "오후에").
var nonNameEndings = []string{
	"해", "대로", "주세요", "세요", "줘", "줘요", "해요", "할게", "게요", "니다", "하고", "해서", "하면", "에",
}

func extractName(message string, known bool) string {
	for _, p := range namePatterns {
		if p.positional && known {
			continue
		}
		m := p.re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		candidate := m[1]
		if p.positional && hasAnySuffix(candidate, nonNameEndings) {
			continue
		}
		if isPlausibleName(candidate) {
			return candidate
		}
	}
	return ""
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func isPlausibleName(candidate string) bool {
	if _, reserved := reservedNameWords[candidate]; reserved {
		return false
	}
	return !strings.Contains(candidate, "예약")
}

var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{3}-\d{4}-\d{4}`),
	regexp.MustCompile(`\d{3}\s*\d{4}\s*\d{4}`),
	regexp.MustCompile(`\d{3}-\d{8}`),
	regexp.MustCompile(`\d{11}`),
	regexp.MustCompile(`\d{3}[-.\s]\d{4}[-.\s]\d{4}`),
}

func extractPhone(message string) string {
	for _, re := range phonePatterns {
		token := re.FindString(message)
		if token == "" {
			continue
		}
		return NormalizePhone(token)
	}
	return ""
}

// NormalizePhone formats an 11-digit number as NNN-NNNN-NNNN. Anything else is returned unchanged.
func NormalizePhone(token string) string {
	digits := make([]byte, 0, len(token))
	for i := 0; i < len(token); i++ {
		if token[i] >= '0' && token[i] <= '9' {
			digits = append(digits, token[i])
		}
	}
	if len(digits) != 11 {
		return token
	}
	return fmt.Sprintf("%s-%s-%s", digits[:3], digits[3:7], digits[7:])
}

var (
	monthDayRE = regexp.MustCompile(`\d{1,2}\s*월\s*\d{1,2}\s*일`)
	dayOnlyRE  = regexp.MustCompile(`\d{1,2}\s*일`)
)

// relativeDays is checked in order; longer terms come first so 내일모레 is not read as 내일.
var relativeDays = []struct {
	term   string
	offset int
}{
	{"내일모레", 2},
	{"낼모레", 2},
	{"내일", 1},
	{"모레", 2},
	{"오늘", 0},
}

// FormatDate renders t as "MM월 DD일".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d월 %02d일", int(t.Month()), t.Day())
}

func extractDate(message string, now time.Time) string {
	for _, rel := range relativeDays {
		if strings.Contains(message, rel.term) {
			return FormatDate(now.AddDate(0, 0, rel.offset))
		}
	}
	if m := monthDayRE.FindString(message); m != "" {
		return m
	}
	return dayOnlyRE.FindString(message)
}

var (
	qualifiedHourRE = regexp.MustCompile(`(오전|아침|오후|저녁|밤)(?:\s*에)?\s*(\d{1,2})\s*시(\s*반)?`)
	clockRE         = regexp.MustCompile(`\d{1,2}:\d{2}`)
	bareHourRE      = regexp.MustCompile(`(\d{1,2})\s*시(\s*반)?`)
	wordHourRE      = regexp.MustCompile(`(?:(오전|아침|오후|저녁|밤)(?:\s*에)?)?\s*(열한|열두|한|두|세|셋|네|넷|다섯|여섯|일곱|여덟|아홉|열)\s*시(\s*반)?`)
)

var koreanHours = map[string]int{
	"한": 1, "두": 2, "세": 3, "셋": 3, "네": 4, "넷": 4, "다섯": 5, "여섯": 6,
	"일곱": 7, "여덟": 8, "아홉": 9, "열": 10, "열한": 11, "열두": 12,
}

func isAfternoon(qualifier string) bool {
	return qualifier == "오후" || qualifier == "저녁" || qualifier == "밤"
}

func formatHour(qualifier string, hour int, half bool) (string, bool) {
	if hour < 0 || hour > 24 {
		return "", false
	}
	if isAfternoon(qualifier) && hour < 12 {
		hour += 12
	}
	minute := 0
	if half {
		minute = 30
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func extractTime(message string) string {
	if m := findHour(qualifiedHourRE, message); m != nil {
		hour, _ := strconv.Atoi(m[2])
		if t, ok := formatHour(m[1], hour, m[3] != ""); ok {
			return t
		}
	}
	if m := clockRE.FindString(message); m != "" {
		return m
	}
	if m := findHour(bareHourRE, message); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if t, ok := formatHour("", hour, m[2] != ""); ok {
			return t
		}
	}
	if m := findHour(wordHourRE, message); m != nil {
		if t, ok := formatHour(m[1], koreanHours[m[2]], m[3] != ""); ok {
			return t
		}
	}
	switch {
	case strings.Contains(message, "오전"), strings.Contains(message, "아침"):
		return "09:00"
	case strings.Contains(message, "오후"):
		return "14:00"
	case strings.Contains(message, "점심"):
		return "12:00"
	case strings.Contains(message, "저녁"):
		return "18:00"
	}
	return ""
}

// findHour returns the submatches of the first hour expression that is not a duration ("2시간").
func findHour(re *regexp.Regexp, message string) []string {
	for _, idx := range re.FindAllStringSubmatchIndex(message, -1) {
		if strings.HasPrefix(message[idx[1]:], "간") {
			continue
		}
		out := make([]string, len(idx)/2)
		for i := range out {
			if idx[2*i] >= 0 {
				out[i] = message[idx[2*i]:idx[2*i+1]]
			}
		}
		return out
	}
	return nil
}
