package booking

import (
	"testing"
	"time"
)

func TestRuleExtractor_SingleUtterance(t *testing.T) {
	x := NewRuleExtractor(clockAt(testNow))
	got := x.Extract("박영재 01054226448 10월27일 13시")
	want := Fields{
		PatientName:   "박영재",
		PhoneNumber:   "010-5422-6448",
		PreferredDate: "10월27일",
		PreferredTime: "13:00",
	}
	if got != want {
		t.Fatalf("Extract() = %+v, want %+v", got, want)
	}
}

func TestRuleExtractor_Name(t *testing.T) {
	x := NewRuleExtractor(clockAt(testNow))
	tests := []struct {
		msg  string
		want string
	}{
		{"김민수입니다", "김민수"},
		{"제 이름은 이서연이에요", "이서연"},
		{"홍길동이라고 합니다", "홍길동"},
		{"성함은 최지우", "최지우"},
		{"이름은 정우성", "정우성"},
		{"박지성, 010-1111-2222", "박지성"},
		{"연락처 남겨요 강동원 010-3333-4444", "강동원"},
		{"내일 오후 3시", ""},
		{"오후 2시", ""},
		{"좋아요 그걸로 할게요", ""},
		{"예약하고 싶어요", ""},
		{"확정해 주세요", ""},
		{"이대로 진행해주세요", ""},
		{"진행해 주세요", ""},
		{"그대로 해주세요", ""},
		{"오후에 2시", ""},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := x.Extract(tt.msg).PatientName; got != tt.want {
				t.Errorf("name(%q) = %q, want %q", tt.msg, got, tt.want)
			}
		})
	}
}

func TestRuleExtractor_PhoneNormalization(t *testing.T) {
	x := NewRuleExtractor(clockAt(testNow))
	for _, msg := range []string{
		"010-5422-6448",
		"010 5422 6448",
		"010-54226448",
		"01054226448",
		"번호는 010.5422.6448 입니다",
	} {
		t.Run(msg, func(t *testing.T) {
			if got := x.Extract(msg).PhoneNumber; got != "010-5422-6448" {
				t.Errorf("phone(%q) = %q, want 010-5422-6448", msg, got)
			}
		})
	}
}

func TestNormalizePhone_KeepsNonStandardToken(t *testing.T) {
	if got := NormalizePhone("02-123-4567"); got != "02-123-4567" {
		t.Fatalf("expected token kept verbatim, got %q", got)
	}
}

func TestRuleExtractor_RelativeDates(t *testing.T) {
	x := NewRuleExtractor(clockAt(testNow))
	tests := []struct {
		msg  string
		want string
	}{
		{"오늘 가능할까요", "10월 20일"},
		{"내일 갈게요", "10월 21일"},
		{"모레 괜찮아요", "10월 22일"},
		{"내일모레 오전", "10월 22일"},
		{"내일이나 10월 27일", "10월 21일"},
		{"10월 27일", "10월 27일"},
		{"27일에 갈게요", "27일"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := x.Extract(tt.msg).PreferredDate; got != tt.want {
				t.Errorf("date(%q) = %q, want %q", tt.msg, got, tt.want)
			}
		})
	}
}

func TestRuleExtractor_TomorrowCrossesMonth(t *testing.T) {
	x := NewRuleExtractor(clockAt(time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC)))
	if got := x.Extract("내일").PreferredDate; got != "01월 01일" {
		t.Fatalf("expected 01월 01일, got %q", got)
	}
}

func TestRuleExtractor_Time(t *testing.T) {
	x := NewRuleExtractor(clockAt(testNow))
	tests := []struct {
		msg  string
		want string
	}{
		{"오후 2시", "14:00"},
		{"오후 12시", "12:00"},
		{"오전 10시", "10:00"},
		{"오전 9시 반", "09:30"},
		{"저녁 7시", "19:00"},
		{"오후에 2시", "14:00"},
		{"저녁에 7시", "19:00"},
		{"오전에 10시 반", "10:30"},
		{"오후에 세 시", "15:00"},
		{"13시", "13:00"},
		{"2시", "02:00"},
		{"15:30에 갈게요", "15:30"},
		{"오후 세 시", "15:00"},
		{"열한시", "11:00"},
		{"두시", "02:00"},
		{"오전", "09:00"},
		{"아침에", "09:00"},
		{"오후에", "14:00"},
		{"점심때", "12:00"},
		{"저녁에", "18:00"},
		{"2시간 걸려요", ""},
		{"아무때나", ""},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := x.Extract(tt.msg).PreferredTime; got != tt.want {
				t.Errorf("time(%q) = %q, want %q", tt.msg, got, tt.want)
			}
		})
	}
}

func TestRuleExtractFor_KnownNameKeptAgainstLeadingWord(t *testing.T) {
	x := NewRuleExtractor(clockAt(testNow))
	collected := Fields{PatientName: "박영재"}

	if got := x.ExtractFor("김민수 네 맞아요", collected).PatientName; got != "" {
		t.Fatalf("leading word replaced a known name: %q", got)
	}
	if got := x.ExtractFor("김민수 네 맞아요", Fields{}).PatientName; got != "김민수" {
		t.Fatalf("expected leading name without a known one, got %q", got)
	}
	if got := x.ExtractFor("제 이름은 김민수입니다", collected).PatientName; got != "김민수" {
		t.Fatalf("explicit correction should still apply, got %q", got)
	}
}
