package booking

import (
	"reflect"
	"testing"
	"time"
)

func TestFields_Completeness(t *testing.T) {
	full := Fields{PatientName: "김민수", PhoneNumber: "010-1234-5678", PreferredDate: "10월 27일", PreferredTime: "15:00"}
	if !full.Complete() {
		t.Fatal("expected all four fields to be complete")
	}

	for _, field := range AllFields {
		f := full
		f.set(field, "  ")
		if f.Complete() {
			t.Errorf("blank %s should make fields incomplete", field)
		}
		if got := f.Missing(); !reflect.DeepEqual(got, []Field{field}) {
			t.Errorf("Missing() = %v, want [%s]", got, field)
		}
	}

	if !(Fields{}).Empty() {
		t.Error("zero Fields should be empty")
	}
}

func TestSession_DepartmentDoesNotGateCompleteness(t *testing.T) {
	s := &Session{Fields: Fields{PatientName: "a", PhoneNumber: "b", PreferredDate: "c", PreferredTime: "d"}}
	if !s.Complete() {
		t.Fatal("session without department or summary should still be complete")
	}
	var nilSession *Session
	if nilSession.Complete() {
		t.Fatal("nil session is never complete")
	}
}

func TestFields_MergeKeepsReceiver(t *testing.T) {
	rules := Fields{PatientName: "박영재", PreferredTime: "13:00"}
	delegated := Fields{PatientName: "박영", PhoneNumber: "010-5422-6448", PreferredTime: "01:00"}

	got := rules.Merge(delegated)
	want := Fields{PatientName: "박영재", PhoneNumber: "010-5422-6448", PreferredTime: "13:00"}
	if got != want {
		t.Fatalf("Merge() = %+v, want %+v", got, want)
	}
}

func TestFields_ApplyLastWriteWins(t *testing.T) {
	current := Fields{PatientName: "김민수", PreferredTime: "09:00"}
	got := current.Apply(Fields{PreferredTime: "14:00", PreferredDate: "10월 27일"})
	want := Fields{PatientName: "김민수", PreferredDate: "10월 27일", PreferredTime: "14:00"}
	if got != want {
		t.Fatalf("Apply() = %+v, want %+v", got, want)
	}
}

func TestFields_Summary(t *testing.T) {
	if got := (Fields{}).Summary(); got != "- (아직 수집된 정보가 없습니다)" {
		t.Fatalf("unexpected empty summary %q", got)
	}
	got := Fields{PatientName: "김민수", PreferredTime: "15:00"}.Summary()
	want := "- 성함: 김민수\n- 희망 시간: 15:00"
	if got != want {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}
}

func TestMissingLabels(t *testing.T) {
	got := MissingLabels([]Field{FieldPhoneNumber, FieldPreferredDate})
	if got != "연락처, 희망 날짜" {
		t.Fatalf("MissingLabels() = %q", got)
	}
}

func TestExpiryPolicy(t *testing.T) {
	created := testNow
	s := &Session{CreatedAt: created, UpdatedAt: created.Add(23 * time.Hour)}
	now := created.Add(25 * time.Hour)

	if !ExpireFromCreation.Expired(s, 24*time.Hour, now) {
		t.Error("creation policy should expire a 25h old session")
	}
	if ExpireFromActivity.Expired(s, 24*time.Hour, now) {
		t.Error("activity policy should keep a session updated 2h ago")
	}
	if ExpireFromCreation.Expired(s, 0, now) {
		t.Error("non-positive max age never expires")
	}
	if ExpiryPolicyFor(true) != ExpireFromActivity || ExpiryPolicyFor(false) != ExpireFromCreation {
		t.Error("ExpiryPolicyFor mapping is wrong")
	}
}
