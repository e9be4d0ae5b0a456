package booking

import (
	"fmt"
	"strings"
)

// Field names a collectable booking field.
type Field string

const (
	FieldPatientName   Field = "patient_name"
	FieldPhoneNumber   Field = "phone_number"
	FieldPreferredDate Field = "preferred_date"
	FieldPreferredTime Field = "preferred_time"
)

// AllFields lists the collectable fields in prompt order.
var AllFields = []Field{FieldPatientName, FieldPhoneNumber, FieldPreferredDate, FieldPreferredTime}

// Label is the Korean label shown to the user.
func (f Field) Label() string {
	switch f {
	case FieldPatientName:
		return "성함"
	case FieldPhoneNumber:
		return "연락처"
	case FieldPreferredDate:
		return "희망 날짜"
	case FieldPreferredTime:
		return "희망 시간"
	default:
		return string(f)
	}
}

// Fields is a partial set of collected booking values. Empty means unset.
type Fields struct {
	PatientName   string `json:"patient_name,omitempty" dynamodbav:"patientName,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty" dynamodbav:"phoneNumber,omitempty"`
	PreferredDate string `json:"preferred_date,omitempty" dynamodbav:"preferredDate,omitempty"`
	PreferredTime string `json:"preferred_time,omitempty" dynamodbav:"preferredTime,omitempty"`
}

// Get returns the value of a single field.
func (f Fields) Get(field Field) string {
	switch field {
	case FieldPatientName:
		return f.PatientName
	case FieldPhoneNumber:
		return f.PhoneNumber
	case FieldPreferredDate:
		return f.PreferredDate
	case FieldPreferredTime:
		return f.PreferredTime
	}
	return ""
}

func (f *Fields) set(field Field, value string) {
	switch field {
	case FieldPatientName:
		f.PatientName = value
	case FieldPhoneNumber:
		f.PhoneNumber = value
	case FieldPreferredDate:
		f.PreferredDate = value
	case FieldPreferredTime:
		f.PreferredTime = value
	}
}

// Missing lists fields that are still empty, in prompt order.
func (f Fields) Missing() []Field {
	var out []Field
	for _, field := range AllFields {
		if strings.TrimSpace(f.Get(field)) == "" {
			out = append(out, field)
		}
	}
	return out
}

// Complete reports whether all four fields are present.
func (f Fields) Complete() bool { return len(f.Missing()) == 0 }

// Empty reports whether no field is present.
func (f Fields) Empty() bool { return len(f.Missing()) == len(AllFields) }

// Merge fills fields that f left empty with values from fallback. Values already in f win.
func (f Fields) Merge(fallback Fields) Fields {
	out := f
	for _, field := range AllFields {
		if strings.TrimSpace(out.Get(field)) == "" {
			out.set(field, strings.TrimSpace(fallback.Get(field)))
		}
	}
	return out
}

// Apply overwrites f with every non-empty value in update (last write wins per field).
func (f Fields) Apply(update Fields) Fields {
	out := f
	for _, field := range AllFields {
		if v := strings.TrimSpace(update.Get(field)); v != "" {
			out.set(field, v)
		}
	}
	return out
}

// Summary renders collected fields as a bulleted list.
func (f Fields) Summary() string {
	var b strings.Builder
	for _, field := range AllFields {
		if v := f.Get(field); v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", field.Label(), v)
		}
	}
	if b.Len() == 0 {
		return "- (아직 수집된 정보가 없습니다)"
	}
	return strings.TrimRight(b.String(), "\n")
}

// MissingLabels renders the missing fields as a comma separated label list.
func MissingLabels(fields []Field) string {
	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		labels = append(labels, f.Label())
	}
	return strings.Join(labels, ", ")
}
