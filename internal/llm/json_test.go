package llm

import (
	"errors"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		err  error
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose", in: `Here you go: {"a":{"b":2}} thanks`, want: `{"a":{"b":2}}`},
		{name: "none", in: "no braces", err: ErrNoJSONObject},
		{name: "reversed", in: "} {", err: ErrNoJSONObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.in)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeJSONObjectMalformed(t *testing.T) {
	var out map[string]any
	err := DecodeJSONObject(`{"a": }`, &out)
	if err == nil || errors.Is(err, ErrNoJSONObject) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
