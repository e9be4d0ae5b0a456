package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject returns the outermost {...} span of a model reply.
// Models wrap JSON in code fences or prose even in JSON mode.
func ExtractJSONObject(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSONObject
	}
	return text[start : end+1], nil
}

// DecodeJSONObject extracts and unmarshals the JSON object in raw into out.
func DecodeJSONObject(raw string, out any) error {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return fmt.Errorf("llm: decode json reply: %w", err)
	}
	return nil
}
