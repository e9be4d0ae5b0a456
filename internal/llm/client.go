package llm

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrUnsupportedFormat is returned by providers that cannot honour a requested response format.
	ErrUnsupportedFormat = errors.New("llm: response format not supported")
	// ErrEmptyResponse is returned when the provider produced no text.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrNoJSONObject is returned when a reply contains no JSON object.
	ErrNoJSONObject = errors.New("llm: no json object in response")
)

// Message is a single chat turn. System messages are folded into the provider's system prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Format selects the response mode requested from the provider.
type Format int

const (
	FormatText Format = iota
	FormatJSONObject
)

func (f Format) String() string {
	if f == FormatJSONObject {
		return "json_object"
	}
	return "text"
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type Request struct {
	Model       string
	System      []string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
	TopP        float32
	Format      Format
}

type Response struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// Client is a single completion provider.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// System is shorthand for a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User is shorthand for a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Assistant is shorthand for an assistant message.
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }
