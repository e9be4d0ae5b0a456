package booking

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/medconsult-ai/internal/llm"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// stubLLM answers completion requests with a handler and records every request.
type stubLLM struct {
	mu       sync.Mutex
	handle   func(req llm.Request) (string, error)
	requests []llm.Request
}

func (s *stubLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	text, err := s.handle(req)
	if err != nil {
		return llm.Response{}, err
	}
	return llm.Response{Text: text}, nil
}

func (s *stubLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func fixedReply(text string) *stubLLM {
	return &stubLLM{handle: func(llm.Request) (string, error) { return text, nil }}
}

func testCompleter(client llm.Client) *llm.Completer {
	return llm.NewCompleter(client, "test-model", llm.WithLogger(logging.Discard()))
}

func lastUserContent(req llm.Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == llm.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

func systemContent(req llm.Request) string {
	var b strings.Builder
	for _, sys := range req.System {
		b.WriteString(sys)
	}
	for _, m := range req.Messages {
		if m.Role == llm.RoleSystem {
			b.WriteString(m.Content)
		}
	}
	return b.String()
}

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testNow = time.Date(2025, time.October, 20, 10, 0, 0, 0, time.UTC)
