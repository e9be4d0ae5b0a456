package conversation

import (
	"context"
	"sync"

	"github.com/wolfman30/medconsult-ai/internal/booking"
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

func (s *stubLLM) last() llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func fixedReply(text string) *stubLLM {
	return &stubLLM{handle: func(llm.Request) (string, error) { return text, nil }}
}

func testCompleter(client llm.Client) *llm.Completer {
	return llm.NewCompleter(client, "test-model", llm.WithLogger(logging.Discard()))
}

// fakeDialogue records which booking entry point a turn used.
type fakeDialogue struct {
	active    bool
	activeErr error
	begun     []string
	continued []string
	reply     booking.Reply
}

func (f *fakeDialogue) Active(context.Context, string) (bool, error) {
	return f.active, f.activeErr
}

func (f *fakeDialogue) Begin(_ context.Context, _ string, summary, _ string) booking.Reply {
	f.begun = append(f.begun, summary)
	f.active = true
	return f.reply
}

func (f *fakeDialogue) Continue(_ context.Context, _ string, message string) booking.Reply {
	f.continued = append(f.continued, message)
	return f.reply
}

type fixedIntent Intent

func (i fixedIntent) Classify(context.Context, string, []Message) Intent { return Intent(i) }

type fakeResponder struct {
	answer string
	err    error
	calls  int
}

func (f *fakeResponder) Answer(context.Context, string, []Message) (string, error) {
	f.calls++
	return f.answer, f.err
}
