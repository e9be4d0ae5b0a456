package conversation

import (
	"context"

	"github.com/wolfman30/medconsult-ai/internal/llm"
	"github.com/wolfman30/medconsult-ai/internal/retrieval"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// Consultant answers medical questions grounded on retrieved sources.
type Consultant struct {
	retriever retrieval.Retriever
	completer *llm.Completer
	logger    *logging.Logger
}

// NewConsultant accepts a nil retriever, in which case answers are generated without sources.
func NewConsultant(retriever retrieval.Retriever, completer *llm.Completer, logger *logging.Logger) *Consultant {
	if completer == nil {
		panic("conversation: completer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Consultant{retriever: retriever, completer: completer, logger: logger}
}

// Answer returns the grounded reply for message given the transcript.
func (c *Consultant) Answer(ctx context.Context, message string, history []Message) (string, error) {
	var docs []retrieval.Document
	if c.retriever != nil {
		found, err := c.retriever.Search(ctx, message)
		if err != nil {
			c.logger.Warn("retrieval failed, answering without sources", "error", err)
		} else {
			docs = found
		}
	}

	system, user := retrieval.GroundingPrompt(message, docs)
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.System(system))
	msgs = append(msgs, toLLMMessages(history)...)
	msgs = append(msgs, llm.User(user))

	c.logger.Debug("consultation prompt built", "sources", len(docs), "history", len(history))
	return c.completer.Complete(ctx, msgs, llm.FormatText)
}
