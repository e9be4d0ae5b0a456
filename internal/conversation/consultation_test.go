package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/medconsult-ai/internal/llm"
	"github.com/wolfman30/medconsult-ai/internal/retrieval"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

type stubRetriever struct {
	docs []retrieval.Document
	err  error
}

func (s stubRetriever) Search(context.Context, string) ([]retrieval.Document, error) {
	return s.docs, s.err
}

func TestConsultant_AnswerGroundsOnSources(t *testing.T) {
	client := fixedReply("추정진단: 위염\n소화기내과에 예약을 잡아드릴까요?")
	retriever := stubRetriever{docs: []retrieval.Document{{Title: "위염", Content: "위 점막의 염증"}}}
	c := NewConsultant(retriever, testCompleter(client), logging.Discard())

	history := []Message{{Role: "user", Content: "속이 쓰려요"}, {Role: "assistant", Content: "언제부터요?"}}
	answer, err := c.Answer(context.Background(), "2주 됐어요", history)
	require.NoError(t, err)
	assert.Contains(t, answer, "추정진단")

	req := client.last()
	assert.Equal(t, llm.FormatText, req.Format)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, "속이 쓰려요", req.Messages[1].Content)
	last := req.Messages[3]
	assert.Equal(t, llm.RoleUser, last.Role)
	assert.True(t, strings.HasPrefix(last.Content, "Question: 2주 됐어요"))
	assert.Contains(t, last.Content, "TITLE: 위염, CONTENT: 위 점막의 염증")
}

func TestConsultant_RetrievalFailureStillAnswers(t *testing.T) {
	client := fixedReply("증상을 더 알려주세요")
	c := NewConsultant(stubRetriever{err: errors.New("index offline")}, testCompleter(client), logging.Discard())

	answer, err := c.Answer(context.Background(), "머리가 아파요", nil)
	require.NoError(t, err)
	assert.Equal(t, "증상을 더 알려주세요", answer)
	assert.NotContains(t, client.last().Messages[1].Content, "TITLE:")
}

func TestConsultant_NilRetriever(t *testing.T) {
	client := fixedReply("답변")
	c := NewConsultant(nil, testCompleter(client), logging.Discard())
	_, err := c.Answer(context.Background(), "질문", nil)
	require.NoError(t, err)
}

func TestConsultant_CompletionError(t *testing.T) {
	client := &stubLLM{handle: func(llm.Request) (string, error) { return "", errors.New("boom") }}
	c := NewConsultant(nil, testCompleter(client), logging.Discard())
	_, err := c.Answer(context.Background(), "질문", nil)
	require.Error(t, err)
}
