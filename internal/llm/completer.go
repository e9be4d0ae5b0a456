package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// Completer is the completion surface used by the rest of the application.
// It applies model defaults and a per-call timeout, records metrics, and
// performs exactly one retry: a JSON-mode call that fails is resubmitted in
// text mode and the reply is parsed manually by the caller.
type Completer struct {
	client      Client
	model       string
	timeout     time.Duration
	maxTokens   int32
	temperature float32
	logger      *logging.Logger
}

// CompleterOption configures a Completer.
type CompleterOption func(*Completer)

func WithTimeout(d time.Duration) CompleterOption {
	return func(c *Completer) { c.timeout = d }
}

func WithMaxTokens(n int32) CompleterOption {
	return func(c *Completer) { c.maxTokens = n }
}

func WithTemperature(t float32) CompleterOption {
	return func(c *Completer) { c.temperature = t }
}

func WithLogger(logger *logging.Logger) CompleterOption {
	return func(c *Completer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCompleter(client Client, model string, opts ...CompleterOption) *Completer {
	if client == nil {
		panic("llm: client cannot be nil")
	}
	c := &Completer{
		client:      client,
		model:       model,
		maxTokens:   1024,
		temperature: 0.2,
		logger:      logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model reports the model id sent with each request.
func (c *Completer) Model() string { return c.model }

// Complete returns the trimmed reply text for messages.
func (c *Completer) Complete(ctx context.Context, messages []Message, format Format) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("medconsult.llm.model", c.model),
		attribute.String("medconsult.llm.format", format.String()),
	)

	// A timed-out call fails the turn; only provider rejections of JSON mode are retried.
	resp, err := c.call(ctx, messages, format)
	if err != nil && format == FormatJSONObject && ctx.Err() == nil && !errors.Is(err, context.DeadlineExceeded) {
		formatRetriesTotal.WithLabelValues(c.model).Inc()
		c.logger.Warn("json mode completion failed, retrying in text mode", "model", c.model, "error", err)
		span.SetAttributes(attribute.Bool("medconsult.llm.format_retry", true))
		resp, err = c.call(ctx, messages, FormatText)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// CompleteJSON requests a JSON object and decodes it into out.
func (c *Completer) CompleteJSON(ctx context.Context, messages []Message, out any) error {
	text, err := c.Complete(ctx, messages, FormatJSONObject)
	if err != nil {
		return err
	}
	return DecodeJSONObject(text, out)
}

func (c *Completer) call(ctx context.Context, messages []Message, format Format) (Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.Complete(ctx, Request{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Format:      format,
	})
	latency := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
	}
	completionLatency.WithLabelValues(c.model, status).Observe(latency.Seconds())
	if err != nil {
		return Response{}, fmt.Errorf("llm: %s completion: %w", format, err)
	}
	observeUsage(c.model, resp.Usage)

	c.logger.Debug("llm completion finished",
		"model", c.model,
		"format", format.String(),
		"latency_ms", latency.Milliseconds(),
		"output_tokens", resp.Usage.OutputTokens,
	)
	return resp, nil
}
