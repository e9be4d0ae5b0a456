package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/wolfman30/medconsult-ai/internal/booking"
	appconfig "github.com/wolfman30/medconsult-ai/internal/config"
	"github.com/wolfman30/medconsult-ai/internal/conversation"
	"github.com/wolfman30/medconsult-ai/internal/llm"
	"github.com/wolfman30/medconsult-ai/internal/observability/metrics"
	"github.com/wolfman30/medconsult-ai/internal/retrieval"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// BuildRetriever loads KNOWLEDGE_DIR into an in-memory store. Documents are embedded
// with Bedrock when an embedding model is configured and ranked lexically otherwise.
// It returns nil when no knowledge directory is configured.
func BuildRetriever(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (retrieval.Retriever, error) {
	if cfg == nil || strings.TrimSpace(cfg.KnowledgeDir) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	docs, err := retrieval.LoadDir(cfg.KnowledgeDir)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load knowledge: %w", err)
	}

	var embedder retrieval.Embedder
	if model := strings.TrimSpace(cfg.BedrockEmbeddingModelID); model != "" {
		embedder = retrieval.NewBedrockEmbedder(bedrockruntime.NewFromConfig(awsCfg), model)
	}
	store := retrieval.NewMemoryStore(embedder, cfg.RetrievalTopK, logger)
	if err := store.Add(ctx, docs); err != nil {
		return nil, fmt.Errorf("bootstrap: index knowledge: %w", err)
	}
	logger.Info("knowledge indexed", "documents", store.Len(), "embedded", embedder != nil)
	return store, nil
}

// Deps are the already-built collaborators the chat stack is assembled from.
type Deps struct {
	Completer    *llm.Completer
	Sessions     booking.SessionStore
	Appointments booking.AppointmentRepository
	// Retriever may be nil.
	Retriever retrieval.Retriever
	Metrics   *metrics.BookingMetrics
}

// App is the assembled chat stack.
type App struct {
	Service   *booking.Service
	Dialogue  *booking.Dialogue
	Assistant *conversation.Assistant
	Handler   *conversation.Handler
	Sweeper   *booking.Sweeper
}

// NewApp assembles the booking and conversation layers from deps.
func NewApp(cfg *appconfig.Config, deps Deps, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if deps.Completer == nil || deps.Sessions == nil || deps.Appointments == nil {
		return nil, fmt.Errorf("bootstrap: completer, sessions and appointments are required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	service := booking.NewService(deps.Sessions, deps.Appointments, logger.Component("booking"),
		booking.WithMetrics(deps.Metrics))
	classifier := booking.NewDepartmentClassifier(deps.Completer, logger,
		booking.WithNormalization(cfg.DepartmentNormalize))
	dialogue := booking.NewDialogue(service,
		booking.NewLLMExtractor(deps.Completer, logger),
		classifier,
		deps.Completer,
		logger.Component("dialogue"),
		booking.WithDialogueMetrics(deps.Metrics),
	)

	router := conversation.NewIntentRouter(deps.Completer, deps.Metrics, logger)
	consultant := conversation.NewConsultant(deps.Retriever, deps.Completer, logger)
	assistant, err := conversation.NewAssistant(router, dialogue, consultant, logger.Component("assistant"),
		conversation.WithStickyBooking(cfg.StickyBookingSessions))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: assistant: %w", err)
	}

	sweeper := booking.NewSweeper(service, logger).
		WithInterval(cfg.SessionSweepInterval).
		WithMaxAge(cfg.SessionMaxAge)

	return &App{
		Service:   service,
		Dialogue:  dialogue,
		Assistant: assistant,
		Handler:   conversation.NewHandler(assistant, service, logger),
		Sweeper:   sweeper,
	}, nil
}
