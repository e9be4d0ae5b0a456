package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/medconsult-ai/internal/config"
	"github.com/wolfman30/medconsult-ai/internal/llm"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// providerClient is one configured completion provider.
type providerClient struct {
	client llm.Client
	model  string
	close  func() error
}

// BuildCompleter wires the configured provider, plus the optional fallback, behind one Completer.
// The returned closer releases provider connections.
func BuildCompleter(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (*llm.Completer, func() error, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	primary, err := buildProvider(ctx, cfg.LLMProvider, cfg, awsCfg)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{primary.close}
	client := primary.client

	if fb := cfg.LLMFallbackProvider; fb != "" && fb != cfg.LLMProvider {
		secondary, err := buildProvider(ctx, fb, cfg, awsCfg)
		if err != nil {
			logger.Warn("fallback llm provider unavailable", "provider", fb, "error", err)
		} else {
			client = llm.NewFallbackClient(primary.client, secondary.client, logger)
			closers = append(closers, secondary.close)
			logger.Info("llm fallback enabled", "provider", fb, "model", secondary.model)
		}
	}

	logger.Info("llm provider configured", "provider", cfg.LLMProvider, "model", primary.model)
	completer := llm.NewCompleter(client, primary.model,
		llm.WithTimeout(cfg.LLMTimeout),
		llm.WithLogger(logger),
	)
	closeAll := func() error {
		var firstErr error
		for _, c := range closers {
			if c == nil {
				continue
			}
			if err := c(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	return completer, closeAll, nil
}

func buildProvider(ctx context.Context, name string, cfg *appconfig.Config, awsCfg aws.Config) (providerClient, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return providerClient{}, fmt.Errorf("bootstrap: GEMINI_API_KEY is required for the gemini provider")
		}
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return providerClient{}, fmt.Errorf("bootstrap: gemini client: %w", err)
		}
		return providerClient{client: client, model: cfg.GeminiModel, close: client.Close}, nil
	case "bedrock":
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			return providerClient{}, fmt.Errorf("bootstrap: BEDROCK_MODEL_ID is required for the bedrock provider")
		}
		api := bedrockruntime.NewFromConfig(awsCfg)
		return providerClient{client: llm.NewBedrockClient(api, cfg.BedrockModelID), model: cfg.BedrockModelID}, nil
	default:
		return providerClient{}, fmt.Errorf("bootstrap: unknown llm provider %q", name)
	}
}
