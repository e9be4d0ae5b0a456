package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/medconsult-ai/cmd/mainconfig"
	"github.com/wolfman30/medconsult-ai/internal/app/bootstrap"
	"github.com/wolfman30/medconsult-ai/internal/booking"
	appconfig "github.com/wolfman30/medconsult-ai/internal/config"
	"github.com/wolfman30/medconsult-ai/internal/conversation"
	"github.com/wolfman30/medconsult-ai/pkg/logging"
)

// llmtest runs the intent, department and extraction prompts against the configured
// provider so prompt changes can be checked by hand.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	message := flag.String("message", "김민수입니다. 010-1234-5678, 다음주 화요일 오후 3시에 예약하고 싶어요", "user message to probe")
	summary := flag.String("summary", "추정진단: 역류성 식도염. 권장 검사: 위내시경. 소화기내과에 예약을 잡아드릴까요?", "consultation summary for the department prompt")
	timeout := flag.Duration("timeout", 60*time.Second, "overall timeout")
	flag.Parse()

	cfg := appconfig.Load()
	logger := logging.NewWithOptions(logging.Options{Level: "debug", Format: "text", Output: os.Stderr})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("aws config: %v", err)
	}
	completer, closeLLM, err := bootstrap.BuildCompleter(ctx, cfg, awsCfg, logger)
	if err != nil {
		log.Fatalf("llm: %v", err)
	}
	defer func() { _ = closeLLM() }()

	line := strings.Repeat("=", 60)
	fmt.Println(line)
	fmt.Printf("LLM probe (provider=%s model=%s)\n", cfg.LLMProvider, completer.Model())
	fmt.Println(line)

	history := []conversation.Message{{Role: "assistant", Content: *summary}}

	start := time.Now()
	intent := conversation.NewIntentRouter(completer, nil, logger).Classify(ctx, *message, history)
	fmt.Printf("\n[1] intent: %s (%v)\n", intent, time.Since(start).Round(time.Millisecond))

	start = time.Now()
	dept := booking.NewDepartmentClassifier(completer, logger, booking.WithNormalization(cfg.DepartmentNormalize)).Classify(ctx, *summary)
	fmt.Printf("[2] department: %s (%v)\n", dept, time.Since(start).Round(time.Millisecond))

	rules := booking.NewRuleExtractor(time.Now).Extract(*message)
	fmt.Printf("[3] rule extraction: %+v\n", rules)

	start = time.Now()
	ext, err := booking.NewLLMExtractor(completer, logger).Extract(ctx, *message, booking.Fields{})
	if err != nil {
		fmt.Printf("[4] delegated extraction failed: %v\n", err)
	} else {
		fmt.Printf("[4] delegated extraction: %+v confirm=%t (%v)\n", ext.Fields, ext.ConfirmationIntent, time.Since(start).Round(time.Millisecond))
	}
	fmt.Printf("    merged: %+v\n", rules.Merge(ext.Fields))
}
