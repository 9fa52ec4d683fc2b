package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/temaptz/trade-agent/internal/broker"
	"github.com/temaptz/trade-agent/internal/broker/brokerobs"
	"github.com/temaptz/trade-agent/internal/interfaces"
	"github.com/temaptz/trade-agent/internal/llm/claude"
	"github.com/temaptz/trade-agent/internal/llm/llmobs"
	"github.com/temaptz/trade-agent/internal/llm/noop"
	"github.com/temaptz/trade-agent/internal/llm/ollama"
	"github.com/temaptz/trade-agent/internal/llm/openai"
	"github.com/temaptz/trade-agent/internal/logger"
	"github.com/temaptz/trade-agent/internal/news"
	"github.com/temaptz/trade-agent/internal/signals"
	"github.com/temaptz/trade-agent/internal/signals/signalsobs"
	"github.com/temaptz/trade-agent/internal/store"
	"github.com/temaptz/trade-agent/internal/trace"
)

// initializeSystem loads env and brings up the logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// A broken tracer degrades to no-op spans; not worth failing startup.
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// initializeBroker builds the configured broker with observability
func initializeBroker(ctx context.Context, cfg *store.Config) (interfaces.Broker, error) {
	brk, err := broker.New(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Mode != "LIVE" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders fill against the paper simulator")
	} else {
		logger.Info(ctx, "LIVE trading enabled", "exchange", cfg.Exchange.Name, "testnet", cfg.Exchange.Testnet)
	}

	return brokerobs.Wrap(brk), nil
}

// initializeJudge picks the LLM provider behind the sentiment source
func initializeJudge(ctx context.Context, cfg *store.Config) interfaces.Judge {
	var judge interfaces.Judge

	switch cfg.LLM.Provider {
	case "OPENAI":
		judge = openai.NewJudger(cfg)
	case "CLAUDE":
		judge = claude.NewJudger(cfg)
	case "OLLAMA":
		judge = ollama.NewJudger(cfg)
	default:
		judge = noop.NewJudger()
		logger.Warn(ctx, "No LLM provider configured - sentiment judge always abstains")
	}

	return llmobs.Wrap(judge)
}

// initializeNews builds the shared headline/digest service. It stays
// disabled when no weighted source consumes it.
func initializeNews(cfg *store.Config) *news.Service {
	sc := news.FromConfig(cfg)
	sc.Enabled = cfg.Weights.Sentiment > 0 || cfg.Weights.News > 0
	return news.NewService(sc)
}

// initializeSources assembles the signal sources. A zero-weight source
// is left out so it costs nothing per cycle; fusion renormalizes over
// whatever is present.
func initializeSources(cfg *store.Config, judge interfaces.Judge, newsSvc *news.Service) []interfaces.SignalSource {
	var sources []interfaces.SignalSource
	if cfg.Weights.Technical > 0 {
		sources = append(sources, signals.NewTechnical(cfg))
	}
	if cfg.Weights.Sentiment > 0 {
		sources = append(sources, signals.NewSentiment(cfg, judge, newsSvc))
	}
	if cfg.Weights.News > 0 {
		sources = append(sources, signals.NewNews(newsSvc))
	}
	return signalsobs.WrapAll(sources)
}
