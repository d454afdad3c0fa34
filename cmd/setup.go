package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/glowteam/skinscan/internal/ai"
	"github.com/glowteam/skinscan/internal/analyzer"
	"github.com/glowteam/skinscan/internal/config"
	"github.com/glowteam/skinscan/internal/history"
	"github.com/glowteam/skinscan/internal/history/postgres"
)

// newProvider creates the refinement provider selected by name. An
// empty name disables refinement.
func newProvider(ctx context.Context, cfg *config.Config, name string) (ai.Provider, error) {
	switch name {
	case "":
		return nil, nil
	case "openai":
		if cfg.OpenAI.Token == "" {
			return nil, errors.New("OPENAI_TOKEN environment variable is required")
		}
		pricing := cfg.GetModelPricing("gpt-4.1-mini").Standard
		return ai.NewOpenAIProvider(cfg.OpenAI.Token, ai.RequestPricing{
			Input:  pricing.Input,
			Output: pricing.Output,
		}), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY environment variable is required")
		}
		pricing := cfg.GetModelPricing("gemini-2.5-flash").Standard
		return ai.NewGeminiProvider(ctx, cfg.Gemini.APIKey, ai.RequestPricing{
			Input:  pricing.Input,
			Output: pricing.Output,
		})
	default:
		return nil, fmt.Errorf("unknown provider: %s (use openai or gemini)", name)
	}
}

// newStore creates the history store: PostgreSQL when DATABASE_URL is
// configured, in-memory otherwise. The returned cleanup closes the pool.
func newStore(ctx context.Context, cfg *config.Config) (history.Store, func(), error) {
	if cfg.Database.URL == "" {
		return history.NewMemoryStore(), func() {}, nil
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("applying migrations: %w", err)
	}
	fmt.Printf("Using PostgreSQL history backend\n")
	return postgres.NewScanRepository(pool), func() { pool.Close() }, nil
}

// newAnalyzer wires the full pipeline from configuration.
func newAnalyzer(ctx context.Context, cfg *config.Config, providerName string) (*analyzer.Analyzer, func(), error) {
	provider, err := newProvider(ctx, cfg, providerName)
	if err != nil {
		return nil, nil, err
	}

	store, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	a := analyzer.New(analyzer.Options{
		Store:         store,
		Provider:      provider,
		RefineTimeout: cfg.Refine.Timeout,
	})
	return a, cleanup, nil
}
