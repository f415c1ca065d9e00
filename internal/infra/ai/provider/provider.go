package provider

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/reason3/internal/config"
	"github.com/bryanwahyu/reason3/internal/domain/ai"
	"github.com/bryanwahyu/reason3/internal/infra/ai/gemini"
	"github.com/bryanwahyu/reason3/internal/infra/ai/openai"
)

// New builds the model adapter for cfg. It returns a nil client and no error
// when no credential is configured: callers run in demo mode.
func New(ctx context.Context, cfg config.LLM) (ai.Client, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	switch cfg.Provider {
	case "gemini":
		c, err := gemini.NewClient(ctx, gemini.Options{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			BaseURL:     cfg.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "openai":
		return openai.NewClient(openai.Options{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       firstNonEmpty(cfg.Model, "gpt-4o-mini"),
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}), nil
	case "groq", "":
		return openai.NewClient(openai.Options{
			APIKey:      cfg.APIKey,
			BaseURL:     firstNonEmpty(cfg.BaseURL, openai.GroqBaseURL),
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
