package provider

import (
	"context"
	"errors"

	"github.com/opencitylabs/tripdash/config"
	"github.com/opencitylabs/tripdash/models"
	openai_provider "github.com/opencitylabs/tripdash/provider/openai"
)

// Provider translates free-form user text into a structured dashboard
// command. Implementations are external agents; their output is untrusted
// and must be validated by the command router before dispatch.
type Provider interface {
	// TranslateCommand returns the command the agent chose plus a
	// conversational reply for the transcript. history carries recent
	// transcript lines; the transcript itself is owned by the caller.
	TranslateCommand(ctx context.Context, message string, history []string, menu []models.MenuEntry) (models.Command, string, error)
}

// NewProvider creates the LLM-backed command source.
func NewProvider(cfg config.OpenAIConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key not configured (providers.openai.api_key)")
	}
	return openai_provider.NewClient(cfg.APIKey, cfg.CompletionModel, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
}
