package ai

import (
	"fmt"
	"strings"

	"example.com/uxwriter/internal/config"
)

// NewClient выбирает клиента провайдера по конфигурации.
func NewClient(cfg config.AIConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderOpenAI, "":
		return NewOpenAIClient(cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens, nil), nil
	case config.ProviderCompat:
		return NewCompatClient(cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens, nil), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
