package llm

import (
	"fmt"

	"parish_server/config"
	"parish_server/core/port/out"
	"parish_server/pkg/apperr"
)

// NewProvider returns the generator selected by configuration.
func NewProvider(cfg config.LLMConfig) (out.TextGenerator, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(cfg.GeminiAPIKey, cfg.Model), nil
	case "openai":
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.Model), nil
	default:
		return nil, apperr.ConfigError(fmt.Sprintf("unknown llm provider %q", cfg.Provider))
	}
}
