// internal/judgment/factory.go
package judgment

import (
	"fmt"

	"subsidy-recommender/internal/common/config"
	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/recommender"
)

var (
	_ recommender.JudgmentService = (*LLMJudge)(nil)
	_ recommender.JudgmentService = (*RuleJudge)(nil)
)

// New builds the JudgmentService selected by cfg.Provider.
func New(cfg config.JudgmentConfig, log logger.Logger) (recommender.JudgmentService, error) {
	timeout := config.GetDuration(cfg.Timeout)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		caller := NewOpenAICaller(&OpenAIConfig{
			BaseURL:     cfg.OpenAI.BaseURL,
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			MaxRetries:  cfg.MaxRetries,
			Timeout:     timeout,
		})
		return NewLLMJudge(caller, timeout, log), nil

	case config.ProviderAnthropic:
		caller, err := NewAnthropicCaller(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.MaxTokens, cfg.Temperature)
		if err != nil {
			return nil, err
		}
		return NewLLMJudge(caller, timeout, log), nil

	case config.ProviderGemini:
		caller, err := NewGeminiCaller(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.MaxTokens, cfg.Temperature)
		if err != nil {
			return nil, err
		}
		return NewLLMJudge(caller, timeout, log), nil

	case config.ProviderRules:
		book, err := LoadRulebook(cfg.Rules.Path)
		if err != nil {
			return nil, err
		}
		return NewRuleJudge(book, log)

	default:
		return nil, fmt.Errorf("unknown judgment provider %q", cfg.Provider)
	}
}
