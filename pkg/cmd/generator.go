package cmd

import (
	"log/slog"

	"github.com/dukex/composer/pkg/generator"
	"github.com/dukex/composer/pkg/nodes"
)

// GeneratorConfig selects the workflow generation engine.
type GeneratorConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewGenerator returns the LLM engine when an API key is configured and the
// rule-based engine otherwise.
func NewGenerator(config GeneratorConfig, logger *slog.Logger) (generator.Generator, error) {
	if config.APIKey == "" {
		logger.Info("No API key configured, using rule-based workflow generation")

		return generator.NewRuleBased(nodes.ULIDGenerator{}), nil
	}

	llm, err := generator.NewOpenAI(config.APIKey, config.Model, config.BaseURL,
		generator.WithLogger(logger.With("module", "generator")),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("Using LLM workflow generation", "model", modelOrDefault(config.Model))

	return llm, nil
}

func modelOrDefault(model string) string {
	if model == "" {
		return generator.DefaultModel
	}

	return model
}
