package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/composer/pkg/connections"
	"github.com/dukex/composer/pkg/models"
	"github.com/dukex/composer/pkg/nodes"
	"github.com/go-playground/validator/v10"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gpt-3.5-turbo"

const systemPrompt = `You are an expert workflow designer. Your task is to create a workflow based on a description.
Output a JSON structure that represents the workflow with the following format:
{
    "name": "Workflow name",
    "nodes": [
        {
            "id": "node_id",
            "type": "node_type",
            "name": "Node Name",
            "parameters": {...}
        }
    ],
    "connections": [
        {
            "source": "source_node_id",
            "target": "target_node_id"
        }
    ]
}

Nodes run in the order they are listed. Only return valid JSON. Support these node types: http, function, webhook, schedule.`

// LLM drafts workflows with a language model.
type LLM struct {
	model       llms.Model
	ids         nodes.IDGenerator
	validate    *validator.Validate
	logger      *slog.Logger
	maxTokens   int
	temperature float64
}

// LLMOption configures an LLM generator.
type LLMOption func(*LLM)

// WithIDGenerator sets where identifiers for unnamed or clashing nodes come from.
func WithIDGenerator(ids nodes.IDGenerator) LLMOption {
	return func(g *LLM) {
		g.ids = ids
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LLMOption {
	return func(g *LLM) {
		g.logger = logger
	}
}

// NewLLM returns a generator backed by model.
func NewLLM(model llms.Model, opts ...LLMOption) *LLM {
	g := &LLM{
		model:       model,
		ids:         nodes.ULIDGenerator{},
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      slog.Default(),
		maxTokens:   1000,
		temperature: 0.7,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// NewOpenAI returns a generator that talks to the OpenAI chat API. An empty
// modelName selects DefaultModel; baseURL may point at any compatible server.
func NewOpenAI(apiKey, modelName, baseURL string, opts ...LLMOption) (*LLM, error) {
	if modelName == "" {
		modelName = DefaultModel
	}

	clientOpts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(modelName),
	}

	if baseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(baseURL))
	}

	model, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	return NewLLM(model, opts...), nil
}

func (*LLM) Name() string {
	return "llm"
}

func (g *LLM) Generate(ctx context.Context, description string) (*models.Workflow, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, "Create a workflow based on this description: "+description),
	}

	resp, err := g.model.GenerateContent(ctx, messages,
		llms.WithMaxTokens(g.maxTokens),
		llms.WithTemperature(g.temperature),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate workflow: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response from model", ErrInvalidOutput)
	}

	workflow, err := g.parse(resp.Choices[0].Content)
	if err != nil {
		g.logger.WarnContext(ctx, "Model returned an unusable workflow", "error", err)

		return nil, err
	}

	return workflow, nil
}

// parse extracts the outermost JSON object from answer, fills in missing or
// clashing node identifiers and derives the connections from node order.
func (g *LLM) parse(answer string) (*models.Workflow, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")

	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in model answer", ErrInvalidOutput)
	}

	var workflow models.Workflow
	if err := json.Unmarshal([]byte(answer[start:end+1]), &workflow); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}

	if len(workflow.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrInvalidOutput)
	}

	seen := make(map[string]struct{}, len(workflow.Nodes))

	for i := range workflow.Nodes {
		node := &workflow.Nodes[i]

		if _, dup := seen[node.ID]; node.ID == "" || dup {
			node.ID = g.ids.NewID()
		}

		seen[node.ID] = struct{}{}

		if node.Name == "" {
			node.Name = nodes.DefaultName(node.Type)
		}

		if node.Parameters == nil {
			node.Parameters = map[string]any{}
		}
	}

	workflow.Connections = connections.Derive(workflow.Nodes)

	if err := g.validate.Struct(workflow); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}

	return &workflow, nil
}
