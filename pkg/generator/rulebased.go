package generator

import (
	"context"
	"regexp"
	"strings"

	"github.com/dukex/composer/pkg/connections"
	"github.com/dukex/composer/pkg/models"
	"github.com/dukex/composer/pkg/nodes"
)

// DefaultGeneratedName names drafts whose description does not name them.
const DefaultGeneratedName = "Generated Workflow"

const processCode = "// Transform the data\nreturn items.map(item => {\n  return item;\n});"

var calledPattern = regexp.MustCompile(`(?i)called\s+["']?([^"']+)["']?`)

var (
	hourlyKeywords  = []string{"every hour", "hourly"}
	webhookKeywords = []string{"webhook", "api call"}
	fetchKeywords   = []string{"fetch", "get data", "api", "request"}
	processKeywords = []string{"process", "transform", "filter", "map"}
)

// RuleBased drafts workflows from keywords without calling any model. It
// always produces a trigger node, optionally followed by a fetch and a
// processing step.
type RuleBased struct {
	ids nodes.IDGenerator
}

// NewRuleBased returns a keyword generator that takes node identifiers from ids.
func NewRuleBased(ids nodes.IDGenerator) *RuleBased {
	if ids == nil {
		ids = nodes.ULIDGenerator{}
	}

	return &RuleBased{ids: ids}
}

func (*RuleBased) Name() string {
	return "rule-based"
}

func (g *RuleBased) Generate(_ context.Context, description string) (*models.Workflow, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}

	text := strings.ToLower(description)

	nodeList := []models.Node{g.trigger(text)}

	if containsAny(text, fetchKeywords) {
		nodeList = append(nodeList, models.Node{
			ID:   g.ids.NewID(),
			Type: models.NodeTypeHTTP,
			Name: "HTTP Request",
			Parameters: map[string]any{
				"url":    "https://api.example.com/data",
				"method": "GET",
			},
		})
	}

	if containsAny(text, processKeywords) {
		nodeList = append(nodeList, models.Node{
			ID:         g.ids.NewID(),
			Type:       models.NodeTypeFunction,
			Name:       "Process Data",
			Parameters: map[string]any{"code": processCode},
		})
	}

	return &models.Workflow{
		Name:        workflowName(description),
		Nodes:       nodeList,
		Connections: connections.Derive(nodeList),
	}, nil
}

func (g *RuleBased) trigger(text string) models.Node {
	node := models.Node{ID: g.ids.NewID(), Type: models.NodeTypeSchedule}

	switch {
	case containsAny(text, hourlyKeywords):
		node.Name = "Schedule Trigger"
		node.Parameters = map[string]any{"frequency": "hourly"}
	case containsAny(text, webhookKeywords):
		node.Type = models.NodeTypeWebhook
		node.Name = "Webhook Trigger"
		node.Parameters = map[string]any{"path": "/webhook", "method": "POST"}
	default:
		node.Name = "Manual Trigger"
		node.Parameters = map[string]any{"frequency": nodes.FrequencyManual}
	}

	return node
}

// workflowName reads the name from `create a workflow called "<name>"`,
// keeping the casing the user typed.
func workflowName(description string) string {
	lower := strings.ToLower(description)
	if !strings.Contains(lower, "create a workflow") || !strings.Contains(lower, "called") {
		return DefaultGeneratedName
	}

	match := calledPattern.FindStringSubmatch(description)
	if match == nil {
		return DefaultGeneratedName
	}

	name := strings.TrimSpace(match[1])
	if name == "" {
		return DefaultGeneratedName
	}

	return name
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}

	return false
}
