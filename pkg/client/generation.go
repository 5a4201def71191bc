package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dukex/composer/pkg/document"
	"github.com/dukex/composer/pkg/models"
)

const generatePath = "/api/generate-workflow/"

// Generation asks the backend to draft a workflow from a natural-language
// description.
type Generation struct {
	client *Client
}

// NewGeneration returns a generation gateway that uses c.
func NewGeneration(c *Client) *Generation {
	return &Generation{client: c}
}

// Generate requests a draft for description. A blank description fails with
// ErrEmptyDescription without contacting the backend.
func (g *Generation) Generate(ctx context.Context, description string) (*models.Workflow, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}

	var workflow models.Workflow

	err := g.client.do(ctx, "generate", http.MethodPost, generatePath,
		models.GenerateRequest{Description: description}, &workflow)
	if err != nil {
		return nil, err
	}

	if err := checkGenerated(&workflow); err != nil {
		return nil, err
	}

	g.client.logger.InfoContext(ctx, "Workflow generated",
		"name", workflow.Name, "nodes", len(workflow.Nodes))

	return &workflow, nil
}

// GenerateInto replaces the name and nodes of doc with a generated draft. The
// document is only touched when generation succeeds.
func (g *Generation) GenerateInto(ctx context.Context, doc *document.Document, description string) error {
	workflow, err := g.Generate(ctx, description)
	if err != nil {
		return err
	}

	doc.Replace(workflow.Name, workflow.Nodes)

	return nil
}

func checkGenerated(workflow *models.Workflow) error {
	seen := make(map[string]struct{}, len(workflow.Nodes))

	for i, node := range workflow.Nodes {
		if node.ID == "" {
			return fmt.Errorf("%w: node %d has no id", ErrInvalidGeneratedWorkflow, i)
		}

		if _, dup := seen[node.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidGeneratedWorkflow, node.ID)
		}

		seen[node.ID] = struct{}{}

		if node.Parameters == nil {
			workflow.Nodes[i].Parameters = map[string]any{}
		}
	}

	return nil
}
