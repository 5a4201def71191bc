// Package preview renders a workflow document into the canonical form that is
// both displayed to the user and submitted to the backend.
package preview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukex/composer/pkg/connections"
	"github.com/dukex/composer/pkg/models"
	"gopkg.in/yaml.v3"
)

// Format selects the text encoding of a rendered preview.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml"; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported preview format %q", s)
	}
}

// Source is anything that exposes a workflow name and its ordered nodes.
type Source interface {
	Name() string
	Nodes() []models.Node
}

// ToTransmissible builds the request body for src: the name with the
// placeholder applied, the nodes as they are and the derived connections.
// It has no side effects.
func ToTransmissible(src Source) models.Workflow {
	name := src.Name()
	if name == "" {
		name = models.DefaultWorkflowName
	}

	source := src.Nodes()
	nodeList := make([]models.Node, len(source))

	for i, node := range source {
		if node.Parameters == nil {
			node.Parameters = map[string]any{}
		}

		nodeList[i] = node
	}

	return models.Workflow{
		Name:        name,
		Nodes:       nodeList,
		Connections: connections.Derive(nodeList),
	}
}

// Render encodes the transmissible form of src. Map keys are emitted in sorted
// order, so rendering an unchanged document always yields the same bytes.
func Render(src Source, format Format) ([]byte, error) {
	return Encode(ToTransmissible(src), format)
}

// Encode renders an already built workflow.
func Encode(workflow models.Workflow, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer

		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)

		if err := enc.Encode(workflow); err != nil {
			return nil, fmt.Errorf("failed to encode workflow as yaml: %w", err)
		}

		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode workflow as yaml: %w", err)
		}

		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(workflow, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode workflow as json: %w", err)
		}

		return data, nil
	default:
		return nil, fmt.Errorf("unsupported preview format %q", format)
	}
}
