// Package models defines the workflow document records exchanged between the editor and the backend.
package models

// Built-in node types.
const (
	NodeTypeHTTP     = "http"
	NodeTypeFunction = "function"
	NodeTypeWebhook  = "webhook"
	NodeTypeSchedule = "schedule"
)

// Node is one step of a workflow. ID is assigned once at creation and never changes.
type Node struct {
	ID         string         `json:"id"         yaml:"id"         validate:"required"`
	Type       string         `json:"type"       yaml:"type"       validate:"required"`
	Name       string         `json:"name"       yaml:"name"       validate:"required"`
	Parameters map[string]any `json:"parameters" yaml:"parameters"`
}

// Connection is a directed edge between two node identifiers. Connections are
// always derived from node order and never stored on the client.
type Connection struct {
	Source string `json:"source" yaml:"source" validate:"required"`
	Target string `json:"target" yaml:"target" validate:"required"`
}

// Clone returns a copy of the node whose parameter map can be mutated without
// affecting the original.
func (n Node) Clone() Node {
	n.Parameters = cloneMap(n.Parameters)

	return n
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}

	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = s
		}

		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}

		return out
	default:
		return v
	}
}
