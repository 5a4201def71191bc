// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/dukex/composer/pkg/models"

// NodeRequest is one node of a workflow request body.
type NodeRequest struct {
	ID         string         `json:"id"         validate:"required"`
	Type       string         `json:"type"       validate:"required"`
	Name       string         `json:"name"       validate:"required"`
	Parameters map[string]any `json:"parameters"`
}

type ConnectionRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// WorkflowRequest represents the request body for creating or replacing a workflow.
type WorkflowRequest struct {
	Name        string              `json:"name"        validate:"required"`
	Nodes       []NodeRequest       `json:"nodes"       validate:"dive"`
	Connections []ConnectionRequest `json:"connections" validate:"dive"`
}

// GenerateWorkflowRequest is the optional JSON body of a generation request.
type GenerateWorkflowRequest struct {
	Description string `json:"description"`
}

// MessageResponse is returned by operations without a resource to show.
type MessageResponse struct {
	Message string `json:"message"`
}

// WorkflowsResponse maps workflow identifiers to workflows.
type WorkflowsResponse map[string]*models.StoredWorkflow

// ToModel converts the request into the transmissible workflow form.
func (r WorkflowRequest) ToModel() models.Workflow {
	workflow := models.Workflow{
		Name:        r.Name,
		Nodes:       make([]models.Node, len(r.Nodes)),
		Connections: make([]models.Connection, len(r.Connections)),
	}

	for i, node := range r.Nodes {
		workflow.Nodes[i] = models.Node{
			ID:         node.ID,
			Type:       node.Type,
			Name:       node.Name,
			Parameters: node.Parameters,
		}
	}

	for i, conn := range r.Connections {
		workflow.Connections[i] = models.Connection{Source: conn.Source, Target: conn.Target}
	}

	return workflow
}
