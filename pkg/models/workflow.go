package models

import "time"

// DefaultWorkflowName is used whenever a workflow is serialized without a name.
const DefaultWorkflowName = "My Workflow"

// Workflow is the transmissible form of a workflow document: the body of the
// create and update requests and the result of a generation.
type Workflow struct {
	Name        string       `json:"name"        yaml:"name"        validate:"required"`
	Nodes       []Node       `json:"nodes"       yaml:"nodes"       validate:"dive"`
	Connections []Connection `json:"connections" yaml:"connections" validate:"dive"`
}

// StoredWorkflow is a workflow as kept by the backend store.
type StoredWorkflow struct {
	ID string `json:"id"`
	Workflow

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenerateRequest is the body of a generation request.
type GenerateRequest struct {
	Description string `json:"description"`
}
