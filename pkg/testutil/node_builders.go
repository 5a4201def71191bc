// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/composer/pkg/connections"
	"github.com/dukex/composer/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a test node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) models.Node {
	node := models.Node{
		ID:         "node_" + uuid.New().String(),
		Type:       models.NodeTypeFunction,
		Name:       "Test Node",
		Parameters: map[string]any{"code": "return items;"},
	}

	for _, override := range overrides {
		override(&node)
	}

	return node
}

// WithHTTPNode configures the node as a GET request.
func WithHTTPNode(url string) func(*models.Node) {
	return func(n *models.Node) {
		n.Type = models.NodeTypeHTTP
		n.Name = "HTTP Request"
		n.Parameters = map[string]any{"url": url, "method": "GET"}
	}
}

// WithScheduleNode configures the node as a schedule trigger.
func WithScheduleNode(frequency string) func(*models.Node) {
	return func(n *models.Node) {
		n.Type = models.NodeTypeSchedule
		n.Name = "Schedule"
		n.Parameters = map[string]any{"frequency": frequency}
	}
}

// WithNodeID sets a fixed node identifier.
func WithNodeID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// CreateTestWorkflow creates an hourly schedule followed by an HTTP request,
// with connections derived from node order.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) models.Workflow {
	workflow := models.Workflow{
		Name: "Test Workflow",
		Nodes: []models.Node{
			CreateTestNode(WithNodeID("node_1"), WithScheduleNode("hourly")),
			CreateTestNode(WithNodeID("node_2"), WithHTTPNode("https://example.com/api")),
		},
	}

	for _, override := range overrides {
		override(&workflow)
	}

	if workflow.Connections == nil {
		workflow.Connections = connections.Derive(workflow.Nodes)
	}

	return workflow
}

// WithName sets the workflow name.
func WithName(name string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Name = name
	}
}

// WithNodes replaces the nodes and re-derives the connections.
func WithNodes(nodes ...models.Node) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Nodes = nodes
		w.Connections = connections.Derive(nodes)
	}
}

// CreateStoredWorkflow wraps CreateTestWorkflow in a stored record with the given id.
func CreateStoredWorkflow(id string, overrides ...func(*models.Workflow)) *models.StoredWorkflow {
	return &models.StoredWorkflow{
		ID:       id,
		Workflow: CreateTestWorkflow(overrides...),
	}
}
