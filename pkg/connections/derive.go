// Package connections derives the edges of a linear workflow from node order.
package connections

import "github.com/dukex/composer/pkg/models"

// Derive chains every node to its immediate successor. Fewer than two nodes
// yield an empty, non-nil slice.
func Derive(nodes []models.Node) []models.Connection {
	if len(nodes) < 2 {
		return []models.Connection{}
	}

	edges := make([]models.Connection, 0, len(nodes)-1)
	for i := range len(nodes) - 1 {
		edges = append(edges, models.Connection{
			Source: nodes[i].ID,
			Target: nodes[i+1].ID,
		})
	}

	return edges
}

// Linear reports whether edges form exactly the chain Derive would produce for nodes.
func Linear(nodes []models.Node, edges []models.Connection) bool {
	expected := Derive(nodes)
	if len(expected) != len(edges) {
		return false
	}

	for i := range expected {
		if expected[i] != edges[i] {
			return false
		}
	}

	return true
}
