// Package document holds the in-memory workflow being edited: an ordered node
// list, the selected node and the identifier the backend assigned to it.
package document

import (
	"fmt"

	"github.com/dukex/composer/pkg/models"
	"github.com/dukex/composer/pkg/nodes"
)

// NoSelection is the selected index of a document with no node selected.
const NoSelection = -1

// Document is the single source of truth for a workflow being edited. It is not
// safe for concurrent use; the owning session serializes access.
type Document struct {
	factory  *nodes.Factory
	name     string
	nodes    []models.Node
	selected int
	remoteID string
}

// New returns an empty document whose nodes are built by factory.
func New(factory *nodes.Factory) *Document {
	return &Document{
		factory:  factory,
		nodes:    make([]models.Node, 0),
		selected: NoSelection,
	}
}

// Name returns the raw workflow name. It may be empty; the placeholder is
// applied when the document is serialized.
func (d *Document) Name() string {
	return d.name
}

// Rename sets the workflow name.
func (d *Document) Rename(name string) {
	d.name = name
}

// Nodes returns a copy of the node list in execution order.
func (d *Document) Nodes() []models.Node {
	out := make([]models.Node, len(d.nodes))
	for i, node := range d.nodes {
		out[i] = node.Clone()
	}

	return out
}

// Len returns the number of nodes.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Node returns a copy of the node at index.
func (d *Document) Node(index int) (models.Node, error) {
	if !d.valid(index) {
		return models.Node{}, &IndexError{Op: "Node", Index: index, Len: len(d.nodes)}
	}

	return d.nodes[index].Clone(), nil
}

// Add creates a node of the given type and appends it.
func (d *Document) Add(nodeType string) models.Node {
	node := d.factory.Create(nodeType)
	d.nodes = append(d.nodes, node)

	return node.Clone()
}

// Select focuses the node at index. An out-of-range index leaves the selection
// unchanged and returns false.
func (d *Document) Select(index int) bool {
	if !d.valid(index) {
		return false
	}

	d.selected = index

	return true
}

// Selected returns the selected index and whether a node is selected.
func (d *Document) Selected() (int, bool) {
	return d.selected, d.selected != NoSelection
}

// Remove deletes the node at index and keeps the same node selected: removing
// the selected node clears the selection, removing an earlier node shifts it.
func (d *Document) Remove(index int) (models.Node, error) {
	if !d.valid(index) {
		return models.Node{}, &IndexError{Op: "Remove", Index: index, Len: len(d.nodes)}
	}

	removed := d.nodes[index]
	d.nodes = append(d.nodes[:index:index], d.nodes[index+1:]...)

	switch {
	case d.selected == index:
		d.selected = NoSelection
	case d.selected > index:
		d.selected--
	}

	return removed, nil
}

// Edit returns the edit form of the node at index without changing anything.
func (d *Document) Edit(index int) (nodes.Form, error) {
	if !d.valid(index) {
		return nodes.Form{}, &IndexError{Op: "Edit", Index: index, Len: len(d.nodes)}
	}

	return d.factory.Form(d.nodes[index]), nil
}

// RenameNode sets the display name of the node at index. Parameters are left
// as they are and are not validated.
func (d *Document) RenameNode(index int, name string) error {
	if !d.valid(index) {
		return &IndexError{Op: "RenameNode", Index: index, Len: len(d.nodes)}
	}

	d.nodes[index].Name = name

	return nil
}

// UpdateNode replaces the name and parameters of the node at index after
// validating the parameters against the node type. The identifier and type
// never change. On error the node is left untouched.
func (d *Document) UpdateNode(index int, name string, parameters map[string]any) error {
	if !d.valid(index) {
		return &IndexError{Op: "UpdateNode", Index: index, Len: len(d.nodes)}
	}

	node := d.nodes[index]

	if err := d.factory.Validate(node.Type, parameters); err != nil {
		return fmt.Errorf("node %s: %w", node.ID, err)
	}

	if parameters == nil {
		parameters = map[string]any{}
	}

	node.Name = name
	node.Parameters = models.Node{Parameters: parameters}.Clone().Parameters
	d.nodes[index] = node

	return nil
}

// Replace swaps the name and the whole node list, as when a generated draft
// replaces the current workflow. The selection is cleared because old indices
// mean nothing against the new nodes. The remote identifier is kept.
func (d *Document) Replace(name string, nodeList []models.Node) {
	replaced := make([]models.Node, len(nodeList))
	for i, node := range nodeList {
		replaced[i] = node.Clone()
	}

	d.name = name
	d.nodes = replaced
	d.selected = NoSelection
}

// RemoteID returns the backend identifier, if the document was saved before.
func (d *Document) RemoteID() (string, bool) {
	return d.remoteID, d.remoteID != ""
}

// BindRemoteID records the identifier assigned by the backend on first save.
// The binding is one-way: rebinding the same identifier is a no-op, binding a
// different one fails.
func (d *Document) BindRemoteID(id string) error {
	if id == "" {
		return ErrEmptyRemoteID
	}

	if d.remoteID != "" && d.remoteID != id {
		return fmt.Errorf("%w: bound to %q, got %q", ErrRemoteIDBound, d.remoteID, id)
	}

	d.remoteID = id

	return nil
}

func (d *Document) valid(index int) bool {
	return index >= 0 && index < len(d.nodes)
}
