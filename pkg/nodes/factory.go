// Package nodes creates workflow node records with type-specific defaults and
// validates node parameters against each type's schema.
package nodes

import (
	"sort"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/dukex/composer/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// Factory builds fully populated node records. Any type string is accepted;
// unregistered types get a generic label and empty parameters.
type Factory struct {
	mu    sync.RWMutex
	ids   IDGenerator
	types map[string]Type
}

// Option configures a Factory.
type Option func(*Factory)

// WithIDGenerator replaces the default ULID-based identifier source.
func WithIDGenerator(ids IDGenerator) Option {
	return func(f *Factory) {
		f.ids = ids
	}
}

// NewFactory returns a factory with the built-in node types registered.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		ids:   ULIDGenerator{},
		types: make(map[string]Type),
	}

	for _, opt := range opts {
		opt(f)
	}

	for _, t := range BuiltinTypes() {
		f.Register(t)
	}

	return f
}

// Register adds or replaces a node type.
func (f *Factory) Register(t Type) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.types[t.ID] = t
}

// Lookup returns the registered definition for a node type.
func (f *Factory) Lookup(nodeType string) (Type, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	t, ok := f.types[nodeType]

	return t, ok
}

// Types returns every registered node type ordered by ID.
func (f *Factory) Types() []Type {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]Type, 0, len(f.types))
	for _, t := range f.types {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool {
		return types[i].ID < types[j].ID
	})

	return types
}

// NewID returns a fresh node identifier.
func (f *Factory) NewID() string {
	return f.ids.NewID()
}

// Create returns a new node of the given type with a fresh identifier.
func (f *Factory) Create(nodeType string) models.Node {
	node := models.Node{
		ID:         f.NewID(),
		Type:       nodeType,
		Name:       DefaultName(nodeType),
		Parameters: map[string]any{},
	}

	if t, ok := f.Lookup(nodeType); ok {
		node.Name = t.Name
		if t.Defaults != nil {
			node.Parameters = t.Defaults()
		}
	}

	return node
}

// DefaultName is the label given to nodes of unregistered types: the type
// string with its first letter upper-cased.
func DefaultName(nodeType string) string {
	r, size := utf8.DecodeRuneInString(nodeType)
	if r == utf8.RuneError {
		return nodeType
	}

	return string(unicode.ToUpper(r)) + nodeType[size:]
}

// Validate checks parameters against the schema of nodeType. Unregistered
// types accept any parameters.
func (f *Factory) Validate(nodeType string, parameters map[string]any) error {
	t, ok := f.Lookup(nodeType)
	if !ok {
		return nil
	}

	if parameters == nil {
		parameters = map[string]any{}
	}

	if t.Schema != nil {
		result, err := gojsonschema.Validate(
			gojsonschema.NewGoLoader(t.Schema),
			gojsonschema.NewGoLoader(parameters),
		)
		if err != nil {
			return &ParameterError{Type: nodeType, Details: []string{err.Error()}}
		}

		if !result.Valid() {
			details := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				details = append(details, desc.String())
			}

			return &ParameterError{Type: nodeType, Details: details}
		}
	}

	if t.Check != nil {
		return t.Check(parameters)
	}

	return nil
}

// Form describes a node for editing: its current values and the schema that
// edits must satisfy. Schema is nil for unregistered types.
type Form struct {
	NodeID      string
	Type        string
	Name        string
	Description string
	Parameters  map[string]any
	Schema      map[string]any
}

// Form builds the edit form for node.
func (f *Factory) Form(node models.Node) Form {
	form := Form{
		NodeID:     node.ID,
		Type:       node.Type,
		Name:       node.Name,
		Parameters: node.Clone().Parameters,
	}

	if t, ok := f.Lookup(node.Type); ok {
		form.Description = t.Description
		form.Schema = t.Schema
	}

	return form
}

// Title is the one-line summary shown when a node is opened for editing.
func (fm Form) Title() string {
	return "Editing node: " + fm.Name
}
