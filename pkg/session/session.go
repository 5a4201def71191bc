// Package session binds user intents to a workflow document. It routes each
// intent to the document or a gateway, keeps the action controls in step with
// requests in flight and reports outcomes through a Notifier.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/dukex/composer/pkg/client"
	"github.com/dukex/composer/pkg/document"
	"github.com/dukex/composer/pkg/models"
	"github.com/dukex/composer/pkg/nodes"
	"github.com/dukex/composer/pkg/preview"
)

// Notifier shows messages to the user.
type Notifier interface {
	Info(message string)
	Error(message string)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Renderer draws a view. It is called with the session lock held and must not
// call back into the session.
type Renderer interface {
	Render(view View)
}

// Saver stores workflows on the backend. An empty remoteID creates the
// workflow and returns its new identifier; otherwise the workflow stored under
// remoteID is updated. client.Persistence implements it.
type Saver interface {
	Submit(ctx context.Context, remoteID string, workflow models.Workflow) (string, error)
}

// Drafter produces a workflow from a description.
type Drafter interface {
	Generate(ctx context.Context, description string) (*models.Workflow, error)
}

var (
	_ Saver   = (*client.Persistence)(nil)
	_ Drafter = (*client.Generation)(nil)
)

// Session owns one document and serializes every intent on it.
type Session struct {
	mu         sync.Mutex
	doc        *document.Document
	saver      Saver
	drafter    Drafter
	notifier   Notifier
	confirmer  Confirmer
	renderer   Renderer
	format     preview.Format
	logger     *slog.Logger
	saving     bool
	generating bool
}

// Option configures a Session.
type Option func(*Session)

// WithNotifier sets where messages go. The default drops them.
func WithNotifier(n Notifier) Option {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithConfirmer sets who answers delete confirmations. Without one every
// deletion is declined.
func WithConfirmer(c Confirmer) Option {
	return func(s *Session) {
		s.confirmer = c
	}
}

// WithRenderer sets the view that is redrawn after every change.
func WithRenderer(r Renderer) Option {
	return func(s *Session) {
		s.renderer = r
	}
}

// WithPreviewFormat sets the encoding of View.Preview.
func WithPreviewFormat(format preview.Format) Option {
	return func(s *Session) {
		s.format = format
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New returns a session editing doc. saver and drafter may be nil when the
// corresponding intent is not offered.
func New(doc *document.Document, saver Saver, drafter Drafter, opts ...Option) *Session {
	s := &Session{
		doc:      doc,
		saver:    saver,
		drafter:  drafter,
		notifier: discard{},
		format:   preview.FormatJSON,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// View returns the current view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.view()
}

// Refresh redraws the view.
func (s *Session) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.render()
}

// Preview renders the document in format.
func (s *Session) Preview(format preview.Format) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return preview.Render(s.doc, format)
}

// AddNode appends a node of nodeType with its defaults.
func (s *Session) AddNode(nodeType string) models.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.doc.Add(nodeType)
	s.logger.Debug("Node added", "node_id", node.ID, "type", node.Type)
	s.render()

	return node
}

// SelectNode focuses the node at index. Out-of-range indices are ignored.
func (s *Session) SelectNode(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.doc.Select(index) {
		return false
	}

	s.render()

	return true
}

// EditNode opens the edit form of the node at index and announces it.
func (s *Session) EditNode(index int) (nodes.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	form, err := s.doc.Edit(index)
	if err != nil {
		s.notifier.Error(err.Error())

		return nodes.Form{}, err
	}

	s.notifier.Info(form.Title())

	return form, nil
}

// UpdateNode applies an edit form submission.
func (s *Session) UpdateNode(index int, name string, parameters map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateNode(index, name, parameters)
}

// RenameNode changes the display name of the node at index.
func (s *Session) RenameNode(index int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.doc.RenameNode(index, name); err != nil {
		s.notifier.Error(err.Error())

		return err
	}

	s.render()

	return nil
}

// SetParameter sets one parameter of the node at index.
func (s *Session) SetParameter(index int, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.doc.Node(index)
	if err != nil {
		s.notifier.Error(err.Error())

		return err
	}

	parameters := maps.Clone(node.Parameters)
	if parameters == nil {
		parameters = map[string]any{}
	}

	parameters[key] = value

	return s.updateNode(index, node.Name, parameters)
}

// DeleteNode asks for confirmation and removes the node at index. It returns
// false with a nil error when the user declines.
func (s *Session) DeleteNode(index int) (bool, error) {
	s.mu.Lock()
	node, err := s.doc.Node(index)
	s.mu.Unlock()

	if err != nil {
		s.notifier.Error(err.Error())

		return false, err
	}

	prompt := fmt.Sprintf("Are you sure you want to delete the node \"%s\"?", node.Name)
	if s.confirmer == nil || !s.confirmer.Confirm(prompt) {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The list may have changed while the user was answering.
	current, err := s.doc.Node(index)
	if err != nil || current.ID != node.ID {
		err = fmt.Errorf("node %s moved before it could be deleted: %w", node.ID, document.ErrIndexOutOfRange)
		s.notifier.Error(err.Error())

		return false, err
	}

	if _, err := s.doc.Remove(index); err != nil {
		s.notifier.Error(err.Error())

		return false, err
	}

	s.logger.Debug("Node deleted", "node_id", node.ID)
	s.render()

	return true, nil
}

// Rename sets the workflow name.
func (s *Session) Rename(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Rename(name)
	s.render()
}

// Save creates the workflow on first use and updates it afterwards. A second
// save while one is in flight fails with ErrRequestInFlight.
func (s *Session) Save(ctx context.Context) (string, error) {
	s.mu.Lock()

	if s.saving {
		s.mu.Unlock()
		s.notifier.Error("A save is already in progress")

		return "", ErrRequestInFlight
	}

	if s.saver == nil {
		s.mu.Unlock()
		s.notifier.Error("Error saving workflow: " + ErrNoBackend.Error())

		return "", ErrNoBackend
	}

	s.saving = true
	workflow := preview.ToTransmissible(s.doc)
	remoteID, bound := s.doc.RemoteID()
	s.render()
	s.mu.Unlock()

	id, err := s.saver.Submit(ctx, remoteID, workflow)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.saving = false

	if err == nil && !bound {
		err = s.doc.BindRemoteID(id)
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save workflow", "error", err)
		s.notifier.Error("Error saving workflow: " + err.Error())
		s.render()

		return "", err
	}

	if bound {
		s.notifier.Info("Workflow updated successfully")
	} else {
		s.notifier.Info("Workflow saved with ID: " + id)
	}

	s.logger.InfoContext(ctx, "Workflow saved", "workflow_id", id, "created", !bound)
	s.render()

	return id, nil
}

// Generate replaces the document with a draft generated from description. The
// generate control reads "Generating..." and is disabled until it finishes.
func (s *Session) Generate(ctx context.Context, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		s.notifier.Error("Please enter a workflow description")

		return client.ErrEmptyDescription
	}

	s.mu.Lock()

	if s.generating {
		s.mu.Unlock()
		s.notifier.Error("A generation is already in progress")

		return ErrRequestInFlight
	}

	if s.drafter == nil {
		s.mu.Unlock()
		s.notifier.Error("Error generating workflow: " + ErrNoGenerator.Error())

		return ErrNoGenerator
	}

	s.generating = true
	s.render()
	s.mu.Unlock()

	workflow, err := s.drafter.Generate(ctx, description)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generating = false

	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to generate workflow", "error", err)
		s.notifier.Error("Error generating workflow: " + err.Error())
		s.render()

		return err
	}

	s.doc.Replace(workflow.Name, workflow.Nodes)
	s.logger.InfoContext(ctx, "Workflow generated", "name", workflow.Name, "nodes", len(workflow.Nodes))
	s.render()

	return nil
}

func (s *Session) updateNode(index int, name string, parameters map[string]any) error {
	if err := s.doc.UpdateNode(index, name, parameters); err != nil {
		s.notifier.Error(err.Error())

		return err
	}

	s.render()

	return nil
}

func (s *Session) view() View {
	selected, ok := s.doc.Selected()
	if !ok {
		selected = document.NoSelection
	}

	remoteID, _ := s.doc.RemoteID()

	v := View{
		Name:     s.doc.Name(),
		Nodes:    nodeItems(s.doc.Nodes(), selected),
		Selected: selected,
		RemoteID: remoteID,
		Save:     ControlState{Label: SaveLabel, Disabled: s.saving},
		Generate: ControlState{Label: GenerateLabel, Disabled: s.generating},
	}

	if s.saving {
		v.Save.Label = SavingLabel
	}

	if s.generating {
		v.Generate.Label = GeneratingLabel
	}

	rendered, err := preview.Render(s.doc, s.format)
	if err != nil {
		s.logger.Warn("Failed to render preview", "error", err)
	} else {
		v.Preview = string(rendered)
	}

	return v
}

func (s *Session) render() {
	if s.renderer == nil {
		return
	}

	s.renderer.Render(s.view())
}

type discard struct{}

func (discard) Info(string)  {}
func (discard) Error(string) {}
