package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dukex/composer/pkg/document"
	"github.com/dukex/composer/pkg/models"
	"github.com/dukex/composer/pkg/otelhelper"
	"github.com/dukex/composer/pkg/preview"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const workflowsPath = "/api/workflows/"

// Persistence saves documents to the backend. The first save of a document
// creates it and binds the returned identifier; later saves update it.
type Persistence struct {
	client *Client
}

// NewPersistence returns a persistence gateway that uses c.
func NewPersistence(c *Client) *Persistence {
	return &Persistence{client: c}
}

// Save submits the transmissible form of doc and returns its remote
// identifier. On failure the document's remote identifier is unchanged.
func (p *Persistence) Save(ctx context.Context, doc *document.Document) (string, error) {
	remoteID, bound := doc.RemoteID()

	id, err := p.Submit(ctx, remoteID, preview.ToTransmissible(doc))
	if err != nil {
		return "", err
	}

	if !bound {
		if err := doc.BindRemoteID(id); err != nil {
			return "", fmt.Errorf("failed to bind workflow identifier: %w", err)
		}
	}

	return id, nil
}

// Submit creates workflow when remoteID is empty and updates it otherwise.
// It returns the identifier the workflow is stored under. Callers that hold
// a document bind a newly created identifier with Document.BindRemoteID.
func (p *Persistence) Submit(ctx context.Context, remoteID string, workflow models.Workflow) (string, error) {
	if remoteID == "" {
		return p.Create(ctx, workflow)
	}

	if err := p.Update(ctx, remoteID, workflow); err != nil {
		return "", err
	}

	return remoteID, nil
}

// Create posts a new workflow and returns the identifier the backend assigned.
func (p *Persistence) Create(ctx context.Context, workflow models.Workflow) (string, error) {
	var body map[string]json.RawMessage

	if err := p.client.do(ctx, "create", http.MethodPost, workflowsPath, workflow, &body); err != nil {
		return "", err
	}

	id, err := extractIdentifier(body)
	if err != nil {
		return "", err
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.String(otelhelper.WorkflowIDKey, id))
	p.client.logger.InfoContext(ctx, "Workflow created", "workflow_id", id)

	return id, nil
}

// Update replaces the workflow stored under id. The response body is ignored.
func (p *Persistence) Update(ctx context.Context, id string, workflow models.Workflow) error {
	if id == "" {
		return document.ErrEmptyRemoteID
	}

	if err := p.client.do(ctx, "update", http.MethodPut, workflowsPath+url.PathEscape(id), workflow, nil); err != nil {
		return err
	}

	p.client.logger.InfoContext(ctx, "Workflow updated", "workflow_id", id)

	return nil
}

// extractIdentifier reads the assigned id from a create response. A string
// "id" field wins; otherwise the response must hold exactly one key.
func extractIdentifier(body map[string]json.RawMessage) (string, error) {
	if raw, ok := body["id"]; ok {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil || id == "" {
			return "", ErrMissingIdentifier
		}

		return id, nil
	}

	if len(body) != 1 {
		return "", ErrMissingIdentifier
	}

	for key := range body {
		if key == "" {
			return "", ErrMissingIdentifier
		}

		return key, nil
	}

	return "", ErrMissingIdentifier
}
