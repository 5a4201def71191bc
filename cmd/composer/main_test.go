package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []request
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)

	var body map[string]any
	_ = json.Unmarshal(data, &body)

	f.mu.Lock()
	f.requests = append(f.requests, request{Method: r.Method, Path: r.URL.Path, Body: body})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/workflows/":
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"42": body})
	case r.Method == http.MethodPut:
		_ = json.NewEncoder(w).Encode(body)
	case r.Method == http.MethodPost && r.URL.Path == "/api/generate-workflow/":
		_, _ = w.Write([]byte(`{
			"name": "Hourly Pull",
			"nodes": [
				{"id": "n1", "type": "schedule", "name": "Schedule Trigger", "parameters": {"frequency": "hourly"}},
				{"id": "n2", "type": "http", "name": "HTTP Request", "parameters": {"url": "https://api.example.com/data", "method": "GET"}}
			],
			"connections": [{"source": "n1", "target": "n2"}]
		}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeAPI) recorded() []request {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]request(nil), f.requests...)
}

func runComposer(t *testing.T, input string, args ...string) (string, *fakeAPI) {
	t.Helper()

	api := &fakeAPI{}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	var out bytes.Buffer

	argv := append([]string{"composer", "--api-url", server.URL}, args...)
	err := newCommand(strings.NewReader(input), &out).Run(context.Background(), argv)
	require.NoError(t, err)

	return out.String(), api
}

func TestShell_EditSaveAndDelete(t *testing.T) {
	t.Parallel()

	script := strings.Join([]string{
		"add http",
		"add function",
		`set 0 url "https://example.com/items"`,
		"rename 1 Transform",
		"name My Flow",
		"select 1",
		"edit 0",
		"save",
		"save",
		"delete 1",
		"y",
		"preview yaml",
		"bogus",
		"quit",
	}, "\n")

	out, api := runComposer(t, script)

	assert.Contains(t, out, "Editing node: HTTP Request")
	assert.Contains(t, out, "Workflow saved with ID: 42")
	assert.Contains(t, out, "Workflow updated successfully")
	assert.Contains(t, out, `Are you sure you want to delete the node "Transform"? [y/N]`)
	assert.Contains(t, out, "name: My Flow")
	assert.Contains(t, out, `error: unknown command "bogus", type help`)
	assert.Contains(t, out, "Workflow: My Flow (id 42)")

	requests := api.recorded()
	require.Len(t, requests, 2)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, "/api/workflows/", requests[0].Path)
	assert.Equal(t, "My Flow", requests[0].Body["name"])
	assert.Len(t, requests[0].Body["connections"], 1)
	assert.Equal(t, http.MethodPut, requests[1].Method)
	assert.Equal(t, "/api/workflows/42", requests[1].Path)
}

func TestShell_DeclinedDeleteKeepsNode(t *testing.T) {
	t.Parallel()

	out, _ := runComposer(t, "add webhook\ndelete 0\nn\npreview\nquit\n")

	assert.Contains(t, out, `Are you sure you want to delete the node "Webhook"?`)
	assert.Contains(t, out, `"type": "webhook"`)
}

func TestShell_Generate(t *testing.T) {
	t.Parallel()

	out, api := runComposer(t, "generate\ngenerate every hour pull data\nquit\n")

	assert.Contains(t, out, "error: Please enter a workflow description")
	assert.Contains(t, out, "Workflow: Hourly Pull")

	requests := api.recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, "every hour pull data", requests[0].Body["description"])
}

func TestShell_AddExtensionType(t *testing.T) {
	t.Parallel()

	out, api := runComposer(t, "add teleport\npreview\nquit\n")

	assert.Contains(t, out, `"teleport" is not a built-in type, adding it with empty parameters`)
	assert.Contains(t, out, `"type": "teleport"`)
	assert.Contains(t, out, `"name": "Teleport"`)
	assert.NotContains(t, out, "error:")
	assert.Empty(t, api.recorded())
}

func TestShell_InputErrors(t *testing.T) {
	t.Parallel()

	out, api := runComposer(t, "add\nselect x\nselect 3\nset 0\npreview toml\n")

	assert.Contains(t, out, "error: usage: add <type>")
	assert.Contains(t, out, `error: invalid node index "x"`)
	assert.Contains(t, out, "error: no node at index 3")
	assert.Contains(t, out, "error: usage: set <i> <key> <json>")
	assert.Contains(t, out, `error: unsupported preview format "toml"`)
	assert.Empty(t, api.recorded())
}

func TestGenerateCommand(t *testing.T) {
	t.Parallel()

	out, api := runComposer(t, "", "--format", "yaml", "generate", "--save", "every", "hour")

	assert.Contains(t, out, "Workflow saved with ID: 42")
	assert.Contains(t, out, "name: Hourly Pull")
	assert.Contains(t, out, "source: n1")

	requests := api.recorded()
	require.Len(t, requests, 2)
	assert.Equal(t, "every hour", requests[0].Body["description"])
	assert.Equal(t, "/api/workflows/", requests[1].Path)
}

func TestTypesCommand(t *testing.T) {
	t.Parallel()

	out, _ := runComposer(t, "", "types")

	for _, nodeType := range []string{"http", "function", "webhook", "schedule"} {
		assert.Contains(t, out, nodeType)
	}
}
