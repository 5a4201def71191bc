package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/composer/pkg/channels/gochannel"
	"github.com/dukex/composer/pkg/eventbus"
	"github.com/dukex/composer/pkg/generator"
	"github.com/dukex/composer/pkg/mocks"
	"github.com/dukex/composer/pkg/models"
	"github.com/dukex/composer/pkg/nodes"
	"github.com/dukex/composer/pkg/persistence/file"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	api := NewAPI(slog.Default(), file.NewPersistence(t.TempDir()), nil, generator.NewRuleBased(nodes.ULIDGenerator{}))

	return api.App()
}

func get(t *testing.T, app *fiber.App, target string) (int, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestAPI_RootEndpoint(t *testing.T) {
	t.Parallel()

	status, body := get(t, setupTestApp(t), "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Composer API", body)
}

func TestAPI_Probes(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	for _, target := range []string{"/livez", "/readyz"} {
		status, body := get(t, app, target)
		assert.Equal(t, http.StatusOK, status, target)
		assert.Equal(t, "OK", body, target)
	}
}

func TestAPI_ReadinessFollowsPersistence(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPersistence{}
	store.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))

	app := NewAPI(slog.Default(), store, nil, nil).App()

	status, _ := get(t, app, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = get(t, app, "/livez")
	assert.Equal(t, http.StatusOK, status)
}

func TestAPI_AuditLogsLifecycleEvents(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(out, nil))

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	defer func() { _ = bus.Close() }()

	api := NewAPI(logger, file.NewPersistence(t.TempDir()), bus, generator.NewRuleBased(nodes.ULIDGenerator{}))
	require.NoError(t, api.Audit(ctx))

	app := api.App()

	payload, err := json.Marshal(models.Workflow{
		Name:  "Audited",
		Nodes: []models.Node{{ID: "node_1", Type: "webhook", Name: "Webhook", Parameters: map[string]any{}}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/workflows/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/generate-workflow/?description=webhook", nil))
	require.NoError(t, err)

	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Eventually(t, func() bool {
		logs := out.String()

		return strings.Contains(logs, "event_type=workflow.created") &&
			strings.Contains(logs, "name=Audited") &&
			strings.Contains(logs, "event_type=workflow.generated") &&
			strings.Contains(logs, "generator=rule-based")
	}, 5*time.Second, 20*time.Millisecond)
}
