// Package main provides the Composer API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/composer/pkg/eventbus"
	"github.com/dukex/composer/pkg/events"
	"github.com/dukex/composer/pkg/generator"
	"github.com/dukex/composer/pkg/persistence"
	"github.com/dukex/composer/pkg/services"
	"github.com/dukex/composer/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	generator   generator.Generator
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	generator generator.Generator,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		eventBus:    eventBus,
		generator:   generator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	opts := []services.Option{
		services.WithLogger(a.logger.With("module", "services")),
		services.WithGenerator(a.generator),
	}

	if a.eventBus != nil {
		opts = append(opts, services.WithPublisher(a.eventBus))
	}

	workflowService := services.NewWorkflow(a.persistence, opts...)
	handlers := web.NewAPIHandlers(workflowService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return a.persistence.HealthCheck(c.Context()) == nil
		},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Composer API")
	})

	handlers.Register(app)

	return app
}

// Audit writes one log line per workflow lifecycle event.
func (a *API) Audit(ctx context.Context) error {
	if a.eventBus == nil {
		return nil
	}

	audit := a.logger.With("module", "audit")

	handlers := map[events.EventType]eventbus.EventHandler{
		events.WorkflowCreatedEvent: func(ctx context.Context, event any) error {
			e := event.(*events.WorkflowCreated)
			audit.InfoContext(ctx, "Workflow event", "event_type", e.Type, "event_id", e.ID, "workflow_id", e.WorkflowID, "name", e.Name, "nodes", e.NodeCount)

			return nil
		},
		events.WorkflowUpdatedEvent: func(ctx context.Context, event any) error {
			e := event.(*events.WorkflowUpdated)
			audit.InfoContext(ctx, "Workflow event", "event_type", e.Type, "event_id", e.ID, "workflow_id", e.WorkflowID, "name", e.Name, "nodes", e.NodeCount)

			return nil
		},
		events.WorkflowDeletedEvent: func(ctx context.Context, event any) error {
			e := event.(*events.WorkflowDeleted)
			audit.InfoContext(ctx, "Workflow event", "event_type", e.Type, "event_id", e.ID, "workflow_id", e.WorkflowID)

			return nil
		},
		events.WorkflowGeneratedEvent: func(ctx context.Context, event any) error {
			e := event.(*events.WorkflowGenerated)
			audit.InfoContext(ctx, "Workflow event", "event_type", e.Type, "event_id", e.ID, "generator", e.Generator, "nodes", e.NodeCount)

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := a.eventBus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return a.eventBus.Subscribe(ctx)
}

// Start serves the API until ctx is cancelled.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	a.logger.InfoContext(ctx, "Composer API listening", "port", port)

	return app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	})
}
