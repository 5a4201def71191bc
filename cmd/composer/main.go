// Command composer is a terminal editor for workflows stored by composer-api.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dukex/composer/pkg/client"
	"github.com/dukex/composer/pkg/document"
	"github.com/dukex/composer/pkg/log"
	"github.com/dukex/composer/pkg/nodes"
	"github.com/dukex/composer/pkg/otelhelper"
	"github.com/dukex/composer/pkg/preview"
	"github.com/dukex/composer/pkg/session"
	cli "github.com/urfave/cli/v3"
)

const defaultAPIURL = "http://localhost:8000"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(os.Stdin, os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:                  "composer",
		Usage:                 "Compose workflows from the terminal",
		EnableShellCompletion: true,
		Writer:                out,
		Reader:                in,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the composer API",
				Value:   defaultAPIURL,
				Sources: cli.EnvVars("COMPOSER_API_URL"),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout of each API request",
				Value:   client.DefaultTimeout,
				Sources: cli.EnvVars("COMPOSER_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "format",
				Usage:   "Preview format (json, yaml)",
				Value:   string(preview.FormatJSON),
				Sources: cli.EnvVars("COMPOSER_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("COMPOSER_TRACING"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Action: shellAction,
		Commands: []*cli.Command{
			{
				Name:   "shell",
				Usage:  "Edit a workflow interactively",
				Action: shellAction,
			},
			{
				Name:      "generate",
				Usage:     "Generate a workflow from a description and print it",
				ArgsUsage: "<description>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Store the generated workflow on the server",
					},
				},
				Action: generateAction,
			},
			{
				Name:  "types",
				Usage: "List the available node types",
				Action: func(_ context.Context, command *cli.Command) error {
					printTypes(command.Root().Writer, nodes.NewFactory())

					return nil
				},
			},
		},
	}
}

type backend struct {
	persistence *client.Persistence
	generation  *client.Generation
	format      preview.Format
	shutdown    otelhelper.ShutdownFunc
}

func newBackend(ctx context.Context, command *cli.Command) (*backend, error) {
	format, err := preview.ParseFormat(command.String("format"))
	if err != nil {
		return nil, err
	}

	b := &backend{format: format}

	if command.Bool("tracing") {
		_, shutdown, err := otelhelper.NewTracer(ctx, "composer")
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}

		b.shutdown = shutdown
	}

	c, err := client.New(command.String("api-url"),
		client.WithTimeout(command.Duration("timeout")),
		client.WithLogger(log.WithModule("client")),
	)
	if err != nil {
		return nil, err
	}

	b.persistence = client.NewPersistence(c)
	b.generation = client.NewGeneration(c)

	return b, nil
}

func (b *backend) close() {
	if b.shutdown != nil {
		_ = b.shutdown(context.Background())
	}
}

func shellAction(ctx context.Context, command *cli.Command) error {
	b, err := newBackend(ctx, command)
	if err != nil {
		return err
	}
	defer b.close()

	root := command.Root()
	term := newTerminal(root.Reader, root.Writer)
	factory := nodes.NewFactory()

	sess := session.New(document.New(factory), b.persistence, b.generation,
		session.WithNotifier(term),
		session.WithConfirmer(term),
		session.WithRenderer(term),
		session.WithPreviewFormat(b.format),
		session.WithLogger(log.WithModule("session")),
	)

	sh := &shell{session: sess, factory: factory, term: term}

	err = sh.run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func generateAction(ctx context.Context, command *cli.Command) error {
	description := strings.TrimSpace(strings.Join(command.Args().Slice(), " "))
	if description == "" {
		return errors.New("a workflow description is required")
	}

	b, err := newBackend(ctx, command)
	if err != nil {
		return err
	}
	defer b.close()

	out := command.Root().Writer
	doc := document.New(nodes.NewFactory())

	if err := b.generation.GenerateInto(ctx, doc, description); err != nil {
		return fmt.Errorf("error generating workflow: %w", err)
	}

	if command.Bool("save") {
		id, err := b.persistence.Save(ctx, doc)
		if err != nil {
			return fmt.Errorf("error saving workflow: %w", err)
		}

		fmt.Fprintln(out, "Workflow saved with ID: "+id)
	}

	data, err := preview.Render(doc, b.format)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, string(data))

	return nil
}
