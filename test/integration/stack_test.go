//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	httpadapter "github.com/jsamuelsen/verse-service/internal/adapters/http"
	"github.com/jsamuelsen/verse-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/verse-service/internal/adapters/render"
	"github.com/jsamuelsen/verse-service/internal/bootstrap"
	"github.com/jsamuelsen/verse-service/internal/platform/config"
	"github.com/jsamuelsen/verse-service/internal/platform/metrics"
)

const configDir = "testdata"

var fixture = config.SourceConfig{Path: "testdata/content.json"}

// stack is a complete service listening on a loopback port.
type stack struct {
	components *bootstrap.Components
	addr       string
	cancel     context.CancelFunc
	done       chan error
}

// startStack wires the service the way cmd/service does, over the given
// dataset source and an in-memory store.
func startStack(ctx context.Context, source config.SourceConfig) (*stack, error) {
	cfg, err := config.LoadFrom(configDir, "")
	if err != nil {
		return nil, err
	}

	cfg.Content.Source = source

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	collector := metrics.NewCollector("integration")
	snapshot := render.NewSnapshot()

	components, err := bootstrap.Build(ctx, bootstrap.Options{
		Config:   cfg,
		Logger:   logger,
		Metrics:  collector,
		Renderer: snapshot,
	})
	if err != nil {
		return nil, err
	}

	if err := components.Orchestrator.Start(ctx); err != nil {
		return nil, errors.Join(err, components.Close())
	}

	server := httpadapter.New(&cfg.Server, logger)
	httpadapter.SetupRouter(server.Engine(), httpadapter.NewDefaultRouterConfig(
		logger,
		&cfg.App,
		handlers.NewHealthHandler(components.Health, handlers.NewBuildInfo("test", "none", "now"), collector.Handler()),
		handlers.NewContentHandler(components.Orchestrator, snapshot),
	))

	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.Join(fmt.Errorf("listening: %w", err), components.Close())
	}

	serveCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &stack{
		components: components,
		addr:       ln.Addr().String(),
		cancel:     cancel,
		done:       make(chan error, 1),
	}

	go func() { s.done <- server.Serve(serveCtx, ln) }()

	return s, nil
}

// URL is the base URL of the running service.
func (s *stack) URL() string {
	return "http://" + s.addr
}

// Close stops the server and releases the content stack.
func (s *stack) Close() error {
	s.cancel()

	return errors.Join(<-s.done, s.components.Close())
}
