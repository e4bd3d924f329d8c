// Package bootstrap assembles the content stack from configuration. Both the
// service and the CLI build their orchestrator here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jsamuelsen/verse-service/internal/adapters/clients"
	"github.com/jsamuelsen/verse-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/verse-service/internal/adapters/codec"
	"github.com/jsamuelsen/verse-service/internal/adapters/filesource"
	"github.com/jsamuelsen/verse-service/internal/adapters/storage"
	"github.com/jsamuelsen/verse-service/internal/adapters/storage/memory"
	"github.com/jsamuelsen/verse-service/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen/verse-service/internal/app"
	"github.com/jsamuelsen/verse-service/internal/domain"
	"github.com/jsamuelsen/verse-service/internal/platform/config"
	"github.com/jsamuelsen/verse-service/internal/platform/metrics"
	"github.com/jsamuelsen/verse-service/internal/ports"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Options are the collaborators that differ between entry points.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Collector
	Renderer ports.Renderer
}

// Components is the assembled content stack. Call Close when done.
type Components struct {
	Repository   *app.ContentRepository
	Orchestrator *app.Orchestrator
	Health       *ports.HealthRegistry

	closers []func() error
}

// Build wires source, store, repository and orchestrator. Nothing is loaded
// yet; call Orchestrator.Start.
func Build(ctx context.Context, opts Options) (*Components, error) {
	cfg := opts.Config

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Components{Health: ports.NewHealthRegistry()}

	source, err := NewSource(&cfg.Content.Source, &cfg.Client, logger)
	if err != nil {
		return nil, err
	}

	kv, err := c.openKV(ctx, &cfg.Content.Store)
	if err != nil {
		return nil, err
	}

	store := storage.New(storage.Instrument(kv, opts.Metrics), codec.NewJSON())

	c.Repository = app.NewContentRepository(app.RepositoryConfig{
		Source:  source,
		Store:   store,
		Codec:   codec.NewJSON(),
		Logger:  logger,
		Metrics: opts.Metrics,
	})

	if err := c.Health.Register(c.Repository); err != nil {
		return nil, errors.Join(err, c.Close())
	}

	theme, err := domain.ParseTheme(cfg.Content.Theme)
	if err != nil {
		theme = domain.ThemeLight
	}

	c.Orchestrator = app.NewOrchestrator(app.OrchestratorConfig{
		Repository:   c.Repository,
		Preferences:  store,
		Renderer:     opts.Renderer,
		Logger:       logger,
		Metrics:      opts.Metrics,
		Debounce:     cfg.Content.Debounce,
		DefaultTheme: theme,
	})

	c.closers = append(c.closers, func() error {
		c.Orchestrator.Close()
		return nil
	})

	logger.Debug("content stack assembled",
		slog.String("source", source.Describe()),
		slog.String("store", cfg.Content.Store.Driver),
	)

	return c, nil
}

func (c *Components) openKV(ctx context.Context, cfg *config.StoreConfig) (storage.KV, error) {
	switch cfg.Driver {
	case DriverMemory:
		return memory.New(), nil
	case DriverSQLite, "":
		kv, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}

		if err := c.Health.Register(kv); err != nil {
			return nil, errors.Join(err, kv.Close())
		}

		c.closers = append(c.closers, kv.Close)

		return kv, nil
	default:
		return nil, domain.NewValidationErrorWithValue("content.store.driver", "must be one of: sqlite memory", cfg.Driver)
	}
}

// Close releases the store and stops pending timers, newest first.
func (c *Components) Close() error {
	var errs []error

	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}

	c.closers = nil

	return errors.Join(errs...)
}

// NewSource picks the dataset source: the URL when set, the file otherwise.
func NewSource(src *config.SourceConfig, client *config.ClientConfig, logger *slog.Logger) (ports.DatasetSource, error) {
	if !src.Remote() {
		return filesource.New(src.Path, CodecForPath(src.Path)), nil
	}

	base, path, err := acl.SplitURL(src.URL)
	if err != nil {
		return nil, err
	}

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     base,
		ServiceName: acl.ServiceName,
		Timeout:     client.Timeout,
		Retry:       client.Retry,
		Circuit:     client.CircuitBreaker,
		Transport:   client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating content client: %w", err)
	}

	return acl.NewRemoteSource(acl.RemoteSourceConfig{
		Client: httpClient,
		Path:   path,
		Codec:  CodecForPath(path),
		Logger: logger,
	}), nil
}

// CodecForPath picks YAML for .yaml and .yml files and JSON otherwise.
func CodecForPath(path string) ports.DatasetCodec {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	format, err := codec.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return codec.NewJSON()
	}

	return codec.ForFormat(format)
}
