package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/verse-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/verse-service/internal/adapters/codec"
	"github.com/jsamuelsen/verse-service/internal/adapters/filesource"
	"github.com/jsamuelsen/verse-service/internal/domain"
	"github.com/jsamuelsen/verse-service/internal/platform/config"
	"github.com/jsamuelsen/verse-service/internal/platform/metrics"
	"github.com/jsamuelsen/verse-service/internal/ports"
)

const document = `{
  "poems": [{"id": 1, "title": "Dawn", "content": "light", "category": "nature", "author": "A", "date": "2023-01-01"}],
  "quotes": [{"id": 2, "text": "Be kind", "category": "wisdom", "author": "B", "date": "2023-01-01"}]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "content.json")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	return &config.Config{
		Client: config.ClientConfig{
			Timeout:        time.Second,
			Retry:          config.RetryConfig{MaxAttempts: 1, InitialInterval: 10 * time.Millisecond, MaxInterval: 100 * time.Millisecond, Multiplier: 2},
			CircuitBreaker: config.CircuitBreakerConfig{MaxFailures: 5, Timeout: time.Second, HalfOpenLimit: 1},
			Transport:      config.TransportConfig{MaxIdleConns: 1, MaxIdleConnsPerHost: 1, IdleConnTimeout: time.Second},
		},
		Content: config.ContentConfig{
			Source:   config.SourceConfig{Path: path},
			Store:    config.StoreConfig{Driver: driver, Path: filepath.Join(dir, "store", "verse.db")},
			Debounce: 0,
			Theme:    "dark",
		},
	}
}

func TestBuild(t *testing.T) {
	for _, driver := range []string{DriverMemory, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()

			c, err := Build(ctx, Options{
				Config:  testConfig(t, driver),
				Logger:  discardLogger(),
				Metrics: metrics.NewCollector("bootstrap_test"),
			})
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, c.Close()) })

			assert.Equal(t, ports.HealthStatusUnhealthy, c.Health.CheckAll(ctx).Status, "not ready before start")

			require.NoError(t, c.Orchestrator.Start(ctx))

			view := c.Orchestrator.View()
			require.NotNil(t, view)
			assert.Len(t, view.Poems, 1)
			assert.Len(t, view.Quotes, 1)
			assert.Equal(t, domain.ThemeDark, view.Theme)
			assert.Equal(t, ports.HealthStatusHealthy, c.Health.CheckAll(ctx).Status)
		})
	}
}

func TestBuild_SQLitePersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, DriverSQLite)

	first, err := Build(ctx, Options{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)
	require.NoError(t, first.Orchestrator.Start(ctx))

	_, err = first.Orchestrator.Create(ctx, domain.VariantQuote, domain.Fields{Category: "wisdom", Text: "Stay"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Build(ctx, Options{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	require.NoError(t, second.Orchestrator.Start(ctx))

	assert.Len(t, second.Orchestrator.View().Quotes, 2)
}

func TestBuild_UnknownDriver(t *testing.T) {
	_, err := Build(context.Background(), Options{Config: testConfig(t, "redis"), Logger: discardLogger()})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestBuild_MissingDatasetFailsOnStart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, DriverMemory)
	cfg.Content.Source.Path = filepath.Join(t.TempDir(), "missing.json")

	c, err := Build(ctx, Options{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	err = c.Orchestrator.Start(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsLoad(err))
}

func TestNewSource(t *testing.T) {
	cfg := testConfig(t, DriverMemory)

	t.Run("file", func(t *testing.T) {
		src, err := NewSource(&cfg.Content.Source, &cfg.Client, discardLogger())
		require.NoError(t, err)
		assert.IsType(t, &filesource.Source{}, src)
	})

	t.Run("url takes precedence", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/data/content.json", r.URL.Path)
			_, _ = io.WriteString(w, document)
		}))
		t.Cleanup(server.Close)

		src := cfg.Content.Source
		src.URL = server.URL + "/data/content.json"

		source, err := NewSource(&src, &cfg.Client, discardLogger())
		require.NoError(t, err)
		require.IsType(t, &acl.RemoteSource{}, source)

		ds, err := source.FetchDataset(context.Background())
		require.NoError(t, err)
		assert.Len(t, ds.Poems, 1)
	})

	t.Run("bad url", func(t *testing.T) {
		src := config.SourceConfig{URL: "ftp://example.com/content.json"}

		_, err := NewSource(&src, &cfg.Client, discardLogger())
		require.Error(t, err)
	})
}

func TestCodecForPath(t *testing.T) {
	tests := []struct {
		path string
		want any
	}{
		{"data/content.json", &codec.JSON{}},
		{"data/content.yaml", &codec.YAML{}},
		{"/content.yml?v=2", &codec.YAML{}},
		{"data/content", &codec.JSON{}},
		{"data/content.txt", &codec.JSON{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.IsType(t, tt.want, CodecForPath(tt.path))
		})
	}
}
