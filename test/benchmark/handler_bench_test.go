package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/verse-service/internal/adapters/codec"
	httpadapter "github.com/jsamuelsen/verse-service/internal/adapters/http"
	"github.com/jsamuelsen/verse-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/verse-service/internal/adapters/render"
	"github.com/jsamuelsen/verse-service/internal/adapters/storage"
	"github.com/jsamuelsen/verse-service/internal/adapters/storage/memory"
	"github.com/jsamuelsen/verse-service/internal/app"
	"github.com/jsamuelsen/verse-service/internal/domain"
	"github.com/jsamuelsen/verse-service/internal/platform/config"
	"github.com/jsamuelsen/verse-service/internal/ports"
)

const collectionSize = 500

var categories = []string{"love", "nature", "wisdom", "hope", "loss", "time", "sea", "city"}

func init() {
	// Set Gin to release mode for accurate benchmarks
	gin.SetMode(gin.ReleaseMode)
}

// generatedSource serves a synthetic dataset of collectionSize items per variant.
type generatedSource struct{}

func (generatedSource) FetchDataset(context.Context) (*domain.Dataset, error) {
	ds := &domain.Dataset{}

	for i := range collectionSize {
		category := categories[i%len(categories)]

		ds.Poems = append(ds.Poems, domain.NewItem(domain.VariantPoem, int64(i+1), domain.Fields{
			Category: category,
			Author:   fmt.Sprintf("Poet %d", i%37),
			Date:     "2023-01-02",
			Title:    fmt.Sprintf("Poem number %d", i),
			Content:  strings.Repeat("a line of verse about "+category+"\n", 8),
		}))

		ds.Quotes = append(ds.Quotes, domain.NewItem(domain.VariantQuote, int64(100000+i), domain.Fields{
			Category: category,
			Author:   fmt.Sprintf("Speaker %d", i%53),
			Date:     "2022-06-07",
			Text:     fmt.Sprintf("Quote %d on %s and everything after", i, category),
		}))
	}

	return ds, nil
}

func (generatedSource) Describe() string { return "generated" }

// setupEngine builds the full router over a loaded orchestrator.
func setupEngine(b *testing.B) *gin.Engine {
	b.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.New(memory.New(), codec.NewJSON())

	repo := app.NewContentRepository(app.RepositoryConfig{
		Source: generatedSource{},
		Store:  store,
		Codec:  codec.NewJSON(),
		Logger: logger,
	})

	snapshot := render.NewSnapshot()
	orch := app.NewOrchestrator(app.OrchestratorConfig{
		Repository:  repo,
		Preferences: store,
		Renderer:    snapshot,
		Logger:      logger,
		Debounce:    0,
	})
	b.Cleanup(orch.Close)

	if err := orch.Start(context.Background()); err != nil {
		b.Fatal(err)
	}

	registry := ports.NewHealthRegistry()
	_ = registry.Register(repo)

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.NewDefaultRouterConfig(
		logger,
		&config.AppConfig{Name: "bench", Version: "1.0.0", Environment: "test"},
		handlers.NewHealthHandler(registry, handlers.NewBuildInfo("1.0.0", "abc123", "2024-01-01T00:00:00Z"), nil),
		handlers.NewContentHandler(orch, snapshot),
	))

	return engine
}

func benchmarkRequest(b *testing.B, engine *gin.Engine, method, path, body string) {
	b.Helper()
	b.ReportAllocs()

	for b.Loop() {
		var r io.Reader = http.NoBody
		if body != "" {
			r = strings.NewReader(body)
		}

		req := httptest.NewRequest(method, path, r)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		if w.Code >= http.StatusBadRequest {
			b.Fatalf("%s %s: status %d", method, path, w.Code)
		}
	}
}

// BenchmarkLivenessHandler measures the full middleware chain on the cheapest route.
func BenchmarkLivenessHandler(b *testing.B) {
	engine := setupEngine(b)
	benchmarkRequest(b, engine, http.MethodGet, "/-/live", "")
}

// BenchmarkReadinessHandler includes the content repository check.
func BenchmarkReadinessHandler(b *testing.B) {
	engine := setupEngine(b)
	benchmarkRequest(b, engine, http.MethodGet, "/-/ready", "")
}

// BenchmarkGetView serializes the whole rendered view.
func BenchmarkGetView(b *testing.B) {
	engine := setupEngine(b)
	benchmarkRequest(b, engine, http.MethodGet, "/api/v1/view", "")
}

// BenchmarkImmediateSearch recomputes the view on every request.
func BenchmarkImmediateSearch(b *testing.B) {
	engine := setupEngine(b)
	benchmarkRequest(b, engine, http.MethodPut, "/api/v1/view/search", `{"query": "verse about sea", "immediate": true}`)
}

// BenchmarkListWithFilter filters one collection from query parameters.
func BenchmarkListWithFilter(b *testing.B) {
	engine := setupEngine(b)
	benchmarkRequest(b, engine, http.MethodGet, "/api/v1/quotes?category=wisdom&q=everything", "")
}

// BenchmarkCategories measures category listing with memoized colors.
func BenchmarkCategories(b *testing.B) {
	engine := setupEngine(b)
	benchmarkRequest(b, engine, http.MethodGet, "/api/v1/categories", "")
}

// BenchmarkFilter measures the filter predicate without HTTP.
func BenchmarkFilter(b *testing.B) {
	ds, _ := generatedSource{}.FetchDataset(context.Background())
	state := domain.FilterState{Category: "nature", Query: "VERSE"}

	b.ReportAllocs()

	for b.Loop() {
		_ = domain.Filter(ds.Poems, state)
	}
}

// BenchmarkComputeCategoryColor measures the uncached color derivation.
func BenchmarkComputeCategoryColor(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		for _, c := range categories {
			_ = domain.ComputeCategoryColor(c)
		}
	}
}
