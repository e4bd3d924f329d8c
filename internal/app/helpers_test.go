package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/verse-service/internal/adapters/codec"
	"github.com/jsamuelsen/verse-service/internal/adapters/storage"
	"github.com/jsamuelsen/verse-service/internal/adapters/storage/memory"
	"github.com/jsamuelsen/verse-service/internal/domain"
	"github.com/jsamuelsen/verse-service/internal/mocks"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func poem(id int64, title, category string) domain.Item {
	return domain.Item{
		ID: id, Variant: domain.VariantPoem, Title: title, Content: title + " body",
		Category: category, Author: "Original Author", Date: "2023-01-01",
	}
}

func quote(id int64, text, category string) domain.Item {
	return domain.Item{
		ID: id, Variant: domain.VariantQuote, Text: text,
		Category: category, Author: "Original Author", Date: "2023-01-01",
	}
}

// canonical is the fixture dataset served by the source.
func canonical() *domain.Dataset {
	return &domain.Dataset{
		Poems: []domain.Item{
			poem(1, "Dawn", "nature"),
			poem(2, "Heart", "love"),
		},
		Quotes: []domain.Item{
			quote(10, "Be kind", "wisdom"),
			quote(11, "Love conquers all", "love"),
		},
	}
}

// fixture bundles a repository over an in-memory store.
type fixture struct {
	kv     *memory.KV
	store  *storage.Store
	source *mocks.MockDatasetSource
	repo   *ContentRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	kv := memory.New()

	return newFixtureWithKV(t, kv)
}

func newFixtureWithKV(t *testing.T, kv *memory.KV) *fixture {
	t.Helper()

	source := mocks.NewMockDatasetSource(t)
	source.On("FetchDataset", mock.Anything).Return(canonical(), nil).Maybe()

	store := storage.New(kv, codec.NewJSON())

	return &fixture{
		kv:     kv,
		store:  store,
		source: source,
		repo: NewContentRepository(RepositoryConfig{
			Source: source,
			Store:  store,
			Codec:  codec.NewJSON(),
			Logger: discardLogger(),
			Clock:  fixedClock,
		}),
	}
}

func (f *fixture) load(t *testing.T) *fixture {
	t.Helper()

	require.NoError(t, f.repo.Load(context.Background()))

	return f
}

// fakeScheduler runs timers only when the test fires them.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *fakeScheduler
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	wasPending := !t.stopped && !t.fired
	t.stopped = true

	return wasPending
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &fakeTimer{s: s, d: d, f: f}
	s.timers = append(s.timers, t)

	return t
}

// fireAll runs every timer that has not been stopped, as an elapsed window would.
func (s *fakeScheduler) fireAll() int {
	s.mu.Lock()
	var due []*fakeTimer

	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.f()
	}

	return len(due)
}

func (s *fakeScheduler) scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.timers)
}

// recordingRenderer keeps every rendered view.
type recordingRenderer struct {
	mu    sync.Mutex
	views []*domain.View
}

func (r *recordingRenderer) Render(_ context.Context, view *domain.View) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.views = append(r.views, view)

	return nil
}

func (r *recordingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.views)
}

func (r *recordingRenderer) last() *domain.View {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.views) == 0 {
		return nil
	}

	return r.views[len(r.views)-1]
}
