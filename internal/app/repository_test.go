package app

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/verse-service/internal/adapters/codec"
	"github.com/jsamuelsen/verse-service/internal/adapters/storage"
	"github.com/jsamuelsen/verse-service/internal/adapters/storage/memory"
	"github.com/jsamuelsen/verse-service/internal/domain"
	"github.com/jsamuelsen/verse-service/internal/mocks"
	"github.com/jsamuelsen/verse-service/internal/ports"
)

func newPoemFields(title string) domain.Fields {
	return domain.Fields{
		Title:    title,
		Content:  "line one\nline two",
		Category: "hope",
		Author:   "Me",
		Date:     "2024-04-30",
	}
}

func TestNewContentRepository_PanicsWithoutCollaborators(t *testing.T) {
	source := mocks.NewMockDatasetSource(t)
	store := mocks.NewMockOverrideStore(t)

	assert.Panics(t, func() { NewContentRepository(RepositoryConfig{Store: store, Codec: codec.NewJSON()}) })
	assert.Panics(t, func() { NewContentRepository(RepositoryConfig{Source: source, Codec: codec.NewJSON()}) })
	assert.Panics(t, func() { NewContentRepository(RepositoryConfig{Source: source, Store: store}) })
}

func TestContentRepository_LoadWithoutOverride(t *testing.T) {
	f := newFixture(t).load(t)

	if diff := cmp.Diff(canonical(), f.repo.Snapshot()); diff != "" {
		t.Errorf("working set mismatch (-want +got):\n%s", diff)
	}

	persisted, err := f.store.Load(context.Background())
	require.NoError(t, err, "the initial working set is persisted at once")

	if diff := cmp.Diff(canonical(), persisted); diff != "" {
		t.Errorf("persisted set mismatch (-want +got):\n%s", diff)
	}

	assert.True(t, f.repo.Loaded())
	assert.NoError(t, f.repo.Check(context.Background()))
	assert.Equal(t, "content", f.repo.Name())
}

func TestContentRepository_LoadUsesOverrideVerbatim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	override := canonical()
	override.Poems = append(override.Poems, poem(500, "Mine", "hope"))
	override.Quotes = override.Quotes[:1]
	require.NoError(t, f.store.Save(ctx, override))

	f.load(t)

	if diff := cmp.Diff(override, f.repo.Snapshot()); diff != "" {
		t.Errorf("working set mismatch (-want +got):\n%s", diff)
	}

	assert.False(t, f.repo.IsProtected(domain.VariantPoem, 500))
	assert.True(t, f.repo.IsProtected(domain.VariantQuote, 11), "protection follows the original, not the override")
}

func TestContentRepository_LoadIgnoresUnusableOverride(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "corrupt json", raw: `{"poems": [`},
		{name: "duplicate ids", raw: `{"poems":[{"id":7,"category":"a"},{"id":7,"category":"b"}],"quotes":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			require.NoError(t, f.kv.Put(ctx, ports.OverrideKey, []byte(tt.raw)))

			f.load(t)

			if diff := cmp.Diff(canonical(), f.repo.Snapshot()); diff != "" {
				t.Errorf("working set mismatch (-want +got):\n%s", diff)
			}

			persisted, err := f.store.Load(ctx)
			require.NoError(t, err, "the unusable override is replaced")
			assert.Len(t, persisted.Poems, 2)
		})
	}
}

// flakyKV fails the first override read with a backend error.
type flakyKV struct {
	storage.KV
	failed bool
}

func (k *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	if key == ports.OverrideKey && !k.failed {
		k.failed = true
		return nil, errors.New("database is locked")
	}

	return k.KV.Get(ctx, key)
}

func TestContentRepository_LoadKeepsOverrideOnReadFailure(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	f := newFixtureWithKV(t, kv)

	override := canonical()
	override.Poems = append(override.Poems, poem(500, "Mine", "hope"))
	require.NoError(t, f.store.Save(ctx, override))

	store := storage.New(&flakyKV{KV: kv}, codec.NewJSON())
	repo := NewContentRepository(RepositoryConfig{
		Source: f.source,
		Store:  store,
		Codec:  codec.NewJSON(),
		Logger: discardLogger(),
		Clock:  fixedClock,
	})

	err := repo.Load(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.ErrorContains(t, err, "database is locked")
	assert.False(t, repo.Loaded())

	persisted, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted.Poems, 3, "the stored override is not overwritten")

	require.NoError(t, repo.Load(ctx))

	if diff := cmp.Diff(override, repo.Snapshot()); diff != "" {
		t.Errorf("working set mismatch (-want +got):\n%s", diff)
	}
}

func TestContentRepository_LoadErrors(t *testing.T) {
	t.Run("source unavailable", func(t *testing.T) {
		source := mocks.NewMockDatasetSource(t)
		source.On("FetchDataset", mock.Anything).
			Return(nil, domain.NewUnavailableError("content-host", "connection refused"))

		store := mocks.NewMockOverrideStore(t)
		store.On("Load", mock.Anything).Return(nil, domain.ErrNotFound).Maybe()

		repo := NewContentRepository(RepositoryConfig{Source: source, Store: store, Codec: codec.NewJSON(), Logger: discardLogger()})

		err := repo.Load(context.Background())
		require.Error(t, err)
		assert.True(t, domain.IsLoad(err))
		assert.True(t, domain.IsUnavailable(err))

		var loadErr *domain.LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "mock", loadErr.Source)

		assert.False(t, repo.Loaded())
		assert.ErrorIs(t, repo.Check(context.Background()), ErrNotLoaded)
	})

	t.Run("duplicate canonical ids", func(t *testing.T) {
		dup := canonical()
		dup.Quotes = append(dup.Quotes, quote(10, "again", "wisdom"))

		source := mocks.NewMockDatasetSource(t)
		source.On("FetchDataset", mock.Anything).Return(dup, nil)

		store := mocks.NewMockOverrideStore(t)
		store.On("Load", mock.Anything).Return(nil, domain.ErrNotFound).Maybe()

		repo := NewContentRepository(RepositoryConfig{Source: source, Store: store, Codec: codec.NewJSON(), Logger: discardLogger()})

		err := repo.Load(context.Background())
		assert.True(t, domain.IsLoad(err))
		assert.True(t, domain.IsConflict(err))
	})
}

func TestContentRepository_FetchesOriginalOnce(t *testing.T) {
	source := mocks.NewMockDatasetSource(t)
	source.On("FetchDataset", mock.Anything).Return(canonical(), nil).Once()

	f := newFixture(t)
	f.repo = NewContentRepository(RepositoryConfig{
		Source: source, Store: f.store, Codec: codec.NewJSON(), Logger: discardLogger(), Clock: fixedClock,
	})

	f.load(t)
	f.load(t)
}

func TestContentRepository_NotLoaded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.Create(ctx, domain.VariantPoem, newPoemFields("x"))
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = f.repo.Get(domain.VariantPoem, 1)
	assert.ErrorIs(t, err, ErrNotLoaded)

	assert.ErrorIs(t, f.repo.ResetToOriginal(ctx), ErrNotLoaded)
	assert.Empty(t, f.repo.List(domain.VariantQuote))
}

func TestContentRepository_ProtectedItemsAreImmutable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t).load(t)

	before := f.repo.Snapshot()
	rawBefore, err := f.kv.Get(ctx, ports.OverrideKey)
	require.NoError(t, err)

	_, err = f.repo.Update(ctx, domain.VariantPoem, 1, newPoemFields("hijacked"))
	require.Error(t, err)
	assert.True(t, domain.IsProtected(err))

	var protectedErr *domain.ProtectedContentError
	require.ErrorAs(t, err, &protectedErr)
	assert.Equal(t, "edited", protectedErr.Operation)

	err = f.repo.Delete(ctx, domain.VariantQuote, 11)
	require.Error(t, err)
	assert.True(t, domain.IsProtected(err))

	step, ok := GetExecutionStep(err)
	require.True(t, ok)
	assert.Equal(t, StepValidate, step)

	if diff := cmp.Diff(before, f.repo.Snapshot()); diff != "" {
		t.Errorf("working set changed (-before +after):\n%s", diff)
	}

	rawAfter, err := f.kv.Get(ctx, ports.OverrideKey)
	require.NoError(t, err)
	assert.Equal(t, rawBefore, rawAfter, "nothing is persisted for a rejected mutation")
}

func TestContentRepository_CreateRoundTripsThroughStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t).load(t)

	created, err := f.repo.Create(ctx, domain.VariantPoem, newPoemFields("Spring"))
	require.NoError(t, err)

	assert.Equal(t, fixedNow.UnixMilli(), created.ID)
	assert.Equal(t, domain.VariantPoem, created.Variant)
	assert.False(t, f.repo.IsProtected(domain.VariantPoem, created.ID))

	reloaded := newFixtureWithKV(t, f.kv).load(t)

	got, err := reloaded.repo.Get(domain.VariantPoem, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Len(t, reloaded.repo.List(domain.VariantPoem), 3)
}

func TestContentRepository_CreateAllocatesDistinctIDsAndDefaultsDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t).load(t)

	fields := domain.Fields{Text: "Same millisecond", Category: "time", Author: "Me"}

	first, err := f.repo.Create(ctx, domain.VariantQuote, fields)
	require.NoError(t, err)

	second, err := f.repo.Create(ctx, domain.VariantQuote, fields)
	require.NoError(t, err)

	assert.Equal(t, first.ID+1, second.ID)
	assert.Equal(t, "2024-05-01", first.Date)
	assert.Empty(t, first.Title, "poem fields are dropped from quotes")
}

func TestContentRepository_CreateValidation(t *testing.T) {
	f := newFixture(t).load(t)

	_, err := f.repo.Create(context.Background(), domain.VariantPoem, domain.Fields{Title: "no category"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = f.repo.Create(context.Background(), domain.VariantPoem, domain.Fields{Category: "x", Date: "01/02/2024"})
	assert.True(t, domain.IsValidation(err))

	assert.Len(t, f.repo.List(domain.VariantPoem), 2)
}

func TestContentRepository_UpdateUserItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t).load(t)

	created, err := f.repo.Create(ctx, domain.VariantPoem, newPoemFields("Draft"))
	require.NoError(t, err)

	edited := newPoemFields("Final")
	edited.Date = ""

	updated, err := f.repo.Update(ctx, domain.VariantPoem, created.ID, edited)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, created.Date, updated.Date, "an empty date keeps the stored one")

	_, err = f.repo.Update(ctx, domain.VariantPoem, 424242, edited)
	assert.True(t, domain.IsNotFound(err))
}

func TestContentRepository_DeleteUserItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t).load(t)

	created, err := f.repo.Create(ctx, domain.VariantQuote, domain.Fields{Text: "bye", Category: "x"})
	require.NoError(t, err)

	require.NoError(t, f.repo.Delete(ctx, domain.VariantQuote, created.ID))

	_, err = f.repo.Get(domain.VariantQuote, created.ID)
	assert.True(t, domain.IsNotFound(err))

	err = f.repo.Delete(ctx, domain.VariantQuote, created.ID)
	assert.True(t, domain.IsNotFound(err), "deleting an absent id is reported")
}

func TestContentRepository_ResetRestoresOriginal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t).load(t)

	_, err := f.repo.Create(ctx, domain.VariantPoem, newPoemFields("gone soon"))
	require.NoError(t, err)

	require.NoError(t, f.repo.ResetToOriginal(ctx))

	if diff := cmp.Diff(f.repo.Original(), f.repo.Snapshot()); diff != "" {
		t.Errorf("working set differs from original (-want +got):\n%s", diff)
	}

	_, err = f.kv.Get(ctx, ports.OverrideKey)
	assert.True(t, domain.IsNotFound(err), "reset discards the override")

	reloaded := newFixtureWithKV(t, f.kv).load(t)

	if diff := cmp.Diff(canonical(), reloaded.repo.Snapshot()); diff != "" {
		t.Errorf("reload after reset differs from original (-want +got):\n%s", diff)
	}
}

func TestContentRepository_PersistFailureLeavesWorkingUnchanged(t *testing.T) {
	ctx := context.Background()

	source := mocks.NewMockDatasetSource(t)
	source.On("FetchDataset", mock.Anything).Return(canonical(), nil)

	store := mocks.NewMockOverrideStore(t)
	store.On("Load", mock.Anything).Return(canonical(), nil)
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	repo := NewContentRepository(RepositoryConfig{
		Source: source, Store: store, Codec: codec.NewJSON(), Logger: discardLogger(), Clock: fixedClock,
	})
	require.NoError(t, repo.Load(ctx))

	before := repo.Snapshot()

	_, err := repo.Create(ctx, domain.VariantPoem, newPoemFields("lost"))
	require.ErrorContains(t, err, "disk full")

	step, ok := GetExecutionStep(err)
	require.True(t, ok)
	assert.Equal(t, StepArchive, step)

	if diff := cmp.Diff(before, repo.Snapshot()); diff != "" {
		t.Errorf("working set changed after failed persist (-before +after):\n%s", diff)
	}
}

func TestContentRepository_SnapshotIsIsolated(t *testing.T) {
	f := newFixture(t).load(t)

	snap := f.repo.Snapshot()
	snap.Poems[0].Title = "mutated"

	got, err := f.repo.Get(domain.VariantPoem, 1)
	require.NoError(t, err)
	assert.Equal(t, "Dawn", got.Title)
}

func TestContentRepository_Export(t *testing.T) {
	f := newFixture(t).load(t)

	var buf bytes.Buffer
	require.NoError(t, f.repo.Export(context.Background(), &buf))

	assert.Contains(t, buf.String(), "\n  \"poems\": [")

	ds, err := codec.NewJSON().Decode(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(canonical(), ds); diff != "" {
		t.Errorf("export mismatch (-want +got):\n%s", diff)
	}
}
