// Package app coordinates the content repository, filtering and view state.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/jsamuelsen/verse-service/internal/domain"
	"github.com/jsamuelsen/verse-service/internal/platform/logging"
	"github.com/jsamuelsen/verse-service/internal/platform/metrics"
	"github.com/jsamuelsen/verse-service/internal/platform/telemetry"
	"github.com/jsamuelsen/verse-service/internal/ports"
)

// Mutation operation names, used for spans, logs and metrics.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ErrNotLoaded is returned by operations that need the working set before
// Load has succeeded.
var ErrNotLoaded = domain.NewUnavailableError("content", "not loaded")

// RepositoryConfig holds the repository's collaborators. Source, Store and
// Codec are required.
type RepositoryConfig struct {
	Source  ports.DatasetSource
	Store   ports.OverrideStore
	Codec   ports.DatasetCodec
	Logger  *slog.Logger
	Metrics *metrics.Collector

	// Clock drives id allocation and default dates. Defaults to time.Now.
	Clock Clock
}

// ContentRepository owns the original and working datasets.
//
// The original set is fetched once and never changes afterwards. Items whose
// id appears in it are protected: they can be read but not edited or deleted.
// Every successful mutation is written through to the override store before
// it becomes visible.
type ContentRepository struct {
	source  ports.DatasetSource
	store   ports.OverrideStore
	codec   ports.DatasetCodec
	logger  *slog.Logger
	metrics *metrics.Collector
	clock   Clock
	ids     *IDAllocator
	exec    *Executor

	mu       sync.RWMutex
	original *domain.Dataset
	working  *domain.Dataset
}

// NewContentRepository creates a repository. It panics if a required
// collaborator is missing.
func NewContentRepository(cfg RepositoryConfig) *ContentRepository {
	if cfg.Source == nil {
		panic("app: RepositoryConfig.Source is required")
	}

	if cfg.Store == nil {
		panic("app: RepositoryConfig.Store is required")
	}

	if cfg.Codec == nil {
		panic("app: RepositoryConfig.Codec is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "content_repository"))

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &ContentRepository{
		source:  cfg.Source,
		store:   cfg.Store,
		codec:   cfg.Codec,
		logger:  logger,
		metrics: cfg.Metrics,
		clock:   clock,
		ids:     NewIDAllocator(clock),
		exec:    NewExecutor(logger),
	}
}

type overrideResult struct {
	dataset *domain.Dataset
	err     error
}

// Load fetches the canonical dataset and the persisted override concurrently.
// The override, when present and decodable, becomes the working set verbatim.
// When it is missing or undecodable the working set is a copy of the original
// and is persisted at once. Any other store read failure leaves the stored
// override untouched and fails Load with domain.ErrUnavailable. A failure to
// obtain the canonical dataset is a *domain.LoadError.
//
// The canonical dataset is fetched only on the first successful Load; later
// calls re-read the override only.
func (r *ContentRepository) Load(ctx context.Context) error {
	ctx, span := telemetry.Tracer().Start(ctx, "content.load")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	original, override, err := Parallel2(ctx,
		func(ctx context.Context) (*domain.Dataset, error) {
			if r.original != nil {
				return r.original, nil
			}

			return r.fetchOriginal(ctx)
		},
		func(ctx context.Context) (overrideResult, error) {
			ds, err := r.store.Load(ctx)
			return overrideResult{dataset: ds, err: err}, nil
		},
	)
	if err != nil {
		span.RecordError(err)
		return errors.Unwrap(err)
	}

	working, err := r.pickWorking(ctx, original, override)
	if err != nil {
		span.RecordError(err)
		return err
	}

	r.original = original
	r.working = working

	if r.working != override.dataset {
		if err := r.store.Save(ctx, r.working); err != nil {
			r.logger.WarnContext(ctx, "persisting initial working set failed", slog.Any("error", err))
		}
	}

	r.observeSizes()
	r.logger.InfoContext(ctx, "content loaded",
		slog.String("source", r.source.Describe()),
		slog.Int("original_poems", len(original.Poems)),
		slog.Int("original_quotes", len(original.Quotes)),
		slog.Int("working_poems", len(r.working.Poems)),
		slog.Int("working_quotes", len(r.working.Quotes)),
	)

	return nil
}

func (r *ContentRepository) fetchOriginal(ctx context.Context) (*domain.Dataset, error) {
	ds, err := r.source.FetchDataset(ctx)
	if err != nil {
		return nil, domain.NewLoadError(r.source.Describe(), err)
	}

	if ds == nil {
		return nil, domain.NewLoadError(r.source.Describe(), errors.New("empty document"))
	}

	ds.Normalize()

	for _, v := range domain.Variants {
		if id, dup := ds.DuplicateID(v); dup {
			return nil, domain.NewLoadError(r.source.Describe(),
				domain.NewConflictErrorWithDetails(string(v), "duplicate id in canonical dataset", strconv.FormatInt(id, 10)))
		}
	}

	return ds, nil
}

// pickWorking returns the override when usable, else a copy of the original.
// Only a missing or undecodable override is replaced; a failed read is
// returned so the stored copy survives.
func (r *ContentRepository) pickWorking(ctx context.Context, original *domain.Dataset, override overrideResult) (*domain.Dataset, error) {
	switch {
	case override.err != nil && domain.IsNotFound(override.err):
		r.logger.DebugContext(ctx, "no persisted override, starting from original")
	case override.err != nil && domain.IsValidation(override.err):
		r.logger.WarnContext(ctx, "persisted override unreadable, ignoring it", slog.Any("error", override.err))
	case override.err != nil:
		r.logger.ErrorContext(ctx, "reading persisted override failed", slog.Any("error", override.err))
		return nil, fmt.Errorf("%w: reading persisted override: %w", domain.ErrUnavailable, override.err)
	case override.dataset == nil:
		r.logger.WarnContext(ctx, "persisted override empty, ignoring it")
	default:
		override.dataset.Normalize()

		for _, v := range domain.Variants {
			if id, dup := override.dataset.DuplicateID(v); dup {
				r.logger.WarnContext(ctx, "persisted override has duplicate ids, ignoring it",
					slog.String("variant", string(v)), slog.Int64("id", id))

				return original.Clone(), nil
			}
		}

		return override.dataset, nil
	}

	return original.Clone(), nil
}

// Loaded reports whether Load has succeeded.
func (r *ContentRepository) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.working != nil
}

// Name implements ports.HealthChecker.
func (r *ContentRepository) Name() string {
	return "content"
}

// Check implements ports.HealthChecker; the repository is ready once loaded.
func (r *ContentRepository) Check(_ context.Context) error {
	if !r.Loaded() {
		return ErrNotLoaded
	}

	return nil
}

// IsProtected reports whether id belongs to the original dataset.
func (r *ContentRepository) IsProtected(v domain.Variant, id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.isProtected(v, id)
}

func (r *ContentRepository) isProtected(v domain.Variant, id int64) bool {
	return r.original != nil && r.original.Contains(v, id)
}

// Get returns one working item.
func (r *ContentRepository) Get(v domain.Variant, id int64) (domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.working == nil {
		return domain.Item{}, ErrNotLoaded
	}

	i := r.working.Find(v, id)
	if i < 0 {
		return domain.Item{}, domain.NewItemNotFoundError(v, id)
	}

	return r.working.Collection(v)[i], nil
}

// List returns a copy of the variant's working collection.
func (r *ContentRepository) List(v domain.Variant) []domain.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.working == nil {
		return []domain.Item{}
	}

	return slices.Clone(r.working.Collection(v))
}

// Snapshot returns a deep copy of the working set.
func (r *ContentRepository) Snapshot() *domain.Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.working.Clone()
}

// Original returns a deep copy of the original set.
func (r *ContentRepository) Original() *domain.Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.original.Clone()
}

// Export writes the working set as a two-collection document.
func (r *ContentRepository) Export(ctx context.Context, w io.Writer) error {
	snapshot := r.Snapshot()

	if err := r.codec.Encode(w, snapshot); err != nil {
		return err
	}

	logging.FromContext(ctx).DebugContext(ctx, "working set exported",
		slog.Int("poems", len(snapshot.Poems)),
		slog.Int("quotes", len(snapshot.Quotes)),
	)

	return nil
}

// mutation is the input shared by create, update and delete.
type mutation struct {
	variant domain.Variant
	id      int64
	fields  domain.Fields
}

// staged is a mutated copy of the working set awaiting persistence.
type staged struct {
	dataset *domain.Dataset
	item    domain.Item
}

// Create appends a new user item and returns it. An empty date defaults to
// today.
func (r *ContentRepository) Create(ctx context.Context, v domain.Variant, fields domain.Fields) (domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fields.Date == "" {
		fields.Date = r.clock().Format(domain.DateLayout)
	}

	item, err := Execute(ctx, r.exec, Operation[mutation, staged, domain.Item]{
		Name: OpCreate,
		Validate: func(_ context.Context, in mutation) error {
			if r.working == nil {
				return ErrNotLoaded
			}

			return in.fields.Validate()
		},
		Perform: func(_ context.Context, in mutation) (staged, error) {
			ds := r.working.Clone()
			id := r.ids.Next(max(ds.MaxID(in.variant), r.original.MaxID(in.variant)))
			item := domain.NewItem(in.variant, id, in.fields)
			ds.SetCollection(in.variant, append(ds.Collection(in.variant), item))

			return staged{dataset: ds, item: item}, nil
		},
		Verify:  r.verifyUnique,
		Archive: r.archive,
		Commit:  r.commit,
	}, mutation{variant: v, fields: fields})

	r.metrics.Mutation(OpCreate, string(v), err)

	return item, err
}

// Update replaces a user item's fields, keeping its id. An empty date keeps
// the stored date.
func (r *ContentRepository) Update(ctx context.Context, v domain.Variant, id int64, fields domain.Fields) (domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, err := Execute(ctx, r.exec, Operation[mutation, staged, domain.Item]{
		Name: OpUpdate,
		Validate: func(_ context.Context, in mutation) error {
			if err := r.validateTarget(in, "edited"); err != nil {
				return err
			}

			return in.fields.Validate()
		},
		Perform: func(_ context.Context, in mutation) (staged, error) {
			ds := r.working.Clone()
			items := ds.Collection(in.variant)
			i := ds.Find(in.variant, in.id)

			if in.fields.Date == "" {
				in.fields.Date = items[i].Date
			}

			items[i] = domain.NewItem(in.variant, in.id, in.fields)

			return staged{dataset: ds, item: items[i]}, nil
		},
		Verify:  r.verifyUnique,
		Archive: r.archive,
		Commit:  r.commit,
	}, mutation{variant: v, id: id, fields: fields})

	r.metrics.Mutation(OpUpdate, string(v), err)

	return item, err
}

// Delete removes a user item.
func (r *ContentRepository) Delete(ctx context.Context, v domain.Variant, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := Execute(ctx, r.exec, Operation[mutation, staged, domain.Item]{
		Name: OpDelete,
		Validate: func(_ context.Context, in mutation) error {
			return r.validateTarget(in, "deleted")
		},
		Perform: func(_ context.Context, in mutation) (staged, error) {
			ds := r.working.Clone()
			i := ds.Find(in.variant, in.id)
			removed := ds.Collection(in.variant)[i]
			ds.SetCollection(in.variant, slices.Delete(ds.Collection(in.variant), i, i+1))

			return staged{dataset: ds, item: removed}, nil
		},
		Verify: func(_ context.Context, in mutation, s staged) error {
			if s.dataset.Contains(in.variant, in.id) {
				return domain.NewConflictError(string(in.variant), "item still present after delete")
			}

			return nil
		},
		Archive: r.archive,
		Commit:  r.commit,
	}, mutation{variant: v, id: id})

	r.metrics.Mutation(OpDelete, string(v), err)

	return err
}

// ResetToOriginal discards the persisted override. The working set reverts to
// a copy of the original, exactly as a fresh Load without override would
// produce.
func (r *ContentRepository) ResetToOriginal(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.original == nil {
		return ErrNotLoaded
	}

	if err := r.store.Clear(ctx); err != nil {
		return err
	}

	r.working = r.original.Clone()
	r.observeSizes()

	r.logger.InfoContext(ctx, "working set reset to original")

	return nil
}

func (r *ContentRepository) validateTarget(in mutation, operation string) error {
	if r.working == nil {
		return ErrNotLoaded
	}

	if r.isProtected(in.variant, in.id) {
		return domain.NewProtectedContentError(in.variant, in.id, operation)
	}

	if !r.working.Contains(in.variant, in.id) {
		return domain.NewItemNotFoundError(in.variant, in.id)
	}

	return nil
}

func (r *ContentRepository) verifyUnique(_ context.Context, in mutation, s staged) error {
	if id, dup := s.dataset.DuplicateID(in.variant); dup {
		return domain.NewConflictErrorWithDetails(string(in.variant), "duplicate id", strconv.FormatInt(id, 10))
	}

	return nil
}

func (r *ContentRepository) archive(ctx context.Context, _ mutation, s staged) error {
	return r.store.Save(ctx, s.dataset)
}

func (r *ContentRepository) commit(_ context.Context, _ mutation, s staged) (domain.Item, error) {
	r.working = s.dataset
	r.observeSizes()

	return s.item, nil
}

func (r *ContentRepository) observeSizes() {
	for _, v := range domain.Variants {
		r.metrics.WorkingItems(string(v), len(r.working.Collection(v)))
	}
}
