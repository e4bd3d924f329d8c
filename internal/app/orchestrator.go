package app

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jsamuelsen/verse-service/internal/domain"
	"github.com/jsamuelsen/verse-service/internal/platform/metrics"
	"github.com/jsamuelsen/verse-service/internal/ports"
)

// DefaultDebounce is the search debounce window.
const DefaultDebounce = 300 * time.Millisecond

// AppState is the transient view state.
type AppState struct {
	ActiveCategory string
	SearchQuery    string
	ViewMode       domain.ViewMode
	Theme          domain.Theme
}

// OrchestratorConfig holds the orchestrator's collaborators. Repository is
// required.
type OrchestratorConfig struct {
	Repository  *ContentRepository
	Preferences ports.PreferenceStore
	Renderer    ports.Renderer
	Colors      *domain.ColorAssigner
	Logger      *slog.Logger
	Metrics     *metrics.Collector

	// Debounce is the search window. Zero applies queries immediately;
	// negative selects DefaultDebounce.
	Debounce  time.Duration
	Scheduler Scheduler

	// DefaultTheme applies when no preference is stored. Defaults to light.
	DefaultTheme domain.Theme
}

// Orchestrator owns the view state and applies every user action: it updates
// AppState or calls the repository, then recomputes the view and hands it to
// the renderer. All transitions are serialized.
type Orchestrator struct {
	repo     *ContentRepository
	prefs    ports.PreferenceStore
	renderer ports.Renderer
	colors   *domain.ColorAssigner
	logger   *slog.Logger
	metrics  *metrics.Collector
	search   *Debouncer[string]

	mu       sync.Mutex
	state    AppState
	sessions *editSessions
	view     *domain.View
	baseCtx  context.Context
}

// NewOrchestrator creates an orchestrator. It panics without a repository.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Repository == nil {
		panic("app: OrchestratorConfig.Repository is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	colors := cfg.Colors
	if colors == nil {
		colors = domain.NewColorAssigner()
	}

	theme := cfg.DefaultTheme
	if theme == "" {
		theme = domain.ThemeLight
	}

	window := cfg.Debounce
	if window < 0 {
		window = DefaultDebounce
	}

	o := &Orchestrator{
		repo:     cfg.Repository,
		prefs:    cfg.Preferences,
		renderer: cfg.Renderer,
		colors:   colors,
		logger:   logger.With(slog.String("component", "orchestrator")),
		metrics:  cfg.Metrics,
		sessions: newEditSessions(),
		baseCtx:  context.Background(),
		state: AppState{
			ActiveCategory: domain.CategoryAll,
			ViewMode:       domain.ViewBoth,
			Theme:          theme,
		},
	}

	o.search = NewDebouncer(window, cfg.Scheduler, o.applyDebouncedQuery)

	return o
}

// Start loads the content and the theme preference and renders the first view.
// A load failure is returned as is and leaves the orchestrator unusable.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.repo.Load(ctx); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.baseCtx = context.WithoutCancel(ctx)

	if o.prefs != nil {
		theme, err := o.prefs.Theme(ctx)

		switch {
		case err == nil:
			o.state.Theme = theme
		case domain.IsNotFound(err):
		default:
			o.logger.WarnContext(ctx, "stored theme unreadable, using default",
				slog.String("theme", string(o.state.Theme)),
				slog.Any("error", err),
			)
		}
	}

	return o.recompute(ctx)
}

// State returns a copy of the view state.
func (o *Orchestrator) State() AppState {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

// View returns the most recently computed view, or nil before Start.
// Views are never modified after they are built.
func (o *Orchestrator) View() *domain.View {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.view
}

// SelectCategory filters by category; "" and "all" select everything.
func (o *Orchestrator) SelectCategory(ctx context.Context, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		category = domain.CategoryAll
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.state.ActiveCategory = category

	return o.recompute(ctx)
}

// SetQuery records typed search input. The query is applied once the input
// has been quiet for the debounce window, with the last value typed.
func (o *Orchestrator) SetQuery(query string) {
	o.search.Trigger(query)
}

// SearchNow applies query immediately, dropping any pending debounced input.
func (o *Orchestrator) SearchNow(ctx context.Context, query string) error {
	o.search.Cancel()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.state.SearchQuery = query

	return o.recompute(ctx)
}

// SearchPending reports whether typed input is waiting for the debounce window.
func (o *Orchestrator) SearchPending() bool {
	return o.search.Pending()
}

func (o *Orchestrator) applyDebouncedQuery(query string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state.SearchQuery = query

	if err := o.recompute(o.baseCtx); err != nil {
		o.logger.WarnContext(o.baseCtx, "debounced search render failed", slog.Any("error", err))
	}
}

// SetViewMode switches which collections are displayed.
func (o *Orchestrator) SetViewMode(ctx context.Context, mode domain.ViewMode) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state.ViewMode = mode

	return o.recompute(ctx)
}

// SetTheme stores and applies theme.
func (o *Orchestrator) SetTheme(ctx context.Context, theme domain.Theme) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.setTheme(ctx, theme)
}

// ToggleTheme flips between light and dark and returns the new theme.
func (o *Orchestrator) ToggleTheme(ctx context.Context) (domain.Theme, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	next := o.state.Theme.Toggle()

	return next, o.setTheme(ctx, next)
}

func (o *Orchestrator) setTheme(ctx context.Context, theme domain.Theme) error {
	if o.prefs != nil {
		if err := o.prefs.SetTheme(ctx, theme); err != nil {
			return err
		}
	}

	o.state.Theme = theme

	return o.recompute(ctx)
}

// Items filters the variant's working collection without touching the view
// state.
func (o *Orchestrator) Items(v domain.Variant, state domain.FilterState) []domain.ViewItem {
	original := o.repo.Original()
	filtered := domain.Filter(o.repo.List(v), state)

	return decorate(v, filtered, protectedIDs(original, v))
}

// Item returns one working item with its protection flag.
func (o *Orchestrator) Item(v domain.Variant, id int64) (domain.ViewItem, error) {
	item, err := o.repo.Get(v, id)
	if err != nil {
		return domain.ViewItem{}, err
	}

	return domain.ViewItem{Item: item, Protected: o.repo.IsProtected(v, id)}, nil
}

// Categories returns the category picker entries for the working set.
func (o *Orchestrator) Categories() []domain.CategoryOption {
	return o.categoryOptions(o.repo.Snapshot())
}

// ColorFor returns the color for category.
func (o *Orchestrator) ColorFor(category string) domain.CategoryColor {
	c := o.colors.ColorFor(category)
	o.metrics.ColorCacheSize(o.colors.Len())

	return c
}

// Create adds a user item.
func (o *Orchestrator) Create(ctx context.Context, v domain.Variant, fields domain.Fields) (domain.Item, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	item, err := o.repo.Create(ctx, v, fields)
	if err != nil {
		return domain.Item{}, err
	}

	return item, o.recompute(ctx)
}

// Update replaces a user item's fields.
func (o *Orchestrator) Update(ctx context.Context, v domain.Variant, id int64, fields domain.Fields) (domain.Item, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	item, err := o.repo.Update(ctx, v, id, fields)
	if err != nil {
		return domain.Item{}, err
	}

	return item, o.recompute(ctx)
}

// Delete removes a user item and ends any edit session on it.
func (o *Orchestrator) Delete(ctx context.Context, v domain.Variant, id int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.repo.Delete(ctx, v, id); err != nil {
		return err
	}

	if o.sessions.forget(v, id) {
		o.logger.DebugContext(ctx, "edit session closed by delete",
			slog.String("variant", string(v)), slog.Int64("id", id))
	}

	return o.recompute(ctx)
}

// Reset discards every user change and closes all edit sessions.
func (o *Orchestrator) Reset(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.repo.ResetToOriginal(ctx); err != nil {
		return err
	}

	o.sessions.clear()

	return o.recompute(ctx)
}

// Export writes the working set through the repository's codec.
func (o *Orchestrator) Export(ctx context.Context, w io.Writer) error {
	return o.repo.Export(ctx, w)
}

// Snapshot returns a deep copy of the working set.
func (o *Orchestrator) Snapshot() *domain.Dataset {
	return o.repo.Snapshot()
}

// Session returns the variant's edit session.
func (o *Orchestrator) Session(v domain.Variant) EditSession {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.sessions.get(v)
}

// BeginEdit opens an edit session on a user item and returns the item for the
// edit form. Original items are rejected with a ProtectedContentError and the
// session is left as it was.
func (o *Orchestrator) BeginEdit(ctx context.Context, v domain.Variant, id int64) (domain.Item, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.repo.IsProtected(v, id) {
		err := domain.NewProtectedContentError(v, id, "edited")
		o.logger.InfoContext(ctx, "edit of original content rejected", slog.Any("error", err))

		return domain.Item{}, err
	}

	item, err := o.repo.Get(v, id)
	if err != nil {
		return domain.Item{}, err
	}

	o.sessions.begin(v, id)

	return item, nil
}

// CancelEdit closes the variant's edit session.
func (o *Orchestrator) CancelEdit(v domain.Variant) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.sessions.reset(v)
}

// SaveEdit submits the edit form. With an open session the edited item is
// updated; otherwise a new item is created. The session closes on success,
// and also when the target turned out to be protected or gone. Other
// failures keep it open so the form can be corrected. created reports which
// of the two happened, decided under the same lock as the write.
func (o *Orchestrator) SaveEdit(ctx context.Context, v domain.Variant, fields domain.Fields) (item domain.Item, created bool, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	session := o.sessions.get(v)
	created = session.Status != EditEditing

	if created {
		item, err = o.repo.Create(ctx, v, fields)
	} else {
		item, err = o.repo.Update(ctx, v, session.ID, fields)
	}

	if err != nil {
		if domain.IsProtected(err) || domain.IsNotFound(err) {
			o.sessions.reset(v)
		}

		return domain.Item{}, created, err
	}

	o.sessions.reset(v)

	return item, created, o.recompute(ctx)
}

// Close stops the pending debounced search.
func (o *Orchestrator) Close() {
	o.search.Close()
}

// recompute builds the view from the current state and renders it. Must be
// called with mu held.
func (o *Orchestrator) recompute(ctx context.Context) error {
	ds := o.repo.Snapshot()
	original := o.repo.Original()
	filter := domain.FilterState{Category: o.state.ActiveCategory, Query: o.state.SearchQuery}

	view := &domain.View{
		Category: o.state.ActiveCategory,
		Query:    o.state.SearchQuery,
		Mode:     o.state.ViewMode,
		Theme:    o.state.Theme,
		Poems:    []domain.ViewItem{},
		Quotes:   []domain.ViewItem{},
		Colors:   make(map[string]domain.CategoryColor),
	}

	var poems, quotes []domain.Item

	for _, v := range domain.Variants {
		if !o.state.ViewMode.Shows(v) {
			continue
		}

		filtered := domain.Filter(ds.Collection(v), filter)
		for _, item := range filtered {
			if _, ok := view.Colors[item.Category]; !ok {
				view.Colors[item.Category] = o.colors.ColorFor(item.Category)
			}
		}

		items := decorate(v, filtered, protectedIDs(original, v))
		if v == domain.VariantPoem {
			poems, view.Poems = filtered, items
		} else {
			quotes, view.Quotes = filtered, items
		}
	}

	view.NoResults = domain.NoResults(o.state.ViewMode, poems, quotes)
	view.Categories = o.categoryOptions(ds)
	o.view = view

	o.metrics.Recompute()
	o.metrics.ColorCacheSize(o.colors.Len())

	o.logger.DebugContext(ctx, "view recomputed",
		slog.String("category", view.Category),
		slog.String("query", view.Query),
		slog.String("mode", string(view.Mode)),
		slog.Int("poems", len(view.Poems)),
		slog.Int("quotes", len(view.Quotes)),
	)

	if o.renderer == nil {
		return nil
	}

	return o.renderer.Render(ctx, view)
}

func (o *Orchestrator) categoryOptions(ds *domain.Dataset) []domain.CategoryOption {
	names := domain.Categories(ds)
	opts := make([]domain.CategoryOption, 0, len(names))

	for _, name := range names {
		opts = append(opts, domain.CategoryOption{
			Name:    name,
			Display: domain.DisplayCategory(name),
			Color:   o.colors.ColorFor(name),
		})
	}

	return opts
}

func protectedIDs(original *domain.Dataset, v domain.Variant) map[int64]struct{} {
	ids := make(map[int64]struct{}, len(original.Collection(v)))
	for _, item := range original.Collection(v) {
		ids[item.ID] = struct{}{}
	}

	return ids
}

func decorate(v domain.Variant, items []domain.Item, protected map[int64]struct{}) []domain.ViewItem {
	out := make([]domain.ViewItem, 0, len(items))
	for _, item := range items {
		item.Variant = v
		_, p := protected[item.ID]
		out = append(out, domain.ViewItem{Item: item, Protected: p})
	}

	return out
}
