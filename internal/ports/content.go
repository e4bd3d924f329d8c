// Package ports defines the contracts between the application layer and its
// adapters. Adapters return domain types and domain errors only.
package ports

import (
	"context"
	"io"

	"github.com/jsamuelsen/verse-service/internal/domain"
)

// OverrideKey is the store key holding the persisted working set.
const OverrideKey = "poemsQuotesData"

// ThemeKey is the store key holding the theme preference.
const ThemeKey = "theme"

// DatasetSource retrieves the canonical dataset. It is read once at startup.
type DatasetSource interface {
	// FetchDataset returns the canonical poems and quotes.
	// Returns domain.ErrUnavailable when a remote host cannot be reached.
	FetchDataset(ctx context.Context) (*domain.Dataset, error)

	// Describe names the source for logs and LoadError messages.
	Describe() string
}

// OverrideStore persists the user's working set.
type OverrideStore interface {
	// Load returns the persisted working set.
	// Returns domain.ErrNotFound when nothing has been persisted and
	// domain.ErrValidation when the stored document cannot be decoded.
	Load(ctx context.Context) (*domain.Dataset, error)

	// Save replaces the persisted working set.
	Save(ctx context.Context, ds *domain.Dataset) error

	// Clear removes the persisted working set. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// PreferenceStore persists user preferences that live outside the dataset.
type PreferenceStore interface {
	// Theme returns the stored theme, or domain.ErrNotFound if none is stored.
	Theme(ctx context.Context) (domain.Theme, error)

	// SetTheme stores the theme.
	SetTheme(ctx context.Context, theme domain.Theme) error
}

// DatasetCodec converts between a Dataset and its two-collection document form.
type DatasetCodec interface {
	Encode(w io.Writer, ds *domain.Dataset) error
	Decode(r io.Reader) (*domain.Dataset, error)
}

// Renderer consumes recomputed views.
type Renderer interface {
	Render(ctx context.Context, view *domain.View) error
}
