// Package storage persists the working set and preferences in a key-value
// backend. Backends live in subpackages (memory, sqlite); Store layers the
// override and preference ports on top of any of them.
package storage

import (
	"bytes"
	"context"
	"time"

	"github.com/jsamuelsen/verse-service/internal/domain"
	"github.com/jsamuelsen/verse-service/internal/platform/metrics"
	"github.com/jsamuelsen/verse-service/internal/ports"
)

// KV is a string-keyed byte store.
type KV interface {
	// Get returns the value under key, or domain.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Store implements ports.OverrideStore and ports.PreferenceStore over a KV.
// The working set is kept as an encoded document so it survives restarts
// exactly as written.
type Store struct {
	kv    KV
	codec ports.DatasetCodec
}

var (
	_ ports.OverrideStore   = (*Store)(nil)
	_ ports.PreferenceStore = (*Store)(nil)
)

// New creates a store.
func New(kv KV, codec ports.DatasetCodec) *Store {
	return &Store{kv: kv, codec: codec}
}

// Load implements ports.OverrideStore. A stored document that fails to decode
// is reported as a *domain.ValidationError; backend failures pass through.
func (s *Store) Load(ctx context.Context) (*domain.Dataset, error) {
	raw, err := s.kv.Get(ctx, ports.OverrideKey)
	if err != nil {
		return nil, err
	}

	ds, err := s.codec.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, domain.NewValidationErrorWithValue(ports.OverrideKey, "undecodable document: "+err.Error(), len(raw))
	}

	return ds, nil
}

// Save implements ports.OverrideStore.
func (s *Store) Save(ctx context.Context, ds *domain.Dataset) error {
	var buf bytes.Buffer
	if err := s.codec.Encode(&buf, ds); err != nil {
		return err
	}

	return s.kv.Put(ctx, ports.OverrideKey, buf.Bytes())
}

// Clear implements ports.OverrideStore.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, ports.OverrideKey)
}

// Theme implements ports.PreferenceStore. An unrecognized stored value is
// reported as a validation error.
func (s *Store) Theme(ctx context.Context) (domain.Theme, error) {
	raw, err := s.kv.Get(ctx, ports.ThemeKey)
	if err != nil {
		return "", err
	}

	return domain.ParseTheme(string(raw))
}

// SetTheme implements ports.PreferenceStore.
func (s *Store) SetTheme(ctx context.Context, theme domain.Theme) error {
	return s.kv.Put(ctx, ports.ThemeKey, []byte(theme))
}

// instrumented records timing and outcome of every KV call.
type instrumented struct {
	next    KV
	metrics *metrics.Collector
}

// Instrument wraps kv with store metrics. A nil collector returns kv as is.
func Instrument(kv KV, collector *metrics.Collector) KV {
	if collector == nil {
		return kv
	}

	return &instrumented{next: kv, metrics: collector}
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	v, err := i.next.Get(ctx, key)

	// A miss is an answer, not a failure.
	recorded := err
	if domain.IsNotFound(err) {
		recorded = nil
	}

	i.metrics.StoreOperation("get", time.Since(start), recorded)

	return v, err
}

func (i *instrumented) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := i.next.Put(ctx, key, value)
	i.metrics.StoreOperation("put", time.Since(start), err)

	return err
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.next.Delete(ctx, key)
	i.metrics.StoreOperation("delete", time.Since(start), err)

	return err
}
