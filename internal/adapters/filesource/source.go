// Package filesource reads the canonical dataset from a local file.
package filesource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jsamuelsen/verse-service/internal/domain"
	"github.com/jsamuelsen/verse-service/internal/ports"
)

// Source is a ports.DatasetSource backed by a file. Relative paths resolve
// against the working directory.
type Source struct {
	path  string
	codec ports.DatasetCodec
}

var _ ports.DatasetSource = (*Source)(nil)

// New creates a file source.
func New(path string, codec ports.DatasetCodec) *Source {
	return &Source{path: path, codec: codec}
}

// FetchDataset implements ports.DatasetSource.
func (s *Source) FetchDataset(ctx context.Context) (*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NewNotFoundError("file", s.path)
	}

	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	return s.codec.Decode(f)
}

// Describe implements ports.DatasetSource.
func (s *Source) Describe() string {
	return s.path
}
