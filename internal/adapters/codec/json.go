package codec

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/jsamuelsen/verse-service/internal/domain"
)

// JSON encodes documents as two-space indented JSON, the layout of the
// published content.json.
type JSON struct{}

// NewJSON creates a JSON codec.
func NewJSON() *JSON {
	return &JSON{}
}

// Encode writes ds to w.
func (JSON) Encode(w io.Writer, ds *domain.Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(toDocument(ds.Clone())); err != nil {
		return fmt.Errorf("encoding content document: %w", err)
	}

	return nil
}

// Decode reads a document from r. Unknown fields are ignored.
func (JSON) Decode(r io.Reader) (*domain.Dataset, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding content document: %w", err)
	}

	return doc.toDataset(), nil
}
