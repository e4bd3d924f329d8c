package codec

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/jsamuelsen/verse-service/internal/domain"
)

// YAML encodes documents as block-style YAML with literal multi-line poems.
type YAML struct{}

// NewYAML creates a YAML codec.
func NewYAML() *YAML {
	return &YAML{}
}

// Encode writes ds to w.
func (YAML) Encode(w io.Writer, ds *domain.Dataset) error {
	enc := yaml.NewEncoder(w, yaml.Indent(2), yaml.IndentSequence(true), yaml.UseLiteralStyleIfMultiline(true))

	if err := enc.Encode(toDocument(ds.Clone())); err != nil {
		return fmt.Errorf("encoding content document: %w", err)
	}

	return enc.Close()
}

// Decode reads a document from r.
func (YAML) Decode(r io.Reader) (*domain.Dataset, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding content document: %w", err)
	}

	return doc.toDataset(), nil
}
