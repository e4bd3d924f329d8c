// Package codec converts datasets to and from the two-collection document
// ({"poems": [...], "quotes": [...]}) in JSON and YAML.
package codec

import (
	"strings"

	"github.com/jsamuelsen/verse-service/internal/domain"
	"github.com/jsamuelsen/verse-service/internal/ports"
)

// Format names a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Filename is the export file name for the format ("content.json").
func (f Format) Filename() string {
	return "content." + string(f)
}

// ContentType is the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}

	return "application/json"
}

// ParseFormat accepts "json", "yaml" and "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", domain.NewValidationErrorWithValue("format", "must be one of: json yaml", s)
	}
}

// ForFormat returns the codec for f.
func ForFormat(f Format) ports.DatasetCodec {
	if f == FormatYAML {
		return NewYAML()
	}

	return NewJSON()
}

// document is the wire shape shared by both encodings.
type document struct {
	Poems  []poemRecord  `json:"poems"  yaml:"poems"`
	Quotes []quoteRecord `json:"quotes" yaml:"quotes"`
}

type poemRecord struct {
	ID       recordID `json:"id"       yaml:"id"`
	Title    string   `json:"title"    yaml:"title"`
	Content  string   `json:"content"  yaml:"content"`
	Category string   `json:"category" yaml:"category"`
	Author   string   `json:"author"   yaml:"author"`
	Date     string   `json:"date"     yaml:"date"`
}

type quoteRecord struct {
	ID       recordID `json:"id"       yaml:"id"`
	Text     string   `json:"text"     yaml:"text"`
	Category string   `json:"category" yaml:"category"`
	Author   string   `json:"author"   yaml:"author"`
	Date     string   `json:"date"     yaml:"date"`
}

// toDocument never produces null collections.
func toDocument(ds *domain.Dataset) document {
	doc := document{
		Poems:  make([]poemRecord, 0, len(ds.Poems)),
		Quotes: make([]quoteRecord, 0, len(ds.Quotes)),
	}

	for _, p := range ds.Poems {
		doc.Poems = append(doc.Poems, poemRecord{
			ID:       recordID(p.ID),
			Title:    p.Title,
			Content:  p.Content,
			Category: p.Category,
			Author:   p.Author,
			Date:     p.Date,
		})
	}

	for _, q := range ds.Quotes {
		doc.Quotes = append(doc.Quotes, quoteRecord{
			ID:       recordID(q.ID),
			Text:     q.Text,
			Category: q.Category,
			Author:   q.Author,
			Date:     q.Date,
		})
	}

	return doc
}

func (d *document) toDataset() *domain.Dataset {
	ds := &domain.Dataset{
		Poems:  make([]domain.Item, 0, len(d.Poems)),
		Quotes: make([]domain.Item, 0, len(d.Quotes)),
	}

	for _, p := range d.Poems {
		ds.Poems = append(ds.Poems, domain.Item{
			ID:       int64(p.ID),
			Variant:  domain.VariantPoem,
			Title:    p.Title,
			Content:  p.Content,
			Category: p.Category,
			Author:   p.Author,
			Date:     p.Date,
		})
	}

	for _, q := range d.Quotes {
		ds.Quotes = append(ds.Quotes, domain.Item{
			ID:       int64(q.ID),
			Variant:  domain.VariantQuote,
			Text:     q.Text,
			Category: q.Category,
			Author:   q.Author,
			Date:     q.Date,
		})
	}

	return ds
}
