// Package domain contains core business entities and rules.
package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date layout used for item dates.
const DateLayout = "2006-01-02"

// Variant identifies which collection an item belongs to.
type Variant string

const (
	// VariantPoem is the poems collection.
	VariantPoem Variant = "poem"

	// VariantQuote is the quotes collection.
	VariantQuote Variant = "quote"
)

// Variants lists every variant in display order.
var Variants = []Variant{VariantPoem, VariantQuote}

// ParseVariant accepts both singular and plural forms ("poem", "poems").
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "poem", "poems":
		return VariantPoem, nil
	case "quote", "quotes":
		return VariantQuote, nil
	default:
		return "", NewValidationErrorWithValue("variant", "must be one of: poems quotes", s)
	}
}

// Plural returns the collection name ("poems", "quotes").
func (v Variant) Plural() string {
	return string(v) + "s"
}

// Item is a single poem or quote.
// Title and Content are only meaningful for poems; Text only for quotes.
type Item struct {
	ID       int64
	Variant  Variant
	Category string
	Author   string
	Date     string

	Title   string
	Content string

	Text string
}

// Fields carries the editable values of an item.
type Fields struct {
	Category string
	Author   string
	Date     string
	Title    string
	Content  string
	Text     string
}

// NewItem builds an item of the given variant from fields, dropping fields
// that do not belong to the variant.
func NewItem(variant Variant, id int64, f Fields) Item {
	item := Item{
		ID:       id,
		Variant:  variant,
		Category: f.Category,
		Author:   f.Author,
		Date:     f.Date,
	}

	switch variant {
	case VariantPoem:
		item.Title = f.Title
		item.Content = f.Content
	case VariantQuote:
		item.Text = f.Text
	}

	return item
}

// Body returns the main text: content for poems, text for quotes.
func (i *Item) Body() string {
	if i.Variant == VariantQuote {
		return i.Text
	}

	return i.Content
}

// PlainText renders the item the way it is copied to a clipboard.
func (i *Item) PlainText() string {
	if i.Variant == VariantQuote {
		return fmt.Sprintf("\"%s\"\n\n- %s", i.Text, i.Author)
	}

	return fmt.Sprintf("%s\n\n%s\n\n- %s", i.Title, i.Content, i.Author)
}

// FormattedDate renders the date as "January 2, 2006".
// Unparseable dates are returned unchanged.
func (i *Item) FormattedDate() string {
	t, err := time.Parse(DateLayout, i.Date)
	if err != nil {
		return i.Date
	}

	return t.Format("January 2, 2006")
}

// Validate checks the data model invariants: a non-empty category and, when
// present, an ISO calendar date.
func (f *Fields) Validate() error {
	if strings.TrimSpace(f.Category) == "" {
		return NewValidationError("category", "must not be empty")
	}

	if f.Date != "" {
		if _, err := time.Parse(DateLayout, f.Date); err != nil {
			return NewValidationErrorWithValue("date", "must be a date in YYYY-MM-DD format", f.Date)
		}
	}

	return nil
}

// Dataset is the two-collection document: poems and quotes.
type Dataset struct {
	Poems  []Item
	Quotes []Item
}

// Collection returns the items of the given variant.
func (d *Dataset) Collection(v Variant) []Item {
	if v == VariantQuote {
		return d.Quotes
	}

	return d.Poems
}

// SetCollection replaces the items of the given variant.
func (d *Dataset) SetCollection(v Variant, items []Item) {
	if v == VariantQuote {
		d.Quotes = items
		return
	}

	d.Poems = items
}

// Find returns the index of the item with id in the variant's collection, or -1.
func (d *Dataset) Find(v Variant, id int64) int {
	for i := range d.Collection(v) {
		if d.Collection(v)[i].ID == id {
			return i
		}
	}

	return -1
}

// Contains reports whether the variant's collection holds an item with id.
func (d *Dataset) Contains(v Variant, id int64) bool {
	return d.Find(v, id) >= 0
}

// MaxID returns the largest id in the variant's collection, or 0 when empty.
func (d *Dataset) MaxID(v Variant) int64 {
	var highest int64
	for _, item := range d.Collection(v) {
		if item.ID > highest {
			highest = item.ID
		}
	}

	return highest
}

// Clone returns a deep copy. Items hold only value fields, so copying the
// slices is enough.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return &Dataset{}
	}

	return &Dataset{
		Poems:  slices.Clone(d.Poems),
		Quotes: slices.Clone(d.Quotes),
	}
}

// Normalize stamps every item with the variant of the collection it lives in.
func (d *Dataset) Normalize() {
	for _, v := range Variants {
		items := d.Collection(v)
		for i := range items {
			items[i].Variant = v
		}
	}
}

// DuplicateID returns the first id appearing twice in the variant's collection.
func (d *Dataset) DuplicateID(v Variant) (int64, bool) {
	seen := make(map[int64]struct{}, len(d.Collection(v)))
	for _, item := range d.Collection(v) {
		if _, ok := seen[item.ID]; ok {
			return item.ID, true
		}

		seen[item.ID] = struct{}{}
	}

	return 0, false
}
