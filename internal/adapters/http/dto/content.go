package dto

import (
	"strings"

	"github.com/jsamuelsen/verse-service/internal/domain"
)

// ItemRequest is the body of create, update and save-edit requests. Title
// and Content apply to poems, Text to quotes; the others are ignored.
type ItemRequest struct {
	Category string `json:"category" validate:"notblank,max=64"`
	Author   string `json:"author"   validate:"max=200"`
	Date     string `json:"date"     validate:"isodate"`
	Title    string `json:"title"    validate:"max=200"`
	Content  string `json:"content"  validate:"max=20000"`
	Text     string `json:"text"     validate:"max=5000"`
}

// Fields converts the request to domain fields. Category is trimmed; text
// fields are kept as typed.
func (r *ItemRequest) Fields() domain.Fields {
	return domain.Fields{
		Category: strings.TrimSpace(r.Category),
		Author:   r.Author,
		Date:     r.Date,
		Title:    r.Title,
		Content:  r.Content,
		Text:     r.Text,
	}
}

// ColorResponse is a category's palette.
type ColorResponse struct {
	Color      string `json:"color"`
	LightColor string `json:"lightColor"`
}

// NewColorResponse converts a domain color.
func NewColorResponse(c domain.CategoryColor) ColorResponse {
	return ColorResponse{Color: c.Hex, LightColor: c.Tint}
}

// ItemResponse is one item with its badges.
type ItemResponse struct {
	ID            int64         `json:"id"`
	Variant       string        `json:"variant"`
	Title         string        `json:"title,omitempty"`
	Content       string        `json:"content,omitempty"`
	Text          string        `json:"text,omitempty"`
	Category      string        `json:"category"`
	CategoryLabel string        `json:"categoryLabel"`
	Author        string        `json:"author"`
	Date          string        `json:"date"`
	FormattedDate string        `json:"formattedDate"`
	Protected     bool          `json:"protected"`
	UserAdded     bool          `json:"userAdded"`
	Color         ColorResponse `json:"categoryColor"`
}

// NewItemResponse converts a view item. color is the item's category color.
func NewItemResponse(item *domain.ViewItem, color domain.CategoryColor) ItemResponse {
	return ItemResponse{
		ID:            item.ID,
		Variant:       string(item.Variant),
		Title:         item.Title,
		Content:       item.Content,
		Text:          item.Text,
		Category:      item.Category,
		CategoryLabel: domain.DisplayCategory(item.Category),
		Author:        item.Author,
		Date:          item.Date,
		FormattedDate: item.FormattedDate(),
		Protected:     item.Protected,
		UserAdded:     !item.Protected,
		Color:         NewColorResponse(color),
	}
}

// ListResponse is a filtered collection.
type ListResponse struct {
	Items     []ItemResponse `json:"items"`
	Count     int            `json:"count"`
	NoResults bool           `json:"noResults"`
}

// CategoryResponse is one category picker entry.
type CategoryResponse struct {
	Name    string        `json:"name"`
	Display string        `json:"display"`
	Color   ColorResponse `json:"color"`
}

// NewCategoryResponses converts picker entries.
func NewCategoryResponses(opts []domain.CategoryOption) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(opts))
	for _, o := range opts {
		out = append(out, CategoryResponse{Name: o.Name, Display: o.Display, Color: NewColorResponse(o.Color)})
	}

	return out
}

// ViewResponse is the rendered view.
type ViewResponse struct {
	Category      string                   `json:"category"`
	Query         string                   `json:"query"`
	Mode          string                   `json:"mode"`
	Theme         string                   `json:"theme"`
	Poems         []ItemResponse           `json:"poems"`
	Quotes        []ItemResponse           `json:"quotes"`
	Colors        map[string]ColorResponse `json:"colors"`
	Categories    []CategoryResponse       `json:"categories"`
	NoResults     bool                     `json:"noResults"`
	SearchPending bool                     `json:"searchPending"`
}

// NewViewResponse converts a view.
func NewViewResponse(view *domain.View, searchPending bool) ViewResponse {
	colors := make(map[string]ColorResponse, len(view.Colors))
	for name, c := range view.Colors {
		colors[name] = NewColorResponse(c)
	}

	return ViewResponse{
		Category:      view.Category,
		Query:         view.Query,
		Mode:          string(view.Mode),
		Theme:         string(view.Theme),
		Poems:         itemResponses(view.Poems, view.Colors),
		Quotes:        itemResponses(view.Quotes, view.Colors),
		Colors:        colors,
		Categories:    NewCategoryResponses(view.Categories),
		NoResults:     view.NoResults,
		SearchPending: searchPending,
	}
}

func itemResponses(items []domain.ViewItem, colors map[string]domain.CategoryColor) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, NewItemResponse(&items[i], colors[items[i].Category]))
	}

	return out
}

// ListQuery holds the filters of a collection listing.
type ListQuery struct {
	Category string `form:"category" json:"category" validate:"max=64"`
	Query    string `form:"q"        json:"q"        validate:"max=200"`
}

// FilterState converts the query to a filter; an empty category means all.
func (q *ListQuery) FilterState() domain.FilterState {
	category := strings.TrimSpace(q.Category)
	if category == "" {
		category = domain.CategoryAll
	}

	return domain.FilterState{Category: category, Query: q.Query}
}

// CategoryRequest selects a category; "" and "all" select everything.
type CategoryRequest struct {
	Category string `json:"category" validate:"max=64"`
}

// SearchRequest carries typed search input.
type SearchRequest struct {
	Query string `json:"query" validate:"max=200"`

	// Immediate skips the debounce window.
	Immediate bool `json:"immediate"`
}

// ModeRequest switches the view mode.
type ModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=poems quotes both"`
}

// ThemeRequest sets the theme. An empty body toggles instead.
type ThemeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

// ThemeResponse reports the active theme.
type ThemeResponse struct {
	Theme string `json:"theme"`
}

// SessionResponse reports a variant's edit session.
type SessionResponse struct {
	Variant string `json:"variant"`
	Status  string `json:"status"`
	ID      *int64 `json:"id,omitempty"`
}

// TextResponse is the plain-text rendering of an item.
type TextResponse struct {
	Text string `json:"text"`
}
