package domain

import (
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CategoryAll is the category sentinel that matches every item.
const CategoryAll = "all"

// ViewMode selects which collections are displayed.
type ViewMode string

const (
	ViewPoems  ViewMode = "poems"
	ViewQuotes ViewMode = "quotes"
	ViewBoth   ViewMode = "both"
)

// ParseViewMode validates a view mode string.
func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ViewPoems, ViewQuotes, ViewBoth:
		return m, nil
	default:
		return "", NewValidationErrorWithValue("mode", "must be one of: poems quotes both", s)
	}
}

// Shows reports whether the mode displays the variant's collection.
func (m ViewMode) Shows(v Variant) bool {
	switch m {
	case ViewBoth:
		return true
	case ViewPoems:
		return v == VariantPoem
	case ViewQuotes:
		return v == VariantQuote
	default:
		return false
	}
}

// Theme is the display theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme validates a theme string.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", NewValidationErrorWithValue("theme", "must be one of: light dark", s)
	}
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}

	return ThemeDark
}

// FilterState is the pair of inputs that decide item visibility.
type FilterState struct {
	// Category is an exact category label or CategoryAll.
	Category string

	// Query is the raw search text. Matching is case-insensitive.
	Query string
}

// MatchesCategory reports whether item passes the category predicate.
func (s FilterState) MatchesCategory(item *Item) bool {
	return s.Category == CategoryAll || s.Category == "" || item.Category == s.Category
}

// MatchesQuery reports whether item passes the search predicate.
func (s FilterState) MatchesQuery(item *Item) bool {
	if s.Query == "" {
		return true
	}

	return strings.Contains(searchText(item), strings.ToLower(s.Query))
}

// Matches combines both predicates.
func (s FilterState) Matches(item *Item) bool {
	return s.MatchesCategory(item) && s.MatchesQuery(item)
}

// searchText joins the searchable fields in a fixed order. Fields that do not
// apply to the variant are empty and still contribute a separator.
func searchText(item *Item) string {
	return strings.ToLower(strings.Join([]string{
		item.Title,
		item.Body(),
		item.Author,
		item.Category,
	}, " "))
}

// Filter returns the items matching state, preserving input order.
// The result is never nil.
func Filter(items []Item, state FilterState) []Item {
	out := make([]Item, 0, len(items))
	for i := range items {
		if state.Matches(&items[i]) {
			out = append(out, items[i])
		}
	}

	return out
}

// NoResults reports whether every collection displayed by mode is empty.
func NoResults(mode ViewMode, poems, quotes []Item) bool {
	switch mode {
	case ViewPoems:
		return len(poems) == 0
	case ViewQuotes:
		return len(quotes) == 0
	default:
		return len(poems) == 0 && len(quotes) == 0
	}
}

// Categories returns the distinct categories of both collections, sorted.
func Categories(ds *Dataset) []string {
	seen := make(map[string]struct{})
	for _, v := range Variants {
		for _, item := range ds.Collection(v) {
			seen[item.Category] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}

	slices.Sort(out)

	return out
}

// DisplayCategory capitalizes the first letter and leaves the rest as stored.
func DisplayCategory(category string) string {
	r, size := utf8.DecodeRuneInString(category)
	if r == utf8.RuneError {
		return category
	}

	// Casers carry state and are not shared across goroutines.
	return cases.Upper(language.Und).String(string(r)) + category[size:]
}
