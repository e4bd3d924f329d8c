package domain

// ViewItem is an item as displayed, with its protection badge.
type ViewItem struct {
	Item
	Protected bool
}

// CategoryOption is one entry of the category picker.
type CategoryOption struct {
	Name    string
	Display string
	Color   CategoryColor
}

// View is the result of a recompute: everything a renderer needs.
type View struct {
	Category string
	Query    string
	Mode     ViewMode
	Theme    Theme

	Poems  []ViewItem
	Quotes []ViewItem

	// Colors holds one entry per distinct category among the visible items.
	Colors map[string]CategoryColor

	Categories []CategoryOption
	NoResults  bool
}
