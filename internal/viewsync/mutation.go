package viewsync

import "github.com/abelbrown/postexplorer/internal/filter"

// Mutation is one user-driven change to the filter state.
type Mutation func(*filter.State)

// SelectPrimary sets the homework facet as a dropdown does; "" clears it.
func SelectPrimary(v string) Mutation {
	return func(s *filter.State) { s.Primary = v }
}

// TogglePrimary is a tag click: selecting replaces any sibling, clicking
// the active tag clears it.
func TogglePrimary(v string) Mutation {
	return func(s *filter.State) { s.Primary = toggle(s.Primary, v) }
}

// SelectSecondary sets the model facet; "" clears it.
func SelectSecondary(v string) Mutation {
	return func(s *filter.State) { s.Secondary = v }
}

// ToggleSecondary is TogglePrimary for the model facet.
func ToggleSecondary(v string) Mutation {
	return func(s *filter.State) { s.Secondary = toggle(s.Secondary, v) }
}

func toggle(cur, v string) string {
	if cur == v {
		return ""
	}
	return v
}

// SetSearch replaces the search text.
func SetSearch(term string) Mutation {
	return func(s *filter.State) { s.Search = term }
}

// ClearSearch empties the search text.
func ClearSearch() Mutation {
	return func(s *filter.State) { s.Search = "" }
}

// SetQuick selects a quick filter.
func SetQuick(q filter.QuickFilter) Mutation {
	return func(s *filter.State) { s.Quick = q }
}

// SetSort selects a sort order.
func SetSort(o filter.SortOrder) Mutation {
	return func(s *filter.State) { s.Sort = o }
}

// SetView selects a layout.
func SetView(v filter.ViewMode) Mutation {
	return func(s *filter.State) { s.View = v }
}

// Reset clears every filter and the sort. The layout is kept.
func Reset() Mutation {
	return func(s *filter.State) {
		view := s.View
		*s = filter.Default()
		s.View = view
	}
}
