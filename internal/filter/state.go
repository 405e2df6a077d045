package filter

// QuickFilter is a named preset predicate applied after facets and search.
type QuickFilter string

const (
	QuickAll        QuickFilter = "all"
	QuickRecent     QuickFilter = "recent"
	QuickPopular    QuickFilter = "popular"
	QuickBookmarked QuickFilter = "bookmarked"
)

// QuickFilters lists the modes in cycle order.
var QuickFilters = []QuickFilter{QuickAll, QuickRecent, QuickPopular, QuickBookmarked}

// ParseQuick maps a query value to a mode.
func ParseQuick(s string) (QuickFilter, bool) {
	for _, q := range QuickFilters {
		if string(q) == s {
			return q, true
		}
	}
	return QuickAll, false
}

func (q QuickFilter) String() string { return string(q) }

// SortOrder selects the comparator.
type SortOrder string

const (
	SortNewest   SortOrder = "newest"
	SortOldest   SortOrder = "oldest"
	SortHomework SortOrder = "homework"
	SortModel    SortOrder = "model"
)

// SortOrders lists the orders in cycle order.
var SortOrders = []SortOrder{SortNewest, SortOldest, SortHomework, SortModel}

// ParseSort maps a query value to an order.
func ParseSort(s string) (SortOrder, bool) {
	for _, o := range SortOrders {
		if string(o) == s {
			return o, true
		}
	}
	return SortNewest, false
}

func (o SortOrder) String() string { return string(o) }

// ViewMode is the result layout. It is not a filter but travels with one.
type ViewMode string

const (
	ViewGrid    ViewMode = "grid"
	ViewList    ViewMode = "list"
	ViewCompact ViewMode = "compact"
)

// ViewModes lists the layouts in cycle order.
var ViewModes = []ViewMode{ViewGrid, ViewList, ViewCompact}

// ParseView maps a query value to a layout.
func ParseView(s string) (ViewMode, bool) {
	for _, v := range ViewModes {
		if string(v) == s {
			return v, true
		}
	}
	return ViewGrid, false
}

func (v ViewMode) String() string { return string(v) }

// State is the full set of active criteria. An empty Primary or Secondary
// means the facet is unset; facet values are trimmed and never empty, so
// the zero string cannot collide with a real value.
type State struct {
	Primary   string
	Secondary string
	Search    string
	Quick     QuickFilter
	Sort      SortOrder
	View      ViewMode
}

// Default is the state before any input: nothing selected, newest first, grid.
func Default() State {
	return State{Quick: QuickAll, Sort: SortNewest, View: ViewGrid}
}

// Normalize replaces unrecognised enum values with their defaults.
func (s State) Normalize() State {
	if _, ok := ParseQuick(string(s.Quick)); !ok {
		s.Quick = QuickAll
	}
	if _, ok := ParseSort(string(s.Sort)); !ok {
		s.Sort = SortNewest
	}
	if _, ok := ParseView(string(s.View)); !ok {
		s.View = ViewGrid
	}
	return s
}

// SearchTerm is the folded form of Search used for matching.
func (s State) SearchTerm() string {
	return fold(s.Search)
}

// IsDefault reports whether no criterion deviates from Default.
func (s State) IsDefault() bool {
	return s.Normalize() == Default()
}

// next returns the element after cur in list, wrapping around.
func next[T comparable](list []T, cur T) T {
	for i, v := range list {
		if v == cur {
			return list[(i+1)%len(list)]
		}
	}
	return list[0]
}

// Next cycles the quick filter.
func (q QuickFilter) Next() QuickFilter { return next(QuickFilters, q) }

// Next cycles the sort order.
func (o SortOrder) Next() SortOrder { return next(SortOrders, o) }

// Next cycles the view mode.
func (v ViewMode) Next() ViewMode { return next(ViewModes, v) }
