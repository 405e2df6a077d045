package viewsync

import (
	"fmt"
	"strings"

	"github.com/abelbrown/postexplorer/internal/filter"
	"github.com/abelbrown/postexplorer/internal/post"
)

// Renderer draws controls and results. Implementations must not call back
// into the Synchronizer.
type Renderer interface {
	RenderControls(Controls)
	RenderResults(Results)
}

// Location is the shareable address of the current view.
type Location interface {
	Query() string
	// ReplaceQuery overwrites the current query without recording history.
	ReplaceQuery(string)
}

// Tag is one selectable facet value.
type Tag struct {
	Value  string
	Active bool
}

// Controls is everything a control surface needs to mirror the state.
type Controls struct {
	Primary   []Tag
	Secondary []Tag

	SelectedPrimary   string
	SelectedSecondary string
	Search            string
	Quick             filter.QuickFilter
	Sort              filter.SortOrder
	View              filter.ViewMode
}

// ActivePrimary returns the index of the active primary tag, or -1.
func (c Controls) ActivePrimary() int { return activeIndex(c.Primary) }

// ActiveSecondary returns the index of the active secondary tag, or -1.
func (c Controls) ActiveSecondary() int { return activeIndex(c.Secondary) }

func activeIndex(tags []Tag) int {
	for i, t := range tags {
		if t.Active {
			return i
		}
	}
	return -1
}

// Summary describes a result set in words.
type Summary struct {
	Count   int
	Text    string
	Filters string
}

// Results is the ordered subset plus its summary.
type Results struct {
	Posts   []post.Post
	View    filter.ViewMode
	Summary Summary
}

// Summarize builds the count line and the active-filter description.
func Summarize(count int, s filter.State) Summary {
	noun := "posts"
	if count == 1 {
		noun = "post"
	}

	var active []string
	if s.Primary != "" {
		active = append(active, s.Primary)
	}
	if s.Secondary != "" {
		active = append(active, s.Secondary)
	}
	if term := strings.TrimSpace(s.Search); term != "" {
		active = append(active, `"`+term+`"`)
	}
	if s.Quick != filter.QuickAll && s.Quick != "" {
		active = append(active, s.Quick.String())
	}

	filters := "All posts"
	if len(active) > 0 {
		filters = strings.Join(active, ", ")
	}
	return Summary{
		Count:   count,
		Text:    fmt.Sprintf("%d %s", count, noun),
		Filters: filters,
	}
}

// MemoryLocation is an in-process Location.
type MemoryLocation struct {
	query    string
	replaced int
}

// NewMemoryLocation starts at the given query.
func NewMemoryLocation(query string) *MemoryLocation {
	return &MemoryLocation{query: strings.TrimPrefix(query, "?")}
}

func (l *MemoryLocation) Query() string { return l.query }

func (l *MemoryLocation) ReplaceQuery(q string) {
	l.query = q
	l.replaced++
}

// Replacements counts ReplaceQuery calls.
func (l *MemoryLocation) Replacements() int { return l.replaced }
