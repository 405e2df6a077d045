// Package facet derives the selectable homework and model values from a
// dataset.
package facet

import (
	"cmp"
	"slices"
	"strings"

	"github.com/abelbrown/postexplorer/internal/filter"
	"github.com/abelbrown/postexplorer/internal/post"
)

// Index holds the distinct facet values present in a dataset.
//
// Primary and Secondary contain trimmed, non-empty values exactly as they
// appear in the data; a post with no homework or model contributes nothing.
// The literal "Unknown" is listed only when some record carries it.
type Index struct {
	Primary   map[string]bool
	Secondary map[string]bool

	// Whether any post resolves to "Unknown" for each facet.
	unknownPrimary   bool
	unknownSecondary bool
}

// Build scans posts once.
func Build(posts []post.Post) Index {
	idx := Index{
		Primary:   make(map[string]bool),
		Secondary: make(map[string]bool),
	}
	for _, p := range posts {
		if hw := p.RawHomework(); hw != "" {
			idx.Primary[hw] = true
		}
		if m := p.RawModel(); m != "" {
			idx.Secondary[m] = true
		}
		if p.Homework() == post.Unknown {
			idx.unknownPrimary = true
		}
		if p.Model() == post.Unknown {
			idx.unknownSecondary = true
		}
	}
	return idx
}

// SortedPrimary orders homework values by their leading number, then by
// text for ties, so HW2 comes before HW10.
func (idx Index) SortedPrimary() []string {
	values := setToSlice(idx.Primary)
	slices.SortStableFunc(values, func(a, b string) int {
		if d := cmp.Compare(filter.LeadingNumber(a), filter.LeadingNumber(b)); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return values
}

// SortedSecondary orders model values by English collation.
func (idx Index) SortedSecondary() []string {
	return collated(setToSlice(idx.Secondary))
}

// ValidPrimary reports whether v can be selected as a homework filter.
// "Unknown" is valid when at least one post falls back to it.
func (idx Index) ValidPrimary(v string) bool {
	return idx.Primary[v] || (v == post.Unknown && idx.unknownPrimary)
}

// ValidSecondary is ValidPrimary for models.
func (idx Index) ValidSecondary(v string) bool {
	return idx.Secondary[v] || (v == post.Unknown && idx.unknownSecondary)
}

// ModelsFor lists the models used for one homework, collated.
func ModelsFor(posts []post.Post, hw string) []string {
	seen := make(map[string]bool)
	for _, p := range posts {
		if p.RawHomework() != hw {
			continue
		}
		if m := p.RawModel(); m != "" {
			seen[m] = true
		}
	}
	return collated(setToSlice(seen))
}

func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	// map order is random; fix a base order before any stable sort
	slices.Sort(out)
	return out
}

func collated(values []string) []string {
	c := filter.NewCollator()
	slices.SortStableFunc(values, func(a, b string) int {
		return c.CompareString(a, b)
	})
	return values
}
