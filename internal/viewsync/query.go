package viewsync

import (
	"net/url"
	"strings"

	"github.com/abelbrown/postexplorer/internal/filter"
)

// Query keys shared by the location line, --link and the HTTP surface.
const (
	KeyPrimary   = "hw"
	KeySecondary = "model"
	KeySearch    = "search"
	KeyQuick     = "filter"
	KeySort      = "sort"
	KeyView      = "view"
)

// Encode writes the non-default fields of s as a query string. Keys come
// out in sorted order, so equal states always encode identically.
func Encode(s filter.State) string {
	s = s.Normalize()
	v := url.Values{}
	if s.Primary != "" {
		v.Set(KeyPrimary, s.Primary)
	}
	if s.Secondary != "" {
		v.Set(KeySecondary, s.Secondary)
	}
	if s.Search != "" {
		v.Set(KeySearch, s.Search)
	}
	if s.Quick != filter.QuickAll {
		v.Set(KeyQuick, s.Quick.String())
	}
	if s.Sort != filter.SortNewest {
		v.Set(KeySort, s.Sort.String())
	}
	if s.View != filter.ViewGrid {
		v.Set(KeyView, s.View.String())
	}
	return v.Encode()
}

// Decode starts from the default state and overwrites each recognised key.
// Unknown keys, empty facet values and invalid enum values are ignored.
func Decode(query string) filter.State {
	query = strings.TrimPrefix(query, "?")
	// ParseQuery keeps every pair it could parse before a malformed one.
	v, _ := url.ParseQuery(query)
	return FromValues(v)
}

// FromValues is Decode for already-parsed values.
func FromValues(v url.Values) filter.State {
	s := filter.Default()
	if hw := v.Get(KeyPrimary); hw != "" {
		s.Primary = hw
	}
	if m := v.Get(KeySecondary); m != "" {
		s.Secondary = m
	}
	if v.Has(KeySearch) {
		s.Search = v.Get(KeySearch)
	}
	if q, ok := filter.ParseQuick(v.Get(KeyQuick)); ok {
		s.Quick = q
	}
	if o, ok := filter.ParseSort(v.Get(KeySort)); ok {
		s.Sort = o
	}
	if vm, ok := filter.ParseView(v.Get(KeyView)); ok {
		s.View = vm
	}
	return s
}
