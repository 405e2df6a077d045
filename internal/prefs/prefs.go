// Package prefs holds the user's bookmarks and theme choice.
//
// Preferences are read once at startup and written back synchronously on
// every change. Reading never fails: a missing, unreadable or corrupt value
// falls back to the empty set or the "auto" theme.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/abelbrown/postexplorer/internal/logging"
	"github.com/abelbrown/postexplorer/internal/store"
)

// Storage keys.
const (
	BookmarksKey = "llm-explorer-bookmarks"
	ThemeKey     = "spa-theme-mode"
)

// Theme is the colour scheme preference.
type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

var themes = []Theme{ThemeAuto, ThemeLight, ThemeDark}

// ParseTheme maps a stored value to a Theme.
func ParseTheme(s string) (Theme, bool) {
	for _, t := range themes {
		if string(t) == s {
			return t, true
		}
	}
	return ThemeAuto, false
}

// Next cycles auto → light → dark → auto.
func (t Theme) Next() Theme {
	for i, v := range themes {
		if v == t {
			return themes[(i+1)%len(themes)]
		}
	}
	return ThemeAuto
}

func (t Theme) String() string { return string(t) }

// KV is the persistent backing. *store.Store satisfies it.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

var _ KV = (*store.Store)(nil)

// Preferences is the in-memory copy. Not safe for concurrent use; the UI
// event loop is its only writer.
type Preferences struct {
	kv        KV
	bookmarks map[string]bool
	theme     Theme
}

// Load reads both preferences from kv.
func Load(kv KV) *Preferences {
	p := &Preferences{kv: kv, bookmarks: make(map[string]bool), theme: ThemeAuto}
	if kv == nil {
		return p
	}

	if raw, err := kv.Get(BookmarksKey); err == nil {
		keys, err := decodeBookmarks(raw)
		if err != nil {
			logging.Warn("ignoring corrupt bookmarks", "error", err)
		}
		for _, k := range keys {
			p.bookmarks[k] = true
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		logging.Warn("could not read bookmarks", "error", err)
	}

	if raw, err := kv.Get(ThemeKey); err == nil {
		if t, ok := ParseTheme(raw); ok {
			p.theme = t
		} else {
			logging.Warn("ignoring unknown theme", "value", raw)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		logging.Warn("could not read theme", "error", err)
	}

	return p
}

// decodeBookmarks accepts a JSON array of strings. Numbers are kept in
// their canonical string form; other element types are skipped.
func decodeBookmarks(raw string) ([]string, error) {
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode bookmarks: %w", err)
	}
	keys := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case string:
			if v != "" {
				keys = append(keys, v)
			}
		case float64:
			keys = append(keys, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return keys, nil
}

// IsBookmarked reports whether key is bookmarked.
func (p *Preferences) IsBookmarked(key string) bool {
	return p.bookmarks[key]
}

// Bookmarks returns the bookmarked keys in sorted order.
func (p *Preferences) Bookmarks() []string {
	keys := make([]string, 0, len(p.bookmarks))
	for k := range p.bookmarks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// BookmarkSet returns a copy of the set for use as a filter input.
func (p *Preferences) BookmarkSet() map[string]bool {
	set := make(map[string]bool, len(p.bookmarks))
	for k := range p.bookmarks {
		set[k] = true
	}
	return set
}

// ToggleBookmark flips key and persists the set. It reports the new state.
// The in-memory change stands even when the write fails.
func (p *Preferences) ToggleBookmark(key string) (bool, error) {
	on := !p.bookmarks[key]
	if on {
		p.bookmarks[key] = true
	} else {
		delete(p.bookmarks, key)
	}
	return on, p.saveBookmarks()
}

// ClearBookmarks removes every bookmark.
func (p *Preferences) ClearBookmarks() error {
	p.bookmarks = make(map[string]bool)
	return p.saveBookmarks()
}

func (p *Preferences) saveBookmarks() error {
	if p.kv == nil {
		return nil
	}
	data, err := json.Marshal(p.Bookmarks())
	if err != nil {
		return fmt.Errorf("encode bookmarks: %w", err)
	}
	if err := p.kv.Set(BookmarksKey, string(data)); err != nil {
		return fmt.Errorf("save bookmarks: %w", err)
	}
	return nil
}

// Theme returns the current theme.
func (p *Preferences) Theme() Theme { return p.theme }

// SetTheme stores mode. "auto" is the absence of a stored value.
func (p *Preferences) SetTheme(mode Theme) error {
	if _, ok := ParseTheme(string(mode)); !ok {
		return fmt.Errorf("unknown theme %q", mode)
	}
	p.theme = mode
	if p.kv == nil {
		return nil
	}
	if mode == ThemeAuto {
		if err := p.kv.Delete(ThemeKey); err != nil {
			return fmt.Errorf("clear theme: %w", err)
		}
		return nil
	}
	if err := p.kv.Set(ThemeKey, string(mode)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}
