// Package filter is the explorer's filter and sort engine.
//
// Compute is a pure function: posts and state in, a freshly allocated,
// ordered subset out. Nothing here reads the clock, the environment or any
// package-level mutable state; outside facts arrive through Env.
package filter

import (
	"cmp"
	"errors"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/abelbrown/postexplorer/internal/post"
)

// DefaultRecentWindow is how far back the "recent" quick filter reaches.
const DefaultRecentWindow = 7 * 24 * time.Hour

// DefaultPopular is the model allow-list for the "popular" quick filter.
var DefaultPopular = []string{"GPT-4o", "GPT-5", "Claude", "Gemini", "DeepSeek", "Llama"}

// Env carries the facts a predicate needs beyond the post itself.
type Env struct {
	Now          time.Time
	RecentWindow time.Duration
	Popular      []string
	Bookmarks    map[string]bool
}

// NewEnv returns an Env with the default window and allow-list.
func NewEnv(now time.Time, bookmarks map[string]bool) Env {
	return Env{
		Now:          now,
		RecentWindow: DefaultRecentWindow,
		Popular:      DefaultPopular,
		Bookmarks:    bookmarks,
	}
}

// Compute filters and sorts posts. The input slice is never modified and
// the result is always non-nil.
func Compute(posts []post.Post, s State, env Env) []post.Post {
	s = s.Normalize()
	m := newMatcher(s, env)

	result := make([]post.Post, 0, len(posts))
	for _, p := range posts {
		if m.keep(p) {
			result = append(result, p)
		}
	}

	Sort(result, s.Sort)
	return result
}

type matcher struct {
	primary   string
	secondary string
	term      string
	quick     QuickFilter
	env       Env
	popular   map[string]bool
}

func newMatcher(s State, env Env) matcher {
	m := matcher{
		primary:   s.Primary,
		secondary: s.Secondary,
		term:      s.SearchTerm(),
		quick:     s.Quick,
		env:       env,
	}
	if s.Quick == QuickPopular {
		m.popular = make(map[string]bool, len(env.Popular))
		for _, name := range env.Popular {
			m.popular[strings.ToLower(strings.TrimSpace(name))] = true
		}
	}
	return m
}

func (m matcher) keep(p post.Post) bool {
	if m.primary != "" && p.Homework() != m.primary {
		return false
	}
	if m.secondary != "" && p.Model() != m.secondary {
		return false
	}
	if m.term != "" && !MatchSearch(p, m.term) {
		return false
	}
	return m.quickMatch(p)
}

func (m matcher) quickMatch(p post.Post) bool {
	switch m.quick {
	case QuickRecent:
		t, ok := p.Created()
		if !ok {
			return false
		}
		window := m.env.RecentWindow
		if window <= 0 {
			window = DefaultRecentWindow
		}
		return !t.Before(m.env.Now.Add(-window)) && !t.After(m.env.Now)
	case QuickPopular:
		return m.popular[strings.ToLower(p.Model())]
	case QuickBookmarked:
		return m.env.Bookmarks[p.Key()]
	default:
		return true
	}
}

// MatchSearch reports whether the folded term occurs inside the title,
// body, author or model of p. Each field is tested on its own, so a match
// never spans two fields.
func MatchSearch(p post.Post, term string) bool {
	if term == "" {
		return true
	}
	for _, field := range [...]string{p.RawTitle(), p.Body(), p.RawAuthor(), p.RawModel()} {
		if field != "" && strings.Contains(fold(field), term) {
			return true
		}
	}
	return false
}

// fold lowercases and NFC-normalises s for comparison.
func fold(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}

var digitRun = regexp.MustCompile(`\d+`)

// LeadingNumber returns the first run of digits in s, or 0 when there is none.
// Runs too large for an int clamp to math.MaxInt.
func LeadingNumber(s string) int {
	m := digitRun.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt
	}
	if err != nil {
		return 0
	}
	return n
}

// NewCollator returns the collator used for model ordering. Collators keep
// internal buffers, so each caller gets its own.
func NewCollator() *collate.Collator {
	return collate.New(language.English)
}

type sortKey struct {
	p     post.Post
	t     time.Time
	dated bool
	n     int
	s     string
}

// Sort orders posts in place by o. The sort is stable for every order.
func Sort(posts []post.Post, o SortOrder) {
	keys := make([]sortKey, len(posts))
	for i, p := range posts {
		k := sortKey{p: p}
		switch o {
		case SortHomework:
			k.n = LeadingNumber(p.Homework())
		case SortModel:
			k.s = p.Model()
		default:
			k.t, k.dated = p.Created()
		}
		keys[i] = k
	}

	var by func(a, b sortKey) int
	switch o {
	case SortHomework:
		by = func(a, b sortKey) int { return cmp.Compare(a.n, b.n) }
	case SortModel:
		c := NewCollator()
		by = func(a, b sortKey) int { return c.CompareString(a.s, b.s) }
	case SortOldest:
		by = func(a, b sortKey) int { return compareDated(a, b, false) }
	default:
		by = func(a, b sortKey) int { return compareDated(a, b, true) }
	}
	slices.SortStableFunc(keys, by)

	for i, k := range keys {
		posts[i] = k.p
	}
}

// compareDated puts undated posts after dated ones under either direction.
func compareDated(a, b sortKey, desc bool) int {
	switch {
	case !a.dated && !b.dated:
		return 0
	case !a.dated:
		return 1
	case !b.dated:
		return -1
	}
	c := a.t.Compare(b.t)
	if desc {
		return -c
	}
	return c
}
