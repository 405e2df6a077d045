// Package stats computes the dashboard figures for a dataset.
package stats

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/abelbrown/postexplorer/internal/filter"
	"github.com/abelbrown/postexplorer/internal/post"
)

// Overview is the headline numbers.
type Overview struct {
	Total     int `json:"total"`
	Models    int `json:"models"`
	Homeworks int `json:"homeworks"`
	Authors   int `json:"authors"`
}

// Count is one labelled bar.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Dashboard is every panel of the stats section.
type Dashboard struct {
	Overview     Overview `json:"overview"`
	Homeworks    []Count  `json:"homeworks"`
	Models       []Count  `json:"models"`
	Contributors []Count  `json:"contributors"`
	Timeline     []Count  `json:"timeline"`
	Keywords     []Count  `json:"keywords"`
}

// Panel sizes.
const (
	TopModels       = 10
	TopContributors = 10
	TopKeywords     = 30
)

// Build computes the full dashboard.
func Build(posts []post.Post) Dashboard {
	return Dashboard{
		Overview:     Summarize(posts),
		Homeworks:    HomeworkCounts(posts),
		Models:       ModelCounts(posts, TopModels),
		Contributors: Contributors(posts, TopContributors),
		Timeline:     Timeline(posts),
		Keywords:     Keywords(posts, TopKeywords),
	}
}

// Summarize computes the overview. Homeworks literally named "unknown"
// (any case) are not counted.
func Summarize(posts []post.Post) Overview {
	models := make(map[string]bool)
	homeworks := make(map[string]bool)
	authors := make(map[string]bool)
	for _, p := range posts {
		if m := p.RawModel(); m != "" {
			models[m] = true
		}
		if hw := p.RawHomework(); hw != "" && !strings.EqualFold(hw, post.Unknown) {
			homeworks[hw] = true
		}
		if a := p.RawAuthor(); a != "" {
			authors[a] = true
		}
	}
	return Overview{Total: len(posts), Models: len(models), Homeworks: len(homeworks), Authors: len(authors)}
}

// HomeworkCounts counts posts per effective homework, in numeric order.
func HomeworkCounts(posts []post.Post) []Count {
	counts := tally(posts, post.Post.Homework)
	slices.SortStableFunc(counts, func(a, b Count) int {
		return cmp.Compare(filter.LeadingNumber(a.Label), filter.LeadingNumber(b.Label))
	})
	return counts
}

// ModelCounts returns the limit most common effective models.
func ModelCounts(posts []post.Post, limit int) []Count {
	return top(tally(posts, post.Post.Model), limit)
}

// Contributors returns the limit most active authors.
func Contributors(posts []post.Post, limit int) []Count {
	return top(tally(posts, post.Post.AuthorName), limit)
}

// Timeline counts dated posts per UTC day, oldest first.
func Timeline(posts []post.Post) []Count {
	byDay := make(map[string]int)
	for _, p := range posts {
		t, ok := p.Created()
		if !ok {
			continue
		}
		byDay[t.UTC().Format(time.DateOnly)]++
	}
	out := make([]Count, 0, len(byDay))
	for day, n := range byDay {
		out = append(out, Count{Label: day, Count: n})
	}
	slices.SortFunc(out, func(a, b Count) int { return strings.Compare(a.Label, b.Label) })
	return out
}

var wordRe = regexp.MustCompile(`\b[a-z]{4,}\b`)

var stopWords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`the a an and or but in on at to for of with by is was are were be been
		have has had do does did will would could should may might must can this that these those
		i you he she it we they what which who when where why how special participation hw homework`) {
		stopWords[w] = true
	}
}

// Keywords returns the limit most frequent words of four or more letters
// across titles and bodies, stop words removed.
func Keywords(posts []post.Post, limit int) []Count {
	counts := make(map[string]int)
	var order []string
	for _, p := range posts {
		text := strings.ToLower(p.RawTitle() + " " + p.Body())
		for _, w := range wordRe.FindAllString(text, -1) {
			if stopWords[w] {
				continue
			}
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}
	out := make([]Count, len(order))
	for i, w := range order {
		out[i] = Count{Label: w, Count: counts[w]}
	}
	return top(out, limit)
}

// tally counts by key, preserving first-seen order for ties.
func tally(posts []post.Post, key func(post.Post) string) []Count {
	index := make(map[string]int)
	out := []Count{}
	for _, p := range posts {
		k := key(p)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Count{Label: k})
		}
		out[i].Count++
	}
	return out
}

func top(counts []Count, limit int) []Count {
	slices.SortStableFunc(counts, func(a, b Count) int { return b.Count - a.Count })
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// Max returns the largest count, or 0.
func Max(counts []Count) int {
	m := 0
	for _, c := range counts {
		m = max(m, c.Count)
	}
	return m
}
