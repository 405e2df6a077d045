package filter

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/abelbrown/postexplorer/internal/post"
)

var (
	homeworks = []string{"HW1", "HW2", "HW10", "", "Unknown"}
	models    = []string{"GPT-4o", "Claude", "claude", "", "Gemini"}
	dates     = []string{"2024-01-01", "2024-03-01", "2024-03-09T08:00:00Z", "", "nope"}
	terms     = []string{"", "post 1", "gpt", "CLAUDE", "zzz"}
)

// dataset turns generated seeds into posts; index i becomes post number i.
func dataset(seeds []int) []post.Post {
	posts := make([]post.Post, len(seeds))
	for i, n := range seeds {
		posts[i] = mk(i, homeworks[n%5], models[(n/5)%5], dates[(n/25)%5])
	}
	return posts
}

func state(hw, model, term, quick, order int) State {
	s := Default()
	s.Primary = []string{"", "HW1", "HW10", "Unknown"}[hw%4]
	s.Secondary = []string{"", "GPT-4o", "Claude", "Unknown"}[model%4]
	s.Search = terms[term%5]
	s.Quick = QuickFilters[quick%len(QuickFilters)]
	s.Sort = SortOrders[order%len(SortOrders)]
	return s
}

var bookmarks = map[string]bool{"0": true, "3": true, "7": true}

func TestComputeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	seeds := gen.SliceOf(gen.IntRange(0, 124))
	pick := gen.IntRange(0, 99)

	properties.Property("compute is idempotent", prop.ForAll(
		func(sd []int, hw, model, term, quick, order int) bool {
			posts := dataset(sd)
			s := state(hw, model, term, quick, order)
			e := NewEnv(now, bookmarks)
			a, b := Compute(posts, s, e), Compute(posts, s, e)
			return equalSlices(keys(a), keys(b))
		},
		seeds, pick, pick, pick, pick, pick,
	))

	properties.Property("facet predicates intersect", prop.ForAll(
		func(sd []int, hw, model int) bool {
			posts := dataset(sd)
			both := state(hw, model, 0, 0, 0)
			onlyHW, onlyModel := both, both
			onlyHW.Secondary = ""
			onlyModel.Primary = ""

			e := NewEnv(now, nil)
			inModel := make(map[string]bool)
			for _, p := range Compute(posts, onlyModel, e) {
				inModel[p.Key()] = true
			}
			var want []string
			for _, p := range Compute(posts, onlyHW, e) {
				if inModel[p.Key()] {
					want = append(want, p.Key())
				}
			}
			return equalSlices(keys(Compute(posts, both, e)), want)
		},
		seeds, pick, pick,
	))

	properties.Property("sort is stable for every order", prop.ForAll(
		func(sd []int, order int) bool {
			posts := dataset(sd)
			o := SortOrders[order%len(SortOrders)]
			s := Default()
			s.Sort = o
			out := Compute(posts, s, NewEnv(now, nil))
			for i := 1; i < len(out); i++ {
				a, b := out[i-1], out[i]
				if sameSortKey(a, b, o) && index(a) > index(b) {
					return false
				}
			}
			return true
		},
		seeds, pick,
	))

	properties.TestingRun(t)
}

func index(p post.Post) int {
	return LeadingNumber(p.Key())
}

func sameSortKey(a, b post.Post, o SortOrder) bool {
	switch o {
	case SortHomework:
		return LeadingNumber(a.Homework()) == LeadingNumber(b.Homework())
	case SortModel:
		return a.Model() == b.Model()
	default:
		ta, oka := a.Created()
		tb, okb := b.Created()
		if !oka || !okb {
			return oka == okb
		}
		return ta.Equal(tb)
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
