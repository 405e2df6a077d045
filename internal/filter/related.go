package filter

import "github.com/abelbrown/postexplorer/internal/post"

// SimilarLimit is how many related posts the detail view shows.
const SimilarLimit = 6

// Similar returns up to limit posts sharing p's homework or model, in
// dataset order. Absent facet values never count as shared.
func Similar(posts []post.Post, p post.Post, limit int) []post.Post {
	hw, model, key := p.RawHomework(), p.RawModel(), p.Key()
	result := []post.Post{}
	for _, q := range posts {
		if len(result) >= limit {
			break
		}
		if q.Key() == key {
			continue
		}
		if (hw != "" && q.RawHomework() == hw) || (model != "" && q.RawModel() == model) {
			result = append(result, q)
		}
	}
	return result
}

// Comparison holds two models' posts for one homework, each newest first.
type Comparison struct {
	Homework string
	ModelA   string
	ModelB   string
	A        []post.Post
	B        []post.Post
}

// Ready reports whether all three selections are made.
func (c Comparison) Ready() bool {
	return c.Homework != "" && c.ModelA != "" && c.ModelB != ""
}

// Compare builds the side-by-side columns. Missing selections yield empty
// columns rather than an error.
func Compare(posts []post.Post, hw, modelA, modelB string) Comparison {
	c := Comparison{Homework: hw, ModelA: modelA, ModelB: modelB, A: []post.Post{}, B: []post.Post{}}
	if !c.Ready() {
		return c
	}
	for _, p := range posts {
		if p.RawHomework() != hw {
			continue
		}
		if p.RawModel() == modelA {
			c.A = append(c.A, p)
		}
		if p.RawModel() == modelB {
			c.B = append(c.B, p)
		}
	}
	Sort(c.A, SortNewest)
	Sort(c.B, SortNewest)
	return c
}
