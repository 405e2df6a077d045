package dataset

import (
	"testing"

	"github.com/abelbrown/postexplorer/internal/post"
)

func TestStorePostsIsClipped(t *testing.T) {
	posts := make([]post.Post, 2, 8)
	posts[0].Number = "1"
	posts[1].Number = "2"
	st := NewStore(posts, nil, nil)

	got := st.Posts()
	_ = append(got, post.Post{Number: "3"})
	if posts[:3][2].Number == "3" {
		t.Error("append through Posts() wrote into the store")
	}
	if st.Manifest() == nil {
		t.Error("nil manifest should become empty")
	}
}

func TestStoreFindFirstDuplicateWins(t *testing.T) {
	a := post.Post{Number: "1", Title: ptr("first")}
	b := post.Post{Number: "1", Title: ptr("second")}
	st := NewStore([]post.Post{a, b}, nil, nil)

	p, ok := st.Find("1")
	if !ok || p.DisplayTitle() != "first" {
		t.Errorf("Find(1) = %q, %v", p.DisplayTitle(), ok)
	}
	if _, ok := st.Find("missing"); ok {
		t.Error("Find(missing) should fail")
	}
}

func ptr(s string) *string { return &s }

func TestSourceResolve(t *testing.T) {
	tests := []struct {
		src  Source
		path string
		want string
	}{
		{NewSource("https://example.org/explorer"), DefaultPostsPath, "https://example.org/explorer/data/posts_processed.json"},
		{NewSource("https://example.org/explorer/"), DefaultManifestPath, "https://example.org/explorer/files/manifest.json"},
		{NewSource("/srv/data"), DefaultInsightsPath, "/srv/data/data/insights.json"},
	}
	for _, tt := range tests {
		if got := tt.src.Resolve(tt.path); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}

	if got := NewSource("/srv/data").FilePath("12_notes.pdf"); got != "/srv/data/files/12_notes.pdf" {
		t.Errorf("FilePath = %q", got)
	}
}
