// Package dataset loads the post dataset and its two companion documents
// and holds them immutably for the rest of the program.
package dataset

import (
	"time"

	"github.com/abelbrown/postexplorer/internal/post"
)

// Store is a loaded dataset. It is never modified after construction;
// a reload builds a new Store.
type Store struct {
	posts    []post.Post
	byKey    map[string]int
	manifest post.Manifest
	insights post.Insights
	source   string
	loadedAt time.Time
}

// NewStore indexes posts by key. A nil manifest becomes an empty one.
func NewStore(posts []post.Post, manifest post.Manifest, insights post.Insights) *Store {
	if manifest == nil {
		manifest = post.Manifest{}
	}
	s := &Store{
		posts:    posts,
		byKey:    make(map[string]int, len(posts)),
		manifest: manifest,
		insights: insights,
		loadedAt: time.Now(),
	}
	for i, p := range posts {
		if k := p.Key(); k != "" {
			if _, dup := s.byKey[k]; !dup {
				s.byKey[k] = i
			}
		}
	}
	return s
}

// Posts returns the records in dataset order. The slice is clipped so an
// append by the caller cannot write into the store; elements must be
// treated as read-only.
func (s *Store) Posts() []post.Post {
	return s.posts[:len(s.posts):len(s.posts)]
}

// Len is the number of posts.
func (s *Store) Len() int { return len(s.posts) }

// Find returns the post with the given key.
func (s *Store) Find(key string) (post.Post, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return post.Post{}, false
	}
	return s.posts[i], true
}

// Manifest returns the attachment index, empty when it failed to load.
func (s *Store) Manifest() post.Manifest { return s.manifest }

// Insights returns the analytics blob, nil when it failed to load.
func (s *Store) Insights() post.Insights { return s.insights }

// Source describes where the store was loaded from.
func (s *Store) Source() string { return s.source }

// LoadedAt is when the store was built.
func (s *Store) LoadedAt() time.Time { return s.loadedAt }
