// Package export writes the current result set as a JSON document.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/abelbrown/postexplorer/internal/post"
)

// previewRunes is the length of content_preview.
const previewRunes = 200

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("no posts to export")

// Record is one exported post with every fallback applied.
type Record struct {
	Title          string `json:"title"`
	Author         string `json:"author"`
	Homework       string `json:"homework"`
	Model          string `json:"model"`
	CreatedAt      string `json:"created_at"`
	ViewCount      int    `json:"view_count"`
	ContentPreview string `json:"content_preview"`
	EdURL          string `json:"ed_url"`
}

// Records converts posts in order.
func Records(posts []post.Post) []Record {
	out := make([]Record, len(posts))
	for i, p := range posts {
		views, _ := p.Views()
		out[i] = Record{
			Title:          p.DisplayTitle(),
			Author:         p.AuthorName(),
			Homework:       p.Homework(),
			Model:          p.Model(),
			CreatedAt:      deref(p.CreatedAt),
			ViewCount:      views,
			ContentPreview: firstRunes(p.Body(), previewRunes),
			EdURL:          p.ExternalURL(),
		}
	}
	return out
}

// Write encodes posts as indented JSON.
func Write(w io.Writer, posts []post.Post) error {
	if len(posts) == 0 {
		return ErrEmpty
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Records(posts)); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// FileName is the default export name for the given day.
func FileName(now time.Time) string {
	return fmt.Sprintf("llm-posts-export-%s.json", now.UTC().Format(time.DateOnly))
}

// WriteFile writes posts to dir under the default name and returns the path.
func WriteFile(dir string, posts []post.Post, now time.Time) (string, error) {
	if len(posts) == 0 {
		return "", ErrEmpty
	}
	path := filepath.Join(dir, FileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := Write(f, posts); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
