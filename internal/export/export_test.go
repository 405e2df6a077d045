package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/postexplorer/internal/post"
)

func ptr(s string) *string { return &s }

func TestRecordsFallbacks(t *testing.T) {
	views := 41.0
	posts := []post.Post{
		{},
		{
			Title:     ptr("Proof"),
			Document:  ptr(strings.Repeat("é", 250)),
			User:      &post.User{Name: ptr("ada")},
			Metrics:   &post.Metrics{HomeworkID: ptr("HW3"), ModelName: ptr("Claude")},
			CreatedAt: ptr("2024-01-01"),
			ViewCount: &views,
			EdURL:     ptr("https://edstem.org/x"),
		},
	}
	recs := Records(posts)

	empty := Record{Title: "Untitled", Author: "Unknown", Homework: "Unknown", Model: "Unknown"}
	if recs[0] != empty {
		t.Errorf("empty post = %+v", recs[0])
	}
	if got := len([]rune(recs[1].ContentPreview)); got != 200 {
		t.Errorf("preview is %d runes, want 200", got)
	}
	if recs[1].ViewCount != 41 || recs[1].EdURL != "https://edstem.org/x" {
		t.Errorf("record = %+v", recs[1])
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []post.Post{{Title: ptr("A")}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded[0]["title"] != "A" || decoded[0]["view_count"] != 0.0 {
		t.Errorf("decoded = %v", decoded[0])
	}
	if !strings.Contains(buf.String(), "\n  {") {
		t.Error("expected indented output")
	}

	if err := Write(&buf, nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestWriteFile(t *testing.T) {
	now := time.Date(2025, 11, 3, 23, 0, 0, 0, time.UTC)
	path, err := WriteFile(t.TempDir(), []post.Post{{}}, now)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !strings.HasSuffix(path, "llm-posts-export-2025-11-03.json") {
		t.Errorf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file missing: %v", err)
	}
}
