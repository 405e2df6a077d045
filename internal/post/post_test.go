package post

import (
	"encoding/json"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ID
	}{
		{"number", `{"number": 42}`, "42"},
		{"string", `{"number": "abc"}`, "abc"},
		{"null", `{"number": null}`, ""},
		{"missing", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Post
			if err := json.Unmarshal([]byte(tt.in), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.Number != tt.want {
				t.Errorf("Number = %q, want %q", p.Number, tt.want)
			}
		})
	}
}

func TestKeyPrefersNumber(t *testing.T) {
	p := Post{Number: "7", ID: "99"}
	if p.Key() != "7" {
		t.Errorf("Key() = %q, want 7", p.Key())
	}
	p.Number = ""
	if p.Key() != "99" {
		t.Errorf("Key() = %q, want 99", p.Key())
	}
}

func TestFallbacks(t *testing.T) {
	var p Post
	if got := p.DisplayTitle(); got != "Untitled" {
		t.Errorf("DisplayTitle() = %q", got)
	}
	if got := p.Homework(); got != Unknown {
		t.Errorf("Homework() = %q", got)
	}
	if got := p.Model(); got != Unknown {
		t.Errorf("Model() = %q", got)
	}
	if got := p.AuthorName(); got != Unknown {
		t.Errorf("AuthorName() = %q", got)
	}
	if got := p.Body(); got != "" {
		t.Errorf("Body() = %q", got)
	}
	if _, ok := p.Created(); ok {
		t.Error("Created() should report no date")
	}
	if _, ok := p.Views(); ok {
		t.Error("Views() should report absent")
	}
}

func TestFacetValuesAreTrimmed(t *testing.T) {
	p := Post{Metrics: &Metrics{HomeworkID: strPtr("  HW3 "), ModelName: strPtr("   ")}}
	if got := p.Homework(); got != "HW3" {
		t.Errorf("Homework() = %q, want HW3", got)
	}
	if got := p.Model(); got != Unknown {
		t.Errorf("blank model should fall back to Unknown, got %q", got)
	}
}

func TestCreatedToleratesGarbage(t *testing.T) {
	for _, raw := range []string{"", "yesterday", "2024-13-45", "not-a-dateT00:00"} {
		p := Post{CreatedAt: strPtr(raw)}
		if _, ok := p.Created(); ok {
			t.Errorf("Created(%q) should be undated", raw)
		}
	}
	p := Post{CreatedAt: strPtr("2024-03-01T10:00:00Z")}
	got, ok := p.Created()
	if !ok || got.Month() != 3 {
		t.Errorf("Created() = %v, %v", got, ok)
	}
}

func TestReadingMinutes(t *testing.T) {
	if ReadingMinutes("") != 0 {
		t.Error("empty text should read in 0 minutes")
	}
	if ReadingMinutes("one two three") != 1 {
		t.Error("short text should read in 1 minute")
	}
	words := make([]byte, 0, 401*2)
	for i := 0; i < 401; i++ {
		words = append(words, 'a', ' ')
	}
	if got := ReadingMinutes(string(words)); got != 3 {
		t.Errorf("401 words = %d minutes, want 3", got)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("a\nb", 10); got != "a b" {
		t.Errorf("Preview = %q", got)
	}
	if got := Preview("abcdef", 3); got != "abc..." {
		t.Errorf("Preview = %q", got)
	}
}

func TestCardDate(t *testing.T) {
	if got := CardDate("2024-01-05T23:30:00-08:00"); got != "Jan 5, 2024" {
		t.Errorf("CardDate = %q", got)
	}
	if got := CardDate("garbage"); got != "" {
		t.Errorf("CardDate(garbage) = %q", got)
	}
}

func TestManifestFilesFor(t *testing.T) {
	m := Manifest{"12": {Files: []File{{OriginalFilename: "a.pdf", SavedAs: "files/12/a.pdf"}}}}
	if files := m.FilesFor(Post{Number: "12"}); len(files) != 1 {
		t.Errorf("FilesFor(12) = %v", files)
	}
	if files := m.FilesFor(Post{Number: "13"}); files != nil {
		t.Errorf("FilesFor(13) = %v", files)
	}
	var nilManifest Manifest
	if files := nilManifest.FilesFor(Post{Number: "12"}); files != nil {
		t.Error("nil manifest should have no files")
	}
}
