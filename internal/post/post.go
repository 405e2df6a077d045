// Package post defines the discussion-post record loaded from the dataset.
//
// Every optional field is a pointer so "absent" and "empty" stay distinct in
// the decoded value. Callers read fields through the accessor methods, which
// apply the documented fallbacks ("Untitled", "Unknown", "", zero). Records
// are read-only: nothing in this module writes to a Post after decoding.
package post

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Unknown is the effective facet value for a missing homework or model.
const Unknown = "Unknown"

// ID is a post identifier that may arrive as a JSON number or string.
type ID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric identifiers as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

// User is the post author.
type User struct {
	Name *string `json:"name,omitempty"`
}

// Metrics carries the two facet values.
type Metrics struct {
	HomeworkID *string `json:"homework_id,omitempty"`
	ModelName  *string `json:"model_name,omitempty"`
}

// Post is one discussion-thread entry.
type Post struct {
	Number    ID       `json:"number,omitempty"`
	ID        ID       `json:"id,omitempty"`
	Title     *string  `json:"title,omitempty"`
	Document  *string  `json:"document,omitempty"`
	CreatedAt *string  `json:"created_at,omitempty"`
	User      *User    `json:"user,omitempty"`
	Metrics   *Metrics `json:"metrics,omitempty"`
	ViewCount *float64 `json:"view_count,omitempty"`
	EdURL     *string  `json:"ed_url,omitempty"`
}

// Key is the identifier used for bookmarks, the manifest and lookups.
// The thread number wins over the id, matching the dataset generator.
func (p Post) Key() string {
	if p.Number != "" {
		return p.Number.String()
	}
	return p.ID.String()
}

// DisplayTitle returns the title or "Untitled".
func (p Post) DisplayTitle() string {
	if p.Title == nil || strings.TrimSpace(*p.Title) == "" {
		return "Untitled"
	}
	return *p.Title
}

// RawTitle returns the title or "".
func (p Post) RawTitle() string {
	return deref(p.Title)
}

// Body returns the document text or "".
func (p Post) Body() string {
	return deref(p.Document)
}

// BodyOrPlaceholder returns the document text, or a placeholder when empty.
func (p Post) BodyOrPlaceholder() string {
	if b := p.Body(); b != "" {
		return b
	}
	return "(no body text available)"
}

// RawAuthor returns the author name or "".
func (p Post) RawAuthor() string {
	if p.User == nil {
		return ""
	}
	return deref(p.User.Name)
}

// AuthorName returns the author name or "Unknown".
func (p Post) AuthorName() string {
	return orUnknown(p.RawAuthor())
}

// RawHomework returns the trimmed homework id, or "" when absent.
func (p Post) RawHomework() string {
	if p.Metrics == nil {
		return ""
	}
	return strings.TrimSpace(deref(p.Metrics.HomeworkID))
}

// RawModel returns the trimmed model name, or "" when absent.
func (p Post) RawModel() string {
	if p.Metrics == nil {
		return ""
	}
	return strings.TrimSpace(deref(p.Metrics.ModelName))
}

// Homework is the effective primary facet value.
func (p Post) Homework() string {
	return orUnknown(p.RawHomework())
}

// Model is the effective secondary facet value.
func (p Post) Model() string {
	return orUnknown(p.RawModel())
}

// ExternalURL returns the outbound link or "".
func (p Post) ExternalURL() string {
	return deref(p.EdURL)
}

// Views returns the view count when the dataset has one.
func (p Post) Views() (int, bool) {
	if p.ViewCount == nil {
		return 0, false
	}
	return int(*p.ViewCount), true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Created parses created_at. Missing or malformed timestamps report false.
func (p Post) Created() (time.Time, bool) {
	return ParseTime(deref(p.CreatedAt))
}

// ParseTime parses the timestamp formats seen in the dataset.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
