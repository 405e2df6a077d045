package post

import (
	"strings"
	"time"
	"unicode/utf8"
)

const wordsPerMinute = 200

// ReadingMinutes estimates reading time at 200 words per minute.
// Empty text reads in zero minutes; anything else takes at least one.
func ReadingMinutes(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

// Preview returns the first n runes of text with newlines flattened.
func Preview(text string, n int) string {
	flat := strings.ReplaceAll(text, "\r\n", " ")
	flat = strings.ReplaceAll(flat, "\n", " ")
	if utf8.RuneCountInString(flat) <= n {
		return flat
	}
	runes := []rune(flat)
	return string(runes[:n]) + "..."
}

// CardDate formats created_at as "Jan 2, 2006", preferring the date part so
// the day never shifts with the local zone. Unparseable input gives "".
func CardDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	datePart, _, _ := strings.Cut(raw, "T")
	if t, err := time.Parse("2006-01-02", datePart); err == nil {
		return t.Format("Jan 2, 2006")
	}
	t, ok := ParseTime(raw)
	if !ok {
		return ""
	}
	return t.UTC().Format("Jan 2, 2006")
}

// CardDate formats this post's timestamp for display.
func (p Post) CardDate() string {
	return CardDate(deref(p.CreatedAt))
}
