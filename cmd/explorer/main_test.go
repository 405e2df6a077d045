package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/postexplorer/internal/otel"
	"github.com/abelbrown/postexplorer/internal/post"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLink(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"hw=HW2", "hw=HW2"},
		{"?hw=HW2&sort=oldest", "hw=HW2&sort=oldest"},
		{"https://example.edu/explorer/?model=Claude#top", "model=Claude"},
		{"  ?view=list  ", "view=list"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLink(tt.in), "parseLink(%q)", tt.in)
	}
}

func TestFilterFlagsQuery(t *testing.T) {
	f := filterFlags{homework: "HW3", sort: "oldest"}
	assert.Equal(t, "hw=HW3&model=Claude&sort=oldest", f.query("?hw=HW1&model=Claude"))
	assert.Equal(t, "", filterFlags{}.query(""))
	assert.Equal(t, "search=a+b", filterFlags{search: "a b"}.query(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestReadTailLines(t *testing.T) {
	var buf bytes.Buffer
	for i, kind := range []otel.EventKind{otel.KindLoadStart, otel.KindSyncPass, otel.KindPreviewError, otel.KindSyncPass} {
		line, err := json.Marshal(otel.Event{Time: time.Unix(int64(i), 0), Kind: kind, Level: otel.LevelInfo, Count: i})
		require.NoError(t, err)
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteString("not json\n\n")

	all := readTailLines(bytes.NewReader(buf.Bytes()), 10, func(otel.Event) bool { return true })
	assert.Len(t, all, 4)

	last2 := readTailLines(bytes.NewReader(buf.Bytes()), 2, func(otel.Event) bool { return true })
	require.Len(t, last2, 2)
	assert.Equal(t, otel.KindPreviewError, last2[0].ev.Kind)
	assert.Equal(t, 3, last2[1].ev.Count)

	sync := readTailLines(bytes.NewReader(buf.Bytes()), 10, eventFilter{kind: "sync"}.match)
	assert.Len(t, sync, 2)

	assert.Empty(t, readTailLines(bytes.NewReader(buf.Bytes()), 0, func(otel.Event) bool { return true }))
}

func TestEventFilterLevel(t *testing.T) {
	f := eventFilter{level: "warn"}
	assert.False(t, f.match(otel.Event{Level: otel.LevelInfo}))
	assert.True(t, f.match(otel.Event{Level: otel.LevelWarn}))
	assert.True(t, f.match(otel.Event{Level: otel.LevelError}))
	assert.True(t, eventFilter{comp: "ui"}.match(otel.Event{Comp: "ui"}))
	assert.False(t, eventFilter{comp: "ui"}.match(otel.Event{Comp: "dataset"}))
}

func TestFormatEvent(t *testing.T) {
	got := formatEvent(otel.Event{
		Time:  time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Level: otel.LevelWarn,
		Comp:  "preview",
		Kind:  otel.KindPreviewError,
		Token: 4,
		Err:   "timeout",
		DurMs: 12.5,
	})
	for _, want := range []string{"09:30:00.000", "WARN", "[preview", "preview.error", "(12.5ms)", "tok=4", "err=timeout"} {
		assert.Contains(t, got, want)
	}
}

func TestPrintPosts(t *testing.T) {
	title, views := "A very long title", 1234.0
	var buf bytes.Buffer
	printPosts(&buf, []post.Post{{Number: "7", Title: &title, ViewCount: &views}}, map[string]bool{"7": true})
	out := buf.String()
	assert.Contains(t, out, "★")
	assert.Contains(t, out, "#7")
	assert.Contains(t, out, "1,234")
	assert.Contains(t, out, "Unknown")
	assert.Contains(t, out, title)
}

// writeDataset lays out a minimal local source.
func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0755))
	posts := `[
  {"number": 1, "title": "Kernel tricks", "document": "RBF", "created_at": "2024-03-08T10:00:00Z",
   "metrics": {"homework_id": "HW2", "model_name": "Gemini"}},
  {"number": 2, "title": "Gradient notes", "document": "checks", "created_at": "2024-03-09T10:00:00Z",
   "metrics": {"homework_id": "HW1", "model_name": "Claude"}}
]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "posts_processed.json"), []byte(posts), 0644))
	return dir
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("EXPLORER_HOME", t.TempDir())
	t.Setenv("EXPLORER_SOURCE", "")
	flagLink, flagSource, flagConfig = "", "", ""
	listFilters, exportFilters = filterFlags{}, filterFlags{}
	listJSON = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestListCommand(t *testing.T) {
	dir := writeDataset(t)
	out := runCLI(t, "list", "--source", dir, "--hw", "HW2")

	assert.Contains(t, out, "Kernel tricks")
	assert.NotContains(t, out, "Gradient notes")
	assert.Contains(t, out, "1 post of 2")
	assert.Contains(t, out, "link: ?hw=HW2")
}

func TestListCommandJSON(t *testing.T) {
	dir := writeDataset(t)
	out := runCLI(t, "list", "--source", dir, "--json", "--link", "?sort=oldest")

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Kernel tricks", records[0]["title"])
}

func TestExportCommand(t *testing.T) {
	dir := writeDataset(t)
	outDir := t.TempDir()
	out := runCLI(t, "export", "--source", dir, "--model", "Claude", "-o", outDir)

	assert.Contains(t, out, "Exported 1 posts")
	matches, err := filepath.Glob(filepath.Join(outDir, "llm-posts-export-*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "Gradient notes"))
}
