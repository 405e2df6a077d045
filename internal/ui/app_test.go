package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/postexplorer/internal/assistant"
	"github.com/abelbrown/postexplorer/internal/dataset"
	"github.com/abelbrown/postexplorer/internal/fetch"
	"github.com/abelbrown/postexplorer/internal/filter"
	"github.com/abelbrown/postexplorer/internal/otel"
	"github.com/abelbrown/postexplorer/internal/post"
	"github.com/abelbrown/postexplorer/internal/prefs"
	"github.com/abelbrown/postexplorer/internal/preview"
	"github.com/abelbrown/postexplorer/internal/store"
	"github.com/abelbrown/postexplorer/internal/viewsync"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func ptr[T any](v T) *T { return &v }

// mapKV is an in-memory prefs.KV.
type mapKV map[string]string

func (m mapKV) Get(k string) (string, error) {
	v, ok := m[k]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}
func (m mapKV) Set(k, v string) error { m[k] = v; return nil }
func (m mapKV) Delete(k string) error { delete(m, k); return nil }

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func mk(num int, title, body, hw, model, created string) post.Post {
	p := post.Post{
		Number:   post.ID(fmt.Sprint(num)),
		Title:    ptr(title),
		Document: ptr(body),
		User:     &post.User{Name: ptr("Ada")},
	}
	if hw != "" || model != "" {
		p.Metrics = &post.Metrics{HomeworkID: ptr(hw), ModelName: ptr(model)}
	}
	if created != "" {
		p.CreatedAt = ptr(created)
	}
	return p
}

func fixture() *dataset.Store {
	return dataset.NewStore([]post.Post{
		mk(1, "Gradient notes", "Tried gradient checks", "HW1", "GPT-4o", "2024-03-09T10:00:00Z"),
		mk(2, "Attention maps", "Attention heads", "HW2", "Claude", "2024-02-01T10:00:00Z"),
		mk(3, "Kernel tricks", "RBF kernels", "HW2", "Gemini", "2024-03-08T10:00:00Z"),
		mk(4, "No metrics", "", "", "", ""),
	}, nil, nil)
}

type harness struct {
	kv  mapKV
	loc *viewsync.MemoryLocation
}

func newApp(t *testing.T, query string, mutate func(*Options)) (App, *harness) {
	t.Helper()
	h := &harness{kv: mapKV{}, loc: viewsync.NewMemoryLocation(query)}
	st := fixture()
	opts := Options{
		Load:        func(context.Context) (*dataset.Store, error) { return st, nil },
		Prefs:       prefs.Load(h.kv),
		Location:    h.loc,
		SearchDelay: time.Millisecond,
		ExportDir:   t.TempDir(),
		Now:         func() time.Time { return testNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	app := NewApp(opts)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model, _ = model.Update(DatasetLoaded{Store: st})
	return model.(App), h
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends keys in order and returns the final model and the last command.
func press(t *testing.T, a App, ks ...string) (App, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range ks {
		var m tea.Model
		m, cmd = a.Update(keyMsg(k))
		a = m.(App)
	}
	return a, cmd
}

// run executes cmd, flattening batches, and returns every message.
// Spinner ticks are dropped so the animation never drives the test.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch m := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range m {
			out = append(out, run(c)...)
		}
		return out
	case spinner.TickMsg:
		return nil
	}
	return []tea.Msg{msg}
}

// pump feeds cmd's messages back into the app until nothing is left.
func pump(t *testing.T, a App, cmd tea.Cmd) App {
	t.Helper()
	queue := run(cmd)
	for i := 0; len(queue) > 0; i++ {
		if i > 200 {
			t.Fatal("message loop did not settle")
		}
		msg := queue[0]
		queue = queue[1:]
		m, next := a.Update(msg)
		a = m.(App)
		queue = append(queue, run(next)...)
	}
	return a
}

func keysOf(posts []post.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Key()
	}
	return out
}

func TestAppInit(t *testing.T) {
	app := NewApp(Options{Load: func(context.Context) (*dataset.Store, error) { return fixture(), nil }})
	if app.Init() == nil {
		t.Fatal("Init should return the load command")
	}
	if NewApp(Options{}).Init() != nil {
		t.Error("Init without a loader should return nil")
	}
}

func TestAppStartsFromQuery(t *testing.T) {
	a, _ := newApp(t, "hw=HW2&sort=oldest", nil)
	if got := a.State(); got.Primary != "HW2" || got.Sort != filter.SortOldest {
		t.Fatalf("state = %+v", got)
	}
	if got := keysOf(a.Results()); strings.Join(got, ",") != "2,3" {
		t.Errorf("results = %v, want [2 3]", got)
	}
}

func TestAppDropsUnknownFacetFromQuery(t *testing.T) {
	a, h := newApp(t, "hw=HW99&view=list", nil)
	if got := a.State(); got.Primary != "" || got.View != filter.ViewList {
		t.Fatalf("state = %+v", got)
	}
	if h.loc.Query() != "view=list" {
		t.Errorf("query = %q, want view=list", h.loc.Query())
	}
	if len(a.Results()) != 4 {
		t.Errorf("results = %d, want 4", len(a.Results()))
	}
}

func TestAppLoadFailureBlocks(t *testing.T) {
	app := NewApp(Options{Load: func(context.Context) (*dataset.Store, error) { return nil, errors.New("boom") }})
	m, _ := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = m.Update(DatasetLoaded{Err: &dataset.LoadError{Doc: dataset.DocPosts, Fatal: true, Err: errors.New("boom")}})
	a := m.(App)

	view := a.View()
	if !strings.Contains(view, "Could not load posts") || !strings.Contains(view, "boom") {
		t.Errorf("error screen:\n%s", view)
	}

	a, cmd := press(t, a, "s")
	if cmd != nil || a.State() != filter.Default() {
		t.Error("keys other than quit should be ignored on the error screen")
	}
	_, cmd = press(t, a, "q")
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestAppCyclesSortViewAndQuick(t *testing.T) {
	a, h := newApp(t, "", nil)
	if got := strings.Join(keysOf(a.Results()), ","); got != "1,3,2,4" {
		t.Fatalf("newest order = %s", got)
	}

	a, _ = press(t, a, "s")
	if a.State().Sort != filter.SortOldest || h.loc.Query() != "sort=oldest" {
		t.Errorf("sort: state %+v query %q", a.State(), h.loc.Query())
	}

	a, _ = press(t, a, "j", "v")
	if a.State().View != filter.ViewList {
		t.Errorf("view = %s", a.State().View)
	}
	if a.Cursor() != 1 {
		t.Errorf("changing view should keep the cursor, got %d", a.Cursor())
	}

	a, _ = press(t, a, "f")
	if a.State().Quick != filter.QuickRecent {
		t.Errorf("quick = %s", a.State().Quick)
	}
	if got := strings.Join(keysOf(a.Results()), ","); got != "3,1" {
		t.Errorf("recent oldest-first = %s", got)
	}
	if a.Cursor() != 0 {
		t.Errorf("filter change should return to the top, got %d", a.Cursor())
	}
}

func TestAppTagToggle(t *testing.T) {
	a, h := newApp(t, "", nil)

	a, _ = press(t, a, "]", " ")
	if a.State().Primary != "HW2" {
		t.Fatalf("primary = %q", a.State().Primary)
	}
	if h.loc.Query() != "hw=HW2" {
		t.Errorf("query = %q", h.loc.Query())
	}

	a, _ = press(t, a, "tab", " ")
	if a.State().Secondary != "Claude" {
		t.Fatalf("secondary = %q", a.State().Secondary)
	}
	if got := keysOf(a.Results()); len(got) != 1 || got[0] != "2" {
		t.Errorf("results = %v", got)
	}

	a, _ = press(t, a, " ")
	if a.State().Secondary != "" {
		t.Errorf("toggling the active tag should clear it, got %q", a.State().Secondary)
	}
}

func TestAppSearchIsDebounced(t *testing.T) {
	a, _ := newApp(t, "", nil)

	a, _ = press(t, a, "/", "g")
	a, cmd := press(t, a, "r")
	if a.State().Search != "" {
		t.Fatal("typing should not apply the search immediately")
	}

	var due []SearchDue
	for _, msg := range run(cmd) {
		if d, ok := msg.(SearchDue); ok {
			due = append(due, d)
		}
	}
	if len(due) != 1 {
		t.Fatalf("expected one SearchDue, got %d", len(due))
	}

	stale := SearchDue{Ticket: due[0].Ticket - 1}
	m, _ := a.Update(stale)
	a = m.(App)
	if a.State().Search != "" {
		t.Fatal("a superseded ticket must not apply")
	}

	m, _ = a.Update(due[0])
	a = m.(App)
	if a.State().Search != "gr" {
		t.Fatalf("search = %q, want gr", a.State().Search)
	}
	if got := keysOf(a.Results()); len(got) != 1 || got[0] != "1" {
		t.Errorf("results = %v", got)
	}

	m, _ = a.Update(due[0])
	if m.(App).State().Search != "gr" {
		t.Error("a ticket fires once")
	}
}

func TestAppSearchEnterAppliesNow(t *testing.T) {
	a, h := newApp(t, "", nil)
	a, cmd := press(t, a, "/", "k", "e", "r")
	a, _ = press(t, a, "enter")
	if a.State().Search != "ker" {
		t.Fatalf("search = %q", a.State().Search)
	}
	if h.loc.Query() != "search=ker" {
		t.Errorf("query = %q", h.loc.Query())
	}

	// the tick scheduled before enter is stale now
	for _, msg := range run(cmd) {
		m, _ := a.Update(msg)
		a = m.(App)
	}
	if a.State().Search != "ker" {
		t.Errorf("stale tick changed search to %q", a.State().Search)
	}

	a, _ = press(t, a, "x")
	if a.State().Search != "" || len(a.Results()) != 4 {
		t.Errorf("x should clear the search, state %+v", a.State())
	}
}

func TestAppSearchBoxFollowsState(t *testing.T) {
	a, h := newApp(t, "search=kernel", nil)
	if a.search.Value() != "kernel" {
		t.Fatalf("search box = %q, want kernel", a.search.Value())
	}
	if got := keysOf(a.Results()); len(got) != 1 || got[0] != "3" {
		t.Fatalf("results = %v, want [3]", got)
	}
	if !strings.Contains(a.View(), "kernel") {
		t.Error("an active search should be visible")
	}

	// editing refines the restored term
	a, _ = press(t, a, "/", "s", "enter")
	if a.State().Search != "kernels" || h.loc.Query() != "search=kernels" {
		t.Errorf("search = %q query = %q, want kernels", a.State().Search, h.loc.Query())
	}

	a, _ = press(t, a, "x")
	if a.search.Value() != "" {
		t.Errorf("clearing should empty the box, got %q", a.search.Value())
	}

	a, _ = press(t, a, "/", "g", "r", "enter", "r")
	if a.search.Value() != "" || a.State().Search != "" {
		t.Errorf("reset should empty the box, got %q", a.search.Value())
	}
}

func TestAppSearchBoxFollowsReload(t *testing.T) {
	a, _ := newApp(t, "search=gradient", nil)
	a.search.SetValue("")
	m, _ := a.Update(DatasetLoaded{Store: fixture(), Reload: true})
	a = m.(App)
	if a.search.Value() != "gradient" || a.State().Search != "gradient" {
		t.Errorf("box %q state %q after reload", a.search.Value(), a.State().Search)
	}
}

func TestAppBookmarkPersistsAndFilters(t *testing.T) {
	a, h := newApp(t, "", nil)
	a, _ = press(t, a, "b")
	if h.kv[prefs.BookmarksKey] != `["1"]` {
		t.Fatalf("stored bookmarks = %q", h.kv[prefs.BookmarksKey])
	}

	a, _ = press(t, a, "f", "f", "f")
	if a.State().Quick != filter.QuickBookmarked {
		t.Fatalf("quick = %s", a.State().Quick)
	}
	if got := keysOf(a.Results()); len(got) != 1 || got[0] != "1" {
		t.Fatalf("bookmarked results = %v", got)
	}

	a, _ = press(t, a, "b")
	if len(a.Results()) != 0 {
		t.Errorf("unbookmarking under the bookmarked filter should empty the results")
	}
	if !strings.Contains(a.View(), "No posts match") {
		t.Error("empty results should say so")
	}
}

func TestAppResetKeepsView(t *testing.T) {
	a, h := newApp(t, "", nil)
	a, _ = press(t, a, "v", "s", "f", "]", " ")
	a, _ = press(t, a, "r")

	want := filter.Default()
	want.View = filter.ViewList
	if a.State() != want {
		t.Errorf("state after reset = %+v", a.State())
	}
	if h.loc.Query() != "view=list" {
		t.Errorf("query = %q", h.loc.Query())
	}
}

func TestAppDetail(t *testing.T) {
	a, _ := newApp(t, "", nil)
	a, _ = press(t, a, "enter")
	view := a.View()
	for _, want := range []string{"Gradient notes", "Tried gradient checks", "Similar posts"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail missing %q", want)
		}
	}

	a, _ = press(t, a, "esc")
	if strings.Contains(a.View(), "Similar posts") {
		t.Error("esc should close the detail")
	}
}

func TestAppPreviewDropsStaleResults(t *testing.T) {
	a, _ := newApp(t, "", func(o *Options) {
		o.Preview = preview.NewFetcherWith(fetch.NewFetcher(time.Second))
	})

	a, _ = press(t, a, "p") // post 1, HW1
	first := a.pane.URL
	a, _ = press(t, a, "j", "p") // post 3, HW2
	if a.pane.URL == first || !strings.HasSuffix(a.pane.URL, "hw2.pdf") {
		t.Fatalf("second preview url = %q", a.pane.URL)
	}

	// token 1 belongs to the first request
	m, _ := a.Update(PreviewLoaded{Token: 1, Doc: preview.Document{URL: first, Pages: 9}})
	a = m.(App)
	if a.pane.Status != preview.StatusLoading {
		t.Fatalf("stale result changed the pane: %v", a.pane.Status)
	}

	m, _ = a.Update(PreviewLoaded{Token: 2, Doc: preview.Document{URL: a.pane.URL, Pages: 4, Size: 1000}})
	a = m.(App)
	if a.pane.Status != preview.StatusReady || a.pane.Doc.Pages != 4 {
		t.Fatalf("pane = %v pages %d", a.pane.Status, a.pane.Doc.Pages)
	}
	if !strings.Contains(a.View(), "4 pages") {
		t.Error("ready preview should show the page count")
	}

	a, _ = press(t, a, "j", "p") // post 2, also HW2
	a, _ = press(t, a, "j", "p") // post 4, no homework
	if !strings.Contains(a.notice, "No assignment PDF") {
		t.Errorf("notice = %q", a.notice)
	}
}

type scriptedClient struct {
	deltas []string
	err    error
}

func (c scriptedClient) Chat(_ context.Context, _ []assistant.Message, onDelta func(string)) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	for _, d := range c.deltas {
		onDelta(d)
	}
	return strings.Join(c.deltas, ""), nil
}

func TestAppAssistantStreams(t *testing.T) {
	a, _ := newApp(t, "", func(o *Options) {
		o.Assistant = scriptedClient{deltas: []string{"Hel", "lo"}}
		o.Events = otel.NewNullLogger()
	})
	defer a.opts.Events.Close()

	a, _ = press(t, a, "4")
	if !a.ask.Focused() {
		t.Fatal("entering the assistant section should focus the input")
	}
	a, _ = press(t, a, "h", "i")
	a, cmd := press(t, a, "enter")
	if !a.convo.Generating() {
		t.Fatal("enter should start a reply")
	}

	a = pump(t, a, cmd)
	lines := a.convo.Transcript()
	if len(lines) != 2 || lines[0].Text != "hi" || lines[1].Text != "Hello" || lines[1].Streaming {
		t.Fatalf("transcript = %+v", lines)
	}
	if a.convo.Generating() {
		t.Error("reply should be finished")
	}
	if n := a.opts.Events.Ring().Stats()[otel.KindAssistantDone]; n != 1 {
		t.Errorf("assistant.done events = %d", n)
	}
}

func TestAppAssistantFailure(t *testing.T) {
	a, _ := newApp(t, "", func(o *Options) {
		o.Assistant = scriptedClient{err: errors.New("connection refused")}
	})
	a, _ = press(t, a, "4", "h", "i")
	a, cmd := press(t, a, "enter")
	a = pump(t, a, cmd)

	lines := a.convo.Transcript()
	last := lines[len(lines)-1]
	if last.Text != assistant.FailureReply || !last.Failed {
		t.Errorf("last line = %+v", last)
	}
}

func TestAppAssistantClearDropsLateReply(t *testing.T) {
	a, _ := newApp(t, "", func(o *Options) {
		o.Assistant = scriptedClient{deltas: []string{"late"}}
	})
	a, _ = press(t, a, "4", "h", "i")
	a, cmd := press(t, a, "enter")
	a, _ = press(t, a, "esc", "c")

	a = pump(t, a, cmd)
	lines := a.convo.Transcript()
	if len(lines) != 1 || lines[0].Text != assistant.ClearedNotice {
		t.Errorf("late reply leaked into a cleared conversation: %+v", lines)
	}
}

func TestAppAssistantDisabled(t *testing.T) {
	a, _ := newApp(t, "", nil)
	a, _ = press(t, a, "4", "h", "i", "enter")
	if !strings.Contains(a.notice, "not configured") {
		t.Errorf("notice = %q", a.notice)
	}
}

func TestAppReload(t *testing.T) {
	a, h := newApp(t, "hw=HW1", nil)

	smaller := dataset.NewStore([]post.Post{
		mk(7, "Only one", "x", "HW3", "Claude", "2024-03-01"),
	}, nil, nil)
	m, _ := a.Update(DatasetLoaded{Store: smaller, Reload: true})
	a = m.(App)
	if a.State().Primary != "" {
		t.Errorf("a homework missing from the new dataset should be dropped, got %q", a.State().Primary)
	}
	if h.loc.Query() != "" || len(a.Results()) != 1 {
		t.Errorf("query %q results %d", h.loc.Query(), len(a.Results()))
	}

	m, _ = a.Update(DatasetLoaded{Err: errors.New("disk gone"), Reload: true})
	a = m.(App)
	if len(a.Results()) != 1 || !strings.Contains(a.notice, "Reload failed") {
		t.Errorf("failed reload should keep data and warn: results %d notice %q", len(a.Results()), a.notice)
	}
}

func TestAppThemeCycles(t *testing.T) {
	a, h := newApp(t, "", nil)
	a, _ = press(t, a, "t")
	if a.styles.Theme != prefs.ThemeLight || h.kv[prefs.ThemeKey] != "light" {
		t.Fatalf("theme = %s stored %q", a.styles.Theme, h.kv[prefs.ThemeKey])
	}
	a, _ = press(t, a, "t", "t")
	if _, ok := h.kv[prefs.ThemeKey]; ok || a.styles.Theme != prefs.ThemeAuto {
		t.Error("auto should clear the stored theme")
	}
}

func TestAppExport(t *testing.T) {
	a, _ := newApp(t, "", nil)
	a, cmd := press(t, a, "e")
	a = pump(t, a, cmd)
	if !strings.Contains(a.notice, "Exported to") {
		t.Fatalf("notice = %q", a.notice)
	}
	path := strings.TrimPrefix(a.notice, "Exported to ")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file: %v", err)
	}
}

func TestAppSections(t *testing.T) {
	a, _ := newApp(t, "", nil)

	a, _ = press(t, a, "2")
	if !strings.Contains(a.View(), "Posts per homework") {
		t.Error("stats section should show the dashboard")
	}

	a, _ = press(t, a, "3", "l", "tab", "l", "tab", "l")
	if !a.compare.result.Ready() {
		t.Fatalf("compare selection = %+v", a.compare.result)
	}
	if a.compare.result.Homework != "HW1" || a.compare.result.ModelA != "GPT-4o" {
		t.Errorf("compare = %+v", a.compare.result)
	}
	if !strings.Contains(a.View(), "Gradient notes") {
		t.Error("compare view should list the matching post")
	}

	a, _ = press(t, a, "5")
	if !strings.Contains(a.View(), "Keys") {
		t.Error("help section should list keys")
	}

	a, _ = press(t, a, "D")
	if !strings.Contains(a.View(), "DEBUG") {
		t.Error("D should open the debug overlay")
	}
}
