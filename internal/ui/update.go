package ui

import (
	"context"
	"errors"
	"time"

	"github.com/abelbrown/postexplorer/internal/assistant"
	"github.com/abelbrown/postexplorer/internal/export"
	"github.com/abelbrown/postexplorer/internal/facet"
	"github.com/abelbrown/postexplorer/internal/filter"
	"github.com/abelbrown/postexplorer/internal/logging"
	"github.com/abelbrown/postexplorer/internal/otel"
	"github.com/abelbrown/postexplorer/internal/post"
	"github.com/abelbrown/postexplorer/internal/preview"
	"github.com/abelbrown/postexplorer/internal/render"
	"github.com/abelbrown/postexplorer/internal/trigger"
	"github.com/abelbrown/postexplorer/internal/viewsync"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a.quit()
	}

	// Load failure blocks everything but quitting.
	if a.loadErr != nil || a.sync == nil {
		if key.Matches(msg, keys.Quit) || msg.String() == "esc" {
			return a.quit()
		}
		return a, nil
	}

	// Text inputs swallow keys first.
	if a.section == sectionBrowse && a.searching {
		return a.handleSearchKey(msg)
	}
	if a.section == sectionAssistant && a.ask.Focused() {
		return a.handleAskKey(msg)
	}

	a.notice = ""

	if a.showDebug {
		if key.Matches(msg, keys.Debug) || key.Matches(msg, keys.Back) {
			a.showDebug = false
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a.quit()
	case key.Matches(msg, keys.Section):
		a.section = section(msg.String()[0] - '1')
		if a.section == sectionAssistant {
			return a, a.ask.Focus()
		}
		return a, nil
	case key.Matches(msg, keys.Theme):
		a.cycleTheme()
		return a, nil
	case key.Matches(msg, keys.Debug):
		a.showDebug = true
		return a, nil
	}

	switch a.section {
	case sectionBrowse:
		if a.detailKey != "" {
			return a.handleDetailKey(msg)
		}
		return a.handleBrowseKey(msg)
	case sectionStats:
		var cmd tea.Cmd
		a.statsView, cmd = a.statsView.Update(msg)
		return a, cmd
	case sectionCompare:
		return a.handleCompareKey(msg)
	case sectionAssistant:
		return a.handleAssistantKey(msg)
	}
	return a, nil
}

func (a App) quit() (tea.Model, tea.Cmd) {
	if a.cancelAsk != nil {
		a.cancelAsk()
	}
	a.pane.Close()
	return a, tea.Quit
}

func (a App) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := a.sync.State()
	switch {
	case key.Matches(msg, keys.Search):
		a.searching = true
		return a, a.search.Focus()

	case key.Matches(msg, keys.Clear):
		a.debounce.Cancel()
		a.pending = false
		a.apply(true, viewsync.ClearSearch())

	case key.Matches(msg, keys.PrevTag):
		a.tagFocus.Cursor--
		a.clampTagCursor()

	case key.Matches(msg, keys.NextTag):
		a.tagFocus.Cursor++
		a.clampTagCursor()

	case key.Matches(msg, keys.Group):
		if a.tagFocus.Group == render.GroupPrimary {
			a.tagFocus.Group = render.GroupSecondary
			a.tagFocus.Cursor = max(a.screen.controls.ActiveSecondary(), 0)
		} else {
			a.tagFocus.Group = render.GroupPrimary
			a.tagFocus.Cursor = max(a.screen.controls.ActivePrimary(), 0)
		}

	case key.Matches(msg, keys.Toggle):
		tags := a.groupTags()
		if a.tagFocus.Cursor < len(tags) {
			v := tags[a.tagFocus.Cursor].Value
			if a.tagFocus.Group == render.GroupSecondary {
				a.apply(true, viewsync.ToggleSecondary(v))
			} else {
				a.apply(true, viewsync.TogglePrimary(v))
			}
		}

	case key.Matches(msg, keys.Sort):
		a.apply(true, viewsync.SetSort(st.Sort.Next()))

	case key.Matches(msg, keys.View):
		a.apply(false, viewsync.SetView(st.View.Next()))

	case key.Matches(msg, keys.Quick):
		a.apply(true, viewsync.SetQuick(st.Quick.Next()))

	case key.Matches(msg, keys.Reset):
		a.debounce.Cancel()
		a.pending = false
		a.tagFocus = render.TagFocus{}
		a.apply(true, viewsync.Reset())

	case key.Matches(msg, keys.Down):
		a.cursor++
		a.clampCursor()

	case key.Matches(msg, keys.Up):
		a.cursor--
		a.clampCursor()

	case key.Matches(msg, keys.Top):
		a.cursor = 0

	case key.Matches(msg, keys.Bottom):
		a.cursor = len(a.screen.results.Posts) - 1
		a.clampCursor()

	case key.Matches(msg, keys.Open):
		if p, ok := a.selected(); ok {
			a.detailKey = p.Key()
			a.refreshDetail()
			a.detailView.GotoTop()
		}

	case key.Matches(msg, keys.Bookmark):
		if p, ok := a.selected(); ok {
			a.toggleBookmark(p)
		}

	case key.Matches(msg, keys.Preview):
		if p, ok := a.selected(); ok {
			return a.openPreview(p)
		}

	case key.Matches(msg, keys.Export):
		return a, a.exportCmd()

	case key.Matches(msg, keys.Back):
		a.pane.Close()
	}
	return a, nil
}

func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.searching = false
		a.search.Blur()
		return a, nil
	case "enter":
		a.searching = false
		a.search.Blur()
		a.debounce.Cancel()
		a.pending = false
		a.apply(true, viewsync.SetSearch(a.search.Value()))
		return a, nil
	}

	before := a.search.Value()
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	if a.search.Value() == before {
		return a, cmd
	}
	a.pending = true
	return a, tea.Batch(cmd, a.searchTick(a.debounce.Schedule()))
}

func (a App) searchTick(t trigger.Ticket) tea.Cmd {
	return tea.Tick(a.debounce.Delay(), func(time.Time) tea.Msg {
		return SearchDue{Ticket: t}
	})
}

func (a App) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		a.detailKey = ""
		a.pane.Close()
		return a, nil
	case key.Matches(msg, keys.Bookmark):
		if p, ok := a.store.Find(a.detailKey); ok {
			a.toggleBookmark(p)
			a.refreshDetail()
		}
		return a, nil
	case key.Matches(msg, keys.Preview):
		if p, ok := a.store.Find(a.detailKey); ok {
			return a.openPreview(p)
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.detailView, cmd = a.detailView.Update(msg)
	return a, cmd
}

func (a *App) refreshDetail() {
	if a.detailKey == "" || a.store == nil {
		return
	}
	p, ok := a.store.Find(a.detailKey)
	if !ok {
		a.detailKey = ""
		return
	}
	a.detailView.SetContent(a.styles.Detail(p, render.DetailOptions{
		Files:      a.store.Manifest().FilesFor(p),
		Resolve:    a.opts.Source.FilePath,
		Similar:    filter.Similar(a.store.Posts(), p, filter.SimilarLimit),
		Bookmarked: a.prefs.IsBookmarked(p.Key()),
		PDFURL:     preview.HomeworkURL(a.opts.PreviewTemplate, p.Homework()),
		Now:        a.opts.Now(),
		Width:      a.detailView.Width,
	}))
}

func (a *App) toggleBookmark(p post.Post) {
	on, err := a.prefs.ToggleBookmark(p.Key())
	if err != nil {
		logging.Error("bookmark write failed", "key", p.Key(), "error", err)
		a.opts.Events.Error(otel.KindPrefsError, "prefs", err)
		a.setNotice("Bookmark not saved: "+err.Error(), true)
	} else {
		a.opts.Events.Info(otel.KindPrefsWrite, "prefs", "bookmarks")
		if on {
			a.setNotice("Bookmarked", false)
		} else {
			a.setNotice("Bookmark removed", false)
		}
	}
	// re-render markers and the bookmarked quick filter
	a.apply(false)
}

func (a *App) cycleTheme() {
	next := a.prefs.Theme().Next()
	if err := a.prefs.SetTheme(next); err != nil {
		logging.Error("theme write failed", "theme", next, "error", err)
		a.opts.Events.Error(otel.KindPrefsError, "prefs", err)
		a.setNotice("Theme not saved: "+err.Error(), true)
	} else {
		a.opts.Events.Info(otel.KindPrefsWrite, "prefs", "theme")
	}
	a.styles = render.New(a.prefs.Theme())
	a.resize()
}

func (a App) openPreview(p post.Post) (tea.Model, tea.Cmd) {
	url := preview.HomeworkURL(a.opts.PreviewTemplate, p.Homework())
	if url == "" {
		a.setNotice("No assignment PDF for "+p.Homework(), true)
		return a, nil
	}
	if a.opts.Preview == nil {
		a.setNotice("PDF: "+url, false)
		return a, nil
	}

	tok := a.pane.Open(url)
	a.opts.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindPreviewStart, Comp: "preview", Token: uint64(tok), Source: url})

	fetcher, timeout := a.opts.Preview, a.opts.PreviewTimeout
	fetch := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		doc, err := fetcher.Fetch(ctx, url)
		return PreviewLoaded{Token: tok, Doc: doc, Err: err}
	}
	return a, tea.Batch(fetch, a.spinner.Tick)
}

func (a App) handlePreview(msg PreviewLoaded) (tea.Model, tea.Cmd) {
	if !a.pane.Resolve(msg.Token, msg.Doc, msg.Err) {
		a.opts.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindPreviewStale, Comp: "preview", Token: uint64(msg.Token)})
		return a, nil
	}
	if msg.Err != nil {
		logging.Warn("pdf preview failed", "url", a.pane.URL, "error", msg.Err)
		a.opts.Events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindPreviewError, Comp: "preview", Token: uint64(msg.Token), Err: msg.Err.Error()})
		return a, nil
	}
	a.opts.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindPreviewComplete, Comp: "preview", Token: uint64(msg.Token), Count: msg.Doc.Pages})
	return a, nil
}

func (a App) exportCmd() tea.Cmd {
	posts := a.screen.results.Posts
	dir, now := a.opts.ExportDir, a.opts.Now()
	return func() tea.Msg {
		path, err := export.WriteFile(dir, posts, now)
		return ExportDone{Path: path, Err: err}
	}
}

// Compare section.

func (a *App) compareOptions(field int) []string {
	if a.store == nil {
		return nil
	}
	if field == 0 {
		return a.sync.Facets().SortedPrimary()
	}
	return facet.ModelsFor(a.store.Posts(), a.compare.result.Homework)
}

func (a *App) refreshCompare() {
	if a.store == nil {
		return
	}
	c := a.compare.result
	models := facet.ModelsFor(a.store.Posts(), c.Homework)
	if !contains(models, c.ModelA) {
		c.ModelA = ""
	}
	if !contains(models, c.ModelB) {
		c.ModelB = ""
	}
	if !contains(a.sync.Facets().SortedPrimary(), c.Homework) {
		c = filter.Comparison{}
	}
	a.compare.result = filter.Compare(a.store.Posts(), c.Homework, c.ModelA, c.ModelB)
	a.compare.sel.Homeworks = a.sync.Facets().SortedPrimary()
	a.compare.sel.Models = models
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// step moves cur through options by delta, wrapping. An unset value
// steps to the first or last option.
func step(options []string, cur string, delta int) string {
	if len(options) == 0 {
		return ""
	}
	for i, v := range options {
		if v == cur {
			return options[(i+delta+len(options))%len(options)]
		}
	}
	if delta < 0 {
		return options[len(options)-1]
	}
	return options[0]
}

func (a App) handleCompareKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel := &a.compare.sel
	c := a.compare.result
	switch {
	case key.Matches(msg, keys.Group), key.Matches(msg, keys.Down):
		sel.Field = (sel.Field + 1) % 3
		return a, nil
	case key.Matches(msg, keys.PrevField), key.Matches(msg, keys.Up):
		sel.Field = (sel.Field + 2) % 3
		return a, nil
	case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
		delta := 1
		if key.Matches(msg, keys.Left) {
			delta = -1
		}
		opts := a.compareOptions(sel.Field)
		switch sel.Field {
		case 0:
			c.Homework = step(opts, c.Homework, delta)
		case 1:
			c.ModelA = step(opts, c.ModelA, delta)
		case 2:
			c.ModelB = step(opts, c.ModelB, delta)
		}
		a.compare.result = c
		a.refreshCompare()
		return a, nil
	case key.Matches(msg, keys.Reset):
		a.compare.result = filter.Comparison{}
		a.refreshCompare()
		return a, nil
	}
	return a, nil
}

// Assistant section.

func (a App) handleAssistantKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Ask):
		return a, a.ask.Focus()
	case key.Matches(msg, keys.ClearChat):
		if a.cancelAsk != nil {
			a.cancelAsk()
			a.cancelAsk = nil
		}
		a.convo.Clear()
	}
	return a, nil
}

func (a App) handleAskKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.ask.Blur()
		return a, nil
	case "enter":
		return a.askQuestion(a.ask.Value())
	}
	var cmd tea.Cmd
	a.ask, cmd = a.ask.Update(msg)
	return a, cmd
}

func (a App) askQuestion(q string) (tea.Model, tea.Cmd) {
	client := a.opts.Assistant
	if client == nil {
		a.setNotice("Assistant is not configured", true)
		return a, nil
	}
	tok, msgs, err := a.convo.Begin(q)
	if errors.Is(err, assistant.ErrEmpty) {
		return a, nil
	}
	if err != nil {
		a.setNotice(err.Error(), true)
		return a, nil
	}
	a.ask.SetValue("")
	a.askStarted = time.Now()
	a.opts.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAssistantStart, Comp: "assistant", Token: uint64(tok), Query: q})

	ctx, cancel := context.WithTimeout(context.Background(), a.opts.AssistantTimeout)
	a.cancelAsk = cancel
	ch := make(chan tea.Msg, 64)
	go func() {
		defer cancel()
		defer close(ch)
		reply, err := client.Chat(ctx, msgs, func(delta string) {
			ch <- AssistantDelta{Token: tok, Text: delta, next: ch}
		})
		ch <- AssistantDone{Token: tok, Reply: reply, Err: err}
	}()
	return a, tea.Batch(listen(ch), a.spinner.Tick)
}

// listen delivers the next message from a reply stream.
func listen(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (a App) handleAssistantDone(msg AssistantDone) (tea.Model, tea.Cmd) {
	if !a.convo.Finish(msg.Token, msg.Reply, msg.Err) {
		a.opts.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindAssistantStale, Comp: "assistant", Token: uint64(msg.Token)})
		return a, nil
	}
	a.cancelAsk = nil
	if msg.Err != nil {
		logging.Warn("assistant reply failed", "error", msg.Err)
		a.opts.Events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindAssistantError, Comp: "assistant", Token: uint64(msg.Token), Err: msg.Err.Error()})
		return a, nil
	}
	a.opts.Events.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindAssistantDone,
		Comp:  "assistant",
		Token: uint64(msg.Token),
		Dur:   time.Since(a.askStarted),
		Count: len(msg.Reply),
	})
	return a, nil
}
