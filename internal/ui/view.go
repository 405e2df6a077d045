package ui

import (
	"fmt"
	"strings"

	"github.com/abelbrown/postexplorer/internal/preview"
	"github.com/abelbrown/postexplorer/internal/render"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	s := a.styles

	if a.loadErr != nil {
		return s.ErrorScreen(a.loadErr, a.opts.Source.String(), a.width, a.height)
	}
	if a.sync == nil {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
			a.spinner.View()+" Loading posts from "+a.opts.Source.String())
	}
	if a.showDebug {
		return lipgloss.JoinVertical(lipgloss.Left,
			debugOverlay(a.opts.Events.Ring(), a.width, a.height-1),
			debugStatusBar(s, a.width))
	}

	header := s.Tabs(int(a.section), a.width)
	var body string
	var hints []render.Hint
	position := ""

	switch a.section {
	case sectionBrowse:
		body, position, hints = a.browseView(a.height - 2)
	case sectionStats:
		body = a.statsView.View()
		position = fmt.Sprintf("%d posts", a.dashboard.Overview.Total)
		hints = []render.Hint{{Key: "j/k", Desc: "scroll"}, {Key: "t", Desc: "theme"}, {Key: "q", Desc: "quit"}}
	case sectionCompare:
		body = s.ComparePanel(a.compare.result, a.compare.sel,
			preview.HomeworkURL(a.opts.PreviewTemplate, a.compare.result.Homework), a.width)
		hints = []render.Hint{{Key: "tab", Desc: "field"}, {Key: "←/→", Desc: "choose"}, {Key: "r", Desc: "reset"}}
	case sectionAssistant:
		transcript := a.convo.Transcript()
		body = s.AssistantPanel(transcript, a.opts.AssistantModel, a.ask.View(), a.width, a.height-3)
		if a.convo.Generating() {
			position = a.spinner.View() + " generating"
		}
		hints = []render.Hint{{Key: "i", Desc: "ask"}, {Key: "esc", Desc: "leave input"}, {Key: "c", Desc: "clear"}}
	case sectionHelp:
		body = s.Help()
		hints = []render.Hint{{Key: "1", Desc: "browse"}, {Key: "q", Desc: "quit"}}
	}

	bodyHeight := max(a.height-2, 1)
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, s.StatusBar(position, hints, a.width))
}

// browseView lays out search, tags, summary, optional preview, results or
// detail, then the shareable link and any notice.
func (a App) browseView(height int) (string, string, []render.Hint) {
	s := a.styles
	c := a.screen.controls
	r := a.screen.results
	total := 0
	if a.store != nil {
		total = a.store.Len()
	}

	var top []string
	if a.searching || a.search.Value() != "" {
		top = append(top, s.SearchBar(a.search.View(), a.pending, r.Summary.Count, total, a.width))
	}
	top = append(top, s.TagBar(c, a.tagFocus, a.width), s.Summary(r.Summary))
	if p := s.PreviewPanel(a.pane, a.spinner.View(), a.width); p != "" {
		top = append(top, p)
	}

	var bottom []string
	bottom = append(bottom, s.Location(a.location.Query()))
	if a.notice != "" {
		bottom = append(bottom, s.Notice(a.notice, a.noticeErr))
	}

	head := strings.Join(top, "\n")
	foot := strings.Join(bottom, "\n")
	room := max(height-lipgloss.Height(head)-lipgloss.Height(foot), 3)

	var main string
	var hints []render.Hint
	position := ""
	if a.detailKey != "" {
		dv := a.detailView
		dv.Height = room
		main = dv.View()
		position = fmt.Sprintf("%3.f%%", dv.ScrollPercent()*100)
		hints = []render.Hint{
			{Key: "esc", Desc: "back"}, {Key: "b", Desc: "bookmark"}, {Key: "p", Desc: "pdf"}, {Key: "j/k", Desc: "scroll"},
		}
	} else {
		main = s.Results(r.Posts, r.View, a.cursor, a.width, room, a.prefs.BookmarkSet())
		if n := len(r.Posts); n > 0 {
			position = fmt.Sprintf("%d/%d", a.cursor+1, n)
		}
		hints = []render.Hint{
			{Key: "/", Desc: "search"}, {Key: "space", Desc: "tag"}, {Key: "f", Desc: "filter"},
			{Key: "s", Desc: "sort"}, {Key: "v", Desc: "view"}, {Key: "enter", Desc: "open"},
			{Key: "b", Desc: "bookmark"}, {Key: "r", Desc: "reset"}, {Key: "q", Desc: "quit"},
		}
	}
	main = lipgloss.NewStyle().Height(room).MaxHeight(room).Render(main)
	return lipgloss.JoinVertical(lipgloss.Left, head, main, foot), position, hints
}
