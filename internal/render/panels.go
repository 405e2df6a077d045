package render

import (
	"fmt"
	"strings"

	"github.com/abelbrown/postexplorer/internal/assistant"
	"github.com/abelbrown/postexplorer/internal/filter"
	"github.com/abelbrown/postexplorer/internal/post"
	"github.com/abelbrown/postexplorer/internal/preview"
	"github.com/abelbrown/postexplorer/internal/stats"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	barLabelWidth  = 16
	compareBodyLen = 800
)

// Bars draws a labelled horizontal bar chart.
func (s Styles) Bars(title string, counts []stats.Count, width int) string {
	var b strings.Builder
	b.WriteString(s.SectionHeader.Render(title))
	b.WriteString("\n")
	if len(counts) == 0 {
		b.WriteString(s.MetaItem.Render("  no data"))
		b.WriteString("\n")
		return b.String()
	}

	peak := stats.Max(counts)
	room := max(4, width-barLabelWidth-10)
	for _, c := range counts {
		n := 0
		if peak > 0 {
			n = max(1, c.Count*room/peak)
		}
		b.WriteString("  ")
		b.WriteString(s.BarLabel.Render(pad(c.Label, barLabelWidth)))
		b.WriteString(" ")
		b.WriteString(s.BarFill.Render(strings.Repeat("█", n)))
		b.WriteString(s.MetaItem.Render(fmt.Sprintf(" %d", c.Count)))
		b.WriteString("\n")
	}
	return b.String()
}

// StatsPanel draws the dashboard.
func (s Styles) StatsPanel(d stats.Dashboard, width int) string {
	o := d.Overview
	headline := strings.Join([]string{
		s.Success.Render(humanize.Comma(int64(o.Total))) + s.MetaItem.Render(" posts"),
		s.Success.Render(fmt.Sprint(o.Models)) + s.MetaItem.Render(" models"),
		s.Success.Render(fmt.Sprint(o.Homeworks)) + s.MetaItem.Render(" homeworks"),
		s.Success.Render(fmt.Sprint(o.Authors)) + s.MetaItem.Render(" contributors"),
	}, "   ")

	half := max(30, width/2-1)
	left := lipgloss.JoinVertical(lipgloss.Left,
		s.Bars("Posts per homework", d.Homeworks, half),
		s.Bars("Top models", d.Models, half),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		s.Bars("Top contributors", d.Contributors, half),
		s.Bars("Activity by day", d.Timeline, half),
	)

	words := make([]string, 0, len(d.Keywords))
	for _, k := range d.Keywords {
		words = append(words, fmt.Sprintf("%s(%d)", k.Label, k.Count))
	}
	keywords := s.SectionHeader.Render("Keywords") + "\n" +
		lipgloss.NewStyle().Width(max(20, width-2)).PaddingLeft(2).Render(strings.Join(words, "  "))

	var body string
	if width >= 2*half+2 {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(half).Render(left), "  ",
			lipgloss.NewStyle().Width(half).Render(right))
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, left, right)
	}
	return lipgloss.JoinVertical(lipgloss.Left, " "+headline, "", body, keywords)
}

// CompareSelection is the picker state of the compare section.
type CompareSelection struct {
	Homeworks []string
	Models    []string
	Field     int // 0 homework, 1 model A, 2 model B
}

func (s Styles) compareCard(p post.Post, pdfURL string, width int) string {
	body := p.BodyOrPlaceholder()
	runes := []rune(body)
	if len(runes) > compareBodyLen {
		body = string(runes[:compareBodyLen]) + "..."
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(truncate(p.DisplayTitle(), width)),
		s.MetaItem.Render(meta(p)),
	}
	if pdfURL != "" {
		lines = append(lines, s.Link.Render(truncate("📄 "+pdfURL, width)))
	}
	lines = append(lines, s.Preview.Width(width).Render(body))
	if u := p.ExternalURL(); u != "" {
		lines = append(lines, s.Link.Render(truncate("View on Ed → "+u, width)))
	}
	return s.CardBox.Width(width).Render(strings.Join(lines, "\n"))
}

func (s Styles) compareColumn(label string, posts []post.Post, pdfURL string, width int) string {
	parts := []string{s.SectionHeader.Render(label)}
	if len(posts) == 0 {
		parts = append(parts, s.MetaItem.Render("  No posts found."))
	}
	for _, p := range posts {
		parts = append(parts, s.compareCard(p, pdfURL, width-4))
	}
	return lipgloss.NewStyle().Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// ComparePanel draws the pickers and, once all three are chosen, the two
// model columns side by side.
func (s Styles) ComparePanel(c filter.Comparison, sel CompareSelection, pdfURL string, width int) string {
	field := func(i int, label, value string) string {
		if value == "" {
			value = "—"
		}
		st := s.Tag
		if i == sel.Field {
			st = s.TagActive
		}
		return s.GroupLabel.Render(label) + st.Render(value)
	}
	pickers := lipgloss.JoinVertical(lipgloss.Left,
		field(0, "HW", c.Homework),
		field(1, "Model A", c.ModelA),
		field(2, "Model B", c.ModelB),
	)
	if !c.Ready() {
		hint := s.HelpStyle.Render("tab: next field   ←/→: choose   models list those posted for the homework")
		return lipgloss.JoinVertical(lipgloss.Left, pickers, hint)
	}

	col := max(30, width/2-1)
	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		s.compareColumn(c.ModelA, c.A, pdfURL, col), "  ",
		s.compareColumn(c.ModelB, c.B, pdfURL, col))
	return lipgloss.JoinVertical(lipgloss.Left, pickers, "", columns)
}

// PreviewPanel draws the homework PDF pane. spin is the spinner frame
// shown while loading.
func (s Styles) PreviewPanel(p *preview.Pane, spin string, width int) string {
	if p == nil {
		return ""
	}
	switch p.Status {
	case preview.StatusLoading:
		return spin + " " + s.MetaItem.Render("Loading PDF "+truncate(p.URL, width-16))
	case preview.StatusReady:
		d := p.Doc
		title := d.Title
		if title == "" {
			title = "Assignment PDF"
		}
		pages := "unknown page count"
		if d.Pages == 1 {
			pages = "1 page"
		} else if d.Pages > 1 {
			pages = fmt.Sprintf("%d pages", d.Pages)
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			s.Success.Render("📄 "+title),
			s.MetaItem.Render(pages+" • "+humanize.Bytes(uint64(d.Size))),
			s.Link.Render(d.URL),
		)
	case preview.StatusFailed:
		return lipgloss.JoinVertical(lipgloss.Left,
			s.ErrorStyle.Render("PDF preview unavailable"),
			s.MetaItem.Render("Open it directly: ")+s.Link.Render(p.URL),
		)
	}
	return ""
}

// AssistantPanel draws the transcript, keeping the newest lines within
// height, followed by the input box.
func (s Styles) AssistantPanel(lines []assistant.Line, model, input string, width, height int) string {
	var rendered []string
	for _, l := range lines {
		var who string
		switch l.Role {
		case assistant.RoleUser:
			who = s.UserLine.Render("You: ")
		default:
			who = s.AssistantLine.Render("Assistant: ")
		}
		text := l.Text
		if l.Streaming {
			text += "▍"
		}
		body := lipgloss.NewStyle().Width(max(20, width-2)).Render(who + text)
		if l.Failed {
			body = s.ErrorStyle.Render(who + text)
		}
		rendered = append(rendered, strings.Split(body, "\n")...)
	}

	room := max(1, height-3)
	if len(rendered) > room {
		rendered = rendered[len(rendered)-room:]
	}
	header := s.SectionHeader.Render("Assistant") + s.MetaItem.Render("model: "+model)
	prompt := s.FilterBar.Width(width).Render(s.FilterBarPrompt.Render("> ") + input)
	return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(rendered, "\n"), prompt)
}

// Help lists every key binding.
func (s Styles) Help() string {
	rows := [][2]string{
		{"1-5", "switch section"},
		{"/", "search (applies after a short pause, enter applies now, esc leaves)"},
		{"x", "clear search"},
		{"tab", "switch between homework and model tags"},
		{"[ ]", "move along the tags"},
		{"space", "toggle the tag under the cursor"},
		{"f", "cycle quick filter: all, recent, popular, bookmarked"},
		{"s", "cycle sort: newest, oldest, homework, model"},
		{"v", "cycle view: grid, list, compact"},
		{"j/k", "move"},
		{"enter", "open post"},
		{"b", "bookmark post"},
		{"p", "preview the homework PDF"},
		{"e", "export the current results"},
		{"t", "cycle theme: auto, light, dark"},
		{"r", "reset filters"},
		{"q", "quit"},
	}
	var b strings.Builder
	b.WriteString(s.SectionHeader.Render("Keys"))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(s.StatusBarKey.Render(pad(r[0], 7)))
		b.WriteString(s.StatusBarText.Render(r[1]))
		b.WriteString("\n")
	}
	return s.HelpStyle.Render(b.String())
}
