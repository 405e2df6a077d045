package render

import (
	"fmt"
	"strings"

	"github.com/abelbrown/postexplorer/internal/viewsync"
	"github.com/charmbracelet/lipgloss"
)

// TagGroup names a row of facet tags.
type TagGroup int

const (
	GroupPrimary TagGroup = iota
	GroupSecondary
)

// TagFocus is where the keyboard cursor sits in the tag bar.
type TagFocus struct {
	Group  TagGroup
	Cursor int
}

// Summary draws "N posts · filters".
func (s Styles) Summary(sum viewsync.Summary) string {
	return s.SectionHeader.Render(sum.Text) + s.FilterBarCount.Render("· "+sum.Filters)
}

// tagRow draws one facet group. The "all" pseudo-tag is active when no
// value in the group is selected.
func (s Styles) tagRow(label string, tags []viewsync.Tag, focused bool, cursor, width int) string {
	noneActive := true
	for _, t := range tags {
		if t.Active {
			noneActive = false
		}
	}

	parts := []string{s.GroupLabel.Render(label)}
	allStyle := s.Tag
	if noneActive {
		allStyle = s.TagActive
	}
	parts = append(parts, allStyle.Render("all"))
	for i, t := range tags {
		st := s.Tag
		switch {
		case t.Active:
			st = s.TagActive
		case focused && i == cursor:
			st = s.TagCursor
		}
		if focused && i == cursor && t.Active {
			st = st.Underline(true)
		}
		parts = append(parts, st.Render(t.Value))
	}
	row := strings.Join(parts, "")
	if width > 0 {
		row = lipgloss.NewStyle().MaxWidth(width).Render(row)
	}
	return row
}

// TagBar draws both facet groups plus the quick filter, sort and view.
func (s Styles) TagBar(c viewsync.Controls, focus TagFocus, width int) string {
	primary := s.tagRow("HW", c.Primary, focus.Group == GroupPrimary, focus.Cursor, width)
	secondary := s.tagRow("Model", c.Secondary, focus.Group == GroupSecondary, focus.Cursor, width)

	mode := strings.Join([]string{
		s.StatusBarText.Render("filter:") + s.StatusBarKey.Render(c.Quick.String()),
		s.StatusBarText.Render("sort:") + s.StatusBarKey.Render(c.Sort.String()),
		s.StatusBarText.Render("view:") + s.StatusBarKey.Render(c.View.String()),
	}, "  ")
	return lipgloss.JoinVertical(lipgloss.Left, primary, secondary, " "+mode)
}

// SearchBar draws the search input. input is the text box as rendered by
// the caller; pending marks a typed term not yet applied.
func (s Styles) SearchBar(input string, pending bool, count, total, width int) string {
	prompt := s.FilterBarPrompt.Render("/")
	status := ""
	if pending {
		status = s.FilterBarCount.Render(" ...")
	}
	counter := s.FilterBarCount.Render(fmt.Sprintf(" %d/%d", count, total))

	content := prompt + s.FilterBarText.Render(input) + status + counter
	padding := max(0, width-lipgloss.Width(content)-2)
	return s.FilterBar.Width(width).Render(content + strings.Repeat(" ", padding))
}

// Location draws the shareable query.
func (s Styles) Location(query string) string {
	if query == "" {
		return s.MetaItem.Render("link: (default view)")
	}
	return s.MetaItem.Render("link: ") + s.Link.Render("?"+query)
}

// Section names, in tab order.
var Sections = []string{"Browse", "Stats", "Compare", "Assistant", "Help"}

// Tabs draws the section switcher.
func (s Styles) Tabs(active, width int) string {
	var parts []string
	for i, name := range Sections {
		label := fmt.Sprintf("%d %s", i+1, name)
		if i == active {
			parts = append(parts, s.TabActive.Render(label))
		} else {
			parts = append(parts, s.TabInactive.Render(label))
		}
	}
	right := s.MetaItem.Render("theme:" + s.Theme.String())
	left := strings.Join(parts, " ")
	gap := max(1, width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

// Hint is one key binding shown in the status bar.
type Hint struct {
	Key  string
	Desc string
}

// StatusBar renders the bottom status bar with position and key hints.
func (s Styles) StatusBar(position string, hints []Hint, width int) string {
	keys := make([]string, 0, len(hints))
	for _, h := range hints {
		keys = append(keys, s.StatusBarKey.Render(h.Key)+s.StatusBarText.Render(":"+h.Desc))
	}
	keyHints := strings.Join(keys, " ")

	left := " " + position + " "
	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(keyHints)-2)
	return s.StatusBarBox.Width(width).Render(left + strings.Repeat(" ", padding) + keyHints)
}

// Notice draws a transient one-line message.
func (s Styles) Notice(msg string, isErr bool) string {
	if msg == "" {
		return ""
	}
	if isErr {
		return s.ErrorStyle.Render(msg)
	}
	return s.Success.Render(msg)
}

// ErrorScreen blocks the whole UI when the dataset could not be loaded.
func (s Styles) ErrorScreen(err error, source string, width, height int) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		s.ErrorStyle.Render("Could not load posts"),
		"",
		s.NormalItem.Render(err.Error()),
		"",
		s.MetaItem.Render("source: "+source),
		s.MetaItem.Render("press q to quit"),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}
