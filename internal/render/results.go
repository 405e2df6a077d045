package render

import (
	"fmt"
	"strings"

	"github.com/abelbrown/postexplorer/internal/filter"
	"github.com/abelbrown/postexplorer/internal/post"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// Layout constants.
const (
	CardWidth      = 44
	cardPreviewLen = 150
	cardLines      = 5
	cardHeight     = cardLines + 2 // border
	listHeight     = 3             // two lines plus a blank
	hwColWidth     = 10
	modelColWidth  = 14
	dateColWidth   = 12
)

// CardOptions controls how one post is drawn.
type CardOptions struct {
	Width      int
	Selected   bool
	Bookmarked bool
}

// truncate cuts s to w display cells, marking the cut.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.Truncate(s, w, "…")
}

// pad right-fills s to w cells.
func pad(s string, w int) string {
	return runewidth.FillRight(truncate(s, w), w)
}

// Views formats a view count, e.g. "1,204 views".
func Views(p post.Post) string {
	n, ok := p.Views()
	if !ok {
		return ""
	}
	if n == 1 {
		return "1 view"
	}
	return humanize.Comma(int64(n)) + " views"
}

// footer is the "N views • M min read" line.
func footer(p post.Post) string {
	var parts []string
	if v := Views(p); v != "" {
		parts = append(parts, v)
	}
	if m := post.ReadingMinutes(p.Body()); m > 0 {
		parts = append(parts, fmt.Sprintf("%d min read", m))
	}
	return strings.Join(parts, " • ")
}

// meta is the "date • author" line.
func meta(p post.Post) string {
	var parts []string
	if d := p.CardDate(); d != "" {
		parts = append(parts, d)
	}
	parts = append(parts, p.AuthorName())
	return strings.Join(parts, " • ")
}

func (s Styles) marker(bookmarked bool) string {
	if bookmarked {
		return s.Bookmark.Render("★") + " "
	}
	return ""
}

// Card draws one post as a bordered grid card.
func (s Styles) Card(p post.Post, o CardOptions) string {
	w := o.Width
	if w <= 0 {
		w = CardWidth
	}
	inner := w - 4 // border and padding
	if inner < 10 {
		inner = 10
	}

	markerWidth := 0
	if o.Bookmarked {
		markerWidth = 2
	}
	title := s.marker(o.Bookmarked) + lipgloss.NewStyle().Bold(true).Render(pad(p.DisplayTitle(), inner-markerWidth))

	badges := s.HomeworkBadge.Render(truncate(p.Homework(), hwColWidth)) +
		s.ModelBadge.Render(truncate(p.Model(), inner-hwColWidth-5))

	lines := []string{
		title,
		s.MetaItem.Render(pad(meta(p), inner)),
		badges,
		s.Preview.Render(pad(post.Preview(p.Body(), cardPreviewLen), inner)),
		s.MetaItem.Render(pad(footer(p), inner)),
	}

	box := s.CardBox
	if o.Selected {
		box = s.SelectedCardBox
	}
	return box.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

// ListItem draws a two-line entry for the list view.
func (s Styles) ListItem(p post.Post, o CardOptions) string {
	w := max(o.Width, 30)
	markerWidth := 0
	if o.Bookmarked {
		markerWidth = 2
	}

	titleStyle := s.NormalItem
	if o.Selected {
		titleStyle = s.SelectedItem
	}
	first := s.marker(o.Bookmarked) + titleStyle.Render(pad(p.DisplayTitle(), w-markerWidth-2))

	info := s.HomeworkBadge.Render(p.Homework()) + s.ModelBadge.Render(p.Model())
	rest := meta(p)
	if f := footer(p); f != "" {
		rest += " • " + f
	}
	second := "  " + info + " " + s.MetaItem.Render(truncate(rest, w-lipgloss.Width(info)-3))
	return first + "\n" + second
}

// CompactItem draws a single aligned row: homework, model, title, date.
func (s Styles) CompactItem(p post.Post, o CardOptions) string {
	w := max(o.Width, 40)
	mark := "  "
	if o.Bookmarked {
		mark = s.Bookmark.Render("★") + " "
	}

	hw := pad(p.Homework(), hwColWidth)
	model := pad(p.Model(), modelColWidth)
	date := runewidth.FillLeft(p.CardDate(), dateColWidth)
	titleWidth := w - hwColWidth - modelColWidth - dateColWidth - 2 - 3
	title := pad(p.DisplayTitle(), titleWidth)

	if o.Selected {
		return mark + s.SelectedItem.Padding(0).Render(hw+" "+model+" "+title+" "+date)
	}
	return mark + s.HomeworkBadge.UnsetBackground().Padding(0).Margin(0).Render(hw) + " " +
		s.ModelBadge.UnsetBackground().Padding(0).Render(model) + " " +
		s.NormalItem.Padding(0).Render(title) + " " +
		s.MetaItem.Render(date)
}

// Columns is how many grid cards fit side by side.
func Columns(width int) int {
	return max(1, width/(CardWidth+1))
}

// Results draws the result set in the chosen view, scrolled so the cursor
// stays visible within height lines.
func (s Styles) Results(posts []post.Post, view filter.ViewMode, cursor, width, height int, bookmarks map[string]bool) string {
	if len(posts) == 0 {
		return s.HelpStyle.Render("No posts match the current filters. Press 'r' to reset.")
	}
	if height < 1 {
		height = 1
	}
	cursor = min(max(cursor, 0), len(posts)-1)
	opts := func(i int) CardOptions {
		return CardOptions{
			Width:      width,
			Selected:   i == cursor,
			Bookmarked: bookmarks[posts[i].Key()],
		}
	}

	switch view {
	case filter.ViewList:
		visible := max(1, height/listHeight)
		offset := calcScrollOffset(cursor, visible)
		var b strings.Builder
		for i := offset; i < len(posts) && i < offset+visible; i++ {
			b.WriteString(s.ListItem(posts[i], opts(i)))
			b.WriteString("\n\n")
		}
		return b.String()

	case filter.ViewCompact:
		offset := calcScrollOffset(cursor, height)
		var b strings.Builder
		for i := offset; i < len(posts) && i < offset+height; i++ {
			b.WriteString(s.CompactItem(posts[i], opts(i)))
			b.WriteString("\n")
		}
		return b.String()

	default:
		cols := Columns(width)
		visibleRows := max(1, height/cardHeight)
		offset := calcScrollOffset(cursor/cols, visibleRows)
		var rows []string
		for r := offset; r < offset+visibleRows; r++ {
			start := r * cols
			if start >= len(posts) {
				break
			}
			var cards []string
			for i := start; i < start+cols && i < len(posts); i++ {
				o := opts(i)
				o.Width = CardWidth
				cards = append(cards, s.Card(posts[i], o))
			}
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
		}
		return strings.Join(rows, "\n")
	}
}

// calcScrollOffset finds the first visible unit such that the cursor's
// unit fits in a window of visible units.
func calcScrollOffset(cursor, visible int) int {
	if cursor < 0 || visible < 1 {
		return 0
	}
	if cursor >= visible {
		return cursor - visible + 1
	}
	return 0
}
