package render

import (
	"regexp"
	"strings"
	"time"

	"github.com/abelbrown/postexplorer/internal/post"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Attachment markers look like "[📎 name.pdf]".
var bodyTokens = regexp.MustCompile(`\[📎 ([^\]]+)\]|https?://[^\s<]+`)

// FormatBody styles attachment markers and bare links. A marker whose name
// matches an attachment gains its resolved path; others stay as written.
func (s Styles) FormatBody(body string, files []post.File, resolve func(savedAs string) string) string {
	return bodyTokens.ReplaceAllStringFunc(body, func(m string) string {
		if !strings.HasPrefix(m, "[📎") {
			return s.Link.Render(m)
		}
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(m, "[📎 "), "]"))
		for _, f := range files {
			if f.OriginalFilename != name {
				continue
			}
			path := f.SavedAs
			if resolve != nil {
				path = resolve(f.SavedAs)
			}
			return s.Attachment.Render("📎 "+name) + " " + s.Link.Render(path)
		}
		return m
	})
}

// DetailOptions carries what the detail pane needs besides the post.
type DetailOptions struct {
	Files      []post.File
	Resolve    func(savedAs string) string
	Similar    []post.Post
	Bookmarked bool
	PDFURL     string
	Now        time.Time
	Width      int
}

// Detail draws the full post: header, badges, attachments, body and the
// similar-posts list.
func (s Styles) Detail(p post.Post, o DetailOptions) string {
	width := max(o.Width, 30)
	var b strings.Builder

	b.WriteString(s.marker(o.Bookmarked))
	b.WriteString(lipgloss.NewStyle().Bold(true).Width(width).Render(p.DisplayTitle()))
	b.WriteString("\n")

	var metaParts []string
	if created, ok := p.Created(); ok {
		when := created.Local().Format("Jan 2, 2006 3:04 PM")
		if !o.Now.IsZero() {
			when += " (" + humanize.RelTime(created, o.Now, "ago", "from now") + ")"
		}
		metaParts = append(metaParts, when)
	}
	metaParts = append(metaParts, "by "+p.AuthorName())
	if v := Views(p); v != "" {
		metaParts = append(metaParts, v)
	}
	b.WriteString(s.MetaItem.Render(strings.Join(metaParts, " • ")))
	b.WriteString("\n")

	b.WriteString(s.HomeworkBadge.Render(p.Homework()) + s.ModelBadge.Render(p.Model()))
	b.WriteString("\n")

	if u := p.ExternalURL(); u != "" {
		b.WriteString(s.MetaItem.Render("View on Ed: ") + s.Link.Render(u) + "\n")
	}
	if o.PDFURL != "" {
		b.WriteString(s.MetaItem.Render("📄 "+p.Homework()+" PDF: ") + s.Link.Render(o.PDFURL) + "\n")
	}

	if len(o.Files) > 0 {
		names := make([]string, 0, len(o.Files))
		for _, f := range o.Files {
			names = append(names, s.Attachment.Render("📎 "+f.OriginalFilename))
		}
		b.WriteString(strings.Join(names, " • "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	body := s.FormatBody(p.BodyOrPlaceholder(), o.Files, o.Resolve)
	b.WriteString(lipgloss.NewStyle().Width(width).Render(body))
	b.WriteString("\n")

	b.WriteString("\n")
	b.WriteString(s.SectionHeader.Render("Similar posts"))
	b.WriteString("\n")
	if len(o.Similar) == 0 {
		b.WriteString(s.MetaItem.Render("  No similar posts found"))
		b.WriteString("\n")
	}
	for _, sp := range o.Similar {
		tags := s.MetaItem.Render(" (" + sp.Homework() + ", " + sp.Model() + ")")
		b.WriteString("• " + truncate(sp.DisplayTitle(), width-lipgloss.Width(tags)-2) + tags)
		b.WriteString("\n")
	}
	return b.String()
}
