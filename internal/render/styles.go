// Package render turns posts, controls and panels into terminal text.
// Every function is pure: the same inputs give the same string.
package render

import (
	"github.com/abelbrown/postexplorer/internal/prefs"
	"github.com/charmbracelet/lipgloss"
)

// palette is the set of colours one theme draws with.
type palette struct {
	fg        lipgloss.TerminalColor
	primary   lipgloss.TerminalColor
	secondary lipgloss.TerminalColor
	muted     lipgloss.TerminalColor
	highlight lipgloss.TerminalColor
	success   lipgloss.TerminalColor
	danger    lipgloss.TerminalColor
	bar       lipgloss.TerminalColor
	selectFg  lipgloss.TerminalColor
}

var darkPalette = palette{
	fg:        lipgloss.Color("255"),
	primary:   lipgloss.Color("62"),  // Purple
	secondary: lipgloss.Color("241"), // Gray
	muted:     lipgloss.Color("240"), // Darker gray
	highlight: lipgloss.Color("212"), // Pink
	success:   lipgloss.Color("78"),  // Green
	danger:    lipgloss.Color("196"),
	bar:       lipgloss.Color("236"),
	selectFg:  lipgloss.Color("255"),
}

var lightPalette = palette{
	fg:        lipgloss.Color("235"),
	primary:   lipgloss.Color("61"),
	secondary: lipgloss.Color("243"),
	muted:     lipgloss.Color("246"),
	highlight: lipgloss.Color("162"),
	success:   lipgloss.Color("28"),
	danger:    lipgloss.Color("160"),
	bar:       lipgloss.Color("254"),
	selectFg:  lipgloss.Color("255"),
}

func adaptive(light, dark lipgloss.TerminalColor) lipgloss.TerminalColor {
	l, _ := light.(lipgloss.Color)
	d, _ := dark.(lipgloss.Color)
	return lipgloss.AdaptiveColor{Light: string(l), Dark: string(d)}
}

// autoPalette follows the terminal background.
var autoPalette = palette{
	fg:        adaptive(lightPalette.fg, darkPalette.fg),
	primary:   adaptive(lightPalette.primary, darkPalette.primary),
	secondary: adaptive(lightPalette.secondary, darkPalette.secondary),
	muted:     adaptive(lightPalette.muted, darkPalette.muted),
	highlight: adaptive(lightPalette.highlight, darkPalette.highlight),
	success:   adaptive(lightPalette.success, darkPalette.success),
	danger:    adaptive(lightPalette.danger, darkPalette.danger),
	bar:       adaptive(lightPalette.bar, darkPalette.bar),
	selectFg:  darkPalette.selectFg,
}

// Styles is the full style sheet for one theme.
type Styles struct {
	Theme prefs.Theme

	// SelectedItem for the highlighted post.
	SelectedItem lipgloss.Style
	// NormalItem for everything else.
	NormalItem lipgloss.Style
	// Bookmark marker.
	Bookmark lipgloss.Style

	HomeworkBadge lipgloss.Style
	ModelBadge    lipgloss.Style
	MetaItem      lipgloss.Style
	Preview       lipgloss.Style
	Link          lipgloss.Style
	Attachment    lipgloss.Style

	CardBox         lipgloss.Style
	SelectedCardBox lipgloss.Style

	SectionHeader lipgloss.Style
	TabActive     lipgloss.Style
	TabInactive   lipgloss.Style

	Tag        lipgloss.Style
	TagActive  lipgloss.Style
	TagCursor  lipgloss.Style
	GroupLabel lipgloss.Style

	StatusBarBox  lipgloss.Style
	StatusBarKey  lipgloss.Style
	StatusBarText lipgloss.Style

	FilterBar       lipgloss.Style
	FilterBarPrompt lipgloss.Style
	FilterBarText   lipgloss.Style
	FilterBarCount  lipgloss.Style

	BarFill  lipgloss.Style
	BarLabel lipgloss.Style

	UserLine      lipgloss.Style
	AssistantLine lipgloss.Style

	ErrorStyle lipgloss.Style
	HelpStyle  lipgloss.Style
	Success    lipgloss.Style
}

// New builds the style sheet for a theme. Unknown themes draw as auto.
func New(theme prefs.Theme) Styles {
	var c palette
	switch theme {
	case prefs.ThemeDark:
		c = darkPalette
	case prefs.ThemeLight:
		c = lightPalette
	default:
		theme = prefs.ThemeAuto
		c = autoPalette
	}

	return Styles{
		Theme: theme,

		SelectedItem: lipgloss.NewStyle().
			Bold(true).
			Foreground(c.selectFg).
			Background(c.primary).
			Padding(0, 1),
		NormalItem: lipgloss.NewStyle().
			Foreground(c.fg).
			Padding(0, 1),
		Bookmark: lipgloss.NewStyle().
			Foreground(c.highlight).
			Bold(true),

		HomeworkBadge: lipgloss.NewStyle().
			Foreground(c.primary).
			Background(c.bar).
			Padding(0, 1).
			MarginRight(1),
		ModelBadge: lipgloss.NewStyle().
			Foreground(c.highlight).
			Background(c.bar).
			Padding(0, 1),
		MetaItem: lipgloss.NewStyle().
			Foreground(c.secondary),
		Preview: lipgloss.NewStyle().
			Foreground(c.muted),
		Link: lipgloss.NewStyle().
			Foreground(c.primary).
			Underline(true),
		Attachment: lipgloss.NewStyle().
			Foreground(c.success),

		CardBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c.muted).
			Padding(0, 1),
		SelectedCardBox: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(c.highlight).
			Padding(0, 1),

		SectionHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(c.highlight).
			Padding(0, 1),
		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(c.selectFg).
			Background(c.primary).
			Padding(0, 1),
		TabInactive: lipgloss.NewStyle().
			Foreground(c.secondary).
			Padding(0, 1),

		Tag: lipgloss.NewStyle().
			Foreground(c.fg).
			Padding(0, 1),
		TagActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(c.selectFg).
			Background(c.primary).
			Padding(0, 1),
		TagCursor: lipgloss.NewStyle().
			Underline(true).
			Foreground(c.highlight).
			Padding(0, 1),
		GroupLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(c.secondary).
			Width(7),

		StatusBarBox: lipgloss.NewStyle().
			Foreground(c.fg).
			Background(c.bar).
			Padding(0, 1),
		StatusBarKey: lipgloss.NewStyle().
			Foreground(c.highlight).
			Bold(true),
		StatusBarText: lipgloss.NewStyle().
			Foreground(c.secondary),

		FilterBar: lipgloss.NewStyle().
			Foreground(c.fg).
			Background(c.bar).
			Padding(0, 1),
		FilterBarPrompt: lipgloss.NewStyle().
			Foreground(c.highlight).
			Bold(true),
		FilterBarText: lipgloss.NewStyle().
			Foreground(c.fg),
		FilterBarCount: lipgloss.NewStyle().
			Foreground(c.secondary),

		BarFill: lipgloss.NewStyle().
			Foreground(c.primary),
		BarLabel: lipgloss.NewStyle().
			Foreground(c.fg),

		UserLine: lipgloss.NewStyle().
			Bold(true).
			Foreground(c.primary),
		AssistantLine: lipgloss.NewStyle().
			Bold(true).
			Foreground(c.success),

		ErrorStyle: lipgloss.NewStyle().
			Foreground(c.danger).
			Bold(true).
			Padding(0, 1),
		HelpStyle: lipgloss.NewStyle().
			Foreground(c.muted).
			Padding(1, 2),
		Success: lipgloss.NewStyle().
			Foreground(c.success).
			Bold(true),
	}
}
