package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/postexplorer/internal/otel"
	"github.com/abelbrown/postexplorer/internal/render"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// debugPanelChrome is the number of terminal lines consumed by the panel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
const debugPanelChrome = 4

var debugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("62")).
	Padding(1, 2)

var debugHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("212"))

// debugOverlay renders pipeline counters and recent events.
// Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, debugHeader.Render("Pipeline Stats"))
	lines = append(lines, fmt.Sprintf("  Loads:      %d complete, %d degraded, %d fatal",
		stats[otel.KindLoadComplete], stats[otel.KindLoadDegraded], stats[otel.KindLoadFatal]))
	lines = append(lines, fmt.Sprintf("  Sync:       %d passes, %d dropped facets",
		stats[otel.KindSyncPass], stats[otel.KindSyncDropped]))
	lines = append(lines, fmt.Sprintf("  Preview:    %d started, %d complete, %d errors, %d stale",
		stats[otel.KindPreviewStart], stats[otel.KindPreviewComplete], stats[otel.KindPreviewError], stats[otel.KindPreviewStale]))
	lines = append(lines, fmt.Sprintf("  Assistant:  %d asked, %d answered, %d errors, %d stale",
		stats[otel.KindAssistantStart], stats[otel.KindAssistantDone], stats[otel.KindAssistantError], stats[otel.KindAssistantStale]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, debugHeader.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-20s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Msg != "" {
			line += "  " + runewidth.Truncate(e.Msg, 40, "…")
		}
		if e.Query != "" {
			line += "  q=" + runewidth.Truncate(e.Query, 30, "…")
		}
		if e.Err != "" {
			line += "  ERR:" + runewidth.Truncate(e.Err, 30, "…")
		}
		if e.Token != 0 {
			line += fmt.Sprintf("  tok:%d", e.Token)
		}
		lines = append(lines, line)
	}

	maxHeight := max(height-debugPanelChrome, 1)
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := min(76, width-4)
	if panelWidth < 20 {
		panelWidth = 20
	}
	return debugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string.
// Negative durations from clock skew clamp to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(s render.Styles, width int) string {
	return s.StatusBar("[DEBUG]", []render.Hint{{Key: "D", Desc: "close"}}, width)
}
