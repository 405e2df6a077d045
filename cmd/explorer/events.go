package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abelbrown/postexplorer/internal/otel"
	"github.com/spf13/cobra"
)

var eventsFlags struct {
	tail    int
	follow  bool
	kind    string
	level   string
	comp    string
	rawJSON bool
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the JSONL event log",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

func init() {
	fs := eventsCmd.Flags()
	fs.IntVar(&eventsFlags.tail, "tail", 50, "number of recent lines to show")
	fs.BoolVarP(&eventsFlags.follow, "follow", "f", false, "follow mode (like tail -f)")
	fs.StringVar(&eventsFlags.kind, "kind", "", "filter by event kind prefix (e.g. 'preview')")
	fs.StringVar(&eventsFlags.level, "level", "", "minimum level: debug, info, warn, error")
	fs.StringVar(&eventsFlags.comp, "comp", "", "filter by component name")
	fs.BoolVar(&eventsFlags.rawJSON, "json", false, "output raw JSON lines")
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch otel.Level(level) {
	case otel.LevelInfo:
		return 1
	case otel.LevelWarn:
		return 2
	case otel.LevelError:
		return 3
	default:
		return 0
	}
}

// eventFilter reports whether ev passes the kind, level and component flags.
type eventFilter struct {
	kind  string
	level string
	comp  string
}

func (f eventFilter) match(ev otel.Event) bool {
	if f.kind != "" && !strings.HasPrefix(string(ev.Kind), f.kind) {
		return false
	}
	if f.level != "" && levelRank(string(ev.Level)) < levelRank(f.level) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	return true
}

// formatEvent renders one event on a single line.
func formatEvent(ev otel.Event) string {
	ts := ev.Time.Format("15:04:05.000")
	lvl := strings.ToUpper(string(ev.Level))
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-9s] %-20s", ts, lvl, ev.Comp, ev.Kind)}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Token > 0 {
		parts = append(parts, fmt.Sprintf("tok=%d", ev.Token))
	}
	if ev.Source != "" {
		parts = append(parts, "src="+ev.Source)
	}
	if ev.Query != "" {
		parts = append(parts, fmt.Sprintf("q=%q", ev.Query))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

func runEvents(cmd *cobra.Command, args []string) error {
	logPath := eventLogPath()
	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("event log not found at %s (run the explorer first): %w", logPath, err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	filter := eventFilter{kind: eventsFlags.kind, level: eventsFlags.level, comp: eventsFlags.comp}
	emit := func(l parsedLine) {
		if eventsFlags.rawJSON {
			fmt.Fprintln(out, string(l.raw))
		} else {
			fmt.Fprintln(out, formatEvent(l.ev))
		}
	}

	for _, l := range readTailLines(f, eventsFlags.tail, filter.match) {
		emit(l)
	}
	if !eventsFlags.follow {
		return nil
	}

	// The scanner consumed the file; poll for appended lines.
	reader := bufio.NewReader(f)
	ctx := cmd.Context()
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev otel.Event
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if filter.match(ev) {
			emit(parsedLine{ev: ev, raw: line})
		}
	}
}

type parsedLine struct {
	ev  otel.Event
	raw []byte
}

// readTailLines reads r and returns the last n lines matching the filter.
// Lines that are not valid events are skipped.
func readTailLines(r io.Reader, n int, match func(otel.Event) bool) []parsedLine {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	var ring []parsedLine
	if n > 0 {
		ring = make([]parsedLine, 0, n)
	}

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 || n <= 0 {
			continue
		}
		var ev otel.Event
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) {
			continue
		}
		// scanner reuses its buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}
	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
