// Command explorer browses the special-participation posts dataset.
//
// Usage:
//
//	explorer                      Interactive explorer (TUI)
//	explorer list [flags]         Print the posts matching a filter
//	explorer stats                Dashboard totals, homeworks, models, keywords
//	explorer compare HW A B       Two models side by side for one homework
//	explorer export               Write the filtered posts as JSON
//	explorer bookmarks            List or clear bookmarks
//	explorer serve                Local HTTP API with Prometheus metrics
//	explorer events               JSONL event log viewer
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/abelbrown/postexplorer/internal/assistant"
	"github.com/abelbrown/postexplorer/internal/config"
	"github.com/abelbrown/postexplorer/internal/dataset"
	"github.com/abelbrown/postexplorer/internal/logging"
	"github.com/abelbrown/postexplorer/internal/preview"
	"github.com/abelbrown/postexplorer/internal/ui"
	"github.com/abelbrown/postexplorer/internal/viewsync"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var timeNow = time.Now

var (
	flagConfig string
	flagSource string
	flagLink   string
	flagWatch  bool
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:   "explorer",
	Short: "Browse, filter and compare special-participation posts",
	Long: `explorer loads posts_processed.json (plus the attachment manifest and
insights) from a local directory or URL and lets you filter by homework,
model, search term and quick filter. The current view is always expressed
as a shareable link that --link restores.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := log.InfoLevel
		if flagDebug {
			level = log.DebugLevel
		}
		// The TUI owns the terminal, so it logs to a file.
		if cmd == cmd.Root() {
			return logging.Init(config.Dir(), level)
		}
		if !flagDebug {
			level = log.WarnLevel
		}
		logging.InitWriter(os.Stderr, level)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
	RunE: runTUI,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default ~/.postexplorer/config.yaml)")
	pf.StringVar(&flagSource, "source", "", "dataset directory or base URL (overrides config)")
	pf.StringVar(&flagLink, "link", "", "start from a shared link or query, e.g. 'hw=HW2&sort=oldest'")
	pf.BoolVar(&flagDebug, "debug", false, "verbose logging")
	rootCmd.Flags().BoolVar(&flagWatch, "watch", false, "reload when the local dataset changes")

	rootCmd.AddCommand(listCmd, statsCmd, compareCmd, exportCmd, bookmarksCmd, serveCmd, eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	rt, err := setup(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var changes chan struct{}
	if flagWatch {
		changes = make(chan struct{}, 1)
		go func() {
			err := dataset.Watch(ctx, rt.src, dataset.WatchDelay, func() {
				select {
				case changes <- struct{}{}:
				default:
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logging.Warn("watch stopped", "source", rt.src.String(), "error", err)
			}
		}()
	}

	link := parseLink(flagLink)
	if link == "" && rt.cfg.UI.DefaultView != "grid" {
		link = viewsync.KeyView + "=" + rt.cfg.UI.DefaultView
	}

	loader := rt.loader()
	opts := ui.Options{
		Load:             loader.Load,
		Source:           rt.src,
		Prefs:            rt.prefs,
		Location:         viewsync.NewMemoryLocation(link),
		Events:           rt.events,
		Popular:          rt.cfg.Filters.Popular,
		RecentWindow:     rt.cfg.RecentWindow(),
		SearchDelay:      rt.cfg.SearchDebounce(),
		Preview:          preview.NewFetcher(rt.cfg.PreviewTimeout(), time.Second),
		PreviewTemplate:  rt.cfg.Preview.URLTemplate,
		PreviewTimeout:   rt.cfg.PreviewTimeout(),
		AssistantModel:   rt.cfg.Assistant.Model,
		AssistantTimeout: rt.cfg.AssistantTimeout(),
		SystemPrompt:     rt.cfg.Assistant.SystemPrompt,
		ExportDir:        ".",
		Changes:          changes,
		Now:              timeNow,
	}
	if rt.cfg.Assistant.Enabled {
		opts.Assistant = assistant.NewOllamaClient(rt.cfg.Assistant.Endpoint, rt.cfg.Assistant.Model, rt.cfg.AssistantTimeout())
	}

	program := tea.NewProgram(ui.NewApp(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run explorer: %w", err)
	}

	// Print the link so the view can be reopened with --link.
	if app, ok := final.(ui.App); ok {
		if q := app.Query(); q != "" {
			fmt.Printf("link: ?%s\n", q)
		}
	}
	return nil
}
