package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/abelbrown/postexplorer/internal/dataset"
	"github.com/abelbrown/postexplorer/internal/export"
	"github.com/abelbrown/postexplorer/internal/filter"
	"github.com/abelbrown/postexplorer/internal/logging"
	"github.com/abelbrown/postexplorer/internal/post"
	"github.com/abelbrown/postexplorer/internal/render"
	"github.com/abelbrown/postexplorer/internal/server"
	"github.com/abelbrown/postexplorer/internal/stats"
	"github.com/abelbrown/postexplorer/internal/viewsync"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var (
	listFilters   filterFlags
	listJSON      bool
	statsJSON     bool
	exportFilters filterFlags
	exportDir     string
	clearMarks    bool
	serveAddr     string
	serveWatch    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the posts matching a filter",
	Example: `  explorer list --hw HW2 --sort oldest
  explorer list --link '?model=Claude&filter=recent'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Dashboard totals and breakdowns",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var compareCmd = &cobra.Command{
	Use:   "compare HOMEWORK MODEL_A MODEL_B",
	Short: "Show two models' posts for one homework side by side",
	Args:  cobra.ExactArgs(3),
	RunE:  runCompare,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered posts to llm-posts-export-<date>.json",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "List bookmarked posts",
	Args:  cobra.NoArgs,
	RunE:  runBookmarks,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dataset over a local HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func addFilterFlags(cmd *cobra.Command, f *filterFlags) {
	fs := cmd.Flags()
	fs.StringVar(&f.homework, "hw", "", "homework filter")
	fs.StringVar(&f.model, "model", "", "model filter")
	fs.StringVar(&f.search, "search", "", "search term")
	fs.StringVar(&f.quick, "filter", "", "quick filter: all, recent, popular, bookmarked")
	fs.StringVar(&f.sort, "sort", "", "sort order: newest, oldest, homework, model")
}

func init() {
	addFilterFlags(listCmd, &listFilters)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print export records as JSON")

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the dashboard as JSON")

	addFilterFlags(exportCmd, &exportFilters)
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", ".", "output directory")

	bookmarksCmd.Flags().BoolVar(&clearMarks, "clear", false, "remove every bookmark")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload when the local dataset changes")
}

// loadFor sets up the runtime and loads the dataset for a one-shot command.
func loadFor(cmd *cobra.Command) (*runtime, *dataset.Store, error) {
	rt, err := setup(false)
	if err != nil {
		return nil, nil, err
	}
	st, err := rt.load(cmd.Context())
	if err != nil {
		rt.Close()
		return nil, nil, err
	}
	return rt, st, nil
}

// filtered runs one synchronisation pass for query.
func filtered(rt *runtime, st *dataset.Store, query string) viewsync.Snapshot {
	vs := viewsync.New(st, viewsync.Options{
		Location: viewsync.NewMemoryLocation(query),
		Env:      rt.env(),
	})
	return vs.Start()
}

func runList(cmd *cobra.Command, args []string) error {
	rt, st, err := loadFor(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	snap := filtered(rt, st, listFilters.query(flagLink))
	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(export.Records(snap.Results.Posts))
	}
	printPosts(out, snap.Results.Posts, rt.prefs.BookmarkSet())
	fmt.Fprintf(out, "\n%s of %d • %s\n", snap.Results.Summary.Text, st.Len(), snap.Results.Summary.Filters)
	if snap.Query != "" {
		fmt.Fprintf(out, "link: ?%s\n", snap.Query)
	}
	return nil
}

// printPosts writes one aligned line per post.
func printPosts(w io.Writer, posts []post.Post, bookmarks map[string]bool) {
	for _, p := range posts {
		mark := " "
		if bookmarks[p.Key()] {
			mark = "★"
		}
		views := ""
		if n, ok := p.Views(); ok {
			views = humanize.Comma(int64(n))
		}
		fmt.Fprintf(w, "%s %s %s %s %s %s  %s\n",
			mark,
			runewidth.FillLeft("#"+p.Key(), 6),
			runewidth.FillRight(p.CardDate(), 12),
			runewidth.FillRight(runewidth.Truncate(p.Homework(), 8, "…"), 8),
			runewidth.FillRight(runewidth.Truncate(p.Model(), 16, "…"), 16),
			runewidth.FillLeft(views, 7),
			truncate(p.DisplayTitle(), 60),
		)
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	rt, st, err := loadFor(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	d := stats.Build(st.Posts())
	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	fmt.Fprintln(out, render.New(rt.prefs.Theme()).StatsPanel(d, 100))
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	rt, st, err := loadFor(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	c := filter.Compare(st.Posts(), args[0], args[1], args[2])
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s vs %s\n", c.Homework, c.ModelA, c.ModelB)
	for _, col := range []struct {
		model string
		posts []post.Post
	}{{c.ModelA, c.A}, {c.ModelB, c.B}} {
		fmt.Fprintf(out, "\n%s (%d)\n", col.model, len(col.posts))
		if len(col.posts) == 0 {
			fmt.Fprintln(out, "  No posts found.")
			continue
		}
		printPosts(out, col.posts, rt.prefs.BookmarkSet())
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	rt, st, err := loadFor(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	snap := filtered(rt, st, exportFilters.query(flagLink))
	path, err := export.WriteFile(exportDir, snap.Results.Posts, timeNow())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d posts to %s\n", len(snap.Results.Posts), path)
	return nil
}

func runBookmarks(cmd *cobra.Command, args []string) error {
	rt, err := setup(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	if clearMarks {
		n := len(rt.prefs.Bookmarks())
		if err := rt.prefs.ClearBookmarks(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %d bookmarks\n", n)
		return nil
	}

	keys := rt.prefs.Bookmarks()
	if len(keys) == 0 {
		fmt.Fprintln(out, "No bookmarks yet. Press 'b' on a post in the explorer.")
		return nil
	}

	// Bookmarks are listed even when the dataset cannot be loaded.
	st, err := rt.load(cmd.Context())
	if err != nil {
		logging.Warn("dataset unavailable, listing keys only", "error", err)
		fmt.Fprintln(out, strings.Join(keys, "\n"))
		return nil
	}
	var posts []post.Post
	var missing []string
	for _, k := range keys {
		if p, ok := st.Find(k); ok {
			posts = append(posts, p)
		} else {
			missing = append(missing, k)
		}
	}
	printPosts(out, posts, rt.prefs.BookmarkSet())
	if len(missing) > 0 {
		fmt.Fprintf(out, "\nNot in this dataset: %s\n", strings.Join(missing, ", "))
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := setup(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := rt.loader()
	st, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	srv := server.New(st, server.Options{
		Prefs:           rt.prefs,
		Popular:         rt.cfg.Filters.Popular,
		RecentWindow:    rt.cfg.RecentWindow(),
		PreviewTemplate: rt.cfg.Preview.URLTemplate,
		Now:             timeNow,
		Debug:           flagDebug,
	})

	if serveWatch {
		go func() {
			err := dataset.Watch(ctx, rt.src, dataset.WatchDelay, func() {
				next, err := loader.Load(ctx)
				if err != nil {
					logging.Warn("reload failed, keeping previous dataset", "error", err)
					return
				}
				srv.SetStore(next)
				logging.Info("dataset reloaded", "posts", next.Len())
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logging.Warn("watch stopped", "source", rt.src.String(), "error", err)
			}
		}()
	}

	addr := rt.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d posts from %s on http://%s\n", st.Len(), rt.src.String(), addr)
	return srv.Run(ctx, addr)
}
