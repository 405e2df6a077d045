package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/abelbrown/postexplorer/internal/config"
	"github.com/abelbrown/postexplorer/internal/dataset"
	"github.com/abelbrown/postexplorer/internal/fetch"
	"github.com/abelbrown/postexplorer/internal/filter"
	"github.com/abelbrown/postexplorer/internal/logging"
	"github.com/abelbrown/postexplorer/internal/otel"
	"github.com/abelbrown/postexplorer/internal/prefs"
	"github.com/abelbrown/postexplorer/internal/store"
	"github.com/abelbrown/postexplorer/internal/viewsync"
)

// runtime bundles what every command needs: configuration, the dataset
// source, preferences and the event log.
type runtime struct {
	cfg    *config.Config
	src    dataset.Source
	kv     *store.Store
	prefs  *prefs.Preferences
	events *otel.Logger

	eventsFile *os.File
}

// dbPath returns the path to the preferences database.
func dbPath() string {
	return filepath.Join(config.Dir(), "prefs.db")
}

// eventLogPath returns the path to the JSONL event log.
func eventLogPath() string {
	return filepath.Join(config.Dir(), "events.jsonl")
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFrom(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if flagSource != "" {
		cfg.Source.Base = flagSource
	}
	return cfg, nil
}

// setup loads configuration and opens preferences. With withEvents the
// JSONL event log is appended to; otherwise events are discarded.
func setup(withEvents bool) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	rt := &runtime{
		cfg: cfg,
		src: dataset.Source{
			Base:         cfg.Source.Base,
			PostsPath:    cfg.Source.PostsPath,
			ManifestPath: cfg.Source.ManifestPath,
			InsightsPath: cfg.Source.InsightsPath,
		},
	}

	if err := os.MkdirAll(config.Dir(), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	rt.events = otel.NewNullLogger()
	if withEvents {
		f, err := os.OpenFile(eventLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logging.Warn("event log unavailable", "path", eventLogPath(), "error", err)
		} else {
			rt.events.Close()
			rt.events = otel.NewLogger(f)
			rt.eventsFile = f
		}
	}
	rt.events.Info(otel.KindStartup, "main", rt.src.String())

	// Without storage, preferences still work for this session.
	kv, err := store.Open(dbPath())
	if err != nil {
		logging.Warn("preferences storage unavailable, using memory", "path", dbPath(), "error", err)
		rt.prefs = prefs.Load(nil)
	} else {
		rt.kv = kv
		rt.prefs = prefs.Load(kv)
	}
	return rt, nil
}

func (rt *runtime) loader() *dataset.Loader {
	return dataset.NewLoader(rt.src, fetch.NewFetcher(rt.cfg.SourceTimeout()), rt.events)
}

func (rt *runtime) load(ctx context.Context) (*dataset.Store, error) {
	return rt.loader().Load(ctx)
}

func (rt *runtime) env() func() filter.Env {
	return func() filter.Env {
		e := filter.NewEnv(timeNow(), rt.prefs.BookmarkSet())
		if len(rt.cfg.Filters.Popular) > 0 {
			e.Popular = rt.cfg.Filters.Popular
		}
		e.RecentWindow = rt.cfg.RecentWindow()
		return e
	}
}

func (rt *runtime) Close() {
	rt.events.Info(otel.KindShutdown, "main", "")
	rt.events.Close()
	if rt.eventsFile != nil {
		rt.eventsFile.Close()
	}
	if rt.kv != nil {
		rt.kv.Close()
	}
}

// parseLink accepts a bare query ("hw=HW2"), a query with its "?" or a
// full URL, and returns the query part.
func parseLink(link string) string {
	link = strings.TrimSpace(link)
	if i := strings.IndexByte(link, '?'); i >= 0 {
		link = link[i+1:]
	}
	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[:i]
	}
	return link
}

// filterFlags are the per-field overrides shared by list and export.
type filterFlags struct {
	homework string
	model    string
	search   string
	quick    string
	sort     string
}

// query merges the overrides into link. Invalid values are dropped later
// by the synchronizer, exactly as for a hand-edited link.
func (f filterFlags) query(link string) string {
	// ParseQuery keeps the pairs before a malformed one.
	v, _ := url.ParseQuery(parseLink(link))
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set(viewsync.KeyPrimary, f.homework)
	set(viewsync.KeySecondary, f.model)
	set(viewsync.KeySearch, f.search)
	set(viewsync.KeyQuick, f.quick)
	set(viewsync.KeySort, f.sort)
	return v.Encode()
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
