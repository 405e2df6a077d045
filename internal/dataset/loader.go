package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/postexplorer/internal/fetch"
	"github.com/abelbrown/postexplorer/internal/logging"
	"github.com/abelbrown/postexplorer/internal/otel"
	"github.com/abelbrown/postexplorer/internal/post"
)

// ErrNotArray means the posts document decoded but is not a JSON array.
var ErrNotArray = errors.New("posts document is not a JSON array")

// Document names used in errors and events.
const (
	DocPosts    = "posts"
	DocManifest = "manifest"
	DocInsights = "insights"
)

// LoadError reports a document that could not be loaded. Only a posts
// failure is Fatal; the other two degrade to empty values.
type LoadError struct {
	Doc   string
	Fatal bool
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Doc, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader reads a Source.
type Loader struct {
	src     Source
	fetcher *fetch.Fetcher
	events  *otel.Logger
}

// NewLoader returns a Loader. fetcher may be nil for local sources.
func NewLoader(src Source, fetcher *fetch.Fetcher, events *otel.Logger) *Loader {
	if fetcher == nil {
		fetcher = fetch.NewFetcher(30 * time.Second)
	}
	return &Loader{src: src, fetcher: fetcher, events: events}
}

// Source returns the loader's source.
func (l *Loader) Source() Source { return l.src }

// Load fetches the three documents concurrently. It fails only when the
// posts document is unreachable or malformed; manifest and insights
// failures are logged and replaced by empty values. Nothing is retried.
func (l *Loader) Load(ctx context.Context) (*Store, error) {
	start := time.Now()
	l.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLoadStart, Comp: "dataset", Source: l.src.String()})

	var (
		posts    []post.Post
		skipped  int
		manifest post.Manifest
		insights post.Insights
	)

	// Only the posts goroutine returns an error, so a degraded companion
	// never cancels the others.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		raw, err := l.read(gctx, l.src.PostsPath)
		if err != nil {
			return &LoadError{Doc: DocPosts, Fatal: true, Err: err}
		}
		posts, skipped, err = DecodePosts(raw)
		if err != nil {
			return &LoadError{Doc: DocPosts, Fatal: true, Err: err}
		}
		return nil
	})

	g.Go(func() error {
		raw, err := l.read(gctx, l.src.ManifestPath)
		if err == nil {
			manifest, err = DecodeManifest(raw)
		}
		if err != nil {
			l.degraded(&LoadError{Doc: DocManifest, Err: err})
			manifest = post.Manifest{}
		}
		return nil
	})

	g.Go(func() error {
		raw, err := l.read(gctx, l.src.InsightsPath)
		if err == nil {
			insights, err = DecodeInsights(raw)
		}
		if err != nil {
			l.degraded(&LoadError{Doc: DocInsights, Err: err})
			insights = nil
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logging.Error("dataset load failed", "source", l.src.String(), "error", err)
		l.events.Error(otel.KindLoadFatal, "dataset", err)
		return nil, err
	}

	if skipped > 0 {
		logging.Warn("skipped undecodable posts", "count", skipped)
	}

	store := NewStore(posts, manifest, insights)
	store.source = l.src.String()

	logging.Info("dataset loaded", "source", l.src.String(), "posts", len(posts), "attachments", len(manifest))
	l.events.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindLoadComplete,
		Comp:   "dataset",
		Source: l.src.String(),
		Count:  len(posts),
		Dur:    time.Since(start),
	})
	return store, nil
}

func (l *Loader) degraded(err *LoadError) {
	logging.Warn("dataset companion unavailable", "doc", err.Doc, "error", err.Err)
	l.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindLoadDegraded, Comp: "dataset", Source: err.Doc, Err: err.Err.Error()})
}

func (l *Loader) read(ctx context.Context, path string) ([]byte, error) {
	loc := l.src.Resolve(path)
	if l.src.Remote() {
		resp, err := l.fetcher.Get(ctx, loc)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(loc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", loc, err)
	}
	return data, nil
}

// DecodePosts parses the posts document. The payload must be an array;
// individual records that fail to decode are skipped and counted.
func DecodePosts(raw []byte) ([]post.Post, int, error) {
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return nil, 0, errors.New("posts document is not valid JSON")
	}
	if len(raw) == 0 || raw[0] != '[' {
		return nil, 0, ErrNotArray
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, 0, fmt.Errorf("decode posts: %w", err)
	}

	posts := make([]post.Post, 0, len(elems))
	skipped := 0
	for _, e := range elems {
		if bytes.Equal(e, []byte("null")) {
			skipped++
			continue
		}
		var p post.Post
		if err := json.Unmarshal(e, &p); err != nil {
			skipped++
			continue
		}
		posts = append(posts, p)
	}
	return posts, skipped, nil
}

// DecodeManifest parses the attachment index.
func DecodeManifest(raw []byte) (post.Manifest, error) {
	var m post.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m == nil {
		m = post.Manifest{}
	}
	return m, nil
}

// DecodeInsights checks the blob is JSON and keeps it verbatim.
func DecodeInsights(raw []byte) (post.Insights, error) {
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return nil, errors.New("insights document is not valid JSON")
	}
	return post.Insights(append([]byte(nil), raw...)), nil
}
