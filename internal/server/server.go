// Package server exposes the loaded dataset over a small read-only HTTP
// API. Every request decodes its own filter state from the query string,
// so the server keeps no per-client state.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/abelbrown/postexplorer/internal/dataset"
	"github.com/abelbrown/postexplorer/internal/facet"
	"github.com/abelbrown/postexplorer/internal/filter"
	"github.com/abelbrown/postexplorer/internal/logging"
	"github.com/abelbrown/postexplorer/internal/post"
	"github.com/abelbrown/postexplorer/internal/prefs"
	"github.com/abelbrown/postexplorer/internal/preview"
	"github.com/abelbrown/postexplorer/internal/stats"
	"github.com/abelbrown/postexplorer/internal/viewsync"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures a Server. Zero values fall back to the filter defaults.
type Options struct {
	Prefs           *prefs.Preferences
	Popular         []string
	RecentWindow    time.Duration
	PreviewTemplate string
	Now             func() time.Time
	Debug           bool
}

// Server serves one dataset. SetStore swaps it after a reload.
type Server struct {
	mu    sync.RWMutex
	store *dataset.Store

	opts     Options
	registry *prometheus.Registry
	metrics  *metrics
	router   *gin.Engine
}

// New builds the router.
func New(st *dataset.Store, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Prefs == nil {
		opts.Prefs = prefs.Load(nil)
	}

	reg := prometheus.NewRegistry()
	s := &Server{
		opts:     opts,
		registry: reg,
		metrics:  newMetrics(reg),
	}
	s.SetStore(st)

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.Debug {
		router.Use(gin.Logger())
	}
	router.Use(s.instrument())

	router.GET("/health", s.handleHealth)
	api := router.Group("/api")
	api.GET("/posts", s.handlePosts)
	api.GET("/posts/:id", s.handlePost)
	api.GET("/facets", s.handleFacets)
	api.GET("/stats", s.handleStats)
	api.GET("/insights", s.handleInsights)
	api.GET("/compare", s.handleCompare)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// SetStore replaces the dataset served by later requests.
func (s *Server) SetStore(st *dataset.Store) {
	s.mu.Lock()
	s.store = st
	s.mu.Unlock()
	s.metrics.posts.Set(float64(st.Len()))
	s.metrics.reloads.Inc()
}

func (s *Server) current() *dataset.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) env() filter.Env {
	e := filter.NewEnv(s.opts.Now(), s.opts.Prefs.BookmarkSet())
	if len(s.opts.Popular) > 0 {
		e.Popular = s.opts.Popular
	}
	if s.opts.RecentWindow > 0 {
		e.RecentWindow = s.opts.RecentWindow
	}
	return e
}

// PostsResponse is the body of GET /api/posts.
type PostsResponse struct {
	Query   string      `json:"query"`
	Summary string      `json:"summary"`
	Filters string      `json:"filters,omitempty"`
	Count   int         `json:"count"`
	Total   int         `json:"total"`
	State   StateJSON   `json:"state"`
	Results []post.Post `json:"results"`
}

// StateJSON is filter.State with wire names.
type StateJSON struct {
	Homework string `json:"hw,omitempty"`
	Model    string `json:"model,omitempty"`
	Search   string `json:"search,omitempty"`
	Filter   string `json:"filter"`
	Sort     string `json:"sort"`
	View     string `json:"view"`
}

func stateJSON(st filter.State) StateJSON {
	return StateJSON{
		Homework: st.Primary,
		Model:    st.Secondary,
		Search:   st.Search,
		Filter:   st.Quick.String(),
		Sort:     st.Sort.String(),
		View:     st.View.String(),
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "posts": s.current().Len()})
}

// handlePosts runs one synchronisation pass against a throwaway location
// seeded with the request's query string.
func (s *Server) handlePosts(c *gin.Context) {
	st := s.current()
	vs := viewsync.New(st, viewsync.Options{
		Location: viewsync.NewMemoryLocation(c.Request.URL.RawQuery),
		Env:      s.env,
	})
	snap := vs.Start()

	c.JSON(http.StatusOK, PostsResponse{
		Query:   snap.Query,
		Summary: snap.Results.Summary.Text,
		Filters: snap.Results.Summary.Filters,
		Count:   snap.Results.Summary.Count,
		Total:   st.Len(),
		State:   stateJSON(snap.State),
		Results: snap.Results.Posts,
	})
}

// PostResponse is the body of GET /api/posts/:id.
type PostResponse struct {
	Post       post.Post   `json:"post"`
	Files      []post.File `json:"files"`
	Similar    []post.Post `json:"similar"`
	PDFURL     string      `json:"pdf_url,omitempty"`
	Bookmarked bool        `json:"bookmarked"`
}

func (s *Server) handlePost(c *gin.Context) {
	st := s.current()
	p, ok := st.Find(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	files := st.Manifest().FilesFor(p)
	if files == nil {
		files = []post.File{}
	}
	c.JSON(http.StatusOK, PostResponse{
		Post:       p,
		Files:      files,
		Similar:    filter.Similar(st.Posts(), p, filter.SimilarLimit),
		PDFURL:     preview.HomeworkURL(s.opts.PreviewTemplate, p.Homework()),
		Bookmarked: s.opts.Prefs.IsBookmarked(p.Key()),
	})
}

func (s *Server) handleFacets(c *gin.Context) {
	idx := facet.Build(s.current().Posts())
	c.JSON(http.StatusOK, gin.H{
		"homeworks": idx.SortedPrimary(),
		"models":    idx.SortedSecondary(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, stats.Build(s.current().Posts()))
}

// handleInsights passes the insights document through untouched.
func (s *Server) handleInsights(c *gin.Context) {
	raw := s.current().Insights()
	if len(raw) == 0 {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// CompareResponse is the body of GET /api/compare.
type CompareResponse struct {
	Homework string      `json:"hw"`
	ModelA   string      `json:"a"`
	ModelB   string      `json:"b"`
	A        []post.Post `json:"posts_a"`
	B        []post.Post `json:"posts_b"`
}

func (s *Server) handleCompare(c *gin.Context) {
	hw, a, b := c.Query("hw"), c.Query("a"), c.Query("b")
	if hw == "" || a == "" || b == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hw, a and b are required"})
		return
	}
	cmp := filter.Compare(s.current().Posts(), hw, a, b)
	c.JSON(http.StatusOK, CompareResponse{
		Homework: cmp.Homework,
		ModelA:   cmp.ModelA,
		ModelB:   cmp.ModelB,
		A:        cmp.A,
		B:        cmp.B,
	})
}
