// Package viewsync keeps the filter state, the shareable query, the
// rendered controls and the rendered results consistent.
//
// Every change goes through one pass in a fixed order: update state,
// compute results, render controls, render results and summary, then
// replace the location query. Nothing flows back from the sinks, so there
// are no feedback loops.
package viewsync

import (
	"time"

	"github.com/abelbrown/postexplorer/internal/facet"
	"github.com/abelbrown/postexplorer/internal/filter"
	"github.com/abelbrown/postexplorer/internal/logging"
	"github.com/abelbrown/postexplorer/internal/otel"
	"github.com/abelbrown/postexplorer/internal/post"
)

// Dataset is the read side of a loaded dataset.
type Dataset interface {
	Posts() []post.Post
}

// Snapshot is the outcome of one synchronisation pass.
type Snapshot struct {
	State    filter.State
	Query    string
	Controls Controls
	Results  Results
}

// Options wires the synchronizer to its sinks. Env is called once per pass
// so the clock and bookmark set are read fresh.
type Options struct {
	Renderer Renderer
	Location Location
	Env      func() filter.Env
	Events   *otel.Logger
}

// Synchronizer owns the filter state for one view.
type Synchronizer struct {
	posts  []post.Post
	facets facet.Index
	state  filter.State
	last   Snapshot

	renderer Renderer
	location Location
	env      func() filter.Env
	events   *otel.Logger
}

// New binds a synchronizer to a dataset. Call Start before Apply.
func New(ds Dataset, opts Options) *Synchronizer {
	s := &Synchronizer{
		state:    filter.Default(),
		renderer: opts.Renderer,
		location: opts.Location,
		env:      opts.Env,
		events:   opts.Events,
	}
	if s.renderer == nil {
		s.renderer = discard{}
	}
	if s.location == nil {
		s.location = NewMemoryLocation("")
	}
	if s.env == nil {
		s.env = func() filter.Env { return filter.NewEnv(time.Now(), nil) }
	}
	s.bind(ds)
	return s
}

func (s *Synchronizer) bind(ds Dataset) {
	s.posts = ds.Posts()
	s.facets = facet.Build(s.posts)
}

// Start reads the initial query, drops facet values the dataset does not
// know, and performs the first pass.
func (s *Synchronizer) Start() Snapshot {
	s.state = s.validate(Decode(s.location.Query()))
	return s.pass()
}

// Apply runs mutations in order, then performs exactly one pass.
func (s *Synchronizer) Apply(mutations ...Mutation) Snapshot {
	for _, m := range mutations {
		m(&s.state)
	}
	s.state = s.state.Normalize()
	return s.pass()
}

// Rebind swaps in a reloaded dataset, recomputes facets and revalidates
// the current state before one pass.
func (s *Synchronizer) Rebind(ds Dataset) Snapshot {
	s.bind(ds)
	s.state = s.validate(s.state)
	return s.pass()
}

// State returns a copy of the current state.
func (s *Synchronizer) State() filter.State { return s.state }

// Facets returns the facet index of the bound dataset.
func (s *Synchronizer) Facets() facet.Index { return s.facets }

// Last returns the snapshot of the most recent pass.
func (s *Synchronizer) Last() Snapshot { return s.last }

func (s *Synchronizer) validate(st filter.State) filter.State {
	st = st.Normalize()
	if st.Primary != "" && !s.facets.ValidPrimary(st.Primary) {
		logging.Warn("dropping unknown homework filter", "value", st.Primary)
		s.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindSyncDropped, Comp: "viewsync", Msg: st.Primary})
		st.Primary = ""
	}
	if st.Secondary != "" && !s.facets.ValidSecondary(st.Secondary) {
		logging.Warn("dropping unknown model filter", "value", st.Secondary)
		s.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindSyncDropped, Comp: "viewsync", Msg: st.Secondary})
		st.Secondary = ""
	}
	return st
}

func (s *Synchronizer) pass() Snapshot {
	start := time.Now()

	posts := filter.Compute(s.posts, s.state, s.env())

	controls := s.controls()
	s.renderer.RenderControls(controls)

	results := Results{
		Posts:   posts,
		View:    s.state.View,
		Summary: Summarize(len(posts), s.state),
	}
	s.renderer.RenderResults(results)

	query := Encode(s.state)
	s.location.ReplaceQuery(query)

	s.last = Snapshot{State: s.state, Query: query, Controls: controls, Results: results}
	s.events.Emit(otel.Event{
		Level: otel.LevelDebug,
		Kind:  otel.KindSyncPass,
		Comp:  "viewsync",
		Query: query,
		Count: len(posts),
		Dur:   time.Since(start),
	})
	return s.last
}

func (s *Synchronizer) controls() Controls {
	return Controls{
		Primary:           tags(s.facets.SortedPrimary(), s.state.Primary),
		Secondary:         tags(s.facets.SortedSecondary(), s.state.Secondary),
		SelectedPrimary:   s.state.Primary,
		SelectedSecondary: s.state.Secondary,
		Search:            s.state.Search,
		Quick:             s.state.Quick,
		Sort:              s.state.Sort,
		View:              s.state.View,
	}
}

func tags(values []string, selected string) []Tag {
	out := make([]Tag, len(values))
	for i, v := range values {
		out[i] = Tag{Value: v, Active: v == selected}
	}
	return out
}

type discard struct{}

func (discard) RenderControls(Controls) {}
func (discard) RenderResults(Results)   {}
