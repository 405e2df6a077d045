package ui

import (
	"context"
	"time"

	"github.com/abelbrown/postexplorer/internal/assistant"
	"github.com/abelbrown/postexplorer/internal/dataset"
	"github.com/abelbrown/postexplorer/internal/filter"
	"github.com/abelbrown/postexplorer/internal/logging"
	"github.com/abelbrown/postexplorer/internal/otel"
	"github.com/abelbrown/postexplorer/internal/post"
	"github.com/abelbrown/postexplorer/internal/prefs"
	"github.com/abelbrown/postexplorer/internal/preview"
	"github.com/abelbrown/postexplorer/internal/render"
	"github.com/abelbrown/postexplorer/internal/stats"
	"github.com/abelbrown/postexplorer/internal/trigger"
	"github.com/abelbrown/postexplorer/internal/viewsync"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type section int

const (
	sectionBrowse section = iota
	sectionStats
	sectionCompare
	sectionAssistant
	sectionHelp
)

// Options wires the App to its collaborators. Only Load and Prefs are
// required; a nil Preview or Assistant disables that capability.
type Options struct {
	Load     func(ctx context.Context) (*dataset.Store, error)
	Source   dataset.Source
	Prefs    *prefs.Preferences
	Location viewsync.Location
	Events   *otel.Logger

	Popular      []string
	RecentWindow time.Duration
	SearchDelay  time.Duration

	Preview         *preview.Fetcher
	PreviewTemplate string
	PreviewTimeout  time.Duration

	Assistant        assistant.Client
	AssistantModel   string
	AssistantTimeout time.Duration
	SystemPrompt     string

	ExportDir string

	// Changes delivers a value whenever the source changes on disk.
	Changes <-chan struct{}

	Now func() time.Time
}

// screen is the Renderer sink: the synchronizer pushes controls and
// results here and View draws from it.
type screen struct {
	controls viewsync.Controls
	results  viewsync.Results
}

func (s *screen) RenderControls(c viewsync.Controls) { s.controls = c }
func (s *screen) RenderResults(r viewsync.Results)   { s.results = r }

type compareState struct {
	sel    render.CompareSelection
	result filter.Comparison
}

// App is the root Bubble Tea model. Long-lived mutable collaborators are
// held by pointer so copies of App made by Update share them.
type App struct {
	opts   Options
	styles render.Styles

	store    *dataset.Store
	sync     *viewsync.Synchronizer
	screen   *screen
	location viewsync.Location
	prefs    *prefs.Preferences
	debounce *trigger.Debouncer
	pane     *preview.Pane
	convo    *assistant.Conversation

	cancelAsk  context.CancelFunc
	askStarted time.Time

	section   section
	cursor    int
	tagFocus  render.TagFocus
	search    textinput.Model
	searching bool
	pending   bool

	detailKey  string
	detailView viewport.Model
	statsView  viewport.Model
	dashboard  stats.Dashboard
	compare    compareState
	ask        textinput.Model
	spinner    spinner.Model
	showDebug  bool

	loading   bool
	loadErr   error
	notice    string
	noticeErr bool

	width  int
	height int
	ready  bool
}

// NewApp creates the App. Init starts the dataset load.
func NewApp(opts Options) App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Prefs == nil {
		opts.Prefs = prefs.Load(nil)
	}
	if opts.Location == nil {
		opts.Location = viewsync.NewMemoryLocation("")
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.PreviewTimeout <= 0 {
		opts.PreviewTimeout = 20 * time.Second
	}
	if opts.AssistantTimeout <= 0 {
		opts.AssistantTimeout = 2 * time.Minute
	}

	search := textinput.New()
	search.Prompt = ""
	search.Placeholder = "search titles, bodies, authors, homeworks, models"
	search.CharLimit = 200
	search.Cursor.SetMode(cursor.CursorStatic)

	ask := textinput.New()
	ask.Prompt = ""
	ask.Placeholder = "ask about the posts"
	ask.CharLimit = 2000
	ask.Cursor.SetMode(cursor.CursorStatic)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return App{
		opts:       opts,
		styles:     render.New(opts.Prefs.Theme()),
		screen:     &screen{},
		location:   opts.Location,
		prefs:      opts.Prefs,
		debounce:   trigger.NewDebouncer(opts.SearchDelay),
		pane:       &preview.Pane{},
		convo:      assistant.NewConversation(opts.SystemPrompt),
		search:     search,
		ask:        ask,
		spinner:    sp,
		detailView: viewport.New(80, 20),
		statsView:  viewport.New(80, 20),
		loading:    opts.Load != nil,
	}
}

// Init loads the dataset and starts watching for changes.
func (a App) Init() tea.Cmd {
	if a.opts.Load == nil {
		return nil
	}
	return tea.Batch(a.loadCmd(false), a.spinner.Tick, a.waitForChange())
}

func (a App) loadCmd(reload bool) tea.Cmd {
	load := a.opts.Load
	return func() tea.Msg {
		st, err := load(context.Background())
		return DatasetLoaded{Store: st, Err: err, Reload: reload}
	}
}

func (a App) waitForChange() tea.Cmd {
	ch := a.opts.Changes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return DatasetChanged{}
	}
}

func (a App) env() func() filter.Env {
	p, now := a.prefs, a.opts.Now
	popular, window := a.opts.Popular, a.opts.RecentWindow
	return func() filter.Env {
		e := filter.NewEnv(now(), p.BookmarkSet())
		if len(popular) > 0 {
			e.Popular = popular
		}
		if window > 0 {
			e.RecentWindow = window
		}
		return e
	}
}

func (a App) busy() bool {
	return a.loading || a.pane.Status == preview.StatusLoading || a.convo.Generating()
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.resize()
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case DatasetLoaded:
		return a.handleLoaded(msg)

	case DatasetChanged:
		logging.Info("source changed, reloading")
		a.opts.Events.Info(otel.KindLoadReload, "ui", a.opts.Source.String())
		return a, tea.Batch(a.loadCmd(true), a.waitForChange())

	case SearchDue:
		if !a.debounce.Due(msg.Ticket) {
			return a, nil
		}
		a.pending = false
		a.apply(true, viewsync.SetSearch(a.search.Value()))
		return a, nil

	case PreviewLoaded:
		return a.handlePreview(msg)

	case AssistantDelta:
		if !a.convo.Delta(msg.Token, msg.Text) {
			a.opts.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindAssistantStale, Comp: "assistant", Token: uint64(msg.Token)})
		}
		if msg.next != nil {
			return a, listen(msg.next)
		}
		return a, nil

	case AssistantDone:
		return a.handleAssistantDone(msg)

	case ExportDone:
		if msg.Err != nil {
			a.setNotice("Export failed: "+msg.Err.Error(), true)
		} else {
			a.setNotice("Exported to "+msg.Path, false)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) setNotice(msg string, isErr bool) {
	a.notice = msg
	a.noticeErr = isErr
}

func (a App) handleLoaded(msg DatasetLoaded) (tea.Model, tea.Cmd) {
	a.loading = false
	if msg.Err != nil {
		if msg.Reload && a.sync != nil {
			logging.Warn("reload failed, keeping previous dataset", "error", msg.Err)
			a.setNotice("Reload failed: "+msg.Err.Error(), true)
			return a, nil
		}
		a.loadErr = msg.Err
		return a, nil
	}

	a.store = msg.Store
	a.loadErr = nil
	if a.sync == nil {
		a.sync = viewsync.New(a.store, viewsync.Options{
			Renderer: a.screen,
			Location: a.location,
			Env:      a.env(),
			Events:   a.opts.Events,
		})
		a.sync.Start()
	} else {
		a.sync.Rebind(a.store)
		a.setNotice("Reloaded "+a.opts.Source.String(), false)
	}
	a.syncSearchBox()
	a.clampCursor()
	a.dashboard = stats.Build(a.store.Posts())
	a.refreshCompare()
	a.resize()
	return a, nil
}

// apply runs mutations through the synchronizer. Filter changes return the
// cursor to the top; re-renders keep it in place.
func (a *App) apply(toTop bool, mutations ...viewsync.Mutation) {
	if a.sync == nil {
		return
	}
	a.sync.Apply(mutations...)
	a.syncSearchBox()
	if toTop {
		a.cursor = 0
	}
	a.clampCursor()
	a.clampTagCursor()
}

// syncSearchBox shows the applied search term in the search box. Text the
// user is still typing is left alone.
func (a *App) syncSearchBox() {
	if a.searching || a.pending {
		return
	}
	if want := a.screen.controls.Search; a.search.Value() != want {
		a.search.SetValue(want)
		a.search.CursorEnd()
	}
}

func (a *App) clampCursor() {
	n := len(a.screen.results.Posts)
	a.cursor = min(max(a.cursor, 0), max(n-1, 0))
}

func (a *App) groupTags() []viewsync.Tag {
	if a.tagFocus.Group == render.GroupSecondary {
		return a.screen.controls.Secondary
	}
	return a.screen.controls.Primary
}

func (a *App) clampTagCursor() {
	n := len(a.groupTags())
	a.tagFocus.Cursor = min(max(a.tagFocus.Cursor, 0), max(n-1, 0))
}

func (a App) selected() (post.Post, bool) {
	posts := a.screen.results.Posts
	if a.cursor < 0 || a.cursor >= len(posts) {
		return post.Post{}, false
	}
	return posts[a.cursor], true
}

func (a *App) resize() {
	w, h := max(a.width, 20), max(a.height-6, 3)
	a.detailView.Width, a.detailView.Height = w, h
	a.statsView.Width, a.statsView.Height = w, h
	a.search.Width = max(w-20, 10)
	a.ask.Width = max(w-6, 10)
	a.refreshDetail()
	a.statsView.SetContent(a.styles.StatsPanel(a.dashboard, w))
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Results returns the posts currently shown (for testing).
func (a App) Results() []post.Post {
	return a.screen.results.Posts
}

// State returns the current filter state (for testing).
func (a App) State() filter.State {
	if a.sync == nil {
		return filter.Default()
	}
	return a.sync.State()
}

// Query returns the shareable query of the current view.
func (a App) Query() string {
	return a.location.Query()
}
