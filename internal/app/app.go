// Package app contains the root application model: the data pipeline, the
// virtualization engine, and every UI surface wired into one update loop.
package app

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/gridley/internal/cachemanager"
	"github.com/zjrosen/gridley/internal/config"
	"github.com/zjrosen/gridley/internal/data"
	"github.com/zjrosen/gridley/internal/data/sqlite"
	"github.com/zjrosen/gridley/internal/grid"
	"github.com/zjrosen/gridley/internal/keys"
	"github.com/zjrosen/gridley/internal/log"
	"github.com/zjrosen/gridley/internal/pubsub"
	"github.com/zjrosen/gridley/internal/ui/gridview"
	"github.com/zjrosen/gridley/internal/ui/logoverlay"
	"github.com/zjrosen/gridley/internal/ui/overlay"
	"github.com/zjrosen/gridley/internal/ui/preview"
	"github.com/zjrosen/gridley/internal/ui/styles"
	"github.com/zjrosen/gridley/internal/watcher"
)

const (
	// zonePrefix namespaces the grid's row zones.
	zonePrefix = "grid/"

	// wheelLines is how many rows one wheel notch scrolls.
	wheelLines = 3
)

// Options configures app construction.
type Options struct {
	ConfigPath string
	Debug      bool
	NoWatch    bool
	Tracer     trace.Tracer
}

// dataLoadedMsg carries a freshly loaded base collection.
type dataLoadedMsg struct {
	base *data.Collection
	err  error
}

// datasetChangedMsg signals the watcher observed a database write.
type datasetChangedMsg struct{}

// flushMsg asks the grid to run a pending coalesced scroll.
type flushMsg struct{}

// statusClearMsg expires a transient status message.
type statusClearMsg struct{ id int }

// Model is the root application state.
type Model struct {
	cfg        config.Config
	configPath string

	store    *sqlite.RecordStore
	base     *data.Collection
	pipeline data.Pipeline

	engine    *grid.Engine
	selection *grid.SelectionSet
	media     *grid.MediaLoader

	grid       gridview.Model
	preview    preview.Model
	logOverlay logoverlay.Model
	help       help.Model

	keys       keys.KeyMap
	filterKeys keys.FilterKeyMap

	filterInput textinput.Model
	filtering   bool

	clipboard Clipboard

	eventCtx    context.Context
	eventCancel context.CancelFunc
	renderCh    <-chan pubsub.Event[grid.RenderPass]
	mediaCh     <-chan pubsub.Event[grid.MediaResult]

	watcherHandle *watcher.Watcher
	watcherCh     <-chan struct{}

	// sortIdx is the index into the configured columns currently sorted,
	// -1 when unsorted.
	sortIdx int

	width  int
	height int

	lastPass  grid.RenderPass
	statusMsg string
	statusID  int
	showHelp  bool
	debug     bool
}

// New wires the application together over an opened database.
func New(cfg config.Config, db *sqlite.DB, opts Options) (Model, error) {
	selection := grid.NewSelectionSet()

	mediaCache := cachemanager.NewInMemoryCacheManager[string, []byte](
		"media", grid.DefaultMediaTTL, time.Minute)
	media := grid.NewMediaLoader(fileMediaFetcher, mediaCache, grid.DefaultMediaTTL)

	engineOpts := []grid.Option{
		grid.WithSelection(selection),
		grid.WithMediaLoader(media),
	}
	if opts.Tracer != nil {
		engineOpts = append(engineOpts, grid.WithTracer(opts.Tracer))
	}

	engine, err := grid.NewEngine(engineConfig(cfg.Grid), engineOpts...)
	if err != nil {
		return Model{}, err
	}

	columns := gridview.ColumnsFromConfig(cfg.GetColumns())
	if err := gridview.ValidateColumns(columns); err != nil {
		engine.Close()
		return Model{}, err
	}

	filterInput := textinput.New()
	filterInput.Prompt = "/"
	filterInput.Placeholder = "filter rows"
	filterInput.CharLimit = 120

	eventCtx, eventCancel := context.WithCancel(context.Background())

	m := Model{
		cfg:        cfg,
		configPath: opts.ConfigPath,
		store:      db.Records(),
		pipeline: data.Pipeline{
			PageSize:   cfg.Data.PageSize,
			FilterKeys: columnKeys(cfg.GetColumns()),
		},
		engine:      engine,
		selection:   selection,
		media:       media,
		grid:        gridview.New(engine, selection, columns, zonePrefix),
		preview:     preview.New(),
		logOverlay:  logoverlay.New(),
		help:        help.New(),
		keys:        keys.DefaultKeyMap(),
		filterKeys:  keys.DefaultFilterKeyMap(),
		filterInput: filterInput,
		clipboard:   SystemClipboard{},
		eventCtx:    eventCtx,
		eventCancel: eventCancel,
		renderCh:    engine.Subscribe(eventCtx),
		mediaCh:     media.Subscribe(eventCtx),
		sortIdx:     -1,
		debug:       opts.Debug,
	}

	if cfg.AutoRefresh && !opts.NoWatch {
		w, err := watcher.New(watcher.DefaultConfig(cfg.Data.DBPath))
		if err != nil {
			log.ErrorErr(log.CatWatcher, "watcher unavailable, auto-refresh off", err)
		} else {
			ch, err := w.Start()
			if err != nil {
				log.ErrorErr(log.CatWatcher, "watcher start failed, auto-refresh off", err)
				_ = w.Stop()
			} else {
				m.watcherHandle = w
				m.watcherCh = ch
			}
		}
	}

	return m, nil
}

// Close releases everything the model owns. Call after the program exits.
func (m Model) Close() {
	if m.watcherHandle != nil {
		_ = m.watcherHandle.Stop()
	}
	m.eventCancel()
	m.media.Close()
	m.engine.Close()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.loadCmd(),
		pubsub.ListenCmd(m.eventCtx, m.renderCh),
		pubsub.ListenCmd(m.eventCtx, m.mediaCh),
	}
	if m.watcherCh != nil {
		cmds = append(cmds, watchCmd(m.watcherCh))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case dataLoadedMsg:
		return m.handleDataLoaded(msg)

	case datasetChangedMsg:
		log.Info(log.CatWatcher, "dataset changed, reloading")
		return m, tea.Batch(m.loadCmd(), watchCmd(m.watcherCh))

	case flushMsg:
		m.grid.FlushDue(time.Now())
		return m, nil

	case statusClearMsg:
		if msg.id == m.statusID {
			m.statusMsg = ""
		}
		return m, nil

	case pubsub.Event[grid.RenderPass]:
		m.lastPass = msg.Payload
		return m, pubsub.ListenCmd(m.eventCtx, m.renderCh)

	case pubsub.Event[grid.MediaResult]:
		m.engine.ResolveMedia(msg.Payload)
		return m, pubsub.ListenCmd(m.eventCtx, m.mediaCh)

	case logoverlay.CloseMsg:
		return m, nil

	case tea.MouseMsg:
		if m.cfg.UI.Mouse {
			return m.handleMouse(msg)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.help.Width = msg.Width

	m.grid = m.grid.SetSize(msg.Width, m.gridHeight())
	m.preview = m.preview.SetSize(overlayWidth(msg.Width), overlayHeight(msg.Height))
	m.logOverlay.SetSize(msg.Width, msg.Height)
	return m
}

// gridHeight is the vertical space left for the grid after the status bar.
func (m Model) gridHeight() int {
	h := m.height
	if m.cfg.UI.ShowStatusBar {
		h--
	}
	if h < 0 {
		h = 0
	}
	return h
}

func (m Model) handleDataLoaded(msg dataLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log.ErrorErr(log.CatData, "load failed", msg.err)
		return m.setStatus("load failed: " + msg.err.Error())
	}
	m.base = msg.base
	return m.applyPipeline(), nil
}

// applyPipeline re-derives the rendered collection and rebinds the grid.
func (m Model) applyPipeline() Model {
	m.clampPage()
	coll := m.pipeline.Apply(m.base)
	m.media.CancelAll()
	m.grid = m.grid.SetCollection(coll, m.pipeline.Sort)
	return m
}

func (m *Model) clampPage() {
	if m.pipeline.PageSize <= 0 || m.base == nil {
		m.pipeline.Page = 0
		return
	}
	last := m.pipeline.PageCount(m.base.Len()) - 1
	if last < 0 {
		last = 0
	}
	if m.pipeline.Page > last {
		m.pipeline.Page = last
	}
	if m.pipeline.Page < 0 {
		m.pipeline.Page = 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Overlays consume keys first.
	if m.logOverlay.Visible() {
		var cmd tea.Cmd
		m.logOverlay, cmd = m.logOverlay.Update(msg)
		return m, cmd
	}

	if m.preview.Visible() {
		return m.handlePreviewKey(msg)
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.filtering {
		return m.handleFilterKey(msg)
	}

	return m.handleGridKey(msg)
}

func (m Model) handlePreviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.preview = m.preview.ScrollBy(1)
	case "k", "up":
		m.preview = m.preview.ScrollBy(-1)
	case "esc", "enter", "q":
		m.preview = m.preview.Hide()
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.filterKeys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.filterKeys.Blur):
		m.filtering = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.pipeline.Filter = ""
		return m.applyPipeline(), nil

	case key.Matches(msg, m.filterKeys.Execute):
		m.filtering = false
		m.filterInput.Blur()
		return m, nil

	case key.Matches(msg, m.filterKeys.Up):
		m.grid = m.grid.MoveCursor(-1)
		return m, nil

	case key.Matches(msg, m.filterKeys.Down):
		m.grid = m.grid.MoveCursor(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)

	// Live narrowing: every keystroke re-derives the collection.
	if q := m.filterInput.Value(); q != m.pipeline.Filter {
		m.pipeline.Filter = q
		m.pipeline.Page = 0
		m = m.applyPipeline()
	}
	return m, cmd
}

func (m Model) handleGridKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.grid = m.grid.MoveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.grid = m.grid.MoveCursor(1)

	case key.Matches(msg, m.keys.PageUp):
		m.grid = m.grid.MoveCursor(-m.grid.PageSize() / 2)

	case key.Matches(msg, m.keys.PageDown):
		m.grid = m.grid.MoveCursor(m.grid.PageSize() / 2)

	case key.Matches(msg, m.keys.Home):
		m.grid = m.grid.CursorToStart()

	case key.Matches(msg, m.keys.End):
		m.grid = m.grid.CursorToEnd()

	case key.Matches(msg, m.keys.NextPage):
		if m.pipeline.PageSize > 0 {
			m.pipeline.Page++
			return m.applyPipeline(), nil
		}

	case key.Matches(msg, m.keys.PrevPage):
		if m.pipeline.PageSize > 0 {
			m.pipeline.Page--
			return m.applyPipeline(), nil
		}

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filterInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Sort):
		m.cycleSort()
		return m.applyPipeline(), nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadCmd()

	case key.Matches(msg, m.keys.Select):
		m.grid = m.grid.ToggleSelect()

	case key.Matches(msg, m.keys.Preview):
		return m.openPreview(), nil

	case key.Matches(msg, m.keys.Yank):
		if row, ok := m.grid.CursorRow(); ok {
			if err := m.clipboard.Copy(row.ID); err != nil {
				log.ErrorErr(log.CatUI, "clipboard copy failed", err)
				return m.setStatus("copy failed")
			}
			return m.setStatus("copied " + row.ID)
		}

	case key.Matches(msg, m.keys.ToggleVirtual):
		return m.toggleVirtualization()

	case key.Matches(msg, m.keys.TogglePerf):
		m.cfg.UI.ShowPerfStats = !m.cfg.UI.ShowPerfStats

	case key.Matches(msg, m.keys.Logs):
		if m.debug {
			m.logOverlay.Toggle()
		}

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.Escape):
		m.grid = m.grid.ClearSelection()
	}

	return m, nil
}

// cycleSort advances column-by-column: each configured column goes ascending
// then descending, then the cycle moves on, wrapping back to unsorted.
func (m *Model) cycleSort() {
	cols := m.cfg.GetColumns()
	if len(cols) == 0 {
		return
	}

	switch {
	case m.sortIdx < 0:
		m.sortIdx = 0
		m.pipeline.Sort = data.SortSpec{Key: cols[0].Key, Direction: data.SortAscending}
	case m.pipeline.Sort.Direction == data.SortAscending:
		m.pipeline.Sort.Direction = data.SortDescending
	default:
		m.sortIdx++
		if m.sortIdx >= len(cols) {
			m.sortIdx = -1
			m.pipeline.Sort = data.SortSpec{}
			return
		}
		m.pipeline.Sort = data.SortSpec{Key: cols[m.sortIdx].Key, Direction: data.SortAscending}
	}
}

func (m Model) toggleVirtualization() (tea.Model, tea.Cmd) {
	enabled := !m.engine.Enabled()
	m.engine.SetEnabled(enabled)
	m.cfg.Grid.Enabled = enabled

	if m.configPath != "" {
		if err := config.SaveGrid(m.configPath, m.cfg.Grid); err != nil {
			log.ErrorErr(log.CatConfig, "saving grid settings failed", err)
		}
	}

	if enabled {
		return m.setStatus("virtualization on")
	}
	return m.setStatus("virtualization off")
}

func (m Model) openPreview() Model {
	row, ok := m.grid.CursorRow()
	if !ok {
		return m
	}

	cols := m.cfg.GetColumns()
	labels := make(map[string]string, len(cols))
	for _, c := range cols {
		if c.Header != "" {
			labels[c.Key] = c.Header
		}
	}
	m.preview = m.preview.Show(row, columnKeys(cols), labels)
	return m
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return m.scrollWheel(-wheelLines)
	case tea.MouseButtonWheelDown:
		return m.scrollWheel(wheelLines)
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		for _, id := range m.grid.VisibleRowIDs() {
			if zone.Get(m.grid.ZoneID(id)).InBounds(msg) {
				m.grid = m.grid.SelectByID(id)
				m.grid = m.grid.ToggleSelect()
				break
			}
		}
	}
	return m, nil
}

func (m Model) scrollWheel(lines int) (tea.Model, tea.Cmd) {
	now := time.Now()
	var decision grid.Decision
	var deadline time.Time
	m.grid, decision, deadline = m.grid.Scroll(lines, now)

	if decision == grid.DecisionCoalesced && !deadline.IsZero() {
		return m, tea.Tick(time.Until(deadline), func(time.Time) tea.Msg {
			return flushMsg{}
		})
	}
	return m, nil
}

func (m Model) setStatus(text string) (Model, tea.Cmd) {
	m.statusMsg = text
	m.statusID++
	id := m.statusID
	return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{id: id}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	view := m.grid.View()
	if m.cfg.UI.ShowStatusBar {
		view += "\n" + m.statusBar()
	}

	if m.showHelp {
		view = overlay.Place(overlay.Config{
			Width:    m.width,
			Height:   m.height,
			Position: overlay.Center,
		}, m.helpView(), view)
	}

	if m.preview.Visible() {
		view = overlay.Place(overlay.Config{
			Width:    m.width,
			Height:   m.height,
			Position: overlay.Center,
		}, m.preview.View(), view)
	}

	view = m.logOverlay.Overlay(view)

	return zone.Scan(view)
}

// statusBar renders one line: filter/status on the left, dataset and perf
// figures on the right.
func (m Model) statusBar() string {
	if m.filtering {
		return styles.StatusBarStyle.Render(m.filterInput.View())
	}

	left := m.statusMsg
	if left == "" {
		left = m.datasetSummary()
	}

	right := m.keys.Help.Help().Key + " help"
	if m.cfg.UI.ShowPerfStats {
		right = m.perfSummary() + "  " + right
	}

	leftRendered := styles.StatusBarStyle.Render(left)
	rightRendered := styles.PerfStatsStyle.Render(right)

	gap := m.width - lipgloss.Width(leftRendered) - lipgloss.Width(rightRendered)
	if gap < 1 {
		return leftRendered
	}
	return leftRendered + strings.Repeat(" ", gap) + rightRendered
}

func (m Model) datasetSummary() string {
	if m.base == nil {
		return "loading..."
	}

	var parts []string
	shown := m.lastPass.TotalRows
	parts = append(parts, styles.FormatCount(shown)+"/"+styles.FormatCount(m.base.Len())+" rows")

	if n := m.selection.Len(); n > 0 {
		parts = append(parts, styles.FormatCount(n)+" selected")
	}
	if m.pipeline.Filter != "" {
		parts = append(parts, "filter: "+m.pipeline.Filter)
	}
	if m.pipeline.Sort.Direction != data.SortNone {
		parts = append(parts, "sort: "+m.pipeline.Sort.Key+" "+m.pipeline.Sort.Direction.String())
	}
	if m.pipeline.PageSize > 0 {
		pages := m.pipeline.PageCount(m.base.Len())
		parts = append(parts, "page "+styles.FormatCount(m.pipeline.Page+1)+"/"+styles.FormatCount(pages))
	}
	if !m.engine.Enabled() {
		parts = append(parts, "virtual off")
	}

	return strings.Join(parts, " · ")
}

func (m Model) perfSummary() string {
	stats := m.engine.PerformanceStats()
	return "render " + styles.FormatDuration(stats.AverageRenderTime) +
		" avg / " + styles.FormatDuration(stats.MaxRenderTime) + " max · " +
		styles.FormatCount(stats.RenderedRows) + " of " +
		styles.FormatCount(stats.TotalRows) + " materialized"
}

func (m Model) helpView() string {
	m.help.ShowAll = true
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Padding(1, 2).
		Render(m.help.View(m.keys))
}

// loadCmd reads the full record set off the update loop.
func (m Model) loadCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		base, err := store.List()
		return dataLoadedMsg{base: base, err: err}
	}
}

// watchCmd waits for the next debounced dataset notification.
func watchCmd(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return datasetChangedMsg{}
	}
}

// engineConfig maps the user configuration onto the engine's, leaving zero
// values to the engine's defaults.
func engineConfig(g config.GridConfig) grid.Config {
	cfg := grid.DefaultConfig()
	cfg.Enabled = g.Enabled
	if g.Buffer > 0 {
		cfg.Buffer = g.Buffer
	}
	cfg.RowHeight = g.RowHeight
	if g.FastScrollThreshold > 0 {
		cfg.FastScrollThreshold = g.FastScrollThreshold
	}
	if g.ThrottleIntervalMS > 0 {
		cfg.ThrottleInterval = g.ThrottleInterval()
	}
	return cfg
}

// overlayWidth sizes the preview overlay to roughly two thirds of the
// viewport, clamped to something readable.
func overlayWidth(total int) int {
	w := total * 2 / 3
	if w > 100 {
		w = 100
	}
	if w < 30 {
		w = total - 4
	}
	if w < 10 {
		w = 10
	}
	return w
}

func overlayHeight(total int) int {
	h := total - 6
	if h > 30 {
		h = 30
	}
	if h < 5 {
		h = 5
	}
	return h
}

func columnKeys(cols []config.ColumnConfig) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Key)
	}
	return out
}

// fileMediaFetcher resolves media references as local file paths.
func fileMediaFetcher(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(ref)
}
