package grid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/gridley/internal/log"
	"github.com/zjrosen/gridley/internal/pubsub"
)

// DefaultBuffer is the number of extra rows materialized above and below the
// visible range.
const DefaultBuffer = 10

// Config is the engine's configuration surface. Accepted at construction and
// via Configure; a rejected update leaves the last-known-good configuration
// installed.
type Config struct {
	// Enabled turns virtualization on. When false the engine holds no
	// window and recomputation is a no-op.
	Enabled bool

	// Buffer is the number of rows materialized beyond the visible range on
	// each side.
	Buffer int

	// RowHeight pins the pixel height of one row. Zero enables
	// auto-detection from the first materialized row.
	RowHeight float64

	// ContainerHeight is the pixel height of the visible viewport.
	ContainerHeight float64

	// FastScrollThreshold is the velocity (pixels/ms) above which the
	// throttle is bypassed. Zero takes the default.
	FastScrollThreshold float64

	// ThrottleInterval is the minimum spacing of steady-state
	// recomputations. Zero takes the default.
	ThrottleInterval time.Duration
}

// DefaultConfig returns the configuration used when the caller specifies
// nothing.
func DefaultConfig() Config {
	return Config{
		Enabled:             true,
		Buffer:              DefaultBuffer,
		ContainerHeight:     24,
		FastScrollThreshold: DefaultFastScrollThreshold,
		ThrottleInterval:    DefaultThrottleInterval,
	}
}

// Validate rejects configurations the engine cannot operate under.
func (c Config) Validate() error {
	if c.ContainerHeight <= 0 {
		return fmt.Errorf("grid config: container height must be positive, got %v", c.ContainerHeight)
	}
	if c.Buffer < 0 {
		return fmt.Errorf("grid config: buffer must not be negative, got %d", c.Buffer)
	}
	if c.RowHeight < 0 {
		return fmt.Errorf("grid config: row height must not be negative, got %v", c.RowHeight)
	}
	return nil
}

// Trigger names what caused a recomputation pass.
type Trigger string

const (
	TriggerBind     Trigger = "bind"      // row collection replaced
	TriggerScroll   Trigger = "scroll"    // accepted scroll event
	TriggerResize   Trigger = "resize"    // container resized
	TriggerConfig   Trigger = "configure" // configuration updated
	TriggerScrollTo Trigger = "scroll_to" // explicit scrollToRow
)

// RenderPass is the lifecycle event emitted after each completed
// recomputation, carrying timing data for diagnostics consumers.
type RenderPass struct {
	Trigger      Trigger
	Visible      Range
	Rendered     Range
	TotalRows    int
	Materialized int
	Added        int
	Removed      int
	Duration     time.Duration
}

// VisibleRange is the snapshot returned by Engine.VisibleRange.
type VisibleRange struct {
	Start         int
	End           int
	RenderedStart int
	RenderedEnd   int
}

// ErrDisabled is returned by operations that require an enabled engine.
var ErrDisabled = errors.New("grid: virtualization disabled")

// Engine owns the virtual scroll state and is the only writer of it.
// Consumers read snapshots; the row collection belongs to the upstream data
// layer and is read-only for the duration of a pass.
//
// Scheduling is cooperative and single-threaded: every method is expected to
// be called from the owning update loop, each recomputation runs to
// completion before the next event is processed, and the only asynchronous
// work is media loading, which resolves through ResolveMedia without
// blocking any pass.
type Engine struct {
	cfg       Config
	estimator *HeightEstimator
	proc      *ScrollProcessor
	window    *Window
	perf      *PerfMonitor
	media     *MediaLoader
	selection *SelectionSet // referenced, never owned

	source       Source
	scrollOffset float64
	velocity     float64
	visible      Range
	rendered     Range

	events *pubsub.Broker[RenderPass]
	tracer trace.Tracer
	closed bool
}

// Option customizes engine construction.
type Option func(*Engine)

// WithMediaLoader attaches a loader for row media references.
func WithMediaLoader(l *MediaLoader) Option {
	return func(e *Engine) { e.media = l }
}

// WithSelection attaches the selection set the engine reconciles against.
func WithSelection(s *SelectionSet) Option {
	return func(e *Engine) { e.selection = s }
}

// WithTracer records one span per render pass on the given tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// NewEngine creates an engine with a validated configuration.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:       cfg,
		estimator: NewHeightEstimator(cfg.RowHeight, DefaultRowHeight),
		proc:      NewScrollProcessor(cfg.ThrottleInterval, cfg.FastScrollThreshold),
		window:    NewWindow(),
		perf:      NewPerfMonitor(),
		events:    pubsub.NewBroker[RenderPass](),
		tracer:    noop.NewTracerProvider().Tracer("grid"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Configure installs a new configuration. An invalid configuration is
// rejected and the previous one stays in effect, so the engine is never left
// half-configured.
func (e *Engine) Configure(cfg Config) error {
	if e.closed {
		return errors.New("grid: engine closed")
	}
	if err := cfg.Validate(); err != nil {
		log.Warn(log.CatGrid, "rejected configuration", "error", err.Error())
		return err
	}

	heightChanged := cfg.RowHeight != e.cfg.RowHeight
	e.cfg = cfg
	e.proc = NewScrollProcessor(cfg.ThrottleInterval, cfg.FastScrollThreshold)
	if heightChanged {
		e.estimator.SetConfigured(cfg.RowHeight)
	}
	if cfg.Enabled {
		e.recompute(TriggerConfig)
	} else {
		e.teardown()
	}
	return nil
}

// SetEnabled toggles virtualization. Disabling tears the window down and
// detaches nothing else; re-enabling rebuilds the window from current state.
func (e *Engine) SetEnabled(enabled bool) {
	if e.closed || e.cfg.Enabled == enabled {
		return
	}
	e.cfg.Enabled = enabled
	if enabled {
		e.recompute(TriggerConfig)
	} else {
		e.teardown()
	}
}

// Enabled reports whether virtualization is on.
func (e *Engine) Enabled() bool {
	return e.cfg.Enabled && !e.closed
}

// Bind replaces the bound row collection. The new collection is installed
// atomically relative to the next recomputation: any pending throttled update
// is discarded, in-flight media loads are cancelled, and every previously
// materialized row is dropped so stale content cannot survive at reused
// indices. The scroll offset is clamped against the new collection before
// ranges are computed, so a shrink can never produce a negative range.
func (e *Engine) Bind(src Source) {
	if e.closed {
		return
	}
	e.source = src
	e.proc.Reset()
	if e.media != nil {
		e.media.CancelAll()
	}
	for range e.window.Invalidate() {
		// rows dropped wholesale; their media was cancelled above
	}
	total := 0
	if src != nil {
		total = src.Len()
	}
	log.Debug(log.CatGrid, "collection bound", "total_rows", total)
	e.recompute(TriggerBind)
}

// Resize installs a new container height and recomputes.
func (e *Engine) Resize(containerHeight float64) error {
	cfg := e.cfg
	cfg.ContainerHeight = containerHeight
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg
	e.recompute(TriggerResize)
	return nil
}

// Scroll feeds one raw scroll-position update into the processor. An
// immediate decision recomputes before returning; a coalesced decision asks
// the caller to invoke FlushDue at (or after) the returned deadline.
func (e *Engine) Scroll(offset float64, now time.Time) (Decision, time.Time) {
	if e.closed || !e.cfg.Enabled {
		return DecisionCoalesced, time.Time{}
	}
	e.perf.RecordScrollUpdate()

	decision := e.proc.Observe(offset, now)
	e.velocity = e.proc.Velocity()
	if decision == DecisionImmediate {
		e.scrollOffset = offset
		e.recompute(TriggerScroll)
		return decision, time.Time{}
	}
	return decision, e.proc.Deadline()
}

// FlushDue runs the pending coalesced recomputation if its throttle window
// has closed. The pass always acts on the most recent offset observed;
// intermediate offsets were discarded at observation time.
func (e *Engine) FlushDue(now time.Time) bool {
	if e.closed || !e.cfg.Enabled {
		return false
	}
	offset, ok := e.proc.Take(now)
	if !ok {
		return false
	}
	e.scrollOffset = offset
	e.recompute(TriggerScroll)
	return true
}

// ScrollToRow scrolls so the given row is at the top of the viewport. An
// out-of-range index is clamped into [0, totalRows); the call never fails.
func (e *Engine) ScrollToRow(index int) {
	if e.closed || !e.cfg.Enabled {
		return
	}
	total := e.totalRows()
	if total == 0 {
		return
	}
	if index < 0 {
		index = 0
	}
	if index >= total {
		index = total - 1
	}
	e.scrollOffset = float64(index) * e.estimator.RowHeight()
	e.recompute(TriggerScrollTo)
}

// SelectionChanged re-applies the selection markers to the materialized rows
// without moving the window.
func (e *Engine) SelectionChanged() {
	if e.closed || !e.cfg.Enabled {
		return
	}
	changed := Reconcile(e.selection, e.window)
	if changed > 0 {
		log.Debug(log.CatGrid, "selection reconciled", "rows_changed", changed)
	}
}

// ResolveMedia applies a media-load resolution to the window. Returns false
// when the target row has since dematerialized; the result is then discarded.
func (e *Engine) ResolveMedia(res MediaResult) bool {
	if e.closed {
		return false
	}
	return e.window.SetMediaState(res.RowID, res.State)
}

// VisibleRange returns the current visible and rendered bounds.
func (e *Engine) VisibleRange() VisibleRange {
	return VisibleRange{
		Start:         e.visible.Start,
		End:           e.visible.End,
		RenderedStart: e.rendered.Start,
		RenderedEnd:   e.rendered.End,
	}
}

// ScrollOffset returns the current clamped scroll position in pixels.
func (e *Engine) ScrollOffset() float64 {
	return e.scrollOffset
}

// Velocity returns the most recent scroll velocity in pixels per
// millisecond.
func (e *Engine) Velocity() float64 {
	return e.velocity
}

// RowHeight returns the effective pixels-per-row scalar.
func (e *Engine) RowHeight() float64 {
	return e.estimator.RowHeight()
}

// InvalidateRowHeight drops the measured row height so the next pass
// re-measures. The recovery path for geometry drift after external styling
// changes.
func (e *Engine) InvalidateRowHeight() {
	e.estimator.Invalidate()
	e.recompute(TriggerConfig)
}

// Window exposes the materialized rows to the render target adapter.
func (e *Engine) Window() *Window {
	return e.window
}

// Config returns the active configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// PerformanceStats returns the diagnostics snapshot.
func (e *Engine) PerformanceStats() PerfStats {
	return e.perf.Snapshot()
}

// Subscribe returns render-pass lifecycle events. The subscription ends when
// ctx is cancelled.
func (e *Engine) Subscribe(ctx context.Context) <-chan pubsub.Event[RenderPass] {
	return e.events.Subscribe(ctx)
}

// Close tears the engine down: window dropped, media cancelled, event broker
// closed. The engine is unusable afterwards.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.teardown()
	if e.media != nil {
		e.media.Close()
	}
	e.events.Close()
	e.closed = true
}

func (e *Engine) teardown() {
	if e.media != nil {
		e.media.CancelAll()
	}
	e.window.Invalidate()
	e.visible = Range{}
	e.rendered = Range{}
}

func (e *Engine) totalRows() int {
	if e.source == nil {
		return 0
	}
	return e.source.Len()
}

// recompute is the single materialization pass: clamp, range, window delta,
// media scheduling, selection reconciliation, metrics. It runs to completion
// and never surfaces an error: degradations are visual, and a mid-scroll
// exception would leave the view half-rendered.
func (e *Engine) recompute(trigger Trigger) {
	if !e.cfg.Enabled || e.closed {
		return
	}

	_, span := e.tracer.Start(context.Background(), "grid.render_pass",
		trace.WithAttributes(attribute.String("trigger", string(trigger))))
	defer span.End()

	started := time.Now()

	geo := Geometry{
		ScrollOffset:    e.scrollOffset,
		ContainerHeight: e.cfg.ContainerHeight,
		RowHeight:       e.estimator.RowHeight(),
		TotalRows:       e.totalRows(),
		Buffer:          e.cfg.Buffer,
	}
	e.scrollOffset = geo.ClampOffset(e.scrollOffset)
	geo.ScrollOffset = e.scrollOffset
	e.visible, e.rendered = geo.Ranges()

	delta := e.window.Apply(e.rendered, geo.RowHeight, e.source)

	// Cancel before begin: a row that moved out and a row that moved in can
	// share a media ref, and the new fetch must not be torn down by the old
	// row's cancellation.
	if e.media != nil {
		for _, row := range delta.Removed {
			if row.MediaRef != "" {
				e.media.Cancel(row.ID)
			}
		}
		for _, row := range delta.Added {
			if row.MediaRef != "" {
				e.media.Begin(row.ID, row.MediaRef)
			}
		}
	}

	// First materialized row measures the uniform row height.
	if !e.estimator.Measured() && e.cfg.RowHeight == 0 && len(delta.Added) > 0 {
		h := renderedHeight(delta.Added[0].Content)
		e.estimator.Observe(h)
		if e.estimator.Measured() {
			log.Debug(log.CatGrid, "row height measured", "height", h)
		}
	}

	Reconcile(e.selection, e.window)

	duration := time.Since(started)
	e.perf.RecordRender(duration, geo.TotalRows, e.window.Len())

	span.SetAttributes(
		attribute.Int("total_rows", geo.TotalRows),
		attribute.Int("materialized", e.window.Len()),
		attribute.Int("added", len(delta.Added)),
		attribute.Int("removed", len(delta.Removed)),
		attribute.Int64("duration_us", duration.Microseconds()),
	)

	log.Debug(log.CatRender, "pass complete",
		"trigger", string(trigger),
		"visible", e.visible.Len(),
		"materialized", e.window.Len(),
		"duration_us", duration.Microseconds())

	e.events.Publish(pubsub.RenderPassEvent, RenderPass{
		Trigger:      trigger,
		Visible:      e.visible,
		Rendered:     e.rendered,
		TotalRows:    geo.TotalRows,
		Materialized: e.window.Len(),
		Added:        len(delta.Added),
		Removed:      len(delta.Removed),
		Duration:     duration,
	})
}

// renderedHeight measures the height of one rendered row in pixel units: on
// a character-cell target, one line per unit.
func renderedHeight(content string) float64 {
	if content == "" {
		return 0
	}
	return float64(strings.Count(content, "\n") + 1)
}
