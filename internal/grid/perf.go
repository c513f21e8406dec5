package grid

import (
	"sync"
	"time"
)

// PerfSampleCapacity bounds the sample ring. Old samples are overwritten;
// diagnostics want recent behavior, not full history.
const PerfSampleCapacity = 256

// PerfSample records one completed render pass.
type PerfSample struct {
	RenderDuration time.Duration
	At             time.Time
}

// PerfStats is a read-only snapshot of aggregate render statistics.
type PerfStats struct {
	AverageRenderTime time.Duration
	MaxRenderTime     time.Duration
	ScrollUpdates     uint64
	RenderPasses      uint64
	TotalRows         int
	RenderedRows      int
}

// PerfMonitor records render durations and update counts for diagnostics.
// Strictly read-only for control flow: nothing in the engine ever branches on
// its contents, and recording never fails loudly; a sample that cannot be
// stored is silently dropped.
type PerfMonitor struct {
	mu sync.Mutex

	samples [PerfSampleCapacity]PerfSample
	count   int // number of valid samples, caps at capacity
	next    int // ring write position

	scrollUpdates uint64
	renderPasses  uint64
	totalRows     int
	renderedRows  int
}

// NewPerfMonitor creates an empty monitor.
func NewPerfMonitor() *PerfMonitor {
	return &PerfMonitor{}
}

// RecordRender appends a render-pass sample and updates the row counts the
// snapshot reports. Negative durations are dropped.
func (m *PerfMonitor) RecordRender(d time.Duration, totalRows, renderedRows int) {
	if m == nil || d < 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples[m.next] = PerfSample{RenderDuration: d, At: time.Now()}
	m.next = (m.next + 1) % PerfSampleCapacity
	if m.count < PerfSampleCapacity {
		m.count++
	}
	m.renderPasses++
	m.totalRows = totalRows
	m.renderedRows = renderedRows
}

// RecordScrollUpdate bumps the running count of scroll-triggered updates.
func (m *PerfMonitor) RecordScrollUpdate() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.scrollUpdates++
	m.mu.Unlock()
}

// Snapshot returns the current aggregate statistics. Safe to call from any
// goroutine; never fails.
func (m *PerfMonitor) Snapshot() PerfStats {
	if m == nil {
		return PerfStats{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := PerfStats{
		ScrollUpdates: m.scrollUpdates,
		RenderPasses:  m.renderPasses,
		TotalRows:     m.totalRows,
		RenderedRows:  m.renderedRows,
	}

	var total time.Duration
	for i := 0; i < m.count; i++ {
		s := m.samples[i]
		total += s.RenderDuration
		if s.RenderDuration > stats.MaxRenderTime {
			stats.MaxRenderTime = s.RenderDuration
		}
	}
	if m.count > 0 {
		stats.AverageRenderTime = total / time.Duration(m.count)
	}
	return stats
}

// Reset clears all samples and counters.
func (m *PerfMonitor) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = [PerfSampleCapacity]PerfSample{}
	m.count = 0
	m.next = 0
	m.scrollUpdates = 0
	m.renderPasses = 0
	m.totalRows = 0
	m.renderedRows = 0
}
