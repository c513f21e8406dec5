package grid

import "time"

// Scroll processing defaults. The throttle interval is deliberately in the
// single-digit millisecond range: high-frequency wheel events coalesce into
// one materialization pass, while still feeling instant.
const (
	DefaultThrottleInterval    = 8 * time.Millisecond
	DefaultFastScrollThreshold = 0.5 // pixels per millisecond
)

// Decision is the outcome of observing one raw scroll update.
type Decision int

const (
	// DecisionImmediate: velocity exceeded the fast-scroll threshold, or no
	// update has run recently; recompute now. This is what prevents blank
	// regions when a scrollbar is dragged faster than the throttle interval.
	DecisionImmediate Decision = iota

	// DecisionCoalesced: the update was folded into a pending recomputation
	// that becomes due at Deadline(). Only the most recent offset survives.
	DecisionCoalesced
)

// ScrollProcessor consumes the raw stream of scroll-position updates, tracks
// instantaneous velocity, and gates how often the viewport is recomputed.
//
// Coalescing is latest-wins, not a queue: a recomputation always acts on the
// most recent offset available at the moment it actually runs, and
// intermediate offsets are discarded. A pending throttled update is
// implicitly cancelled by any newer observation that runs immediately.
type ScrollProcessor struct {
	interval  time.Duration
	threshold float64

	lastOffset   float64
	lastObserved time.Time
	lastRun      time.Time
	velocity     float64

	pending       bool
	pendingOffset float64
	deadline      time.Time
}

// NewScrollProcessor creates a processor with the given throttle interval and
// fast-scroll threshold (pixels per millisecond). Non-positive arguments take
// the package defaults.
func NewScrollProcessor(interval time.Duration, threshold float64) *ScrollProcessor {
	if interval <= 0 {
		interval = DefaultThrottleInterval
	}
	if threshold <= 0 {
		threshold = DefaultFastScrollThreshold
	}
	return &ScrollProcessor{interval: interval, threshold: threshold}
}

// Observe records a raw scroll-position update at time now and decides
// between immediate and throttled recomputation.
//
// Velocity is |Δoffset| / Δt in pixels per millisecond, zero when Δt is zero
// (two updates inside the same clock tick cannot produce a meaningful rate).
func (p *ScrollProcessor) Observe(offset float64, now time.Time) Decision {
	deltaMs := float64(now.Sub(p.lastObserved)) / float64(time.Millisecond)
	if p.lastObserved.IsZero() || deltaMs <= 0 {
		p.velocity = 0
	} else {
		p.velocity = abs(offset-p.lastOffset) / deltaMs
	}
	p.lastOffset = offset
	p.lastObserved = now

	// Fast scroll bypasses the throttle entirely.
	if p.velocity > p.threshold {
		p.runNow(offset, now)
		return DecisionImmediate
	}

	// Steady state: run right away if the throttle window has elapsed,
	// otherwise hold the offset until the window closes.
	if p.lastRun.IsZero() || now.Sub(p.lastRun) >= p.interval {
		p.runNow(offset, now)
		return DecisionImmediate
	}

	if !p.pending {
		p.pending = true
		p.deadline = p.lastRun.Add(p.interval)
	}
	p.pendingOffset = offset
	return DecisionCoalesced
}

// runNow marks a recomputation as executed at now with the given offset,
// superseding any pending coalesced update.
func (p *ScrollProcessor) runNow(offset float64, now time.Time) {
	p.lastRun = now
	p.pending = false
	p.pendingOffset = offset
}

// Pending reports whether a coalesced update is waiting to run.
func (p *ScrollProcessor) Pending() bool {
	return p.pending
}

// Deadline returns the time at which the pending coalesced update becomes
// due. Zero time when nothing is pending.
func (p *ScrollProcessor) Deadline() time.Time {
	if !p.pending {
		return time.Time{}
	}
	return p.deadline
}

// Take consumes the pending update if it is due at time now, returning the
// most recent offset observed since the last run. The boolean is false while
// the throttle window is still open or nothing is pending.
func (p *ScrollProcessor) Take(now time.Time) (offset float64, ok bool) {
	if !p.pending || now.Before(p.deadline) {
		return 0, false
	}
	offset = p.pendingOffset
	p.runNow(offset, now)
	return offset, true
}

// Velocity returns the most recently computed scroll velocity in pixels per
// millisecond.
func (p *ScrollProcessor) Velocity() float64 {
	return p.velocity
}

// LatestOffset returns the most recent offset observed, whether or not a
// recomputation has consumed it yet.
func (p *ScrollProcessor) LatestOffset() float64 {
	return p.lastOffset
}

// Reset clears velocity tracking and any pending update. Called when the
// bound row collection is replaced: stale offsets from the old collection
// must not leak into recomputations over the new one.
func (p *ScrollProcessor) Reset() {
	p.lastOffset = 0
	p.lastObserved = time.Time{}
	p.lastRun = time.Time{}
	p.velocity = 0
	p.pending = false
	p.pendingOffset = 0
	p.deadline = time.Time{}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
