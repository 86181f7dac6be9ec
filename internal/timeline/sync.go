package timeline

import (
	"math"
	"time"

	"github.com/i474232898/weather-timeline/internal/common"
)

const (
	// DefaultItemPitch is the item width plus the inter-item gap, in pixels.
	DefaultItemPitch = 72.0
	// DefaultSettleDelay is how long after the last scroll event a gesture counts as finished.
	DefaultSettleDelay = 150 * time.Millisecond
)

// ScrollMode arbitrates who currently drives the strip.
type ScrollMode int

const (
	// ModeProgrammatic means no gesture is in progress and the core may
	// recenter the strip.
	ModeProgrammatic ScrollMode = iota
	// ModeUserDriven means the user is dragging or the strip is still
	// coasting from a drag.
	ModeUserDriven
)

func (m ScrollMode) String() string {
	if m == ModeUserDriven {
		return "user-driven"
	}
	return "programmatic"
}

// Scroller receives smooth-scroll requests for the strip.
type Scroller interface {
	ScrollTo(offset float64)
}

// ScrollerFunc adapts a function to Scroller.
type ScrollerFunc func(offset float64)

func (f ScrollerFunc) ScrollTo(offset float64) { f(offset) }

// SyncEngine maps the strip's continuous scroll offset to a discrete index
// and keeps user gestures and programmatic scrolls from fighting.
// It is not safe for concurrent use.
type SyncEngine struct {
	pitch       float64
	settleDelay time.Duration
	scroller    Scroller

	length   int
	mode     ScrollMode
	settleAt time.Time
}

// NewSyncEngine creates an engine for items spaced pitch pixels apart.
// Non-positive arguments fall back to the defaults.
func NewSyncEngine(pitch float64, settleDelay time.Duration, scroller Scroller) *SyncEngine {
	if pitch <= 0 || math.IsNaN(pitch) || math.IsInf(pitch, 0) {
		pitch = DefaultItemPitch
	}
	if settleDelay <= 0 {
		settleDelay = DefaultSettleDelay
	}
	return &SyncEngine{
		pitch:       pitch,
		settleDelay: settleDelay,
		scroller:    scroller,
	}
}

// Reset prepares the engine for a timeline of length items and drops any
// gesture in progress.
func (e *SyncEngine) Reset(length int) {
	e.length = max(length, 0)
	e.mode = ModeProgrammatic
	e.settleAt = time.Time{}
}

func (e *SyncEngine) Len() int { return e.length }

func (e *SyncEngine) Pitch() float64 { return e.pitch }

func (e *SyncEngine) Mode() ScrollMode { return e.mode }

// UserScrolling reports whether a user gesture is in progress.
func (e *SyncEngine) UserScrolling() bool { return e.mode == ModeUserDriven }

// OffsetForIndex returns the scroll offset that centres index.
func (e *SyncEngine) OffsetForIndex(index int) float64 {
	return float64(index) * e.pitch
}

// IndexForOffset returns the item nearest to offset, clamped into the
// timeline. It returns -1 for an empty timeline.
func (e *SyncEngine) IndexForOffset(offset float64) int {
	if e.length == 0 {
		return -1
	}
	switch {
	case math.IsNaN(offset), math.IsInf(offset, -1):
		return 0
	case math.IsInf(offset, 1):
		return e.length - 1
	}

	pos := math.Round(offset / e.pitch)
	switch {
	case pos <= 0:
		return 0
	case pos >= float64(e.length-1):
		return e.length - 1
	}
	return int(pos)
}

// ScrollToIndex requests a smooth scroll so index is centred.
func (e *SyncEngine) ScrollToIndex(index int) (float64, bool) {
	if e.length == 0 {
		return 0, false
	}
	offset := e.OffsetForIndex(common.ClampIndex(index, e.length))
	if e.scroller != nil {
		e.scroller.ScrollTo(offset)
	}
	return offset, true
}

// OnScrollPositionChanged records a scroll position update observed at the
// given time. It switches to user-driven mode, pushes the settle deadline
// out and reports the candidate index, with changed set when it differs
// from selected.
func (e *SyncEngine) OnScrollPositionChanged(offset float64, selected int, at time.Time) (int, bool) {
	if e.length == 0 {
		return -1, false
	}
	if math.IsNaN(offset) {
		return selected, false
	}

	e.mode = ModeUserDriven
	e.settleAt = at.Add(e.settleDelay)

	candidate := e.IndexForOffset(offset)
	return candidate, candidate != selected
}

// Settle ends a user gesture once no scroll event has arrived for the
// settle delay. It reports whether the mode changed.
func (e *SyncEngine) Settle(now time.Time) bool {
	if e.mode != ModeUserDriven || now.Before(e.settleAt) {
		return false
	}
	e.mode = ModeProgrammatic
	e.settleAt = time.Time{}
	return true
}

// ShouldRecenter reports whether an automatic recenter may run now.
func (e *SyncEngine) ShouldRecenter(isLive bool) bool {
	return isLive && e.length > 0 && e.mode == ModeProgrammatic
}
