// Package timeline keeps the dashboard's scroll position, selected hour,
// live/historical mode and celestial rotation consistent while the user
// scrubs through an hourly weather timeline.
package timeline

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/i474232898/weather-timeline/internal/timeutil"
	"github.com/i474232898/weather-timeline/internal/weather"
)

const (
	noticeFetchFailed   = "Could not fetch weather data. Please try again."
	defaultQueryTimeout = 30 * time.Second
)

// Source answers chat queries and narrates reports. Both calls run off the
// event sequence.
type Source interface {
	Query(ctx context.Context, message string) (weather.Report, error)
	Narrate(ctx context.Context, in weather.BriefingInput) (string, error)
}

// UserFacing is implemented by errors whose text is shown to the user verbatim.
type UserFacing interface {
	UserMessage() string
}

type completionKind int

const (
	completionQuery completionKind = iota
	completionNarrative
)

// Completion is the result of asynchronous work, delivered back to the
// event sequence and tagged with the query generation that started it.
type Completion struct {
	generation uint64
	kind       completionKind
	report     weather.Report
	briefing   string
	err        error
}

// Option customises a Core.
type Option func(*Core)

// WithClock overrides the clock used for settle deadlines.
func WithClock(c timeutil.Clock) Option {
	return func(core *Core) { core.clock = c }
}

// WithItemPitch sets the strip's item pitch in pixels.
func WithItemPitch(pitch float64) Option {
	return func(core *Core) { core.pitch = pitch }
}

// WithSettleDelay sets the scroll settle delay.
func WithSettleDelay(d time.Duration) Option {
	return func(core *Core) { core.settleDelay = d }
}

// WithScroller receives programmatic scroll requests for the strip.
func WithScroller(s Scroller) Option {
	return func(core *Core) { core.scroller = s }
}

// WithQueryTimeout bounds each query and narrative request.
func WithQueryTimeout(d time.Duration) Option {
	return func(core *Core) { core.timeout = d }
}

// Core is the navigation core. All methods must be called from a single
// goroutine (see Loop); I/O runs on separate goroutines and returns through
// Completions.
type Core struct {
	ctx         context.Context
	source      Source
	clock       timeutil.Clock
	pitch       float64
	settleDelay time.Duration
	scroller    Scroller
	timeout     time.Duration

	engine  *SyncEngine
	machine *StateMachine

	generation uint64
	report     *weather.Report
	phases     []weather.Phase
	briefing   string
	notice     string
	loading    bool

	completions chan Completion
}

// NewCore creates a core bound to ctx; cancelling ctx abandons in-flight work.
func NewCore(ctx context.Context, source Source, opts ...Option) *Core {
	c := &Core{
		ctx:         ctx,
		source:      source,
		clock:       timeutil.RealClock{},
		pitch:       DefaultItemPitch,
		settleDelay: DefaultSettleDelay,
		timeout:     defaultQueryTimeout,
		machine:     NewStateMachine(),
		completions: make(chan Completion, 16),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.engine = NewSyncEngine(c.pitch, c.settleDelay, c.scroller)
	return c
}

// Completions delivers finished asynchronous work; pass each value to Apply.
func (c *Core) Completions() <-chan Completion {
	return c.completions
}

// State returns the current navigation state.
func (c *Core) State() NavigationState {
	return c.machine.State()
}

// Engine exposes the sync engine for inspection.
func (c *Core) Engine() *SyncEngine {
	return c.engine
}

// Generation is the number of queries submitted so far.
func (c *Core) Generation() uint64 {
	return c.generation
}

// Submit starts a new query. Whitespace-only messages are ignored. The
// previous city's data is cleared immediately, so a failed query leaves an
// empty view until the next one succeeds.
func (c *Core) Submit(message string) bool {
	message = strings.TrimSpace(message)
	if message == "" {
		return false
	}

	c.generation++
	c.report = nil
	c.phases = nil
	c.briefing = ""
	c.notice = ""
	c.loading = true
	c.machine.Reset()
	c.engine.Reset(0)

	gen := c.generation
	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()

		report, err := c.source.Query(ctx, message)
		c.post(Completion{generation: gen, kind: completionQuery, report: report, err: err})
	}()
	return true
}

// Apply folds a completion into the state. Completions from a superseded
// query generation are dropped. It reports whether anything changed.
func (c *Core) Apply(comp Completion) bool {
	if comp.generation != c.generation {
		log.Printf("DEBUG: dropping stale completion from generation %d (current %d)", comp.generation, c.generation)
		return false
	}

	switch comp.kind {
	case completionQuery:
		return c.applyQuery(comp)
	case completionNarrative:
		if comp.err != nil {
			log.Printf("DEBUG: narrative fetch failed: %v", comp.err)
			return false
		}
		c.briefing = comp.briefing
		return true
	}
	return false
}

func (c *Core) applyQuery(comp Completion) bool {
	c.loading = false
	if comp.err != nil {
		log.Printf("ERROR: query failed: %v", comp.err)
		c.notice = noticeFor(comp.err)
		return true
	}

	report := comp.report
	c.report = &report
	c.phases = weather.Phases(report.TimelineData)

	nowIndex := -1
	if len(report.TimelineData) > 0 {
		nowIndex = report.CurrentIndex
	}

	c.engine.Reset(len(report.TimelineData))
	c.afterTransition(c.machine.Load(len(report.TimelineData), nowIndex))
	return true
}

// Scroll handles a scroll position update from the strip.
func (c *Core) Scroll(offset float64) bool {
	if c.engine.Len() == 0 {
		return false
	}

	candidate, changed := c.engine.OnScrollPositionChanged(offset, c.machine.State().SelectedIndex, c.clock.Now())
	if !changed {
		return false
	}
	c.afterTransition(c.machine.Scrub(candidate))
	return true
}

// Tap selects a strip item directly and scrolls it into the centre.
func (c *Core) Tap(index int) bool {
	if c.engine.Len() == 0 {
		return false
	}

	before := c.machine.State()
	c.engine.ScrollToIndex(index)
	c.afterTransition(c.machine.Scrub(index))
	return c.machine.State() != before
}

// ReturnToNow leaves historical mode and scrolls back to the "now" sample.
func (c *Core) ReturnToNow() bool {
	t := c.machine.ReturnToNow()
	if !t.EnteredLive() {
		return false
	}

	c.engine.ScrollToIndex(c.machine.State().NowIndex)
	c.fetchNarrative()
	return true
}

// Tick ends a settled scroll gesture. It reports whether the mode changed.
func (c *Core) Tick() bool {
	return c.engine.Settle(c.clock.Now())
}

// afterTransition runs the side effects of entering live mode: an automatic
// recenter unless the user is mid-gesture, and a fresh caption.
func (c *Core) afterTransition(t Transition) {
	if !t.EnteredLive() {
		return
	}

	state := c.machine.State()
	if c.engine.ShouldRecenter(state.IsLive) {
		c.engine.ScrollToIndex(state.SelectedIndex)
	}
	c.fetchNarrative()
}

func (c *Core) fetchNarrative() {
	if c.report == nil {
		return
	}

	gen := c.generation
	in := c.report.Briefing()
	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()

		text, err := c.source.Narrate(ctx, in)
		c.post(Completion{generation: gen, kind: completionNarrative, briefing: text, err: err})
	}()
}

func (c *Core) post(comp Completion) {
	select {
	case c.completions <- comp:
	case <-c.ctx.Done():
	}
}

func noticeFor(err error) string {
	var uf UserFacing
	if errors.As(err, &uf) {
		return uf.UserMessage()
	}
	return noticeFetchFailed
}

// Frame builds the immutable view of the current state.
func (c *Core) Frame() Frame {
	state := c.machine.State()
	f := Frame{
		Generation: c.generation,
		State:      state,
		Scrolling:  c.engine.UserScrolling(),
		Loading:    c.loading,
		Notice:     c.notice,
		Effects: Effects{
			Category:      weather.CategoryNeutral,
			RotationAngle: RotationAngle(state.SelectedIndex, state.IsLive, state.NowIndex),
		},
	}

	if c.report == nil {
		return f
	}

	var shown DisplayedPoint
	if state.IsLive || state.SelectedIndex < 0 {
		shown = displayedFromSnapshot(c.report.CurrentSnapshot)
		f.Trend = c.report.Trend
		f.Briefing = c.briefing
	} else {
		shown = displayedFromPoint(c.report.City, c.report.TimelineData[state.SelectedIndex])
	}
	f.Displayed = &shown
	f.Effects.Category = shown.Classification.Category
	f.Effects.IsNight = shown.Classification.IsNight

	if n := len(c.report.TimelineData); n > 0 {
		f.Strip = make([]StripItem, n)
		for i, p := range c.report.TimelineData {
			f.Strip[i] = StripItem{
				Index:    i,
				Time:     p.Time,
				Temp:     p.Temp,
				Phase:    c.phases[i],
				Offset:   c.engine.OffsetForIndex(i),
				Selected: i == state.SelectedIndex,
				Now:      i == state.NowIndex,
			}
		}
	}

	return f
}
