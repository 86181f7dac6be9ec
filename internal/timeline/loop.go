package timeline

import (
	"context"
	"time"
)

// Loop serialises every input to a Core on one goroutine: user events,
// completions of asynchronous work and the settle ticker. After each change
// it publishes a Frame.
type Loop struct {
	core     *Core
	onFrame  func(Frame)
	interval time.Duration

	inputs  chan func(*Core) bool
	stopped chan struct{}
}

// NewLoop wraps core. onFrame is called on the loop goroutine and must not block.
func NewLoop(core *Core, onFrame func(Frame)) *Loop {
	interval := core.settleDelay / 3
	if interval <= 0 {
		interval = DefaultSettleDelay / 3
	}
	return &Loop{
		core:     core,
		onFrame:  onFrame,
		interval: interval,
		inputs:   make(chan func(*Core) bool, 64),
		stopped:  make(chan struct{}),
	}
}

// Submit queues a new query.
func (l *Loop) Submit(message string) {
	l.send(func(c *Core) bool { return c.Submit(message) })
}

// Scroll queues a strip scroll position update.
func (l *Loop) Scroll(offset float64) {
	l.send(func(c *Core) bool { return c.Scroll(offset) })
}

// Tap queues a direct selection of a strip item.
func (l *Loop) Tap(index int) {
	l.send(func(c *Core) bool { return c.Tap(index) })
}

// ReturnToNow queues the "return to now" command.
func (l *Loop) ReturnToNow() {
	l.send(func(c *Core) bool { return c.ReturnToNow() })
}

// Refresh asks for the current frame to be republished.
func (l *Loop) Refresh() {
	l.send(func(*Core) bool { return true })
}

func (l *Loop) send(fn func(*Core) bool) {
	select {
	case l.inputs <- fn:
	case <-l.stopped:
	}
}

// Run processes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.publish()
	for {
		var changed bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.inputs:
			changed = fn(l.core)
		case comp := <-l.core.Completions():
			changed = l.core.Apply(comp)
		case <-ticker.C:
			changed = l.core.Tick()
		}
		if changed {
			l.publish()
		}
	}
}

func (l *Loop) publish() {
	if l.onFrame != nil {
		l.onFrame(l.core.Frame())
	}
}
