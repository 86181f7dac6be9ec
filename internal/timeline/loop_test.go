package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopPublishesFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := make(chan Frame, 32)
	core := NewCore(ctx, &fakeSource{}, WithItemPitch(100), WithSettleDelay(30*time.Millisecond))
	loop := NewLoop(core, func(f Frame) { frames <- f })

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	next := func(match func(Frame) bool) Frame {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case f := <-frames:
				if match(f) {
					return f
				}
			case <-deadline:
				t.Fatal("timed out waiting for frame")
			}
		}
	}

	initial := next(func(Frame) bool { return true })
	assert.Nil(t, initial.Displayed)

	loop.Submit("Lisbon")
	f := next(func(f Frame) bool { return f.Briefing != "" })
	assert.Equal(t, "Briefing for Lisbon", f.Briefing)
	assert.True(t, f.IsLive())

	loop.Scroll(800)
	f = next(func(f Frame) bool { return !f.IsLive() })
	assert.Equal(t, 8, f.State.SelectedIndex)
	assert.True(t, f.Scrolling)

	f = next(func(f Frame) bool { return !f.Scrolling })
	assert.False(t, f.IsLive())

	loop.ReturnToNow()
	f = next(func(f Frame) bool { return f.IsLive() && f.Briefing != "" })
	assert.Equal(t, 5, f.State.SelectedIndex)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	// Inputs after shutdown do not block.
	loop.Tap(1)
}
