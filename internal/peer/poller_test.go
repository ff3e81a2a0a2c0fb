package peer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestPoller_RunStopsOnCancel(t *testing.T) {
	poller := NewPoller(time.Millisecond, 10*time.Millisecond, zaptest.NewLogger(t).Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	calls := 0

	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Run(ctx, func(context.Context) (int, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n >= 3 {
				cancel()
			}
			return 0, nil
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, calls, 3)
}

func TestPoller_BacksOffWhenIdle(t *testing.T) {
	poller := NewPoller(time.Millisecond, 50*time.Millisecond, zaptest.NewLogger(t).Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var ticks []time.Time

	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Run(ctx, func(context.Context) (int, error) {
			mu.Lock()
			ticks = append(ticks, time.Now())
			n := len(ticks)
			mu.Unlock()
			if n >= 8 {
				cancel()
			}
			return 0, nil
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	// Consecutive empty polls stretch the gaps.
	firstGap := ticks[1].Sub(ticks[0])
	lastGap := ticks[len(ticks)-1].Sub(ticks[len(ticks)-2])
	assert.Greater(t, lastGap, firstGap)
	// The cadence never exceeds the cap by much; allow scheduler slack.
	assert.Less(t, lastGap, 200*time.Millisecond)
}

func TestPoller_ResetsOnDelivery(t *testing.T) {
	poller := NewPoller(5*time.Millisecond, 500*time.Millisecond, zaptest.NewLogger(t).Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var ticks []time.Time
	// Empty polls first, then one delivery, then observe the next gap.
	results := []int{0, 0, 0, 1, 0}

	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Run(ctx, func(context.Context) (int, error) {
			mu.Lock()
			ticks = append(ticks, time.Now())
			n := len(ticks)
			mu.Unlock()
			if n >= len(results) {
				cancel()
				return 0, nil
			}
			return results[n-1], nil
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	// Gap after the backed-off third empty poll vs gap after the delivery.
	backedOff := ticks[3].Sub(ticks[2])
	afterDelivery := ticks[4].Sub(ticks[3])
	assert.Less(t, afterDelivery, backedOff)
}

func TestPoller_KickDoesNotBlock(t *testing.T) {
	poller := NewPoller(time.Hour, time.Hour, zaptest.NewLogger(t).Sugar())

	// Repeated kicks without a running loop must not block.
	for i := 0; i < 5; i++ {
		poller.Kick()
	}
}

func TestPoller_KickWakesBackedOffLoop(t *testing.T) {
	poller := NewPoller(time.Millisecond, time.Hour, zaptest.NewLogger(t).Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	polled := make(chan struct{}, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Run(ctx, func(context.Context) (int, error) {
			select {
			case polled <- struct{}{}:
			default:
			}
			return 0, nil
		})
	}()

	// First poll happens quickly, then the loop backs off toward an hour.
	select {
	case <-polled:
	case <-time.After(2 * time.Second):
		t.Fatal("no initial poll")
	}

	// Drain, then a kick must produce another poll well before the hour.
	for {
		select {
		case <-polled:
			continue
		default:
		}
		break
	}
	poller.Kick()

	select {
	case <-polled:
	case <-time.After(2 * time.Second):
		t.Fatal("kick did not wake the poller")
	}

	cancel()
	<-done
}
