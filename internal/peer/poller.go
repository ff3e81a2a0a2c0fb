package peer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Poller drives the client's delivery loop on a repeating timer. The cadence
// starts at interval, doubles after consecutive empty polls up to maxInterval,
// and snaps back to interval on any non-empty poll or an explicit Kick.
//
// Failed polls keep the current cadence: the relay call is logged, never
// retried inline, and never fatal.
type Poller struct {
	interval    time.Duration
	maxInterval time.Duration
	kick        chan struct{}
	logger      *zap.SugaredLogger
}

func NewPoller(interval, maxInterval time.Duration, logger *zap.SugaredLogger) *Poller {
	return &Poller{
		interval:    interval,
		maxInterval: maxInterval,
		kick:        make(chan struct{}, 1),
		logger:      logger,
	}
}

// Kick resets the cadence to the fast interval, typically after sending a
// signaling message that warrants a prompt response.
func (p *Poller) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled, invoking poll on each tick. poll returns
// the number of messages handled in that window.
func (p *Poller) Run(ctx context.Context, poll func(context.Context) (int, error)) {
	current := p.interval
	timer := time.NewTimer(current)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.kick:
			current = p.interval
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(current)
			continue
		case <-timer.C:
		}

		n, err := poll(ctx)
		switch {
		case err != nil:
			p.logger.Warnw("poll failed", "error", err)
		case n > 0:
			current = p.interval
		default:
			current *= 2
			if current > p.maxInterval {
				current = p.maxInterval
			}
		}

		timer.Reset(current)
	}
}
