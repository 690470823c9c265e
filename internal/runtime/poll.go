package runtime

import (
	"context"
	"time"
)

// Poller ticks until the poll function reports done, the context is
// cancelled, or its deadline passes.
type Poller struct {
	Ticker   *time.Ticker
	duration time.Duration
	ctx      context.Context
	name     string
}

type PollerOption func(*Poller)

func WithPollDuration(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.duration = d
	}
}

func NewPoller(ctx context.Context, name string, option ...PollerOption) *Poller {
	p := &Poller{
		name: name,
		ctx:  ctx,
	}
	for _, opt := range option {
		opt(p)
	}
	if p.duration == 0 {
		p.duration = DefaultTickerDuration
	}
	p.Ticker = time.NewTicker(p.duration)
	return p
}

func (p *Poller) Do(f func() bool, cancel_f func(), deadline_f func()) {
	tickerMap.Set(p.name, p)
	go func() {
		defer tickerMap.Remove(p.name)
		for {
			select {
			case <-p.Ticker.C:
				// ticker delivered signal. do function f
				if f() {
					p.Ticker.Stop()
					return
				}
			case <-p.ctx.Done():
				p.Ticker.Stop()
				if p.ctx.Err() == context.DeadlineExceeded {
					deadline_f()
				}
				if p.ctx.Err() == context.Canceled {
					cancel_f()
				}
				return
			}
		}
	}()
}
