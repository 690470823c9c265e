package runtime

import (
	"context"
	"time"

	cmap "github.com/orcaman/concurrent-map"
)

var tickerMap cmap.ConcurrentMap

func init() {
	tickerMap = cmap.New()
}

var DefaultTickerDuration = time.Second * 20

// IntervalTicker runs a function on a fixed cadence until its context
// is done. Reset postpones the next run by a full interval, used when
// an explicit user action already did the work a tick would do.
type IntervalTicker struct {
	Ticker    *time.Ticker
	ResetChan chan struct{}
	duration  time.Duration
	ctx       context.Context
	name      string
}

type IntervalTickerOption func(*IntervalTicker)

func WithDuration(d time.Duration) IntervalTickerOption {
	return func(t *IntervalTicker) {
		t.duration = d
	}
}

func NewIntervalTicker(ctx context.Context, name string, option ...IntervalTickerOption) *IntervalTicker {
	t := &IntervalTicker{
		ResetChan: make(chan struct{}, 1),
		name:      name,
		ctx:       ctx,
	}
	for _, opt := range option {
		opt(t)
	}
	if t.duration == 0 {
		t.duration = DefaultTickerDuration
	}
	t.Ticker = time.NewTicker(t.duration)
	return t
}

func (t *IntervalTicker) Do(f func()) {
	tickerMap.Set(t.name, t)
	go func() {
		defer tickerMap.Remove(t.name)
		for {
			select {
			case <-t.Ticker.C:
				// ticker delivered signal. do function f
				f()
			case <-t.ResetChan:
				// reset signal received. creating new ticker.
				t.Ticker.Stop()
				t.Ticker = time.NewTicker(t.duration)
			case <-t.ctx.Done():
				t.Ticker.Stop()
				return
			}
		}
	}()
}

// Reset postpones the next tick by a full interval. Safe to call from
// any goroutine; a pending reset is collapsed into one.
func (t *IntervalTicker) Reset() {
	select {
	case t.ResetChan <- struct{}{}:
	default:
	}
}

func RemoveTicker(name string) {
	tickerMap.Remove(name)
}
