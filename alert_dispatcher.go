package guardian

import (
	"context"
	"sync"
	"sync/atomic"
)

// alertDispatcher forwards notifications to the configured sink from a
// dedicated goroutine so LogEvent never blocks on delivery.
type alertDispatcher struct {
	cfg       AlertConfig
	sink      AlertSink
	ch        chan AlertNotification
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newAlertDispatcher(cfg AlertConfig, sink AlertSink) *alertDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &alertDispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan AlertNotification, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *alertDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case notification := <-d.ch:
			d.sink.Emit(context.Background(), notification)
		case <-d.done:
			// Drain what is already buffered, then exit.
			for {
				select {
				case notification := <-d.ch:
					d.sink.Emit(context.Background(), notification)
				default:
					return
				}
			}
		}
	}
}

func (d *alertDispatcher) Emit(ctx context.Context, notification AlertNotification) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- notification:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- notification:
	case <-ctx.Done():
	case <-d.done:
	}
}

func (d *alertDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *alertDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
