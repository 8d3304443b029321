// Package poller keeps a list fresh by re-fetching it on a fixed interval
// and supports optimistic local edits on top of it.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	MinInterval = 2 * time.Second
	MaxInterval = 30 * time.Second
)

// FetchFunc loads the whole list.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Poller holds the latest list returned by its fetch function. Each fetch
// takes a sequence number when it is issued; a response is applied only
// when its sequence is newer than the last applied one, so a slow response
// can never overwrite a newer state.
type Poller[T any] struct {
	fetch    FetchFunc[T]
	interval time.Duration
	log      *logrus.Entry

	mu      sync.RWMutex
	items   []T
	err     error
	version uint64
	issued  uint64
	applied uint64
	updates chan struct{}

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a stopped poller. interval is clamped to [MinInterval, MaxInterval].
func New[T any](name string, fetch FetchFunc[T], interval time.Duration, log *logrus.Logger) *Poller[T] {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Poller[T]{
		fetch:    fetch,
		interval: clamp(interval),
		log:      log.WithFields(logrus.Fields{"module": "poller", "poller": name}),
		items:    []T{},
		updates:  make(chan struct{}, 1),
	}
}

func clamp(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	if d > MaxInterval {
		return MaxInterval
	}
	return d
}

func (p *Poller[T]) Interval() time.Duration { return p.interval }

// Start fetches immediately and then on every tick until Stop or until ctx
// is done. Starting a running poller does nothing.
func (p *Poller[T]) Start(ctx context.Context) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.spawn(ctx)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.spawn(ctx)
			}
		}
	}()
}

func (p *Poller[T]) spawn(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.Refresh(ctx)
	}()
}

// Stop cancels in-flight fetches and waits for them to return.
func (p *Poller[T]) Stop() {
	p.runMu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	p.wg.Wait()
}

// Refresh runs one fetch now. It returns the fetch error, or nil when the
// response was applied or discarded as stale.
func (p *Poller[T]) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.issued++
	seq := p.issued
	p.mu.Unlock()

	items, err := p.fetch(ctx)

	p.mu.Lock()
	if seq <= p.applied {
		p.mu.Unlock()
		p.log.WithField("seq", seq).Debug("discarding stale response")
		return err
	}
	if err != nil && (errors.Is(err, context.Canceled) || ctx.Err() != nil) {
		p.mu.Unlock()
		return err
	}
	p.applied = seq
	if err != nil {
		p.err = err
		p.mu.Unlock()
		p.log.WithError(err).Warn("fetch failed")
		p.notify()
		return err
	}
	if items == nil {
		items = []T{}
	}
	p.items = items
	p.err = nil
	p.version++
	p.mu.Unlock()
	p.notify()
	return nil
}

// Mutate applies a local change to the held list. Fetches issued before the
// change are invalidated so their responses cannot undo it.
func (p *Poller[T]) Mutate(fn func(items []T) []T) {
	p.mu.Lock()
	next := fn(append([]T(nil), p.items...))
	if next == nil {
		next = []T{}
	}
	p.items = next
	p.applied = p.issued
	p.version++
	p.mu.Unlock()
	p.notify()
}

func (p *Poller[T]) notify() {
	select {
	case p.updates <- struct{}{}:
	default:
	}
}

// Items returns a copy of the held list.
func (p *Poller[T]) Items() []T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]T{}, p.items...)
}

// Err is the error of the last applied fetch, nil after a success.
func (p *Poller[T]) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

// Version increases on every change of the held list.
func (p *Poller[T]) Version() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version
}

// Updates signals after every applied fetch or local change. Signals are
// coalesced; read Items after receiving one.
func (p *Poller[T]) Updates() <-chan struct{} { return p.updates }
