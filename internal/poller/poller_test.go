package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
)

// gatedFetch lets a test decide when, and with what, each fetch call returns.
type gatedFetch struct {
	mu      sync.Mutex
	calls   int
	gates   map[int]chan result
	started chan int
}

type result struct {
	items []string
	err   error
}

func newGatedFetch() *gatedFetch {
	return &gatedFetch{gates: make(map[int]chan result), started: make(chan int, 16)}
}

func (g *gatedFetch) gate(n int) chan result {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[n]
	if !ok {
		ch = make(chan result, 1)
		g.gates[n] = ch
	}
	return ch
}

func (g *gatedFetch) fetch(ctx context.Context) ([]string, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()
	g.started <- n
	select {
	case r := <-g.gate(n):
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newTestPoller(t *testing.T, fetch FetchFunc[string]) *Poller[string] {
	t.Helper()
	log, _ := test.NewNullLogger()
	return New("test", fetch, MinInterval, log)
}

func waitStarted(t *testing.T, g *gatedFetch) int {
	t.Helper()
	select {
	case n := <-g.started:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("fetch never started")
		return 0
	}
}

func TestPoller_FirstFetchIsImmediate(t *testing.T) {
	p := newTestPoller(t, func(context.Context) ([]string, error) { return []string{"a", "b"}, nil })
	p.Start(context.Background())
	defer p.Stop()

	select {
	case <-p.Updates():
	case <-time.After(time.Second):
		t.Fatal("no update before the first tick")
	}
	if got := p.Items(); len(got) != 2 || got[0] != "a" {
		t.Errorf("items = %v", got)
	}
	if p.Version() != 1 {
		t.Errorf("version = %d", p.Version())
	}
}

func TestPoller_LateResponseIsDiscarded(t *testing.T) {
	g := newGatedFetch()
	p := newTestPoller(t, g.fetch)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- p.Refresh(ctx) }()
	first := waitStarted(t, g)

	go func() { done <- p.Refresh(ctx) }()
	second := waitStarted(t, g)

	g.gate(second) <- result{items: []string{"new"}}
	<-done
	g.gate(first) <- result{items: []string{"old"}}
	<-done

	if got := p.Items(); len(got) != 1 || got[0] != "new" {
		t.Errorf("items = %v, want [new]", got)
	}
}

func TestPoller_MutateInvalidatesInFlightFetch(t *testing.T) {
	g := newGatedFetch()
	p := newTestPoller(t, g.fetch)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- p.Refresh(ctx) }()
	n := waitStarted(t, g)

	p.Mutate(func(items []string) []string { return append(items, "local") })
	g.gate(n) <- result{items: []string{"server-before-edit"}}
	<-done

	if got := p.Items(); len(got) != 1 || got[0] != "local" {
		t.Errorf("items = %v, want the local edit kept", got)
	}
}

func TestPoller_ErrorKeepsLastItems(t *testing.T) {
	calls := 0
	p := newTestPoller(t, func(context.Context) ([]string, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("offline")
		}
		return []string{"x"}, nil
	})
	ctx := context.Background()

	_ = p.Refresh(ctx)
	if err := p.Refresh(ctx); err == nil {
		t.Fatal("expected fetch error")
	}
	if p.Err() == nil || len(p.Items()) != 1 {
		t.Errorf("err=%v items=%v", p.Err(), p.Items())
	}
	_ = p.Refresh(ctx)
	if p.Err() != nil {
		t.Errorf("error not cleared after success: %v", p.Err())
	}
}

func TestPoller_StopCancelsInFlight(t *testing.T) {
	g := newGatedFetch()
	p := newTestPoller(t, g.fetch)
	p.Start(context.Background())
	waitStarted(t, g)

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the in-flight fetch")
	}
	if p.Err() != nil {
		t.Errorf("cancellation recorded as error: %v", p.Err())
	}
	p.Stop()
}

func TestNew_ClampsInterval(t *testing.T) {
	fetch := func(context.Context) ([]string, error) { return nil, nil }
	tests := []struct{ in, want time.Duration }{
		{100 * time.Millisecond, MinInterval},
		{5 * time.Second, 5 * time.Second},
		{time.Hour, MaxInterval},
	}
	for _, tt := range tests {
		if got := New("c", fetch, tt.in, nil).Interval(); got != tt.want {
			t.Errorf("New(%v).Interval() = %v, want %v", tt.in, got, tt.want)
		}
	}
}
