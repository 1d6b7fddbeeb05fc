package session

import (
	"context"
	"sync"

	"github.com/wonny/dqbreaks/pkg/metrics"
)

// Result types published to the client
const (
	ResultData    = "result"
	ResultSkipped = "skipped"
	ResultQueued  = "queued"
	ResultError   = "error"
)

// Fetcher loads the data for a selection
type Fetcher interface {
	Fetch(ctx context.Context, sel Selection) (any, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, sel Selection) (any, error)

func (f FetcherFunc) Fetch(ctx context.Context, sel Selection) (any, error) { return f(ctx, sel) }

// Result is one message for the client
type Result struct {
	Type      string
	Selection Selection
	Outcome   string
	Data      any
	Err       error
}

// Coordinator drives a Guard for one live session: it issues fetches,
// drops results whose selection is no longer current, and issues exactly
// one follow-up fetch for the newest selection requested meanwhile.
type Coordinator struct {
	guard   *Guard
	fetcher Fetcher
	publish func(Result)
	metrics *metrics.Metrics

	mu       sync.Mutex
	base     context.Context
	current  Selection
	pending  bool
	inflight context.CancelFunc
	closed   bool
	wg       sync.WaitGroup
}

// NewCoordinator creates a coordinator whose fetches derive from ctx.
// publish is called from the requesting goroutine or a fetch goroutine and
// must be safe for concurrent use.
func NewCoordinator(ctx context.Context, fetcher Fetcher, publish func(Result), m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		guard:   NewGuard(),
		fetcher: fetcher,
		publish: publish,
		metrics: m,
		base:    ctx,
	}
}

// Guard exposes the session guard (status reporting)
func (c *Coordinator) Guard() *Guard {
	return c.guard
}

// Request asks for sel to become the visible data
func (c *Coordinator) Request(sel Selection) Outcome {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return AlreadyFetching
	}

	c.current = sel
	outcome, ticket := c.guard.TryBeginFetch(sel)
	c.metrics.FetchOutcome(sel.View, outcome.String())

	var msg *Result
	switch outcome {
	case Granted:
		c.pending = false
		c.startLocked(ticket)
	case AlreadyFetching:
		if ticket.Selection != sel {
			// the in-flight result will be discarded on arrival and a
			// single fetch for the newest selection issued then
			c.pending = true
			msg = &Result{Type: ResultQueued, Selection: sel, Outcome: outcome.String()}
		} else {
			msg = &Result{Type: ResultSkipped, Selection: sel, Outcome: outcome.String()}
		}
	case AlreadyFetched:
		msg = &Result{Type: ResultSkipped, Selection: sel, Outcome: outcome.String()}
	}
	c.mu.Unlock()

	if msg != nil {
		c.publish(*msg)
	}
	return outcome
}

// SwitchView resets the guard unconditionally and abandons any fetch in
// flight. The next Request always fetches.
func (c *Coordinator) SwitchView(view string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.guard.Invalidate()
	c.current = Selection{View: view}
	c.pending = false
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
	c.metrics.FetchOutcome(view, "reset")
}

// Close abandons in-flight work; nothing is published afterwards
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.guard.Invalidate()
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
}

// Wait blocks until every fetch goroutine has returned
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// startLocked runs the fetch for t; c.mu must be held
func (c *Coordinator) startLocked(t Ticket) {
	ctx, cancel := context.WithCancel(c.base)
	c.inflight = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		data, err := c.fetcher.Fetch(ctx, t.Selection)
		c.arrive(t, data, err)
	}()
}

func (c *Coordinator) arrive(t Ticket, data any, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if t.Selection != c.current {
		c.guard.Discard(t)
		c.metrics.FetchOutcome(t.Selection.View, "stale_discarded")
		if c.pending {
			c.pending = false
			if outcome, next := c.guard.TryBeginFetch(c.current); outcome == Granted {
				c.startLocked(next)
			}
		}
		c.mu.Unlock()
		return
	}

	if !c.guard.Finish(t, err) {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.inflight = nil
	c.mu.Unlock()

	if err != nil {
		c.publish(Result{Type: ResultError, Selection: t.Selection, Outcome: Granted.String(), Err: err})
		return
	}
	c.publish(Result{Type: ResultData, Selection: t.Selection, Outcome: Granted.String(), Data: data})
}
