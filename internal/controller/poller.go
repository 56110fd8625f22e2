package controller

import (
	"sync"
	"time"
)

// pollInterval is the cadence at which new log entries are pulled from a
// handle and pushed to the surface.
const pollInterval = 30 * time.Millisecond

// LogSource is a growing, append-only sequence of log entries.
type LogSource interface {
	LogLen() int
	LogRange(from, to int) []string
}

// Poller bridges a pull-based log buffer to a push-based surface: it keeps
// a cursor of the last delivered entry and forwards everything new on each
// tick. Entries are delivered exactly once, in append order, however many
// accumulate between ticks.
type Poller struct {
	surface  Surface
	interval time.Duration

	mu        sync.Mutex
	source    LogSource
	delivered int
	cleared   bool
	done      chan struct{} // non-nil while polling
}

func NewPoller(surface Surface) *Poller {
	return &Poller{surface: surface, interval: pollInterval}
}

// NewPollerInterval is NewPoller with a custom tick interval.
func NewPollerInterval(surface Surface, interval time.Duration) *Poller {
	return &Poller{surface: surface, interval: interval}
}

// Start begins polling the given source from index zero. Entries already
// present are delivered immediately. Any previous polling run is cancelled
// first, so at most one ticker is ever live.
func (p *Poller) Start(source LogSource) {
	p.Stop()

	p.mu.Lock()
	p.source = source
	p.delivered = 0
	p.cleared = false
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()

	p.Flush()

	go p.run(done)
}

func (p *Poller) run(done chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p.Flush()
		}
	}
}

// Flush delivers every not-yet-delivered entry to the surface. On the very
// first delivery the surface log is cleared, discarding placeholder text
// left from before the execution produced output.
func (p *Poller) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.source == nil {
		return
	}

	length := p.source.LogLen()
	if length <= p.delivered {
		return
	}

	if !p.cleared {
		p.surface.SetLog("")
		p.cleared = true
	}
	for _, entry := range p.source.LogRange(p.delivered, length) {
		p.surface.AppendLog(entry)
	}
	p.delivered = length
}

// Stop cancels polling. Safe to call when not polling, and idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
}
