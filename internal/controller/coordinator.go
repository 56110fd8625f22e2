// Package controller coordinates one remote script execution with a
// presentation surface: starting it, streaming its log, relaying input
// prompts, and tearing everything down.
package controller

import (
	"log/slog"
	"sync"

	"github.com/martin/scriptctl/internal/api"
	"github.com/martin/scriptctl/internal/execution"
	"github.com/martin/scriptctl/internal/script"
)

// Handle is the execution the coordinator manages. *execution.Handle
// satisfies it; tests substitute fakes.
type Handle interface {
	LogSource
	Start(values map[string]string) error
	Stop() error
	SendUserInput(text string) error
	AddListener(l *execution.Listener)
	RemoveListener(l *execution.Listener)
}

// activeRun bundles everything that exists exactly while an execution is
// current: the handle, its poller, and the registered listener bundle.
// A nil activeRun is the idle state, so a poller can't outlive its handle.
type activeRun struct {
	handle   Handle
	poller   *Poller
	listener *execution.Listener
}

// Coordinator binds at most one execution to a surface at a time.
type Coordinator struct {
	script    *script.Script
	surface   Surface
	newHandle func() Handle
	onStarted func(Handle) // notified once per successful start
	logger    *slog.Logger
	newPoller func(Surface) *Poller

	mu       sync.Mutex
	run      *activeRun
	starting bool // an execute request is in flight, slot claimed
	disposed bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithStartCallback registers the callback invoked once per successful
// start, letting the surrounding system track the new handle.
func WithStartCallback(fn func(Handle)) Option {
	return func(c *Coordinator) { c.onStarted = fn }
}

// WithPollerFactory overrides how pollers are built, mainly to shorten the
// tick interval in tests.
func WithPollerFactory(fn func(Surface) *Poller) Option {
	return func(c *Coordinator) { c.newPoller = fn }
}

// New wires a coordinator to a surface: it renders the script description
// and parameter controls, seeds default values, and assigns the execute and
// stop callbacks. The coordinator starts idle.
func New(s *script.Script, surface Surface, newHandle func() Handle, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		script:    s,
		surface:   surface,
		newHandle: newHandle,
		logger:    logger,
		newPoller: NewPoller,
	}
	for _, opt := range opts {
		opt(c)
	}

	surface.SetScriptDescription(s.Description)
	surface.CreateParameters(s.Parameters)
	surface.SetParameterValues(s.DefaultValues())
	surface.SetExecuteHandler(c.executeRequested)
	surface.SetStopHandler(c.stopRequested)
	surface.SetExecutionEnabled(true)
	surface.SetStopEnabled(false)
	return c
}

// Executing reports whether an execution is currently bound.
func (c *Coordinator) Executing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run != nil
}

// executeRequested collects the current parameter values, starts a fresh
// execution, and transitions to executing. Start failures never propagate:
// an unauthenticated failure is swallowed entirely (the outer
// re-authentication flow owns that case), anything else is logged and
// written into the surface's log area, leaving the coordinator idle.
func (c *Coordinator) executeRequested() {
	// Claim the execution slot before the start round trip: execute
	// requests arrive on their own goroutines, and two quick triggers must
	// not both start a remote execution.
	c.mu.Lock()
	busy := c.run != nil || c.starting || c.disposed
	if !busy {
		c.starting = true
	}
	c.mu.Unlock()
	if busy {
		return
	}

	values := c.surface.ParameterValues()
	handle := c.newHandle()

	if err := handle.Start(values); err != nil {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
		if api.IsUnauthenticated(err) {
			return
		}
		c.logger.Error("failed to start script", "script", c.script.Name, "err", err)
		c.surface.SetLog(api.UserMessage(err))
		return
	}

	if c.onStarted != nil {
		c.onStarted(handle)
	}
	c.Attach(handle)
}

// Attach binds an execution to the surface and begins streaming its log.
// The handle may be freshly started or already running (reattachment).
// Any previously bound execution is detached first.
func (c *Coordinator) Attach(handle Handle) {
	listener := &execution.Listener{
		OnExecutionStop: c.executionStopped,
		OnInputPrompt:   c.inputPrompted,
		OnFileCreated:   c.fileCreated,
	}

	c.mu.Lock()
	c.starting = false
	if c.disposed {
		c.mu.Unlock()
		return
	}
	prev := c.run
	poller := c.newPoller(c.surface)
	c.run = &activeRun{handle: handle, poller: poller, listener: listener}
	c.mu.Unlock()

	if prev != nil {
		prev.poller.Stop()
		prev.handle.RemoveListener(prev.listener)
	}

	c.surface.SetExecuting()
	c.surface.SetExecutionEnabled(false)
	c.surface.SetStopEnabled(true)

	poller.Start(handle)
	handle.AddListener(listener)
}

// stopRequested asks the current execution to cancel. The transition back
// to idle happens on the resulting stop event, not here.
func (c *Coordinator) stopRequested() {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()
	if run == nil {
		return
	}
	if err := run.handle.Stop(); err != nil {
		c.logger.Error("failed to stop script", "script", c.script.Name, "err", err)
	}
}

// executionStopped flushes the remaining log entries, tears down the
// poller, and returns the surface to its idle state.
func (c *Coordinator) executionStopped() {
	c.mu.Lock()
	run := c.run
	c.run = nil
	c.mu.Unlock()
	if run == nil {
		return
	}

	run.poller.Flush()
	run.poller.Stop()
	run.handle.RemoveListener(run.listener)

	c.surface.SetStopEnabled(false)
	c.surface.SetExecutionEnabled(true)
	c.surface.HideInputField()
}

// inputPrompted shows the input field for the prompt and routes its
// submission to the current handle. A newer prompt replaces an unanswered
// older one; submission always targets the latest prompt.
func (c *Coordinator) inputPrompted(prompt string) {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()
	if run == nil {
		return
	}

	c.surface.ShowInputField(prompt, func(text string) {
		if err := run.handle.SendUserInput(text); err != nil {
			c.logger.Error("failed to send input", "script", c.script.Name, "err", err)
		}
	})
}

func (c *Coordinator) fileCreated(url, filename string) {
	c.surface.AddFileLink(url, filename)
}

// Dispose detaches the coordinator: it stops polling, unregisters the
// listener bundle, and releases the surface. The remote execution keeps
// running; disposal is a local detach, not a cancellation. Safe to call in
// any state, any number of times.
func (c *Coordinator) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	run := c.run
	c.run = nil
	c.mu.Unlock()

	if run != nil {
		run.poller.Stop()
		run.handle.RemoveListener(run.listener)
	}
	c.surface.Destroy()
}
