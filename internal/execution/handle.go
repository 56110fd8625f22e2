// Package execution models one remote script run: its append-only log,
// running state, and lifecycle events.
package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/martin/scriptctl/internal/api"
)

// ErrNoPrompt is returned by SendUserInput when the execution has no
// outstanding input prompt.
var ErrNoPrompt = errors.New("execution has no pending input prompt")

// Remote is the subset of the server API a handle needs.
type Remote interface {
	StartScript(ctx context.Context, name string, values map[string]string) (string, error)
	StopScript(ctx context.Context, id string) error
	SendInput(ctx context.Context, id, text string) error
	OpenEventStream(ctx context.Context, id string) (<-chan api.Event, error)
}

// Listener is a bundle of lifecycle callbacks. Any callback may be nil;
// absent callbacks are simply not invoked.
type Listener struct {
	OnExecutionStop func()
	OnInputPrompt   func(prompt string)
	OnFileCreated   func(url, filename string)
}

// Handle is one in-flight or completed remote execution.
//
// The log is append-only: entries are never removed or reordered, so a
// reader holding an index can always catch up with LogRange. All lifecycle
// events are dispatched from a single pump goroutine, so listener callbacks
// never run concurrently with each other.
type Handle struct {
	remote Remote
	script string

	mu            sync.Mutex
	id            string
	values        map[string]string
	log           []string
	starting      bool
	running       bool
	stopped       bool
	promptPending bool
	pendingPrompt string
	listeners     []*Listener
	stopOnce      sync.Once
}

// NewHandle creates a handle for a fresh, not-yet-started execution.
func NewHandle(remote Remote, scriptName string) *Handle {
	return &Handle{remote: remote, script: scriptName}
}

// Attach binds a handle to an already-running execution, e.g. one started
// by a previous invocation of the client.
func Attach(ctx context.Context, remote Remote, scriptName, id string) (*Handle, error) {
	h := &Handle{remote: remote, script: scriptName, id: id, running: true}

	events, err := remote.OpenEventStream(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reattaching to execution %s: %w", id, err)
	}
	go h.pump(events)
	return h, nil
}

// Start initiates the remote execution with the given parameter values.
// On success the handle begins consuming the execution's event stream.
// Concurrent calls start at most one remote execution: the slot is claimed
// before the network round trip, not after.
func (h *Handle) Start(values map[string]string) error {
	h.mu.Lock()
	if h.starting || h.running || h.id != "" {
		h.mu.Unlock()
		return fmt.Errorf("execution already started")
	}
	h.starting = true
	h.mu.Unlock()

	ctx := context.Background()
	id, err := h.remote.StartScript(ctx, h.script, values)
	if err != nil {
		h.abortStart()
		return err
	}

	events, err := h.remote.OpenEventStream(ctx, id)
	if err != nil {
		h.abortStart()
		return fmt.Errorf("execution %s started but stream failed: %w", id, err)
	}

	h.mu.Lock()
	h.starting = false
	h.id = id
	h.values = make(map[string]string, len(values))
	for k, v := range values {
		h.values[k] = v
	}
	h.running = true
	h.mu.Unlock()

	go h.pump(events)
	return nil
}

func (h *Handle) abortStart() {
	h.mu.Lock()
	h.starting = false
	h.mu.Unlock()
}

// Stop requests cancellation of the remote execution. It's a no-op once the
// execution has stopped, and it does not guarantee the log is final: the
// last entries arrive with the stop event.
func (h *Handle) Stop() error {
	h.mu.Lock()
	id, running := h.id, h.running
	h.mu.Unlock()

	if !running {
		return nil
	}
	return h.remote.StopScript(context.Background(), id)
}

// SendUserInput answers the outstanding input prompt. A prompt accepts
// exactly one answer; without a pending prompt this returns ErrNoPrompt.
func (h *Handle) SendUserInput(text string) error {
	h.mu.Lock()
	if !h.promptPending {
		h.mu.Unlock()
		return ErrNoPrompt
	}
	h.promptPending = false
	id := h.id
	h.mu.Unlock()

	if err := h.remote.SendInput(context.Background(), id, text); err != nil {
		h.mu.Lock()
		h.promptPending = true
		h.mu.Unlock()
		return err
	}
	return nil
}

// AddListener registers a listener bundle for lifecycle events. Events that
// fired before registration are replayed: a still-open prompt is delivered,
// and if the execution already stopped the stop callback fires immediately.
// Without the replay a listener attached to a just-terminated execution
// would wait forever for a stop event that already happened.
func (h *Handle) AddListener(l *Listener) {
	if l == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, l)
	stopped := h.stopped
	prompted, prompt := h.promptPending, h.pendingPrompt
	h.mu.Unlock()

	if prompted && l.OnInputPrompt != nil {
		l.OnInputPrompt(prompt)
	}
	if stopped && l.OnExecutionStop != nil {
		l.OnExecutionStop()
	}
}

// RemoveListener unregisters a previously added listener bundle.
func (h *Handle) RemoveListener(l *Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.listeners {
		if existing == l {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			return
		}
	}
}

// ID returns the server-assigned execution id, empty until started.
func (h *Handle) ID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id
}

// Script returns the script name this handle runs.
func (h *Handle) Script() string {
	return h.script
}

// Running reports whether the remote execution is still going.
func (h *Handle) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// Parameters returns a copy of the values the execution was started with.
func (h *Handle) Parameters() map[string]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	values := make(map[string]string, len(h.values))
	for k, v := range h.values {
		values[k] = v
	}
	return values
}

// LogLen returns the current number of log entries. Non-decreasing for the
// lifetime of the handle.
func (h *Handle) LogLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.log)
}

// LogRange returns the log entries in [from, to). Indices are clamped to
// the current log.
func (h *Handle) LogRange(from, to int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if from < 0 {
		from = 0
	}
	if to > len(h.log) {
		to = len(h.log)
	}
	if from >= to {
		return nil
	}
	out := make([]string, to-from)
	copy(out, h.log[from:to])
	return out
}

// pump consumes the event stream until it closes, then emits the terminal
// stop event. This is the only goroutine mutating the log, so entries keep
// their arrival order. State changes and the listener snapshot happen in
// one critical section, so each listener sees an event either dispatched or
// replayed by AddListener, never both.
func (h *Handle) pump(events <-chan api.Event) {
	for ev := range events {
		switch ev.Type {
		case api.EventOutput:
			h.mu.Lock()
			h.log = append(h.log, ev.Text)
			h.mu.Unlock()

		case api.EventInput:
			h.mu.Lock()
			h.promptPending = true
			h.pendingPrompt = ev.Text
			listeners := h.snapshotListenersLocked()
			h.mu.Unlock()
			for _, l := range listeners {
				if l.OnInputPrompt != nil {
					l.OnInputPrompt(ev.Text)
				}
			}

		case api.EventFile:
			h.mu.Lock()
			listeners := h.snapshotListenersLocked()
			h.mu.Unlock()
			for _, l := range listeners {
				if l.OnFileCreated != nil {
					l.OnFileCreated(ev.URL, ev.Filename)
				}
			}
		}
	}

	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.running = false
		h.stopped = true
		h.promptPending = false
		listeners := h.snapshotListenersLocked()
		h.mu.Unlock()
		for _, l := range listeners {
			if l.OnExecutionStop != nil {
				l.OnExecutionStop()
			}
		}
	})
}

func (h *Handle) snapshotListenersLocked() []*Listener {
	out := make([]*Listener, len(h.listeners))
	copy(out, h.listeners)
	return out
}
