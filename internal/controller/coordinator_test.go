package controller

import (
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martin/scriptctl/internal/api"
	"github.com/martin/scriptctl/internal/execution"
	"github.com/martin/scriptctl/internal/script"
)

// fakeHandle is a scriptable execution handle. Tests drive lifecycle events
// by invoking the listener bundle the coordinator registered on it.
type fakeHandle struct {
	mu         sync.Mutex
	startErr   error
	startGate  chan struct{} // when set, Start blocks until closed
	startCalls int
	started    map[string]string
	stopped    bool // execution already terminated, like a stale reattach
	stopCalls  int
	inputs     []string
	log        []string
	listeners  []*execution.Listener
}

func (f *fakeHandle) Start(values map[string]string) error {
	f.mu.Lock()
	f.startCalls++
	f.mu.Unlock()
	if f.startGate != nil {
		<-f.startGate
	}
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = values
	return nil
}

func (f *fakeHandle) startCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls
}

func (f *fakeHandle) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	return nil
}

func (f *fakeHandle) SendUserInput(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, text)
	return nil
}

// AddListener mirrors the real handle's replay contract: registering on an
// already-terminated execution delivers the stop callback immediately.
func (f *fakeHandle) AddListener(l *execution.Listener) {
	f.mu.Lock()
	f.listeners = append(f.listeners, l)
	stopped := f.stopped
	f.mu.Unlock()
	if stopped && l.OnExecutionStop != nil {
		l.OnExecutionStop()
	}
}

func (f *fakeHandle) RemoveListener(l *execution.Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.listeners {
		if existing == l {
			f.listeners = append(f.listeners[:i], f.listeners[i+1:]...)
			return
		}
	}
}

func (f *fakeHandle) LogLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.log)
}

func (f *fakeHandle) LogRange(from, to int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if to > len(f.log) {
		to = len(f.log)
	}
	if from >= to {
		return nil
	}
	out := make([]string, to-from)
	copy(out, f.log[from:to])
	return out
}

func (f *fakeHandle) appendLog(entries ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, entries...)
}

func (f *fakeHandle) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// emit invokes fn on a snapshot of the registered listeners, like the real
// handle's event pump does.
func (f *fakeHandle) emit(fn func(*execution.Listener)) {
	f.mu.Lock()
	snapshot := make([]*execution.Listener, len(f.listeners))
	copy(snapshot, f.listeners)
	f.mu.Unlock()
	for _, l := range snapshot {
		fn(l)
	}
}

func testCoordinator(t *testing.T, handle *fakeHandle) (*Coordinator, *fakeSurface) {
	t.Helper()
	surface := newFakeSurface()
	s := &script.Script{
		Name:        "deploy",
		Description: "Deploys the service",
		Parameters: []script.Parameter{
			{Name: "environment", Type: script.TypeText},
			{Name: "replicas", Type: script.TypeInt, Default: "2"},
		},
	}
	c := New(s, surface, func() Handle { return handle }, discardLogger(),
		WithPollerFactory(func(surf Surface) *Poller {
			return NewPollerInterval(surf, 2*time.Millisecond)
		}))
	return c, surface
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNewRendersScript(t *testing.T) {
	_, surface := testCoordinator(t, &fakeHandle{})

	assert.Equal(t, "Deploys the service", surface.description)
	require.Len(t, surface.params, 2)
	assert.Equal(t, map[string]string{"replicas": "2"}, surface.ParameterValues())
	assert.True(t, surface.execEnabled)
	assert.False(t, surface.stopEnabled)
	require.NotNil(t, surface.onExecute)
	require.NotNil(t, surface.onStop)
}

func TestExecuteStartsWithCollectedValues(t *testing.T) {
	handle := &fakeHandle{}
	var startedWith Handle
	surface := newFakeSurface()
	s := &script.Script{Name: "deploy"}
	c := New(s, surface, func() Handle { return handle }, discardLogger(),
		WithStartCallback(func(h Handle) { startedWith = h }),
		WithPollerFactory(func(surf Surface) *Poller {
			return NewPollerInterval(surf, 2*time.Millisecond)
		}))

	surface.SetParameterValues(map[string]string{"environment": "staging"})
	surface.onExecute()

	assert.Equal(t, map[string]string{"environment": "staging"}, handle.started)
	assert.Same(t, handle, startedWith)
	assert.True(t, c.Executing())
	assert.Equal(t, 1, surface.executing)
	assert.True(t, surface.stopEnabled)
	assert.False(t, surface.execEnabled)
	assert.Equal(t, 1, handle.listenerCount())
}

func TestConcurrentExecuteStartsOneExecution(t *testing.T) {
	handle := &fakeHandle{startGate: make(chan struct{})}
	c, surface := testCoordinator(t, handle)

	// Each trigger arrives on its own goroutine, like keypresses in the
	// TUI. While one start is in flight the other must be ignored, not
	// queued behind it.
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			surface.onExecute()
		}()
	}
	waitFor(t, func() bool { return handle.startCallCount() == 1 })
	close(handle.startGate)
	wg.Wait()

	assert.Equal(t, 1, handle.startCallCount())
	assert.True(t, c.Executing())
	assert.Equal(t, 1, handle.listenerCount())
	assert.Equal(t, 1, surface.executing)
}

func TestExecuteWhileExecutingIsIgnored(t *testing.T) {
	handle := &fakeHandle{}
	_, surface := testCoordinator(t, handle)

	surface.onExecute()
	surface.onExecute()

	assert.Equal(t, 1, handle.listenerCount())
	assert.Equal(t, 1, surface.executing)
}

func TestUnauthenticatedStartIsSwallowed(t *testing.T) {
	handle := &fakeHandle{startErr: &api.RequestError{Code: http.StatusUnauthorized, Message: "Unauthorized"}}
	c, surface := testCoordinator(t, handle)

	surface.SetLog("submitting request...")
	surface.onExecute()

	// Not logged, not shown, no state change: the outer re-auth flow
	// handles this case.
	assert.Equal(t, "submitting request...", surface.logContent())
	assert.False(t, c.Executing())
	assert.True(t, surface.execEnabled)
}

func TestGenericStartFailureIsSurfaced(t *testing.T) {
	handle := &fakeHandle{startErr: &api.RequestError{Code: http.StatusInternalServerError, Message: "internal error"}}
	c, surface := testCoordinator(t, handle)

	surface.onExecute()

	assert.Equal(t, "internal error", surface.logContent())
	assert.False(t, c.Executing())
	// Controls stay usable for a retry.
	assert.True(t, surface.execEnabled)
	assert.False(t, surface.stopEnabled)
}

func TestLogStreamsToSurface(t *testing.T) {
	handle := &fakeHandle{}
	handle.appendLog("first")
	_, surface := testCoordinator(t, handle)

	surface.onExecute()
	assert.Equal(t, []string{"first"}, surface.logEntries())

	handle.appendLog("second", "third")
	waitFor(t, func() bool { return len(surface.logEntries()) == 3 })
	assert.Equal(t, []string{"first", "second", "third"}, surface.logEntries())
}

func TestPromptRoundTrip(t *testing.T) {
	handle := &fakeHandle{}
	_, surface := testCoordinator(t, handle)
	surface.onExecute()

	handle.emit(func(l *execution.Listener) { l.OnInputPrompt("Enter value:") })

	assert.True(t, surface.inputShown)
	assert.Equal(t, "Enter value:", surface.inputPrompt)
	require.NotNil(t, surface.onSubmit)

	surface.onSubmit("42")
	assert.Equal(t, []string{"42"}, handle.inputs)

	// Prompt handling leaves the executing state and poller untouched.
	handle.appendLog("after prompt")
	waitFor(t, func() bool { return len(surface.logEntries()) == 1 })
}

func TestFileLinks(t *testing.T) {
	handle := &fakeHandle{}
	_, surface := testCoordinator(t, handle)
	surface.onExecute()

	handle.emit(func(l *execution.Listener) { l.OnFileCreated("result/report.csv", "report.csv") })
	handle.emit(func(l *execution.Listener) { l.OnFileCreated("result/log.txt", "log.txt") })

	assert.Equal(t, [][2]string{
		{"result/report.csv", "report.csv"},
		{"result/log.txt", "log.txt"},
	}, surface.files)
}

func TestStopEventFlushesAndReturnsToIdle(t *testing.T) {
	handle := &fakeHandle{}
	handle.appendLog("1", "2", "3")
	c, surface := testCoordinator(t, handle)
	surface.onExecute()
	waitFor(t, func() bool { return len(surface.logEntries()) == 3 })

	handle.emit(func(l *execution.Listener) { l.OnInputPrompt("Enter value:") })

	// A final entry appended concurrently with the stop event is still
	// delivered before polling ends.
	handle.appendLog("4")
	handle.emit(func(l *execution.Listener) { l.OnExecutionStop() })

	assert.Equal(t, []string{"1", "2", "3", "4"}, surface.logEntries())
	assert.False(t, c.Executing())
	assert.False(t, surface.stopEnabled)
	assert.True(t, surface.execEnabled)
	assert.False(t, surface.inputShown)
	assert.Equal(t, 0, handle.listenerCount())
}

func TestStopButtonRequestsCancellation(t *testing.T) {
	handle := &fakeHandle{}
	c, surface := testCoordinator(t, handle)

	surface.onStop() // idle: nothing to stop
	assert.Equal(t, 0, handle.stopCalls)

	surface.onExecute()
	surface.onStop()
	assert.Equal(t, 1, handle.stopCalls)
	// Still executing until the stop event arrives.
	assert.True(t, c.Executing())
}

func TestReattach(t *testing.T) {
	handle := &fakeHandle{}
	handle.appendLog("already produced")
	c, surface := testCoordinator(t, &fakeHandle{})

	c.Attach(handle)

	assert.True(t, c.Executing())
	assert.Equal(t, 1, surface.executing)
	assert.Equal(t, []string{"already produced"}, surface.logEntries())
	assert.Equal(t, 1, handle.listenerCount())
}

func TestAttachToTerminatedExecution(t *testing.T) {
	// The recorded execution finished between invocations: its stop is
	// replayed during listener registration, and the coordinator must come
	// out of Attach idle instead of stuck executing.
	handle := &fakeHandle{stopped: true}
	handle.appendLog("tail")
	c, surface := testCoordinator(t, &fakeHandle{})

	c.Attach(handle)

	assert.False(t, c.Executing())
	assert.True(t, surface.execEnabled)
	assert.False(t, surface.stopEnabled)
	assert.Equal(t, []string{"tail"}, surface.logEntries())
	assert.Equal(t, 0, handle.listenerCount())
}

func TestAttachReplacesPreviousRun(t *testing.T) {
	first := &fakeHandle{}
	second := &fakeHandle{}
	c, _ := testCoordinator(t, first)

	c.Attach(first)
	c.Attach(second)

	assert.Equal(t, 0, first.listenerCount())
	assert.Equal(t, 1, second.listenerCount())
	assert.True(t, c.Executing())
}

func TestDisposeIsLocalDetach(t *testing.T) {
	handle := &fakeHandle{}
	c, surface := testCoordinator(t, handle)
	surface.onExecute()

	c.Dispose()

	// Detached, but the remote execution was not cancelled.
	assert.Equal(t, 0, handle.stopCalls)
	assert.Equal(t, 0, handle.listenerCount())
	assert.Equal(t, 1, surface.destroyCalls)

	// Second disposal changes nothing.
	c.Dispose()
	assert.Equal(t, 1, surface.destroyCalls)

	// A disposed coordinator ignores further actions.
	surface.onExecute()
	assert.False(t, c.Executing())
}

func TestDisposeWhileIdle(t *testing.T) {
	c, surface := testCoordinator(t, &fakeHandle{})
	c.Dispose()
	assert.Equal(t, 1, surface.destroyCalls)
}
