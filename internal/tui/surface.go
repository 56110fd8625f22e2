package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/martin/scriptctl/internal/script"
)

// Messages the Surface feeds into the running program. The controller calls
// Surface methods from its own goroutines; the model consumes these on the
// bubbletea event loop.
type (
	setDescriptionMsg string
	createParamsMsg   []script.Parameter
	setParamValuesMsg map[string]string
	setLogMsg         string
	appendLogMsg      string
	executingMsg      struct{}
	stopEnabledMsg    bool
	execEnabledMsg    bool
	hideInputMsg      struct{}

	showInputMsg struct {
		Prompt   string
		OnSubmit func(text string)
	}

	fileLinkMsg struct {
		URL      string
		Filename string
	}
)

// Surface adapts the running TUI program to controller.Surface. It keeps the
// canonical parameter values so the controller can read them without touching
// the event loop; the model mirrors edits back through setValue.
type Surface struct {
	send func(tea.Msg)

	mu        sync.Mutex
	values    map[string]string
	onExecute func()
	onStop    func()
	destroyed bool
}

// NewSurface wraps a message sink, normally (*tea.Program).Send.
func NewSurface(send func(tea.Msg)) *Surface {
	return &Surface{
		send:   send,
		values: map[string]string{},
	}
}

func (s *Surface) post(msg tea.Msg) {
	s.mu.Lock()
	destroyed := s.destroyed
	s.mu.Unlock()
	if !destroyed {
		s.send(msg)
	}
}

func (s *Surface) SetScriptDescription(text string) {
	s.post(setDescriptionMsg(text))
}

func (s *Surface) CreateParameters(params []script.Parameter) {
	s.post(createParamsMsg(params))
}

func (s *Surface) SetParameterValues(values map[string]string) {
	s.mu.Lock()
	for k, v := range values {
		s.values[k] = v
	}
	s.mu.Unlock()
	s.post(setParamValuesMsg(values))
}

func (s *Surface) ParameterValues() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// setValue records an edit made in the parameter form.
func (s *Surface) setValue(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

func (s *Surface) SetLog(text string) {
	s.post(setLogMsg(text))
}

func (s *Surface) AppendLog(entry string) {
	s.post(appendLogMsg(entry))
}

func (s *Surface) SetExecuting() {
	s.post(executingMsg{})
}

func (s *Surface) SetStopEnabled(enabled bool) {
	s.post(stopEnabledMsg(enabled))
}

func (s *Surface) SetExecutionEnabled(enabled bool) {
	s.post(execEnabledMsg(enabled))
}

func (s *Surface) ShowInputField(prompt string, onSubmit func(text string)) {
	s.post(showInputMsg{Prompt: prompt, OnSubmit: onSubmit})
}

func (s *Surface) HideInputField() {
	s.post(hideInputMsg{})
}

func (s *Surface) AddFileLink(url, filename string) {
	s.post(fileLinkMsg{URL: url, Filename: filename})
}

func (s *Surface) SetExecuteHandler(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExecute = fn
}

func (s *Surface) SetStopHandler(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStop = fn
}

// Destroy detaches the surface: later calls stop reaching the program.
func (s *Surface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
}

// execute triggers the execute handler off the event loop; starting an
// execution does a network round trip and must not block rendering.
func (s *Surface) execute() {
	s.mu.Lock()
	fn := s.onExecute
	s.mu.Unlock()
	if fn != nil {
		go fn()
	}
}

func (s *Surface) stop() {
	s.mu.Lock()
	fn := s.onStop
	s.mu.Unlock()
	if fn != nil {
		go fn()
	}
}
