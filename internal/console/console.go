// Package console is a plain-text presentation surface for headless runs:
// log entries go straight to a writer, input prompts are answered from a
// reader (normally stdin).
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/martin/scriptctl/internal/script"
)

// Surface implements controller.Surface on top of plain streams.
type Surface struct {
	out io.Writer
	in  *bufio.Reader

	mu        sync.Mutex
	values    map[string]string
	onExecute func()
	onStop    func()
	executing bool
	destroyed bool
	done      chan struct{}
	doneOnce  sync.Once
}

func New(out io.Writer, in io.Reader) *Surface {
	return &Surface{
		out:    out,
		in:     bufio.NewReader(in),
		values: map[string]string{},
		done:   make(chan struct{}),
	}
}

// Done is closed once a started execution has finished.
func (s *Surface) Done() <-chan struct{} {
	return s.done
}

// Execute triggers the execute control, like pressing the button.
func (s *Surface) Execute() {
	s.mu.Lock()
	fn := s.onExecute
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Stop triggers the stop control.
func (s *Surface) Stop() {
	s.mu.Lock()
	fn := s.onStop
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Surface) SetScriptDescription(string) {}

func (s *Surface) CreateParameters([]script.Parameter) {}

func (s *Surface) SetParameterValues(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
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

func (s *Surface) SetLog(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || text == "" {
		return
	}
	fmt.Fprint(s.out, ensureNewline(text))
}

func (s *Surface) AppendLog(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	fmt.Fprint(s.out, entry)
}

func (s *Surface) SetExecuting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executing = true
}

func (s *Surface) SetStopEnabled(bool) {}

// SetExecutionEnabled re-enabling after a run signals completion.
func (s *Surface) SetExecutionEnabled(enabled bool) {
	s.mu.Lock()
	finished := enabled && s.executing
	if finished {
		s.executing = false
	}
	s.mu.Unlock()
	if finished {
		s.doneOnce.Do(func() { close(s.done) })
	}
}

// ShowInputField prints the prompt and feeds one line from the reader to
// the submission callback. The surface is the reader's only consumer; the
// blocking read cannot be cancelled, so an answer typed after the surface
// was destroyed is dropped rather than delivered to a stale callback.
func (s *Surface) ShowInputField(prompt string, onSubmit func(text string)) {
	s.mu.Lock()
	destroyed := s.destroyed
	s.mu.Unlock()
	if destroyed {
		return
	}

	fmt.Fprint(s.out, ensureNewline(prompt))
	go func() {
		line, err := s.in.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		s.mu.Lock()
		destroyed := s.destroyed
		s.mu.Unlock()
		if destroyed {
			return
		}
		onSubmit(strings.TrimRight(line, "\r\n"))
	}()
}

func (s *Surface) HideInputField() {}

func (s *Surface) AddFileLink(url, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	fmt.Fprintf(s.out, "file: %s (%s)\n", filename, url)
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

func (s *Surface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
