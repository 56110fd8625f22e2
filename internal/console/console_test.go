package console

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogGoesToWriter(t *testing.T) {
	var out bytes.Buffer
	s := New(&out, strings.NewReader(""))

	s.AppendLog("line 1\n")
	s.AppendLog("line 2\n")
	assert.Equal(t, "line 1\nline 2\n", out.String())
}

func TestSetLogSurfacesFailureMessage(t *testing.T) {
	var out bytes.Buffer
	s := New(&out, strings.NewReader(""))

	s.SetLog("internal error")
	assert.Equal(t, "internal error\n", out.String())

	// The poller's first-delivery clear prints nothing.
	s.SetLog("")
	assert.Equal(t, "internal error\n", out.String())
}

func TestDoneSignalsCompletion(t *testing.T) {
	var out bytes.Buffer
	s := New(&out, strings.NewReader(""))

	// Coordinator construction enables execution while idle: not done yet.
	s.SetExecutionEnabled(true)
	select {
	case <-s.Done():
		t.Fatal("done before any execution")
	default:
	}

	s.SetExecuting()
	s.SetExecutionEnabled(true)
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("done never signalled")
	}
}

func TestInputPromptReadsLine(t *testing.T) {
	var out bytes.Buffer
	s := New(&out, strings.NewReader("42\n"))

	answered := make(chan string, 1)
	s.ShowInputField("Enter value:", func(text string) { answered <- text })

	select {
	case text := <-answered:
		assert.Equal(t, "42", text)
	case <-time.After(time.Second):
		t.Fatal("input never submitted")
	}
	assert.Contains(t, out.String(), "Enter value:")
}

func TestDestroyDropsPendingInput(t *testing.T) {
	pr, pw := io.Pipe()
	var out bytes.Buffer
	s := New(&out, pr)

	answered := make(chan string, 1)
	s.ShowInputField("Enter value:", func(text string) { answered <- text })

	// The surface goes away before the user answers; a line typed
	// afterwards must not reach the callback.
	s.Destroy()
	go func() {
		pw.Write([]byte("late\n"))
		pw.Close()
	}()

	select {
	case text := <-answered:
		t.Fatalf("input %q delivered after destroy", text)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDestroyedSurfaceIgnoresCalls(t *testing.T) {
	var out bytes.Buffer
	s := New(&out, strings.NewReader(""))

	s.Destroy()
	s.AppendLog("late entry")
	s.SetLog("late text")
	s.AddFileLink("u", "f")
	require.Empty(t, out.String())
}

func TestExecuteAndStopTriggers(t *testing.T) {
	s := New(&bytes.Buffer{}, strings.NewReader(""))

	// No handlers assigned yet: no panic.
	s.Execute()
	s.Stop()

	executed, stopped := 0, 0
	s.SetExecuteHandler(func() { executed++ })
	s.SetStopHandler(func() { stopped++ })
	s.Execute()
	s.Stop()
	assert.Equal(t, 1, executed)
	assert.Equal(t, 1, stopped)
}

func TestFileLinks(t *testing.T) {
	var out bytes.Buffer
	s := New(&out, strings.NewReader(""))

	s.AddFileLink("result/report.csv", "report.csv")
	assert.Equal(t, "file: report.csv (result/report.csv)\n", out.String())
}
