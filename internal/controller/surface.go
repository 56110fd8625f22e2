package controller

import "github.com/martin/scriptctl/internal/script"

// Surface is the presentation the coordinator drives. Implementations own
// all rendering; the coordinator only pushes state changes through this
// capability set and reads back parameter values on execute.
//
// A destroyed surface must turn every remaining call into a no-op: the
// poller may tick once more after disposal and that must never be an error.
type Surface interface {
	SetScriptDescription(text string)
	CreateParameters(params []script.Parameter)
	SetParameterValues(values map[string]string)
	ParameterValues() map[string]string

	SetLog(text string)
	AppendLog(entry string)

	SetExecuting()
	SetStopEnabled(enabled bool)
	SetExecutionEnabled(enabled bool)

	ShowInputField(prompt string, onSubmit func(text string))
	HideInputField()

	AddFileLink(url, filename string)

	// SetExecuteHandler and SetStopHandler assign the user-triggered
	// callbacks for the execute and stop controls.
	SetExecuteHandler(fn func())
	SetStopHandler(fn func())

	Destroy()
}
