package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/martin/scriptctl/internal/script"
)

type paramField struct {
	spec  script.Parameter
	input textinput.Model
}

type promptState struct {
	label    string
	input    textinput.Model
	onSubmit func(text string)
}

type fileLink struct {
	URL      string
	Filename string
}

type Model struct {
	surface     *Surface
	scriptName  string
	description string

	fields []paramField
	focus  int

	log   string
	files []fileLink

	executing   bool
	execEnabled bool
	stopEnabled bool
	prompt      *promptState

	width, height int
	quitting      bool
}

func NewModel(scriptName string, surface *Surface) Model {
	return Model{
		surface:    surface,
		scriptName: scriptName,
	}
}

func newParamInput(p script.Parameter) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 256
	ti.Width = 40
	ti.Placeholder = paramPlaceholder(p)
	if p.Secure {
		ti.EchoMode = textinput.EchoPassword
	}
	return ti
}

func paramPlaceholder(p script.Parameter) string {
	switch p.Type {
	case script.TypeList:
		return strings.Join(p.Values, " | ")
	case script.TypeFlag:
		return "true | false"
	case script.TypeInt:
		return "number"
	default:
		return p.Description
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case setDescriptionMsg:
		m.description = string(msg)
		return m, nil

	case createParamsMsg:
		m.fields = nil
		for _, p := range msg {
			m.fields = append(m.fields, paramField{spec: p, input: newParamInput(p)})
		}
		m.focus = 0
		m.applyFocus()
		return m, nil

	case setParamValuesMsg:
		for i := range m.fields {
			if v, ok := msg[m.fields[i].spec.Name]; ok {
				m.fields[i].input.SetValue(v)
			}
		}
		return m, nil

	case setLogMsg:
		m.log = string(msg)
		return m, nil

	case appendLogMsg:
		m.log += string(msg)
		return m, nil

	case executingMsg:
		m.executing = true
		return m, nil

	case stopEnabledMsg:
		m.stopEnabled = bool(msg)
		return m, nil

	case execEnabledMsg:
		m.execEnabled = bool(msg)
		if m.execEnabled && m.executing {
			m.executing = false
		}
		return m, nil

	case showInputMsg:
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.Width = 40
		ti.Focus()
		m.prompt = &promptState{label: msg.Prompt, input: ti, onSubmit: msg.OnSubmit}
		m.blurFields()
		return m, textinput.Blink

	case hideInputMsg:
		m.prompt = nil
		m.applyFocus()
		return m, nil

	case fileLinkMsg:
		m.files = append(m.files, fileLink{URL: msg.URL, Filename: msg.Filename})
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.CtrlC) || key.Matches(msg, keys.Escape) {
		m.quitting = true
		return m, tea.Quit
	}

	if key.Matches(msg, keys.Execute) {
		if m.execEnabled {
			m.surface.execute()
		}
		return m, nil
	}

	if key.Matches(msg, keys.Stop) {
		if m.stopEnabled {
			m.surface.stop()
		}
		return m, nil
	}

	// A visible prompt captures typing until it is answered.
	if m.prompt != nil {
		if key.Matches(msg, keys.Enter) {
			text := m.prompt.input.Value()
			onSubmit := m.prompt.onSubmit
			m.prompt = nil
			m.applyFocus()
			if onSubmit != nil {
				go onSubmit(text)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.prompt.input, cmd = m.prompt.input.Update(msg)
		return m, cmd
	}

	if key.Matches(msg, keys.Enter) {
		if m.execEnabled {
			m.surface.execute()
		}
		return m, nil
	}

	if key.Matches(msg, keys.NextField) {
		m.moveFocus(1)
		return m, nil
	}
	if key.Matches(msg, keys.PrevField) {
		m.moveFocus(-1)
		return m, nil
	}

	// Default: edit the focused parameter.
	if m.focus >= 0 && m.focus < len(m.fields) {
		var cmd tea.Cmd
		m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
		m.surface.setValue(m.fields[m.focus].spec.Name, m.fields[m.focus].input.Value())
		return m, cmd
	}
	return m, nil
}

func (m *Model) moveFocus(delta int) {
	if len(m.fields) == 0 {
		return
	}
	m.focus = (m.focus + delta + len(m.fields)) % len(m.fields)
	m.applyFocus()
}

func (m *Model) applyFocus() {
	for i := range m.fields {
		if i == m.focus && m.prompt == nil {
			m.fields[i].input.Focus()
		} else {
			m.fields[i].input.Blur()
		}
	}
}

func (m *Model) blurFields() {
	for i := range m.fields {
		m.fields[i].input.Blur()
	}
}
