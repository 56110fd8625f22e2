package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Adaptive colors for light/dark terminal backgrounds
	accentColor = lipgloss.AdaptiveColor{Light: "#D6249F", Dark: "#FF79C6"}
	greenColor  = lipgloss.AdaptiveColor{Light: "#116620", Dark: "#50FA7B"}
	redColor    = lipgloss.AdaptiveColor{Light: "#B31D28", Dark: "#FF5555"}
	dimColor    = lipgloss.AdaptiveColor{Light: "#777777", Dark: "#6272A4"}
	cyanColor   = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#8BE9FD"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			PaddingLeft(1)

	descriptionStyle = lipgloss.NewStyle().
				Foreground(dimColor).
				PaddingLeft(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(cyanColor)

	focusedLabelStyle = lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true)

	requiredStyle = lipgloss.NewStyle().
			Foreground(redColor)

	statusRunning = lipgloss.NewStyle().
			Foreground(greenColor)

	statusIdle = lipgloss.NewStyle().
			Foreground(dimColor)

	logBorderStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	logContentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#444444", Dark: "#BBBBBB"})

	fileLinkStyle = lipgloss.NewStyle().
			Foreground(cyanColor)

	promptLabelStyle = lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true).
				PaddingLeft(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			PaddingLeft(1)
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	// Title and status
	b.WriteString(titleStyle.Render(m.scriptName))
	b.WriteString("  ")
	if m.executing {
		b.WriteString(statusRunning.Render("running"))
	} else {
		b.WriteString(statusIdle.Render("idle"))
	}
	b.WriteString("\n")
	if m.description != "" {
		b.WriteString(descriptionStyle.Render(m.description))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Parameter form
	if len(m.fields) > 0 {
		labelWidth := 0
		for _, f := range m.fields {
			if w := len(f.spec.Name); w > labelWidth {
				labelWidth = w
			}
		}
		for i, f := range m.fields {
			label := pad(f.spec.Name, labelWidth)
			if i == m.focus && m.prompt == nil {
				b.WriteString(" " + focusedLabelStyle.Render(label))
			} else {
				b.WriteString(" " + labelStyle.Render(label))
			}
			if f.spec.Required {
				b.WriteString(requiredStyle.Render("*"))
			} else {
				b.WriteString(" ")
			}
			b.WriteString(" ")
			b.WriteString(f.input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	// Log panel
	b.WriteString(logBorderStyle.Render(" " + logRule(m.width, "output")))
	b.WriteString("\n")
	if m.log != "" {
		lines := strings.Split(strings.TrimRight(m.log, "\n"), "\n")
		maxLines := m.maxLogLines()
		start := len(lines) - maxLines
		if start < 0 {
			start = 0
		}
		for _, line := range lines[start:] {
			b.WriteString(logContentStyle.Render(" " + line))
			b.WriteString("\n")
		}
	}
	b.WriteString(logBorderStyle.Render(" " + strings.Repeat("─", max(0, m.width-2))))
	b.WriteString("\n")

	// Files produced by the execution
	for _, f := range m.files {
		b.WriteString(fileLinkStyle.Render(fmt.Sprintf(" %s", f.Filename)))
		b.WriteString(statusIdle.Render(fmt.Sprintf("  %s", f.URL)))
		b.WriteString("\n")
	}

	// Input prompt from the running script
	if m.prompt != nil {
		b.WriteString(promptLabelStyle.Render(m.prompt.label))
		b.WriteString(" ")
		b.WriteString(m.prompt.input.View())
		b.WriteString("\n")
	}

	// Help bar
	if m.prompt != nil {
		b.WriteString(helpStyle.Render("enter send input  ctrl+k stop  esc quit"))
	} else if m.executing {
		b.WriteString(helpStyle.Render("ctrl+k stop  esc quit (keeps it running)"))
	} else {
		b.WriteString(helpStyle.Render("enter execute  tab next field  esc quit"))
	}
	b.WriteString("\n")

	return b.String()
}

// maxLogLines budgets the log panel against everything else on screen.
func (m Model) maxLogLines() int {
	if m.height == 0 {
		return 200
	}
	overhead := 8 + len(m.fields) + len(m.files)
	lines := m.height - overhead
	if lines < 3 {
		lines = 3
	}
	return lines
}

func logRule(width int, title string) string {
	rule := fmt.Sprintf("─── %s ", title)
	remaining := width - lipgloss.Width(rule) - 2
	if remaining > 0 {
		rule += strings.Repeat("─", remaining)
	}
	return rule
}

// pad right-pads s to width with spaces.
func pad(s string, width int) string {
	visual := lipgloss.Width(s)
	if visual >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visual)
}
