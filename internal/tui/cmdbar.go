package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	cmdBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

// CmdBarModel manages the command input bar. It doubles as the search box:
// opened with "/" it holds search text, opened with ":" it holds a command.
type CmdBarModel struct {
	input   textinput.Model
	focused bool
	prompt  string
}

// NewCmdBarModel creates a new command bar
func NewCmdBarModel() *CmdBarModel {
	ti := textinput.New()
	ti.CharLimit = 256
	return &CmdBarModel{input: ti}
}

// Focus opens the bar with the given prompt and initial value.
func (m *CmdBarModel) Focus(prompt, value string) tea.Cmd {
	m.focused = true
	m.prompt = prompt
	m.input.Placeholder = placeholderFor(prompt)
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

// Blur unfocuses the command bar
func (m *CmdBarModel) Blur() {
	m.focused = false
	m.input.Blur()
	m.input.SetValue("")
}

// Focused reports whether the bar is taking input.
func (m *CmdBarModel) Focused() bool { return m.focused }

// Prompt returns the prompt the bar was opened with.
func (m *CmdBarModel) Prompt() string { return m.prompt }

// Value returns the current input.
func (m *CmdBarModel) Value() string { return m.input.Value() }

// SetValue replaces the current input.
func (m *CmdBarModel) SetValue(v string) {
	m.input.SetValue(v)
	m.input.CursorEnd()
}

// Submit returns the current input and blurs
func (m *CmdBarModel) Submit() string {
	val := m.input.Value()
	m.Blur()
	return val
}

// Update handles messages
func (m *CmdBarModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// View renders the command bar
func (m *CmdBarModel) View(width int) string {
	style := cmdBarStyle
	if width > 0 {
		style = style.Width(width)
	}
	if m.focused {
		return style.Render(promptStyle.Render(m.prompt+" ") + m.input.View())
	}
	return style.Render("Press / to search, : for commands (category, status, sort, seen, preset, rm)")
}

func placeholderFor(prompt string) string {
	if prompt == "/" {
		return "Search name or description..."
	}
	return "Enter command..."
}

// command is one parsed command-bar line.
type command struct {
	name string
	args []string
}

var commandNames = map[string]bool{
	"search": true, "category": true, "status": true, "essential": true,
	"seen": true, "sort": true, "preset": true, "clear": true, "page": true,
	"rm": true, "reset-status": true, "reset-order": true, "refresh": true,
	"quit": true, "q": true,
}

// parseCommand splits a command-bar line into a known command and its args.
func parseCommand(input string) (command, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return command{}, fmt.Errorf("empty command")
	}
	name := strings.ToLower(parts[0])
	if !commandNames[name] {
		return command{}, fmt.Errorf("unknown command: %s", parts[0])
	}
	return command{name: name, args: parts[1:]}, nil
}
