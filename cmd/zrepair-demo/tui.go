package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const transcriptWidth = 80

var transcriptLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

// transcriptLineMsg carries one line of text the session decided the
// player should see into the running bubbletea program.
type transcriptLineMsg string

// transcriptModel renders the running game/repair transcript in a
// scrollable pane, standing in for the human player's own terminal.
type transcriptModel struct {
	viewport viewport.Model
	lines    []string
}

func newTranscriptModel() transcriptModel {
	return transcriptModel{viewport: viewport.New(transcriptWidth, 20)}
}

func (m transcriptModel) Init() tea.Cmd { return nil }

func (m transcriptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case transcriptLineMsg:
		wrapped := wordwrap.String(string(msg), transcriptWidth)
		m.lines = append(m.lines, transcriptLineStyle.Render(wrapped))
		m.viewport.SetContent(strings.Join(m.lines, "\n\n"))
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 1
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m transcriptModel) View() string {
	return m.viewport.View() + "\n(press q to quit)"
}

// newTranscriptProgram builds the demo's transcript-pane program.
func newTranscriptProgram() *tea.Program {
	return tea.NewProgram(newTranscriptModel())
}

// teaDisplay adapts session.Display onto a running bubbletea program,
// forwarding each line as a message instead of writing to stdout
// directly so it composes with the viewport's own rendering.
type teaDisplay struct {
	program *tea.Program
}

func newTeaDisplay(p *tea.Program) *teaDisplay {
	return &teaDisplay{program: p}
}

func (d *teaDisplay) Show(text string) {
	d.program.Send(transcriptLineMsg(text))
}
