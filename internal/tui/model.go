// Package tui is an interactive terminal chat with the query bot.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goel7054/swagger-bot/internal/respond"
	"github.com/goel7054/swagger-bot/internal/router"
)

// Resolver is the TUI-facing subset of the intent router.
type Resolver interface {
	Resolve(question string) (router.Result, error)
}

type exchange struct {
	question string
	reply    *respond.Envelope
}

// Model is the Bubble Tea model for the chat.
type Model struct {
	resolver Resolver
	input    textinput.Model
	viewport viewport.Model
	history  []exchange
	summary  string
	status   string
	ready    bool
}

// New creates a chat model. summary is shown under the header.
func New(resolver Resolver, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the API, e.g. \"how to get started?\""
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		resolver: resolver,
		input:    ti,
		viewport: viewport.New(0, 0),
		summary:  summary,
		status:   "Enter to ask, PgUp/PgDn to scroll, Ctrl+C to quit.",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header and summary, status, input box
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.Type {
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			if q == "/quit" || q == "/exit" {
				return m, tea.Quit
			}
			m.ask(q)
			m.input.SetValue("")
			m.refresh()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) ask(q string) {
	res, err := m.resolver.Resolve(q)
	var env *respond.Envelope
	if err != nil {
		env, _ = respond.FromError(err)
		m.status = "Error: " + env.Text
	} else {
		env = respond.FromResult(res)
		m.status = fmt.Sprintf("Answered by %s", res.Tier)
	}
	m.history = append(m.history, exchange{question: q, reply: env})
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("swaggerbot")
	summary := mutedStyle.Render(m.summary)
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.history) == 0 {
		return mutedStyle.Render("No questions yet. Try \"hello\" or \"how to get started?\".")
	}
	var b strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("you: " + ex.question))
		b.WriteString("\n")
		b.WriteString(RenderEnvelope(ex.reply))
	}
	return b.String()
}

// RenderEnvelope formats a reply for the terminal.
func RenderEnvelope(env *respond.Envelope) string {
	switch env.Kind {
	case respond.KindMatches:
		lines := make([]string, 0, len(env.Matches))
		for i, mt := range env.Matches {
			line := fmt.Sprintf("%d. %s %s", i+1, methodStyle.Render(mt.Method), mt.Path)
			if mt.Summary != "" {
				line += "  " + mt.Summary
			}
			line += mutedStyle.Render(fmt.Sprintf("  [%s, score %s]", mt.Source, mt.Score))
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n")
	case respond.KindMessage:
		return mutedStyle.Render(env.Text)
	case respond.KindError:
		return errorStyle.Render(env.Text)
	default:
		return env.Text
	}
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	methodStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
