// Package tui is the interactive chat front end for the assistant.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hyperjump/medqa/internal/cli"
	"github.com/hyperjump/medqa/internal/models"
	"github.com/hyperjump/medqa/pkg/utils"
)

// Answerer is the TUI-facing subset of the assistant.
type Answerer interface {
	Answer(ctx context.Context, question string) (*models.QueryResult, error)
}

type message struct {
	role   models.Role
	text   string
	failed bool
}

// answerMsg carries the outcome of one Answer call back into Update.
type answerMsg struct {
	res *models.QueryResult
	err error
}

// Model is the Bubble Tea model for the chat window.
type Model struct {
	assistant    Answerer
	ctx          context.Context
	input        textinput.Model
	viewport     viewport.Model
	spinner      spinner.Model
	messages     []message
	last         *models.QueryResult
	summary      string
	previewChars int
	showSources  bool
	busy         bool
	ready        bool
}

// New creates a chat model. summary is shown under the title (corpus and model info).
func New(ctx context.Context, assistant Answerer, summary string, previewChars int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the documents and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		assistant:    assistant,
		ctx:          ctx,
		input:        ti,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		summary:      summary,
		previewChars: previewChars,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, spinner and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and summary, status, input box, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-ch)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d", "esc":
			return m, tea.Quit
		case "ctrl+s":
			m.showSources = !m.showSources
			m.refresh()
			return m, nil
		case "enter":
			if m.busy {
				return m, nil
			}
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.messages = append(m.messages, message{role: models.RoleUser, text: q})
			m.input.SetValue("")
			m.input.Blur()
			m.busy = true
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		}

	case answerMsg:
		m.busy = false
		m.input.Focus()
		if msg.err != nil {
			m.messages = append(m.messages, message{role: models.RoleAssistant, text: cli.FailureMessage(msg.err), failed: true})
		} else {
			m.messages = append(m.messages, message{role: models.RoleAssistant, text: msg.res.Answer})
			m.last = msg.res
		}
		m.refresh()
		return m, textinput.Blink

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.assistant.Answer(m.ctx, q)
		return answerMsg{res: res, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderChat())
	m.viewport.GotoBottom()
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Medical Document Assistant")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	chat := chatBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	return header + "\n" + summary + "\n" + chat + "\n" + input + "\n" + m.statusLine()
}

func (m Model) statusLine() string {
	if m.busy {
		return statusStyle.Render(m.spinner.View() + " Searching the documents and asking the model...")
	}
	hint := "enter: ask  ctrl+s: show sources  esc: quit"
	if m.showSources {
		hint = "enter: ask  ctrl+s: hide sources  esc: quit"
	}
	return statusStyle.Render(hint)
}

func (m Model) renderChat() string {
	if len(m.messages) == 0 {
		return "Ask anything about the loaded documents. Answers use only their content."
	}
	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch {
		case msg.role == models.RoleUser:
			b.WriteString(userStyle.Render("You: ") + msg.text)
		case msg.failed:
			b.WriteString(errorStyle.Render("No answer: " + msg.text))
		default:
			b.WriteString(assistantStyle.Render("Assistant: ") + msg.text)
		}
	}
	if m.showSources && m.last != nil {
		b.WriteString("\n\n" + sourceHeaderStyle.Render("Retrieved context"))
		for i, ch := range m.last.RetrievedChunks {
			fmt.Fprintf(&b, "\n[%d] %s\n%s", i+1, ch.Source, sourceStyle.Render(utils.Truncate(ch.Text, m.previewChars)))
		}
	}
	return b.String()
}

var (
	chatBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sourceHeaderStyle = lipgloss.NewStyle().Underline(true)
	sourceStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Run starts the chat program and blocks until the user quits.
func Run(ctx context.Context, assistant Answerer, summary string, previewChars int) error {
	p := tea.NewProgram(New(ctx, assistant, summary, previewChars), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
