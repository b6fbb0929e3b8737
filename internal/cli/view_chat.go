package cli

import (
	"context"
	"strings"

	"github.com/calegray/manse/internal/agent"
	"github.com/calegray/manse/internal/cli/formatter"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type chatReplyMsg string

// chatView is a multi-turn conversation with one of the house agents.
type chatView struct {
	persona string
	agt     *agent.Agent
	hint    string
	style   lipgloss.Style

	input    textinput.Model
	messages []string
	waiting  bool
}

func newChatView(persona string, agt *agent.Agent, hint string, color lipgloss.Color) *chatView {
	ti := textinput.New()
	ti.Focus()
	ti.Prompt = ""
	ti.CharLimit = 500

	v := &chatView{
		persona: persona,
		agt:     agt,
		hint:    hint,
		style:   lipgloss.NewStyle().Foreground(color),
		input:   ti,
	}
	if hint != "" {
		v.messages = append(v.messages, formatter.Dim(hint))
	}
	return v
}

func (v *chatView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *chatView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case chatReplyMsg:
		v.waiting = false
		v.messages = append(v.messages, v.style.Render(v.persona+": ")+string(msg))
		return v, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc || msg.Type == tea.KeyCtrlC {
			return v, tea.Quit
		}
		if msg.Type == tea.KeyEnter && !v.waiting {
			input := strings.TrimSpace(v.input.Value())
			v.input.Reset()
			if input == "" {
				return v, nil
			}
			v.messages = append(v.messages, formatter.Dim("You: ")+input)
			v.waiting = true
			return v, func() tea.Msg {
				return chatReplyMsg(v.agt.Turn(context.Background(), input))
			}
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *chatView) View() string {
	var b strings.Builder

	for _, msg := range v.messages {
		b.WriteString(msg)
		b.WriteString("\n")
	}

	if v.waiting {
		b.WriteString(formatter.Dim("...") + "\n")
	}
	prompt := v.style.Render(v.persona) + formatter.Dim("> ")
	b.WriteString(prompt)
	b.WriteString(v.input.View())
	b.WriteString("\n" + formatter.Dim("esc to leave"))

	return b.String()
}
