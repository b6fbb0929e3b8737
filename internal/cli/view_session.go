package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calegray/manse/internal/cli/formatter"
	"github.com/calegray/manse/internal/service"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type sessionTickMsg time.Time

type sessionErrMsg struct{ err error }

// sessionView walks a visit through its phases: entry text, live timer,
// observations, exit text. Narrative text swaps in on the next tick when
// the generator finishes after the phase is already showing.
type sessionView struct {
	app    *App
	engine *service.SessionEngine

	input        textinput.Model
	observations []string
	paused       bool
	collecting   bool
	err          error
	done         bool
}

func newSessionView(app *App) *sessionView {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "what did you notice? (blank to finish)"
	ti.CharLimit = 300

	return &sessionView{app: app, engine: app.Engine, input: ti}
}

func sessionTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return sessionTickMsg(t)
	})
}

func (v *sessionView) Init() tea.Cmd {
	return sessionTick()
}

func (v *sessionView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionTickMsg:
		return v, sessionTick()

	case sessionErrMsg:
		v.err = msg.err
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	if v.collecting {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *sessionView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := v.engine.State()

	if msg.Type == tea.KeyCtrlC {
		return v, tea.Quit
	}

	switch state.Phase {
	case service.PhaseShowingEntry:
		if msg.Type == tea.KeyEnter {
			if err := v.engine.EnterRoom(); err != nil {
				v.err = err
			}
		}
		return v, nil

	case service.PhaseActive:
		if v.collecting {
			return v.handleObservationKey(msg)
		}
		switch msg.String() {
		case "p":
			v.togglePause()
		case "e", "q":
			v.collecting = true
			v.input.Focus()
			return v, textinput.Blink
		}
		return v, nil

	case service.PhaseShowingExit:
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc {
			if err := v.engine.Finalize(); err != nil {
				v.err = err
				return v, nil
			}
			v.done = true
			return v, tea.Quit
		}
		return v, nil
	}

	return v, nil
}

func (v *sessionView) handleObservationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		v.collecting = false
		v.input.Reset()
		return v, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(v.input.Value())
		v.input.Reset()
		if text != "" {
			v.observations = append(v.observations, text)
			return v, nil
		}
		// Blank entry closes the visit.
		v.collecting = false
		return v, func() tea.Msg {
			if _, err := v.engine.Complete(context.Background(), v.observations); err != nil {
				return sessionErrMsg{err: err}
			}
			return sessionTickMsg(time.Now())
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *sessionView) togglePause() {
	var err error
	if v.paused {
		err = v.engine.Resume()
	} else {
		err = v.engine.Pause()
	}
	if err == nil {
		v.paused = !v.paused
	}
}

func (v *sessionView) View() string {
	state := v.engine.State()
	var b strings.Builder

	roomLine := ""
	if state.Session != nil {
		roomLine = fmt.Sprintf("%s — %s", state.Session.RoomName, state.Session.VariantName)
	}

	switch state.Phase {
	case service.PhaseInitializing:
		b.WriteString(formatter.Dim("Crossing the threshold...\n"))

	case service.PhaseShowingEntry:
		b.WriteString(formatter.RenderBox(roomLine, state.EntryText))
		b.WriteString("\n" + formatter.Dim("enter to begin") + "\n")

	case service.PhaseActive:
		timer := formatter.Elapsed(state.Elapsed)
		if v.paused {
			timer += formatter.StyleYellow.Render("  ⏸ paused")
		}
		b.WriteString(formatter.Header(roomLine) + "\n")
		b.WriteString(formatter.StyleBold.Render(timer) + "\n")
		if v.collecting {
			b.WriteString("\n")
			for _, o := range v.observations {
				b.WriteString(formatter.StyleGreen.Render("· ") + o + "\n")
			}
			b.WriteString(formatter.Dim("observe> ") + v.input.View() + "\n")
		} else {
			b.WriteString("\n" + formatter.Dim("p pause · e end") + "\n")
		}

	case service.PhaseGeneratingExit:
		b.WriteString(formatter.Dim("Closing the door...\n"))

	case service.PhaseShowingExit:
		b.WriteString(formatter.RenderBox(roomLine, state.ExitText))
		if state.Instance != nil {
			b.WriteString(fmt.Sprintf("\n%s mastery · %.0f%% familiar\n",
				formatter.MasteryBadge(state.Instance.TotalMinutes),
				state.Instance.FamiliarityScore*100))
		}
		b.WriteString(formatter.Dim("enter to leave") + "\n")

	default:
		b.WriteString(formatter.Dim("No session.\n"))
	}

	if v.err != nil {
		b.WriteString(formatter.StyleRed.Render("error: "+v.err.Error()) + "\n")
	}
	return b.String()
}
