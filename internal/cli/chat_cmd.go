package cli

import (
	"fmt"

	"github.com/calegray/manse/internal/agent"
	"github.com/calegray/manse/internal/cli/formatter"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newChatCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <navigator|engineer|strategist>",
		Short: "Talk to one of the house agents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive != nil && !app.IsInteractive() {
				return fmt.Errorf("chat needs a terminal")
			}

			var (
				agt   *agent.Agent
				hint  string
				color lipgloss.Color
			)
			switch args[0] {
			case "navigator":
				agt, color = app.Navigator, formatter.ColorBlue
				hint = "The navigator knows every room and where your attention has been."
			case "engineer":
				agt, color = app.Engineer, formatter.ColorGreen
				hint = "The engineer builds rooms, stocks inventory and wires collisions."
			case "strategist":
				if app.Strategist != nil {
					agt = app.Strategist.Agent
				}
				color = formatter.ColorPurple
				hint = "The strategist plans sessions and proposes seasons. Apply one with: manse season apply"
			default:
				return fmt.Errorf("unknown agent %q (navigator, engineer or strategist)", args[0])
			}

			if agt == nil {
				fmt.Println(formatter.Dim("The house is quiet. Set MANSE_LLM_ENABLED=true and run Ollama to wake the agents."))
				return nil
			}

			p := tea.NewProgram(newChatView(args[0], agt, hint, color))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("chat view: %w", err)
			}
			return nil
		},
	}
	return cmd
}
