package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Live room visits",
	}

	cmd.AddCommand(newSessionStartCmd(app))
	return cmd
}

func newSessionStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start <instance>",
		Short: "Begin a visit to one of your rooms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if app.IsInteractive != nil && !app.IsInteractive() {
				return fmt.Errorf("sessions need a terminal")
			}

			id, err := resolveInstanceID(ctx, app, args[0])
			if err != nil {
				return err
			}

			if _, err := app.Engine.Start(ctx, id); err != nil {
				return err
			}

			p := tea.NewProgram(newSessionView(app))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("session view: %w", err)
			}
			return nil
		},
	}
}
