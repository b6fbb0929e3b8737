package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/calegray/manse/internal/cli/formatter"
	"github.com/calegray/manse/internal/repository"
	"github.com/spf13/cobra"
)

func newSeasonCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "season",
		Short: "Macro seasons ruled by one wing",
	}

	cmd.AddCommand(
		newSeasonStatusCmd(app),
		newSeasonListCmd(app),
		newSeasonApplyCmd(app),
		newSeasonDiscardCmd(app),
	)
	return cmd
}

func newSeasonStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active season",
		RunE: func(cmd *cobra.Command, args []string) error {
			season, err := app.Schedule.ActiveSeason(cmd.Context(), time.Now())
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					fmt.Println(formatter.Dim("No season is running. Talk to the strategist: manse chat strategist"))
					return nil
				}
				return err
			}

			var b strings.Builder
			fmt.Fprintf(&b, "%s\n", formatter.Bold(season.Name))
			fmt.Fprintf(&b, "Ruled by %s\n\n", season.PrimaryWing)
			fmt.Fprintf(&b, "%s → %s  (%d days)\n",
				season.StartDate.Format("Jan 2"), season.EndDate.Format("Jan 2 2006"),
				season.DurationDays())
			fmt.Fprintf(&b, "%s\n", formatter.RenderProgress(season.ProgressAt(time.Now()), 24))
			if len(season.FocusRooms) > 0 {
				fmt.Fprintf(&b, "\nFocus rooms: %s\n", strings.Join(season.FocusRooms, ", "))
			}
			if season.Notes != "" {
				fmt.Fprintf(&b, "\n%s\n", formatter.Dim(season.Notes))
			}
			fmt.Println(formatter.RenderBox("Season", b.String()))
			return nil
		},
	}
}

func newSeasonListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all seasons",
		RunE: func(cmd *cobra.Command, args []string) error {
			seasons, err := app.Schedule.ListSeasons(cmd.Context())
			if err != nil {
				return err
			}
			if len(seasons) == 0 {
				fmt.Println(formatter.Dim("No seasons yet."))
				return nil
			}

			now := time.Now()
			rows := make([][]string, 0, len(seasons))
			for _, s := range seasons {
				marker := ""
				if s.IsActiveAt(now) {
					marker = formatter.StyleGreen.Render("●")
				}
				rows = append(rows, []string{
					marker,
					s.Name,
					string(s.PrimaryWing),
					s.StartDate.Format("2006-01-02"),
					s.EndDate.Format("2006-01-02"),
				})
			}
			fmt.Println(formatter.Header("Seasons"))
			fmt.Println(formatter.RenderTable(
				[]string{"", "Name", "Wing", "From", "To"}, rows))
			return nil
		},
	}
}

func newSeasonApplyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply the season the strategist proposed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Strategist == nil {
				fmt.Println(formatter.Dim("The strategist is away. Set MANSE_LLM_ENABLED=true to bring them back."))
				return nil
			}
			pending := app.Strategist.PendingProposal()
			if pending == nil {
				fmt.Println(formatter.Dim("Nothing proposed. Talk to the strategist first: manse chat strategist"))
				return nil
			}

			result, err := app.Strategist.ApplyPending(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Season %q begins. %d blocks laid down", result.Season.Name, result.BlocksCreated)
			if result.BlocksFailed > 0 {
				fmt.Printf(", %d failed", result.BlocksFailed)
			}
			fmt.Println(".")
			return nil
		},
	}
}

func newSeasonDiscardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "discard",
		Short: "Drop the pending season proposal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Strategist == nil || app.Strategist.PendingProposal() == nil {
				fmt.Println(formatter.Dim("Nothing to discard."))
				return nil
			}
			app.Strategist.DiscardPending()
			fmt.Println("Discarded.")
			return nil
		},
	}
}
