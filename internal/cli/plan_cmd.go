package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calegray/manse/internal/cli/formatter"
	"github.com/calegray/manse/internal/domain"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "One-off planned sessions",
	}

	cmd.AddCommand(
		newPlanAddCmd(app),
		newPlanListCmd(app),
		newPlanDoneCmd(app),
	)
	return cmd
}

func newPlanAddCmd(app *App) *cobra.Command {
	var (
		date    string
		minutes int
		notes   string
	)

	cmd := &cobra.Command{
		Use:   "add <room-or-instance>",
		Short: "Plan a session for a specific date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			when, err := time.Parse("2006-01-02", date)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}

			p := &domain.PlannedSession{
				ScheduledDate:   when,
				DurationMinutes: minutes,
				Notes:           notes,
			}

			// An instance reference pins the plan to a specific variant;
			// a bare catalogue number plans against the definition.
			if _, ok := app.Catalogue.ByID(args[0]); ok {
				p.DefinitionID = args[0]
			} else {
				id, err := resolveInstanceID(ctx, app, args[0])
				if err != nil {
					return err
				}
				instance, err := app.Instances.GetByID(ctx, id)
				if err != nil {
					return err
				}
				p.DefinitionID = instance.DefinitionID
				p.InstanceID = &instance.ID
				p.VariantName = instance.VariantName
			}

			if def, ok := app.Catalogue.ByID(p.DefinitionID); ok {
				p.RoomName = def.Name
			}

			if err := app.Schedule.PlanSession(ctx, p); err != nil {
				return err
			}
			fmt.Printf("Planned %s for %s (%d min)\n",
				p.RoomName, when.Format("Mon Jan 2"), p.DurationMinutes)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&minutes, "minutes", 30, "Planned duration in minutes")
	cmd.Flags().StringVar(&notes, "notes", "", "Intent for the visit")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newPlanListCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show upcoming planned sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := app.Schedule.ListUpcoming(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(plans) == 0 {
				fmt.Println(formatter.Dim("Nothing planned."))
				return nil
			}

			rows := make([][]string, 0, len(plans))
			for _, p := range plans {
				name := p.RoomName
				if p.VariantName != "" {
					name = fmt.Sprintf("%s (%s)", p.VariantName, p.RoomName)
				}
				rows = append(rows, []string{
					p.ID[:8],
					formatter.RelativeDate(p.ScheduledDate),
					name,
					fmt.Sprintf("%d min", p.DurationMinutes),
					formatter.Truncate(p.Notes, 36),
				})
			}
			fmt.Println(formatter.Header("Upcoming"))
			fmt.Println(formatter.RenderTable(
				[]string{"ID", "When", "Room", "Length", "Notes"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum plans to show")
	return cmd
}

func newPlanDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <plan-id>",
		Short: "Mark a planned session completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolvePlanID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Schedule.CompletePlanned(ctx, id); err != nil {
				return err
			}
			fmt.Println("Done.")
			return nil
		},
	}
}

// resolvePlanID accepts a full plan id or an unambiguous prefix.
func resolvePlanID(ctx context.Context, app *App, input string) (string, error) {
	plans, err := app.Schedule.ListUpcoming(ctx, 0)
	if err != nil {
		return "", err
	}
	var match string
	for _, p := range plans {
		if p.ID == input {
			return p.ID, nil
		}
		if strings.HasPrefix(p.ID, input) {
			if match != "" {
				return "", fmt.Errorf("ambiguous plan id %q", input)
			}
			match = p.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no planned session matching %q", input)
	}
	return match, nil
}
