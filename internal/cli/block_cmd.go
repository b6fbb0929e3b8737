package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/calegray/manse/internal/cli/formatter"
	"github.com/calegray/manse/internal/domain"
	"github.com/spf13/cobra"
)

var dayNames = [8]string{"", "Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func newBlockCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Weekly recurring blocks",
	}

	cmd.AddCommand(
		newBlockAddCmd(app),
		newBlockListCmd(app),
		newBlockDoneCmd(app),
		newBlockMissCmd(app),
		newBlockAdherenceCmd(app),
	)
	return cmd
}

func newBlockAddCmd(app *App) *cobra.Command {
	var (
		day     int
		hour    int
		minute  int
		minutes int
		intent  string
	)

	cmd := &cobra.Command{
		Use:   "add <room-or-instance>",
		Short: "Create a weekly recurring block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b := &domain.RecurringBlock{
				DayOfWeek:       day,
				StartHour:       hour,
				StartMinute:     minute,
				DurationMinutes: minutes,
				Intent:          intent,
				IsActive:        true,
			}

			if _, ok := app.Catalogue.ByID(args[0]); ok {
				b.DefinitionID = args[0]
			} else {
				id, err := resolveInstanceID(ctx, app, args[0])
				if err != nil {
					return err
				}
				instance, err := app.Instances.GetByID(ctx, id)
				if err != nil {
					return err
				}
				b.DefinitionID = instance.DefinitionID
				b.InstanceID = &instance.ID
				b.VariantName = instance.VariantName
			}

			if def, ok := app.Catalogue.ByID(b.DefinitionID); ok {
				b.RoomName = def.Name
			}

			if err := app.Schedule.CreateBlock(ctx, b); err != nil {
				return err
			}
			fmt.Printf("Every %s at %02d:%02d — %s (%d min)\n",
				dayNames[b.DayOfWeek], b.StartHour, b.StartMinute, b.RoomName, b.DurationMinutes)
			return nil
		},
	}

	cmd.Flags().IntVar(&day, "day", 0, "Day of week (1=Sun .. 7=Sat)")
	cmd.Flags().IntVar(&hour, "hour", 0, "Start hour (0-23)")
	cmd.Flags().IntVar(&minute, "minute", 0, "Start minute")
	cmd.Flags().IntVar(&minutes, "minutes", 30, "Duration in minutes")
	cmd.Flags().StringVar(&intent, "intent", "", "What the block is for")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("hour")
	return cmd
}

func newBlockListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recurring blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := app.Schedule.ListBlocks(cmd.Context(), !all)
			if err != nil {
				return err
			}
			if len(blocks) == 0 {
				fmt.Println(formatter.Dim("No recurring blocks."))
				return nil
			}

			rows := make([][]string, 0, len(blocks))
			for _, b := range blocks {
				name := b.RoomName
				if b.VariantName != "" {
					name = fmt.Sprintf("%s (%s)", b.VariantName, b.RoomName)
				}
				rate := fmt.Sprintf("%.0f%%", b.AdherenceRate()*100)
				if b.IsStruggling() {
					rate = formatter.StyleRed.Render(rate + " !")
				}
				rows = append(rows, []string{
					b.ID[:8],
					fmt.Sprintf("%s %02d:%02d", dayNames[b.DayOfWeek], b.StartHour, b.StartMinute),
					name,
					fmt.Sprintf("%d min", b.DurationMinutes),
					rate,
					formatter.Truncate(b.Intent, 30),
				})
			}
			fmt.Println(formatter.Header("Weekly Blocks"))
			fmt.Println(formatter.RenderTable(
				[]string{"ID", "When", "Room", "Length", "Kept", "Intent"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include inactive blocks")
	return cmd
}

func newBlockDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <block-id>",
		Short: "Record that a block happened this week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveBlockID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Schedule.CompleteBlock(ctx, id); err != nil {
				return err
			}
			fmt.Println("Kept.")
			return nil
		},
	}
}

func newBlockMissCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "miss <block-id>",
		Short: "Record that a block was skipped this week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveBlockID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Schedule.MissBlock(ctx, id); err != nil {
				return err
			}
			fmt.Println("Missed. The room remembers.")
			return nil
		},
	}
}

func newBlockAdherenceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "adherence",
		Short: "Adherence rolled up by wing",
		RunE: func(cmd *cobra.Command, args []string) error {
			wings, err := app.Schedule.WingAdherence(cmd.Context())
			if err != nil {
				return err
			}
			if len(wings) == 0 {
				fmt.Println(formatter.Dim("No recurring blocks to measure."))
				return nil
			}

			rows := make([][]string, 0, len(wings))
			for _, w := range wings {
				rows = append(rows, []string{
					string(w.Wing),
					fmt.Sprintf("%d", w.BlockCount),
					fmt.Sprintf("%d", w.CompletedCount),
					fmt.Sprintf("%d", w.MissedCount),
					formatter.RenderProgress(w.AdherenceRate, 16),
				})
			}
			fmt.Println(formatter.Header("Adherence by Wing"))
			fmt.Println(formatter.RenderTable(
				[]string{"Wing", "Blocks", "Kept", "Missed", "Rate"}, rows))

			for _, w := range wings {
				for _, b := range w.Struggling {
					fmt.Println(formatter.StyleYellow.Render(
						fmt.Sprintf("  struggling: %s %02d:%02d %s (%.0f%%)",
							dayNames[b.DayOfWeek], b.StartHour, b.StartMinute,
							b.RoomName, b.AdherenceRate()*100)))
				}
			}
			return nil
		},
	}
}

func resolveBlockID(ctx context.Context, app *App, input string) (string, error) {
	blocks, err := app.Schedule.ListBlocks(ctx, false)
	if err != nil {
		return "", err
	}
	var match string
	for _, b := range blocks {
		if b.ID == input {
			return b.ID, nil
		}
		if strings.HasPrefix(b.ID, input) {
			if match != "" {
				return "", fmt.Errorf("ambiguous block id %q", input)
			}
			match = b.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no block matching %q", input)
	}
	return match, nil
}
