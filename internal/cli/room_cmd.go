package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/calegray/manse/internal/cli/formatter"
	"github.com/calegray/manse/internal/domain"
	"github.com/spf13/cobra"
)

// resolveInstanceID accepts a full instance id, an id prefix, or a variant
// name (case-insensitive).
func resolveInstanceID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("instance is required")
	}

	instances, err := app.Instances.List(ctx, 0)
	if err != nil {
		return "", err
	}

	for _, i := range instances {
		if i.ID == input || strings.EqualFold(i.VariantName, input) {
			return i.ID, nil
		}
	}

	var matches []string
	for _, i := range instances {
		if strings.HasPrefix(i.ID, input) {
			matches = append(matches, i.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no room instance matches %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q is ambiguous (%d matches)", input, len(matches))
	}
}

func newRoomCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Manage your room instances",
	}

	cmd.AddCommand(
		newRoomAddCmd(app),
		newRoomListCmd(app),
		newRoomInspectCmd(app),
		newRoomActivateCmd(app),
		newRoomObserveCmd(app),
		newRoomRemoveCmd(app),
		newRoomAlbumCmd(app),
		newRoomTrackCmd(app),
		newRoomGuideCmd(app),
	)

	return cmd
}

func newRoomAddCmd(app *App) *cobra.Command {
	var definitionID, variantName, why string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Build a new room instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive := app.IsInteractive != nil && app.IsInteractive()
			if definitionID == "" && interactive {
				var err error
				definitionID, variantName, why, err = runRoomAddForm(app)
				if err != nil {
					return err
				}
			}

			instance := &domain.RoomInstance{
				DefinitionID: definitionID,
				VariantName:  variantName,
				EvocativeWhy: why,
				HealthScore:  1.0,
			}
			if err := app.Instances.Create(cmd.Context(), instance); err != nil {
				return err
			}

			name := definitionID
			if def, ok := app.Catalogue.ByID(definitionID); ok {
				name = def.Name
			}
			fmt.Printf("Built %q on %s (%s)\n", variantName, name, instance.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&definitionID, "room", "", "Catalogue room number (e.g. 013)")
	cmd.Flags().StringVar(&variantName, "name", "", "Your name for this room")
	cmd.Flags().StringVar(&why, "why", "", "Why this room exists in your life")
	return cmd
}

func newRoomListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your room instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			instances, err := app.Instances.List(cmd.Context(), 0)
			if err != nil {
				return err
			}
			if len(instances) == 0 {
				fmt.Println(formatter.Dim("No rooms yet. Try: manse room add"))
				return nil
			}

			rows := make([][]string, 0, len(instances))
			for _, i := range instances {
				name := i.DefinitionID
				if def, ok := app.Catalogue.ByID(i.DefinitionID); ok {
					name = def.Name
				}
				active := ""
				if i.IsActive {
					active = formatter.StyleGreen.Render("●")
				}
				health := i.ComputedHealth()
				rows = append(rows, []string{
					active,
					i.VariantName,
					formatter.Dim(name),
					formatter.MasteryBadge(i.TotalMinutes),
					formatter.HealthStyle(health).Render(fmt.Sprintf("%.2f", health)),
					formatter.RenderProgress(i.FamiliarityScore, 10),
					formatter.FrictionIndicator(i.CurrentFriction),
				})
			}
			fmt.Println(formatter.RenderTable(
				[]string{"", "Room", "Archetype", "Mastery", "Health", "Familiarity", "Friction"}, rows))
			return nil
		},
	}
}

func newRoomInspectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <instance>",
		Short: "Show one room instance in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveInstanceID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			i, err := app.Instances.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			var b strings.Builder
			name := i.DefinitionID
			if def, ok := app.Catalogue.ByID(i.DefinitionID); ok {
				name = fmt.Sprintf("%s (%s)", def.Name, def.ID)
				fmt.Fprintf(&b, "%s\n", formatter.Dim(def.Function))
			}
			fmt.Fprintf(&b, "Archetype:   %s\n", name)
			fmt.Fprintf(&b, "Mastery:     %s  %d minutes total\n", formatter.MasteryBadge(i.TotalMinutes), i.TotalMinutes)
			fmt.Fprintf(&b, "Health:      %s (stored %.2f)\n",
				formatter.HealthStyle(i.ComputedHealth()).Render(fmt.Sprintf("%.2f", i.ComputedHealth())), i.HealthScore)
			fmt.Fprintf(&b, "Familiarity: %s\n", formatter.RenderProgress(i.FamiliarityScore, 16))
			fmt.Fprintf(&b, "Friction:    %s\n", formatter.FrictionIndicator(i.CurrentFriction))
			if i.LastVisited != nil {
				fmt.Fprintf(&b, "Last visit:  %s\n", formatter.RelativeDate(*i.LastVisited))
			}
			if i.EvocativeWhy != "" {
				fmt.Fprintf(&b, "\n%s\n", i.EvocativeWhy)
			}
			if len(i.Constraints) > 0 {
				b.WriteString("\nConstraints:\n")
				for _, c := range i.Constraints {
					fmt.Fprintf(&b, "  - %s\n", c)
				}
			}
			if len(i.Inventory) > 0 {
				b.WriteString("\nInventory:\n")
				for _, item := range i.Inventory {
					marker := formatter.StyleGreen.Render("✓")
					if item.Status != domain.ItemOperational {
						marker = formatter.StyleRed.Render("✗")
					}
					critical := ""
					if item.IsCritical {
						critical = formatter.Dim(" (critical)")
					}
					fmt.Fprintf(&b, "  %s %s [%s]%s\n", marker, item.Name, item.Status, critical)
				}
			}
			if lit := i.Liturgy; lit != nil {
				b.WriteString("\nLiturgy:\n")
				fmt.Fprintf(&b, "  entry: %s\n", lit.Entry)
				for n, step := range lit.Steps {
					fmt.Fprintf(&b, "  %d. %s\n", n+1, step)
				}
				fmt.Fprintf(&b, "  exit:  %s\n", lit.Exit)
			}
			if len(i.Playlist) > 0 {
				title := "Playlist"
				if i.Music != nil && i.Music.AlbumTitle != "" {
					title = "Playlist: " + i.Music.AlbumTitle
				}
				if i.IsPlaylistExpired(time.Now().UTC()) {
					title += formatter.Dim(" (stale, regenerate with: manse room album)")
				}
				fmt.Fprintf(&b, "\n%s\n", title)
				for _, t := range i.Playlist {
					fmt.Fprintf(&b, "  %d. %s\n", t.TrackNumber, t.Title)
				}
			}

			fmt.Println(formatter.RenderBox(i.VariantName, strings.TrimRight(b.String(), "\n")))
			return nil
		},
	}
}

func newRoomActivateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <instance>",
		Short: "Make a room the single active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveInstanceID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			if err := app.Instances.Activate(cmd.Context(), id); err != nil {
				return err
			}
			i, err := app.Instances.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("%q is now active.\n", i.VariantName)
			return nil
		},
	}
}

func newRoomObserveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "observe <instance> <note>",
		Short: "Append an observation to a room",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveInstanceID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			note := strings.Join(args[1:], " ")
			if err := app.Instances.AddObservation(cmd.Context(), id, note); err != nil {
				return err
			}
			fmt.Println("Noted.")
			return nil
		},
	}
}

func newRoomRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <instance>",
		Short: "Tear down a room instance (session history is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveInstanceID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			if err := app.Instances.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Println("Removed. Past sessions remain on the record.")
			return nil
		},
	}
}

func newRoomAlbumCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "album <instance>",
		Short: "Generate (or refresh) the room's album concept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Music == nil {
				return fmt.Errorf("music generation needs the LLM: set MANSE_LLM_ENABLED=true")
			}
			id, err := resolveInstanceID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			i, err := app.Instances.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			if len(i.Playlist) > 0 && !i.IsPlaylistExpired(time.Now().UTC()) && !force {
				fmt.Println(formatter.Dim("Playlist is still fresh; use --force to regenerate."))
				return nil
			}

			if err := app.Music.GenerateAlbumConcept(cmd.Context(), i); err != nil {
				return err
			}
			if err := app.Instances.Update(cmd.Context(), i); err != nil {
				return err
			}

			fmt.Println(formatter.Header(i.Music.AlbumTitle))
			fmt.Println(i.Music.AlbumConcept)
			for _, t := range i.Playlist {
				fmt.Printf("  %d. %s %s\n", t.TrackNumber, t.Title, formatter.Dim(t.NarrativePhase))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Regenerate even if the playlist is fresh")
	return cmd
}

func newRoomTrackCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "track <instance> <number>",
		Short: "Print the generation prompt for one track",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Music == nil {
				return fmt.Errorf("music generation needs the LLM: set MANSE_LLM_ENABLED=true")
			}
			id, err := resolveInstanceID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("track number must be an integer: %q", args[1])
			}
			i, err := app.Instances.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Println(app.Music.TrackPrompt(i, n))
			return nil
		},
	}
}

func newRoomGuideCmd(app *App) *cobra.Command {
	var imagePath string

	cmd := &cobra.Command{
		Use:   "guide <instance> <question>",
		Short: "Ask the room's guide a question, optionally about a photo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Narrator == nil {
				return fmt.Errorf("guidance needs the LLM: set MANSE_LLM_ENABLED=true")
			}
			id, err := resolveInstanceID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			i, err := app.Instances.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			var imageB64 string
			if imagePath != "" {
				raw, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("reading image: %w", err)
				}
				imageB64 = base64.StdEncoding.EncodeToString(raw)
			}

			answer, err := app.Narrator.Guidance(cmd.Context(), i, args[1], imageB64)
			if err != nil {
				return err
			}
			fmt.Println(formatter.RenderBox(i.VariantName, answer))
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "Path to a photo of the physical space")
	return cmd
}
