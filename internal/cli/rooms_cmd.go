package cli

import (
	"fmt"
	"strings"

	"github.com/calegray/manse/internal/cli/formatter"
	"github.com/spf13/cobra"
)

// newRoomsCmd browses the fixed catalogue: six wings, seventy-two rooms.
func newRoomsCmd(app *App) *cobra.Command {
	var wingFilter string

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Browse the room catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, wing := range app.Catalogue.Wings() {
				if wingFilter != "" && !strings.Contains(strings.ToLower(string(wing.Name)), strings.ToLower(wingFilter)) {
					continue
				}
				fmt.Println(formatter.Header(string(wing.Name)))
				rows := make([][]string, 0, len(wing.Rooms))
				for _, room := range wing.Rooms {
					rows = append(rows, []string{
						room.ID,
						room.Name,
						room.PhysicsHint,
						formatter.Truncate(room.Function, 48),
					})
				}
				fmt.Println(formatter.RenderTable(
					[]string{"#", "Room", "Physics", "Function"}, rows))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&wingFilter, "wing", "", "Show a single wing (substring match)")
	return cmd
}
