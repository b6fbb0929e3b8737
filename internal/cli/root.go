package cli

import (
	"github.com/calegray/manse/internal/agent"
	"github.com/calegray/manse/internal/catalogue"
	"github.com/calegray/manse/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to everything CLI commands need.
type App struct {
	Catalogue *catalogue.Catalogue
	Instances service.InstanceService
	Schedule  service.ScheduleService
	Engine    *service.SessionEngine

	// Agents are nil when the LLM is disabled; commands degrade to a
	// printed hint instead of a chat.
	Navigator  *agent.Agent
	Engineer   *agent.Agent
	Strategist *agent.Strategist
	Narrator   *agent.Narrator
	Music      *agent.MusicGenerator

	IsInteractive func() bool
}

// NewRootCmd creates the top-level "manse" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "manse",
		Short: "A house of rooms for your attention",
	}

	root.AddCommand(
		newRoomsCmd(app),
		newRoomCmd(app),
		newSessionCmd(app),
		newPlanCmd(app),
		newBlockCmd(app),
		newSeasonCmd(app),
		newChatCmd(app),
	)

	return root
}
