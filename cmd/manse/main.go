package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/calegray/manse/internal/agent"
	"github.com/calegray/manse/internal/catalogue"
	"github.com/calegray/manse/internal/cli"
	"github.com/calegray/manse/internal/db"
	"github.com/calegray/manse/internal/llm"
	"github.com/calegray/manse/internal/repository"
	"github.com/calegray/manse/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// transcripts resets every agent conversation when a session finalizes.
type transcripts []service.TranscriptResetter

func (ts transcripts) Reset() {
	for _, t := range ts {
		t.Reset()
	}
}

func run() error {
	// Determine DB path: env var or default ~/.manse/manse.db
	dbPath := os.Getenv("MANSE_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".manse", "manse.db")
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	cat, err := catalogue.Load()
	if err != nil {
		return fmt.Errorf("loading catalogue: %w", err)
	}

	// Wire repositories
	instanceRepo := repository.NewSQLiteInstanceRepo(database)
	sessionRepo := repository.NewSQLiteSessionRepo(database)
	plannedRepo := repository.NewSQLitePlannedSessionRepo(database)
	blockRepo := repository.NewSQLiteRecurringBlockRepo(database)
	seasonRepo := repository.NewSQLiteSeasonRepo(database)

	// Wire unit of work for transactional operations
	uow := db.NewSQLiteUnitOfWork(database)

	var useCaseObserver service.UseCaseObserver = service.NoopUseCaseObserver{}
	if os.Getenv("MANSE_LOG_USECASES") == "true" {
		useCaseObserver = service.NewLogUseCaseObserver(os.Stderr)
	}

	instanceSvc := service.NewInstanceService(instanceRepo, cat, useCaseObserver)
	scheduleSvc := service.NewScheduleService(plannedRepo, blockRepo, seasonRepo, cat, useCaseObserver)

	app := &cli.App{
		Catalogue: cat,
		Instances: instanceSvc,
		Schedule:  scheduleSvc,
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	// Wire the agents and narrative generation (only when LLM is enabled)
	var narrator service.NarrativeGenerator
	llmCfg := llm.LoadConfig()
	if llmCfg.Enabled {
		var observer llm.Observer = llm.NoopObserver{}
		if llmCfg.LogCalls {
			observer = llm.NewLogObserver(os.Stderr)
		}
		llmClient := llm.NewOllamaClient(llmCfg, observer)
		contextB := agent.NewContextBuilder(cat, instanceRepo, plannedRepo)

		app.Navigator = agent.NewNavigator(llmClient, contextB)
		app.Engineer = agent.NewEngineer(llmClient, contextB, instanceSvc)
		app.Strategist = agent.NewStrategist(llmClient, contextB, scheduleSvc)
		houseNarrator := agent.NewNarrator(llmClient, cat)
		app.Narrator = houseNarrator
		app.Music = agent.NewMusicGenerator(llmClient)
		narrator = houseNarrator
	}

	engine := service.NewSessionEngine(instanceRepo, sessionRepo, uow, cat, narrator, useCaseObserver)
	if llmCfg.Enabled {
		engine.AttachTranscript(transcripts{
			app.Navigator.Transcript(),
			app.Engineer.Transcript(),
			app.Strategist.Transcript(),
		})
	}
	app.Engine = engine

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}
