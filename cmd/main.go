// FilePath: cmd/main.go
package main

import (
	"context"
	"fmt"
	"os"

	tm "github.com/buger/goterm"
	"github.com/itsatony/talkingplants/internal/config"
	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		nuts.L.Errorf("[Main] %v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "talkingplants",
		Short:         "Backend for talking plant pots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// a missing .env is fine; the environment may be set already
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to load .env: %w", err)
			}
			nuts.InitVersion()
			return nil
		},
	}
	serve := newServeCommand()
	// serve is also what the bare binary does
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newMigrateCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var noBanner bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !noBanner {
				ClearConsole()
				DrawLogo()
			}
			nuts.L.Infof("[Main] Starting Talking Plants Server v%s", nuts.GetVersion())

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return server.New(cfg).Start()
		},
	}
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "skip the console banner")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return database.Migrate(context.Background(), db)
		},
	}
}

// ClearConsole clears the console screen.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"  _____     _ _    _             ___ _          _      ",
		" |_   _|_ _| | |__(_)_ _  __ _  | _ \\ |__ _ _ _| |_ ___",
		"   | |/ _` | | / /| | ' \\/ _` | |  _/ / _` | ' \\  _(_-<",
		"   |_|\\__,_|_|_\\_\\|_|_||_\\__, | |_| |_\\__,_|_||_\\__/__/",
		"                         |___/                         ",
		"........................................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
