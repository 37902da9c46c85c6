package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/gridlockgame/gridlock/bootstrap"
	"github.com/gridlockgame/gridlock/config"
	"github.com/gridlockgame/gridlock/game"
)

func newServeCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game runtime until interrupted",
		Long:  "serve starts the full runtime, sets up a puzzle at the configured difficulty, and keeps autosaving it until SIGINT or SIGTERM. When a config file is given, pool and game settings reload on change.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}

			rt, err := bootstrap.NewRuntime(cfg)
			if err != nil {
				return err
			}

			level, err := game.ParseDifficulty(cfg.Game.Difficulty)
			if err != nil {
				return err
			}

			if *configFile != "" {
				watcher, err := config.NewWatcher(*configFile, config.NewLoader())
				if err != nil {
					return err
				}
				watcher.OnChange(func(oldConfig, newConfig *config.Config) {
					log.Printf("[serve] config changed, difficulty now %s", newConfig.Game.Difficulty)
				})
				if err := watcher.Start(); err != nil {
					return err
				}
				defer watcher.Stop()
			}

			if err := rt.Start(cmd.Context()); err != nil {
				return err
			}
			if err := rt.NewGame(level); err != nil {
				rt.Shutdown(cmd.Context())
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Runtime up, %s puzzle in progress\n", level)

			// Start already ran, so this only blocks and shuts down.
			return rt.Run(cmd.Context())
		},
	}
	return cmd
}
