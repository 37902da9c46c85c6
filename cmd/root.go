// Package cmd implements the gridlock command line interface.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gridlockgame/gridlock/config"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "gridlock",
		Short:         "Deadlock puzzle game runtime",
		Long:          "gridlock runs resource-dependency puzzles: arrange the monsters' execution order so every one can finish without deadlocking, then let the safety check judge your arrangement.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file path")

	rootCmd.AddCommand(
		newVersionCmd(),
		newPlayCmd(&configFile),
		newCheckCmd(&configFile),
		newServeCmd(&configFile),
	)

	return rootCmd
}

// loadConfig resolves the effective configuration. A .env file in the
// working directory is applied first so its variables participate in
// the loader's environment overrides.
func loadConfig(configFile string) (*config.Config, error) {
	godotenv.Load()

	loader := config.NewLoader()
	if configFile != "" {
		return loader.LoadFromFile(configFile)
	}
	return loader.AutoLoad()
}
