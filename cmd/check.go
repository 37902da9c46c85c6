package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gridlockgame/gridlock/game"
	"github.com/gridlockgame/gridlock/persist"
)

func newCheckCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate the saved session without playing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			if cfg.Persistence.Path == "" {
				return errors.New("no persistence path configured")
			}

			store, err := persist.NewFileStore(cfg.Persistence.Path)
			if err != nil {
				return err
			}
			snapshot, err := store.LoadSnapshot()
			if err != nil {
				return errors.Wrap(err, "no saved session")
			}

			ordered := game.SortedByPosition(snapshot.Monsters)
			printMonsters(cmd, ordered)

			if game.IsDeadlocked(ordered) {
				fmt.Fprintln(cmd.OutOrStdout(), "Result: DEADLOCK, the order stalls")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Result: SAFE, every monster completes")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s with %v remaining\n",
				snapshot.SavedAt.Format("2006-01-02 15:04:05"), snapshot.RemainingTime)
			return nil
		},
	}
	return cmd
}
