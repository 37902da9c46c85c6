package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gridlockgame/gridlock/bootstrap"
	"github.com/gridlockgame/gridlock/game"
)

func newPlayCmd(configFile *string) *cobra.Command {
	var (
		difficulty string
		resume     bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Start a puzzle and run the safety check",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			if difficulty != "" {
				cfg.Game.Difficulty = difficulty
			}

			level, err := game.ParseDifficulty(cfg.Game.Difficulty)
			if err != nil {
				return err
			}

			rt, err := bootstrap.NewRuntime(cfg)
			if err != nil {
				return err
			}
			if err := rt.Start(cmd.Context()); err != nil {
				return err
			}
			defer rt.Shutdown(cmd.Context())

			if resume {
				if err := rt.ResumeGame(); err != nil {
					return errors.Wrap(err, "no resumable session")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Resumed %s puzzle\n", rt.Session().Difficulty())
			} else {
				if err := rt.NewGame(level); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "New %s puzzle\n", level)
			}

			printMonsters(cmd, rt.Session().Monsters())
			if rt.Session().IsDegraded() {
				fmt.Fprintln(cmd.OutOrStdout(), "(fallback arrangement in play)")
			}

			if err := rt.SaveGame(); err != nil {
				return errors.Wrap(err, "failed to save session")
			}

			safe, err := rt.RunSafetyCheck()
			if err != nil {
				return err
			}
			if safe {
				fmt.Fprintln(cmd.OutOrStdout(), "Result: SAFE, every monster completes")
				rt.Store().ClearSnapshot()
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Result: DEADLOCK, the order stalls")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "puzzle difficulty: easy, normal, hard")
	cmd.Flags().BoolVar(&resume, "resume", false, "resume the last saved session")

	return cmd
}

func printMonsters(cmd *cobra.Command, monsters []game.Monster) {
	for _, m := range game.SortedByPosition(monsters) {
		fmt.Fprintf(cmd.OutOrStdout(), "  slot %d: monster %d holds r%d, needs r%d\n",
			m.Position, m.ID, m.HeldResourceID, m.NeededResourceID)
	}
}
