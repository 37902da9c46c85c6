package main

import (
	"os"

	"github.com/gridlockgame/gridlock/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
