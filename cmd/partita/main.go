package main

import (
	"os"

	"github.com/smallbiznis/partita/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
