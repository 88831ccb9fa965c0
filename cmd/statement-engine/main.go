package main

import (
	"os"

	"github.com/rmoura-dev/statement-engine/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
