package main

import (
	"os"

	"github.com/Lirbo/trivia-game/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
