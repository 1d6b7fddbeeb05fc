package main

import (
	"os"

	"github.com/wonny/dqbreaks/cmd/dqbreaks/commands"
)

// main is the entry point for the dqbreaks CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/dqbreaks [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
