package main

import (
	"log/slog"
	"os"

	"github.com/chembank/chembank/cmd/chembank/commands"
)

func main() {
	// Logs go to stderr so command output on stdout stays clean.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: commands.LogLevel,
	}))
	slog.SetDefault(logger)

	commands.Execute()
}
