package logging

import (
	"log/slog"
	"os"
)

// SetupJSON sets slog's default logger to JSON output at the given level,
// tagged with the emitting component so the bot, migrator and jobs can share
// one log stream.
func SetupJSON(component string, level slog.Level) {
	logger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	).With("component", component)
	slog.SetDefault(logger)
}
