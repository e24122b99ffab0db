package envconfig

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// LogLevel reports the configured log verbosity.
// Configurable via INFERCORE_DEBUG.
// Values: 0/false = INFO (default), 1/true = DEBUG, 2 = TRACE.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("INFERCORE_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// Var returns an environment variable's value, trimmed of surrounding
// whitespace and a single layer of matching quotes.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
