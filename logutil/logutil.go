// Package logutil provides the small slog setup helpers used across
// this module: a configurable level (generate.Loop, the example CLI)
// and a trace-below-debug verbosity for the noisiest paths (per-tile
// decode progress in vae.Decode, per-step sampler diagnostics in
// diffusion.Engine.Inference).
package logutil

import (
	"context"
	"log/slog"
	"os"
)

// LevelTrace sits one notch below slog.LevelDebug, for diagnostics too
// noisy to enable even under normal debug logging (e.g. per-tile decode
// accumulation, per-block swap residency moves).
const LevelTrace = slog.LevelDebug - 4

// NewLogger returns a text-handler slog.Logger at the given level,
// writing to stderr, matching the convention used across this module's
// example CLI and tests.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Trace logs at LevelTrace against the default logger.
func Trace(msg string, args ...any) {
	slog.Default().Log(context.Background(), LevelTrace, msg, args...)
}
