// Package envconfig provides the flat environment-variable override
// layer that sits on top of the nested YAML configuration: a handful of
// INFERCORE_* variables a host can set to override one field without
// touching the config file, plus an introspection surface (AsMap/Values)
// a CLI can print for a --help-env style listing.
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// BoolWithDefault returns a getter for a boolean environment variable,
// falling back to defaultValue when unset. An unparseable value is
// treated as true, matching the "presence implies enabled" convention
// used by the rest of this package's flags.
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool returns a getter for a boolean environment variable defaulting
// to false.
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// String returns a getter for a raw string environment variable.
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// Uint returns a getter for an unsigned integer environment variable,
// warning and falling back to defaultValue on a parse failure.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// Uint64 returns a getter for an unsigned 64-bit integer environment
// variable, warning and falling back to defaultValue on a parse
// failure.
func Uint64(key string, defaultValue uint64) func() uint64 {
	return func() uint64 {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return n
			}
		}
		return defaultValue
	}
}

// EnvVar pairs one environment variable's current value with a
// human-readable description, for AsMap's introspection surface.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every override this package recognizes, its current
// value, and a one-line description suitable for a --help-env listing.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"INFERCORE_DEBUG":            {"INFERCORE_DEBUG", LogLevel(), "Log verbosity: 0/false=info (default), 1/true=debug, 2=trace"},
		"INFERCORE_PRESERVE_VRAM":    {"INFERCORE_PRESERVE_VRAM", PreserveVRAM(), "Move DiT/VAE to CPU between stages and batches"},
		"INFERCORE_BLOCK_SWAP":       {"INFERCORE_BLOCK_SWAP", BlockSwapRequested(), "Page transformer blocks between GPU and CPU during sampling"},
		"INFERCORE_TILED_VAE":        {"INFERCORE_TILED_VAE", TiledVAE(), "Decode through spatial tiles instead of a single pass"},
		"INFERCORE_TARGET_WIDTH":     {"INFERCORE_TARGET_WIDTH", TargetWidth(), "Longer-side pixel width frames are upsampled to (default 1024)"},
		"INFERCORE_BATCH_SIZE":       {"INFERCORE_BATCH_SIZE", BatchSize(), "Frames per generation batch (default 81, 4n+1 recommended)"},
		"INFERCORE_TEMPORAL_OVERLAP": {"INFERCORE_TEMPORAL_OVERLAP", TemporalOverlap(), "Frames of overlap carried between consecutive batches"},
		"INFERCORE_GPU_OVERHEAD":     {"INFERCORE_GPU_OVERHEAD", GPUOverheadBytes(), "Bytes of VRAM overhead (reported only; not applied to tier classification)"},
	}
}

// Values returns AsMap's values rendered as strings, for simple
// key=value logging.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
