package config

import (
	"strconv"

	"github.com/seedvr2/infercore/envconfig"
)

// ApplyEnvOverrides mutates cfg in place with any INFERCORE_* variable
// that is actually set in the environment, leaving every other field
// exactly as the YAML document (or Default) left it. Only leaf runtime
// scalars are overridable this way, matching the documented convention
// that env vars override quick per-invocation knobs, not the structured
// diffusion/VAE tree.
func ApplyEnvOverrides(cfg *Config) {
	if v := envconfig.Var("INFERCORE_PRESERVE_VRAM"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Runtime.PreserveVRAM = b
		}
	}
	if v := envconfig.Var("INFERCORE_TILED_VAE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Runtime.TiledVAE = b
		}
	}
	if v := envconfig.Var("INFERCORE_BLOCK_SWAP"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && !b {
			cfg.Runtime.BlockSwap.BlocksToSwap = 0
		}
	}
	if v := envconfig.Var("INFERCORE_TARGET_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runtime.TargetWidth = n
		}
	}
	if v := envconfig.Var("INFERCORE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runtime.BatchSize = n
		}
	}
	if v := envconfig.Var("INFERCORE_TEMPORAL_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runtime.TemporalOverlap = n
		}
	}
}
