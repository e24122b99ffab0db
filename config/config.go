// Package config loads the nested diffusion/vae/runtime configuration
// tree from a YAML document, then layers the flat envconfig overrides
// on top of whatever the document specified, matching the two-layer
// split documented for this core: a structured document for the shape
// of a run, flat env vars for quick per-invocation overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface enumerated for this core:
// guidance, sampler horizon, VAE codec/shape/lifecycle settings, and
// the runtime flags a generation call is driven with.
type Config struct {
	Diffusion DiffusionConfig `yaml:"diffusion"`
	VAE       VAEConfig       `yaml:"vae"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
}

// DiffusionConfig bundles guidance and timestep-schedule settings.
type DiffusionConfig struct {
	CFG       CFGConfig       `yaml:"cfg"`
	Timesteps TimestepsConfig `yaml:"timesteps"`
}

// CFGConfig holds classifier-free guidance's three scalars.
type CFGConfig struct {
	Scale   float64 `yaml:"scale"`
	Rescale float64 `yaml:"rescale"`
	Partial float64 `yaml:"partial"`
}

// TimestepsConfig controls the sampler horizon and the resolution-aware
// shift transform.
type TimestepsConfig struct {
	Sampling  SamplingConfig `yaml:"sampling"`
	Transform bool           `yaml:"transform"`
}

// SamplingConfig holds the sampler step count.
type SamplingConfig struct {
	Steps int `yaml:"steps"`
}

// VAEConfig holds the temporal VAE's codec, shape, and lifecycle
// settings.
type VAEConfig struct {
	DType          string         `yaml:"dtype"`
	ScalingFactor  float64        `yaml:"scaling_factor"`
	ShiftingFactor float64        `yaml:"shifting_factor"`
	Grouping       int            `yaml:"grouping"`
	UseSample      bool           `yaml:"use_sample"`
	Model          VAEModelConfig `yaml:"model"`
	Checkpoint     string         `yaml:"checkpoint"`
	Slicing        bool           `yaml:"slicing"`
	MemoryLimit    uint64         `yaml:"memory_limit"`
}

// VAEModelConfig carries the downsample factors needed to reason about
// latent-space shapes.
type VAEModelConfig struct {
	TemporalDownsampleFactor int `yaml:"temporal_downsample_factor"`
	SpatialDownsampleFactor  int `yaml:"spatial_downsample_factor"`
}

// BlockSwapConfig configures how many trailing transformer blocks page
// between GPU and CPU during sampling.
type BlockSwapConfig struct {
	BlocksToSwap int `yaml:"blocks_to_swap"`
}

// TileSizeConfig is shared by tile_size and tile_stride, both expressed
// in latent-space samples.
type TileSizeConfig struct {
	H int `yaml:"h"`
	W int `yaml:"w"`
}

// RuntimeConfig holds the per-invocation flags generate.Config is built
// from.
type RuntimeConfig struct {
	Seed            int64           `yaml:"seed"`
	TargetWidth     int             `yaml:"target_width"`
	BatchSize       int             `yaml:"batch_size"`
	TemporalOverlap int             `yaml:"temporal_overlap"`
	PreserveVRAM    bool            `yaml:"preserve_vram"`
	TiledVAE        bool            `yaml:"tiled_vae"`
	TileSize        TileSizeConfig  `yaml:"tile_size"`
	TileStride      TileSizeConfig  `yaml:"tile_stride"`
	BlockSwap       BlockSwapConfig `yaml:"block_swap_config"`
}

// Default returns the baseline configuration a generation call starts
// from before a YAML document or env override is applied.
func Default() Config {
	return Config{
		Diffusion: DiffusionConfig{
			CFG:       CFGConfig{Scale: 7.5, Rescale: 0.0, Partial: 1.0},
			Timesteps: TimestepsConfig{Sampling: SamplingConfig{Steps: 50}, Transform: true},
		},
		VAE: VAEConfig{
			DType:          "bf16",
			ScalingFactor:  1.0,
			ShiftingFactor: 0.0,
			Grouping:       1,
			UseSample:      false,
			Model:          VAEModelConfig{TemporalDownsampleFactor: 4, SpatialDownsampleFactor: 8},
			Slicing:        true,
		},
		Runtime: RuntimeConfig{
			TargetWidth:     1024,
			BatchSize:       81,
			TemporalOverlap: 0,
			TileSize:        TileSizeConfig{H: 32, W: 32},
			TileStride:      TileSizeConfig{H: 16, W: 16},
		},
	}
}

// Load reads and decodes a YAML document at path, overlaying it onto
// Default() so a document only needs to specify the keys it wants to
// change.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
