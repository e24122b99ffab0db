package envconfig

// Policy toggles and sizing knobs a host can flip without editing the
// YAML config, mirroring the values Config/Loop otherwise take as
// explicit struct fields.
var (
	// PreserveVRAM mirrors generate.Config.PreserveVRAM.
	PreserveVRAM = Bool("INFERCORE_PRESERVE_VRAM")

	// BlockSwapRequested mirrors generate.Config.UseBlockSwap.
	BlockSwapRequested = Bool("INFERCORE_BLOCK_SWAP")

	// TiledVAE mirrors generate.Config.TiledVAE.
	TiledVAE = Bool("INFERCORE_TILED_VAE")

	// TargetWidth mirrors generate.Config.TargetWidth.
	TargetWidth = Uint("INFERCORE_TARGET_WIDTH", 1024)

	// BatchSize mirrors generate.Config.BatchSize.
	BatchSize = Uint("INFERCORE_BATCH_SIZE", 81)

	// TemporalOverlap mirrors generate.Config.TemporalOverlap.
	TemporalOverlap = Uint("INFERCORE_TEMPORAL_OVERLAP", 0)
)

// GPUOverheadBytes reads a fixed VRAM overhead in bytes from
// INFERCORE_GPU_OVERHEAD. It is reported by AsMap only; gpumem's tier
// classification does not read it or subtract it from a device's VRAM.
var GPUOverheadBytes = Uint64("INFERCORE_GPU_OVERHEAD", 0)
