// run.go - the `vsrcore run` command: drives generate.Loop end to end
// against the example collaborators in mocks.go.
package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	vsrconfig "github.com/seedvr2/infercore/config"
	"github.com/seedvr2/infercore/diffusion"
	"github.com/seedvr2/infercore/envconfig"
	"github.com/seedvr2/infercore/generate"
	"github.com/seedvr2/infercore/gpumem"
	"github.com/seedvr2/infercore/logutil"
	"github.com/seedvr2/infercore/tensor"
	"github.com/seedvr2/infercore/vae"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a generation against synthetic example input",
		Args:  cobra.ExactArgs(0),
		RunE:  runHandler,
	}

	runCmd.Flags().String("config", "", "Path to a run.yaml configuration document (optional; Default() is used otherwise)")
	runCmd.Flags().Int("frames", 81, "Number of synthetic input frames to generate")
	runCmd.Flags().Int("height", 64, "Synthetic input frame height")
	runCmd.Flags().Int("width", 64, "Synthetic input frame width")

	return runCmd
}

func runHandler(cmd *cobra.Command, _ []string) error {
	logger := logutil.NewLogger(envconfig.LogLevel())
	slog.SetDefault(logger)

	cfgPath, _ := cmd.Flags().GetString("config")
	frameCount, _ := cmd.Flags().GetInt("frames")
	height, _ := cmd.Flags().GetInt("height")
	width, _ := cmd.Flags().GetInt("width")

	var cfg vsrconfig.Config
	if cfgPath != "" {
		loaded, err := vsrconfig.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = vsrconfig.Default()
	}
	vsrconfig.ApplyEnvOverrides(&cfg)

	chosen, visibleEnv := selectDevice(exampleHostDevices())
	logger.Info("device selected", "device", chosen.String(), "env", visibleEnv)

	alloc := &exampleAllocator{total: chosen.TotalMemory}
	governor := gpumem.NewGovernorForDevice(alloc, chosen)

	loadedDType := tensor.DTypeBF16
	if chosen.SupportsFP8() {
		loadedDType = tensor.DTypeFP8E4M3
	}
	logger.Info("weight precision selected",
		"compute_capability", chosen.Compute(), "supports_bf16", chosen.SupportsBF16(),
		"supports_fp8", chosen.SupportsFP8(), "loaded_dtype", loadedDType)

	embeddings := exampleEmbeddings{dim: 768}
	textPos, textNeg, err := embeddings.LoadEmbeddings()
	if err != nil {
		return fmt.Errorf("load embeddings: %w", err)
	}

	model := newExampleDiT(cfg.Runtime.BlockSwap.BlocksToSwap)
	vaeFactory := vae.Factory(func() (vae.Model, error) { return &exampleVAE{}, nil })
	vaeCfg := vae.Config{Slicing: cfg.VAE.Slicing, MemoryLimit: cfg.VAE.MemoryLimit}
	vaeInstance := &vae.Instance{}
	if err := vae.EnsureVAE(vaeInstance, vaeFactory, vaeCfg); err != nil {
		return fmt.Errorf("construct vae: %w", err)
	}

	engine := &diffusion.Engine{Governor: governor, RopeCache: gpumem.NewRoPECache()}

	loop := &generate.Loop{
		Engine:     engine,
		Governor:   governor,
		Model:      model,
		VAE:        vaeInstance,
		VAEFactory: vaeFactory,
		VAEConfig:  vaeCfg,
		Transform:  generate.DefaultVideoTransform(cfg.Runtime.TargetWidth),
	}

	runCfg := generate.Config{
		CFG: diffusion.CFGDispatcher{
			Scale:   cfg.Diffusion.CFG.Scale,
			Rescale: cfg.Diffusion.CFG.Rescale,
			Partial: cfg.Diffusion.CFG.Partial,
		},
		Task:            diffusion.NewT2V(),
		Seed:            cfg.Runtime.Seed,
		TargetWidth:     cfg.Runtime.TargetWidth,
		BatchSize:       cfg.Runtime.BatchSize,
		PreserveVRAM:    cfg.Runtime.PreserveVRAM,
		TemporalOverlap: cfg.Runtime.TemporalOverlap,
		UseBlockSwap:    cfg.Runtime.BlockSwap.BlocksToSwap > 0,
		TiledVAE:        cfg.Runtime.TiledVAE,
		TileSize:        vae.TileSize{H: cfg.Runtime.TileSize.H, W: cfg.Runtime.TileSize.W},
		TileStride:      vae.TileStride{H: cfg.Runtime.TileStride.H, W: cfg.Runtime.TileStride.W},
		Steps:           cfg.Diffusion.Timesteps.Sampling.Steps,
		LoadedDType:     loadedDType,
		VAEShift:        float32(cfg.VAE.ShiftingFactor),
		VAEScale:        float32(cfg.VAE.ScalingFactor),
		ImageShift:      diffusion.DefaultImageShiftFn,
		VideoShift:      diffusion.DefaultVideoShiftFn,
		Noise:           exampleNoise{},
		ColorCorrector:  noopColorCorrector{},
		TextPos:         textPos,
		TextNeg:         textNeg,
	}

	frames := syntheticFrames(frameCount, height, width)

	onFrames := func(batch *tensor.Tensor, batchIndex, start, end int) {
		logger.Info("batch decoded", "batch_index", batchIndex, "start", start, "end", end)
	}
	progress := cliProgress{logger: logger}

	out, err := loop.Run(cmd.Context(), frames, runCfg, onFrames, progress)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	fmt.Printf("generated %d frames at %dx%d\n", out.Shape[0], out.Shape[1], out.Shape[2])
	return nil
}

// cliProgress renders batch progress to stderr through the
// logutil-configured logger, the example binary's entire "progress UI".
type cliProgress struct {
	logger *slog.Logger
}

func (p cliProgress) Progress(batchNumber, totalBatches, frameCount int, description string) {
	p.logger.Info("progress", "batch", batchNumber, "of", totalBatches, "frames", frameCount, "desc", description)
}
