package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/seedvr2/infercore/apperr"
	"github.com/seedvr2/infercore/diffusion"
	"github.com/seedvr2/infercore/envconfig"
	"github.com/seedvr2/infercore/gpumem"
	"github.com/seedvr2/infercore/logutil"
	"github.com/seedvr2/infercore/tensor"
	"github.com/seedvr2/infercore/vae"
)

// logger is this package's own logutil.NewLogger instance rather than
// slog.Default(), so batch progress keeps printing at the configured
// INFERCORE_DEBUG verbosity even if a caller's process never touches
// the default logger.
var logger = logutil.NewLogger(envconfig.LogLevel())

// Config bundles one Run call's configuration, matching the §4.6
// contract plus the collaborator hooks this core depends on externally.
type Config struct {
	CFG              diffusion.CFGDispatcher
	Task             diffusion.Task
	Seed             int64
	TargetWidth      int
	BatchSize        int
	PreserveVRAM     bool
	TemporalOverlap  int
	UseBlockSwap     bool
	TiledVAE         bool
	TileSize         vae.TileSize
	TileStride       vae.TileStride
	Steps            int
	LoadedDType      tensor.DType
	VAEShift         float32
	VAEScale         float32
	ImageShift       diffusion.LinearFunction
	VideoShift       diffusion.LinearFunction

	Noise          NoiseSource
	ColorCorrector ColorCorrector
	TextPos        *tensor.Tensor
	TextNeg        *tensor.Tensor
}

// Loop drives C6 against injected C1-C5 collaborators.
type Loop struct {
	Engine     *diffusion.Engine
	Governor   *gpumem.Governor
	Model      diffusion.Model
	VAE        *vae.Instance
	VAEFactory vae.Factory
	VAEConfig  vae.Config
	Transform  VideoTransform
}

// Run splits frames into overlapping batches, enforces the 4n+1
// invariant per batch, drives the diffusion engine, and assembles the
// final concatenated output. It honors ctx cancellation at batch
// boundaries and always runs its cleanup path, even on error.
func (l *Loop) Run(ctx context.Context, frames *tensor.Tensor, cfg Config, onFrames FrameSaveCallback, onProgress ProgressCallback) (out *tensor.Tensor, err error) {
	n := frames.Shape[0]
	runID := uuid.New()

	step := cfg.BatchSize - cfg.TemporalOverlap
	overlap := cfg.TemporalOverlap
	if step <= 0 {
		step = cfg.BatchSize
		overlap = 0
	}

	if waste := WastedPaddingFrames(cfg.BatchSize); waste > 0 {
		logger.Info("batch size is not 4n+1 aligned",
			"run_id", runID, "configured_batch_size", cfg.BatchSize,
			"optimal_hint", OptimalBatchSize(n), "wasted_padding_frames", waste)
	}

	var outputs []*tensor.Tensor
	var batchTimes []time.Duration
	batchIndex := 0
	totalBatches := (n + step - 1) / step

	defer func() {
		if l.VAE.Present() && cfg.PreserveVRAM {
			vae.TeardownVAE(l.VAE)
		}
		if l.Governor != nil {
			l.Governor.ReleaseReserved()
		}
	}()

	for start := 0; start < n; start += step {
		select {
		case <-ctx.Done():
			return ConcatBatches(outputs), apperr.New(batchIndex, apperr.PhaseEncode, apperr.KindCancellation, ctx.Err())
		default:
		}

		end := start + cfg.BatchSize
		if end > n {
			end = n
		}
		if batchIndex > 0 && end-start <= overlap {
			break
		}

		batchStart := time.Now()
		avgSoFar := movingAverage(batchTimes)
		remaining := (n - end) / max(step, 1)
		eta := time.Duration(remaining) * avgSoFar

		logger.Info("generation batch starting",
			"run_id", runID, "batch_index", batchIndex, "start", start, "end", end,
			"percent_complete", fmt.Sprintf("%.1f%%", 100*float64(end)/float64(n)),
			"frames_remaining", n-end, "eta", eta)

		result, berr := l.runBatch(frames, start, end, n, cfg, batchIndex)
		if berr != nil {
			return ConcatBatches(outputs), berr
		}

		// Frames [0,overlap) of every batch after the first duplicate the
		// tail of the previous batch's output (carried only to seed
		// temporal coherence across the cut); drop them before the
		// sequence is assembled so total output length stays exactly n.
		trimmed := result
		outStart := start
		if batchIndex > 0 && overlap > 0 && overlap < result.Shape[0] {
			trimmed = result.SliceT(overlap, result.Shape[0])
			outStart = start + overlap
		}

		onFrames(trimmed, batchIndex, outStart, outStart+trimmed.Shape[0])
		outputs = append(outputs, trimmed)

		elapsed := time.Since(batchStart)
		batchTimes = append(batchTimes, elapsed)
		if onProgress != nil {
			onProgress.Progress(batchIndex+1, totalBatches, n, fmt.Sprintf("batch %d", batchIndex))
			if tracker, ok := onProgress.(BatchTimeTracker); ok {
				tracker.TrackBatchTime(elapsed.Seconds())
			}
		}

		if cfg.PreserveVRAM {
			vae.TeardownVAE(l.VAE)
		}
		if l.Governor != nil && l.Engine.RopeCache != nil {
			if err := l.Governor.ClearCachesContext(ctx, l.Engine.RopeCache); err != nil {
				return ConcatBatches(outputs), apperr.New(batchIndex, apperr.PhaseEncode, apperr.KindCancellation, err)
			}
		}

		batchIndex++
		if end >= n {
			break
		}
	}

	return ConcatBatches(outputs), nil
}

func movingAverage(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

// runBatch executes encode -> sample -> decode -> trim -> color-correct
// -> remap for one batch, matching the strict within-batch ordering
// guarantee.
func (l *Loop) runBatch(frames *tensor.Tensor, start, end, totalFrames int, cfg Config, batchIndex int) (*tensor.Tensor, error) {
	if cfg.PreserveVRAM && !l.VAE.Present() {
		if err := vae.EnsureVAE(l.VAE, l.VAEFactory, l.VAEConfig); err != nil {
			return nil, apperr.New(batchIndex, apperr.PhaseEncode, apperr.KindConfiguration, err)
		}
	}

	transform := l.Transform
	if cfg.TargetWidth > 0 {
		transform.TargetWidth = cfg.TargetWidth
	}

	raw := frames.SliceT(start, end)
	transformed := transform.Apply(raw)
	originalLen := transformed.Shape[0]

	padded := transformed
	if NeedsPad(totalFrames, originalLen) {
		padded = transformed.PadReplicateLastFrame(PadTarget(originalLen))
	}

	encoderInput := padded.ToCTHW()
	latent, err := l.VAE.Model.Encode(encoderInput)
	if err != nil {
		return nil, apperr.Resource(batchIndex, apperr.PhaseEncode, err)
	}

	cond := diffusion.BuildCondition(cfg.Task, latent)
	noise := cfg.Noise.Sample(latent.Shape, cfg.Seed+int64(batchIndex))

	samples, err := l.Engine.Inference(diffusion.Params{
		Model:        l.Model,
		VAE:          l.VAE,
		VAEFactory:   l.VAEFactory,
		VAEConfig:    l.VAEConfig,
		VAEShift:     cfg.VAEShift,
		VAEScale:     cfg.VAEScale,
		Noises:       []*tensor.Tensor{noise},
		Conditions:   []*tensor.Tensor{cond},
		TextPos:      cfg.TextPos,
		TextNeg:      cfg.TextNeg,
		LoadedDType:  cfg.LoadedDType,
		Steps:        cfg.Steps,
		CFG:          cfg.CFG,
		ImageShift:   cfg.ImageShift,
		VideoShift:   cfg.VideoShift,
		PreserveVRAM: cfg.PreserveVRAM,
		UseBlockSwap: cfg.UseBlockSwap,
		TiledVAE:     cfg.TiledVAE,
		TileSize:     cfg.TileSize,
		TileStride:   cfg.TileStride,
	})
	if err != nil {
		return nil, err
	}

	decoded := samples[0]
	trimmed := decoded.SliceT(0, originalLen)

	final := trimmed
	if cfg.ColorCorrector != nil {
		corrected, err := cfg.ColorCorrector.Correct(trimmed, encoderInput)
		if err != nil {
			return nil, apperr.New(batchIndex, apperr.PhaseDecode, apperr.KindResource, err)
		}
		final = corrected
	}

	remapped := final.ToHWC()
	remapped.NormalizeInPlace(-1, 2) // undo [-1,1]: (x - (-1)) / 2 -> [0,1]
	return remapped.Cast(tensor.DTypeF16), nil
}
