package diffusion

import (
	"github.com/seedvr2/infercore/apperr"
	"github.com/seedvr2/infercore/gpumem"
	"github.com/seedvr2/infercore/logutil"
	"github.com/seedvr2/infercore/precision"
	"github.com/seedvr2/infercore/tensor"
	"github.com/seedvr2/infercore/vae"
)

// Model is the DiT external collaborator boundary: weights and the
// transformer forward pass are out of scope for this core (see
// Non-goals), so the engine depends only on this interface.
type Model interface {
	// Forward runs one denoising step. vid is concat(x_t, L_c) along
	// the channel axis; t is the (already shifted) schedule fraction.
	Forward(vid *tensor.Tensor, textEmb *tensor.Tensor, t float64) (*tensor.Tensor, error)

	// To moves all non-paged parameters to device.
	To(device tensor.Device)

	// Blocks returns the swap capability objects for this model's
	// transformer blocks, or nil if block-swap was never configured on
	// it.
	Blocks() []*SwappableBlock
}

// Engine runs C4's algorithm against injected Model/VAE collaborators.
type Engine struct {
	Governor  *gpumem.Governor
	RopeCache *gpumem.RoPECache
}

// Params bundles one Inference call's configuration. |Noises| =
// |Conditions| = B is the engine's core precondition.
type Params struct {
	Model Model

	VAE        *vae.Instance
	VAEFactory vae.Factory
	VAEConfig  vae.Config
	VAEShift   float32
	VAEScale   float32

	Noises     []*tensor.Tensor
	Conditions []*tensor.Tensor
	TextPos    *tensor.Tensor
	TextNeg    *tensor.Tensor

	LoadedDType tensor.DType
	Steps       int
	CFG         CFGDispatcher
	ImageShift  LinearFunction
	VideoShift  LinearFunction

	PreserveVRAM bool
	UseBlockSwap bool
	TiledVAE     bool
	TileSize     vae.TileSize
	TileStride   vae.TileStride
}

type stepGuidance struct {
	model   Model
	cond    *tensor.Tensor
	textPos *tensor.Tensor
	textNeg *tensor.Tensor
	t       float64
}

func (g stepGuidance) PosForward(x *tensor.Tensor) (*tensor.Tensor, error) {
	return g.model.Forward(tensor.ConcatC(x, g.cond), g.textPos, g.t)
}

func (g stepGuidance) NegForward(x *tensor.Tensor) (*tensor.Tensor, error) {
	return g.model.Forward(tensor.ConcatC(x, g.cond), g.textNeg, g.t)
}

func conditionsHaveMultipleFrames(conds []*tensor.Tensor) bool {
	for _, c := range conds {
		if c.Shape[0] > 1 {
			return true
		}
	}
	return false
}

// Inference runs the full sampler loop across a batch of B
// noise/condition pairs and decodes the results, implementing the
// algorithm of §4.4: dtype planning, memory placement, guided
// sampling, and decode (tiled or standard).
func (e *Engine) Inference(p Params) ([]*tensor.Tensor, error) {
	if len(p.Noises) == 0 || len(p.Noises) != len(p.Conditions) {
		return nil, apperr.New(0, apperr.PhaseSample, apperr.KindShape,
			errMismatchedBatch)
	}

	plan := precision.Derive(p.LoadedDType)
	textPos := p.TextPos.Cast(plan.Compute)
	textNeg := p.TextNeg.Cast(plan.Compute)

	blocks := p.Model.Blocks()
	blockSwapActive := p.UseBlockSwap && Active(blocks)

	if p.PreserveVRAM && conditionsHaveMultipleFrames(p.Conditions) && p.VAE.Present() {
		p.VAE.Model.To(tensor.CPU)
	}

	if !blockSwapActive {
		p.Model.To(tensor.CUDA(0))
	}

	samples := make([]*tensor.Tensor, len(p.Noises))
	for b := range p.Noises {
		x := p.Noises[b].Cast(plan.Compute)
		cond := p.Conditions[b].Cast(plan.Compute)

		for step := 0; step < p.Steps; step++ {
			frames, height, width := x.Shape[0], x.Shape[1], x.Shape[2]
			tNorm := Normalize(step, p.Steps)
			t := Transform(tNorm, frames, height, width, p.ImageShift, p.VideoShift)

			g := stepGuidance{model: p.Model, cond: cond, textPos: textPos, textNeg: textNeg, t: t}
			next, err := p.CFG.Dispatch(step, p.Steps, x, g)
			if err != nil {
				return nil, apperr.Resource(b, apperr.PhaseSample, err)
			}
			logutil.Trace("sampler step", "batch", b, "step", step, "of", p.Steps, "t", t)
			x = next
		}
		samples[b] = x
	}

	if p.PreserveVRAM {
		p.Model.To(tensor.CPU)
	}
	if blockSwapActive && e.Governor != nil {
		e.Governor.ReleaseReserved()
	}

	if p.PreserveVRAM {
		if err := vae.EnsureVAE(p.VAE, p.VAEFactory, p.VAEConfig); err != nil {
			return nil, apperr.New(0, apperr.PhaseDecode, apperr.KindConfiguration, err)
		}
	}
	if p.VAE.Present() {
		p.VAE.Model.To(tensor.CUDA(0))
	}

	decoded := make([]*tensor.Tensor, len(samples))
	for i, s := range samples {
		var out *tensor.Tensor
		var err error
		if p.TiledVAE {
			out, _, err = vae.Decode(p.VAE.Model, s, p.VAEShift, p.VAEScale, p.TileSize, p.TileStride, nil)
		} else {
			unscaled := s.InverseScaleShift(p.VAEShift, p.VAEScale)
			out, err = p.VAE.Model.Decode(unscaled)
		}
		if err != nil {
			return nil, apperr.Resource(i, apperr.PhaseDecode, err)
		}
		decoded[i] = out.Cast(tensor.DTypeF16)
	}

	if e.Governor != nil {
		e.Governor.ApplyMemoryFraction(1.0)
	}

	return decoded, nil
}

type sentinelErr string

func (e sentinelErr) Error() string { return string(e) }

const errMismatchedBatch = sentinelErr("diffusion: noises/conditions batch size mismatch or empty batch")
