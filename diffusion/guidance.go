package diffusion

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/seedvr2/infercore/tensor"
)

// Guidance replaces the source's closure-based dispatch with an
// explicit interface: PosForward and NegForward capture whatever
// tensors (current sample, conditioning latent, text embeddings,
// timestep) the model needs, so the dispatcher below only ever deals
// with two tensor-producing calls and the scalar blend.
type Guidance interface {
	PosForward(x *tensor.Tensor) (*tensor.Tensor, error)
	NegForward(x *tensor.Tensor) (*tensor.Tensor, error)
}

// CFGDispatcher blends positive/negative guidance outputs:
// out = neg + scale*(pos-neg), with scale dropping to 1.0 once the
// step fraction exceeds Partial, and an optional rescale that corrects
// for the contrast loss high guidance scales introduce.
type CFGDispatcher struct {
	Scale   float64
	Rescale float64
	Partial float64
}

// Dispatch runs one guidance step at step/totalSteps progress through
// the schedule.
func (d CFGDispatcher) Dispatch(step, totalSteps int, x *tensor.Tensor, g Guidance) (*tensor.Tensor, error) {
	pos, err := g.PosForward(x)
	if err != nil {
		return nil, err
	}
	neg, err := g.NegForward(x)
	if err != nil {
		return nil, err
	}

	scale := d.Scale
	if totalSteps > 0 && float64(step)/float64(totalSteps) > d.Partial {
		scale = 1.0
	}

	out := neg.Clone()
	for i := range out.Data {
		out.Data[i] = neg.Data[i] + float32(scale)*(pos.Data[i]-neg.Data[i])
	}

	if d.Rescale > 0 {
		rescaleInPlace(out, pos, d.Rescale)
	}
	return out, nil
}

// rescaleInPlace applies the standard CFG-rescale correction: it
// rescales out so its standard deviation matches pos's, then blends
// that against the unscaled out by the Rescale fraction.
func rescaleInPlace(out, pos *tensor.Tensor, rescale float64) {
	stdPos := stddev(pos.Data)
	stdOut := stddev(out.Data)
	if stdOut < 1e-12 {
		return
	}
	ratio := float32(stdPos / stdOut)
	for i, v := range out.Data {
		rescaled := v * ratio
		out.Data[i] = float32(rescale)*rescaled + float32(1-rescale)*v
	}
}

// stddev computes the population standard deviation of data in two
// passes: gonum's stat.Mean for the mean, then floats.Sum over the
// squared deviations.
func stddev(data []float32) float64 {
	if len(data) == 0 {
		return 0
	}
	f64 := make([]float64, len(data))
	for i, v := range data {
		f64[i] = float64(v)
	}
	mean := stat.Mean(f64, nil)
	variance := floats.Sum(apply(f64, func(v float64) float64 { d := v - mean; return d * d })) / float64(len(f64))
	return math.Sqrt(variance)
}

func apply(data []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = f(v)
	}
	return out
}
