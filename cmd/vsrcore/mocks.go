package main

import (
	"math"
	"math/rand"

	"github.com/seedvr2/infercore/diffusion"
	"github.com/seedvr2/infercore/gpumem"
	"github.com/seedvr2/infercore/tensor"
	"github.com/seedvr2/infercore/vae"
)

// exampleDiT is a stand-in for the real transformer weights (out of
// scope; see Non-goals). Forward halves the doubled channel count a
// concat(x_t, L_c) input carries, mimicking the DiT's output shape
// without doing any real denoising math, so the loop's shape
// bookkeeping can be exercised end to end.
type exampleDiT struct {
	blocks []*diffusion.SwappableBlock
}

func newExampleDiT(blockSwapDepth int) *exampleDiT {
	m := &exampleDiT{}
	for i := 0; i < blockSwapDepth; i++ {
		m.blocks = append(m.blocks, diffusion.NewSwappableBlock(i, nil, nil))
	}
	return m
}

func (m *exampleDiT) Forward(vid, _ *tensor.Tensor, _ float64) (*tensor.Tensor, error) {
	T, H, W, Cout := vid.Shape[0], vid.Shape[1], vid.Shape[2], vid.Shape[3]/2
	out := tensor.New([]int{T, H, W, Cout}, vid.DType, vid.Device)
	copy(out.Data, vid.Data[:len(out.Data)])
	return out, nil
}

func (m *exampleDiT) To(tensor.Device) {}

func (m *exampleDiT) Blocks() []*diffusion.SwappableBlock { return m.blocks }

// exampleVAE is a stand-in for the real temporal VAE weights (out of
// scope; see Non-goals). It encodes the (C,T,H,W) pixel video the
// transform pipeline hands off into a (T,H,W,C) latent at unit
// temporal/spatial downsampling, and decodes back, so frame counts and
// spatial extents flow through the loop unchanged end to end.
type exampleVAE struct {
	cfg vae.Config
}

func (m *exampleVAE) Encode(v *tensor.Tensor) (*tensor.Tensor, error) {
	C, T, H, W := v.Shape[0], v.Shape[1], v.Shape[2], v.Shape[3]
	out := tensor.New([]int{T, H, W, C}, v.DType, v.Device)
	for c := 0; c < C; c++ {
		for t := 0; t < T; t++ {
			for h := 0; h < H; h++ {
				for w := 0; w < W; w++ {
					src := ((c*T+t)*H+h)*W + w
					dst := ((t*H+h)*W+w)*C + c
					out.Data[dst] = v.Data[src]
				}
			}
		}
	}
	return out, nil
}

func (m *exampleVAE) Decode(latent *tensor.Tensor) (*tensor.Tensor, error) {
	return latent.ToCHW(), nil
}

func (m *exampleVAE) UpsamplingFactor() int { return 1 }

func (m *exampleVAE) To(tensor.Device) {}

func (m *exampleVAE) ApplyConfig(cfg vae.Config) { m.cfg = cfg }

// exampleNoise draws seeded Gaussian noise; the sampling policy itself
// (which distribution, which RNG) belongs to the host, not this core.
type exampleNoise struct{}

func (exampleNoise) Sample(shape []int, seed int64) *tensor.Tensor {
	r := rand.New(rand.NewSource(seed))
	out := tensor.New(shape, tensor.DTypeF32, tensor.CPU)
	for i := range out.Data {
		out.Data[i] = float32(r.NormFloat64())
	}
	return out
}

// exampleEmbeddings stands in for a precomputed text-embedding cache
// (out of scope; see Non-goals): two fixed-shape tensors, loaded once
// per run.
type exampleEmbeddings struct {
	dim int
}

func (e exampleEmbeddings) LoadEmbeddings() (pos, neg *tensor.Tensor, err error) {
	pos = tensor.New([]int{1, e.dim}, tensor.DTypeF32, tensor.CPU)
	neg = tensor.New([]int{1, e.dim}, tensor.DTypeF32, tensor.CPU)
	return pos, neg, nil
}

// noopColorCorrector passes decoded frames through unchanged; the real
// wavelet reconstruction filter is out of scope (see Non-goals).
type noopColorCorrector struct{}

func (noopColorCorrector) Correct(decoded, _ *tensor.Tensor) (*tensor.Tensor, error) {
	return decoded, nil
}

// exampleAllocator fakes a GPU caching allocator against a fixed total,
// enough for the governor's tier classification and cache-sweep calls
// to have something to report without real hardware.
type exampleAllocator struct {
	total     uint64
	allocated uint64
}

func (a *exampleAllocator) Stats() gpumem.Usage {
	return gpumem.Usage{
		Allocated: a.allocated,
		Reserved:  a.allocated,
		Free:      a.total - a.allocated,
		Total:     a.total,
		Peak:      a.allocated,
	}
}

func (a *exampleAllocator) CollectGarbage()           {}
func (a *exampleAllocator) EmptyCache()               {}
func (a *exampleAllocator) Synchronize()              {}
func (a *exampleAllocator) ResetPeakStats()           {}
func (a *exampleAllocator) ProbeAlloc()               {}
func (a *exampleAllocator) SetMemoryFraction(float64) {}

// syntheticFrames builds a channels-last (T,H,W,3) input video of a
// deterministic gradient, standing in for a decoded input file (out of
// scope; see Non-goals).
func syntheticFrames(count, height, width int) *tensor.Tensor {
	out := tensor.New([]int{count, height, width, 3}, tensor.DTypeF32, tensor.CPU)
	for i := range out.Data {
		out.Data[i] = float32(math.Mod(float64(i), 255)) / 255
	}
	return out
}
