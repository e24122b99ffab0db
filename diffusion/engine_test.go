package diffusion

import (
	"testing"

	"github.com/seedvr2/infercore/gpumem"
	"github.com/seedvr2/infercore/tensor"
	"github.com/seedvr2/infercore/vae"
)

// fakeDiT does no denoising: Forward returns a tensor with half of
// vid's channels, filled from vid's leading elements. It records every
// To() call so tests can assert device placement decisions without
// real hardware.
type fakeDiT struct {
	toCalls []tensor.Device
	blocks  []*SwappableBlock
}

func (m *fakeDiT) Forward(vid *tensor.Tensor, textEmb *tensor.Tensor, t float64) (*tensor.Tensor, error) {
	H, W, Cout := vid.Shape[1], vid.Shape[2], vid.Shape[3]/2
	out := tensor.New([]int{vid.Shape[0], H, W, Cout}, vid.DType, vid.Device)
	copy(out.Data, vid.Data[:len(out.Data)])
	return out, nil
}

func (m *fakeDiT) To(d tensor.Device) { m.toCalls = append(m.toCalls, d) }
func (m *fakeDiT) Blocks() []*SwappableBlock { return m.blocks }

type fakeVAEModel struct{ decodeCalls int }

func (m *fakeVAEModel) Encode(v *tensor.Tensor) (*tensor.Tensor, error) { return v, nil }
func (m *fakeVAEModel) Decode(l *tensor.Tensor) (*tensor.Tensor, error) {
	m.decodeCalls++
	return l.Clone(), nil
}
func (m *fakeVAEModel) UpsamplingFactor() int       { return 8 }
func (m *fakeVAEModel) To(tensor.Device)            {}
func (m *fakeVAEModel) ApplyConfig(vae.Config)      {}

func basicParams(model *fakeDiT, inst *vae.Instance) Params {
	noise := tensor.New([]int{1, 2, 2, 4}, tensor.DTypeF32, tensor.CPU)
	cond := tensor.New([]int{1, 2, 2, 5}, tensor.DTypeF32, tensor.CPU)
	textPos := tensor.New([]int{1, 4}, tensor.DTypeF32, tensor.CPU)
	textNeg := tensor.New([]int{1, 4}, tensor.DTypeF32, tensor.CPU)
	flat := LinearFunction{X1: 0, Y1: 1, X2: 1, Y2: 1}

	return Params{
		Model:       model,
		VAE:         inst,
		VAEFactory:  func() (vae.Model, error) { return &fakeVAEModel{}, nil },
		Noises:      []*tensor.Tensor{noise},
		Conditions:  []*tensor.Tensor{cond},
		TextPos:     textPos,
		TextNeg:     textNeg,
		LoadedDType: tensor.DTypeF16,
		VAEShift:    0,
		VAEScale:    1,
		Steps:       3,
		CFG:         CFGDispatcher{Scale: 1.5, Partial: 1.0},
		ImageShift:  flat,
		VideoShift:  flat,
	}
}

func TestInferenceMovesDiTFullyToGPUWhenBlockSwapInactive(t *testing.T) {
	model := &fakeDiT{}
	inst := &vae.Instance{Model: &fakeVAEModel{}}
	e := &Engine{}

	p := basicParams(model, inst)
	if _, err := e.Inference(p); err != nil {
		t.Fatalf("Inference: %v", err)
	}

	foundGPU := false
	for _, d := range model.toCalls {
		if d.Kind == "cuda" {
			foundGPU = true
		}
	}
	if !foundGPU {
		t.Errorf("expected DiT moved fully to GPU absent block-swap, got calls %v", model.toCalls)
	}
}

func TestInferenceNeverMovesDiTToGPUWhenBlockSwapActive(t *testing.T) {
	model := &fakeDiT{blocks: []*SwappableBlock{NewSwappableBlock(0, nil, nil)}}
	inst := &vae.Instance{Model: &fakeVAEModel{}}
	e := &Engine{Governor: gpumem.NewGovernor(noopAllocator{}, gpumem.ClassifyTier(8<<30))}

	p := basicParams(model, inst)
	p.UseBlockSwap = true
	p.PreserveVRAM = true

	if _, err := e.Inference(p); err != nil {
		t.Fatalf("Inference: %v", err)
	}

	for _, d := range model.toCalls {
		if d.Kind == "cuda" {
			t.Fatalf("DiT must never be moved fully to GPU while block-swap is active, got calls %v", model.toCalls)
		}
	}
}

func TestInferenceRejectsMismatchedBatchSizes(t *testing.T) {
	model := &fakeDiT{}
	inst := &vae.Instance{Model: &fakeVAEModel{}}
	e := &Engine{}

	p := basicParams(model, inst)
	p.Conditions = append(p.Conditions, p.Conditions[0])

	if _, err := e.Inference(p); err == nil {
		t.Fatalf("expected an error for mismatched noises/conditions batch size")
	}
}

type noopAllocator struct{}

func (noopAllocator) Stats() gpumem.Usage       { return gpumem.Usage{} }
func (noopAllocator) CollectGarbage()           {}
func (noopAllocator) EmptyCache()               {}
func (noopAllocator) Synchronize()              {}
func (noopAllocator) ResetPeakStats()           {}
func (noopAllocator) ProbeAlloc()               {}
func (noopAllocator) SetMemoryFraction(float64) {}
