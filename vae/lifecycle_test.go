package vae

import (
	"testing"

	"github.com/seedvr2/infercore/tensor"
)

type recordingModel struct {
	constructions, applies int
}

func (m *recordingModel) Encode(v *tensor.Tensor) (*tensor.Tensor, error) { return v, nil }
func (m *recordingModel) Decode(l *tensor.Tensor) (*tensor.Tensor, error) { return l, nil }
func (m *recordingModel) UpsamplingFactor() int                          { return 8 }
func (m *recordingModel) To(tensor.Device)                               {}
func (m *recordingModel) ApplyConfig(Config)                             { m.applies++ }

func TestEnsureVAEIsIdempotentWhilePresent(t *testing.T) {
	constructions := 0
	factory := func() (Model, error) {
		constructions++
		return &recordingModel{}, nil
	}

	inst := &Instance{}
	if err := EnsureVAE(inst, factory, Config{Slicing: true}); err != nil {
		t.Fatalf("EnsureVAE: %v", err)
	}
	if err := EnsureVAE(inst, factory, Config{}); err != nil {
		t.Fatalf("EnsureVAE (second call): %v", err)
	}

	if constructions != 1 {
		t.Errorf("factory called %d times, want 1 (EnsureVAE must be a no-op while present)", constructions)
	}
}

func TestTeardownThenEnsureReconstructs(t *testing.T) {
	constructions := 0
	factory := func() (Model, error) {
		constructions++
		return &recordingModel{}, nil
	}

	inst := &Instance{}
	EnsureVAE(inst, factory, Config{})
	TeardownVAE(inst)
	if inst.Present() {
		t.Fatalf("instance must be absent after TeardownVAE (testable property: preserve_vram removes the module from memory)")
	}
	EnsureVAE(inst, factory, Config{})

	if constructions != 2 {
		t.Errorf("factory called %d times across teardown+rebuild, want 2", constructions)
	}
}

func TestEnsureVAEReappliesConfig(t *testing.T) {
	model := &recordingModel{}
	factory := func() (Model, error) { return model, nil }

	inst := &Instance{}
	EnsureVAE(inst, factory, Config{Slicing: true, MemoryLimit: 1024})

	if model.applies != 1 {
		t.Errorf("ApplyConfig called %d times, want 1 on construction", model.applies)
	}
}
