// Package vae manages the temporal VAE's construction/teardown
// lifecycle under the VRAM-preservation policy (C3), and implements
// spatial tiled decoding for latents whose output would otherwise
// exceed the GPU budget (C5).
package vae

import (
	"log/slog"
	"runtime"

	"github.com/seedvr2/infercore/tensor"
)

// Model is the external collaborator boundary: concrete VAE weights and
// forward passes are out of scope for this core (see Non-goals), so the
// lifecycle manager and tiled decoder depend only on this interface.
type Model interface {
	Encode(video *tensor.Tensor) (*tensor.Tensor, error)
	Decode(latent *tensor.Tensor) (*tensor.Tensor, error)

	// UpsamplingFactor is the spatial factor U the decoder applies
	// going from latent space back to pixel space (typically 8).
	UpsamplingFactor() int

	// To moves the whole model to device; a VAE is always either fully
	// resident on GPU or fully on CPU, never partially (invariant 2).
	To(device tensor.Device)

	// ApplyConfig re-applies causal-slicing and memory-limit settings;
	// called after every (re)construction.
	ApplyConfig(cfg Config)
}

// Config is the lifecycle-relevant subset of VAE configuration that
// must be reapplied after every (re)construction, since construction
// itself yields a fresh, unconfigured model instance.
type Config struct {
	Slicing     bool
	MemoryLimit uint64
}

// Factory builds a fresh, CPU-resident Model from on-disk configuration
// and checkpoint weights. It is expensive but side-effect-free: calling
// it twice yields two independent, equivalent models.
type Factory func() (Model, error)

// Instance holds an optional live VAE, mirroring Option<Vae> from the
// source: the lifecycle manager drives it through construct/destroy
// cycles rather than the model type carrying its own lifecycle state.
type Instance struct {
	Model Model
}

// Present reports whether a model is currently constructed.
func (i *Instance) Present() bool { return i.Model != nil }

// EnsureVAE constructs and configures the VAE if absent. It is a no-op
// if a model is already present, matching the source's
// "not hasattr(runner, 'vae') or runner.vae is None" rebuild check.
func EnsureVAE(inst *Instance, factory Factory, cfg Config) error {
	if inst.Present() {
		return nil
	}
	model, err := factory()
	if err != nil {
		return err
	}
	model.ApplyConfig(cfg)
	inst.Model = model
	slog.Debug("vae constructed")
	return nil
}

// TeardownVAE destroys the VAE, if present, and forces a collection
// pass. Safe to call when already absent.
func TeardownVAE(inst *Instance) {
	if !inst.Present() {
		return
	}
	inst.Model = nil
	runtime.GC()
	slog.Debug("vae torn down")
}
