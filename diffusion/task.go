// Package diffusion implements the diffusion inference engine (C4):
// classifier-free guidance dispatch, the timestep transform, the
// block-swap capability object, and the task-conditioned construction
// of the conditioning latent L_c.
package diffusion

import "github.com/seedvr2/infercore/tensor"

// Kind is the closed set of supported generation tasks. Modeled as a
// tagged sum rather than dynamic dispatch on a string tag: the
// conditioning constructor below is a total function over Kind's
// variants.
type Kind int

const (
	KindT2V Kind = iota
	KindI2V
	KindV2V
	KindSR
)

func (k Kind) String() string {
	switch k {
	case KindT2V:
		return "t2v"
	case KindI2V:
		return "i2v"
	case KindV2V:
		return "v2v"
	case KindSR:
		return "sr"
	default:
		return "unknown"
	}
}

// Task carries the kind plus whatever payload that variant needs: only
// the super-resolution task carries a blur latent, constructed from the
// sharp latent by an external noising step ahead of this core.
type Task struct {
	kind       Kind
	blurLatent *tensor.Tensor
}

func NewT2V() Task { return Task{kind: KindT2V} }
func NewI2V() Task { return Task{kind: KindI2V} }
func NewV2V() Task { return Task{kind: KindV2V} }

// NewSR builds the super-resolution task variant, carrying the noised
// blur of the input latent that every frame conditions on.
func NewSR(blurLatent *tensor.Tensor) Task { return Task{kind: KindSR, blurLatent: blurLatent} }

func (t Task) Kind() Kind { return t.kind }

// BuildCondition constructs L_c: a copy of latent's shape with one
// extra trailing "valid" mask channel, per task:
//   - t2v: zero content, zero mask (no conditioning frames).
//   - sr: blur latent in every frame, mask 1 everywhere.
//   - i2v: only the first frame carries content/mask 1.
//   - v2v: the first two frames carry content/mask 1.
func BuildCondition(t Task, latent *tensor.Tensor) *tensor.Tensor {
	if len(latent.Shape) != 4 {
		panic("diffusion: BuildCondition requires a rank-4 (T,H,W,C) latent")
	}
	T, H, W, C := latent.Shape[0], latent.Shape[1], latent.Shape[2], latent.Shape[3]
	out := tensor.New([]int{T, H, W, C + 1}, latent.DType, latent.Device)

	switch t.kind {
	case KindT2V:
		// zero content, zero mask: leave out as allocated.
	case KindSR:
		fillContent(out, t.blurLatent, 0, T)
		fillMask(out, 0, T)
	case KindI2V:
		n := min(1, T)
		fillContent(out, latent, 0, n)
		fillMask(out, 0, n)
	case KindV2V:
		n := min(2, T)
		fillContent(out, latent, 0, n)
		fillMask(out, 0, n)
	default:
		panic("diffusion: unknown task kind")
	}
	return out
}

func fillContent(out, src *tensor.Tensor, fromFrame, toFrame int) {
	H, W, Cl := out.Shape[1], out.Shape[2], out.Shape[3]-1
	for t := fromFrame; t < toFrame; t++ {
		for h := 0; h < H; h++ {
			for w := 0; w < W; w++ {
				for c := 0; c < Cl; c++ {
					srcIdx := ((t*H+h)*W+w)*Cl + c
					dstIdx := ((t*H+h)*W+w)*(Cl+1) + c
					out.Data[dstIdx] = src.Data[srcIdx]
				}
			}
		}
	}
}

func fillMask(out *tensor.Tensor, fromFrame, toFrame int) {
	H, W, Cout := out.Shape[1], out.Shape[2], out.Shape[3]
	maskChan := Cout - 1
	for t := fromFrame; t < toFrame; t++ {
		for h := 0; h < H; h++ {
			for w := 0; w < W; w++ {
				out.Data[((t*H+h)*W+w)*Cout+maskChan] = 1
			}
		}
	}
}
