package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// SliceT returns a new tensor holding frames [start,end) along axis 0 of
// a (T, ...) shaped tensor. The remaining dimensions are copied whole.
func (t *Tensor) SliceT(start, end int) *Tensor {
	if start < 0 || end > t.Shape[0] || start >= end {
		panic(fmt.Sprintf("tensor: invalid temporal slice [%d:%d) of extent %d", start, end, t.Shape[0]))
	}
	frameLen := numel(t.Shape[1:])
	out := New(append([]int{end - start}, t.Shape[1:]...), t.DType, t.Device)
	copy(out.Data, t.Data[start*frameLen:end*frameLen])
	return out
}

// ConcatT concatenates tensors sharing all but their leading (temporal)
// dimension, in order, along axis 0.
func ConcatT(parts ...*Tensor) *Tensor {
	if len(parts) == 0 {
		panic("tensor: ConcatT requires at least one part")
	}
	total := 0
	for _, p := range parts {
		total += p.Shape[0]
	}
	out := New(append([]int{total}, parts[0].Shape[1:]...), parts[0].DType, parts[0].Device)
	off := 0
	for _, p := range parts {
		n := len(p.Data)
		copy(out.Data[off:off+n], p.Data)
		off += n
	}
	return out
}

// PadReplicateLastFrame appends copies of the final frame along axis 0
// until the temporal extent reaches target. It is the only padding
// strategy the temporal VAE accepts: zero-padding would introduce a
// discontinuity the encoder has never seen.
func (t *Tensor) PadReplicateLastFrame(target int) *Tensor {
	if target <= t.Shape[0] {
		return t.Clone()
	}
	last := t.SliceT(t.Shape[0]-1, t.Shape[0])
	parts := []*Tensor{t}
	for i := t.Shape[0]; i < target; i++ {
		parts = append(parts, last)
	}
	return ConcatT(parts...)
}

// ClampInPlace clamps every element to [lo, hi].
func (t *Tensor) ClampInPlace(lo, hi float32) {
	for i, v := range t.Data {
		switch {
		case v < lo:
			t.Data[i] = lo
		case v > hi:
			t.Data[i] = hi
		}
	}
}

// NormalizeInPlace applies (x-mean)/std elementwise: the video
// transform's final step into [-1,1] latent space, and (with mean=-1,
// std=2) the inverse remap of a decoded frame back into [0,1].
func (t *Tensor) NormalizeInPlace(mean, std float32) {
	f64 := make([]float64, len(t.Data))
	for i, v := range t.Data {
		f64[i] = float64(v)
	}
	floats.AddConst(-float64(mean), f64)
	floats.Scale(1/float64(std), f64)
	for i, v := range f64 {
		t.Data[i] = float32(v)
	}
}

// ScaleShift applies (x-shift)*scale elementwise, used both to enter and
// (inverted) to leave VAE latent scaling.
func (t *Tensor) ScaleShift(shift, scale float32) *Tensor {
	out := t.Clone()
	for i, v := range out.Data {
		out.Data[i] = (v - shift) * scale
	}
	return out
}

// InverseScaleShift undoes ScaleShift: x/scale + shift.
func (t *Tensor) InverseScaleShift(shift, scale float32) *Tensor {
	out := t.Clone()
	for i, v := range out.Data {
		out.Data[i] = v/scale + shift
	}
	return out
}

// ConcatC concatenates two rank-4 (T,H,W,C) channels-last tensors along
// the channel axis, used to build vid = concat(x_t, L_c) before each
// guidance forward pass.
func ConcatC(a, b *Tensor) *Tensor {
	if len(a.Shape) != 4 || len(b.Shape) != 4 {
		panic("tensor: ConcatC requires rank-4 (T,H,W,C) tensors")
	}
	T, H, W := a.Shape[0], a.Shape[1], a.Shape[2]
	if b.Shape[0] != T || b.Shape[1] != H || b.Shape[2] != W {
		panic("tensor: ConcatC requires matching T,H,W")
	}
	ca, cb := a.Shape[3], b.Shape[3]
	out := New([]int{T, H, W, ca + cb}, a.DType, a.Device)
	for t := 0; t < T; t++ {
		for h := 0; h < H; h++ {
			for w := 0; w < W; w++ {
				srcA := ((t*H+h)*W + w) * ca
				srcB := ((t*H+h)*W + w) * cb
				dst := ((t*H+h)*W + w) * (ca + cb)
				copy(out.Data[dst:dst+ca], a.Data[srcA:srcA+ca])
				copy(out.Data[dst+ca:dst+ca+cb], b.Data[srcB:srcB+cb])
			}
		}
	}
	return out
}

// AddScaled computes out += other*weight elementwise, in place on out.
// Used by the tiled decoder to accumulate weighted tile contributions.
func (t *Tensor) AddScaled(other *Tensor, weight float32) {
	if len(t.Data) != len(other.Data) {
		panic("tensor: AddScaled shape mismatch")
	}
	for i, v := range other.Data {
		t.Data[i] += v * weight
	}
}
