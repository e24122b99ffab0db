package vae

import (
	"gonum.org/v1/gonum/mat"

	"github.com/seedvr2/infercore/logutil"
	"github.com/seedvr2/infercore/tensor"
)

// TileSize and TileStride are expressed in latent-space samples, both
// axes, matching how the caller configures tile_size/tile_stride.
type TileSize struct{ H, W int }
type TileStride struct{ H, W int }

// epsilon guards the weighted-average division from dividing by zero
// weight, which cannot legally happen but is guarded anyway per the
// documented ε.
const epsilon = 1e-8

// tileOrigins enumerates tile start offsets along one axis, always
// ending with a tile flush against the far edge and never emitting an
// origin whose tile would be strictly contained in the previous one.
func tileOrigins(extent, tileDim, strideDim int) []int {
	if tileDim >= extent {
		return []int{0}
	}
	origins := []int{0}
	y := 0
	for {
		if y+tileDim >= extent {
			break
		}
		next := y + strideDim
		if next+tileDim >= extent {
			next = extent - tileDim
		}
		if next <= y {
			break
		}
		origins = append(origins, next)
		y = next
	}
	return origins
}

// ramp1D builds a length tileDim*U mask: flat 1 except a linear ramp of
// length (tileDim-strideDim)*U at each non-outer edge (0->1 leading,
// 1->0 trailing). Outer edges (first/last tile along the axis) never
// ramp, since there is no neighboring tile to blend against there.
func ramp1D(tileDim, strideDim, u int, isFirst, isLast bool) []float32 {
	n := tileDim * u
	m := make([]float32, n)
	for i := range m {
		m[i] = 1
	}
	rampLen := (tileDim - strideDim) * u
	if rampLen <= 1 {
		return m
	}
	if !isFirst {
		for i := 0; i < rampLen; i++ {
			m[i] = float32(i) / float32(rampLen-1)
		}
	}
	if !isLast {
		for i := 0; i < rampLen; i++ {
			m[n-1-i] = float32(i) / float32(rampLen-1)
		}
	}
	return m
}

// outer builds the 2D blend mask from its two 1D ramps via the outer
// product rows*cols^T.
func outer(rows, cols []float32) []float32 {
	r64 := make([]float64, len(rows))
	for i, v := range rows {
		r64[i] = float64(v)
	}
	c64 := make([]float64, len(cols))
	for i, v := range cols {
		c64[i] = float64(v)
	}

	var m mat.Dense
	m.Outer(1, r64, c64)

	out := make([]float32, len(rows)*len(cols))
	for i := range rows {
		for j := range cols {
			out[i*len(cols)+j] = float32(m.At(i, j))
		}
	}
	return out
}

// DecodeResult reports how many tiles a tiled decode used, for
// diagnostics and tests; 0 means the call fell back to standard decode.
type DecodeResult struct {
	Tiles int
}

// Decode runs C5: spatially tiled decode with overlap blending when the
// latent's temporal extent is 1, falling back to a standard decode
// otherwise (the temporal VAE needs full temporal context; tiling over
// time is explicitly disallowed). latent is channels-last (T,H,W,C) and
// still in scaled latent space; shift/scale invert the encode-time
// scaling before the model sees it. emptyCache is called every four
// tiles to keep the allocator from fragmenting across many small
// decodes.
func Decode(model Model, latent *tensor.Tensor, shift, scale float32, size TileSize, stride TileStride, emptyCache func()) (*tensor.Tensor, DecodeResult, error) {
	unscaled := latent.InverseScaleShift(shift, scale)

	if latent.Shape[0] != 1 {
		out, err := model.Decode(unscaled)
		return out, DecodeResult{Tiles: 0}, err
	}

	u := model.UpsamplingFactor()
	hl, wl := latent.Shape[1], latent.Shape[2]

	ys := tileOrigins(hl, size.H, stride.H)
	xs := tileOrigins(wl, size.W, stride.W)

	var out, weight *tensor.Tensor
	tileCount := 0

	for yi, y0 := range ys {
		for xi, x0 := range xs {
			y1 := y0 + size.H
			if y1 > hl {
				y1 = hl
			}
			x1 := x0 + size.W
			if x1 > wl {
				x1 = wl
			}

			sub := unscaled.SliceHW(y0, y1, x0, x1)
			decoded, err := model.Decode(sub)
			if err != nil {
				return nil, DecodeResult{Tiles: tileCount}, err
			}

			if out == nil {
				outH, outW := hl*u, wl*u
				out = tensor.New([]int{1, decoded.Shape[1], outH, outW}, decoded.DType, tensor.CPU)
				weight = tensor.New([]int{1, 1, outH, outW}, decoded.DType, tensor.CPU)
			}

			maskH := ramp1D(size.H, stride.H, u, yi == 0, y1 >= hl)
			maskW := ramp1D(size.W, stride.W, u, xi == 0, x1 >= wl)
			mask2D := outer(maskH, maskW)

			tensor.PasteAddHW(out, weight, decoded, y0*u, x0*u, mask2D)

			tileCount++
			logutil.Trace("tile decoded", "tile", tileCount, "y0", y0, "x0", x0)
			if tileCount%4 == 0 && emptyCache != nil {
				emptyCache()
			}
		}
	}

	for i, w := range weight.Data {
		if w < epsilon {
			w = epsilon
		}
		for c := 0; c < out.Shape[1]; c++ {
			idx := c*len(weight.Data) + i
			out.Data[idx] /= w
		}
	}

	return out, DecodeResult{Tiles: tileCount}, nil
}
