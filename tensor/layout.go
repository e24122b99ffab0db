package tensor

// ToCHW converts a rank-4 (T,H,W,C) channels-last tensor to (T,C,H,W)
// channels-first, the layout expected on the VAE decode boundary.
func (t *Tensor) ToCHW() *Tensor {
	if len(t.Shape) != 4 {
		panic("tensor: ToCHW requires a rank-4 (T,H,W,C) tensor")
	}
	T, H, W, C := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	out := New([]int{T, C, H, W}, t.DType, t.Device)
	for ti := 0; ti < T; ti++ {
		for h := 0; h < H; h++ {
			for w := 0; w < W; w++ {
				for c := 0; c < C; c++ {
					src := ((ti*H+h)*W+w)*C + c
					dst := ((ti*C+c)*H+h)*W + w
					out.Data[dst] = t.Data[src]
				}
			}
		}
	}
	return out
}

// ToHWC is the inverse of ToCHW: (T,C,H,W) -> (T,H,W,C).
func (t *Tensor) ToHWC() *Tensor {
	if len(t.Shape) != 4 {
		panic("tensor: ToHWC requires a rank-4 (T,C,H,W) tensor")
	}
	T, C, H, W := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	out := New([]int{T, H, W, C}, t.DType, t.Device)
	for ti := 0; ti < T; ti++ {
		for c := 0; c < C; c++ {
			for h := 0; h < H; h++ {
				for w := 0; w < W; w++ {
					src := ((ti*C+c)*H+h)*W + w
					dst := ((ti*H+h)*W+w)*C + c
					out.Data[dst] = t.Data[src]
				}
			}
		}
	}
	return out
}

// ToCTHW converts a rank-4 (T,H,W,C) channels-last tensor directly to
// (C,T,H,W), the layout the video transform pipeline hands off to VAE
// encoding in.
func (t *Tensor) ToCTHW() *Tensor {
	if len(t.Shape) != 4 {
		panic("tensor: ToCTHW requires a rank-4 (T,H,W,C) tensor")
	}
	T, H, W, C := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	out := New([]int{C, T, H, W}, t.DType, t.Device)
	for ti := 0; ti < T; ti++ {
		for h := 0; h < H; h++ {
			for w := 0; w < W; w++ {
				for c := 0; c < C; c++ {
					src := ((ti*H+h)*W+w)*C + c
					dst := ((c*T+ti)*H+h)*W + w
					out.Data[dst] = t.Data[src]
				}
			}
		}
	}
	return out
}

// SliceHW extracts a spatial sub-tensor [y0:y1, x0:x1] from a rank-4
// (T,H,W,C) channels-last tensor, keeping all T and C.
func (t *Tensor) SliceHW(y0, y1, x0, x1 int) *Tensor {
	if len(t.Shape) != 4 {
		panic("tensor: SliceHW requires a rank-4 (T,H,W,C) tensor")
	}
	T, H, W, C := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	if y0 < 0 || x0 < 0 || y1 > H || x1 > W || y0 >= y1 || x0 >= x1 {
		panic("tensor: SliceHW out of range")
	}
	oh, ow := y1-y0, x1-x0
	out := New([]int{T, oh, ow, C}, t.DType, t.Device)
	for ti := 0; ti < T; ti++ {
		for h := 0; h < oh; h++ {
			srcRowBase := ((ti*H + (h + y0)) * W) * C
			dstRowBase := ((ti*oh + h) * ow) * C
			copy(out.Data[dstRowBase:dstRowBase+ow*C], t.Data[srcRowBase+x0*C:srcRowBase+x1*C])
		}
	}
	return out
}

// PasteAddHW accumulates src (T,Cs,h,w channels-first) into dst
// (T,Cs,H,W channels-first) at spatial offset (y0,x0), scaled per
// output pixel by a (h,w) weight mask. dst and weightAcc (T,1,H,W) are
// both mutated.
func PasteAddHW(dst, weightAcc, src *Tensor, y0, x0 int, mask2D []float32) {
	T, C, H, W := dst.Shape[0], dst.Shape[1], dst.Shape[2], dst.Shape[3]
	_, _, h, w := src.Shape[0], src.Shape[1], src.Shape[2], src.Shape[3]
	for ti := 0; ti < T; ti++ {
		for c := 0; c < C; c++ {
			for yy := 0; yy < h; yy++ {
				for xx := 0; xx < w; xx++ {
					m := mask2D[yy*w+xx]
					sv := src.Data[((ti*C+c)*h+yy)*w+xx]
					di := ((ti*C+c)*H+(y0+yy))*W + (x0 + xx)
					dst.Data[di] += sv * m
					if c == 0 {
						wi := ((ti*1+0)*H+(y0+yy))*W + (x0 + xx)
						weightAcc.Data[wi] += m
					}
				}
			}
		}
	}
}
