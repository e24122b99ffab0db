package generate

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/seedvr2/infercore/device"
	"github.com/seedvr2/infercore/tensor"
)

// VideoTransform bundles the §6 pipeline's tunables.
type VideoTransform struct {
	TargetWidth int
	Sampling    device.SamplingMode
	CropMod     int // spatial divisor frames are cropped to; 16 per the data model.
	Mean, Std   float32
}

// DefaultVideoTransform matches the pipeline's documented defaults.
func DefaultVideoTransform(targetWidth int) VideoTransform {
	return VideoTransform{TargetWidth: targetWidth, Sampling: device.SamplingModeCatmullRom, CropMod: 16, Mean: 0.5, Std: 0.5}
}

// Apply runs the first four pipeline steps — resize (no downsampling),
// clamp to [0,1], crop to a multiple of CropMod, normalize to [-1,1] —
// and returns a still channels-last (T,H,W,C) tensor so the caller can
// apply the 4n+1 pad (which operates along the leading temporal axis)
// before the final permute to (C,T,H,W).
func (vt VideoTransform) Apply(frames *tensor.Tensor) *tensor.Tensor {
	resized := resize(frames, vt.TargetWidth, vt.Sampling)
	resized.ClampInPlace(0, 1)
	cropped := cropToMultiple(resized, vt.CropMod)
	cropped.NormalizeInPlace(vt.Mean, vt.Std)
	return cropped
}

func scalerFor(mode device.SamplingMode) draw.Scaler {
	switch mode {
	case device.SamplingModeNearest:
		return draw.NearestNeighbor
	case device.SamplingModeBilinear:
		return draw.BiLinear
	default:
		return draw.CatmullRom
	}
}

// resize scales frames so the longer spatial side equals targetWidth,
// skipping any frame whose longer side already exceeds targetWidth:
// the pipeline only upsamples, never downsamples.
func resize(frames *tensor.Tensor, targetWidth int, mode device.SamplingMode) *tensor.Tensor {
	T, H, W, C := frames.Shape[0], frames.Shape[1], frames.Shape[2], frames.Shape[3]
	longer := W
	if H > W {
		longer = H
	}
	if targetWidth <= longer {
		return frames.Clone()
	}

	scale := float64(targetWidth) / float64(longer)
	newH := int(math.Round(float64(H) * scale))
	newW := int(math.Round(float64(W) * scale))

	out := tensor.New([]int{T, newH, newW, C}, frames.DType, frames.Device)
	scaler := scalerFor(mode)
	for t := 0; t < T; t++ {
		src := frameToImage(frames, t)
		dst := image.NewNRGBA(image.Rect(0, 0, newW, newH))
		scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
		imageToFrame(dst, out, t)
	}
	return out
}

// cropToMultiple center-crops H and W down to the nearest multiple of
// mod, matching the pipeline's "divisible by 16" requirement.
func cropToMultiple(frames *tensor.Tensor, mod int) *tensor.Tensor {
	H, W := frames.Shape[1], frames.Shape[2]
	newH := H - H%mod
	newW := W - W%mod
	if newH == H && newW == W {
		return frames.Clone()
	}
	y0 := (H - newH) / 2
	x0 := (W - newW) / 2
	return frames.SliceHW(y0, y0+newH, x0, x0+newW)
}

func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}

func frameToImage(v *tensor.Tensor, frame int) *image.NRGBA {
	H, W, C := v.Shape[1], v.Shape[2], v.Shape[3]
	img := image.NewNRGBA(image.Rect(0, 0, W, H))
	for h := 0; h < H; h++ {
		for w := 0; w < W; w++ {
			idx := ((frame*H+h)*W + w) * C
			img.Set(w, h, color.NRGBA{R: clampByte(v.Data[idx]), G: clampByte(v.Data[idx+1]), B: clampByte(v.Data[idx+2]), A: 255})
		}
	}
	return img
}

func imageToFrame(img *image.NRGBA, out *tensor.Tensor, frame int) {
	H, W, C := out.Shape[1], out.Shape[2], out.Shape[3]
	for h := 0; h < H; h++ {
		for w := 0; w < W; w++ {
			r, g, b, _ := img.At(w, h).RGBA()
			idx := ((frame*H+h)*W + w) * C
			out.Data[idx] = float32(r>>8) / 255
			out.Data[idx+1] = float32(g>>8) / 255
			if C > 2 {
				out.Data[idx+2] = float32(b>>8) / 255
			}
		}
	}
}
