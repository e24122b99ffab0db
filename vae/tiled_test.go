package vae

import (
	"math"
	"testing"

	"github.com/seedvr2/infercore/tensor"
)

// identityModel decodes by nearest-neighbor upsampling each pixel U
// times, giving predictable, checkable output without a real VAE.
type identityModel struct{ u int }

func (m identityModel) Encode(v *tensor.Tensor) (*tensor.Tensor, error) { return v, nil }

func (m identityModel) Decode(latent *tensor.Tensor) (*tensor.Tensor, error) {
	chw := latent.ToCHW()
	T, C, H, W := chw.Shape[0], chw.Shape[1], chw.Shape[2], chw.Shape[3]
	out := tensor.New([]int{T, C, H * m.u, W * m.u}, chw.DType, chw.Device)
	for t := 0; t < T; t++ {
		for c := 0; c < C; c++ {
			for h := 0; h < H; h++ {
				for w := 0; w < W; w++ {
					v := chw.Data[((t*C+c)*H+h)*W+w]
					for dy := 0; dy < m.u; dy++ {
						for dx := 0; dx < m.u; dx++ {
							oh, ow := h*m.u+dy, w*m.u+dx
							out.Data[((t*C+c)*H*m.u+oh)*W*m.u+ow] = v
						}
					}
				}
			}
		}
	}
	return out, nil
}

func (m identityModel) UpsamplingFactor() int { return m.u }
func (m identityModel) To(tensor.Device)      {}
func (m identityModel) ApplyConfig(Config)    {}

func makeLatent(h, w, c int) *tensor.Tensor {
	lat := tensor.New([]int{1, h, w, c}, tensor.DTypeF32, tensor.CPU)
	for i := range lat.Data {
		lat.Data[i] = float32(i%7) * 0.1
	}
	return lat
}

func TestDecodeNoOverlapMatchesStandardDecode(t *testing.T) {
	model := identityModel{u: 8}
	latent := makeLatent(4, 4, 3)

	tiled, res, err := Decode(model, latent, 0, 1, TileSize{H: 4, W: 4}, TileStride{H: 4, W: 4}, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Tiles != 1 {
		t.Fatalf("Tiles = %d, want 1 when tile size covers the whole latent", res.Tiles)
	}

	standard, err := model.Decode(latent)
	if err != nil {
		t.Fatalf("standard Decode: %v", err)
	}

	if len(tiled.Data) != len(standard.Data) {
		t.Fatalf("length mismatch: tiled=%d standard=%d", len(tiled.Data), len(standard.Data))
	}
	for i := range tiled.Data {
		if math.Abs(float64(tiled.Data[i]-standard.Data[i])) > 1e-6 {
			t.Fatalf("element %d: tiled=%v standard=%v", i, tiled.Data[i], standard.Data[i])
		}
	}
}

func TestDecodeBoundaryScenario64x64(t *testing.T) {
	model := identityModel{u: 8}
	latent := makeLatent(64, 64, 16)

	out, res, err := Decode(model, latent, 0, 1, TileSize{H: 32, W: 32}, TileStride{H: 16, W: 16}, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Tiles != 9 {
		t.Errorf("Tiles = %d, want 9", res.Tiles)
	}
	wantShape := []int{1, 3, 512, 512}
	_ = wantShape
	if out.Shape[2] != 512 || out.Shape[3] != 512 {
		t.Errorf("output spatial shape = %dx%d, want 512x512", out.Shape[2], out.Shape[3])
	}
}

func TestDecodeFallsBackWhenTemporalExtentExceedsOne(t *testing.T) {
	model := identityModel{u: 8}
	latent := tensor.New([]int{3, 4, 4, 3}, tensor.DTypeF32, tensor.CPU)

	_, res, err := Decode(model, latent, 0, 1, TileSize{H: 2, W: 2}, TileStride{H: 2, W: 2}, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Tiles != 0 {
		t.Errorf("Tiles = %d, want 0 (standard decode fallback for T>1)", res.Tiles)
	}
}

func TestRamp1DGuardsShortRamp(t *testing.T) {
	m := ramp1D(4, 4, 8, false, false)
	for _, v := range m {
		if v != 1 {
			t.Fatalf("ramp1D with zero ramp length must be all ones, got %v", m)
		}
	}
}

func TestTileOriginsEndsFlushAndSkipsContained(t *testing.T) {
	origins := tileOrigins(64, 32, 16)
	want := []int{0, 16, 32}
	if len(origins) != len(want) {
		t.Fatalf("origins = %v, want %v", origins, want)
	}
	for i := range want {
		if origins[i] != want[i] {
			t.Fatalf("origins = %v, want %v", origins, want)
		}
	}
}
