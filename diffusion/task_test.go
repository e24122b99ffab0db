package diffusion

import (
	"testing"

	"github.com/seedvr2/infercore/tensor"
)

func latentFixture(t, h, w, c int, fill float32) *tensor.Tensor {
	lat := tensor.New([]int{t, h, w, c}, tensor.DTypeF32, tensor.CPU)
	for i := range lat.Data {
		lat.Data[i] = fill
	}
	return lat
}

func maskChannel(cond *tensor.Tensor, frame int) float32 {
	H, W, C := cond.Shape[1], cond.Shape[2], cond.Shape[3]
	return cond.Data[((frame*H+0)*W+0)*C+(C-1)]
}

func TestBuildConditionT2VIsAllZero(t *testing.T) {
	lat := latentFixture(5, 2, 2, 4, 1)
	cond := BuildCondition(NewT2V(), lat)
	for _, v := range cond.Data {
		if v != 0 {
			t.Fatalf("t2v condition must be all zero, got %v", cond.Data)
		}
	}
}

func TestBuildConditionSRMarksEveryFrameValid(t *testing.T) {
	lat := latentFixture(5, 2, 2, 4, 1)
	blur := latentFixture(5, 2, 2, 4, 0.5)
	cond := BuildCondition(NewSR(blur), lat)
	for f := 0; f < 5; f++ {
		if maskChannel(cond, f) != 1 {
			t.Errorf("sr frame %d mask = %v, want 1", f, maskChannel(cond, f))
		}
	}
}

func TestBuildConditionI2VMarksOnlyFirstFrame(t *testing.T) {
	lat := latentFixture(5, 2, 2, 4, 1)
	cond := BuildCondition(NewI2V(), lat)
	if maskChannel(cond, 0) != 1 {
		t.Errorf("i2v frame 0 mask = %v, want 1", maskChannel(cond, 0))
	}
	for f := 1; f < 5; f++ {
		if maskChannel(cond, f) != 0 {
			t.Errorf("i2v frame %d mask = %v, want 0", f, maskChannel(cond, f))
		}
	}
}

func TestBuildConditionV2VMarksFirstTwoFrames(t *testing.T) {
	lat := latentFixture(5, 2, 2, 4, 1)
	cond := BuildCondition(NewV2V(), lat)
	for f := 0; f < 2; f++ {
		if maskChannel(cond, f) != 1 {
			t.Errorf("v2v frame %d mask = %v, want 1", f, maskChannel(cond, f))
		}
	}
	for f := 2; f < 5; f++ {
		if maskChannel(cond, f) != 0 {
			t.Errorf("v2v frame %d mask = %v, want 0", f, maskChannel(cond, f))
		}
	}
}
