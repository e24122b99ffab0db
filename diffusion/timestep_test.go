package diffusion

import (
	"math"
	"testing"
)

func TestTransformIdentityAtEndpoints(t *testing.T) {
	fn := LinearFunction{X1: 0, Y1: 2, X2: 1, Y2: 2}
	if got := Transform(0, 1, 64, 64, fn, fn); math.Abs(got) > 1e-9 {
		t.Errorf("Transform(0,...) = %v, want 0", got)
	}
	if got := Transform(1, 1, 64, 64, fn, fn); math.Abs(got-1) > 1e-9 {
		t.Errorf("Transform(1,...) = %v, want 1", got)
	}
}

func TestTransformUsesVideoBranchWhenFramesExceedOne(t *testing.T) {
	imageFn := LinearFunction{X1: 0, Y1: 1, X2: 1, Y2: 1}
	videoFn := LinearFunction{X1: 0, Y1: 3, X2: 1, Y2: 3}

	imageResult := Transform(0.5, 1, 64, 64, imageFn, videoFn)
	videoResult := Transform(0.5, 5, 64, 64, imageFn, videoFn)

	if imageResult == videoResult {
		t.Errorf("expected image (s=1, no-op) and video (s=3) branches to differ: image=%v video=%v", imageResult, videoResult)
	}
	if math.Abs(imageResult-0.5) > 1e-9 {
		t.Errorf("image branch with s=1 should be a no-op, got %v", imageResult)
	}
}

func TestNormalizeBounds(t *testing.T) {
	if Normalize(0, 50) != 0 {
		t.Errorf("Normalize(0,50) != 0")
	}
	if Normalize(50, 50) != 1 {
		t.Errorf("Normalize(50,50) != 1")
	}
	if Normalize(5, 0) != 0 {
		t.Errorf("Normalize with zero schedule length must not divide by zero")
	}
}
