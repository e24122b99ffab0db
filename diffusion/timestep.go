package diffusion

// LinearFunction is a two-point linear interpolation/extrapolation used
// to derive a resolution-dependent shift factor from pixel area
// (images) or pixel volume (video).
type LinearFunction struct {
	X1, Y1 float64
	X2, Y2 float64
}

func (f LinearFunction) Eval(x float64) float64 {
	if f.X2 == f.X1 {
		return f.Y1
	}
	slope := (f.Y2 - f.Y1) / (f.X2 - f.X1)
	return slope*(x-f.X1) + f.Y1
}

// DefaultImageShiftFn and DefaultVideoShiftFn are reasonable defaults
// anchoring the shift factor at 1.0 for a 256x256 image / a
// 256x256x16 pixel volume and extrapolating linearly with
// resolution, matching the source's convention of scaling shift with
// pixel count. Callers may override via Transform's parameters.
var (
	DefaultImageShiftFn = LinearFunction{X1: 256 * 256, Y1: 1.0, X2: 1024 * 1024, Y2: 3.2}
	DefaultVideoShiftFn = LinearFunction{X1: 256 * 256 * 16, Y1: 1.0, X2: 1024 * 1024 * 16, Y2: 3.2}
)

// Transform applies the resolution-aware timestep shift: the schedule
// fraction t (already normalized to [0,1] by the schedule horizon) is
// remapped by t' = s*t/(1+(s-1)*t), where s is derived from pixel
// volume when frames > 1 (video branch) or pixel area otherwise (image
// branch).
func Transform(t float64, frames, height, width int, imageFn, videoFn LinearFunction) float64 {
	var s float64
	if frames > 1 {
		s = videoFn.Eval(float64(frames * height * width))
	} else {
		s = imageFn.Eval(float64(height * width))
	}
	denom := 1 + (s-1)*t
	if denom == 0 {
		return t
	}
	return s * t / denom
}

// Normalize maps a raw step index in [0,scheduleLen] to [0,1].
func Normalize(step, scheduleLen int) float64 {
	if scheduleLen <= 0 {
		return 0
	}
	return float64(step) / float64(scheduleLen)
}
