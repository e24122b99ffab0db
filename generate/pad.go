// Package generate implements the generation loop (C6): overlapping
// batch splitting, the 4n+1 temporal invariant, the video transform
// pipeline, and orchestration of the memory governor, precision
// planner, VAE lifecycle and diffusion engine across a full sequence.
package generate

// NeedsPad reports whether a batch of extent t frames (out of an
// overall sequence of n frames) must be padded to satisfy T ≡ 1 (mod 4)
// before VAE encoding. The invariant is waived for n < 5, matching the
// testable-properties boundary.
func NeedsPad(n, t int) bool {
	return n >= 5 && t%4 != 1
}

// PadTarget returns the smallest extent >= t congruent to 1 mod 4.
func PadTarget(t int) int {
	if t%4 == 1 {
		return t
	}
	return t + (4 - (t-1)%4)
}
