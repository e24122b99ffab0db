package generate

import "github.com/seedvr2/infercore/tensor"

// FrameSaveCallback receives each decoded batch as it completes:
// tensor is FP16, CPU-resident, shape (T,H,W,3) in [0,1].
type FrameSaveCallback func(batch *tensor.Tensor, batchIndex, startIdx, endIdx int)

// ProgressCallback is invoked after each batch completes.
type ProgressCallback interface {
	Progress(batchNumber, totalBatches, frameCount int, description string)
}

// BatchTimeTracker is an optional capability a ProgressCallback's owner
// may additionally implement to receive per-batch wall-clock time.
type BatchTimeTracker interface {
	TrackBatchTime(seconds float64)
}

// NoiseSource is the external collaborator that draws the initial
// sampler noise x_T; RNG policy (and its seeding scheme) lives with the
// host, not this core.
type NoiseSource interface {
	Sample(shape []int, seed int64) *tensor.Tensor
}

// ColorCorrector is the external wavelet-reconstruction post-filter
// (see Out of scope): a pure function from (decoded, reference) to a
// color-corrected result.
type ColorCorrector interface {
	Correct(decoded, reference *tensor.Tensor) (*tensor.Tensor, error)
}

// EmbeddingLoader loads the precomputed positive/negative text
// embeddings once per call (see External Interfaces: persisted state).
type EmbeddingLoader interface {
	LoadEmbeddings() (pos, neg *tensor.Tensor, err error)
}
