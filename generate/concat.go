package generate

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/seedvr2/infercore/tensor"
)

// concatBlockSize is the number of batches concatenated per round trip
// through the GPU, bounding how much intermediate state the
// concatenation step itself holds onto.
const concatBlockSize = 500

// gpuStream bounds concurrent GPU-round-trip submissions to one at a
// time, matching the single-stream serialization the sampler and
// decoder rely on elsewhere; it is sized for a future multi-stream
// backend even though today's cap is 1.
var gpuStream = semaphore.NewWeighted(1)

// ConcatBatches preallocates a single CPU (ΣT,H,W,3) output and copies
// each batch's samples into it in concatBlockSize-batch blocks. Within
// a block, frame offsets are computed up front, then every batch's
// copy into the output runs concurrently on the CPU side while its
// device round trip is serialized through gpuStream,
// avoiding both the repeated reallocation a naive append would cause
// and unnecessary concurrent GPU submissions.
func ConcatBatches(batches []*tensor.Tensor) *tensor.Tensor {
	if len(batches) == 0 {
		return nil
	}

	total := 0
	for _, b := range batches {
		total += b.Shape[0]
	}
	h, w, c := batches[0].Shape[1], batches[0].Shape[2], batches[0].Shape[3]
	out := tensor.New([]int{total, h, w, c}, batches[0].DType, tensor.CPU)

	frameOffset := 0
	ctx := context.Background()
	for i := 0; i < len(batches); i += concatBlockSize {
		end := i + concatBlockSize
		if end > len(batches) {
			end = len(batches)
		}

		offsets := make([]int, end-i)
		for j, b := range batches[i:end] {
			offsets[j] = frameOffset
			frameOffset += b.Shape[0]
		}

		var eg errgroup.Group
		for j, b := range batches[i:end] {
			j, b, offset := j, b, offsets[j]
			eg.Go(func() error {
				if err := gpuStream.Acquire(ctx, 1); err != nil {
					return err
				}
				roundTripped := b.To(tensor.CUDA(0)).To(tensor.CPU)
				gpuStream.Release(1)

				n := len(roundTripped.Data)
				copy(out.Data[offset*h*w*c:offset*h*w*c+n], roundTripped.Data)
				return nil
			})
		}
		_ = eg.Wait()
	}
	return out
}
