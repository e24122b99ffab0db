package diffusion

import "github.com/seedvr2/infercore/tensor"

// SwappableBlock is the explicit capability object Design Notes call
// for, replacing the source's attribute-sniffing
// (hasattr(block, "_original_forward")) with a value the engine can
// query directly. A block that does not page is simply never wrapped
// in one: the engine never inspects a block to find out whether it is
// swappable, it is told.
type SwappableBlock struct {
	Idx            int
	ResidentDevice tensor.Device

	onEnter func()
	onExit  func()
}

// NewSwappableBlock wraps block idx with residency callbacks. onEnter
// is invoked before the block's forward pass runs (pages it onto GPU
// if it was on CPU); onExit is invoked after (pages it back to CPU).
func NewSwappableBlock(idx int, onEnter, onExit func()) *SwappableBlock {
	return &SwappableBlock{Idx: idx, ResidentDevice: tensor.CPU, onEnter: onEnter, onExit: onExit}
}

func (b *SwappableBlock) OnEnter() {
	if b.onEnter != nil {
		b.onEnter()
	}
	b.ResidentDevice = tensor.CUDA(0)
}

func (b *SwappableBlock) OnExit() {
	if b.onExit != nil {
		b.onExit()
	}
	b.ResidentDevice = tensor.CPU
}

// Plan returns the indices of the trailing suffix of a totalBlocks-deep
// stack that should be kept off-GPU by default, given a requested swap
// depth. The prefix (totalBlocks-blocksToSwap blocks) always stays
// resident; only the suffix pages.
func Plan(totalBlocks, blocksToSwap int) []int {
	if blocksToSwap <= 0 {
		return nil
	}
	if blocksToSwap > totalBlocks {
		blocksToSwap = totalBlocks
	}
	start := totalBlocks - blocksToSwap
	indices := make([]int, 0, blocksToSwap)
	for i := start; i < totalBlocks; i++ {
		indices = append(indices, i)
	}
	return indices
}

// Active reports whether block-swap is currently engaged for a stack of
// blocks: true if at least one non-nil capability object is present,
// whatever that block's current residency. This is the Go equivalent of
// the source's sentinel-attribute check, queried through the type
// rather than reflection.
func Active(blocks []*SwappableBlock) bool {
	for _, b := range blocks {
		if b != nil {
			return true
		}
	}
	return false
}
