package gpumem

import "github.com/seedvr2/infercore/device"

// Tier classifies a GPU by total VRAM into one of four bands, each
// carrying the defaults the governor recommends for that class of
// hardware.
type Tier int

const (
	TierLow Tier = iota
	TierEntry
	TierMidRange
	TierHighEnd
)

func (t Tier) String() string {
	switch t {
	case TierHighEnd:
		return "high_end"
	case TierMidRange:
		return "mid_range"
	case TierEntry:
		return "entry"
	case TierLow:
		return "low"
	default:
		return "unknown"
	}
}

// Profile carries the full set of recommendations and thresholds for a
// tier, matching the breadth of the source profiling table rather than
// just a single swap-depth number.
type Profile struct {
	Tier Tier

	// BlocksToSwap is the recommended number of trailing DiT blocks to
	// keep paged on CPU for this tier.
	BlocksToSwap int

	// MemoryReservedThreshold is the allocator "reserved" bytes figure
	// RecommendConfig compares against: below it the cap is
	// MemoryFractionHigh, at or above it MemoryFractionLow.
	MemoryReservedThreshold uint64

	// MemoryFractionLow/High bound the allocator memory-fraction cap
	// applied while block-swap is active; which bound is used depends
	// on how much has already been reserved (see RecommendConfig).
	MemoryFractionLow  float64
	MemoryFractionHigh float64

	// BlockCleanupThreshold is the tier's recommended number of DiT
	// blocks between opportunistic cache sweeps during sampling. No code
	// in this module reads it; the sampler runs no per-block sweeps.
	BlockCleanupThreshold int

	// IOCleanupThreshold is the tier's recommended number of tiles
	// between allocator cache empties during tiled decode. No code in
	// this module reads it; vae.Decode empties the cache every four
	// tiles regardless of tier.
	IOCleanupThreshold int
}

const (
	giB uint64 = 1 << 30
)

// tierTable is ordered from lowest to highest; ClassifyTier walks all
// of it and keeps the last (highest) band whose floor the device's VRAM
// clears.
var tierTable = []struct {
	tier     Tier
	floorGiB uint64
	profile  Profile
}{
	{TierLow, 0, Profile{
		Tier: TierLow, BlocksToSwap: 24,
		MemoryReservedThreshold: 3 * giB,
		MemoryFractionLow:       0.6, MemoryFractionHigh: 0.75,
		BlockCleanupThreshold: 4, IOCleanupThreshold: 2,
	}},
	{TierEntry, 8, Profile{
		Tier: TierEntry, BlocksToSwap: 16,
		MemoryReservedThreshold: 4 * giB,
		MemoryFractionLow:       0.7, MemoryFractionHigh: 0.8,
		BlockCleanupThreshold: 6, IOCleanupThreshold: 4,
	}},
	{TierMidRange, 12, Profile{
		Tier: TierMidRange, BlocksToSwap: 8,
		MemoryReservedThreshold: 6 * giB,
		MemoryFractionLow:       0.8, MemoryFractionHigh: 0.9,
		BlockCleanupThreshold: 8, IOCleanupThreshold: 4,
	}},
	{TierHighEnd, 24, Profile{
		Tier: TierHighEnd, BlocksToSwap: 0,
		MemoryReservedThreshold: 8 * giB,
		MemoryFractionLow:       0.9, MemoryFractionHigh: 1.0,
		BlockCleanupThreshold: 16, IOCleanupThreshold: 8,
	}},
}

// ClassifyTier returns the Profile for a device with the given total
// VRAM in bytes, picking the highest tier whose floor it clears.
func ClassifyTier(totalMemory uint64) Profile {
	best := tierTable[0].profile
	for _, band := range tierTable {
		if totalMemory >= band.floorGiB*giB {
			best = band.profile
		}
	}
	return best
}

// ClassifyDevice is ClassifyTier applied to a discovered device.Info,
// the gpu_profile() contract's actual entry point: the host discovers
// the GPU (index, name, compute capability, VRAM) before the core ever
// runs, and hands the core an Info rather than a bare byte count.
func ClassifyDevice(info device.Info) Profile {
	return ClassifyTier(info.TotalMemory)
}
