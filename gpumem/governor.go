// Package gpumem implements the memory governor: VRAM status queries,
// GPU tier profiling, the ordered reserved-memory release procedure,
// and the cache sweep that keeps the allocator's footprint bounded
// between batches.
package gpumem

import (
	"log/slog"

	"github.com/seedvr2/infercore/device"
	"github.com/seedvr2/infercore/format"
)

// Usage is a point-in-time snapshot of one device's memory accounting.
type Usage struct {
	Allocated uint64
	Reserved  uint64
	Free      uint64
	Total     uint64
	Peak      uint64
}

func (u Usage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("allocated", format.HumanBytes2(u.Allocated)),
		slog.String("reserved", format.HumanBytes2(u.Reserved)),
		slog.String("free", format.HumanBytes2(u.Free)),
		slog.String("total", format.HumanBytes2(u.Total)),
		slog.String("peak", format.HumanBytes2(u.Peak)),
	)
}

// Allocator is the narrow interface the governor needs from the host's
// GPU allocator. It is satisfied by a thin wrapper over the real CUDA
// caching allocator in production and by a deterministic fake in
// tests, matching the injectable-collaborator style used to make the
// rest of this module testable without real hardware.
type Allocator interface {
	// Stats reports the current allocator state for one device.
	Stats() Usage

	// CollectGarbage runs a host-side GC pass (releases Go-level
	// references the model wrapper may be holding).
	CollectGarbage()

	// EmptyCache releases cached-but-unused allocator blocks back to
	// the driver.
	EmptyCache()

	// Synchronize blocks until all queued device work has completed.
	Synchronize()

	// ResetPeakStats zeroes the allocator's peak/accumulated counters.
	ResetPeakStats()

	// ProbeAlloc allocates and immediately frees a minimal buffer,
	// forcing the allocator to coalesce free blocks it would otherwise
	// leave fragmented.
	ProbeAlloc()

	// SetMemoryFraction caps the fraction of total device memory the
	// allocator is permitted to reserve. A fraction of 1.0 removes the
	// cap.
	SetMemoryFraction(fraction float64)
}

// Governor drives C1's operations against an injected Allocator.
type Governor struct {
	alloc Allocator
	tier  Profile
}

// NewGovernor builds a Governor for a device classified into profile.
func NewGovernor(alloc Allocator, profile Profile) *Governor {
	return &Governor{alloc: alloc, tier: profile}
}

// NewGovernorForDevice builds a Governor straight from a discovered
// device.Info, classifying its tier internally rather than making the
// caller thread a raw VRAM figure through ClassifyTier itself.
func NewGovernorForDevice(alloc Allocator, info device.Info) *Governor {
	return NewGovernor(alloc, ClassifyDevice(info))
}

// Tier returns the GPU profile this governor was built with.
func (g *Governor) Tier() Profile { return g.tier }

// VRAMStatus reports the current allocator usage.
func (g *Governor) VRAMStatus() Usage {
	return g.alloc.Stats()
}

// ReleaseResult pairs the before/after usage of a ReleaseReserved call.
type ReleaseResult struct {
	Before Usage
	After  Usage
}

// ReleaseReserved runs the mandatory, ordered release procedure: garbage
// collect, empty the allocator cache, synchronize the device, reset
// peak/accumulated stats, probe-allocate to force coalescing, then
// collect and empty once more. Every step is mandatory and runs in this
// exact order.
func (g *Governor) ReleaseReserved() ReleaseResult {
	before := g.alloc.Stats()

	g.alloc.CollectGarbage()
	g.alloc.EmptyCache()
	g.alloc.Synchronize()
	g.alloc.ResetPeakStats()
	g.alloc.ProbeAlloc()
	g.alloc.CollectGarbage()
	g.alloc.EmptyCache()

	after := g.alloc.Stats()
	return ReleaseResult{Before: before, After: after}
}

// ResetPeak zeroes the allocator's peak-memory counter only, without
// running the full release procedure.
func (g *Governor) ResetPeak() {
	g.alloc.ResetPeakStats()
}

// RecommendedConfig bundles the governor's advice for driving a batch
// of a given size and resolution on this device's tier.
type RecommendedConfig struct {
	BlocksToSwap   int
	MemoryFraction float64
}

// RecommendConfig derives a recommendation from the active tier. When
// blockSwapRequested is false, no fraction cap is imposed — the
// governor must never cap memory for a model that isn't paging blocks,
// per the "requested but not configured" soft-warning rule.
func (g *Governor) RecommendConfig(blockSwapRequested bool, reservedBytes uint64) RecommendedConfig {
	cfg := RecommendedConfig{BlocksToSwap: g.tier.BlocksToSwap, MemoryFraction: 1.0}
	if !blockSwapRequested {
		return cfg
	}
	if reservedBytes < g.tier.MemoryReservedThreshold {
		cfg.MemoryFraction = g.tier.MemoryFractionHigh
	} else {
		cfg.MemoryFraction = g.tier.MemoryFractionLow
	}
	return cfg
}

// ApplyMemoryFraction sets or clears the allocator's memory-fraction
// cap. Callers restore 1.0 once inference completes.
func (g *Governor) ApplyMemoryFraction(fraction float64) {
	g.alloc.SetMemoryFraction(fraction)
}
