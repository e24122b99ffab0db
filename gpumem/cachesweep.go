package gpumem

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// CacheHolder is implemented by any component that owns a sweepable
// cache (the RoPE frequency cache, a future per-module cache). Clearing
// a cache sweep means calling ClearCache on every registered holder —
// there is no attribute-name denylist to get wrong, because nothing
// outside a CacheHolder's own fields is ever touched. This realizes the
// "closed set at the type level, not a string denylist" requirement:
// essential module state (parameters, buffers, the block-swap
// residency fields) simply never implements this interface, so a sweep
// can never reach it.
type CacheHolder interface {
	ClearCache()
}

// ClearCaches sweeps every registered cache holder concurrently — each
// holder's ClearCache is independent CPU-side bookkeeping, so there is
// no need to serialize them — and only then empties the allocator,
// matching the ordering of the source's clear_all_caches: module-local
// caches first, allocator last (GPU submission itself stays strictly
// serial; nothing here touches the device).
func (g *Governor) ClearCaches(holders ...CacheHolder) {
	var eg errgroup.Group
	for _, h := range holders {
		h := h
		eg.Go(func() error {
			h.ClearCache()
			return nil
		})
	}
	_ = eg.Wait()
	g.alloc.EmptyCache()
}

// ClearCachesContext is ClearCaches' cancellation-aware variant, used
// when a caller wants a sweep to respect ctx (the generation loop calls
// this between batches so a cancellation doesn't have to wait out a
// slow cache holder).
func (g *Governor) ClearCachesContext(ctx context.Context, holders ...CacheHolder) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, h := range holders {
		h := h
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			h.ClearCache()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	g.alloc.EmptyCache()
	return nil
}

// FastModelCleanup is a best-effort sweep of holders: a panic from a
// holder is logged as a soft warning and swallowed, so the caller
// continues. No code path in this module calls it; the sampler loop
// does not run it between steps.
func (g *Governor) FastModelCleanup(holders ...CacheHolder) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("fast model cleanup failed, continuing", "panic", r)
		}
	}()
	for _, h := range holders {
		h.ClearCache()
	}
}

// FastRAMCleanup is FastModelCleanup's host-RAM counterpart: a
// best-effort garbage collection pass that never fails the caller.
func (g *Governor) FastRAMCleanup() {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("fast RAM cleanup failed, continuing", "panic", r)
		}
	}()
	g.alloc.CollectGarbage()
}
