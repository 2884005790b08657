// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bogomalloc

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Allocator allocates and frees memory carved out of mmap'd slabs. It is
// not safe for concurrent use.
type Allocator struct {
	slabSize             uint32
	maxBlockSize         uint32
	maxTotalHeap         uint64
	totalThreshold       int
	consecutiveThreshold int

	fl       *freeLists
	registry *slabRegistry
	mem      map[uintptr][]byte // base -> the mmap'd region, kept for munmap.

	allocs           int
	mmaps            int
	bytesFromOS      uint64
	totalFrees       int
	consecutiveFrees int
}

// NewAllocator constructs an allocator, freezing the current values of
// SlabSize, MaxTotalHeap, TotalThreshold, and ConsecutiveThreshold.
// Changing those package vars afterwards does not affect this instance
// until Close resets it.
func NewAllocator() *Allocator {
	slabSize := SlabSize
	capacity := int(MaxTotalHeap / uint64(slabSize))
	if capacity < 1 {
		capacity = 1
	}
	return &Allocator{
		slabSize:             slabSize,
		maxBlockSize:         slabSize - adminOverheadPerSlab,
		maxTotalHeap:         MaxTotalHeap,
		totalThreshold:       TotalThreshold,
		consecutiveThreshold: ConsecutiveThreshold,
		fl:                   newFreeLists(),
		registry:             newSlabRegistry(capacity),
		mem:                  make(map[uintptr][]byte),
	}
}

// MaxBlockSize reports the size of a fresh slab's entire usable region,
// i.e. the largest block. Block sizes include the 24-byte per-block
// overhead, so the largest request Allocate accepts is MaxBlockSize()-24.
func (a *Allocator) MaxBlockSize() int { return int(a.maxBlockSize) }

// Allocate requests n bytes of uninitialized, DWORD-aligned memory
// (§4.6). It returns ErrInvalidArgument for n <= 0 or when n plus the
// block overhead, rounded up to a multiple of 8, exceeds MaxBlockSize,
// and ErrOutOfMemory (optionally wrapped with the
// underlying OS error) if a new slab cannot be mapped.
func (a *Allocator) Allocate(n int) (unsafe.Pointer, error) {
	if n <= 0 || uint64(n) > uint64(a.maxBlockSize) {
		return nil, ErrInvalidArgument
	}

	asize := alignUp(uint32(n)+overhead, dwordSize)
	if asize > a.maxBlockSize {
		return nil, ErrInvalidArgument
	}

	bp := a.fl.findFit(asize, a.maxBlockSize)
	if !bp.valid() {
		if err := a.requestMore(); err != nil {
			return nil, err
		}
		bp = a.fl.findFit(asize, a.maxBlockSize)
		if !bp.valid() {
			return nil, corruptionf("freshly mapped slab did not yield a fit for %d bytes", asize)
		}
	}

	a.place(bp, asize)
	a.allocs++
	a.consecutiveFrees = 0
	logger.Debug("allocate", zap.Int("n", n), zap.Uint32("asize", asize), zap.Uintptr("bp", uintptr(bp)))

	if DebugCheckEveryOp {
		if err := a.selfCheck(); err != nil {
			return nil, err
		}
	}
	return unsafe.Pointer(uintptr(bp)), nil
}

// place carves asize bytes off the front of bp, splitting off and
// re-listing the remainder when it is large enough to hold its own
// bookkeeping (§4.6).
func (a *Allocator) place(bp blockPtr, asize uint32) {
	a.fl.unlink(bp)
	size := blkSize(bp)
	if size-asize >= overhead {
		setBlock(bp, asize, 1)
		rem := nextPhysical(bp)
		setBlock(rem, size-asize, 0)
		a.fl.pushFront(rem)
		return
	}
	setBlock(bp, size, 1)
}

// Release returns a block previously obtained from Allocate back to the
// allocator (§4.7). Releasing nil is a no-op; releasing anything else
// not obtained from Allocate, or already released, is undefined
// behavior per §7 and is not detected.
func (a *Allocator) Release(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}

	bp := blockPtr(uintptr(p))
	setBlock(bp, blkSize(bp), 0)
	bp = a.coalesce(bp)
	a.fl.pushFront(bp)

	a.allocs--
	a.totalFrees++
	a.consecutiveFrees++
	logger.Debug("release", zap.Uintptr("bp", uintptr(bp)))

	if a.totalThreshold > 0 && a.totalFrees%a.totalThreshold == 0 ||
		a.consecutiveThreshold > 0 && a.consecutiveFrees%a.consecutiveThreshold == 0 {
		// Every mapped slab is examined, not only bp's, so a slab that
		// became wholly free between two checks is still returned.
		bases := append([]uintptr(nil), a.registry.bases...)
		for _, base := range bases {
			if err := a.maybeUnmapSlab(base); err != nil {
				return err
			}
		}
	}

	if DebugCheckEveryOp {
		return a.selfCheck()
	}
	return nil
}

// coalesce merges bp with any free physical neighbours (§4.7) and
// returns the resulting block pointer. Prologue and epilogue sentinels
// always read as allocated, so the walk never needs special-casing at
// slab boundaries (§4.7, §9).
func (a *Allocator) coalesce(bp blockPtr) blockPtr {
	prev := prevPhysical(bp)
	next := nextPhysical(bp)
	prevFree := blkIsFree(prev)
	nextFree := blkIsFree(next)

	switch {
	case !prevFree && !nextFree:
		return bp
	case !prevFree && nextFree:
		a.fl.unlink(next)
		setBlock(bp, blkSize(bp)+blkSize(next), 0)
		return bp
	case prevFree && !nextFree:
		a.fl.unlink(prev)
		setBlock(prev, blkSize(prev)+blkSize(bp), 0)
		return prev
	default:
		a.fl.unlink(prev)
		a.fl.unlink(next)
		setBlock(prev, blkSize(prev)+blkSize(bp)+blkSize(next), 0)
		return prev
	}
}

// requestMore maps a fresh slab, initializes it into prologue +
// single-free-block + epilogue, and lists the free block (§4.8).
func (a *Allocator) requestMore() error {
	if a.registry.len() == cap(a.registry.bases) {
		return errors.Wrap(ErrOutOfMemory, "slab registry at capacity")
	}
	if uint64(a.registry.len()+1)*uint64(a.slabSize) > a.maxTotalHeap {
		return errors.Wrap(ErrOutOfMemory, "max total heap would be exceeded")
	}

	base, mem, err := mapSlab(a.slabSize)
	if err != nil {
		return errors.Wrap(ErrOutOfMemory, err.Error())
	}

	bp := initSlab(base, a.maxBlockSize)
	if err := a.registry.add(base); err != nil {
		_ = unmapSlab(base, mem)
		return err
	}

	a.mem[base] = mem
	a.fl.pushFront(bp)
	a.mmaps++
	a.bytesFromOS += uint64(a.slabSize)
	logSlabEvent("map_slab", base, a.slabSize)
	return nil
}

// maybeUnmapSlab examines base's first usable block and, if it is a
// single free block covering the whole usable region, unmaps the slab
// (§4.8). Any other state means the slab still has live allocations.
func (a *Allocator) maybeUnmapSlab(base uintptr) error {
	bp := firstUsableBlock(base)
	if blkIsFree(bp) && blkSize(bp) == a.maxBlockSize {
		a.fl.unlink(bp)
		mem := a.mem[base]
		if err := unmapSlab(base, mem); err != nil {
			return err
		}
		delete(a.mem, base)
		a.registry.remove(base)
		a.mmaps--
		a.bytesFromOS -= uint64(a.slabSize)
		logSlabEvent("unmap_slab", base, a.slabSize)
	}
	return nil
}

// Close unmaps every slab still held by a and resets it to a fresh,
// empty state, built as NewAllocator does from the current values of the
// package configuration vars. It is not necessary to Close an Allocator when exiting a
// process.
func (a *Allocator) Close() error {
	var first error
	for base, mem := range a.mem {
		if err := unmapSlab(base, mem); err != nil && first == nil {
			first = err
		}
	}
	*a = *NewAllocator()
	return first
}

// Process-wide singleton (§2, §9), lazily initialized on first use.
var (
	defaultOnce  sync.Once
	defaultAlloc *Allocator
)

// Default returns the process-wide allocator singleton, constructing it
// on first call from the current SlabSize/MaxTotalHeap/TotalThreshold/
// ConsecutiveThreshold values.
func Default() *Allocator {
	defaultOnce.Do(func() {
		defaultAlloc = NewAllocator()
	})
	return defaultAlloc
}

// MMMalloc is the C-style entry point (§6): it returns a DWORD-aligned
// pointer to at least size writable bytes from the default allocator, or
// nil on failure. size == 0 returns nil.
func MMMalloc(size int) unsafe.Pointer {
	p, err := Default().Allocate(size)
	if err != nil {
		return nil
	}
	return p
}

// MMFree is the C-style entry point (§6): it accepts a pointer
// previously returned by MMMalloc and not yet freed. Passing any other
// value is undefined behavior.
func MMFree(p unsafe.Pointer) {
	_ = Default().Release(p)
}
