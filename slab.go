// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bogomalloc

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Configuration surface (§6). Every Allocator copies these into its own
// fields when it is constructed (NewAllocator, or the singleton's first
// use through Default/MMMalloc/MMFree), so changing the package vars
// afterwards has no effect on allocators already constructed.
var (
	// SlabSize is the fixed size of every region requested from the OS.
	// Default: align_up(UINT32_MAX-DWORD, DWORD), i.e. the largest size
	// whose blocks' sizes still fit in a WORD.
	SlabSize = alignUp(uint32max-dwordSize, dwordSize)

	// MaxTotalHeap bounds how many slabs the allocator may have mapped
	// at once; the slab registry is sized to MaxTotalHeap/SlabSize
	// entries.
	MaxTotalHeap uint64 = 1 << 40

	// TotalThreshold: every TotalThreshold-th release() call anywhere in
	// the allocator triggers a maybeUnmapSlab check of every mapped slab
	// (§4.7 step 6).
	TotalThreshold = 100

	// ConsecutiveThreshold: every ConsecutiveThreshold-th release() call
	// in a row without an intervening allocate() also triggers the
	// check.
	ConsecutiveThreshold = 10
)

const uint32max = 1<<32 - 1

// slabRegistry tracks the base addresses of every slab currently mapped
// by one Allocator. Entries are kept compact (valid entries occupy
// indices [0, n)) as required by §4.1; capacity is fixed at construction.
type slabRegistry struct {
	bases []uintptr
}

func newSlabRegistry(capacity int) *slabRegistry {
	if capacity < 1 {
		capacity = 1
	}
	return &slabRegistry{bases: make([]uintptr, 0, capacity)}
}

func (r *slabRegistry) add(base uintptr) error {
	if len(r.bases) == cap(r.bases) {
		return errors.Wrap(ErrOutOfMemory, "slab registry full")
	}
	r.bases = append(r.bases, base)
	return nil
}

// remove deletes base from the registry, compacting trailing entries
// forward (§4.8).
func (r *slabRegistry) remove(base uintptr) bool {
	for i, b := range r.bases {
		if b == base {
			copy(r.bases[i:], r.bases[i+1:])
			r.bases = r.bases[:len(r.bases)-1]
			return true
		}
	}
	return false
}

// slabOf returns the largest registered base <= ptr such that ptr lies
// in [base, base+slabSize). Returns (0, false) if no such base exists.
// A linear scan, per §4.1: "the registry is small."
func (r *slabRegistry) slabOf(ptr uintptr, slabSize uint32) (uintptr, bool) {
	var best uintptr
	found := false
	for _, b := range r.bases {
		if b <= ptr && (!found || b > best) {
			best = b
			found = true
		}
	}
	if !found || ptr >= best+uintptr(slabSize) {
		return 0, false
	}
	return best, true
}

func (r *slabRegistry) len() int { return len(r.bases) }

// mapSlab requests size fresh, zero-filled bytes of anonymous read/write
// memory from the OS (§4.1). On success the base is NOT yet registered;
// callers add it once the slab has been initialized, so a failure
// between mmap and initialization cannot leave a half-initialized slab
// reachable from slabOf.
func mapSlab(size uint32) (uintptr, []byte, error) {
	b, err := mmap0(int(size))
	if err != nil {
		return 0, nil, errors.Wrap(err, "bogomalloc: map_region failed")
	}
	return uintptrOf(b), b, nil
}

// unmapSlab releases a previously mapped slab.
func unmapSlab(base uintptr, mem []byte) error {
	if err := munmap0(base, mem); err != nil {
		return errors.Wrap(err, "bogomalloc: unmap_region failed")
	}
	return nil
}

func logSlabEvent(op string, base uintptr, size uint32) {
	logger.Debug(op, zap.Uintptr("base", base), zap.Uint32("size", size))
}
