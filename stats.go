// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bogomalloc

// Stats reports read-only allocator instrumentation, ported from the
// original implementation's mem_heap_hi/mem_heap_lo high-water-mark
// counters and the teacher's own allocs/mmaps/bytes fields. Not wired to
// any metrics system (§6: no CLI/metrics surface); a plain snapshot
// struct is all an embedder needs for diagnostics or the property tests.
type Stats struct {
	LiveAllocations int    // net Allocate calls minus Release calls.
	MappedSlabs     int    // slabs currently mapped.
	BytesFromOS     uint64 // bytes currently mapped, SlabSize*MappedSlabs.
	TotalFrees      int    // cumulative Release calls.
}

// Stats returns a snapshot of a's current bookkeeping counters.
func (a *Allocator) Stats() Stats {
	return Stats{
		LiveAllocations: a.allocs,
		MappedSlabs:     a.mmaps,
		BytesFromOS:     a.bytesFromOS,
		TotalFrees:      a.totalFrees,
	}
}
