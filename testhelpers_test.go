// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bogomalloc

import "testing"

// newTestAllocator builds a fresh *Allocator with a small SlabSize so
// tests can force slab growth/shrinkage without mapping gigabytes. The
// package-level configuration vars are restored when the test ends.
func newTestAllocator(t *testing.T, slabSize uint32, maxSlabs int) *Allocator {
	t.Helper()
	origSlab, origHeap, origTot, origCons := SlabSize, MaxTotalHeap, TotalThreshold, ConsecutiveThreshold
	SlabSize = slabSize
	MaxTotalHeap = uint64(slabSize) * uint64(maxSlabs)
	t.Cleanup(func() {
		SlabSize, MaxTotalHeap, TotalThreshold, ConsecutiveThreshold = origSlab, origHeap, origTot, origCons
	})
	return NewAllocator()
}

func requireEmpty(t *testing.T, a *Allocator) {
	t.Helper()
	st := a.Stats()
	if st.LiveAllocations != 0 || st.MappedSlabs != 0 || st.BytesFromOS != 0 {
		t.Fatalf("allocator not empty: %+v", st)
	}
}
