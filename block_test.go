// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bogomalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackWord(t *testing.T) {
	w := packWord(128, 1)
	assert.Equal(t, uint32(128), sizeOf(w))
	assert.Equal(t, uint32(1), allocOf(w))

	w = packWord(256, 0)
	assert.Equal(t, uint32(256), sizeOf(w))
	assert.Equal(t, uint32(0), allocOf(w))
}

func TestAlignUp(t *testing.T) {
	cases := []struct{ n, m, want uint32 }{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{17, 8, 24},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, alignUp(c.n, c.m), "alignUp(%d,%d)", c.n, c.m)
	}
}

// TestFreelistIdxIdempotent is testable property 7:
// freelist_idx(class_min_size(i)) == i for every valid i. Block sizes are
// uint32, so the valid classes are 0..27: classMinSize(28) = 24<<28 no
// longer fits in a uint32.
func TestFreelistIdxIdempotent(t *testing.T) {
	for i := 0; i < 28; i++ {
		size := classMinSize(i)
		assert.Equal(t, i, freelistIdx(size), "class %d", i)
	}
}

func TestFreelistIdxBucketBoundaries(t *testing.T) {
	assert.Equal(t, 0, freelistIdx(minBlockSize))
	assert.Equal(t, 0, freelistIdx(2*minBlockSize-dwordSize))
	assert.Equal(t, 1, freelistIdx(2*minBlockSize))
	assert.Equal(t, 1, freelistIdx(4*minBlockSize-dwordSize))
	assert.Equal(t, 2, freelistIdx(4*minBlockSize))
}

func TestBlockLayoutWalksSlab(t *testing.T) {
	a := newTestAllocator(t, 4096, 4)
	defer a.Close()

	if err := a.requestMore(); err != nil {
		t.Fatal(err)
	}
	base := a.registry.bases[0]

	prologueBp := blockPtr(base + paddingSize + headerSize)
	assert.True(t, blkIsAlloc(prologueBp))
	assert.EqualValues(t, prologueSize, blkSize(prologueBp))

	usableBp := nextPhysical(prologueBp)
	assert.Equal(t, firstUsableBlock(base), usableBp)
	assert.True(t, blkIsFree(usableBp))
	assert.EqualValues(t, a.maxBlockSize, blkSize(usableBp))

	epilogueBp := nextPhysical(usableBp)
	assert.True(t, blkIsAlloc(epilogueBp))
	assert.EqualValues(t, 0, blkSize(epilogueBp))

	// Walking back from the epilogue must land exactly on the usable
	// block, and walking back from there must land on the prologue.
	assert.Equal(t, usableBp, prevPhysical(epilogueBp))
	assert.Equal(t, prologueBp, prevPhysical(usableBp))
}
