// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bogomalloc

import "github.com/cznic/mathutil"

// freelistIdx returns the size class for a block of size s (§4.3):
// class i covers [MIN_BLOCK_SIZE<<i, MIN_BLOCK_SIZE<<(i+1)), so that
// class 0 is exactly [MIN_BLOCK_SIZE, 2*MIN_BLOCK_SIZE). Computed with
// mathutil.BitLen the same way the teacher buckets its own size-class
// index from a byte count, rather than a floating-point log2.
//
// freelistIdx(classMinSize(i)) == i for every valid i, that is i <= 27,
// the classes whose minimum size fits in a uint32 (testable property
// 7): classMinSize(i)/MIN_BLOCK_SIZE == 1<<i exactly, and
// BitLen(1<<i)-1 == i.
func freelistIdx(size uint32) int {
	if size <= minBlockSize {
		return 0
	}
	q := size / minBlockSize
	idx := mathutil.BitLen(int(q)) - 1
	if idx >= numFreeLists {
		idx = numFreeLists - 1
	}
	return idx
}

// classMinSize is the inverse of freelistIdx: the smallest size
// belonging to class i.
func classMinSize(i int) uint32 { return uint32(minBlockSize) << uint(i) }

// freeLists is the segregated free-list array (§3, §4.4): one
// doubly-linked list head per size class, null when empty.
type freeLists struct {
	heads        [numFreeLists]blockPtr
	lastFreedCls int // the most-recently-freed class cache (§9); -1 when none.
}

func newFreeLists() *freeLists {
	return &freeLists{lastFreedCls: -1}
}

// pushFront inserts bp at the head of its size class's list (§4.4).
func (fl *freeLists) pushFront(bp blockPtr) {
	cls := freelistIdx(blkSize(bp))
	head := fl.heads[cls]
	setNextInList(bp, head)
	setPrevInList(bp, nullBlock)
	if head.valid() {
		setPrevInList(head, bp)
	}
	fl.heads[cls] = bp
	fl.lastFreedCls = cls
}

// unlink splices bp out of its size class's list (§4.4). bp's size must
// not have been changed since it was last pushed.
func (fl *freeLists) unlink(bp blockPtr) {
	cls := freelistIdx(blkSize(bp))
	prev := prevInList(bp)
	next := nextInList(bp)
	if !prev.valid() {
		fl.heads[cls] = next
	} else {
		setNextInList(prev, next)
	}
	if next.valid() {
		setPrevInList(next, prev)
	}
}

// findFit searches for the first free block of size >= asize (§4.5). It
// first probes the most-recently-freed class cache as a heuristic, then
// falls back to a first-fit scan from freelistIdx(asize) upward.
func (fl *freeLists) findFit(asize uint32, maxBlockSize uint32) blockPtr {
	if asize > maxBlockSize {
		return nullBlock
	}

	if fl.lastFreedCls >= 0 {
		if bp := fl.scanClass(fl.lastFreedCls, asize); bp.valid() {
			return bp
		}
	}

	start := freelistIdx(asize)
	for cls := start; cls < numFreeLists; cls++ {
		if bp := fl.scanClass(cls, asize); bp.valid() {
			return bp
		}
	}
	return nullBlock
}

// scanClass walks class cls first-fit, returning the first block whose
// size >= asize, or null. The walk stops at a null link or a zero-size
// header (sentinel safety, §4.5).
func (fl *freeLists) scanClass(cls int, asize uint32) blockPtr {
	for bp := fl.heads[cls]; bp.valid(); bp = nextInList(bp) {
		size := blkSize(bp)
		if size == 0 {
			break
		}
		if size >= asize {
			return bp
		}
	}
	return nullBlock
}
