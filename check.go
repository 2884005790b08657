// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bogomalloc

// DebugCheckEveryOp, when true, runs the full heap consistency walk
// (selfCheck) after every Allocate/Release call and returns a
// *CorruptionError the moment an invariant is violated, instead of
// letting corruption silently propagate. It costs O(heap size) per
// call, so it defaults to false and exists for tests and debug builds
// only — ported from the original implementation's mm_check().
var DebugCheckEveryOp = false

// selfCheck walks every slab in a's registry end to end, verifying:
//   - every block's header equals its footer (I1);
//   - every block's size is DWORD-aligned and >= MIN_BLOCK_SIZE (I7);
//   - no two physically adjacent blocks are both free (I5);
//   - the prologue and epilogue of every slab read as allocated (I3).
//
// It does not verify free-list membership (that would require an O(n)
// reverse index). Nothing else checks the lists either: scanClass only
// stops at a null link or a zero-size header.
func (a *Allocator) selfCheck() error {
	for _, base := range a.registry.bases {
		if err := checkSlab(base, a.maxBlockSize); err != nil {
			return err
		}
	}
	return nil
}

func checkSlab(base uintptr, maxBlockSize uint32) error {
	prologueBp := blockPtr(base + paddingSize + headerSize)
	if !blkIsAlloc(prologueBp) || blkSize(prologueBp) != prologueSize {
		return corruptionf("slab %#x: prologue is not a sentinel", base)
	}
	if loadWord(header(prologueBp)) != loadWord(footerAddr(prologueBp, prologueSize)) {
		return corruptionf("slab %#x: prologue header/footer mismatch", base)
	}

	prevFree := false // the prologue reads as allocated, so the first real block has no free predecessor.
	bp := nextPhysical(prologueBp)
	for {
		size := blkSize(bp)
		if size == 0 {
			// Reached the epilogue.
			if !blkIsAlloc(bp) {
				return corruptionf("slab %#x: epilogue is not allocated", base)
			}
			return nil
		}

		if size%dwordSize != 0 || size < minBlockSize {
			return corruptionf("slab %#x: block at %#x has invalid size %d", base, uintptr(bp), size)
		}

		h := loadWord(header(bp))
		f := loadWord(footerAddr(bp, size))
		if h != f {
			return corruptionf("slab %#x: block at %#x header/footer mismatch", base, uintptr(bp))
		}

		free := blkIsFree(bp)
		if free && prevFree {
			return corruptionf("slab %#x: adjacent free blocks at/around %#x", base, uintptr(bp))
		}
		prevFree = free

		bp = nextPhysical(bp)
	}
}
