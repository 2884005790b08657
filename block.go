// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bogomalloc

import (
	"os"
	"unsafe"
)

// Boundary-tag constants (§3). A block's header and footer are each one
// WORD; the free-list links that live in a free block's payload area are
// each one pointer-sized LINK.
const (
	wordSize   = 4 // WORD: header/footer tag size.
	dwordSize  = 8 // DWORD: alignment granularity for sizes and payloads.
	linkSize   = 8 // LINK_SIZE: one pointer.
	headerSize = wordSize
	footerSize = wordSize

	// MIN_BLOCK_SIZE = HEADER + FOOTER + 2*LINK, DWORD-aligned.
	minBlockSize = headerSize + footerSize + 2*linkSize // 24
	overhead     = minBlockSize

	paddingSize  = wordSize    // one WORD of alignment padding at slab start.
	prologueSize = overhead   // the prologue block's size.
	epilogueSize = headerSize // the epilogue is a bare header, no footer.

	// ADMIN_OVERHEAD_PER_SLAB covers slab padding, prologue, and epilogue.
	adminOverheadPerSlab = paddingSize + prologueSize + epilogueSize // 32

	allocBitMask = 0x1
	sizeMask     = ^uint32(0x7)

	// numFreeLists bounds the size-class array. freelistIdx is clamped
	// into [0, numFreeLists-1]; 64 classes comfortably covers every
	// size-class a 64-bit address space can produce (mirrors the
	// teacher's own fixed [64]* arrays).
	numFreeLists = 64
)

var (
	osPageSize = os.Getpagesize()
	osPageMask = osPageSize - 1
)

// alignUp rounds n up to the next multiple of m. m must be a power of two.
func alignUp(n, m uint32) uint32 { return (n + m - 1) &^ (m - 1) }

// blockPtr is a block pointer (bp): the address of the first byte after
// a block's header, i.e. the payload/link-area start. It is deliberately
// a bare uintptr, not a typed Go pointer: the memory it addresses lives
// in OS-mapped slabs outside the Go heap and the garbage collector must
// never be asked to trace through it.
type blockPtr uintptr

const nullBlock blockPtr = 0

func (p blockPtr) valid() bool { return p != nullBlock }

func loadWord(addr uintptr) uint32    { return *(*uint32)(unsafe.Pointer(addr)) }
func storeWord(addr uintptr, v uint32) { *(*uint32)(unsafe.Pointer(addr)) = v }
func loadLink(addr uintptr) uintptr    { return *(*uintptr)(unsafe.Pointer(addr)) }
func storeLink(addr uintptr, v uintptr) { *(*uintptr)(unsafe.Pointer(addr)) = v }

// packWord packs size and the allocation bit into one boundary-tag WORD.
// Precondition: size%DWORD == 0.
func packWord(size uint32, alloc uint32) uint32 { return size | (alloc & allocBitMask) }

func sizeOf(word uint32) uint32  { return word & sizeMask }
func allocOf(word uint32) uint32 { return word & allocBitMask }

// header returns the address of bp's header WORD.
func header(p blockPtr) uintptr { return uintptr(p) - headerSize }

// footerAddr returns the address of the footer WORD for a block at bp
// whose size is size.
func footerAddr(p blockPtr, size uint32) uintptr {
	return uintptr(p) + uintptr(size) - headerSize - footerSize
}

func headerWord(p blockPtr) uint32 { return loadWord(header(p)) }

func blkSize(p blockPtr) uint32   { return sizeOf(headerWord(p)) }
func blkIsAlloc(p blockPtr) bool  { return allocOf(headerWord(p)) != 0 }
func blkIsFree(p blockPtr) bool   { return !blkIsAlloc(p) }

// setBlock writes size and the allocation bit into both the header and
// the footer (I1: the two must always agree).
func setBlock(p blockPtr, size uint32, alloc uint32) {
	w := packWord(size, alloc)
	storeWord(header(p), w)
	storeWord(footerAddr(p, size), w)
}

// nextPhysical returns the block pointer physically following p.
func nextPhysical(p blockPtr) blockPtr {
	return blockPtr(header(p) + uintptr(blkSize(p)) + headerSize)
}

// prevPhysical returns the block pointer physically preceding p, read
// via the WORD at header(p)-FOOTER_SIZE (the preceding block's footer).
func prevPhysical(p blockPtr) blockPtr {
	prevSize := sizeOf(loadWord(header(p) - footerSize))
	return blockPtr(uintptr(p) - uintptr(prevSize))
}

// Free-list link accessors. Valid only while the block is free (§4.2);
// callers must never read these on an allocated block, since that
// memory belongs to the caller's payload.
func nextLinkAddr(p blockPtr) uintptr { return header(p) + headerSize }
func prevLinkAddr(p blockPtr) uintptr { return header(p) + headerSize + linkSize }

func nextInList(p blockPtr) blockPtr     { return blockPtr(loadLink(nextLinkAddr(p))) }
func prevInList(p blockPtr) blockPtr     { return blockPtr(loadLink(prevLinkAddr(p))) }
func setNextInList(p blockPtr, v blockPtr) { storeLink(nextLinkAddr(p), uintptr(v)) }
func setPrevInList(p blockPtr, v blockPtr) { storeLink(prevLinkAddr(p), uintptr(v)) }

// uintptrOf returns the address of b's first byte.
func uintptrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// byteSliceAt reconstructs a []byte view of the n bytes starting at
// base, for handing back to the OS unmap call.
func byteSliceAt(base uintptr, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(base)), n)
}

// initSlab lays out the prologue, the single initial free block, and the
// epilogue inside a freshly mapped slab (§3). It returns the block
// pointer of the initial free block, not yet linked into any free list.
func initSlab(base uintptr, maxBlockSize uint32) blockPtr {
	prologueBp := blockPtr(base + paddingSize + headerSize)
	setBlock(prologueBp, prologueSize, 1)

	usableBp := nextPhysical(prologueBp)
	setBlock(usableBp, maxBlockSize, 0)

	epilogueBp := nextPhysical(usableBp)
	storeWord(header(epilogueBp), packWord(0, 1))

	return usableBp
}

// firstUsableBlock returns the block pointer of the slab's first usable
// block, independent of its current size or allocation state. Used by
// maybeUnmapSlab (§4.8) to test whether a slab has collapsed back to a
// single MAX_BLOCK_SIZE free block.
func firstUsableBlock(base uintptr) blockPtr {
	return blockPtr(base + paddingSize + headerSize + prologueSize)
}
