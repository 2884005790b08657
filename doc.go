// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bogomalloc implements a single-threaded dynamic memory
// allocator that serves variable-sized allocation requests independently
// of the host platform's system allocator. It obtains memory from the OS
// in large fixed-size slabs via anonymous mmap and carves those slabs
// into variable-sized blocks using a segregated free-list, first-fit
// strategy with immediate boundary-tag coalescing and opportunistic slab
// return to the OS.
//
// The zero value of Allocator is not ready for use; construct one with
// NewAllocator, or use the package-level MMMalloc/MMFree pair, which
// lazily construct and share one process-wide singleton. Every exported
// method is synchronous and none are safe for concurrent use: the
// allocator is single-threaded by design, callers must serialize their
// own access.
//
// Changelog
//
// 2026-07-31 Ported from a fixed-size-slot slab allocator to a
// segregated free-list, first-fit, boundary-tag allocator with
// bidirectional coalescing and opportunistic slab return to the OS.
package bogomalloc
