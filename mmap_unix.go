// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// +build darwin dragonfly freebsd linux openbsd solaris netbsd

// Modifications (c) 2017 The Memory Authors.
// Modifications (c) 2026 bogoMalloc authors: switched from raw syscall to
// golang.org/x/sys/unix, and to private (not shared) anonymous mappings
// since a slab is never inherited across fork/exec.

package bogomalloc

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func mmap0(size int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, err
	}

	if uintptr(unsafe.Pointer(&b[0]))&uintptr(osPageMask) != 0 {
		panic("internal error: mmap returned a non-page-aligned address")
	}

	return b, nil
}

func munmap0(base uintptr, mem []byte) error {
	return unix.Munmap(mem)
}
