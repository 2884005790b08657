// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.
// Modifications (c) 2026 bogoMalloc authors: switched from raw syscall to
// golang.org/x/sys/windows, mirroring the Unix side's move off of
// syscall.Mmap onto golang.org/x/sys/unix.

package bogomalloc

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// mmap on Windows is a two-step process.
// First, we call CreateFileMapping to get a handle.
// Then, we call MapViewOfFile to get an actual pointer into memory.

// handleMap lets munmap0 recover the CreateFileMapping handle backing a
// given base address; UnmapViewOfFile only takes the mapped address.
var handleMap = map[uintptr]windows.Handle{}

func mmap0(size int) ([]byte, error) {
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, uint32(size), nil)
	if err != nil {
		return nil, errors.Wrap(err, "CreateFileMapping")
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(h)
		return nil, errors.Wrap(err, "MapViewOfFile")
	}

	if addr&uintptr(osPageMask) != 0 {
		panic("internal error: mmap returned a non-page-aligned address")
	}

	handleMap[addr] = h
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func munmap0(base uintptr, mem []byte) error {
	// UnmapViewOfFile only takes the view's address; the mapping handle
	// recorded by mmap0 is looked up and closed after the view is gone.
	if err := windows.UnmapViewOfFile(base); err != nil {
		return errors.Wrap(err, "UnmapViewOfFile")
	}

	h, ok := handleMap[base]
	if !ok {
		// should be impossible; we would've errored above
		return errors.New("bogomalloc: unknown base address")
	}
	delete(handleMap, base)

	return errors.Wrap(windows.CloseHandle(h), "CloseHandle")
}
