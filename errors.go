// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bogomalloc

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for the conditions §7 classifies as expected and
// recoverable by the caller. Compare with errors.Is, never with ==, since
// ErrOutOfMemory may be wrapped with slab-acquisition context.
var (
	// ErrOutOfMemory is returned when the OS refuses a new slab mapping or
	// the slab registry has reached its configured capacity.
	ErrOutOfMemory = errors.New("bogomalloc: out of memory")

	// ErrInvalidArgument is returned for a zero or over-large request size.
	ErrInvalidArgument = errors.New("bogomalloc: invalid argument")
)

// A CorruptionError reports a violated allocator invariant detected by
// selfCheck, or by Allocate when a freshly mapped slab yields no fit. Per §7 there is no recovery path: the caller is expected to
// treat it as fatal, the same way the original C allocator's mm_check
// aborted via assert().
type CorruptionError struct {
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("bogomalloc: heap corruption detected: %s", e.Reason)
}

func corruptionf(format string, args ...interface{}) error {
	return errors.WithStack(&CorruptionError{Reason: fmt.Sprintf(format, args...)})
}
