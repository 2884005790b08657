// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bogomalloc

import "go.uber.org/zap"

// logger backs every allocator's debug trace. It defaults to a no-op
// logger so that Allocate/Release pay nothing for logging unless an embedder
// opts in with SetLogger. This replaces the teacher's trace-bool-plus-
// fmt.Fprintf idiom with a structured equivalent.
var logger = zap.NewNop()

// SetLogger installs l as the package-wide debug logger. Passing nil
// restores the no-op logger. Not safe to call concurrently with
// allocation traffic; call it once during process startup.
func SetLogger(l *zap.Logger) {
	if l == nil {
		logger = zap.NewNop()
		return
	}
	logger = l
}
