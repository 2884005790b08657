// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bogomalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlabRegistryAddRemove(t *testing.T) {
	r := newSlabRegistry(3)
	require.NoError(t, r.add(0x1000))
	require.NoError(t, r.add(0x2000))
	require.NoError(t, r.add(0x3000))
	assert.Equal(t, 3, r.len())

	require.Error(t, r.add(0x4000), "registry at capacity must reject further adds")

	assert.True(t, r.remove(0x2000))
	assert.Equal(t, 2, r.len())
	assert.False(t, r.remove(0x2000), "removing twice must report not-found")

	require.NoError(t, r.add(0x4000), "slot freed by remove must be reusable")
	assert.Equal(t, 3, r.len())
}

func TestSlabRegistrySlabOf(t *testing.T) {
	const slabSize = 0x10000 // the two slabs below are adjacent.
	r := newSlabRegistry(2)
	require.NoError(t, r.add(0x10000))
	require.NoError(t, r.add(0x20000))

	cases := []struct {
		ptr      uintptr
		wantBase uintptr
		wantOK   bool
	}{
		{0x10000, 0x10000, true},
		{0x10000 + slabSize - 1, 0x10000, true},
		{0x10000 + slabSize, 0x20000, true},
		{0x20000 + slabSize, 0, false},
		{0xff, 0, false},
	}
	for _, c := range cases {
		base, ok := r.slabOf(c.ptr, slabSize)
		assert.Equal(t, c.wantOK, ok, "ptr %x", c.ptr)
		if c.wantOK {
			assert.Equal(t, c.wantBase, base, "ptr %x", c.ptr)
		}
	}
}

func TestSlabRegistryMinCapacityOne(t *testing.T) {
	r := newSlabRegistry(0)
	require.NoError(t, r.add(0x10000))
	assert.Error(t, r.add(0x20000))
}
