//go:build !linux && !windows
// +build !linux,!windows

// File: core/slab/region_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package slab

import "errors"

var errNoRegionBackend = errors.New("slab: no region backend on this platform")

// Platforms without a mapping backend fall back to heap slabs.
func mapRegion(length int) ([]byte, error) {
	return nil, errNoRegionBackend
}

func unmapRegion(mem []byte) error {
	return nil
}
