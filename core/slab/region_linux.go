//go:build linux
// +build linux

// File: core/slab/region_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux backing via anonymous private mappings.

package slab

import "golang.org/x/sys/unix"

func mapRegion(length int) ([]byte, error) {
	return unix.Mmap(-1, 0, length,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
}

func unmapRegion(mem []byte) error {
	return unix.Munmap(mem)
}
