//go:build windows
// +build windows

// File: core/slab/region_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows backing via VirtualAlloc committed pages.

package slab

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func mapRegion(length int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(length),
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length), nil
}

func unmapRegion(mem []byte) error {
	return windows.VirtualFree(uintptr(unsafe.Pointer(&mem[0])), 0, windows.MEM_RELEASE)
}
