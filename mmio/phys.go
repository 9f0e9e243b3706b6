// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

//go:build tamago
// +build tamago

package mmio

import (
	"unsafe"
)

// Phys accesses registers through their physical addresses, for bare metal
// use under `GOOS=tamago`.
type Phys struct{}

func (Phys) Read32(addr uint32) uint32 {
	return *(*uint32)(unsafe.Pointer(uintptr(addr)))
}

func (Phys) Write32(addr uint32, val uint32) {
	*(*uint32)(unsafe.Pointer(uintptr(addr))) = val
}
