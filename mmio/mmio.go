// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package mmio abstracts access to 32-bit memory mapped registers.
//
// Peripheral drivers accept a Device rather than dereferencing physical
// addresses directly, so the same driver runs against real hardware, a
// register-level simulator or an in-memory test device.
package mmio

// Device provides atomic, ordered access to 32-bit memory mapped registers.
// Implementations are not required to be safe for concurrent use; the
// drivers in this repository are single threaded by contract.
type Device interface {
	// Read32 returns the word at the given physical address.
	Read32(addr uint32) uint32
	// Write32 stores a word at the given physical address.
	Write32(addr uint32, val uint32)
}
