// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package testonly provides support for driver tests.
package testonly

import (
	"testing"
)

// Access records a single register access.
type Access struct {
	Addr  uint32
	Val   uint32
	Write bool
}

// MemDev is a simple in-memory register file. Writes land in Regs and reads
// come back from Regs, except for addresses with queued values, which behave
// like hardware-fed FIFOs: each read pops the next queued word, and plain
// register semantics resume once the queue drains.
//
// Every access is appended to Log, so tests can assert on issue order.
type MemDev struct {
	Regs map[uint32]uint32
	Log  []Access

	// OnWrite is called just after a register has been written.
	OnWrite func(addr, val uint32)

	queue map[uint32][]uint32
}

// NewMemDev creates a new in-memory register file.
func NewMemDev(t *testing.T) *MemDev {
	t.Helper()
	return &MemDev{
		Regs:  make(map[uint32]uint32),
		queue: make(map[uint32][]uint32),
	}
}

// Queue appends words to the read queue for the given address.
func (md *MemDev) Queue(addr uint32, vals ...uint32) {
	md.queue[addr] = append(md.queue[addr], vals...)
}

func (md *MemDev) Read32(addr uint32) uint32 {
	val, ok := md.Regs[addr]
	if q := md.queue[addr]; len(q) > 0 {
		val, md.queue[addr] = q[0], q[1:]
	} else if !ok {
		val = 0
	}
	md.Log = append(md.Log, Access{Addr: addr, Val: val})
	return val
}

func (md *MemDev) Write32(addr uint32, val uint32) {
	md.Regs[addr] = val
	md.Log = append(md.Log, Access{Addr: addr, Val: val, Write: true})
	if md.OnWrite != nil {
		md.OnWrite(addr, val)
	}
}

// Writes returns the ordered write accesses seen so far.
func (md *MemDev) Writes() []Access {
	var w []Access
	for _, a := range md.Log {
		if a.Write {
			w = append(w, a)
		}
	}
	return w
}

// Reads returns the ordered read accesses of the given address.
func (md *MemDev) Reads(addr uint32) []Access {
	var r []Access
	for _, a := range md.Log {
		if !a.Write && a.Addr == addr {
			r = append(r, a)
		}
	}
	return r
}
