// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package entropy

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/venkatk-ot/opentitan/hardened"
	"github.com/venkatk-ot/opentitan/mmio/testonly"
)

func TestCSRNGConfigure(t *testing.T) {
	md := testonly.NewMemDev(t)
	c := &CSRNG{Dev: md, Base: CSRNGBase}

	c.Configure()

	want := []testonly.Access{
		// Enable, software application interface and internal state
		// readback, all canonical true.
		{Addr: CSRNGBase + CSRNGCtrl, Val: 0x666, Write: true},
	}
	if diff := cmp.Diff(want, md.Writes()); diff != "" {
		t.Fatalf("write trace diff: %s", diff)
	}
}

func TestCSRNGCheck(t *testing.T) {
	for _, test := range []struct {
		name    string
		ctrl    uint32
		wantErr error
	}{
		{"enabled", 0x666, nil},
		{"reset value", CSRNGCtrlResval, ErrRecoverable},
		{"invalid encoding", 0x660, ErrRecoverable},
	} {
		t.Run(test.name, func(t *testing.T) {
			md := testonly.NewMemDev(t)
			md.Regs[CSRNGBase+CSRNGCtrl] = test.ctrl

			c := &CSRNG{Dev: md, Base: CSRNGBase}
			if err := c.Check(); !errors.Is(err, test.wantErr) {
				t.Fatalf("Check: %v, want %v", err, test.wantErr)
			}
		})
	}
}

func TestGenerateDataGetScatter(t *testing.T) {
	md := testonly.NewMemDev(t)
	md.Regs[CSRNGBase+CSRNGGenbitsVld] = 1<<CSRNGGenbitsVldBit | 1<<CSRNGGenbitsFipsBit
	md.Queue(CSRNGBase+CSRNGGenbits, 0x10, 0x11, 0x12, 0x13, 0x20, 0x21, 0x22, 0x23)

	c := &CSRNG{Dev: md, Base: CSRNGBase}

	buf := make([]uint32, 5)
	if err := c.GenerateDataGet(buf, hardened.BoolTrue); err != nil {
		t.Fatalf("GenerateDataGet: %v", err)
	}

	// Word order is reversed within each 128-bit block, and positions
	// beyond the requested length are discarded.
	want := []uint32{0x13, 0x12, 0x11, 0x10, 0x23}
	if diff := cmp.Diff(want, buf); diff != "" {
		t.Fatalf("output diff: %s", diff)
	}
	if got, want := len(md.Reads(CSRNGBase+CSRNGGenbits)), 8; got != want {
		t.Fatalf("got %d genbits reads, want %d: partial blocks must be fully drained", got, want)
	}
}

func TestGenerateDataGetFIPSFailureDrains(t *testing.T) {
	md := testonly.NewMemDev(t)
	// First block is valid but not FIPS compatible, second block is
	// fully compliant.
	md.Queue(CSRNGBase+CSRNGGenbitsVld,
		1<<CSRNGGenbitsVldBit,
		1<<CSRNGGenbitsVldBit|1<<CSRNGGenbitsFipsBit)
	md.Queue(CSRNGBase+CSRNGGenbits, 1, 2, 3, 4, 5, 6, 7, 8)

	c := &CSRNG{Dev: md, Base: CSRNGBase}

	buf := make([]uint32, 8)
	if err := c.GenerateDataGet(buf, hardened.BoolTrue); !errors.Is(err, ErrRecoverable) {
		t.Fatalf("GenerateDataGet: %v, want %v", err, ErrRecoverable)
	}
	if got, want := len(md.Reads(CSRNGBase+CSRNGGenbits)), 8; got != want {
		t.Fatalf("got %d genbits reads, want %d: FIFO must be drained despite the FIPS failure", got, want)
	}
}

func TestGenerateDataGetNoFIPSCheck(t *testing.T) {
	md := testonly.NewMemDev(t)
	// Valid but not FIPS compatible, accepted when the check is off.
	md.Regs[CSRNGBase+CSRNGGenbitsVld] = 1 << CSRNGGenbitsVldBit
	md.Queue(CSRNGBase+CSRNGGenbits, 1, 2, 3, 4)

	c := &CSRNG{Dev: md, Base: CSRNGBase}

	buf := make([]uint32, 4)
	if err := c.GenerateDataGet(buf, hardened.BoolFalse); err != nil {
		t.Fatalf("GenerateDataGet: %v", err)
	}
}

func TestGenerateStartRoundsUpBlocks(t *testing.T) {
	md := testonly.NewMemDev(t)
	md.Regs[CSRNGBase+CSRNGMainSMState] = csrngMainSMIdle
	md.Regs[CSRNGBase+CSRNGSwCmdSts] = 1 << CSRNGSwCmdStsCmdRdyBit
	md.Regs[CSRNGBase+CSRNGGenbitsVld] = 1 << CSRNGGenbitsVldBit

	c := &CSRNG{Dev: md, Base: CSRNGBase}

	if err := c.GenerateStart(nil, 5); err != nil {
		t.Fatalf("GenerateStart: %v", err)
	}

	var header uint32
	for _, a := range md.Writes() {
		if a.Addr == CSRNGBase+CSRNGCmdReq {
			header = a.Val
		}
	}
	if got, want := AppCmdGlen.Extract(header), uint32(2); got != want {
		t.Fatalf("got glen %d, want %d 128-bit blocks for 5 words", got, want)
	}
	if got, want := Op(AppCmdID.Extract(header)), OpGenerate; got != want {
		t.Fatalf("got command id %d, want %d", got, want)
	}
}
