// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package entropy

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"

	"github.com/venkatk-ot/opentitan/hardened"
	"github.com/venkatk-ot/opentitan/mmio/testonly"
)

// readyDev returns a register file with the CSRNG handshake registers in
// the states the send path polls for: main FSM idle, command interface
// ready, no command error.
func readyDev(t *testing.T) *testonly.MemDev {
	t.Helper()
	md := testonly.NewMemDev(t)
	md.Regs[CSRNGBase+CSRNGMainSMState] = csrngMainSMIdle
	md.Regs[CSRNGBase+CSRNGSwCmdSts] = 1 << CSRNGSwCmdStsCmdRdyBit
	return md
}

// misalign returns a word slice over raw deliberately not aligned to 4
// bytes.
func misalign(raw []byte) []uint32 {
	off := 1
	if (uintptr(unsafe.Pointer(&raw[0]))+uintptr(off))%4 == 0 {
		off = 2
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&raw[off])), 2)
}

func TestSendAppCmdRejects(t *testing.T) {
	for _, test := range []struct {
		name    string
		cmd     Cmd
		wantErr error
	}{
		{
			name:    "generate length over protocol cap",
			cmd:     Cmd{Op: OpGenerate, GenerateLen: 0x801},
			wantErr: ErrBadArguments,
		}, {
			name:    "seed material over header length field",
			cmd:     Cmd{Op: OpInstantiate, Seed: &SeedMaterial{Data: make([]uint32, 16)}},
			wantErr: ErrRecoverable,
		}, {
			name:    "misaligned seed material",
			cmd:     Cmd{Op: OpInstantiate, Seed: &SeedMaterial{Data: misalign(make([]byte, 16))}},
			wantErr: ErrRecoverable,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			md := readyDev(t)
			c := &CSRNG{Dev: md, Base: CSRNGBase}

			if err := c.sendAppCmd(CSRNGBase+CSRNGCmdReq, test.cmd, true); !errors.Is(err, test.wantErr) {
				t.Fatalf("sendAppCmd: %v, want %v", err, test.wantErr)
			}
			if got := md.Writes(); len(got) != 0 {
				t.Fatalf("sendAppCmd issued writes before failing: %+v", got)
			}
		})
	}
}

func TestSendAppCmdIdleWaitBounded(t *testing.T) {
	md := testonly.NewMemDev(t)
	// Main FSM never reaches idle.
	md.Regs[CSRNGBase+CSRNGMainSMState] = 0

	c := &CSRNG{Dev: md, Base: CSRNGBase}

	if err := c.sendAppCmd(CSRNGBase+CSRNGCmdReq, Cmd{Op: OpUninstantiate}, true); !errors.Is(err, ErrRecoverable) {
		t.Fatalf("sendAppCmd: %v, want %v", err, ErrRecoverable)
	}
	if got, want := len(md.Reads(CSRNGBase+CSRNGMainSMState)), csrngIdleNumTries; got != want {
		t.Fatalf("got %d FSM state reads, want %d", got, want)
	}
	if got := md.Writes(); len(got) != 0 {
		t.Fatalf("sendAppCmd issued writes before failing: %+v", got)
	}
}

func TestSendAppCmdEncoding(t *testing.T) {
	md := readyDev(t)
	c := &CSRNG{Dev: md, Base: CSRNGBase}

	cmd := Cmd{
		Op:               OpInstantiate,
		DisableTRNGInput: hardened.BoolTrue,
		Seed:             &SeedMaterial{Data: []uint32{0xaabbccdd, 0x11223344}},
	}

	if err := c.sendAppCmd(CSRNGBase+CSRNGCmdReq, cmd, true); err != nil {
		t.Fatalf("sendAppCmd: %v", err)
	}

	// Clearing the request done interrupt, then the header, then each
	// seed word streamed to the same register.
	want := []testonly.Access{
		{Addr: CSRNGBase + CSRNGIntrState, Val: 1 << CSRNGIntrCmdReqDoneBit, Write: true},
		{Addr: CSRNGBase + CSRNGCmdReq, Val: 0x621, Write: true},
		{Addr: CSRNGBase + CSRNGCmdReq, Val: 0xaabbccdd, Write: true},
		{Addr: CSRNGBase + CSRNGCmdReq, Val: 0x11223344, Write: true},
	}
	if diff := cmp.Diff(want, md.Writes()); diff != "" {
		t.Fatalf("write trace diff: %s", diff)
	}
}

func TestSendAppCmdNoCompletion(t *testing.T) {
	md := readyDev(t)
	c := &CSRNG{Dev: md, Base: CSRNGBase}

	cmd := Cmd{Op: OpGenerate, GenerateLen: 8}

	if err := c.sendAppCmd(EDN0Base+EDNGenerateCmd, cmd, false); err != nil {
		t.Fatalf("sendAppCmd: %v", err)
	}

	// No interrupt clear and no completion poll, a single header write
	// to the endpoint register.
	want := []testonly.Access{
		{Addr: EDN0Base + EDNGenerateCmd, Val: 0x8003, Write: true},
	}
	if diff := cmp.Diff(want, md.Writes()); diff != "" {
		t.Fatalf("write trace diff: %s", diff)
	}
	if got := md.Reads(CSRNGBase + CSRNGIntrState); len(got) != 0 {
		t.Fatalf("unexpected completion polls: %+v", got)
	}
}

func TestSendAppCmdCompletionStatus(t *testing.T) {
	md := readyDev(t)
	// Request done fires, but with the error status bit raised.
	md.Queue(CSRNGBase+CSRNGSwCmdSts,
		1<<CSRNGSwCmdStsCmdRdyBit,
		1<<CSRNGSwCmdStsCmdRdyBit|1<<CSRNGSwCmdStsCmdStsBit)

	c := &CSRNG{Dev: md, Base: CSRNGBase}

	if err := c.sendAppCmd(CSRNGBase+CSRNGCmdReq, Cmd{Op: OpReseed}, true); !errors.Is(err, ErrRecoverable) {
		t.Fatalf("sendAppCmd: %v, want %v", err, ErrRecoverable)
	}
}
