// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package entropy

import (
	"fmt"
	"unsafe"

	"github.com/usbarmory/tamago/bits"
	"k8s.io/klog/v2"

	"github.com/venkatk-ot/opentitan/hardened"
)

const (
	// Maximum generate length in 128-bit blocks, constrained by
	// NIST SP 800-90A which caps a single generate request at
	// 2^12 bits.
	maxGenerateBlocks = 0x800

	// CSRNG commands may hang if the main FSM is not idle (see
	// lowRISC/opentitan#19568). As a workaround the driver polls the
	// internal FSM state until idle, giving up after this many reads.
	csrngIdleNumTries = 100000

	// Matches MainSmIdle in csrng_pkg.sv.
	csrngMainSMIdle = 0x4e
)

// fsmIdleWait blocks until the CSRNG main FSM reports the idle state, for
// at most csrngIdleNumTries reads.
func (c *CSRNG) fsmIdleWait() error {
	for i := 0; i < csrngIdleNumTries; i++ {
		if c.Dev.Read32(c.Base+CSRNGMainSMState) == csrngMainSMIdle {
			return nil
		}
	}
	return fmt.Errorf("%w: CSRNG main FSM not idle", ErrRecoverable)
}

// sendAppCmd writes a CSRNG application command to a register. The register
// can be the software interface of CSRNG itself, in which case
// checkCompletion should be true. It can alternatively be one of the EDN
// registers holding commands that EDN passes downstream, in which case
// checkCompletion must be false.
func (c *CSRNG) sendAppCmd(addr uint32, cmd Cmd, checkCompletion bool) error {
	if cmd.GenerateLen > maxGenerateBlocks {
		return fmt.Errorf("%w: generate length %#x out of range", ErrBadArguments, cmd.GenerateLen)
	}

	if err := c.fsmIdleWait(); err != nil {
		return err
	}

	for {
		reg := c.Dev.Read32(c.Base + CSRNGSwCmdSts)
		if bits.IsSet(&reg, CSRNGSwCmdStsCmdRdyBit) {
			break
		}
	}

	var seed []uint32
	if cmd.Seed != nil {
		seed = cmd.Seed.Data
	}

	if len(seed) > AppCmdLen.Mask {
		return fmt.Errorf("%w: seed material of %d words does not fit command header", ErrRecoverable, len(seed))
	}

	// The seed words must be word aligned so the hardware pushes them
	// with natively aligned loads. Go allocations always are, but the
	// slice may alias caller-provided raw memory.
	if len(seed) > 0 && uintptr(unsafe.Pointer(&seed[0]))%4 != 0 {
		return fmt.Errorf("%w: seed material is not word aligned", ErrRecoverable)
	}

	if checkCompletion {
		// Clear the command request done interrupt, it is polled below
		// to detect completion of this command.
		var clr uint32
		bits.Set(&clr, CSRNGIntrCmdReqDoneBit)
		c.Dev.Write32(c.Base+CSRNGIntrState, clr)
	}

	// Build and write the application command header.
	reg := AppCmdID.Insert(0, uint32(cmd.Op))
	reg = AppCmdLen.Insert(reg, uint32(len(seed)))
	reg = AppCmdGlen.Insert(reg, cmd.GenerateLen)

	if cmd.DisableTRNGInput == hardened.BoolTrue {
		reg = AppCmdFlag0.Insert(reg, uint32(hardened.MultiBitBool4True))
	}

	klog.V(2).Infof("entropy: app command %d to %#x, %d seed words, glen %d", cmd.Op, addr, len(seed), cmd.GenerateLen)
	c.Dev.Write32(addr, reg)

	for _, word := range seed {
		c.Dev.Write32(addr, word)
	}

	if !checkCompletion {
		return nil
	}

	if cmd.Op == OpGenerate {
		// A Generate command is complete only once all entropy bits
		// have been consumed, poll the register indicating available
		// bits instead of the request done interrupt.
		for {
			reg = c.Dev.Read32(c.Base + CSRNGGenbitsVld)
			if bits.IsSet(&reg, CSRNGGenbitsVldBit) {
				break
			}
		}
		return nil
	}

	for {
		reg = c.Dev.Read32(c.Base + CSRNGIntrState)
		if bits.IsSet(&reg, CSRNGIntrCmdReqDoneBit) {
			break
		}
	}

	// The status bit is updated once the request done interrupt fires,
	// it reads 1 only on error.
	reg = c.Dev.Read32(c.Base + CSRNGSwCmdSts)
	if bits.IsSet(&reg, CSRNGSwCmdStsCmdStsBit) {
		return fmt.Errorf("%w: command %d failed", ErrRecoverable, cmd.Op)
	}

	return nil
}
