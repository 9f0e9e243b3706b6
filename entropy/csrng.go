// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package entropy

import (
	"fmt"

	"github.com/usbarmory/tamago/bits"

	"github.com/venkatk-ot/opentitan/hardened"
	"github.com/venkatk-ot/opentitan/mmio"
)

// CSRNG genbits buffer size in 32-bit words: the DRBG produces output in
// 128-bit blocks.
const csrngBitsBufferNumWords = 4

// CSRNG drives the DRBG core block.
type CSRNG struct {
	Dev  mmio.Device
	Base uint32
}

// Configure enables the CSRNG block with the software application command
// interface and internal state readback enabled. The hardware reports no
// errors here.
func (c *CSRNG) Configure() {
	reg := CSRNGCtrlEnable.Insert(0, uint32(hardened.MultiBitBool4True))
	reg = CSRNGCtrlSwAppEnable.Insert(reg, uint32(hardened.MultiBitBool4True))
	reg = CSRNGCtrlReadIntState.Insert(reg, uint32(hardened.MultiBitBool4True))
	c.Dev.Write32(c.Base+CSRNGCtrl, reg)
}

// Check verifies that the CSRNG block is enabled. Only the exact canonical
// true encoding passes.
func (c *CSRNG) Check() error {
	reg := c.Dev.Read32(c.Base + CSRNGCtrl)
	if hardened.MultiBitBool4(CSRNGCtrlEnable.Extract(reg)) != hardened.MultiBitBool4True {
		return fmt.Errorf("%w: CSRNG not enabled", ErrRecoverable)
	}
	return nil
}

// Stop disables the CSRNG block by restoring its control register reset
// value.
func (c *CSRNG) Stop() {
	c.Dev.Write32(c.Base+CSRNGCtrl, CSRNGCtrlResval)
}

// Instantiate issues an Instantiate command with optional seed material.
// disableTRNGInput set to BoolTrue runs the DRBG in fully deterministic
// mode, with the internal noise source disconnected.
func (c *CSRNG) Instantiate(disableTRNGInput hardened.Bool, seed *SeedMaterial) error {
	return c.sendAppCmd(c.Base+CSRNGCmdReq, Cmd{
		Op:               OpInstantiate,
		DisableTRNGInput: disableTRNGInput,
		Seed:             seed,
	}, true)
}

// Reseed issues a Reseed command with optional seed material.
func (c *CSRNG) Reseed(disableTRNGInput hardened.Bool, seed *SeedMaterial) error {
	return c.sendAppCmd(c.Base+CSRNGCmdReq, Cmd{
		Op:               OpReseed,
		DisableTRNGInput: disableTRNGInput,
		Seed:             seed,
	}, true)
}

// Update issues an Update command, mixing the seed material into the DRBG
// state without reseeding.
func (c *CSRNG) Update(seed *SeedMaterial) error {
	return c.sendAppCmd(c.Base+CSRNGCmdReq, Cmd{
		Op:   OpUpdate,
		Seed: seed,
	}, true)
}

// Uninstantiate zeroizes the DRBG instance.
func (c *CSRNG) Uninstantiate() error {
	return c.sendAppCmd(c.Base+CSRNGCmdReq, Cmd{
		Op: OpUninstantiate,
	}, true)
}

// GenerateStart requests generation of words 32-bit words of output,
// rounded up to whole 128-bit blocks.
func (c *CSRNG) GenerateStart(seed *SeedMaterial, words int) error {
	return c.sendAppCmd(c.Base+CSRNGCmdReq, Cmd{
		Op:          OpGenerate,
		Seed:        seed,
		GenerateLen: uint32(ceilDiv(words, csrngBitsBufferNumWords)),
	}, true)
}

// GenerateDataGet retrieves the output of a previous GenerateStart into
// buf. When fipsCheck is BoolTrue each block's FIPS indicator bit is
// verified and a failure is reported, but only after every requested block
// has been drained: the hardware FIFO must be cleared regardless, as it
// holds full blocks even for a partial final read.
//
// Words are read in reverse order within each 128-bit block, matching the
// bit ordering of known-answer test vectors.
func (c *CSRNG) GenerateDataGet(buf []uint32, fipsCheck hardened.Bool) error {
	nblocks := ceilDiv(len(buf), csrngBitsBufferNumWords)
	var res error

	for blockIdx := 0; blockIdx < nblocks; blockIdx++ {
		// Block until more data is available in the genbits buffer.
		var reg uint32
		for {
			reg = c.Dev.Read32(c.Base + CSRNGGenbitsVld)
			if bits.IsSet(&reg, CSRNGGenbitsVldBit) {
				break
			}
		}

		if fipsCheck == hardened.BoolTrue && !bits.IsSet(&reg, CSRNGGenbitsFipsBit) {
			// The entropy is not FIPS compatible. Record the error
			// but keep reading so the FIFO is left consistent.
			res = fmt.Errorf("%w: generated bits are not FIPS compatible", ErrRecoverable)
		}

		for offset := 0; offset < csrngBitsBufferNumWords; offset++ {
			word := c.Dev.Read32(c.Base + CSRNGGenbits)
			wordIdx := blockIdx*csrngBitsBufferNumWords + csrngBitsBufferNumWords - 1 - offset
			if wordIdx < len(buf) {
				buf[wordIdx] = word
			}
		}
	}

	return res
}

// Generate produces len(buf) words of DRBG output, composing GenerateStart
// and GenerateDataGet.
func (c *CSRNG) Generate(seed *SeedMaterial, buf []uint32, fipsCheck hardened.Bool) error {
	if err := c.GenerateStart(seed, len(buf)); err != nil {
		return err
	}
	return c.GenerateDataGet(buf, fipsCheck)
}

// ceilDiv returns the quotient of a and b, rounded up.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
