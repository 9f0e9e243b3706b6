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

// EDN drives a single entropy distribution network endpoint. Endpoint
// command registers receive CSRNG application commands, so the driver
// shares the CSRNG send path, without completion checking: the endpoint
// itself tracks completion of the commands it replays downstream.
type EDN struct {
	Dev  mmio.Device
	Base uint32

	// CSRNG is the upstream DRBG core the endpoint feeds from.
	CSRNG *CSRNG
}

// readyBlock blocks until the endpoint is ready to accept a new CSRNG
// command, returning an error if its status bit reports failure.
func (e *EDN) readyBlock() error {
	var reg uint32
	for {
		reg = e.Dev.Read32(e.Base + EDNSwCmdSts)
		if bits.IsSet(&reg, EDNSwCmdStsCmdRdyBit) {
			break
		}
	}
	if bits.IsSet(&reg, EDNSwCmdStsCmdStsBit) {
		return fmt.Errorf("%w: EDN at %#x reports command failure", ErrRecoverable, e.Base)
	}
	return nil
}

// Configure applies cfg to the endpoint: the reseed and generate command
// templates, the automatic reseed interval, then enable with automatic
// request mode, and finally the instantiate command once the endpoint
// reports ready.
func (e *EDN) Configure(cfg *EDNConfig) error {
	if err := e.CSRNG.sendAppCmd(e.Base+EDNReseedCmd, cfg.Reseed, false); err != nil {
		return err
	}
	if err := e.CSRNG.sendAppCmd(e.Base+EDNGenerateCmd, cfg.Generate, false); err != nil {
		return err
	}

	e.Dev.Write32(e.Base+EDNMaxNumReqsBetweenReseeds, cfg.ReseedInterval)

	reg := EDNCtrlEdnEnable.Insert(0, uint32(hardened.MultiBitBool4True))
	reg = EDNCtrlAutoReqMode.Insert(reg, uint32(hardened.MultiBitBool4True))
	e.Dev.Write32(e.Base+EDNCtrl, reg)

	if err := e.readyBlock(); err != nil {
		return err
	}
	if err := e.CSRNG.sendAppCmd(e.Base+EDNSwCmdReq, cfg.Instantiate, false); err != nil {
		return err
	}
	return e.readyBlock()
}

// Check verifies that the endpoint is enabled and in automatic request
// mode. Only the exact canonical true encodings pass.
func (e *EDN) Check() error {
	reg := e.Dev.Read32(e.Base + EDNCtrl)
	if hardened.MultiBitBool4(EDNCtrlEdnEnable.Extract(reg)) != hardened.MultiBitBool4True ||
		hardened.MultiBitBool4(EDNCtrlAutoReqMode.Extract(reg)) != hardened.MultiBitBool4True {
		return fmt.Errorf("%w: EDN at %#x not enabled in auto request mode", ErrRecoverable, e.Base)
	}
	return nil
}

// Stop disables the endpoint. The command FIFO reset is asserted first,
// while the endpoint is still enabled, as the reset is only honored in
// that state and a stale FIFO would desynchronize the upstream CSRNG.
// Restoring the full control register then disables the endpoint and
// releases the FIFO reset in one write, so no stray in-flight command can
// land in between.
func (e *EDN) Stop() {
	reg := e.Dev.Read32(e.Base + EDNCtrl)
	e.Dev.Write32(e.Base+EDNCtrl, EDNCtrlCmdFifoRst.Insert(reg, uint32(hardened.MultiBitBool4True)))

	e.Dev.Write32(e.Base+EDNCtrl, EDNCtrlResval)
}
