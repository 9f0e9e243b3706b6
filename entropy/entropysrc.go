// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package entropy

import (
	"fmt"

	"github.com/venkatk-ot/opentitan/hardened"
	"github.com/venkatk-ot/opentitan/mmio"
)

// EntropySrc drives the noise source block.
type EntropySrc struct {
	Dev  mmio.Device
	Base uint32
}

// thresholdReg pairs a health test threshold register with its reset value
// and the value configured for the FIPS threshold field. Only the FIPS
// field is set, the bypass field keeps its reset value, which is ignored
// when looser than thresholds already in place.
type thresholdReg struct {
	offset uint32
	resval uint32
	value  uint16
}

func thresholds(cfg *SrcConfig) []thresholdReg {
	return []thresholdReg{
		{EntropySrcRepcntThresholds, EntropySrcHiThresholdsResval, cfg.RepcntThreshold},
		{EntropySrcRepcntsThresholds, EntropySrcHiThresholdsResval, cfg.RepcntsThreshold},
		{EntropySrcAdaptpHiThresholds, EntropySrcHiThresholdsResval, cfg.AdaptpHiThreshold},
		{EntropySrcAdaptpLoThresholds, EntropySrcLoThresholdsResval, cfg.AdaptpLoThreshold},
		{EntropySrcBucketThresholds, EntropySrcHiThresholdsResval, cfg.BucketThreshold},
		{EntropySrcMarkovHiThresholds, EntropySrcHiThresholdsResval, cfg.MarkovHiThreshold},
		{EntropySrcMarkovLoThresholds, EntropySrcLoThresholdsResval, cfg.MarkovLoThreshold},
		{EntropySrcExthtHiThresholds, EntropySrcHiThresholdsResval, cfg.ExthtHiThreshold},
		{EntropySrcExthtLoThresholds, EntropySrcLoThresholdsResval, cfg.ExthtLoThreshold},
	}
}

// alertThresholdWord builds the alert threshold register value, carrying
// the threshold together with its bitwise inverted redundant copy.
func alertThresholdWord(threshold uint16) uint32 {
	reg := EntropySrcAlertThresholdField.Insert(0, uint32(threshold))
	return EntropySrcAlertThresholdInvField.Insert(reg, ^uint32(threshold)&0xffff)
}

// Configure applies cfg to the noise source. The module enable field is
// asserted last, after the health test thresholds, so the tests are live
// before any entropy flows.
func (e *EntropySrc) Configure(cfg *SrcConfig) error {
	if cfg.BypassConditioner != hardened.MultiBitBool4False {
		// Bypassing the conditioner is not supported.
		return fmt.Errorf("%w: conditioner bypass requested", ErrBadArguments)
	}

	reg := EntropySrcEntropyControlEsRoute.Insert(0, uint32(cfg.RouteToFirmware))
	reg = EntropySrcEntropyControlEsType.Insert(reg, uint32(cfg.BypassConditioner))
	e.Dev.Write32(e.Base+EntropySrcEntropyControl, reg)

	reg = EntropySrcConfFipsEnable.Insert(0, uint32(cfg.FipsEnable))
	reg = EntropySrcConfEntropyDataRegEnable.Insert(reg, uint32(cfg.RouteToFirmware))
	reg = EntropySrcConfThresholdScope.Insert(reg, uint32(hardened.MultiBitBool4False))
	reg = EntropySrcConfRngBitEnable.Insert(reg, uint32(cfg.SingleBitMode))
	reg = EntropySrcConfRngBitSel.Insert(reg, 0)
	e.Dev.Write32(e.Base+EntropySrcConf, reg)

	// Health test window, conditioner bypass keeps the reset window.
	reg = EntropySrcHealthTestWindowsFipsWindow.Insert(EntropySrcHealthTestWindowsResval, uint32(cfg.FipsTestWindowSize))
	e.Dev.Write32(e.Base+EntropySrcHealthTestWindows, reg)

	e.Dev.Write32(e.Base+EntropySrcAlertThreshold, alertThresholdWord(cfg.AlertThreshold))

	for _, t := range thresholds(cfg) {
		e.Dev.Write32(e.Base+t.offset, EntropySrcThresholdsFipsThresh.Insert(t.resval, uint32(t.value)))
	}

	e.Dev.Write32(e.Base+EntropySrcModuleEnable, uint32(hardened.MultiBitBool4True))

	return nil
}

// Check verifies that the noise source is enabled and running in a FIPS
// compatible mode forwarding results to hardware, and that every register
// written by Configure reads back as configured, including the inverted
// alert threshold redundancy. Only the canonical FIPS mode is supported.
func (e *EntropySrc) Check(cfg *SrcConfig) error {
	if cfg.FipsEnable != hardened.MultiBitBool4True ||
		cfg.BypassConditioner != hardened.MultiBitBool4False ||
		cfg.RouteToFirmware != hardened.MultiBitBool4False {
		return fmt.Errorf("%w: check requires a FIPS mode hardware routed configuration", ErrBadArguments)
	}

	reg := e.Dev.Read32(e.Base + EntropySrcModuleEnable)
	if hardened.MultiBitBool4(reg) != hardened.MultiBitBool4True {
		return fmt.Errorf("%w: noise source not enabled", ErrRecoverable)
	}

	reg = e.Dev.Read32(e.Base + EntropySrcConf)
	if hardened.MultiBitBool4(EntropySrcConfFipsEnable.Extract(reg)) != hardened.MultiBitBool4True ||
		hardened.MultiBitBool4(EntropySrcConfRngBitEnable.Extract(reg)) != hardened.MultiBitBool4False {
		return fmt.Errorf("%w: noise source conf mismatch", ErrRecoverable)
	}

	reg = e.Dev.Read32(e.Base + EntropySrcEntropyControl)
	if hardened.MultiBitBool4(EntropySrcEntropyControlEsType.Extract(reg)) != hardened.MultiBitBool4False ||
		hardened.MultiBitBool4(EntropySrcEntropyControlEsRoute.Extract(reg)) != hardened.MultiBitBool4False {
		return fmt.Errorf("%w: noise source routing mismatch", ErrRecoverable)
	}

	reg = e.Dev.Read32(e.Base + EntropySrcHealthTestWindows)
	if EntropySrcHealthTestWindowsFipsWindow.Extract(reg) != uint32(cfg.FipsTestWindowSize) {
		return fmt.Errorf("%w: health test window mismatch", ErrRecoverable)
	}

	if e.Dev.Read32(e.Base+EntropySrcAlertThreshold) != alertThresholdWord(cfg.AlertThreshold) {
		return fmt.Errorf("%w: alert threshold mismatch", ErrRecoverable)
	}

	for _, t := range thresholds(cfg) {
		reg = e.Dev.Read32(e.Base + t.offset)
		if EntropySrcThresholdsFipsThresh.Extract(reg) != uint32(t.value) {
			return fmt.Errorf("%w: health test threshold mismatch at %#x", ErrRecoverable, t.offset)
		}
	}

	return nil
}

// Stop disables the noise source and restores its configuration registers
// to their reset values, in a fixed order, so no partially configured
// state is left to desynchronize the internal pipelines.
func (e *EntropySrc) Stop() {
	e.Dev.Write32(e.Base+EntropySrcModuleEnable, EntropySrcModuleEnableResval)

	e.Dev.Write32(e.Base+EntropySrcEntropyControl, EntropySrcEntropyControlResval)
	e.Dev.Write32(e.Base+EntropySrcConf, EntropySrcConfResval)
	e.Dev.Write32(e.Base+EntropySrcHealthTestWindows, EntropySrcHealthTestWindowsResval)
	e.Dev.Write32(e.Base+EntropySrcAlertThreshold, EntropySrcAlertThresholdResval)
}
