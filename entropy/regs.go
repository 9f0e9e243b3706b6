// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package entropy

import (
	"github.com/usbarmory/tamago/bits"
)

// Register layout for the ENTROPY_SRC, CSRNG and EDN blocks, mirroring the
// Earl Grey register description files. Offsets, field positions and reset
// values must match the target silicon revision bit for bit.

// Earl Grey peripheral base addresses.
const (
	CSRNGBase      = 0x41150000
	EntropySrcBase = 0x41160000
	EDN0Base       = 0x41170000
	EDN1Base       = 0x41180000
)

// Field describes a bit field within a 32-bit register.
type Field struct {
	Pos  int
	Mask int
}

// Extract returns the field value within reg.
func (f Field) Extract(reg uint32) uint32 {
	return bits.Get(&reg, f.Pos, f.Mask)
}

// Insert returns reg with the field set to val. Callers must pass values
// that fit the field mask.
func (f Field) Insert(reg uint32, val uint32) uint32 {
	bits.SetN(&reg, f.Pos, f.Mask, val)
	return reg
}

// ENTROPY_SRC registers.
const (
	EntropySrcIntrState          = 0x00
	EntropySrcModuleEnable       = 0x20
	EntropySrcConf               = 0x24
	EntropySrcEntropyControl     = 0x28
	EntropySrcEntropyData        = 0x2c
	EntropySrcHealthTestWindows  = 0x30
	EntropySrcRepcntThresholds   = 0x34
	EntropySrcRepcntsThresholds  = 0x38
	EntropySrcAdaptpHiThresholds = 0x3c
	EntropySrcAdaptpLoThresholds = 0x40
	EntropySrcBucketThresholds   = 0x44
	EntropySrcMarkovHiThresholds = 0x48
	EntropySrcMarkovLoThresholds = 0x4c
	EntropySrcExthtHiThresholds  = 0x50
	EntropySrcExthtLoThresholds  = 0x54
	EntropySrcAlertThreshold     = 0xa0
)

// ENTROPY_SRC register reset values.
const (
	EntropySrcModuleEnableResval      = 0x9
	EntropySrcConfResval              = 0x909099
	EntropySrcEntropyControlResval    = 0x99
	EntropySrcHealthTestWindowsResval = 0x00600200
	EntropySrcAlertThresholdResval    = 0xfffd0002
	EntropySrcHiThresholdsResval      = 0xffffffff
	EntropySrcLoThresholdsResval      = 0x0
)

// ENTROPY_SRC register fields.
var (
	EntropySrcModuleEnableField           = Field{0, 0xf}
	EntropySrcConfFipsEnable              = Field{0, 0xf}
	EntropySrcConfEntropyDataRegEnable    = Field{4, 0xf}
	EntropySrcConfThresholdScope          = Field{12, 0xf}
	EntropySrcConfRngBitEnable            = Field{20, 0xf}
	EntropySrcConfRngBitSel               = Field{24, 0x3}
	EntropySrcEntropyControlEsRoute       = Field{0, 0xf}
	EntropySrcEntropyControlEsType        = Field{4, 0xf}
	EntropySrcHealthTestWindowsFipsWindow = Field{0, 0xffff}
	EntropySrcAlertThresholdField         = Field{0, 0xffff}
	EntropySrcAlertThresholdInvField      = Field{16, 0xffff}
	EntropySrcThresholdsFipsThresh        = Field{0, 0xffff}
)

// CSRNG registers.
const (
	CSRNGIntrState   = 0x00
	CSRNGCtrl        = 0x14
	CSRNGCmdReq      = 0x18
	CSRNGSwCmdSts    = 0x1c
	CSRNGGenbitsVld  = 0x20
	CSRNGGenbits     = 0x24
	CSRNGMainSMState = 0x40
)

// CSRNG register reset values.
const (
	CSRNGCtrlResval = 0x999
)

// CSRNG register fields and bits.
var (
	CSRNGCtrlEnable       = Field{0, 0xf}
	CSRNGCtrlSwAppEnable  = Field{4, 0xf}
	CSRNGCtrlReadIntState = Field{8, 0xf}
)

const (
	CSRNGIntrCmdReqDoneBit = 0
	CSRNGSwCmdStsCmdRdyBit = 0
	CSRNGSwCmdStsCmdStsBit = 1
	CSRNGGenbitsVldBit     = 0
	CSRNGGenbitsFipsBit    = 1
)

// EDN registers.
const (
	EDNIntrState                = 0x00
	EDNCtrl                     = 0x14
	EDNBootInsCmd               = 0x18
	EDNBootGenCmd               = 0x1c
	EDNSwCmdReq                 = 0x20
	EDNSwCmdSts                 = 0x24
	EDNGenerateCmd              = 0x28
	EDNReseedCmd                = 0x2c
	EDNMaxNumReqsBetweenReseeds = 0x30
	EDNMainSMState              = 0x40
)

// EDN register reset values.
const (
	EDNCtrlResval = 0x9999
)

// EDN register fields and bits.
var (
	EDNCtrlEdnEnable   = Field{0, 0xf}
	EDNCtrlBootReqMode = Field{4, 0xf}
	EDNCtrlAutoReqMode = Field{8, 0xf}
	EDNCtrlCmdFifoRst  = Field{12, 0xf}
)

const (
	EDNSwCmdStsCmdRdyBit = 0
	EDNSwCmdStsCmdStsBit = 1
)

// The application command header is not specified as a register in the
// hardware description, the fields are mapped here by hand.
var (
	AppCmdID    = Field{0, 0xf}
	AppCmdLen   = Field{4, 0xf}
	AppCmdFlag0 = Field{8, 0xf}
	AppCmdGlen  = Field{12, 0x7ffff}
)
