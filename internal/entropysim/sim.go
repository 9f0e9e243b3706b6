// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package entropysim is a register level model of the entropy complex,
// implementing the software visible protocol of the ENTROPY_SRC, CSRNG and
// EDN blocks behind the mmio.Device interface.
//
// The model covers what the driver can observe: FSM idle state, command
// acceptance and completion, the genbits FIFO with its valid and FIPS
// indicator bits, and endpoint ready status. Generated output comes from
// an AES-CTR stream keyed from the accumulated seed material, standing in
// for the hardware CTR-DRBG. Cycle accurate behavior is out of scope.
package entropysim

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"

	"github.com/venkatk-ot/opentitan/entropy"
	"github.com/venkatk-ot/opentitan/hardened"
)

// command collects an in-flight application command: the parsed header
// plus the seed words still expected on the command register.
type command struct {
	op      entropy.Op
	glen    uint32
	pending int
	seed    []uint32
}

// Sim models the entropy complex register file.
type Sim struct {
	regs map[uint32]uint32

	csrngCmd *command
	genbits  []uint32
	fips     bool
	stream   cipher.Stream
	seeded   []uint32
	reseeds  uint64
}

// New returns a model in the hardware reset state.
func New() *Sim {
	s := &Sim{
		regs: make(map[uint32]uint32),
	}
	s.regs[entropy.CSRNGBase+entropy.CSRNGCtrl] = entropy.CSRNGCtrlResval
	s.regs[entropy.EDN0Base+entropy.EDNCtrl] = entropy.EDNCtrlResval
	s.regs[entropy.EDN1Base+entropy.EDNCtrl] = entropy.EDNCtrlResval
	s.regs[entropy.EntropySrcBase+entropy.EntropySrcModuleEnable] = entropy.EntropySrcModuleEnableResval
	s.regs[entropy.EntropySrcBase+entropy.EntropySrcEntropyControl] = entropy.EntropySrcEntropyControlResval
	s.regs[entropy.EntropySrcBase+entropy.EntropySrcConf] = entropy.EntropySrcConfResval
	s.regs[entropy.EntropySrcBase+entropy.EntropySrcHealthTestWindows] = entropy.EntropySrcHealthTestWindowsResval
	s.regs[entropy.EntropySrcBase+entropy.EntropySrcAlertThreshold] = entropy.EntropySrcAlertThresholdResval
	return s
}

func (s *Sim) Read32(addr uint32) uint32 {
	switch addr {
	case entropy.CSRNGBase + entropy.CSRNGMainSMState:
		// The model completes commands synchronously, the main FSM is
		// always back in the idle state by the time software looks.
		return 0x4e
	case entropy.CSRNGBase + entropy.CSRNGSwCmdSts:
		return 1 << entropy.CSRNGSwCmdStsCmdRdyBit
	case entropy.CSRNGBase + entropy.CSRNGGenbitsVld:
		var reg uint32
		if len(s.genbits) > 0 {
			reg |= 1 << entropy.CSRNGGenbitsVldBit
			if s.fips {
				reg |= 1 << entropy.CSRNGGenbitsFipsBit
			}
		}
		return reg
	case entropy.CSRNGBase + entropy.CSRNGGenbits:
		if len(s.genbits) == 0 {
			return 0
		}
		word := s.genbits[0]
		s.genbits = s.genbits[1:]
		return word
	case entropy.EDN0Base + entropy.EDNSwCmdSts, entropy.EDN1Base + entropy.EDNSwCmdSts:
		return 1 << entropy.EDNSwCmdStsCmdRdyBit
	}
	return s.regs[addr]
}

func (s *Sim) Write32(addr uint32, val uint32) {
	switch addr {
	case entropy.CSRNGBase + entropy.CSRNGIntrState:
		// Write one to clear.
		s.regs[addr] &^= val
		return
	case entropy.CSRNGBase + entropy.CSRNGCmdReq:
		s.command(addr, val)
		return
	}
	s.regs[addr] = val
}

// command consumes one word of the application command stream: a header
// when no command is in flight, a seed word otherwise.
func (s *Sim) command(addr uint32, val uint32) {
	if s.csrngCmd == nil {
		s.csrngCmd = &command{
			op:      entropy.Op(entropy.AppCmdID.Extract(val)),
			glen:    entropy.AppCmdGlen.Extract(val),
			pending: int(entropy.AppCmdLen.Extract(val)),
		}
	} else {
		s.csrngCmd.seed = append(s.csrngCmd.seed, val)
		s.csrngCmd.pending--
	}
	if s.csrngCmd.pending > 0 {
		return
	}

	cmd := s.csrngCmd
	s.csrngCmd = nil
	s.execute(cmd)

	s.regs[entropy.CSRNGBase+entropy.CSRNGIntrState] |= 1 << entropy.CSRNGIntrCmdReqDoneBit
}

func (s *Sim) execute(cmd *command) {
	switch cmd.op {
	case entropy.OpInstantiate, entropy.OpReseed, entropy.OpUpdate:
		s.seeded = append(s.seeded, cmd.seed...)
		s.reseeds++
		s.rekey()
	case entropy.OpGenerate:
		if s.stream == nil {
			s.rekey()
		}
		for i := 0; i < int(cmd.glen)*4; i++ {
			word := make([]byte, 4)
			s.stream.XORKeyStream(word, word)
			s.genbits = append(s.genbits, binary.LittleEndian.Uint32(word))
		}
		s.fips = s.fipsMode()
	case entropy.OpUninstantiate:
		s.stream = nil
		s.seeded = nil
		s.genbits = nil
	}
}

// rekey derives a fresh AES-CTR stream from the accumulated seed material
// and the reseed counter.
func (s *Sim) rekey() {
	h := sha256.New()
	var c [8]byte
	binary.LittleEndian.PutUint64(c[:], s.reseeds)
	h.Write(c[:])
	for _, w := range s.seeded {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], w)
		h.Write(b[:])
	}
	block, err := aes.NewCipher(h.Sum(nil))
	if err != nil {
		panic(err)
	}
	s.stream = cipher.NewCTR(block, make([]byte, aes.BlockSize))
}

// fipsMode reports whether the modeled noise source is enabled in FIPS
// mode, which decides the FIPS indicator on generated blocks.
func (s *Sim) fipsMode() bool {
	me := s.regs[entropy.EntropySrcBase+entropy.EntropySrcModuleEnable]
	if hardened.MultiBitBool4(entropy.EntropySrcModuleEnableField.Extract(me)) != hardened.MultiBitBool4True {
		return false
	}
	conf := s.regs[entropy.EntropySrcBase+entropy.EntropySrcConf]
	return hardened.MultiBitBool4(entropy.EntropySrcConfFipsEnable.Extract(conf)) == hardened.MultiBitBool4True
}
