// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package entropy drives the entropy complex: the ENTROPY_SRC noise source
// with its online health tests, the CSRNG deterministic random bit
// generator and the EDN distribution endpoints feeding downstream
// consumers.
//
// The three blocks are asynchronous hardware state machines with strict
// bring-up ordering requirements, sequenced here against a declarative
// configuration table. Every configured value is read back and verified on
// Check as a defense against fault injection.
//
// The driver is single threaded and fully synchronous: all waiting is busy
// polling of status registers. Except for the bounded CSRNG idle wait, the
// polls are deliberately unbounded, inherited from the hardware fault
// model: a hung peripheral hangs the driver rather than timing out into an
// undefined hardware state.
package entropy

import (
	"errors"

	"k8s.io/klog/v2"

	"github.com/venkatk-ot/opentitan/hardened"
	"github.com/venkatk-ot/opentitan/mmio"
)

// Errors follow a two tier taxonomy. ErrBadArguments signals an
// unsupported or out of range configuration from the caller and is never
// worth retrying. ErrRecoverable signals a hardware or protocol level
// anomaly; the caller decides whether to halt, reset or retry the whole
// complex, the driver itself never retries.
var (
	ErrBadArguments = errors.New("entropy: bad arguments")
	ErrRecoverable  = errors.New("entropy: recoverable failure")
)

// Complex sequences the entropy complex blocks. The zero value is not
// usable, use New.
type Complex struct {
	// Dev provides register access for all blocks.
	Dev mmio.Device

	// Block base addresses.
	SrcBase   uint32
	CSRNGBase uint32

	// Configs is the configuration table, keyed by ConfigID. New fills
	// in the build time table; records must never be mutated.
	Configs map[ConfigID]*ComplexConfig
}

// New returns a Complex driving the Earl Grey entropy complex through dev.
func New(dev mmio.Device) *Complex {
	return &Complex{
		Dev:       dev,
		SrcBase:   EntropySrcBase,
		CSRNGBase: CSRNGBase,
		Configs:   configs,
	}
}

func (x *Complex) entropySrc() *EntropySrc {
	return &EntropySrc{Dev: x.Dev, Base: x.SrcBase}
}

func (x *Complex) csrng() *CSRNG {
	return &CSRNG{Dev: x.Dev, Base: x.CSRNGBase}
}

func (x *Complex) edn(base uint32) *EDN {
	return &EDN{Dev: x.Dev, Base: base, CSRNG: x.csrng()}
}

// stopAll disables the whole complex, in reverse order of the enable
// dependency: endpoints first, then the DRBG core, the noise source last.
// EDN FIFOs holding commands for the downstream CSRNG are not cleared on
// reconfiguration, and blocks may still be processing requests from an
// upstream endpoint, so any other order risks desynchronized FIFOs.
func (x *Complex) stopAll(cfg *ComplexConfig) {
	x.edn(cfg.EDN0.Base).Stop()
	x.edn(cfg.EDN1.Base).Stop()
	x.csrng().Stop()
	x.entropySrc().Stop()
}

// Init stops the whole complex and brings it back up against the
// continuous mode configuration, in dependency order: noise source, DRBG
// core, then each endpoint. The first failure aborts the sequence with no
// rollback of earlier steps.
func (x *Complex) Init() error {
	cfg, err := x.lookup(ConfigContinuous)
	if err != nil {
		return err
	}

	klog.V(1).Infof("entropy: configuring complex, config %d version %s", cfg.ID, cfg.Version)

	x.stopAll(cfg)

	if err := x.entropySrc().Configure(&cfg.EntropySrc); err != nil {
		return err
	}
	x.csrng().Configure()
	if err := x.edn(cfg.EDN0.Base).Configure(&cfg.EDN0); err != nil {
		return err
	}
	return x.edn(cfg.EDN1.Base).Configure(&cfg.EDN1)
}

// Check verifies the whole complex against the continuous mode
// configuration by re-reading hardware state, short-circuiting on the
// first failure. No software state is consulted: the hardware registers
// are the only source of truth.
func (x *Complex) Check() error {
	cfg, err := x.lookup(ConfigContinuous)
	if err != nil {
		return err
	}

	if err := x.entropySrc().Check(&cfg.EntropySrc); err != nil {
		return err
	}
	if err := x.csrng().Check(); err != nil {
		return err
	}
	if err := x.edn(cfg.EDN0.Base).Check(); err != nil {
		return err
	}
	return x.edn(cfg.EDN1.Base).Check()
}

// Instantiate creates a new DRBG instance on the CSRNG software
// application interface.
func (x *Complex) Instantiate(disableTRNGInput hardened.Bool, seed *SeedMaterial) error {
	return x.csrng().Instantiate(disableTRNGInput, seed)
}

// Reseed reseeds the DRBG instance.
func (x *Complex) Reseed(disableTRNGInput hardened.Bool, seed *SeedMaterial) error {
	return x.csrng().Reseed(disableTRNGInput, seed)
}

// Update mixes seed material into the DRBG state.
func (x *Complex) Update(seed *SeedMaterial) error {
	return x.csrng().Update(seed)
}

// Generate fills buf with DRBG output. With fipsCheck set to BoolTrue the
// FIPS indicator of every produced block is verified.
func (x *Complex) Generate(seed *SeedMaterial, buf []uint32, fipsCheck hardened.Bool) error {
	return x.csrng().Generate(seed, buf, fipsCheck)
}

// GenerateStart issues a generate command for words 32-bit words without
// draining the output, see CSRNG.GenerateStart.
func (x *Complex) GenerateStart(seed *SeedMaterial, words int) error {
	return x.csrng().GenerateStart(seed, words)
}

// GenerateDataGet drains previously requested DRBG output into buf, see
// CSRNG.GenerateDataGet.
func (x *Complex) GenerateDataGet(buf []uint32, fipsCheck hardened.Bool) error {
	return x.csrng().GenerateDataGet(buf, fipsCheck)
}

// Uninstantiate zeroizes the DRBG instance.
func (x *Complex) Uninstantiate() error {
	return x.csrng().Uninstantiate()
}
