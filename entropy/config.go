// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package entropy

import (
	"fmt"

	"github.com/coreos/go-semver/semver"

	"github.com/venkatk-ot/opentitan/hardened"
)

// Op is a CSRNG application command identifier.
//
// See https://docs.opentitan.org/hw/ip/csrng/doc/#command-header for
// details.
type Op uint32

const (
	OpInstantiate   Op = 1
	OpReseed        Op = 2
	OpGenerate      Op = 3
	OpUpdate        Op = 4
	OpUninstantiate Op = 5
)

// SeedMaterial holds seed words passed to CSRNG application commands. The
// driver only reads it; the backing array is owned by the caller and must
// outlive the command issuing it.
type SeedMaterial struct {
	Data []uint32
}

// Cmd describes a single CSRNG application command.
type Cmd struct {
	// Op is the application command ID.
	Op Op
	// DisableTRNGInput maps to flag0 in the hardware command interface:
	// when BoolTrue the command runs with the internal noise source
	// disabled.
	DisableTRNGInput hardened.Bool
	// Seed is optional additional seed material, nil when the command
	// carries none.
	Seed *SeedMaterial
	// GenerateLen is the generate length in 128-bit blocks.
	GenerateLen uint32
}

// ConfigID selects an entry of the entropy complex configuration table.
type ConfigID int

const (
	// ConfigContinuous is the default runtime configuration, with the
	// complex running in continuous mode.
	ConfigContinuous ConfigID = iota
)

// SrcConfig holds ENTROPY_SRC configuration settings.
type SrcConfig struct {
	// FipsEnable generates FIPS compliant entropy, processed by an
	// SP 800-90B compliant conditioning function.
	FipsEnable hardened.MultiBitBool4
	// RouteToFirmware routes entropy to a firmware visible register
	// instead of distributing it to other hardware blocks.
	RouteToFirmware hardened.MultiBitBool4
	// BypassConditioner sends raw entropy to CSRNG. Only
	// MultiBitBool4False is supported.
	BypassConditioner hardened.MultiBitBool4
	// SingleBitMode enables single bit entropy mode.
	SingleBitMode hardened.MultiBitBool4
	// FipsTestWindowSize is the window size used for health tests.
	FipsTestWindowSize uint16
	// AlertThreshold is the number of health test failures before an
	// alert is raised, 0 disables alerts.
	AlertThreshold uint16

	// Health test thresholds.
	RepcntThreshold   uint16
	RepcntsThreshold  uint16
	AdaptpHiThreshold uint16
	AdaptpLoThreshold uint16
	BucketThreshold   uint16
	MarkovHiThreshold uint16
	MarkovLoThreshold uint16
	ExthtHiThreshold  uint16
	ExthtLoThreshold  uint16
}

// EDNConfig holds the configuration of a single EDN instance.
type EDNConfig struct {
	// Base is the base address of the EDN block.
	Base uint32
	// ReseedInterval is the number of generate calls between automatic
	// reseed commands.
	ReseedInterval uint32
	// Downstream CSRNG command templates.
	Instantiate Cmd
	Generate    Cmd
	Reseed      Cmd
}

// ComplexConfig is a named entropy complex configuration record, covering
// ENTROPY_SRC, CSRNG and both EDN instances. Records are immutable after
// creation.
type ComplexConfig struct {
	// ID must match the ConfigID the record is registered under; lookup
	// verifies it as a fault injection countermeasure.
	ID      ConfigID
	Version semver.Version

	EntropySrc SrcConfig
	EDN0       EDNConfig
	EDN1       EDNConfig
}

// configs is the build-time configuration table. Values are not tuned for
// ROM use, only use this table in mutable code partitions.
var configs = map[ConfigID]*ComplexConfig{
	ConfigContinuous: {
		ID:      ConfigContinuous,
		Version: *semver.New("1.0.0"),
		EntropySrc: SrcConfig{
			FipsEnable:         hardened.MultiBitBool4True,
			RouteToFirmware:    hardened.MultiBitBool4False,
			BypassConditioner:  hardened.MultiBitBool4False,
			SingleBitMode:      hardened.MultiBitBool4False,
			FipsTestWindowSize: 0x200,
			AlertThreshold:     2,
			RepcntThreshold:    0xffff,
			RepcntsThreshold:   0xffff,
			AdaptpHiThreshold:  0xffff,
			AdaptpLoThreshold:  0x0,
			BucketThreshold:    0xffff,
			MarkovHiThreshold:  0xffff,
			MarkovLoThreshold:  0x0,
			ExthtHiThreshold:   0xffff,
			ExthtLoThreshold:   0x0,
		},
		EDN0: EDNConfig{
			Base:           EDN0Base,
			ReseedInterval: 32,
			Instantiate:    Cmd{Op: OpInstantiate, DisableTRNGInput: hardened.BoolFalse},
			Generate:       Cmd{Op: OpGenerate, DisableTRNGInput: hardened.BoolFalse, GenerateLen: 8},
			Reseed:         Cmd{Op: OpReseed, DisableTRNGInput: hardened.BoolFalse},
		},
		EDN1: EDNConfig{
			Base:           EDN1Base,
			ReseedInterval: 4,
			Instantiate:    Cmd{Op: OpInstantiate, DisableTRNGInput: hardened.BoolFalse},
			Generate:       Cmd{Op: OpGenerate, DisableTRNGInput: hardened.BoolFalse, GenerateLen: 1},
			Reseed:         Cmd{Op: OpReseed, DisableTRNGInput: hardened.BoolFalse},
		},
	},
}

// lookup selects a configuration record and verifies its identity field
// against the requested selector. The redundant comparison guards against
// fault injection on the table index, a mismatch is a hard error.
func (x *Complex) lookup(id ConfigID) (*ComplexConfig, error) {
	cfg, ok := x.Configs[id]
	if !ok || cfg == nil {
		return nil, fmt.Errorf("%w: no configuration %d", ErrRecoverable, id)
	}
	if cfg.ID != id {
		return nil, fmt.Errorf("%w: configuration identity mismatch", ErrRecoverable)
	}
	return cfg, nil
}
