// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package hardened provides redundantly encoded boolean types used as a
// fault-injection countermeasure.
//
// Both encodings reserve most of their value space for the invalid state:
// only the canonical True and False patterns mean anything, and callers are
// expected to compare against the canonical pattern exactly rather than
// coerce to a native bool. A glitched value is therefore neither true nor
// false.
package hardened

// Bool is a 32-bit hardened boolean. The canonical patterns have a Hamming
// distance of 8 from each other.
type Bool uint32

const (
	BoolTrue  Bool = 0x739
	BoolFalse Bool = 0x1d4
)

// MultiBitBool4 is the 4-bit multi-valued boolean used by hardware CSR
// fields. The two canonical patterns are complements of each other.
type MultiBitBool4 uint32

const (
	MultiBitBool4True  MultiBitBool4 = 0x6
	MultiBitBool4False MultiBitBool4 = 0x9
)
