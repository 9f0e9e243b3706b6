// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// entropyctl exercises the entropy complex driver against the register
// level model, bringing the complex up, verifying its configuration and
// drawing DRBG output to a file. It is a host side harness for the driver
// protocol, not a source of real entropy.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"github.com/cheggaaa/pb/v3"
	"k8s.io/klog/v2"

	"github.com/venkatk-ot/opentitan/entropy"
	"github.com/venkatk-ot/opentitan/hardened"
	"github.com/venkatk-ot/opentitan/internal/entropysim"
)

// A single generate request is capped at 0x800 128-bit blocks, stay one
// order of magnitude under it per chunk.
const chunkWords = 1024

type config struct {
	bytes int
	out   string
	check bool
}

var conf *config

func init() {
	klog.InitFlags(nil)

	conf = &config{}

	flag.IntVar(&conf.bytes, "n", 1024, "number of bytes to generate")
	flag.StringVar(&conf.out, "o", "-", "output file, - for stdout")
	flag.BoolVar(&conf.check, "c", true, "verify complex configuration after init")
}

func run() error {
	sim := entropysim.New()
	ec := entropy.New(sim)

	if err := ec.Init(); err != nil {
		return fmt.Errorf("init: %v", err)
	}

	if conf.check {
		if err := ec.Check(); err != nil {
			return fmt.Errorf("check: %v", err)
		}
	}

	if err := ec.Instantiate(hardened.BoolFalse, nil); err != nil {
		return fmt.Errorf("instantiate: %v", err)
	}
	defer func() {
		if err := ec.Uninstantiate(); err != nil {
			klog.Warningf("uninstantiate: %v", err)
		}
	}()

	out := os.Stdout
	if conf.out != "-" {
		var err error
		if out, err = os.Create(conf.out); err != nil {
			return err
		}
		defer out.Close()
	}

	words := (conf.bytes + 3) / 4
	bar := pb.Full.Start64(int64(words * 4))
	defer bar.Finish()

	buf := make([]uint32, chunkWords)
	raw := make([]byte, chunkWords*4)

	for words > 0 {
		n := chunkWords
		if words < n {
			n = words
		}

		if err := ec.Generate(nil, buf[:n], hardened.BoolTrue); err != nil {
			return fmt.Errorf("generate: %v", err)
		}

		for i, word := range buf[:n] {
			binary.LittleEndian.PutUint32(raw[i*4:], word)
		}

		if _, err := out.Write(raw[:n*4]); err != nil {
			return err
		}

		bar.Add64(int64(n * 4))
		words -= n
	}

	return nil
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		klog.Exitf("entropyctl: %v", err)
	}
}
