// Copyright (C) 2024 The Basalt Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// pm4dump disassembles a raw stream of little-endian PM4 dwords.
//
//	pm4dump stream.bin
//	pm4dump < stream.bin
package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/basalt-gpu/basalt/core/data/endian"
	"github.com/basalt-gpu/basalt/core/log"
	"github.com/basalt-gpu/basalt/hal/pm4"
)

var verbose = flag.Bool("v", false, "enable debug logging")

func main() {
	flag.Parse()
	ctx := context.Background()
	ctx = log.PutHandler(ctx, log.Stderr(log.Normal))
	if *verbose {
		ctx = log.PutFilter(ctx, log.Debug)
	}
	os.Exit(run(ctx))
}

func run(ctx context.Context) int {
	in := io.Reader(os.Stdin)
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			log.E(ctx, "Failed to open %v: %v", flag.Arg(0), err)
			return 1
		}
		defer f.Close()
		in = f
	}
	if err := pm4.Disassemble(endian.Reader(in), os.Stdout); err != nil {
		log.E(ctx, "Disassembly failed: %v", err)
		return 1
	}
	return 0
}
