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

package driver

import (
	"context"
	"testing"

	"github.com/basalt-gpu/basalt/core/log"
	"github.com/basalt-gpu/basalt/hal/gpuinfo"
	"github.com/basalt-gpu/basalt/hal/pm4"
	"github.com/basalt-gpu/basalt/hal/regs"
)

// expectingErrors returns the context with a log handler that records
// error-severity messages with t.Log instead of t.Error, for calls that
// intentionally drive error paths.
func expectingErrors(ctx context.Context, t *testing.T) context.Context {
	return log.PutHandler(ctx, log.NewHandler(func(m *log.Message) {
		t.Log(log.Normal(m))
	}, nil))
}

func testDevice(ctx context.Context, t *testing.T, level gpuinfo.GfxLevel) *Device {
	s := DefaultSettings()
	s.UploadHeapMinSize = 4 << 10
	d, err := NewDevice(ctx, gpuinfo.Revision{Level: level, Name: "test"}, s,
		func(ctx context.Context, key uint64) (*Subprogram, error) {
			return &Subprogram{Key: key, Addr: 0x1000, Size: 64}, nil
		})
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	return d
}

func beginTestBuffer(ctx context.Context, t *testing.T, d *Device) *CommandBuffer {
	cb := d.NewCommandBuffer()
	if err := cb.Begin(ctx); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	return cb
}

func noSlots() [regs.HwStageCount][maxDescriptorSets]int8 {
	var out [regs.HwStageCount][maxDescriptorSets]int8
	for s := range out {
		for i := range out[s] {
			out[s][i] = -1
		}
	}
	return out
}

func noStageSlots() [regs.HwStageCount]int8 {
	var out [regs.HwStageCount]int8
	for s := range out {
		out[s] = -1
	}
	return out
}

// testPipeline returns a graphics pipeline consuming only the given
// dynamic categories, with a VS+PS stage pair and no descriptor sets.
func testPipeline(needed StateBits) *Pipeline {
	p := &Pipeline{
		BindPoint:       BindGraphics,
		NeededDynamic:   needed,
		SetSlots:        noSlots(),
		PushConstSlot:   noStageSlots(),
		IndirectSlot:    noStageSlots(),
		VertexTableSlot: -1,
		LayoutHash:      1,
	}
	p.Stages[regs.HwStageVs] = &Shader{Addr: 0x100000, CodeHash: 1}
	p.Stages[regs.HwStagePs] = &Shader{Addr: 0x200000, CodeHash: 2}
	return p
}

func testComputePipeline() *Pipeline {
	p := &Pipeline{
		BindPoint:       BindCompute,
		SetSlots:        noSlots(),
		PushConstSlot:   noStageSlots(),
		IndirectSlot:    noStageSlots(),
		VertexTableSlot: -1,
		LayoutHash:      2,
		Workgroup:       regs.ComputeThreads{X: 64, Y: 1, Z: 1},
	}
	p.Stages[regs.HwStageCs] = &Shader{Addr: 0x300000, CodeHash: 3}
	return p
}

func testTaskPipeline() *Pipeline {
	p := testPipeline(0)
	p.UsesTask = true
	return p
}

func countPackets(s *CommandStream, match func(pm4.Packet) bool) int {
	n := 0
	for _, p := range s.Packets() {
		if match(p) {
			n++
		}
	}
	return n
}

func isSetContextReg(reg uint16) func(pm4.Packet) bool {
	return func(p pm4.Packet) bool {
		scr, ok := p.(pm4.SetContextReg)
		return ok && scr.Reg == reg
	}
}

func anyStateWrite(p pm4.Packet) bool {
	switch p.(type) {
	case pm4.SetContextReg, pm4.SetShReg, pm4.SetUConfigReg:
		return true
	default:
		return false
	}
}
