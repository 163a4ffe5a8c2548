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
	"github.com/basalt-gpu/basalt/hal/regs"
)

// BindPoint selects which pipeline slot a bind or flush applies to.
type BindPoint int

const (
	BindGraphics = BindPoint(iota)
	BindCompute
	bindPointCount
)

func (b BindPoint) String() string {
	if b == BindGraphics {
		return "graphics"
	}
	return "compute"
}

// Shader is a compiled stage as this layer sees it: an entry address and a
// hash identifying the compiled code. Stages sharing a hash share code and
// need their pointer registers patched only once.
type Shader struct {
	Addr     uint64
	CodeHash uint64
}

// RegWrite is one baked register block carried by a pipeline.
type RegWrite struct {
	Reg    uint16
	Values []uint32
}

// Pipeline is the compiled pipeline contract consumed here. Compilation
// and shader formats live elsewhere; this layer only reads locations.
type Pipeline struct {
	BindPoint BindPoint

	// NeededDynamic is the set of dynamic categories this pipeline reads.
	NeededDynamic StateBits
	// AuthoredState is the subset of categories whose value the pipeline
	// bakes itself. Binding re-dirties these even when the cached dynamic
	// value is unchanged.
	AuthoredState StateBits
	// BakedRegs are context register blocks emitted verbatim at bind.
	BakedRegs []RegWrite

	// Stages maps hardware stages to compiled shaders; nil when unused.
	Stages [regs.HwStageCount]*Shader

	// LayoutHash identifies the descriptor register layout. Rebinding a
	// pipeline with a different hash re-dirties every valid set.
	LayoutHash uint64
	// SetSlots gives the user-data slot of each descriptor set pointer
	// per stage, or -1 when the stage does not read the set.
	SetSlots [regs.HwStageCount][maxDescriptorSets]int8
	// PushConstSlot is the user-data slot of the push-constant block
	// pointer per stage, or -1.
	PushConstSlot [regs.HwStageCount]int8
	// IndirectSlot is the user-data slot receiving the indirect
	// descriptor table address, or -1 when sets are addressed directly.
	IndirectSlot [regs.HwStageCount]int8
	// VertexTableSlot is the user-data slot of the vertex descriptor
	// table pointer, or -1 when the pipeline has no vertex inputs.
	VertexTableSlot int8

	// UsesTask marks a mesh pipeline with a task stage, which runs on the
	// asynchronous compute engine.
	UsesTask bool
	// Workgroup is the compute workgroup size; zero for graphics.
	Workgroup regs.ComputeThreads
	// ScratchSize is per-wave scratch demand, tracked for submission.
	ScratchSize uint64
}

// hwStages returns the hardware stages with compiled code, in register
// file order.
func (p *Pipeline) hwStages() []regs.HwStage {
	out := make([]regs.HwStage, 0, regs.HwStageCount)
	for s := regs.HwStage(0); s < regs.HwStageCount; s++ {
		if p.Stages[s] != nil {
			out = append(out, s)
		}
	}
	return out
}

// needsIndirectTable reports whether any stage takes the descriptor table
// through one indirect pointer.
func (p *Pipeline) needsIndirectTable() bool {
	for s := regs.HwStage(0); s < regs.HwStageCount; s++ {
		if p.Stages[s] != nil && p.IndirectSlot[s] >= 0 {
			return true
		}
	}
	return false
}

// BindPipeline makes p current for its bind point. Baked registers are
// emitted immediately; authored dynamic categories are re-dirtied so the
// next draw reapplies them over any stale cached values.
func (cb *CommandBuffer) BindPipeline(p *Pipeline) {
	if !cb.recording() || p == nil {
		return
	}
	bp := p.BindPoint
	prev := cb.pipelines[bp]
	cb.pipelines[bp] = p

	for _, rw := range p.BakedRegs {
		cb.primary.setContextReg(rw.Reg, rw.Values...)
	}
	for _, s := range p.hwStages() {
		cb.stageStream(p, s).setShReg(shaderAddrReg(s), uint32(p.Stages[s].Addr>>8))
	}
	if p.BindPoint == BindCompute {
		dims := p.Workgroup.Encode()
		cb.streamFor(p).setShReg(regs.RegComputeThreadX, dims[:]...)
	}

	cb.dirty |= p.AuthoredState & p.NeededDynamic
	if p.ScratchSize > cb.scratchSize {
		cb.scratchSize = p.ScratchSize
	}

	if prev == nil || prev.LayoutHash != p.LayoutHash {
		cb.descriptors[bp].relayout(p.LayoutHash)
		cb.pushDirty[bp] = true
	}

	if p.UsesTask {
		cb.ensureAsyncStream()
	}
}

// shaderAddrReg returns the SH register holding a stage's code address.
// The address is written shifted right by 8; entry points are 256 byte
// aligned.
func shaderAddrReg(s regs.HwStage) uint16 {
	// The low register of each stage's PGM group sits just below its
	// user-data file.
	switch s {
	case regs.HwStagePs:
		return regs.RegUserDataPs - 4
	case regs.HwStageVs:
		return regs.RegUserDataVs - 4
	case regs.HwStageHs:
		return regs.RegUserDataHs - 4
	case regs.HwStageGs:
		return regs.RegUserDataGs - 4
	case regs.HwStageCs:
		return regs.RegUserDataCs - 4
	default:
		return 0
	}
}

// streamFor returns the stream a pipeline's dispatches execute on.
func (cb *CommandBuffer) streamFor(p *Pipeline) *CommandStream {
	if p != nil && p.UsesTask {
		cb.ensureAsyncStream()
		return cb.async
	}
	return cb.primary
}

// stageStream returns the stream a stage's registers live on. In a task
// pipeline only the task stage, compiled as CS, runs on the compute
// engine; every graphics stage stays on the primary ring.
func (cb *CommandBuffer) stageStream(p *Pipeline, s regs.HwStage) *CommandStream {
	if p.UsesTask && s == regs.HwStageCs {
		cb.ensureAsyncStream()
		return cb.async
	}
	if p.BindPoint == BindCompute {
		return cb.streamFor(p)
	}
	return cb.primary
}
