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
	"math"

	"github.com/basalt-gpu/basalt/hal/pm4"
	"github.com/basalt-gpu/basalt/hal/regs"
)

// dynamicEmitters maps dirty bits to their emission functions. Order is
// significant: registers with dependent derived registers come before
// their dependants (viewport before scissor, topology before restart),
// so the table must stay an ordered slice, not a map.
var dynamicEmitters = []struct {
	bits StateBits
	emit func(ctx context.Context, cb *CommandBuffer)
}{
	{StateTopology, emitTopology},
	{StatePrimitiveRestart, emitPrimitiveRestart},
	{StatePatchControl, emitPatchControl},
	{StateViewport, emitViewports},
	{StateScissor, emitScissors},
	{StateLineWidth, emitLineWidth},
	{StateDepthBias, emitDepthBias},
	{StateBlendConstants, emitBlendConstants},
	{StateDepthBounds, emitDepthBounds},
	{StateDepthControl, emitDepthControl},
	{StateStencilOp, emitStencilOps},
	{StateStencilRef, emitStencilRef},
	{StateRaster, emitRaster},
	{StateDiscard, emitDiscard},
	{StateVertexBindings, emitVertexBindings},
	{StateIndexBuffer, emitIndexBuffer},
}

// flushDynamicState emits the categories that are both dirty and consumed
// by the bound pipeline, then clears exactly those bits. The common
// back-to-back draw case exits on the first line.
func (cb *CommandBuffer) flushDynamicState(ctx context.Context, p *Pipeline) {
	toEmit := cb.dirty & p.NeededDynamic
	if toEmit == 0 {
		return
	}
	for _, e := range dynamicEmitters {
		if toEmit&e.bits != 0 {
			e.emit(ctx, cb)
		}
	}
	cb.dirty &^= toEmit
}

func emitViewports(ctx context.Context, cb *CommandBuffer) {
	ds := &cb.dynamic
	values := make([]uint32, 0, 6*ds.viewportCount)
	for i := uint32(0); i < ds.viewportCount; i++ {
		enc := ds.viewports[i].Encode()
		values = append(values, enc[:]...)
	}
	cb.primary.setContextReg(regs.RegViewport0XScale, values...)
}

func emitScissors(ctx context.Context, cb *CommandBuffer) {
	ds := &cb.dynamic
	values := make([]uint32, 0, 2*ds.scissorCount)
	for i := uint32(0); i < ds.scissorCount; i++ {
		enc := ds.scissors[i].Encode()
		values = append(values, enc[:]...)
	}
	cb.primary.setContextReg(regs.RegScissor0TL, values...)
}

func emitLineWidth(ctx context.Context, cb *CommandBuffer) {
	cb.primary.setContextReg(regs.RegLineControl, cb.dynamic.lineWidth.Encode())
}

func emitDepthBias(ctx context.Context, cb *CommandBuffer) {
	enc := cb.dynamic.depthBias.Encode()
	cb.primary.setContextReg(regs.RegDepthBiasClamp, enc[:]...)
}

func emitBlendConstants(ctx context.Context, cb *CommandBuffer) {
	c := cb.dynamic.blendConstants
	cb.primary.setContextReg(regs.RegBlendConstantsR,
		math.Float32bits(c[0]), math.Float32bits(c[1]),
		math.Float32bits(c[2]), math.Float32bits(c[3]))
}

func emitDepthBounds(ctx context.Context, cb *CommandBuffer) {
	b := cb.dynamic.depthBounds
	cb.primary.setContextReg(regs.RegDepthBoundsMin,
		math.Float32bits(b[0]), math.Float32bits(b[1]))
}

func emitDepthControl(ctx context.Context, cb *CommandBuffer) {
	cb.primary.setContextReg(regs.RegDepthControl, cb.dynamic.depthControl.Encode())
}

func emitStencilOps(ctx context.Context, cb *CommandBuffer) {
	cb.primary.setContextReg(regs.RegStencilControl, cb.dynamic.stencilOps.Encode())
}

func emitStencilRef(ctx context.Context, cb *CommandBuffer) {
	cb.primary.setContextReg(regs.RegStencilRefFront,
		cb.dynamic.stencilRefFront.Encode(),
		cb.dynamic.stencilRefBack.Encode())
}

func emitRaster(ctx context.Context, cb *CommandBuffer) {
	cb.primary.setContextReg(regs.RegRasterControl, cb.dynamic.raster.Encode())
}

func emitDiscard(ctx context.Context, cb *CommandBuffer) {
	v := uint32(0)
	if cb.dynamic.discard {
		v = 1
	}
	cb.primary.setContextReg(regs.RegDiscardEnable, v)
}

func emitTopology(ctx context.Context, cb *CommandBuffer) {
	cb.primary.setUConfigReg(regs.RegPrimitiveTopology, cb.dynamic.topology.Encode())
}

func emitPrimitiveRestart(ctx context.Context, cb *CommandBuffer) {
	v := uint32(0)
	if cb.dynamic.primitiveRestart && cb.dynamic.topology.IsStrip() {
		v = 1
	}
	cb.primary.setContextReg(regs.RegPrimitiveRestart, v)
}

func emitPatchControl(ctx context.Context, cb *CommandBuffer) {
	cb.primary.setContextReg(regs.RegPatchControl, cb.dynamic.patchControl.Encode())
}

func emitVertexBindings(ctx context.Context, cb *CommandBuffer) {
	cb.flushVertexBindings(ctx)
}

func emitIndexBuffer(ctx context.Context, cb *CommandBuffer) {
	ds := &cb.dynamic
	cb.primary.emit(
		pm4.IndexType{Kind: uint32(ds.indexKind)},
		pm4.IndexBase{Addr: ds.indexAddr},
		pm4.IndexBufferSize{Count: uint32(ds.indexSize / ds.indexKind.Bytes())},
	)
}
