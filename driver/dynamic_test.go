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
	"testing"

	"github.com/basalt-gpu/basalt/core/assert"
	"github.com/basalt-gpu/basalt/core/log"
	"github.com/basalt-gpu/basalt/hal/gpuinfo"
	"github.com/basalt-gpu/basalt/hal/regs"
)

func TestSetIdenticalValueDoesNotDirty(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)

	if err := cb.SetLineWidth(2); err != nil {
		t.Fatal(err)
	}
	assert.For(ctx, "dirty after change").That(cb.dirty & StateLineWidth).Equals(StateLineWidth)
	cb.dirty = 0
	if err := cb.SetLineWidth(2); err != nil {
		t.Fatal(err)
	}
	assert.For(ctx, "clean after identical").That(cb.dirty & StateLineWidth).Equals(StateBits(0))
	cb.Destroy(ctx)
}

func TestLastValueWins(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)

	cb.SetLineWidth(1)
	cb.SetLineWidth(2)
	cb.SetLineWidth(3)
	assert.For(ctx, "cached").That(cb.dynamic.lineWidth.Width).Equals(float32(3))

	cb.BindPipeline(testPipeline(StateLineWidth))
	cb.Draw(ctx, 3, 1, 0, 0)
	// Exactly one line width register write reaches the stream.
	n := countPackets(cb.primary, isSetContextReg(regs.RegLineControl))
	assert.For(ctx, "writes").ThatInteger(n).Equals(1)
	cb.Destroy(ctx)
}

func TestViewportArrayDiffing(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)

	vps := []regs.Viewport{{Width: 800, Height: 600, MaxDepth: 1}}
	cb.SetViewports(vps)
	assert.For(ctx, "dirty").That(cb.dirty & StateViewport).Equals(StateViewport)
	cb.dirty = 0
	cb.SetViewports(vps)
	assert.For(ctx, "identical array clean").That(cb.dirty).Equals(StateBits(0))

	vps[0].Width = 1024
	cb.SetViewports(vps)
	assert.For(ctx, "changed array dirty").That(cb.dirty & StateViewport).Equals(StateViewport)
	cb.Destroy(ctx)
}

func TestInvalidValuesRejectedAtCall(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)

	assert.For(ctx, "zero viewports").ThatError(cb.SetViewports(nil)).Failed()
	assert.For(ctx, "too many viewports").ThatError(cb.SetViewports(make([]regs.Viewport, 17))).Failed()
	assert.For(ctx, "zero line width").ThatError(cb.SetLineWidth(0)).Failed()
	assert.For(ctx, "zero patch points").ThatError(cb.SetPatchControlPoints(0)).Failed()
	// Rejection is immediate, not sticky; the buffer still records.
	assert.For(ctx, "still recording").ThatBoolean(cb.recording()).Equals(true)
	cb.Destroy(ctx)
}

func TestOnlyPipelineRelevantStateEmitted(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)

	// Pipeline reads only viewport and scissor.
	cb.BindPipeline(testPipeline(StateViewport | StateScissor))

	cb.SetViewports([]regs.Viewport{{Width: 64, Height: 64, MaxDepth: 1}})
	cb.SetScissors([]regs.Scissor{{Width: 64, Height: 64}})
	// Ten unrelated categories.
	cb.SetLineWidth(2)
	cb.SetDepthBias(regs.DepthBias{Constant: 1})
	cb.SetBlendConstants([4]float32{1, 0, 0, 1})
	cb.SetDepthBounds(0, 0.5)
	cb.SetStencilReference(regs.StencilRefMask{Ref: 1}, regs.StencilRefMask{Ref: 2})
	cb.SetStencilOps(regs.StencilControl{Front: regs.StencilOpState{Pass: regs.StencilReplace}})
	cb.SetDepthControl(regs.DepthControl{DepthTest: true})
	cb.SetRasterControl(regs.RasterControl{Cull: regs.CullBack})
	cb.SetRasterizerDiscard(true)
	cb.SetPrimitiveRestart(true)

	before := len(cb.primary.Packets())
	cb.Draw(ctx, 3, 1, 0, 0)

	emitted := cb.primary.Packets()[before:]
	vp, sc, other := 0, 0, 0
	for _, p := range emitted {
		switch {
		case isSetContextReg(regs.RegViewport0XScale)(p):
			vp++
		case isSetContextReg(regs.RegScissor0TL)(p):
			sc++
		case isSetContextReg(regs.RegLineControl)(p),
			isSetContextReg(regs.RegDepthBiasClamp)(p),
			isSetContextReg(regs.RegBlendConstantsR)(p),
			isSetContextReg(regs.RegDepthBoundsMin)(p),
			isSetContextReg(regs.RegStencilRefFront)(p),
			isSetContextReg(regs.RegStencilControl)(p),
			isSetContextReg(regs.RegDepthControl)(p),
			isSetContextReg(regs.RegRasterControl)(p),
			isSetContextReg(regs.RegDiscardEnable)(p),
			isSetContextReg(regs.RegPrimitiveRestart)(p):
			other++
		}
	}
	assert.For(ctx, "viewport").ThatInteger(vp).Equals(1)
	assert.For(ctx, "scissor").ThatInteger(sc).Equals(1)
	assert.For(ctx, "unrelated").ThatInteger(other).Equals(0)

	// The unrelated bits stay dirty for a later pipeline that needs them.
	assert.For(ctx, "line width still dirty").That(cb.dirty & StateLineWidth).Equals(StateLineWidth)
	cb.Destroy(ctx)
}

func TestSecondFlushEmitsNothing(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)

	p := testPipeline(StateViewport | StateScissor | StateLineWidth)
	cb.BindPipeline(p)
	cb.SetViewports([]regs.Viewport{{Width: 32, Height: 32, MaxDepth: 1}})
	cb.SetScissors([]regs.Scissor{{Width: 32, Height: 32}})
	cb.SetLineWidth(1.5)

	cb.flushDynamicState(ctx, p)
	first := countPackets(cb.primary, anyStateWrite)
	assert.For(ctx, "first flush emits").ThatBoolean(first > 0).Equals(true)

	cb.flushDynamicState(ctx, p)
	second := countPackets(cb.primary, anyStateWrite)
	assert.For(ctx, "second flush silent").ThatInteger(second).Equals(first)
	cb.Destroy(ctx)
}

func TestPipelineAuthoredStateRedirties(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)

	p1 := testPipeline(StateTopology)
	cb.BindPipeline(p1)
	cb.SetPrimitiveTopology(regs.TopologyTriangleList)
	cb.flushDynamicState(ctx, p1)
	assert.For(ctx, "flushed").That(cb.dirty & StateTopology).Equals(StateBits(0))

	// A pipeline authoring the topology must reapply it on bind even
	// though the cached value is unchanged.
	p2 := testPipeline(StateTopology)
	p2.AuthoredState = StateTopology
	cb.BindPipeline(p2)
	assert.For(ctx, "redirtied").That(cb.dirty & StateTopology).Equals(StateTopology)
	cb.Destroy(ctx)
}

func TestRecordingAfterEndIsRejected(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	if err := cb.End(ctx); err != nil {
		t.Fatal(err)
	}
	before := cb.dirty
	cb.SetLineWidth(5)
	assert.For(ctx, "no effect").That(cb.dirty).Equals(before)
	cb.Destroy(ctx)
}
