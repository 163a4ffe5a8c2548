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
	"github.com/basalt-gpu/basalt/hal/pm4"
	"github.com/basalt-gpu/basalt/hal/regs"
)

func isDraw(p pm4.Packet) bool {
	switch p.(type) {
	case pm4.DrawIndexAuto, pm4.DrawIndex2, pm4.DrawIndirect, pm4.DrawIndexIndirect,
		pm4.DrawIndirectMulti, pm4.DrawIndexIndirectMulti:
		return true
	default:
		return false
	}
}

func TestZeroCountDrawEmitsNothing(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(0))
	before := len(cb.primary.Packets())
	cb.Draw(ctx, 0, 1, 0, 0)
	cb.Draw(ctx, 3, 0, 0, 0)
	assert.For(ctx, "no packets").ThatInteger(len(cb.primary.Packets())).Equals(before)
	cb.Destroy(ctx)
}

func TestDrawWithoutPipelineFails(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	ectx := expectingErrors(ctx, t)
	cb.Draw(ectx, 3, 1, 0, 0)
	assert.For(ctx, "end reports").ThatError(cb.End(ectx)).Failed()
	cb.Destroy(ctx)
}

func TestFailureIsStickyAndReportedOnce(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	ectx := expectingErrors(ctx, t)
	cb.Draw(ectx, 3, 1, 0, 0) // fails: no pipeline
	n := len(cb.primary.Packets())
	cb.BindPipeline(testPipeline(0))
	cb.Draw(ectx, 3, 1, 0, 0) // dropped: buffer already failed
	assert.For(ctx, "no packets after failure").ThatInteger(len(cb.primary.Packets())).Equals(n)
	assert.For(ctx, "end fails").ThatError(cb.End(ectx)).Failed()

	// Reset clears the failure.
	if err := cb.Begin(ctx); err != nil {
		t.Fatal(err)
	}
	assert.For(ctx, "recording again").ThatBoolean(cb.recording()).Equals(true)
	cb.Destroy(ctx)
}

func TestDrawIndexedValidatesRange(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(StateIndexBuffer))
	cb.BindIndexBuffer(0x10000, 600*2, Index16)
	ectx := expectingErrors(ctx, t)
	cb.DrawIndexed(ectx, 601, 1, 0, 0, 0)
	assert.For(ctx, "range rejected").ThatError(cb.End(ectx)).Failed()
	cb.Destroy(ctx)
}

func TestDrawIndexedPacket(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(StateIndexBuffer))
	cb.BindIndexBuffer(0x10000, 600*2, Index16)
	cb.DrawIndexed(ctx, 300, 1, 100, 0, 0)

	var draw *pm4.DrawIndex2
	for _, p := range cb.primary.Packets() {
		if di, ok := p.(pm4.DrawIndex2); ok {
			draw = &di
		}
	}
	if draw == nil {
		t.Fatal("no DRAW_INDEX_2 packet emitted")
	}
	assert.For(ctx, "addr").ThatUint64(draw.Addr).Equals(uint64(0x10000 + 200))
	assert.For(ctx, "count").That(draw.Count).Equals(uint32(300))
	assert.For(ctx, "max size").That(draw.MaxSize).Equals(uint32(500))
	cb.Destroy(ctx)
}

func TestDrawIndexedRejectsWrappingFirstIndex(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(StateIndexBuffer))
	cb.BindIndexBuffer(0x10000, 32*2, Index16)

	// firstIndex+indexCount overflows 32 bits; the sum must not wrap back
	// into range.
	ectx := expectingErrors(ctx, t)
	cb.DrawIndexed(ectx, 2, 1, 0xffffffff, 0, 0)
	assert.For(ctx, "no draw").ThatInteger(countPackets(cb.primary, func(p pm4.Packet) bool {
		_, ok := p.(pm4.DrawIndex2)
		return ok
	})).Equals(0)
	assert.For(ctx, "rejected").ThatError(cb.End(ectx)).Failed()
	cb.Destroy(ctx)
}

func TestStreamOutputDrawReadsCounterIntoRegister(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(0))
	cb.DrawStreamOutput(ctx, 0x50000, 16, 1, 32)

	filledReg := uint16(regs.UConfigRegBase + regs.RegStreamOutFilledSize)
	copies, orphans, strides := 0, 0, 0
	var draw *pm4.DrawIndexAuto
	for _, p := range cb.primary.Packets() {
		switch pkt := p.(type) {
		case pm4.CopyData:
			if pkt.DstReg == filledReg && pkt.SrcAddr == 0x50010 {
				copies++
			} else {
				orphans++
			}
		case pm4.SetUConfigReg:
			if pkt.Reg == regs.RegStreamOutVertexStride {
				strides++
			}
		case pm4.DrawIndexAuto:
			draw = &pkt
		}
	}
	assert.For(ctx, "counter routed").ThatInteger(copies).Equals(1)
	assert.For(ctx, "no orphan copies").ThatInteger(orphans).Equals(0)
	assert.For(ctx, "stride written").ThatInteger(strides).Equals(1)
	if draw == nil {
		t.Fatal("no DRAW_INDEX_AUTO packet emitted")
	}
	assert.For(ctx, "opaque").That(draw.Initiator & diUseOpaque).Equals(uint32(diUseOpaque))
	cb.Destroy(ctx)
}

func TestDegenerateMultiDrawSkipsFixups(t *testing.T) {
	ctx := log.Testing(t)
	s := DefaultSettings()
	s.UploadHeapMinSize = 4 << 10
	s.TraceMarkers = true
	s.ForceSingleDrawPackets = true
	d, err := NewDevice(ctx, gpuinfo.Revision{Level: gpuinfo.Gfx10}, s, nil)
	if err != nil {
		t.Fatal(err)
	}
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(0))
	cb.DrawMulti(ctx, []DrawArgs{{VertexCount: 0}, {VertexCount: 3, InstanceCount: 0}})

	markers := countPackets(cb.primary, func(p pm4.Packet) bool {
		wd, ok := p.(pm4.WriteData)
		return ok && wd.Addr == d.TraceAddr()
	})
	assert.For(ctx, "no markers").ThatInteger(markers).Equals(0)
	cb.Destroy(ctx)
}

func TestIndirectZeroGpuCountStillEmitsValidSequence(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(0))

	// The count lives in GPU memory and may be zero at execution time;
	// the recorded sequence must still be complete and valid.
	cb.DrawIndirectCount(ctx, 0x20000, 0, 0x30000, 64, 16)
	assert.For(ctx, "no error").ThatBoolean(cb.err == nil).Equals(true)

	var multi *pm4.DrawIndirectMulti
	sawBase := false
	for _, p := range cb.primary.Packets() {
		switch pkt := p.(type) {
		case pm4.SetBase:
			sawBase = true
		case pm4.DrawIndirectMulti:
			multi = &pkt
		}
	}
	assert.For(ctx, "base set").ThatBoolean(sawBase).Equals(true)
	if multi == nil {
		t.Fatal("no DRAW_INDIRECT_MULTI packet emitted")
	}
	assert.For(ctx, "count indirect").ThatBoolean(multi.CountIndirect).Equals(true)
	assert.For(ctx, "count addr").ThatUint64(multi.CountAddr).Equals(uint64(0x30000))
	cb.Destroy(ctx)
}

func TestHostZeroDrawCountIsNoOp(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(0))
	before := len(cb.primary.Packets())
	cb.DrawIndirect(ctx, 0x20000, 0, 0, 16)
	assert.For(ctx, "no packets").ThatInteger(len(cb.primary.Packets())).Equals(before)
	cb.Destroy(ctx)
}

func TestMultiDrawBatchesIntoOnePacket(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(0))
	draws := []DrawArgs{
		{VertexCount: 3, InstanceCount: 1},
		{VertexCount: 6, InstanceCount: 1},
		{VertexCount: 9, InstanceCount: 1},
	}
	cb.DrawMulti(ctx, draws)
	assert.For(ctx, "one packet").ThatInteger(countPackets(cb.primary, isDraw)).Equals(1)
	cb.Destroy(ctx)
}

func TestMultiDrawFallsBackToSinglePackets(t *testing.T) {
	ctx := log.Testing(t)
	s := DefaultSettings()
	s.UploadHeapMinSize = 4 << 10
	s.ForceSingleDrawPackets = true
	d, err := NewDevice(ctx, gpuinfo.Revision{Level: gpuinfo.Gfx10}, s, nil)
	if err != nil {
		t.Fatal(err)
	}
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(0))
	cb.DrawMulti(ctx, []DrawArgs{
		{VertexCount: 3, InstanceCount: 1},
		{VertexCount: 6, InstanceCount: 1},
	})
	assert.For(ctx, "two packets").ThatInteger(countPackets(cb.primary, isDraw)).Equals(2)
	cb.Destroy(ctx)
}

func TestWaitIdleBeforeIndirectErratum(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	if !d.Caps().BugWaitIdleBeforeIndirect {
		// The erratum is keyed off the early navi device id.
		s := DefaultSettings()
		s.UploadHeapMinSize = 4 << 10
		var err error
		d, err = NewDevice(ctx, gpuinfo.Revision{Level: gpuinfo.Gfx10, DeviceID: 0x7310}, s, nil)
		if err != nil {
			t.Fatal(err)
		}
	}
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(0))
	cb.DrawIndirect(ctx, 0x20000, 0, 1, 16)
	idles := countPackets(cb.primary, func(p pm4.Packet) bool {
		ev, ok := p.(pm4.EventWrite)
		return ok && ev.Event == pm4.EventCacheFlushAndInvTs
	})
	assert.For(ctx, "idle emitted").ThatInteger(idles).Equals(1)
	cb.Destroy(ctx)
}

func TestPredicationWrapsDrawOnOldHardware(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx8)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(0))
	if err := cb.BeginPredication(ctx, 0x40000, false); err != nil {
		t.Fatal(err)
	}
	cb.Draw(ctx, 3, 1, 0, 0)
	cb.EndPredication(ctx)

	var cond *pm4.CondExec
	for i, p := range cb.primary.Packets() {
		if ce, ok := p.(pm4.CondExec); ok {
			cond = &ce
			// The wrapped draw packet follows immediately.
			_, isDrawNext := cb.primary.Packets()[i+1].(pm4.DrawIndexAuto)
			assert.For(ctx, "draw follows").ThatBoolean(isDrawNext).Equals(true)
		}
	}
	if cond == nil {
		t.Fatal("no COND_EXEC packet emitted")
	}
	// DRAW_INDEX_AUTO is 3 dwords with its header.
	assert.For(ctx, "exec count").That(cond.ExecCount).Equals(uint32(3))
	cb.Destroy(ctx)
}

func TestNativePredicationUsesSetPredication(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(0))
	cb.BeginPredication(ctx, 0x40000, true)
	cb.Draw(ctx, 3, 1, 0, 0)
	cb.EndPredication(ctx)

	preds := countPackets(cb.primary, func(p pm4.Packet) bool {
		_, ok := p.(pm4.SetPredication)
		return ok
	})
	conds := countPackets(cb.primary, func(p pm4.Packet) bool {
		_, ok := p.(pm4.CondExec)
		return ok
	})
	// One packet arms predication, one disarms it at the end.
	assert.For(ctx, "set predication").ThatInteger(preds).Equals(2)
	assert.For(ctx, "no cond exec").ThatInteger(conds).Equals(0)
	cb.Destroy(ctx)
}

func TestDispatchOnPrimaryStream(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testComputePipeline())
	cb.Dispatch(ctx, 8, 4, 2)

	var dd *pm4.DispatchDirect
	for _, p := range cb.primary.Packets() {
		if pkt, ok := p.(pm4.DispatchDirect); ok {
			dd = &pkt
		}
	}
	if dd == nil {
		t.Fatal("no DISPATCH_DIRECT packet emitted")
	}
	assert.For(ctx, "dims").That([3]uint32{dd.X, dd.Y, dd.Z}).Equals([3]uint32{8, 4, 2})
	cb.Destroy(ctx)
}

func TestZeroDispatchIsNoOp(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testComputePipeline())
	before := len(cb.primary.Packets())
	cb.Dispatch(ctx, 0, 1, 1)
	assert.For(ctx, "no packets").ThatInteger(len(cb.primary.Packets())).Equals(before)
	cb.Destroy(ctx)
}

func TestTraceMarkerAfterDraw(t *testing.T) {
	ctx := log.Testing(t)
	s := DefaultSettings()
	s.UploadHeapMinSize = 4 << 10
	s.TraceMarkers = true
	d, err := NewDevice(ctx, gpuinfo.Revision{Level: gpuinfo.Gfx10}, s, nil)
	if err != nil {
		t.Fatal(err)
	}
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(testPipeline(0))
	cb.Draw(ctx, 3, 1, 0, 0)
	cb.Draw(ctx, 3, 1, 0, 0)

	var ids []uint32
	for _, p := range cb.primary.Packets() {
		if wd, ok := p.(pm4.WriteData); ok && wd.Addr == d.TraceAddr() {
			ids = append(ids, wd.Data[0])
		}
	}
	assert.For(ctx, "two markers").ThatInteger(len(ids)).Equals(2)
	assert.For(ctx, "monotonic").ThatBoolean(ids[1] > ids[0]).Equals(true)
	cb.Destroy(ctx)
}
