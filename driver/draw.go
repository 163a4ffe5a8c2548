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

	"github.com/basalt-gpu/basalt/core/log"
	"github.com/basalt-gpu/basalt/hal/pm4"
	"github.com/basalt-gpu/basalt/hal/regs"
)

// Draw initiator source selects.
const (
	diSrcSelDma       = 0 // indices fetched by DMA
	diSrcSelAutoIndex = 2 // indices generated
	diUseOpaque       = 1 << 11
)

// beforeDraw resolves flushes, descriptors and dirty dynamic state. When a
// full pipeline drain is already owed, register state is emitted first so
// the command processor works through it while the shaders finish; when
// only cheap flushes are pending they go first instead.
func (cb *CommandBuffer) beforeDraw(ctx context.Context) *Pipeline {
	p := cb.pipelines[BindGraphics]
	if p == nil {
		cb.fail(log.Err(ctx, ErrInvalidValue, "Draw without a bound graphics pipeline"))
		return nil
	}
	if (cb.pending | cb.staged).needsIdle() {
		cb.flushDynamicState(ctx, p)
		cb.flushDescriptors(ctx, BindGraphics)
		cb.flushPushConstants(ctx, BindGraphics)
		cb.materializeFlushes(ctx, cb.primary)
	} else {
		cb.materializeFlushes(ctx, cb.primary)
		cb.flushDynamicState(ctx, p)
		cb.flushDescriptors(ctx, BindGraphics)
		cb.flushPushConstants(ctx, BindGraphics)
	}
	if cb.err != nil {
		return nil
	}
	return p
}

// afterDraw runs post-draw fixups: trace markers, debug padding and any
// chip stalls.
func (cb *CommandBuffer) afterDraw(ctx context.Context) {
	if cb.dev.settings.TraceMarkers {
		id := cb.dev.nextTraceID()
		cb.primary.emit(pm4.WriteData{
			Addr:    cb.dev.traceAddr,
			Data:    []uint32{id},
			Confirm: false,
		})
	}
	if cb.dev.settings.DebugMarkers {
		cb.primary.emit(pm4.Nop{Payload: []uint32{0xdeb00000}})
	}
}

// Draw records a non-indexed direct draw. Zero counts are rejected before
// anything is emitted.
func (cb *CommandBuffer) Draw(ctx context.Context, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !cb.recording() || vertexCount == 0 || instanceCount == 0 {
		return
	}
	p := cb.beforeDraw(ctx)
	if p == nil {
		return
	}
	cb.emitDrawPreamble(p, firstVertex, firstInstance, instanceCount)
	cb.emitMaybePredicated(pm4.DrawIndexAuto{
		VertexCount: vertexCount,
		Initiator:   diSrcSelAutoIndex,
	})
	cb.afterDraw(ctx)
}

// DrawArgs is one entry of a host-side multi draw.
type DrawArgs struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// DrawMulti records a batch of direct draws. When the hardware has the
// multi-draw packet and batching is not disabled, the arguments are
// uploaded once and consumed by a single packet; otherwise one packet per
// draw is emitted.
func (cb *CommandBuffer) DrawMulti(ctx context.Context, draws []DrawArgs) {
	if !cb.recording() || len(draws) == 0 {
		return
	}
	p := cb.beforeDraw(ctx)
	if p == nil {
		return
	}
	batch := cb.dev.caps.MultiDrawPacket && !cb.dev.settings.ForceSingleDrawPackets && len(draws) > 1
	if !batch {
		emitted := 0
		for _, d := range draws {
			if d.VertexCount == 0 || d.InstanceCount == 0 {
				continue
			}
			cb.emitDrawPreamble(p, d.FirstVertex, d.FirstInstance, d.InstanceCount)
			cb.emitMaybePredicated(pm4.DrawIndexAuto{
				VertexCount: d.VertexCount,
				Initiator:   diSrcSelAutoIndex,
			})
			emitted++
		}
		if emitted > 0 {
			cb.afterDraw(ctx)
		}
		return
	}

	// Indirect argument layout: vertexCount, instanceCount, firstVertex,
	// firstInstance per draw.
	const stride = 16
	args := make([]uint32, 0, 4*len(draws))
	for _, d := range draws {
		args = append(args, d.VertexCount, d.InstanceCount, d.FirstVertex, d.FirstInstance)
	}
	addr, err := cb.upload.allocDwords(args, 8)
	if err != nil {
		cb.fail(err)
		return
	}
	cb.emitSetBase(addr)
	cb.emitMaybePredicated(pm4.DrawIndirectMulti{
		BaseVertexLoc:    cb.argLoc(p, argBaseVertex),
		StartInstanceLoc: cb.argLoc(p, argStartInstance),
		Count:            uint32(len(draws)),
		Stride:           stride,
		Initiator:        diSrcSelAutoIndex,
	})
	cb.afterDraw(ctx)
}

// DrawIndexed records an indexed direct draw against the bound index
// buffer.
func (cb *CommandBuffer) DrawIndexed(ctx context.Context, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	if !cb.recording() || indexCount == 0 || instanceCount == 0 {
		return
	}
	ds := &cb.dynamic
	if ds.indexAddr == 0 {
		cb.fail(log.Err(ctx, ErrInvalidValue, "DrawIndexed without a bound index buffer"))
		return
	}
	indexBytes := ds.indexKind.Bytes()
	maxIndices := ds.indexSize / indexBytes
	if uint64(firstIndex)+uint64(indexCount) > maxIndices {
		cb.fail(log.Err(ctx, ErrInvalidValue, "DrawIndexed index range exceeds bound buffer"))
		return
	}
	p := cb.beforeDraw(ctx)
	if p == nil {
		return
	}
	cb.emitDrawPreamble(p, uint32(vertexOffset), firstInstance, instanceCount)
	cb.emitMaybePredicated(pm4.DrawIndex2{
		MaxSize:   uint32(maxIndices - uint64(firstIndex)),
		Addr:      ds.indexAddr + uint64(firstIndex)*indexBytes,
		Count:     indexCount,
		Initiator: diSrcSelDma,
	})
	cb.afterDraw(ctx)
}

// DrawIndirect records draws whose arguments live in device memory. A
// drawCount of zero is a no-op; a GPU-resident count is requested with
// DrawIndirectCount.
func (cb *CommandBuffer) DrawIndirect(ctx context.Context, addr, offset uint64, drawCount, stride uint32) {
	cb.drawIndirect(ctx, addr, offset, drawCount, stride, 0, false)
}

// DrawIndirectCount is DrawIndirect with the actual draw count read by the
// GPU from countAddr, bounded by maxCount. A zero value at countAddr
// produces zero draws with no host-visible error.
func (cb *CommandBuffer) DrawIndirectCount(ctx context.Context, addr, offset, countAddr uint64, maxCount, stride uint32) {
	cb.drawIndirect(ctx, addr, offset, maxCount, stride, countAddr, false)
}

// DrawIndexedIndirect is DrawIndirect with indexed argument layout.
func (cb *CommandBuffer) DrawIndexedIndirect(ctx context.Context, addr, offset uint64, drawCount, stride uint32) {
	cb.drawIndirect(ctx, addr, offset, drawCount, stride, 0, true)
}

// DrawIndexedIndirectCount is DrawIndexedIndirect with a GPU-resident
// count.
func (cb *CommandBuffer) DrawIndexedIndirectCount(ctx context.Context, addr, offset, countAddr uint64, maxCount, stride uint32) {
	cb.drawIndirect(ctx, addr, offset, maxCount, stride, countAddr, true)
}

func (cb *CommandBuffer) drawIndirect(ctx context.Context, addr, offset uint64, drawCount, stride uint32, countAddr uint64, indexed bool) {
	if !cb.recording() {
		return
	}
	if countAddr == 0 && drawCount == 0 {
		return
	}
	if cb.dev.caps.GpuDrawCount == false && countAddr != 0 {
		cb.fail(log.Err(ctx, ErrUnsupported, "GPU-resident draw counts"))
		return
	}
	if cb.dev.caps.BugWaitIdleBeforeIndirect {
		cb.pending |= WaitBottomOfPipe
	}
	p := cb.beforeDraw(ctx)
	if p == nil {
		return
	}
	if indexed && cb.dynamic.indexAddr == 0 {
		cb.fail(log.Err(ctx, ErrInvalidValue, "indexed indirect draw without a bound index buffer"))
		return
	}
	cb.emitSetBase(addr + offset)
	base := cb.argLoc(p, argBaseVertex)
	start := cb.argLoc(p, argStartInstance)
	single := drawCount == 1 && countAddr == 0
	switch {
	case single && indexed:
		cb.emitMaybePredicated(pm4.DrawIndexIndirect{
			BaseVertexLoc:    base,
			StartInstanceLoc: start,
			Initiator:        diSrcSelDma,
		})
	case single:
		cb.emitMaybePredicated(pm4.DrawIndirect{
			BaseVertexLoc:    base,
			StartInstanceLoc: start,
			Initiator:        diSrcSelAutoIndex,
		})
	case indexed:
		cb.emitMaybePredicated(pm4.DrawIndexIndirectMulti{
			BaseVertexLoc:    base,
			StartInstanceLoc: start,
			DrawIndexLoc:     cb.argLoc(p, argDrawIndex),
			CountIndirect:    countAddr != 0,
			Count:            drawCount,
			CountAddr:        countAddr,
			Stride:           stride,
			Initiator:        diSrcSelDma,
		})
	default:
		cb.emitMaybePredicated(pm4.DrawIndirectMulti{
			BaseVertexLoc:    base,
			StartInstanceLoc: start,
			DrawIndexLoc:     cb.argLoc(p, argDrawIndex),
			CountIndirect:    countAddr != 0,
			Count:            drawCount,
			CountAddr:        countAddr,
			Stride:           stride,
			Initiator:        diSrcSelAutoIndex,
		})
	}
	cb.afterDraw(ctx)
}

// DrawStreamOutput records a draw whose vertex count comes from a
// stream-output byte counter written by an earlier pass.
func (cb *CommandBuffer) DrawStreamOutput(ctx context.Context, counterAddr uint64, counterOffset, instanceCount, vertexStride uint32) {
	if !cb.recording() || instanceCount == 0 || vertexStride == 0 {
		return
	}
	if !cb.dev.caps.StreamOutQuery {
		cb.fail(log.Err(ctx, ErrUnsupported, "stream-output sourced draws"))
		return
	}
	p := cb.beforeDraw(ctx)
	if p == nil {
		return
	}
	cb.emitDrawPreamble(p, 0, 0, instanceCount)
	// The byte count is copied straight into the filled-size register the
	// VGT divides by the stride while the opaque draw executes.
	cb.primary.emit(
		pm4.CopyData{
			SrcAddr: counterAddr + uint64(counterOffset),
			DstReg:  regs.UConfigRegBase + regs.RegStreamOutFilledSize,
		},
		pm4.PfpSyncMe{},
	)
	cb.primary.setUConfigReg(regs.RegStreamOutVertexStride, vertexStride)
	cb.emitMaybePredicated(pm4.DrawIndexAuto{
		Initiator: diSrcSelAutoIndex | diUseOpaque,
	})
	cb.afterDraw(ctx)
}

// DrawMeshTasks records a task+mesh draw. The task stage runs on the
// compute engine; the two engines rendezvous through the ring packets and
// the cross-engine semaphore.
func (cb *CommandBuffer) DrawMeshTasks(ctx context.Context, x, y, z uint32) {
	if !cb.recording() || x == 0 || y == 0 || z == 0 {
		return
	}
	p, ok := cb.beforeTaskDraw(ctx)
	if !ok {
		return
	}
	cb.async.emit(pm4.DispatchTaskMeshDirectAce{
		X: x, Y: y, Z: z,
		RingEntryLoc: cb.argLoc(p, argRingEntry),
		Initiator:    dispatchInitiator,
	})
	cb.emitMaybePredicated(pm4.DispatchTaskMeshGfx{
		XyzDimLoc:    cb.argLoc(p, argXyzDim),
		RingEntryLoc: cb.argLoc(p, argRingEntry),
		Initiator:    diSrcSelAutoIndex,
	})
	cb.afterDraw(ctx)
}

// DrawMeshTasksIndirect records an indirect task+mesh draw. The source
// argument layout differs from what the ACE packet consumes, so the
// arguments are first copied into a compatible scratch block on the GPU.
func (cb *CommandBuffer) DrawMeshTasksIndirect(ctx context.Context, addr, offset uint64, drawCount, stride uint32) {
	if !cb.recording() || drawCount == 0 {
		return
	}
	p, ok := cb.beforeTaskDraw(ctx)
	if !ok {
		return
	}
	// 3 dwords of dispatch dimensions per draw, 16 byte aligned entries.
	scratch, _, err := cb.upload.alloc(uint64(drawCount)*16, 16)
	if err != nil {
		cb.fail(err)
		return
	}
	src := addr + offset
	for i := uint32(0); i < drawCount; i++ {
		cb.async.emit(pm4.CopyData{
			SrcAddr: src + uint64(i)*uint64(stride),
			DstAddr: scratch + uint64(i)*16,
			Wide:    true,
		})
	}
	cb.async.emit(pm4.DispatchTaskMeshIndirectAce{
		Addr:         scratch,
		RingEntryLoc: cb.argLoc(p, argRingEntry),
		XyzDimLoc:    cb.argLoc(p, argXyzDim),
		Count:        drawCount,
		Stride:       16,
		Initiator:    dispatchInitiator,
	})
	cb.emitMaybePredicated(pm4.DispatchTaskMeshGfx{
		XyzDimLoc:    cb.argLoc(p, argXyzDim),
		RingEntryLoc: cb.argLoc(p, argRingEntry),
		Initiator:    diSrcSelAutoIndex,
	})
	cb.afterDraw(ctx)
}

// beforeTaskDraw is beforeDraw for task+mesh pipelines: it additionally
// requires task support, an async stream, and an up-to-date semaphore.
func (cb *CommandBuffer) beforeTaskDraw(ctx context.Context) (*Pipeline, bool) {
	if !cb.dev.caps.TaskRings {
		cb.fail(log.Err(ctx, ErrUnsupported, "task+mesh pipelines"))
		return nil, false
	}
	p := cb.pipelines[BindGraphics]
	if p == nil || !p.UsesTask {
		cb.fail(log.Err(ctx, ErrInvalidValue, "task draw without a task+mesh pipeline"))
		return nil, false
	}
	cb.ensureAsyncStream()
	cb.sem.flush(cb)
	cb.materializeFlushes(ctx, cb.primary)
	cb.flushDynamicState(ctx, p)
	cb.flushDescriptors(ctx, BindGraphics)
	cb.flushPushConstants(ctx, BindGraphics)
	if cb.err != nil {
		return nil, false
	}
	return p, true
}

// Argument register roles resolved against a pipeline's input locations.
type argRole int

const (
	argBaseVertex = argRole(iota)
	argStartInstance
	argDrawIndex
	argRingEntry
	argXyzDim
)

// argLoc returns the user-data register for an argument role. Pipelines
// that do not consume a role get register 0, which the packet formats
// treat as "not written".
func (cb *CommandBuffer) argLoc(p *Pipeline, role argRole) uint16 {
	stage := regs.HwStageVs
	if p.Stages[stage] == nil {
		stage = regs.HwStageGs
	}
	if p.Stages[stage] == nil {
		return 0
	}
	base := regs.UserDataReg(stage, 0)
	switch role {
	case argBaseVertex:
		return base + 10
	case argStartInstance:
		return base + 11
	case argDrawIndex:
		return base + 12
	case argRingEntry:
		return base + 13
	case argXyzDim:
		return base + 14
	default:
		return 0
	}
}

// emitDrawPreamble writes the per-draw vertex offset, start instance and
// instance count.
func (cb *CommandBuffer) emitDrawPreamble(p *Pipeline, firstVertex, firstInstance, instanceCount uint32) {
	cb.primary.setShReg(cb.argLoc(p, argBaseVertex), firstVertex, firstInstance)
	cb.primary.emit(pm4.NumInstances{Count: instanceCount})
}

// emitSetBase points the indirect argument fetcher at addr, with the PFP
// resync some parts need after rewriting the base.
func (cb *CommandBuffer) emitSetBase(addr uint64) {
	cb.primary.emit(pm4.SetBase{Addr: addr})
	if cb.dev.caps.BugSyncMeAfterBaseUpdate {
		cb.primary.emit(pm4.PfpSyncMe{})
	}
}
