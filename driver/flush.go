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
	"github.com/basalt-gpu/basalt/hal/gpuinfo"
	"github.com/basalt-gpu/basalt/hal/pm4"
)

// FlushBits is the sticky set of pending cache maintenance and wait
// operations. Bits accumulate across barriers and are consumed all at once
// when the next dependent command materializes them.
type FlushBits uint32

const (
	// Cache flush and invalidate domains.
	FlushColor = FlushBits(1 << iota)
	FlushColorMeta
	FlushDepth
	FlushDepthMeta
	InvVectorCache
	InvScalarCache
	InvInstrCache
	InvL2
	WbL2

	// Wait granularities, narrowest to widest. A wider wait implies all
	// narrower ones.
	WaitIndexFetch
	WaitPsPartial
	WaitCsPartial
	WaitBottomOfPipe
)

const flushCacheMask = FlushColor | FlushColorMeta | FlushDepth | FlushDepthMeta |
	InvVectorCache | InvScalarCache | InvInstrCache | InvL2 | WbL2

const flushWaitMask = WaitIndexFetch | WaitPsPartial | WaitCsPartial | WaitBottomOfPipe

// AccessMask describes how a pipeline stage touches memory.
type AccessMask uint32

const (
	AccessIndirectRead = AccessMask(1 << iota)
	AccessIndexRead
	AccessVertexRead
	AccessUniformRead
	AccessShaderRead
	AccessShaderWrite
	AccessColorRead
	AccessColorWrite
	AccessDepthRead
	AccessDepthWrite
	AccessTransferRead
	AccessTransferWrite
	AccessHostRead
	AccessHostWrite
	AccessMemoryRead
	AccessMemoryWrite
)

// StageMask names pipeline stages for barrier resolution.
type StageMask uint32

const (
	StageTopOfPipe = StageMask(1 << iota)
	StageDrawIndirect
	StageVertexInput
	StageVertexShader
	StageTessShader
	StageGeometryShader
	StageTaskShader
	StageMeshShader
	StageFragmentShader
	StageColorOutput
	StageDepthOutput
	StageComputeShader
	StageTransfer
	StageBottomOfPipe

	StageAllGraphics = StageVertexInput | StageVertexShader | StageTessShader |
		StageGeometryShader | StageTaskShader | StageMeshShader |
		StageFragmentShader | StageColorOutput | StageDepthOutput
	StageAllCommands = StageAllGraphics | StageDrawIndirect | StageComputeShader | StageTransfer
)

// ResourceInfo is the part of a resource a barrier cares about: whether it
// carries compressed metadata and whether it is mapped cache-coherent.
type ResourceInfo struct {
	HasMetadata bool
	Coherent    bool
}

// SourceFlushBits returns the cache operations needed so that writes made
// with the given access mask become visible to later consumers.
func SourceFlushBits(access AccessMask, res *ResourceInfo) FlushBits {
	bits := FlushBits(0)
	if access&(AccessShaderWrite|AccessMemoryWrite) != 0 {
		bits |= WbL2
	}
	if access&(AccessColorWrite) != 0 {
		bits |= FlushColor
		if res != nil && res.HasMetadata {
			bits |= FlushColorMeta
		}
	}
	if access&(AccessDepthWrite) != 0 {
		bits |= FlushDepth
		if res != nil && res.HasMetadata {
			bits |= FlushDepthMeta
		}
	}
	if access&(AccessTransferWrite|AccessHostWrite) != 0 {
		bits |= WbL2
	}
	// Metadata surfaces are read-modify-write even for plain shader
	// writes, so the metadata cache must always be flushed with them.
	if res != nil && res.HasMetadata && access&(AccessShaderWrite|AccessTransferWrite|AccessMemoryWrite) != 0 {
		bits |= FlushColorMeta | FlushDepthMeta
	}
	if res != nil && res.Coherent {
		bits &^= WbL2
	}
	return bits
}

// DestFlushBits returns the cache invalidations needed so that reads made
// with the given access mask observe earlier writes.
func DestFlushBits(access AccessMask, res *ResourceInfo) FlushBits {
	bits := FlushBits(0)
	if access&(AccessShaderRead|AccessVertexRead|AccessMemoryRead) != 0 {
		bits |= InvVectorCache
	}
	if access&(AccessUniformRead) != 0 {
		bits |= InvScalarCache | InvVectorCache
	}
	if access&(AccessIndirectRead|AccessIndexRead) != 0 {
		bits |= InvL2
	}
	if access&(AccessColorRead) != 0 {
		bits |= FlushColor
	}
	if access&(AccessDepthRead) != 0 {
		bits |= FlushDepth
	}
	if access&(AccessTransferRead|AccessHostRead|AccessMemoryRead) != 0 {
		bits |= InvL2
	}
	if res != nil && res.HasMetadata && access&(AccessColorRead|AccessDepthRead|AccessShaderRead) != 0 {
		bits |= FlushColorMeta | FlushDepthMeta
	}
	if res != nil && res.Coherent {
		bits &^= InvL2
	}
	return bits
}

// sourceWaitBits resolves a source stage mask into the narrowest wait that
// covers every named stage.
func sourceWaitBits(stages StageMask) FlushBits {
	switch {
	case stages == 0 || stages == StageTopOfPipe:
		return 0
	case stages&(StageColorOutput|StageDepthOutput|StageTransfer|StageBottomOfPipe) != 0:
		return WaitBottomOfPipe
	case stages&(StageComputeShader|StageTaskShader) != 0:
		return WaitCsPartial
	case stages&(StageFragmentShader|StageMeshShader|StageVertexShader|StageTessShader|StageGeometryShader) != 0:
		return WaitPsPartial
	case stages&(StageVertexInput|StageDrawIndirect) != 0:
		return WaitIndexFetch
	default:
		return WaitBottomOfPipe
	}
}

// needsIdle reports whether the bits include a full pipeline drain.
func (b FlushBits) needsIdle() bool {
	return b&WaitBottomOfPipe != 0
}

func (b FlushBits) empty() bool { return b == 0 }

// emitFlushes materializes the accumulated bits as packets on s and returns
// the emitted count. The bit set is consumed by the caller afterwards.
func emitFlushes(ctx context.Context, s *CommandStream, bits FlushBits, caps *gpuinfo.Caps) {
	if bits == 0 {
		return
	}
	log.D(ctx, "Materializing flush bits 0x%x on %v stream", uint32(bits), s.engine)

	// Waits drain the pipeline before caches are touched. Only the widest
	// requested granularity is emitted.
	switch {
	case bits&WaitBottomOfPipe != 0:
		s.emit(pm4.EventWrite{Event: pm4.EventCacheFlushAndInvTs})
		s.emit(pm4.PfpSyncMe{})
	case bits&WaitCsPartial != 0:
		s.emit(pm4.EventWrite{Event: pm4.EventCsPartialFlush})
		if caps.BugDoubleCsPartialFlush {
			s.emit(pm4.EventWrite{Event: pm4.EventCsPartialFlush})
		}
	case bits&WaitPsPartial != 0:
		s.emit(pm4.EventWrite{Event: pm4.EventPsPartialFlush})
	case bits&WaitIndexFetch != 0:
		s.emit(pm4.EventWrite{Event: pm4.EventVgtFlush})
		s.emit(pm4.PfpSyncMe{})
	}

	if bits&FlushColorMeta != 0 {
		s.emit(pm4.EventWrite{Event: pm4.EventFlushAndInvCbMeta})
	}
	if bits&FlushDepthMeta != 0 {
		s.emit(pm4.EventWrite{Event: pm4.EventFlushAndInvDbMeta})
	}

	if coher := acquireCoherCntl(bits); coher != 0 {
		s.emit(pm4.AcquireMem{CoherCntl: coher, Size: ^uint64(0)})
	}
}

// acquireCoherCntl maps cache domain bits onto the ACQUIRE_MEM coherency
// control field.
func acquireCoherCntl(bits FlushBits) uint32 {
	coher := uint32(0)
	if bits&FlushColor != 0 {
		coher |= 1 << 25 // CB_ACTION_ENA
	}
	if bits&FlushDepth != 0 {
		coher |= 1 << 26 // DB_ACTION_ENA
	}
	if bits&InvVectorCache != 0 {
		coher |= 1 << 22 // TCL1_ACTION_ENA
	}
	if bits&InvScalarCache != 0 {
		coher |= 1 << 24 // SH_KCACHE_ACTION_ENA
	}
	if bits&InvInstrCache != 0 {
		coher |= 1 << 27 // SH_ICACHE_ACTION_ENA
	}
	if bits&InvL2 != 0 {
		coher |= 1 << 23 // TC_ACTION_ENA
	}
	if bits&WbL2 != 0 {
		coher |= 1 << 18 // TC_WB_ACTION_ENA
	}
	return coher
}
