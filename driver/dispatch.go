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
)

// dispatchInitiator enables the compute shader for DISPATCH packets.
const dispatchInitiator = 1

// beforeDispatch resolves flushes and descriptor state for the compute
// bind point.
func (cb *CommandBuffer) beforeDispatch(ctx context.Context) *Pipeline {
	p := cb.pipelines[BindCompute]
	if p == nil {
		cb.fail(log.Err(ctx, ErrInvalidValue, "Dispatch without a bound compute pipeline"))
		return nil
	}
	s := cb.streamFor(p)
	if s == cb.async {
		cb.sem.flush(cb)
	}
	cb.materializeFlushes(ctx, s)
	cb.flushDescriptors(ctx, BindCompute)
	cb.flushPushConstants(ctx, BindCompute)
	if cb.err != nil {
		return nil
	}
	return p
}

// Dispatch records a direct compute dispatch of workgroups.
func (cb *CommandBuffer) Dispatch(ctx context.Context, x, y, z uint32) {
	if !cb.recording() || x == 0 || y == 0 || z == 0 {
		return
	}
	p := cb.beforeDispatch(ctx)
	if p == nil {
		return
	}
	s := cb.streamFor(p)
	s.emit(pm4.DispatchDirect{X: x, Y: y, Z: z, Initiator: dispatchInitiator})
	cb.afterDispatch(ctx, s)
}

// DispatchIndirect records a dispatch whose dimensions are read from
// device memory. The argument base must have been set by an earlier
// SetBase on the same stream; this call sets it itself.
func (cb *CommandBuffer) DispatchIndirect(ctx context.Context, addr, offset uint64) {
	if !cb.recording() {
		return
	}
	if cb.dev.caps.BugWaitIdleBeforeIndirect {
		cb.pending |= WaitBottomOfPipe
	}
	p := cb.beforeDispatch(ctx)
	if p == nil {
		return
	}
	s := cb.streamFor(p)
	s.emit(pm4.SetBase{Addr: addr})
	if s == cb.primary && cb.dev.caps.BugSyncMeAfterBaseUpdate {
		s.emit(pm4.PfpSyncMe{})
	}
	s.emit(pm4.DispatchIndirect{Offset: uint32(offset), Initiator: dispatchInitiator})
	cb.afterDispatch(ctx, s)
}

func (cb *CommandBuffer) afterDispatch(ctx context.Context, s *CommandStream) {
	if cb.dev.settings.TraceMarkers {
		id := cb.dev.nextTraceID()
		s.emit(pm4.WriteData{Addr: cb.dev.traceAddr, Data: []uint32{id}})
	}
}
