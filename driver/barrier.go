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
)

// MemoryBarrier is one {source, destination} dependency to resolve.
type MemoryBarrier struct {
	SrcStage  StageMask
	SrcAccess AccessMask
	DstStage  StageMask
	DstAccess AccessMask
	// Resource refines the resolution for metadata-bearing or coherent
	// resources; nil means a plain buffer.
	Resource *ResourceInfo
}

// asyncInputStages are the stages that execute on the compute engine.
const asyncInputStages = StageTaskShader

// primaryOutputStages are the stages whose results the compute engine may
// consume across engines.
const primaryOutputStages = StageComputeShader | StageTransfer | StageColorOutput |
	StageDepthOutput | StageFragmentShader | StageBottomOfPipe | StageAllCommands

// PipelineBarrier resolves each barrier into flush bits. Source bits and
// waits accumulate immediately; destination bits are staged and join the
// pending set at the next dependent command, so several barriers before
// one draw collapse into a single materialization.
func (cb *CommandBuffer) PipelineBarrier(ctx context.Context, barriers ...MemoryBarrier) {
	if !cb.recording() {
		return
	}
	for _, b := range barriers {
		cb.pending |= SourceFlushBits(b.SrcAccess, b.Resource)
		cb.pending |= sourceWaitBits(b.SrcStage)
		cb.staged |= DestFlushBits(b.DstAccess, b.Resource)

		// A dependency flowing into the compute engine is ordered by the
		// cross-engine semaphore, not by cache bits.
		if cb.async != nil &&
			b.DstStage&asyncInputStages != 0 &&
			b.SrcStage&primaryOutputStages != 0 {
			cb.sem.increment()
			log.D(ctx, "Cross-engine dependency recorded, to-signal %d", cb.sem.toSignal)
		}
	}
}
