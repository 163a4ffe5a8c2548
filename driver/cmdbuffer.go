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

	"github.com/pkg/errors"

	"github.com/basalt-gpu/basalt/core/log"
)

type recordState int

const (
	stateInitial = recordState(iota)
	stateRecording
	stateExecutable
)

// CommandBuffer records state mutations and resolves them into packet
// streams at draw and dispatch time. One command buffer must not be
// recorded from two goroutines at once; no internal locking is done.
type CommandBuffer struct {
	dev     *Device
	primary *CommandStream
	async   *CommandStream
	upload  uploadHeap

	state recordState
	err   error

	dynamic DynamicState
	dirty   StateBits

	// pending flush bits apply before the next dependent command; staged
	// bits were requested by barrier destinations and join pending at the
	// next materialization point.
	pending FlushBits
	staged  FlushBits

	pipelines   [bindPointCount]*Pipeline
	descriptors [bindPointCount]descriptorState
	pushData    [maxPushConstantBytes]byte
	pushDirty   [bindPointCount]bool

	sem  crossEngineSem
	pred predicationState

	scratchSize uint64
}

// recording reports whether calls may append work. A failed buffer stays
// formally in the recording state but drops everything; the error is
// reported once at End.
func (cb *CommandBuffer) recording() bool {
	return cb.state == stateRecording && cb.err == nil
}

// fail marks the command buffer failed. All further recording calls are
// no-ops; no packet is appended after the first failure so a recording
// error can never produce a malformed stream.
func (cb *CommandBuffer) fail(err error) {
	if cb.err == nil {
		cb.err = err
	}
}

// Begin moves the command buffer into the recording state.
func (cb *CommandBuffer) Begin(ctx context.Context) error {
	if cb.state == stateRecording {
		return log.Err(ctx, ErrAlreadyRecording, "Begin")
	}
	if cb.state == stateExecutable || cb.err != nil {
		if err := cb.Reset(ctx); err != nil {
			return err
		}
	}
	cb.state = stateRecording
	log.D(ctx, "Command buffer recording started")
	return nil
}

// End finishes recording. The sticky recording error, if any, is reported
// here exactly once; the buffer must then be reset before reuse.
func (cb *CommandBuffer) End(ctx context.Context) error {
	if cb.state != stateRecording {
		return log.Err(ctx, ErrNotRecording, "End")
	}
	if cb.err != nil {
		err := cb.err
		cb.state = stateInitial
		return log.Err(ctx, err, "Recording failed")
	}
	cb.endPredication()
	cb.sem.finalize(cb)
	cb.state = stateExecutable
	log.D(ctx, "Command buffer recorded, %d primary packets", len(cb.primary.packets))
	return nil
}

// Reset returns the command buffer to the initial state. Derived state is
// cleared; the active upload buffer is kept for reuse, retired ones are
// released. Callers must ensure prior execution has been fenced.
func (cb *CommandBuffer) Reset(ctx context.Context) error {
	cb.primary.reset()
	if cb.async != nil {
		cb.async.reset()
	}
	cb.upload.recycle()
	if cb.upload.active != nil {
		cb.primary.addResident(cb.upload.active)
	}
	cb.dynamic = DynamicState{}
	cb.dirty = 0
	cb.pending = 0
	cb.staged = 0
	for bp := BindPoint(0); bp < bindPointCount; bp++ {
		cb.pipelines[bp] = nil
		cb.descriptors[bp].reset()
		cb.pushDirty[bp] = false
	}
	cb.pushData = [maxPushConstantBytes]byte{}
	cb.sem = crossEngineSem{}
	cb.pred = predicationState{}
	cb.scratchSize = 0
	cb.err = nil
	cb.state = stateInitial
	return nil
}

// Destroy releases everything the command buffer owns.
func (cb *CommandBuffer) Destroy(ctx context.Context) {
	cb.upload.drain()
	cb.primary.reset()
	if cb.async != nil {
		cb.async.reset()
	}
	cb.state = stateInitial
	cb.err = errors.New("command buffer destroyed")
}

// Alloc reserves size bytes of device-visible upload memory with the
// given alignment and returns the device address plus the host bytes
// behind it. Layout trackers stage transition metadata through this; the
// block lives until the command buffer is reset or destroyed, and any
// growth is registered with the resident-buffer list.
func (cb *CommandBuffer) Alloc(size, align uint64) (uint64, []byte, error) {
	if !cb.recording() {
		return 0, nil, ErrNotRecording
	}
	return cb.upload.alloc(size, align)
}

// Primary returns the universal engine stream.
func (cb *CommandBuffer) Primary() *CommandStream { return cb.primary }

// Async returns the compute engine stream, or nil if never created.
func (cb *CommandBuffer) Async() *CommandStream { return cb.async }

// ScratchSize returns the peak per-wave scratch demand of bound pipelines.
func (cb *CommandBuffer) ScratchSize() uint64 { return cb.scratchSize }

// ensureAsyncStream lazily creates the compute stream on first use.
func (cb *CommandBuffer) ensureAsyncStream() {
	if cb.async == nil {
		cb.async = newCommandStream(EngineCompute)
		cb.sem.state = semStreamCreated
	}
}

// materializeFlushes folds staged destination bits into pending and emits
// everything accumulated so far. After the call the accumulator is empty.
func (cb *CommandBuffer) materializeFlushes(ctx context.Context, s *CommandStream) {
	bits := cb.pending | cb.staged
	if bits == 0 {
		return
	}
	if cb.dev.settings.ForceFullFlush {
		bits |= WaitBottomOfPipe
	}
	emitFlushes(ctx, s, bits, &cb.dev.caps)
	cb.pending = 0
	cb.staged = 0
}
