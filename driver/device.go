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

// Package driver records command buffers and turns them into the packet
// streams a GPU command processor executes. Recording calls only mutate
// shadowed state; draws and dispatches resolve the accumulated dirty bits,
// cache flushes and uploads into the minimal packet sequence.
package driver

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/basalt-gpu/basalt/core/log"
	"github.com/basalt-gpu/basalt/hal/gpuinfo"
)

// vaAlign is the granularity of device address assignment.
const vaAlign = 64 << 10

// vaBase keeps assigned addresses away from the null page.
const vaBase = uint64(1) << 32

// Device owns the state shared by all command buffers: the capability
// table, settings, the subprogram cache and device address assignment.
type Device struct {
	caps     gpuinfo.Caps
	settings Settings
	prologs  *SubprogramCache

	nextVA    uint64
	traceAddr uint64
	traceID   uint32
}

// NewDevice creates a device for the given revision. compile generates
// subprograms on cache misses; tests may pass a deterministic stub.
func NewDevice(ctx context.Context, rev gpuinfo.Revision, settings Settings, compile CompileFunc) (*Device, error) {
	if settings.UploadHeapMinSize == 0 {
		return nil, errors.New("upload heap minimum size must not be zero")
	}
	if compile == nil {
		compile = func(ctx context.Context, key uint64) (*Subprogram, error) {
			return nil, errors.Errorf("no subprogram compiler installed (key %016x)", key)
		}
	}
	prologs, err := NewSubprogramCache(settings.SubprogramCacheSize, compile)
	if err != nil {
		return nil, err
	}
	d := &Device{
		caps:     gpuinfo.CapsFor(rev),
		settings: settings,
		prologs:  prologs,
		nextVA:   vaBase,
	}
	d.traceAddr = d.assignVA(8)
	log.I(ctx, "Created %v device (%v)", d.caps.Level, rev.Name)
	return d, nil
}

// Caps returns the device capability table.
func (d *Device) Caps() gpuinfo.Caps { return d.caps }

// Subprograms returns the device-wide subprogram cache.
func (d *Device) Subprograms() *SubprogramCache { return d.prologs }

// TraceAddr is the fixed device address trace markers are written to.
func (d *Device) TraceAddr() uint64 { return d.traceAddr }

// assignVA reserves a device address range. Addresses are never reused;
// the 48 bit space outlives any recording session.
func (d *Device) assignVA(size uint64) uint64 {
	n := alignUp(size, vaAlign)
	return atomic.AddUint64(&d.nextVA, n) - n
}

// nextTraceID returns the next value for the post-draw trace marker.
func (d *Device) nextTraceID() uint32 {
	return atomic.AddUint32(&d.traceID, 1)
}

// allocDeviceMemory maps a host-visible allocation and assigns it a device
// address.
func (d *Device) allocDeviceMemory(size uint64) (*Buffer, error) {
	data, err := mapDeviceMemory(size)
	if err != nil {
		return nil, errors.Wrap(ErrOutOfDeviceMemory, err.Error())
	}
	return &Buffer{addr: d.assignVA(size), data: data}, nil
}

// NewCommandBuffer creates a command buffer in the initial state.
func (d *Device) NewCommandBuffer() *CommandBuffer {
	cb := &CommandBuffer{
		dev:     d,
		primary: newCommandStream(EngineUniversal),
	}
	cb.upload.dev = d
	cb.upload.onGrow = func(b *Buffer) { cb.primary.addResident(b) }
	return cb
}
