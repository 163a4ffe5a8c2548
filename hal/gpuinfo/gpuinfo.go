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

// Package gpuinfo identifies GPU revisions and derives their capability
// table. Emission code branches on Caps flags, never on raw revisions.
package gpuinfo

import "fmt"

// GfxLevel is a hardware generation of the graphics core.
type GfxLevel int

const (
	Gfx8 = GfxLevel(iota + 8)
	Gfx9
	Gfx10
	Gfx11
)

func (l GfxLevel) String() string {
	return fmt.Sprintf("gfx%d", int(l))
}

// Revision identifies a concrete GPU.
type Revision struct {
	Level    GfxLevel
	DeviceID uint32
	Name     string
}

// Caps is the capability and erratum table for one revision. It is derived
// once at device creation; everything downstream reads flags from here.
type Caps struct {
	Level GfxLevel

	// Feature support.
	NativePredication bool // SET_PREDICATION understood by the engine
	MultiDrawPacket   bool // DRAW_*_INDIRECT_MULTI available
	MeshShaders       bool
	TaskRings         bool // task payload rings and the ACE taskmesh packets
	StreamOutQuery    bool // opaque draws sourced from a stream-out counter
	GpuDrawCount      bool // draw count fetched from GPU memory

	// Limits.
	MaxViewports     uint32
	MaxUserDataSlots uint32

	// Errata. Each names a workaround the emitters must apply.
	BugWaitIdleBeforeIndirect bool // full wait-idle before indirect draws
	BugDoubleCsPartialFlush   bool // CS_PARTIAL_FLUSH must be issued twice
	BugSyncMeAfterBaseUpdate  bool // PFP_SYNC_ME after SET_BASE rewrites
}

// CapsFor derives the capability table for a revision.
func CapsFor(rev Revision) Caps {
	c := Caps{
		Level:            rev.Level,
		MaxViewports:     16,
		MaxUserDataSlots: 16,
	}
	switch {
	case rev.Level >= Gfx11:
		c.NativePredication = true
		c.MultiDrawPacket = true
		c.MeshShaders = true
		c.TaskRings = true
		c.StreamOutQuery = true
		c.GpuDrawCount = true
	case rev.Level >= Gfx10:
		c.NativePredication = true
		c.MultiDrawPacket = true
		c.MeshShaders = true
		c.TaskRings = true
		c.StreamOutQuery = true
		c.GpuDrawCount = true
		c.BugWaitIdleBeforeIndirect = rev.DeviceID == 0x7310 // early navi
	case rev.Level >= Gfx9:
		c.NativePredication = true
		c.MultiDrawPacket = true
		c.StreamOutQuery = true
		c.GpuDrawCount = true
		c.BugSyncMeAfterBaseUpdate = true
	default:
		c.MultiDrawPacket = true
		c.GpuDrawCount = false
		c.BugDoubleCsPartialFlush = true
		c.BugSyncMeAfterBaseUpdate = true
	}
	return c
}
