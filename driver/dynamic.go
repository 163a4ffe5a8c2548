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

import "github.com/basalt-gpu/basalt/hal/regs"

// StateBits is the dirty mask over dynamic state categories. A bit stays
// set until a bound pipeline that consumes the category flushes it.
type StateBits uint32

const (
	StateViewport = StateBits(1 << iota)
	StateScissor
	StateLineWidth
	StateDepthBias
	StateBlendConstants
	StateDepthBounds
	StateStencilRef
	StateStencilOp
	StateDepthControl
	StateRaster
	StateDiscard
	StatePrimitiveRestart
	StateTopology
	StatePatchControl
	StateVertexBindings
	StateIndexBuffer

	StateAll = StateBits(1<<iota) - 1
)

// maxVertexBindings bounds the vertex binding table.
const maxVertexBindings = 32

// VertexBinding is one bound vertex buffer.
type VertexBinding struct {
	Addr   uint64
	Size   uint64
	Stride uint32
}

// IndexKind is the width of bound index data.
type IndexKind uint32

const (
	Index16 = IndexKind(iota)
	Index32
)

// Bytes returns the size of one index.
func (k IndexKind) Bytes() uint64 {
	if k == Index16 {
		return 2
	}
	return 4
}

// DynamicState shadows every per-draw toggleable value. Setters on the
// command buffer diff against this by value before dirtying anything.
type DynamicState struct {
	viewportCount uint32
	viewports     [16]regs.Viewport
	scissorCount  uint32
	scissors      [16]regs.Scissor

	lineWidth      regs.LineControl
	depthBias      regs.DepthBias
	blendConstants [4]float32
	depthBounds    [2]float32

	stencilRefFront regs.StencilRefMask
	stencilRefBack  regs.StencilRefMask
	stencilOps      regs.StencilControl
	depthControl    regs.DepthControl

	raster           regs.RasterControl
	discard          bool
	primitiveRestart bool
	topology         regs.PrimitiveTopology
	patchControl     regs.PatchControl

	bindingCount uint32
	bindings     [maxVertexBindings]VertexBinding

	indexAddr uint64
	indexSize uint64
	indexKind IndexKind
}

// set compares a candidate value against the cache and dirties the category
// only on change.
func setState[T comparable](cb *CommandBuffer, bit StateBits, cached *T, v T) {
	if *cached == v {
		return
	}
	*cached = v
	cb.dirty |= bit
}

// SetViewports replaces the viewport array. Identical values do not dirty.
func (cb *CommandBuffer) SetViewports(vps []regs.Viewport) error {
	if !cb.recording() {
		return nil
	}
	if len(vps) == 0 || uint32(len(vps)) > cb.dev.caps.MaxViewports {
		return ErrInvalidValue
	}
	ds := &cb.dynamic
	n := uint32(len(vps))
	changed := ds.viewportCount != n
	for i, v := range vps {
		if ds.viewports[i] != v {
			ds.viewports[i] = v
			changed = true
		}
	}
	if changed {
		ds.viewportCount = n
		cb.dirty |= StateViewport
	}
	return nil
}

// SetScissors replaces the scissor array. Identical values do not dirty.
func (cb *CommandBuffer) SetScissors(rects []regs.Scissor) error {
	if !cb.recording() {
		return nil
	}
	if len(rects) == 0 || uint32(len(rects)) > cb.dev.caps.MaxViewports {
		return ErrInvalidValue
	}
	ds := &cb.dynamic
	n := uint32(len(rects))
	changed := ds.scissorCount != n
	for i, r := range rects {
		if ds.scissors[i] != r {
			ds.scissors[i] = r
			changed = true
		}
	}
	if changed {
		ds.scissorCount = n
		cb.dirty |= StateScissor
	}
	return nil
}

func (cb *CommandBuffer) SetLineWidth(width float32) error {
	if !cb.recording() {
		return nil
	}
	if width <= 0 {
		return ErrInvalidValue
	}
	setState(cb, StateLineWidth, &cb.dynamic.lineWidth, regs.LineControl{Width: width})
	return nil
}

func (cb *CommandBuffer) SetDepthBias(bias regs.DepthBias) {
	if !cb.recording() {
		return
	}
	setState(cb, StateDepthBias, &cb.dynamic.depthBias, bias)
}

func (cb *CommandBuffer) SetBlendConstants(rgba [4]float32) {
	if !cb.recording() {
		return
	}
	setState(cb, StateBlendConstants, &cb.dynamic.blendConstants, rgba)
}

func (cb *CommandBuffer) SetDepthBounds(min, max float32) {
	if !cb.recording() {
		return
	}
	setState(cb, StateDepthBounds, &cb.dynamic.depthBounds, [2]float32{min, max})
}

// SetStencilReference updates the front and back reference state together.
func (cb *CommandBuffer) SetStencilReference(front, back regs.StencilRefMask) {
	if !cb.recording() {
		return
	}
	ds := &cb.dynamic
	if ds.stencilRefFront == front && ds.stencilRefBack == back {
		return
	}
	ds.stencilRefFront, ds.stencilRefBack = front, back
	cb.dirty |= StateStencilRef
}

func (cb *CommandBuffer) SetStencilOps(ops regs.StencilControl) {
	if !cb.recording() {
		return
	}
	setState(cb, StateStencilOp, &cb.dynamic.stencilOps, ops)
}

func (cb *CommandBuffer) SetDepthControl(dc regs.DepthControl) {
	if !cb.recording() {
		return
	}
	setState(cb, StateDepthControl, &cb.dynamic.depthControl, dc)
}

func (cb *CommandBuffer) SetRasterControl(rc regs.RasterControl) {
	if !cb.recording() {
		return
	}
	setState(cb, StateRaster, &cb.dynamic.raster, rc)
}

func (cb *CommandBuffer) SetRasterizerDiscard(enable bool) {
	if !cb.recording() {
		return
	}
	setState(cb, StateDiscard, &cb.dynamic.discard, enable)
}

func (cb *CommandBuffer) SetPrimitiveRestart(enable bool) {
	if !cb.recording() {
		return
	}
	setState(cb, StatePrimitiveRestart, &cb.dynamic.primitiveRestart, enable)
}

func (cb *CommandBuffer) SetPrimitiveTopology(t regs.PrimitiveTopology) error {
	if !cb.recording() {
		return nil
	}
	if t > regs.TopologyPatchList {
		return ErrInvalidValue
	}
	setState(cb, StateTopology, &cb.dynamic.topology, t)
	return nil
}

func (cb *CommandBuffer) SetPatchControlPoints(points uint32) error {
	if !cb.recording() {
		return nil
	}
	if points == 0 || points > 32 {
		return ErrInvalidValue
	}
	setState(cb, StatePatchControl, &cb.dynamic.patchControl, regs.PatchControl{Points: points})
	return nil
}

// BindVertexBuffers binds a contiguous range of vertex buffers starting at
// first. Identical bindings do not dirty.
func (cb *CommandBuffer) BindVertexBuffers(first uint32, bindings []VertexBinding) error {
	if !cb.recording() {
		return nil
	}
	if first+uint32(len(bindings)) > maxVertexBindings {
		return ErrInvalidValue
	}
	ds := &cb.dynamic
	changed := false
	for i, b := range bindings {
		if ds.bindings[first+uint32(i)] != b {
			ds.bindings[first+uint32(i)] = b
			changed = true
		}
	}
	if n := first + uint32(len(bindings)); n > ds.bindingCount {
		ds.bindingCount = n
		changed = true
	}
	if changed {
		cb.dirty |= StateVertexBindings
	}
	return nil
}

// BindIndexBuffer binds the index source for indexed draws.
func (cb *CommandBuffer) BindIndexBuffer(addr, size uint64, kind IndexKind) error {
	if !cb.recording() {
		return nil
	}
	if kind != Index16 && kind != Index32 {
		return ErrInvalidValue
	}
	ds := &cb.dynamic
	if ds.indexAddr == addr && ds.indexSize == size && ds.indexKind == kind {
		return nil
	}
	ds.indexAddr, ds.indexSize, ds.indexKind = addr, size, kind
	cb.dirty |= StateIndexBuffer
	return nil
}
