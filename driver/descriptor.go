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
	"encoding/binary"

	"github.com/basalt-gpu/basalt/hal/regs"
)

// maxDescriptorSets bounds the descriptor sets bindable at once.
const maxDescriptorSets = 8

// maxPushConstantBytes bounds the push-constant block.
const maxPushConstantBytes = 128

// DescriptorSet is the narrow view this layer has of a set: a device
// address and a size. Contents are never inspected here.
type DescriptorSet struct {
	Addr uint64
	Size uint64
}

// SetRef is a descriptor set reference that is either owned (an inline
// push set copied into the command buffer) or borrowed from a pool.
type SetRef struct {
	set   *DescriptorSet
	owned *DescriptorSet
}

// OwnedSet copies s into the reference. Used for inline push sets whose
// storage belongs to the command buffer.
func OwnedSet(s DescriptorSet) SetRef {
	c := s
	return SetRef{set: &c, owned: &c}
}

// BorrowedSet references a pool-owned set without copying.
func BorrowedSet(s *DescriptorSet) SetRef {
	return SetRef{set: s}
}

func (r SetRef) valid() bool { return r.set != nil }

// Addr returns the referenced set's device address.
func (r SetRef) Addr() uint64 {
	if r.set == nil {
		return 0
	}
	return r.set.Addr
}

// descriptorState tracks bound sets for one bind point. dirty is always a
// subset of valid.
type descriptorState struct {
	sets           [maxDescriptorSets]SetRef
	valid          uint32
	dirty          uint32
	dynamicOffsets []uint32
	layoutHash     uint64
}

// relayout re-dirties every valid set when the pipeline register layout
// changes. valid is kept; the bindings themselves are still good.
func (d *descriptorState) relayout(hash uint64) {
	d.layoutHash = hash
	d.dirty = d.valid
}

func (d *descriptorState) reset() {
	*d = descriptorState{dynamicOffsets: d.dynamicOffsets[:0]}
}

// BindDescriptorSets binds sets starting at slot first and replaces the
// dynamic offset table. Rebinding the same set address still dirties it;
// offsets may have changed underneath.
func (cb *CommandBuffer) BindDescriptorSets(bp BindPoint, first int, sets []SetRef, dynamicOffsets []uint32) error {
	if !cb.recording() {
		return nil
	}
	if first < 0 || first+len(sets) > maxDescriptorSets {
		return ErrInvalidValue
	}
	d := &cb.descriptors[bp]
	for i, s := range sets {
		slot := uint32(first + i)
		if !s.valid() {
			return ErrInvalidValue
		}
		d.sets[slot] = s
		d.valid |= 1 << slot
		d.dirty |= 1 << slot
	}
	if len(dynamicOffsets) > 0 {
		d.dynamicOffsets = append(d.dynamicOffsets[:0], dynamicOffsets...)
		cb.pushDirty[bp] = true
	}
	return nil
}

// PushConstants writes bytes into the push-constant block.
func (cb *CommandBuffer) PushConstants(offset int, data []byte) error {
	if !cb.recording() {
		return nil
	}
	if offset < 0 || offset+len(data) > maxPushConstantBytes {
		return ErrInvalidValue
	}
	copy(cb.pushData[offset:], data)
	for bp := BindPoint(0); bp < bindPointCount; bp++ {
		cb.pushDirty[bp] = true
	}
	return nil
}

// flushDescriptors writes one pointer per dirty-and-valid set into each
// stage that reads it, then clears those dirty bits. Pipelines taking the
// table through a single indirect pointer get an upload block of all valid
// set addresses instead.
func (cb *CommandBuffer) flushDescriptors(ctx context.Context, bp BindPoint) {
	p := cb.pipelines[bp]
	if p == nil {
		return
	}
	d := &cb.descriptors[bp]
	pending := d.dirty & d.valid
	if pending == 0 && !cb.pushDirty[bp] {
		return
	}

	if p.needsIndirectTable() && pending != 0 {
		table := make([]uint32, 0, 2*maxDescriptorSets)
		for slot := 0; slot < maxDescriptorSets; slot++ {
			if d.valid&(1<<slot) == 0 {
				continue
			}
			a := d.sets[slot].Addr()
			table = append(table, uint32(a), uint32(a>>32))
		}
		addr, err := cb.upload.allocDwords(table, 8)
		if err != nil {
			cb.fail(err)
			return
		}
		for _, st := range p.hwStages() {
			if slot := p.IndirectSlot[st]; slot >= 0 {
				cb.stageStream(p, st).setUserDataAddr(st, int(slot), addr)
			}
		}
		d.dirty = 0
	}

	for slot := 0; slot < maxDescriptorSets; slot++ {
		if pending&(1<<slot) == 0 {
			continue
		}
		a := d.sets[slot].Addr()
		for _, st := range p.hwStages() {
			if reg := p.SetSlots[st][slot]; reg >= 0 {
				cb.stageStream(p, st).setUserDataAddr(st, int(reg), a)
			}
		}
		d.dirty &^= 1 << slot
	}
}

// flushPushConstants uploads the push-constant bytes together with the
// dynamic offset table and patches one pointer per distinct shader. Must
// run after flushDescriptors; the pointers share adjacent user-data
// registers and a stale neighbour must not be observed.
func (cb *CommandBuffer) flushPushConstants(ctx context.Context, bp BindPoint) {
	p := cb.pipelines[bp]
	if p == nil || !cb.pushDirty[bp] {
		return
	}
	d := &cb.descriptors[bp]

	size := uint64(maxPushConstantBytes + 4*len(d.dynamicOffsets))
	addr, host, err := cb.upload.alloc(size, 8)
	if err != nil {
		cb.fail(err)
		return
	}
	n := copy(host, cb.pushData[:])
	for i, off := range d.dynamicOffsets {
		binary.LittleEndian.PutUint32(host[n+i*4:], off)
	}

	patched := map[uint64]bool{}
	for _, st := range p.hwStages() {
		slot := p.PushConstSlot[st]
		if slot < 0 {
			continue
		}
		hash := p.Stages[st].CodeHash
		if patched[hash] {
			continue
		}
		patched[hash] = true
		cb.stageStream(p, st).setUserDataAddr(st, int(slot), addr)
	}
	cb.pushDirty[bp] = false
}

// flushVertexBindings uploads the vertex descriptor table, points the
// vertex stage's code address at the matching input prolog, and patches
// the table pointer. Called from the dynamic state flush when the table
// is dirty.
func (cb *CommandBuffer) flushVertexBindings(ctx context.Context) {
	p := cb.pipelines[BindGraphics]
	if p == nil || p.VertexTableSlot < 0 {
		return
	}
	ds := &cb.dynamic
	if ds.bindingCount == 0 {
		return
	}
	var vsStage regs.HwStage = regs.HwStageVs
	if p.Stages[regs.HwStageGs] != nil && p.Stages[regs.HwStageVs] == nil {
		vsStage = regs.HwStageGs
	}

	// The input prolog is generated per {layout, strides} and tail-jumps
	// into the stage's main body, so its address replaces the one written
	// at bind.
	sp, err := cb.dev.prologs.Get(ctx, prologKey(p, ds))
	if err != nil {
		cb.fail(err)
		return
	}
	cb.primary.setShReg(shaderAddrReg(vsStage), uint32(sp.Addr>>8))

	// 4 dwords per binding: address, stride, range.
	table := make([]uint32, 0, 4*ds.bindingCount)
	for i := uint32(0); i < ds.bindingCount; i++ {
		b := ds.bindings[i]
		table = append(table, uint32(b.Addr), uint32(b.Addr>>32), b.Stride, uint32(b.Size))
	}
	addr, err := cb.upload.allocDwords(table, 16)
	if err != nil {
		cb.fail(err)
		return
	}
	cb.primary.setUserDataAddr(vsStage, int(p.VertexTableSlot), addr)
}

// prologKey hashes the pipeline's input layout together with the bound
// strides; bindings with equal shapes share one compiled prolog.
func prologKey(p *Pipeline, ds *DynamicState) uint64 {
	const prime = 0x100000001b3
	key := p.LayoutHash
	for i := uint32(0); i < ds.bindingCount; i++ {
		key = key*prime ^ uint64(ds.bindings[i].Stride)
	}
	return key
}
