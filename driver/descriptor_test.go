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
	"testing"

	"github.com/basalt-gpu/basalt/core/assert"
	"github.com/basalt-gpu/basalt/core/log"
	"github.com/basalt-gpu/basalt/hal/gpuinfo"
	"github.com/basalt-gpu/basalt/hal/pm4"
	"github.com/basalt-gpu/basalt/hal/regs"
)

// descriptorPipeline reads set 0 from VS slots 2..3 and push constants
// from VS slots 4..5; every data pointer spans two user-data registers.
func descriptorPipeline() *Pipeline {
	p := testPipeline(0)
	p.SetSlots[regs.HwStageVs][0] = 2
	p.PushConstSlot[regs.HwStageVs] = 4
	p.LayoutHash = 10
	return p
}

func TestDirtySubsetOfValid(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	set := &DescriptorSet{Addr: 0x100000, Size: 256}
	cb.BindDescriptorSets(BindGraphics, 0, []SetRef{BorrowedSet(set)}, nil)
	ds := &cb.descriptors[BindGraphics]
	assert.For(ctx, "subset").That(ds.dirty &^ ds.valid).Equals(uint32(0))
	cb.Destroy(ctx)
}

func TestDescriptorFlushedOnceThenClean(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(descriptorPipeline())
	set := &DescriptorSet{Addr: 0x100000, Size: 256}
	cb.BindDescriptorSets(BindGraphics, 0, []SetRef{BorrowedSet(set)}, nil)

	ptrReg := regs.UserDataReg(regs.HwStageVs, 2)
	isPtrWrite := func(p pm4.Packet) bool {
		sh, ok := p.(pm4.SetShReg)
		return ok && sh.Reg == ptrReg
	}
	cb.Draw(ctx, 3, 1, 0, 0)
	assert.For(ctx, "first draw patches").ThatInteger(countPackets(cb.primary, isPtrWrite)).Equals(1)
	cb.Draw(ctx, 3, 1, 0, 0)
	assert.For(ctx, "second draw silent").ThatInteger(countPackets(cb.primary, isPtrWrite)).Equals(1)
	cb.Destroy(ctx)
}

func TestRelayoutRedirtiesWithoutClearingValid(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(descriptorPipeline())
	set := &DescriptorSet{Addr: 0x100000, Size: 256}
	cb.BindDescriptorSets(BindGraphics, 0, []SetRef{BorrowedSet(set)}, nil)
	cb.Draw(ctx, 3, 1, 0, 0)

	ds := &cb.descriptors[BindGraphics]
	assert.For(ctx, "clean after draw").That(ds.dirty).Equals(uint32(0))

	// Same sets, different register layout: everything valid re-dirties.
	p2 := descriptorPipeline()
	p2.LayoutHash = 11
	cb.BindPipeline(p2)
	assert.For(ctx, "valid kept").That(ds.valid).Equals(uint32(1))
	assert.For(ctx, "redirtied").That(ds.dirty).Equals(ds.valid)
	cb.Destroy(ctx)
}

func TestPushConstantPointerFollowsDescriptors(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(descriptorPipeline())
	set := &DescriptorSet{Addr: 0x100000, Size: 256}
	cb.BindDescriptorSets(BindGraphics, 0, []SetRef{BorrowedSet(set)}, nil)
	cb.PushConstants(0, []byte{1, 2, 3, 4})
	cb.Draw(ctx, 3, 1, 0, 0)

	setReg := regs.UserDataReg(regs.HwStageVs, 2)
	pushReg := regs.UserDataReg(regs.HwStageVs, 4)
	setIdx, pushIdx := -1, -1
	for i, p := range cb.primary.Packets() {
		if sh, ok := p.(pm4.SetShReg); ok {
			switch sh.Reg {
			case setReg:
				setIdx = i
			case pushReg:
				pushIdx = i
			}
		}
	}
	assert.For(ctx, "set patched").ThatBoolean(setIdx >= 0).Equals(true)
	assert.For(ctx, "push patched").ThatBoolean(pushIdx >= 0).Equals(true)
	assert.For(ctx, "ordering").ThatBoolean(setIdx < pushIdx).Equals(true)
	cb.Destroy(ctx)
}

func TestSharedCodePatchedOnce(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)

	p := descriptorPipeline()
	// PS shares compiled code with VS; its push pointer must not be
	// patched a second time.
	p.Stages[regs.HwStagePs].CodeHash = p.Stages[regs.HwStageVs].CodeHash
	p.PushConstSlot[regs.HwStagePs] = 4
	cb.BindPipeline(p)
	cb.PushConstants(0, []byte{9})
	cb.Draw(ctx, 3, 1, 0, 0)

	writes := countPackets(cb.primary, func(pkt pm4.Packet) bool {
		sh, ok := pkt.(pm4.SetShReg)
		if !ok {
			return false
		}
		return sh.Reg == regs.UserDataReg(regs.HwStageVs, 4) ||
			sh.Reg == regs.UserDataReg(regs.HwStagePs, 4)
	})
	assert.For(ctx, "one patch").ThatInteger(writes).Equals(1)
	cb.Destroy(ctx)
}

func TestIndirectTableUploaded(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)

	p := descriptorPipeline()
	p.IndirectSlot[regs.HwStageVs] = 5
	cb.BindPipeline(p)
	cb.BindDescriptorSets(BindGraphics, 0, []SetRef{
		BorrowedSet(&DescriptorSet{Addr: 0x100000}),
		BorrowedSet(&DescriptorSet{Addr: 0x200000}),
	}, nil)
	cb.Draw(ctx, 3, 1, 0, 0)

	tableReg := regs.UserDataReg(regs.HwStageVs, 5)
	writes := countPackets(cb.primary, func(pkt pm4.Packet) bool {
		sh, ok := pkt.(pm4.SetShReg)
		return ok && sh.Reg == tableReg
	})
	assert.For(ctx, "table pointer").ThatInteger(writes).Equals(1)
	cb.Destroy(ctx)
}

func userDataAddr(s *CommandStream, reg uint16) (uint64, bool) {
	for _, p := range s.Packets() {
		if sh, ok := p.(pm4.SetShReg); ok && sh.Reg == reg && len(sh.Values) == 2 {
			return uint64(sh.Values[0]) | uint64(sh.Values[1])<<32, true
		}
	}
	return 0, false
}

func TestSetPointerCarriesFullAddress(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(descriptorPipeline())

	// Sets carry no address alignment contract; low bits must survive.
	set := &DescriptorSet{Addr: 0x100010040, Size: 64}
	cb.BindDescriptorSets(BindGraphics, 0, []SetRef{BorrowedSet(set)}, nil)
	cb.Draw(ctx, 3, 1, 0, 0)

	got, ok := userDataAddr(cb.primary, regs.UserDataReg(regs.HwStageVs, 2))
	assert.For(ctx, "pointer written").ThatBoolean(ok).Equals(true)
	assert.For(ctx, "full address").ThatUint64(got).Equals(uint64(0x100010040))
	cb.Destroy(ctx)
}

func TestPushPointerKeepsUploadOffset(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BindPipeline(descriptorPipeline())

	// Push the heap cursor off every 256 byte boundary; the block lands
	// at the next cache line and the pointer must reconstruct exactly.
	if _, _, err := cb.Alloc(16, 8); err != nil {
		t.Fatal(err)
	}
	cb.PushConstants(0, []byte{1, 2, 3, 4})
	cb.Draw(ctx, 3, 1, 0, 0)

	got, ok := userDataAddr(cb.primary, regs.UserDataReg(regs.HwStageVs, 4))
	assert.For(ctx, "pointer written").ThatBoolean(ok).Equals(true)
	assert.For(ctx, "block address").ThatUint64(got).Equals(cb.upload.active.addr + 64)
	cb.Destroy(ctx)
}

func TestVertexPrologCompiledOnceAndPatched(t *testing.T) {
	ctx := log.Testing(t)
	compiles := 0
	s := DefaultSettings()
	s.UploadHeapMinSize = 4 << 10
	d, err := NewDevice(ctx, gpuinfo.Revision{Level: gpuinfo.Gfx10, Name: "test"}, s,
		func(ctx context.Context, key uint64) (*Subprogram, error) {
			compiles++
			return &Subprogram{Key: key, Addr: 0x5000, Size: 64}, nil
		})
	if err != nil {
		t.Fatal(err)
	}
	cb := beginTestBuffer(ctx, t, d)
	p := testPipeline(StateVertexBindings)
	p.VertexTableSlot = 6
	cb.BindPipeline(p)
	cb.BindVertexBuffers(0, []VertexBinding{{Addr: 0x400000, Size: 256, Stride: 16}})
	cb.Draw(ctx, 3, 1, 0, 0)

	reg := shaderAddrReg(regs.HwStageVs)
	writes := 0
	var last uint32
	for _, pkt := range cb.primary.Packets() {
		if sh, ok := pkt.(pm4.SetShReg); ok && sh.Reg == reg {
			writes++
			last = sh.Values[0]
		}
	}
	// One write at bind, one repointing the stage at the prolog.
	assert.For(ctx, "code writes").ThatInteger(writes).Equals(2)
	assert.For(ctx, "prolog address").That(last).Equals(uint32(0x5000 >> 8))
	assert.For(ctx, "compiled once").ThatInteger(compiles).Equals(1)

	// Unchanged bindings: the cached prolog serves, nothing recompiles.
	cb.Draw(ctx, 3, 1, 0, 0)
	assert.For(ctx, "still one compile").ThatInteger(compiles).Equals(1)
	cb.Destroy(ctx)
}

func TestOwnedSetCopies(t *testing.T) {
	ctx := log.Testing(t)
	s := DescriptorSet{Addr: 0x100000}
	ref := OwnedSet(s)
	s.Addr = 0x200000
	assert.For(ctx, "copy kept").ThatUint64(ref.Addr()).Equals(uint64(0x100000))
}
