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

package pm4

import (
	"fmt"

	"github.com/basalt-gpu/basalt/core/data/binary"
)

// Packet is a single type-3 packet for the command processor.
type Packet interface {
	// Encode writes the packet, header included, as little-endian dwords.
	Encode(w binary.Writer) error
	isPacket()
}

// EventType identifies an EVENT_WRITE / RELEASE_MEM event.
type EventType uint32

const (
	EventCsPartialFlush     = EventType(0x07)
	EventVsPartialFlush     = EventType(0x0F)
	EventPsPartialFlush     = EventType(0x10)
	EventCacheFlushAndInvTs = EventType(0x14)
	EventPipelineStatDump   = EventType(0x1E)
	EventVgtFlush           = EventType(0x24)
	EventBottomOfPipeTs     = EventType(0x28)
	EventFlushAndInvCbMeta  = EventType(0x2E)
	EventFlushAndInvDbMeta  = EventType(0x2F)
)

// CompareFunc selects the WAIT_REG_MEM comparison.
type CompareFunc uint32

const (
	CompareAlways         = CompareFunc(0)
	CompareLessThan       = CompareFunc(1)
	CompareLessOrEqual    = CompareFunc(2)
	CompareEqual          = CompareFunc(3)
	CompareNotEqual       = CompareFunc(4)
	CompareGreaterOrEqual = CompareFunc(5)
	CompareGreaterThan    = CompareFunc(6)
)

// Nop is the NOP packet. An empty payload encodes as a lone header; a
// non-empty payload carries arbitrary dwords, used for debug markers.
type Nop struct {
	Payload []uint32
}

func (p Nop) String() string { return fmt.Sprintf("Nop(Payload: %d dwords)", len(p.Payload)) }

func (p Nop) Encode(w binary.Writer) error {
	w.Uint32(header(OpNop, len(p.Payload)))
	for _, v := range p.Payload {
		w.Uint32(v)
	}
	return w.Error()
}

// SetContextReg writes consecutive context registers starting at Reg, which
// is a word offset relative to the context register base.
type SetContextReg struct {
	Reg    uint16
	Values []uint32
}

func (p SetContextReg) String() string {
	return fmt.Sprintf("SetContextReg(Reg: 0x%04x, Values: %v)", p.Reg, p.Values)
}

func (p SetContextReg) Encode(w binary.Writer) error {
	if len(p.Values) == 0 {
		panic(fmt.Errorf("SetContextReg with no values"))
	}
	w.Uint32(header(OpSetContextReg, 1+len(p.Values)))
	w.Uint32(uint32(p.Reg))
	for _, v := range p.Values {
		w.Uint32(v)
	}
	return w.Error()
}

// SetShReg writes consecutive persistent-state (SH) registers starting at
// Reg, a word offset relative to the SH register base.
type SetShReg struct {
	Reg    uint16
	Values []uint32
}

func (p SetShReg) String() string {
	return fmt.Sprintf("SetShReg(Reg: 0x%04x, Values: %v)", p.Reg, p.Values)
}

func (p SetShReg) Encode(w binary.Writer) error {
	if len(p.Values) == 0 {
		panic(fmt.Errorf("SetShReg with no values"))
	}
	w.Uint32(header(OpSetShReg, 1+len(p.Values)))
	w.Uint32(uint32(p.Reg))
	for _, v := range p.Values {
		w.Uint32(v)
	}
	return w.Error()
}

// SetUConfigReg writes consecutive universal config registers starting at
// Reg, a word offset relative to the uconfig register base.
type SetUConfigReg struct {
	Reg    uint16
	Values []uint32
}

func (p SetUConfigReg) String() string {
	return fmt.Sprintf("SetUConfigReg(Reg: 0x%04x, Values: %v)", p.Reg, p.Values)
}

func (p SetUConfigReg) Encode(w binary.Writer) error {
	if len(p.Values) == 0 {
		panic(fmt.Errorf("SetUConfigReg with no values"))
	}
	w.Uint32(header(OpSetUConfigReg, 1+len(p.Values)))
	w.Uint32(uint32(p.Reg))
	for _, v := range p.Values {
		w.Uint32(v)
	}
	return w.Error()
}

// IndexType selects the index element size for subsequent indexed draws.
type IndexType struct {
	Kind uint32 // 0: uint16, 1: uint32, 2: uint8
}

func (p IndexType) String() string { return fmt.Sprintf("IndexType(Kind: %d)", p.Kind) }

func (p IndexType) Encode(w binary.Writer) error {
	if p.Kind > 2 {
		panic(fmt.Errorf("index kind exceeds 2 (%d)", p.Kind))
	}
	w.Uint32(header(OpIndexType, 1))
	w.Uint32(p.Kind)
	return w.Error()
}

// NumInstances sets the instance count for subsequent draw packets.
type NumInstances struct {
	Count uint32
}

func (p NumInstances) String() string { return fmt.Sprintf("NumInstances(Count: %d)", p.Count) }

func (p NumInstances) Encode(w binary.Writer) error {
	w.Uint32(header(OpNumInstances, 1))
	w.Uint32(p.Count)
	return w.Error()
}

// IndexBase sets the device address of the bound index buffer.
type IndexBase struct {
	Addr uint64
}

func (p IndexBase) String() string { return fmt.Sprintf("IndexBase(Addr: 0x%x)", p.Addr) }

func (p IndexBase) Encode(w binary.Writer) error {
	if p.Addr&1 != 0 {
		panic(fmt.Errorf("index base not 2-byte aligned (0x%x)", p.Addr))
	}
	w.Uint32(header(OpIndexBase, 2))
	w.Uint32(addrLo(p.Addr))
	w.Uint32(addrHi(p.Addr))
	return w.Error()
}

// IndexBufferSize sets the element count of the bound index buffer.
type IndexBufferSize struct {
	Count uint32
}

func (p IndexBufferSize) String() string {
	return fmt.Sprintf("IndexBufferSize(Count: %d)", p.Count)
}

func (p IndexBufferSize) Encode(w binary.Writer) error {
	w.Uint32(header(OpIndexBufferSize, 1))
	w.Uint32(p.Count)
	return w.Error()
}

// DrawIndexAuto launches a non-indexed draw with auto-generated indices.
type DrawIndexAuto struct {
	VertexCount uint32
	Initiator   uint32
}

func (p DrawIndexAuto) String() string {
	return fmt.Sprintf("DrawIndexAuto(VertexCount: %d)", p.VertexCount)
}

func (p DrawIndexAuto) Encode(w binary.Writer) error {
	w.Uint32(header(OpDrawIndexAuto, 2))
	w.Uint32(p.VertexCount)
	w.Uint32(p.Initiator)
	return w.Error()
}

// DrawIndex2 launches an indexed draw fetching Count indices from Addr,
// clamped to MaxSize elements.
type DrawIndex2 struct {
	MaxSize   uint32
	Addr      uint64
	Count     uint32
	Initiator uint32
}

func (p DrawIndex2) String() string {
	return fmt.Sprintf("DrawIndex2(Addr: 0x%x, Count: %d)", p.Addr, p.Count)
}

func (p DrawIndex2) Encode(w binary.Writer) error {
	w.Uint32(header(OpDrawIndex2, 5))
	w.Uint32(p.MaxSize)
	w.Uint32(addrLo(p.Addr))
	w.Uint32(addrHi(p.Addr))
	w.Uint32(p.Count)
	w.Uint32(p.Initiator)
	return w.Error()
}

// SetBase sets the base address for subsequent indirect draw packets.
type SetBase struct {
	Addr uint64
}

func (p SetBase) String() string { return fmt.Sprintf("SetBase(Addr: 0x%x)", p.Addr) }

func (p SetBase) Encode(w binary.Writer) error {
	if p.Addr&7 != 0 {
		panic(fmt.Errorf("indirect base not 8-byte aligned (0x%x)", p.Addr))
	}
	w.Uint32(header(OpSetBase, 3))
	w.Uint32(1) // base index: draw indirect arguments
	w.Uint32(addrLo(p.Addr))
	w.Uint32(addrHi(p.Addr))
	return w.Error()
}

// DrawIndirect launches a draw whose arguments are read at Offset from the
// SET_BASE address. BaseVertexLoc and StartInstanceLoc name the user-data
// registers receiving the unpacked arguments.
type DrawIndirect struct {
	Offset           uint32
	BaseVertexLoc    uint16
	StartInstanceLoc uint16
	Initiator        uint32
}

func (p DrawIndirect) String() string {
	return fmt.Sprintf("DrawIndirect(Offset: 0x%x)", p.Offset)
}

func (p DrawIndirect) Encode(w binary.Writer) error {
	w.Uint32(header(OpDrawIndirect, 4))
	w.Uint32(p.Offset)
	w.Uint32(uint32(p.BaseVertexLoc))
	w.Uint32(uint32(p.StartInstanceLoc))
	w.Uint32(p.Initiator)
	return w.Error()
}

// DrawIndexIndirect is the indexed variant of DrawIndirect.
type DrawIndexIndirect struct {
	Offset           uint32
	BaseVertexLoc    uint16
	StartInstanceLoc uint16
	Initiator        uint32
}

func (p DrawIndexIndirect) String() string {
	return fmt.Sprintf("DrawIndexIndirect(Offset: 0x%x)", p.Offset)
}

func (p DrawIndexIndirect) Encode(w binary.Writer) error {
	w.Uint32(header(OpDrawIndexIndirect, 4))
	w.Uint32(p.Offset)
	w.Uint32(uint32(p.BaseVertexLoc))
	w.Uint32(uint32(p.StartInstanceLoc))
	w.Uint32(p.Initiator)
	return w.Error()
}

// multiDrawArgs is the shared field layout of the two indirect-multi draw
// packets.
type multiDrawArgs struct {
	Offset           uint32
	BaseVertexLoc    uint16
	StartInstanceLoc uint16
	DrawIndexLoc     uint16
	CountIndirect    bool   // read the draw count from CountAddr
	Count            uint32 // host-bounded draw count
	CountAddr        uint64 // device address of the GPU-resident count
	Stride           uint32
	Initiator        uint32
}

func (p multiDrawArgs) encode(w binary.Writer, op Opcode) error {
	if p.CountIndirect && p.CountAddr&3 != 0 {
		panic(fmt.Errorf("count address not 4-byte aligned (0x%x)", p.CountAddr))
	}
	w.Uint32(header(op, 9))
	w.Uint32(p.Offset)
	w.Uint32(uint32(p.BaseVertexLoc))
	w.Uint32(uint32(p.StartInstanceLoc))
	w.Uint32(uint32(p.DrawIndexLoc) | bit(p.CountIndirect, 30))
	w.Uint32(p.Count)
	w.Uint32(addrLo(p.CountAddr))
	w.Uint32(addrHi(p.CountAddr))
	w.Uint32(p.Stride)
	w.Uint32(p.Initiator)
	return w.Error()
}

// DrawIndirectMulti launches Count draws (or a GPU-resident count) from
// consecutive argument records.
type DrawIndirectMulti multiDrawArgs

func (p DrawIndirectMulti) String() string {
	return fmt.Sprintf("DrawIndirectMulti(Offset: 0x%x, Count: %d, CountIndirect: %v)",
		p.Offset, p.Count, p.CountIndirect)
}

func (p DrawIndirectMulti) Encode(w binary.Writer) error {
	return multiDrawArgs(p).encode(w, OpDrawIndirectMulti)
}

// DrawIndexIndirectMulti is the indexed variant of DrawIndirectMulti.
type DrawIndexIndirectMulti multiDrawArgs

func (p DrawIndexIndirectMulti) String() string {
	return fmt.Sprintf("DrawIndexIndirectMulti(Offset: 0x%x, Count: %d, CountIndirect: %v)",
		p.Offset, p.Count, p.CountIndirect)
}

func (p DrawIndexIndirectMulti) Encode(w binary.Writer) error {
	return multiDrawArgs(p).encode(w, OpDrawIndexIndirectMulti)
}

// DispatchDirect launches a compute dispatch with the given group counts.
type DispatchDirect struct {
	X, Y, Z   uint32
	Initiator uint32
}

func (p DispatchDirect) String() string {
	return fmt.Sprintf("DispatchDirect(%d, %d, %d)", p.X, p.Y, p.Z)
}

func (p DispatchDirect) Encode(w binary.Writer) error {
	w.Uint32(header(OpDispatchDirect, 4))
	w.Uint32(p.X)
	w.Uint32(p.Y)
	w.Uint32(p.Z)
	w.Uint32(p.Initiator)
	return w.Error()
}

// DispatchIndirect launches a compute dispatch whose group counts are read
// at Offset from the SET_BASE address.
type DispatchIndirect struct {
	Offset    uint32
	Initiator uint32
}

func (p DispatchIndirect) String() string {
	return fmt.Sprintf("DispatchIndirect(Offset: 0x%x)", p.Offset)
}

func (p DispatchIndirect) Encode(w binary.Writer) error {
	w.Uint32(header(OpDispatchIndirect, 2))
	w.Uint32(p.Offset)
	w.Uint32(p.Initiator)
	return w.Error()
}

// DispatchTaskMeshGfx launches the mesh-shader side of a task+mesh draw on
// the universal engine. XyzDimLoc and RingEntryLoc name the user-data
// registers that receive the task output dimensions and ring entry.
type DispatchTaskMeshGfx struct {
	XyzDimLoc    uint16
	RingEntryLoc uint16
	Initiator    uint32
}

func (p DispatchTaskMeshGfx) String() string {
	return fmt.Sprintf("DispatchTaskMeshGfx(XyzDimLoc: 0x%x, RingEntryLoc: 0x%x)",
		p.XyzDimLoc, p.RingEntryLoc)
}

func (p DispatchTaskMeshGfx) Encode(w binary.Writer) error {
	w.Uint32(header(OpDispatchTaskMeshGfx, 2))
	w.Uint32(uint32(p.XyzDimLoc) | uint32(p.RingEntryLoc)<<16)
	w.Uint32(p.Initiator)
	return w.Error()
}

// DispatchTaskMeshDirectAce launches the task-shader side of a direct
// task+mesh draw on the asynchronous compute engine.
type DispatchTaskMeshDirectAce struct {
	X, Y, Z      uint32
	RingEntryLoc uint16
	Initiator    uint32
}

func (p DispatchTaskMeshDirectAce) String() string {
	return fmt.Sprintf("DispatchTaskMeshDirectAce(%d, %d, %d)", p.X, p.Y, p.Z)
}

func (p DispatchTaskMeshDirectAce) Encode(w binary.Writer) error {
	w.Uint32(header(OpDispatchTaskMeshDirectAce, 5))
	w.Uint32(p.X)
	w.Uint32(p.Y)
	w.Uint32(p.Z)
	w.Uint32(uint32(p.RingEntryLoc))
	w.Uint32(p.Initiator)
	return w.Error()
}

// DispatchTaskMeshIndirectAce launches the task-shader side of an indirect
// task+mesh draw on the asynchronous compute engine. The argument records at
// Addr must use the engine's native layout.
type DispatchTaskMeshIndirectAce struct {
	Addr          uint64
	RingEntryLoc  uint16
	XyzDimLoc     uint16
	CountIndirect bool
	Count         uint32
	CountAddr     uint64
	Stride        uint32
	Initiator     uint32
}

func (p DispatchTaskMeshIndirectAce) String() string {
	return fmt.Sprintf("DispatchTaskMeshIndirectAce(Addr: 0x%x, Count: %d, CountIndirect: %v)",
		p.Addr, p.Count, p.CountIndirect)
}

func (p DispatchTaskMeshIndirectAce) Encode(w binary.Writer) error {
	if p.Addr&7 != 0 {
		panic(fmt.Errorf("task indirect address not 8-byte aligned (0x%x)", p.Addr))
	}
	w.Uint32(header(OpDispatchTaskMeshIndirectAce, 9))
	w.Uint32(addrLo(p.Addr))
	w.Uint32(addrHi(p.Addr))
	w.Uint32(uint32(p.RingEntryLoc) | uint32(p.XyzDimLoc)<<16)
	w.Uint32(bit(p.CountIndirect, 0))
	w.Uint32(p.Count)
	w.Uint32(addrLo(p.CountAddr))
	w.Uint32(addrHi(p.CountAddr))
	w.Uint32(p.Stride)
	w.Uint32(p.Initiator)
	return w.Error()
}

// EventWrite fires a pipelined event, optionally writing to Addr for events
// that carry an address.
type EventWrite struct {
	Event   EventType
	HasAddr bool
	Addr    uint64
}

func (p EventWrite) String() string { return fmt.Sprintf("EventWrite(Event: 0x%x)", uint32(p.Event)) }

func (p EventWrite) Encode(w binary.Writer) error {
	if p.HasAddr {
		w.Uint32(header(OpEventWrite, 3))
		w.Uint32(uint32(p.Event))
		w.Uint32(addrLo(p.Addr))
		w.Uint32(addrHi(p.Addr))
	} else {
		w.Uint32(header(OpEventWrite, 1))
		w.Uint32(uint32(p.Event))
	}
	return w.Error()
}

// ReleaseMem fires an end-of-pipe event and writes Data to Addr once all
// prior work has drained.
type ReleaseMem struct {
	Event EventType
	Addr  uint64
	Data  uint64
	// GlvInv and Glv2Wb request L0 invalidate / L2 writeback at the event.
	GlvInv bool
	Gl2Wb  bool
}

func (p ReleaseMem) String() string {
	return fmt.Sprintf("ReleaseMem(Event: 0x%x, Addr: 0x%x, Data: %d)", uint32(p.Event), p.Addr, p.Data)
}

func (p ReleaseMem) Encode(w binary.Writer) error {
	if p.Addr&3 != 0 {
		panic(fmt.Errorf("release address not 4-byte aligned (0x%x)", p.Addr))
	}
	w.Uint32(header(OpReleaseMem, 6))
	w.Uint32(uint32(p.Event) | bit(p.GlvInv, 16) | bit(p.Gl2Wb, 17))
	w.Uint32(2 << 29) // data select: send 64-bit data
	w.Uint32(addrLo(p.Addr))
	w.Uint32(addrHi(p.Addr))
	w.Uint32(uint32(p.Data))
	w.Uint32(uint32(p.Data >> 32))
	return w.Error()
}

// AcquireMem stalls the command processor until the selected caches are
// flushed or invalidated over the given range.
type AcquireMem struct {
	CoherCntl uint32
	Base      uint64
	Size      uint64
}

func (p AcquireMem) String() string {
	return fmt.Sprintf("AcquireMem(CoherCntl: 0x%x)", p.CoherCntl)
}

func (p AcquireMem) Encode(w binary.Writer) error {
	w.Uint32(header(OpAcquireMem, 6))
	w.Uint32(p.CoherCntl)
	w.Uint32(addrLo(p.Size))
	w.Uint32(addrHi(p.Size))
	w.Uint32(addrLo(p.Base))
	w.Uint32(addrHi(p.Base))
	w.Uint32(0x0A) // poll interval
	return w.Error()
}

// WaitRegMem stalls the command processor until the dword at Addr compares
// true against Reference under Mask.
type WaitRegMem struct {
	Function  CompareFunc
	Addr      uint64
	Reference uint32
	Mask      uint32
}

func (p WaitRegMem) String() string {
	return fmt.Sprintf("WaitRegMem(Addr: 0x%x, Func: %d, Ref: %d)", p.Addr, p.Function, p.Reference)
}

func (p WaitRegMem) Encode(w binary.Writer) error {
	if p.Addr&3 != 0 {
		panic(fmt.Errorf("wait address not 4-byte aligned (0x%x)", p.Addr))
	}
	w.Uint32(header(OpWaitRegMem, 5))
	w.Uint32(uint32(p.Function) | 1<<4) // memory space: memory
	w.Uint32(addrLo(p.Addr))
	w.Uint32(addrHi(p.Addr))
	w.Uint32(p.Reference)
	w.Uint32(p.Mask)
	return w.Error()
}

// WriteData writes Data dwords to device memory at Addr through the command
// processor.
type WriteData struct {
	Addr    uint64
	Data    []uint32
	Confirm bool // wait for the write to land before continuing
}

func (p WriteData) String() string {
	return fmt.Sprintf("WriteData(Addr: 0x%x, Data: %v)", p.Addr, p.Data)
}

func (p WriteData) Encode(w binary.Writer) error {
	if len(p.Data) == 0 {
		panic(fmt.Errorf("WriteData with no data"))
	}
	if p.Addr&3 != 0 {
		panic(fmt.Errorf("write address not 4-byte aligned (0x%x)", p.Addr))
	}
	w.Uint32(header(OpWriteData, 3+len(p.Data)))
	w.Uint32(5<<8 | bit(p.Confirm, 20)) // destination select: memory
	w.Uint32(addrLo(p.Addr))
	w.Uint32(addrHi(p.Addr))
	for _, v := range p.Data {
		w.Uint32(v)
	}
	return w.Error()
}

// CopyData copies one dword (or two, if Wide) from SrcAddr through the
// command processor, into the register DstReg when set and into memory at
// DstAddr otherwise.
type CopyData struct {
	SrcAddr uint64
	DstAddr uint64
	DstReg  uint16
	Wide    bool
}

func (p CopyData) String() string {
	if p.DstReg != 0 {
		return fmt.Sprintf("CopyData(Src: 0x%x, DstReg: 0x%x, Wide: %v)", p.SrcAddr, p.DstReg, p.Wide)
	}
	return fmt.Sprintf("CopyData(Src: 0x%x, Dst: 0x%x, Wide: %v)", p.SrcAddr, p.DstAddr, p.Wide)
}

func (p CopyData) Encode(w binary.Writer) error {
	w.Uint32(header(OpCopyData, 5))
	if p.DstReg != 0 {
		w.Uint32(2 | bit(p.Wide, 16)) // src select: memory, dst select: register
		w.Uint32(addrLo(p.SrcAddr))
		w.Uint32(addrHi(p.SrcAddr))
		w.Uint32(uint32(p.DstReg))
		w.Uint32(0)
		return w.Error()
	}
	w.Uint32(2 | 2<<8 | bit(p.Wide, 16)) // src select: memory, dst select: memory
	w.Uint32(addrLo(p.SrcAddr))
	w.Uint32(addrHi(p.SrcAddr))
	w.Uint32(addrLo(p.DstAddr))
	w.Uint32(addrHi(p.DstAddr))
	return w.Error()
}

// CondExec skips the following ExecCount dwords when the dword at Addr is
// zero. Used to predicate packets on engines without native predication.
type CondExec struct {
	Addr      uint64
	ExecCount uint32
}

func (p CondExec) String() string {
	return fmt.Sprintf("CondExec(Addr: 0x%x, ExecCount: %d)", p.Addr, p.ExecCount)
}

func (p CondExec) Encode(w binary.Writer) error {
	if p.Addr&7 != 0 {
		panic(fmt.Errorf("predicate address not 8-byte aligned (0x%x)", p.Addr))
	}
	if p.ExecCount > 0x3fff {
		panic(fmt.Errorf("exec count exceeds 14 bits (0x%x)", p.ExecCount))
	}
	w.Uint32(header(OpCondExec, 4))
	w.Uint32(addrLo(p.Addr))
	w.Uint32(addrHi(p.Addr))
	w.Uint32(0)
	w.Uint32(p.ExecCount)
	return w.Error()
}

// SetPredication establishes (or clears, when HasAddr is false) the draw
// predicate for engines with native predication support.
type SetPredication struct {
	HasAddr  bool
	Addr     uint64
	Inverted bool
	Continue bool
}

func (p SetPredication) String() string {
	return fmt.Sprintf("SetPredication(HasAddr: %v, Addr: 0x%x)", p.HasAddr, p.Addr)
}

func (p SetPredication) Encode(w binary.Writer) error {
	if p.HasAddr && p.Addr&7 != 0 {
		panic(fmt.Errorf("predicate address not 8-byte aligned (0x%x)", p.Addr))
	}
	w.Uint32(header(OpSetPredication, 3))
	w.Uint32(bit(p.HasAddr, 0) | bit(p.Inverted, 1) | bit(p.Continue, 2))
	w.Uint32(addrLo(p.Addr))
	w.Uint32(addrHi(p.Addr))
	return w.Error()
}

// PfpSyncMe stalls the prefetch parser until the micro engine catches up.
type PfpSyncMe struct{}

func (p PfpSyncMe) String() string { return "PfpSyncMe" }

func (p PfpSyncMe) Encode(w binary.Writer) error {
	w.Uint32(header(OpPfpSyncMe, 1))
	w.Uint32(0)
	return w.Error()
}

func (Nop) isPacket()                         {}
func (SetContextReg) isPacket()               {}
func (SetShReg) isPacket()                    {}
func (SetUConfigReg) isPacket()               {}
func (IndexType) isPacket()                   {}
func (NumInstances) isPacket()                {}
func (IndexBase) isPacket()                   {}
func (IndexBufferSize) isPacket()             {}
func (DrawIndexAuto) isPacket()               {}
func (DrawIndex2) isPacket()                  {}
func (SetBase) isPacket()                     {}
func (DrawIndirect) isPacket()                {}
func (DrawIndexIndirect) isPacket()           {}
func (DrawIndirectMulti) isPacket()           {}
func (DrawIndexIndirectMulti) isPacket()      {}
func (DispatchDirect) isPacket()              {}
func (DispatchIndirect) isPacket()            {}
func (DispatchTaskMeshGfx) isPacket()         {}
func (DispatchTaskMeshDirectAce) isPacket()   {}
func (DispatchTaskMeshIndirectAce) isPacket() {}
func (EventWrite) isPacket()                  {}
func (ReleaseMem) isPacket()                  {}
func (AcquireMem) isPacket()                  {}
func (WaitRegMem) isPacket()                  {}
func (WriteData) isPacket()                   {}
func (CopyData) isPacket()                    {}
func (CondExec) isPacket()                    {}
func (SetPredication) isPacket()              {}
func (PfpSyncMe) isPacket()                   {}
