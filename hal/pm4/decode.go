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
	"io"

	"github.com/basalt-gpu/basalt/core/data/binary"
)

func addr(lo, hi uint32) uint64 { return uint64(lo) | uint64(hi)<<32 }

// Decode returns the next packet decoded from r, or io.EOF once the stream
// is exhausted.
func Decode(r binary.Reader) (Packet, error) {
	h := r.Uint32()
	if err := r.Error(); err != nil {
		return nil, err
	}
	if headerType(h) != 3 {
		return nil, fmt.Errorf("not a type-3 packet header (0x%08x)", h)
	}
	count := headerCount(h)
	body := make([]uint32, count)
	for i := range body {
		body[i] = r.Uint32()
	}
	if err := r.Error(); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	op := headerOpcode(h)
	// Length checks first so the field indexing below cannot fault.
	if want, variable := fixedPayload(op); !variable && count != want {
		return nil, fmt.Errorf("%v packet with %d payload dwords, expected %d", op, count, want)
	}

	switch op {
	case OpNop:
		return Nop{Payload: body}, nil
	case OpSetBase:
		return SetBase{Addr: addr(body[1], body[2])}, nil
	case OpIndexBufferSize:
		return IndexBufferSize{Count: body[0]}, nil
	case OpDispatchDirect:
		return DispatchDirect{X: body[0], Y: body[1], Z: body[2], Initiator: body[3]}, nil
	case OpDispatchIndirect:
		return DispatchIndirect{Offset: body[0], Initiator: body[1]}, nil
	case OpSetPredication:
		return SetPredication{
			HasAddr:  body[0]&1 != 0,
			Inverted: body[0]&2 != 0,
			Continue: body[0]&4 != 0,
			Addr:     addr(body[1], body[2]),
		}, nil
	case OpCondExec:
		return CondExec{Addr: addr(body[0], body[1]), ExecCount: body[3]}, nil
	case OpDrawIndirect:
		return DrawIndirect{
			Offset:           body[0],
			BaseVertexLoc:    uint16(body[1]),
			StartInstanceLoc: uint16(body[2]),
			Initiator:        body[3],
		}, nil
	case OpDrawIndexIndirect:
		return DrawIndexIndirect{
			Offset:           body[0],
			BaseVertexLoc:    uint16(body[1]),
			StartInstanceLoc: uint16(body[2]),
			Initiator:        body[3],
		}, nil
	case OpIndexBase:
		return IndexBase{Addr: addr(body[0], body[1])}, nil
	case OpDrawIndex2:
		return DrawIndex2{
			MaxSize:   body[0],
			Addr:      addr(body[1], body[2]),
			Count:     body[3],
			Initiator: body[4],
		}, nil
	case OpIndexType:
		return IndexType{Kind: body[0]}, nil
	case OpDrawIndirectMulti:
		return DrawIndirectMulti(decodeMultiDraw(body)), nil
	case OpDrawIndexIndirectMulti:
		return DrawIndexIndirectMulti(decodeMultiDraw(body)), nil
	case OpDrawIndexAuto:
		return DrawIndexAuto{VertexCount: body[0], Initiator: body[1]}, nil
	case OpNumInstances:
		return NumInstances{Count: body[0]}, nil
	case OpWriteData:
		return WriteData{
			Confirm: body[0]&(1<<20) != 0,
			Addr:    addr(body[1], body[2]),
			Data:    body[3:],
		}, nil
	case OpWaitRegMem:
		return WaitRegMem{
			Function:  CompareFunc(body[0] & 7),
			Addr:      addr(body[1], body[2]),
			Reference: body[3],
			Mask:      body[4],
		}, nil
	case OpCopyData:
		c := CopyData{
			Wide:    body[0]&(1<<16) != 0,
			SrcAddr: addr(body[1], body[2]),
		}
		if body[0]>>8&0xf == 0 {
			c.DstReg = uint16(body[3])
		} else {
			c.DstAddr = addr(body[3], body[4])
		}
		return c, nil
	case OpPfpSyncMe:
		return PfpSyncMe{}, nil
	case OpEventWrite:
		if count == 3 {
			return EventWrite{Event: EventType(body[0]), HasAddr: true, Addr: addr(body[1], body[2])}, nil
		}
		return EventWrite{Event: EventType(body[0])}, nil
	case OpReleaseMem:
		return ReleaseMem{
			Event:  EventType(body[0] & 0xffff),
			GlvInv: body[0]&(1<<16) != 0,
			Gl2Wb:  body[0]&(1<<17) != 0,
			Addr:   addr(body[2], body[3]),
			Data:   uint64(body[4]) | uint64(body[5])<<32,
		}, nil
	case OpDispatchTaskMeshGfx:
		return DispatchTaskMeshGfx{
			XyzDimLoc:    uint16(body[0]),
			RingEntryLoc: uint16(body[0] >> 16),
			Initiator:    body[1],
		}, nil
	case OpDispatchTaskMeshDirectAce:
		return DispatchTaskMeshDirectAce{
			X: body[0], Y: body[1], Z: body[2],
			RingEntryLoc: uint16(body[3]),
			Initiator:    body[4],
		}, nil
	case OpDispatchTaskMeshIndirectAce:
		return DispatchTaskMeshIndirectAce{
			Addr:          addr(body[0], body[1]),
			RingEntryLoc:  uint16(body[2]),
			XyzDimLoc:     uint16(body[2] >> 16),
			CountIndirect: body[3]&1 != 0,
			Count:         body[4],
			CountAddr:     addr(body[5], body[6]),
			Stride:        body[7],
			Initiator:     body[8],
		}, nil
	case OpAcquireMem:
		return AcquireMem{
			CoherCntl: body[0],
			Size:      addr(body[1], body[2]),
			Base:      addr(body[3], body[4]),
		}, nil
	case OpSetContextReg:
		return SetContextReg{Reg: uint16(body[0]), Values: body[1:]}, nil
	case OpSetShReg:
		return SetShReg{Reg: uint16(body[0]), Values: body[1:]}, nil
	case OpSetUConfigReg:
		return SetUConfigReg{Reg: uint16(body[0]), Values: body[1:]}, nil
	default:
		return nil, fmt.Errorf("unknown opcode 0x%02x", uint8(op))
	}
}

func decodeMultiDraw(body []uint32) multiDrawArgs {
	return multiDrawArgs{
		Offset:           body[0],
		BaseVertexLoc:    uint16(body[1]),
		StartInstanceLoc: uint16(body[2]),
		DrawIndexLoc:     uint16(body[3]),
		CountIndirect:    body[3]&(1<<30) != 0,
		Count:            body[4],
		CountAddr:        addr(body[5], body[6]),
		Stride:           body[7],
		Initiator:        body[8],
	}
}

// fixedPayload returns the payload dword count for fixed-size packets.
// variable is true for packets whose size depends on their content.
func fixedPayload(op Opcode) (count int, variable bool) {
	switch op {
	case OpNop, OpSetContextReg, OpSetShReg, OpSetUConfigReg, OpWriteData, OpEventWrite:
		return 0, true
	case OpSetBase, OpSetPredication:
		return 3, false
	case OpIndexBufferSize, OpIndexType, OpNumInstances:
		return 1, false
	case OpDispatchDirect, OpDrawIndirect, OpDrawIndexIndirect, OpCondExec:
		return 4, false
	case OpDispatchIndirect, OpDrawIndexAuto, OpDispatchTaskMeshGfx:
		return 2, false
	case OpIndexBase:
		return 2, false
	case OpDrawIndex2, OpWaitRegMem, OpCopyData, OpDispatchTaskMeshDirectAce:
		return 5, false
	case OpDrawIndirectMulti, OpDrawIndexIndirectMulti, OpDispatchTaskMeshIndirectAce:
		return 9, false
	case OpPfpSyncMe:
		return 1, false
	case OpReleaseMem, OpAcquireMem:
		return 6, false
	default:
		return 0, true
	}
}

// Disassemble prints one packet per line to w until r is exhausted.
func Disassemble(r binary.Reader, w io.Writer) error {
	for {
		p, err := Decode(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%v\n", p); err != nil {
			return err
		}
	}
}
