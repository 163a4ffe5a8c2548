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

// Package pm4 contains the type-3 packets understood by the command
// processor, a struct per packet with an encoder and a disassembler.
package pm4

import "fmt"

// Opcode is one of the type-3 packet opcodes supported by the command
// processor.
type Opcode uint8

const (
	OpNop                         = Opcode(0x10)
	OpSetBase                     = Opcode(0x11)
	OpIndexBufferSize             = Opcode(0x13)
	OpDispatchDirect              = Opcode(0x15)
	OpDispatchIndirect            = Opcode(0x16)
	OpSetPredication              = Opcode(0x20)
	OpCondExec                    = Opcode(0x22)
	OpDrawIndirect                = Opcode(0x24)
	OpDrawIndexIndirect           = Opcode(0x25)
	OpIndexBase                   = Opcode(0x26)
	OpDrawIndex2                  = Opcode(0x27)
	OpIndexType                   = Opcode(0x2A)
	OpDrawIndirectMulti           = Opcode(0x2C)
	OpDrawIndexAuto               = Opcode(0x2D)
	OpNumInstances                = Opcode(0x2F)
	OpWriteData                   = Opcode(0x37)
	OpDrawIndexIndirectMulti      = Opcode(0x38)
	OpWaitRegMem                  = Opcode(0x3C)
	OpCopyData                    = Opcode(0x40)
	OpPfpSyncMe                   = Opcode(0x42)
	OpEventWrite                  = Opcode(0x46)
	OpReleaseMem                  = Opcode(0x49)
	OpDispatchTaskMeshGfx         = Opcode(0x4D)
	OpDispatchTaskMeshDirectAce   = Opcode(0x4E)
	OpDispatchTaskMeshIndirectAce = Opcode(0x4F)
	OpAcquireMem                  = Opcode(0x58)
	OpSetContextReg               = Opcode(0x69)
	OpSetShReg                    = Opcode(0x76)
	OpSetUConfigReg               = Opcode(0x79)
)

// String returns the human-readable name of the opcode.
func (o Opcode) String() string {
	switch o {
	case OpNop:
		return "NOP"
	case OpSetBase:
		return "SET_BASE"
	case OpIndexBufferSize:
		return "INDEX_BUFFER_SIZE"
	case OpDispatchDirect:
		return "DISPATCH_DIRECT"
	case OpDispatchIndirect:
		return "DISPATCH_INDIRECT"
	case OpSetPredication:
		return "SET_PREDICATION"
	case OpCondExec:
		return "COND_EXEC"
	case OpDrawIndirect:
		return "DRAW_INDIRECT"
	case OpDrawIndexIndirect:
		return "DRAW_INDEX_INDIRECT"
	case OpIndexBase:
		return "INDEX_BASE"
	case OpDrawIndex2:
		return "DRAW_INDEX_2"
	case OpIndexType:
		return "INDEX_TYPE"
	case OpDrawIndirectMulti:
		return "DRAW_INDIRECT_MULTI"
	case OpDrawIndexAuto:
		return "DRAW_INDEX_AUTO"
	case OpNumInstances:
		return "NUM_INSTANCES"
	case OpDrawIndexIndirectMulti:
		return "DRAW_INDEX_INDIRECT_MULTI"
	case OpWriteData:
		return "WRITE_DATA"
	case OpWaitRegMem:
		return "WAIT_REG_MEM"
	case OpCopyData:
		return "COPY_DATA"
	case OpPfpSyncMe:
		return "PFP_SYNC_ME"
	case OpEventWrite:
		return "EVENT_WRITE"
	case OpReleaseMem:
		return "RELEASE_MEM"
	case OpDispatchTaskMeshGfx:
		return "DISPATCH_TASKMESH_GFX"
	case OpDispatchTaskMeshDirectAce:
		return "DISPATCH_TASKMESH_DIRECT_ACE"
	case OpDispatchTaskMeshIndirectAce:
		return "DISPATCH_TASKMESH_INDIRECT_MULTI_ACE"
	case OpAcquireMem:
		return "ACQUIRE_MEM"
	case OpSetContextReg:
		return "SET_CONTEXT_REG"
	case OpSetShReg:
		return "SET_SH_REG"
	case OpSetUConfigReg:
		return "SET_UCONFIG_REG"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(o))
	}
}

// header packs a type-3 packet header. count is the number of payload dwords
// following the header. A zero-payload packet encodes the count as 0x3fff.
func header(op Opcode, count int) uint32 {
	if count > 0x3fff {
		panic(fmt.Errorf("payload exceeds 14 bits (0x%x)", count))
	}
	n := uint32(count-1) & 0x3fff
	return 3<<30 | n<<16 | uint32(op)<<8
}

// headerCount unpacks the payload dword count from a type-3 header.
func headerCount(h uint32) int {
	n := (h >> 16) & 0x3fff
	if n == 0x3fff {
		return 0
	}
	return int(n) + 1
}

func headerOpcode(h uint32) Opcode { return Opcode(h >> 8) }

func headerType(h uint32) uint32 { return h >> 30 }

func addrLo(a uint64) uint32 { return uint32(a) }
func addrHi(a uint64) uint32 { return uint32(a >> 32) }

func bit(v bool, idx uint32) uint32 {
	if v {
		return 1 << idx
	}
	return 0
}
