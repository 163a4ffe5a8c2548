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
	"github.com/basalt-gpu/basalt/core/data/binary"
	"github.com/basalt-gpu/basalt/hal/pm4"
	"github.com/basalt-gpu/basalt/hal/regs"
)

// Engine is one of the hardware command processors a stream targets.
type Engine int

const (
	// EngineUniversal is the primary graphics ring.
	EngineUniversal = Engine(iota)
	// EngineCompute is the asynchronous compute ring.
	EngineCompute
)

func (e Engine) String() string {
	switch e {
	case EngineUniversal:
		return "universal"
	case EngineCompute:
		return "compute"
	default:
		return "?"
	}
}

// CommandStream collects the packet sequence for one engine, together with
// the buffers that must stay resident while it executes.
type CommandStream struct {
	engine   Engine
	packets  []pm4.Packet
	resident []*Buffer
}

func newCommandStream(engine Engine) *CommandStream {
	return &CommandStream{engine: engine}
}

// Engine returns the hardware engine the stream targets.
func (s *CommandStream) Engine() Engine { return s.engine }

// Packets returns the recorded packet sequence.
func (s *CommandStream) Packets() []pm4.Packet { return s.packets }

// Resident returns the buffers the stream keeps alive for execution.
func (s *CommandStream) Resident() []*Buffer { return s.resident }

func (s *CommandStream) emit(ps ...pm4.Packet) {
	s.packets = append(s.packets, ps...)
}

func (s *CommandStream) addResident(b *Buffer) {
	s.resident = append(s.resident, b)
}

func (s *CommandStream) setContextReg(reg uint16, values ...uint32) {
	s.emit(pm4.SetContextReg{Reg: reg, Values: values})
}

func (s *CommandStream) setShReg(reg uint16, values ...uint32) {
	s.emit(pm4.SetShReg{Reg: reg, Values: values})
}

func (s *CommandStream) setUConfigReg(reg uint16, values ...uint32) {
	s.emit(pm4.SetUConfigReg{Reg: reg, Values: values})
}

// setUserDataAddr writes a full device address into two consecutive
// user-data slots, low dword first. Data blocks carry no address
// alignment contract, so no bits can be shifted away.
func (s *CommandStream) setUserDataAddr(stage regs.HwStage, slot int, addr uint64) {
	regs.UserDataReg(stage, slot+1) // both slots must be in range
	s.setShReg(regs.UserDataReg(stage, slot), uint32(addr), uint32(addr>>32))
}

func (s *CommandStream) reset() {
	s.packets = s.packets[:0]
	s.resident = s.resident[:0]
}

// Encode writes the stream as little-endian dwords.
func (s *CommandStream) Encode(w binary.Writer) error {
	for _, p := range s.packets {
		if err := p.Encode(w); err != nil {
			return err
		}
	}
	return nil
}
