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

import "github.com/basalt-gpu/basalt/hal/pm4"

// semState tracks the cross-engine synchronizer lifecycle.
type semState int

const (
	semNoAsyncWork = semState(iota)
	semStreamCreated
	semArmed
	semFinalized
)

// crossEngineSem orders the primary and asynchronous compute engines with
// a counter pair in the upload heap. The compute engine never observes a
// value greater than what the primary engine has actually signaled: the
// wait is emitted only after the signal packet for the same value.
type crossEngineSem struct {
	state       semState
	addr        uint64
	toSignal    uint32
	lastFlushed uint32
}

// increment records a primary-to-async dependency. No hardware effect;
// the packets appear at the next flush point.
func (s *crossEngineSem) increment() {
	if s.state == semStreamCreated || s.state == semArmed {
		s.toSignal++
	}
}

// flush emits the signal and wait pair if increments are outstanding. The
// primary stream deposits the counter at bottom of pipe; the compute
// stream waits until the counter reaches it.
func (s *crossEngineSem) flush(cb *CommandBuffer) {
	if s.toSignal == s.lastFlushed {
		return
	}
	if s.addr == 0 {
		addr, host, err := cb.upload.alloc(8, 8)
		if err != nil {
			cb.fail(err)
			return
		}
		for i := range host {
			host[i] = 0
		}
		s.addr = addr
	}
	cb.primary.emit(pm4.ReleaseMem{
		Event: pm4.EventBottomOfPipeTs,
		Addr:  s.addr,
		Data:  uint64(s.toSignal),
		Gl2Wb: true,
	})
	cb.async.emit(pm4.WaitRegMem{
		Function:  pm4.CompareGreaterOrEqual,
		Addr:      s.addr,
		Reference: s.toSignal,
		Mask:      0xffffffff,
	})
	s.lastFlushed = s.toSignal
	s.state = semArmed
}

// finalize zeroes both semaphore words on both streams so the command
// buffer can be resubmitted starting from a clean count.
func (s *crossEngineSem) finalize(cb *CommandBuffer) {
	if s.state != semArmed {
		if s.state == semStreamCreated {
			s.state = semFinalized
		}
		return
	}
	zero := pm4.WriteData{Addr: s.addr, Data: []uint32{0, 0}, Confirm: true}
	cb.primary.emit(zero)
	cb.async.emit(zero)
	s.state = semFinalized
}
