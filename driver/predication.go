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
	"bytes"
	"context"

	"github.com/basalt-gpu/basalt/core/data/endian"
	"github.com/basalt-gpu/basalt/hal/pm4"
)

type predicationState struct {
	active   bool
	addr     uint64
	inverted bool
	// emitted tracks whether the native SET_PREDICATION packet is live on
	// the stream; engines without native support wrap each packet instead.
	emitted bool
}

// BeginPredication makes subsequent draws conditional on the 64 bit value
// at addr. With native support one SET_PREDICATION brackets the region;
// otherwise every draw packet is wrapped in a COND_EXEC sized to it.
func (cb *CommandBuffer) BeginPredication(ctx context.Context, addr uint64, inverted bool) error {
	if !cb.recording() {
		return nil
	}
	if addr%8 != 0 {
		return ErrInvalidValue
	}
	cb.pred = predicationState{active: true, addr: addr, inverted: inverted}
	if cb.dev.caps.NativePredication {
		cb.primary.emit(pm4.SetPredication{HasAddr: true, Addr: addr, Inverted: inverted})
		cb.pred.emitted = true
	}
	return nil
}

// EndPredication returns to unconditional execution.
func (cb *CommandBuffer) EndPredication(ctx context.Context) {
	if !cb.recording() {
		return
	}
	cb.endPredication()
}

func (cb *CommandBuffer) endPredication() {
	if cb.pred.emitted {
		cb.primary.emit(pm4.SetPredication{})
	}
	cb.pred = predicationState{}
}

// emitMaybePredicated appends packets to the primary stream, wrapping them
// in a COND_EXEC region when predication is active without native support.
// COND_EXEC skips on a zero value, so inverted predication cannot be
// expressed this way and falls back to unconditional execution.
func (cb *CommandBuffer) emitMaybePredicated(ps ...pm4.Packet) {
	if !cb.pred.active || cb.pred.emitted || cb.pred.inverted {
		cb.primary.emit(ps...)
		return
	}
	n, err := packetDwords(ps)
	if err != nil {
		cb.fail(err)
		return
	}
	cb.primary.emit(pm4.CondExec{Addr: cb.pred.addr, ExecCount: n})
	cb.primary.emit(ps...)
}

// packetDwords returns the encoded size of the packets in dwords.
func packetDwords(ps []pm4.Packet) (uint32, error) {
	buf := &bytes.Buffer{}
	w := endian.Writer(buf)
	for _, p := range ps {
		if err := p.Encode(w); err != nil {
			return 0, err
		}
	}
	return uint32(buf.Len() / 4), nil
}
