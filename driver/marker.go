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

	"github.com/basalt-gpu/basalt/hal/pm4"
)

// Marker magics carried in NOP payloads. The command processor ignores
// them; tools recover the annotations from captured streams.
const (
	markerBeginMagic = 0x68750001
	markerEndMagic   = 0x68750002
)

// BeginMarker opens a named annotation region in the stream.
func (cb *CommandBuffer) BeginMarker(ctx context.Context, name string) {
	if !cb.recording() {
		return
	}
	payload := []uint32{markerBeginMagic}
	b := []byte(name)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	for i := 0; i < len(b); i += 4 {
		payload = append(payload, binary.LittleEndian.Uint32(b[i:]))
	}
	cb.primary.emit(pm4.Nop{Payload: payload})
}

// EndMarker closes the innermost annotation region.
func (cb *CommandBuffer) EndMarker(ctx context.Context) {
	if !cb.recording() {
		return
	}
	cb.primary.emit(pm4.Nop{Payload: []uint32{markerEndMagic}})
}
