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
	"testing"

	"github.com/basalt-gpu/basalt/core/assert"
	"github.com/basalt-gpu/basalt/core/log"
	"github.com/basalt-gpu/basalt/hal/gpuinfo"
	"github.com/basalt-gpu/basalt/hal/pm4"
)

func TestMarkersEmitNopPayloads(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := beginTestBuffer(ctx, t, d)
	cb.BeginMarker(ctx, "shadow pass")
	cb.EndMarker(ctx)

	var nops []pm4.Nop
	for _, p := range cb.primary.Packets() {
		if n, ok := p.(pm4.Nop); ok {
			nops = append(nops, n)
		}
	}
	assert.For(ctx, "nops").ThatInteger(len(nops)).Equals(2)
	assert.For(ctx, "begin magic").That(nops[0].Payload[0]).Equals(uint32(markerBeginMagic))
	// "shadow pass" is 11 bytes, padded to 3 dwords after the magic.
	assert.For(ctx, "begin len").ThatInteger(len(nops[0].Payload)).Equals(4)
	assert.For(ctx, "end magic").That(nops[1].Payload[0]).Equals(uint32(markerEndMagic))
	cb.Destroy(ctx)
}

func TestMarkersIgnoredWhenNotRecording(t *testing.T) {
	ctx := log.Testing(t)
	d := testDevice(ctx, t, gpuinfo.Gfx10)
	cb := d.NewCommandBuffer()
	cb.BeginMarker(ctx, "late")
	assert.For(ctx, "no packets").ThatInteger(len(cb.primary.Packets())).Equals(0)
	cb.Destroy(ctx)
}
