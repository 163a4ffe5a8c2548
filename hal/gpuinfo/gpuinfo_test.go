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

package gpuinfo_test

import (
	"testing"

	"github.com/basalt-gpu/basalt/core/assert"
	"github.com/basalt-gpu/basalt/core/log"
	"github.com/basalt-gpu/basalt/hal/gpuinfo"
)

func TestCapsFor(t *testing.T) {
	ctx := log.Testing(t)
	for _, test := range []struct {
		name string
		rev  gpuinfo.Revision
		f    func(gpuinfo.Caps) bool
	}{
		{"gfx8 lacks predication", gpuinfo.Revision{Level: gpuinfo.Gfx8}, func(c gpuinfo.Caps) bool { return !c.NativePredication }},
		{"gfx8 double cs flush", gpuinfo.Revision{Level: gpuinfo.Gfx8}, func(c gpuinfo.Caps) bool { return c.BugDoubleCsPartialFlush }},
		{"gfx9 predication", gpuinfo.Revision{Level: gpuinfo.Gfx9}, func(c gpuinfo.Caps) bool { return c.NativePredication }},
		{"gfx9 no mesh", gpuinfo.Revision{Level: gpuinfo.Gfx9}, func(c gpuinfo.Caps) bool { return !c.MeshShaders }},
		{"gfx10 mesh and task", gpuinfo.Revision{Level: gpuinfo.Gfx10}, func(c gpuinfo.Caps) bool { return c.MeshShaders && c.TaskRings }},
		{"gfx10 early navi erratum", gpuinfo.Revision{Level: gpuinfo.Gfx10, DeviceID: 0x7310}, func(c gpuinfo.Caps) bool { return c.BugWaitIdleBeforeIndirect }},
		{"gfx10 later parts clean", gpuinfo.Revision{Level: gpuinfo.Gfx10, DeviceID: 0x73BF}, func(c gpuinfo.Caps) bool { return !c.BugWaitIdleBeforeIndirect }},
		{"gfx11 clean", gpuinfo.Revision{Level: gpuinfo.Gfx11}, func(c gpuinfo.Caps) bool {
			return c.NativePredication && c.MeshShaders && !c.BugDoubleCsPartialFlush && !c.BugSyncMeAfterBaseUpdate
		}},
	} {
		t.Run(test.name, func(t *testing.T) {
			ctx := log.SubTest(ctx, t)
			assert.For(ctx, "caps").ThatBoolean(test.f(gpuinfo.CapsFor(test.rev))).Equals(true)
		})
	}
}

func TestCapsLimits(t *testing.T) {
	ctx := log.Testing(t)
	c := gpuinfo.CapsFor(gpuinfo.Revision{Level: gpuinfo.Gfx10})
	assert.For(ctx, "viewports").That(c.MaxViewports).Equals(uint32(16))
	assert.For(ctx, "user data").That(c.MaxUserDataSlots).Equals(uint32(16))
}

func TestGfxLevelString(t *testing.T) {
	ctx := log.Testing(t)
	assert.For(ctx, "name").ThatString(gpuinfo.Gfx10.String()).Equals("gfx10")
}
