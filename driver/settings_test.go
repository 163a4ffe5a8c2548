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
	"os"
	"path/filepath"
	"testing"

	"github.com/basalt-gpu/basalt/core/assert"
	"github.com/basalt-gpu/basalt/core/log"
)

func TestLoadSettingsDefaults(t *testing.T) {
	ctx := log.Testing(t)
	os.Unsetenv(settingsEnv)
	s, err := LoadSettings(ctx)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "defaults").That(s).DeepEquals(DefaultSettings())
}

func TestLoadSettingsFromFile(t *testing.T) {
	ctx := log.Testing(t)
	path := filepath.Join(t.TempDir(), "basalt.toml")
	content := `
upload_heap_min_size = 131072
force_single_draw_packets = true
force_full_flush = true
trace_markers = true
`
	if err := os.WriteFile(path, []byte(content), 0666); err != nil {
		t.Fatal(err)
	}
	t.Setenv(settingsEnv, path)
	s, err := LoadSettings(ctx)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "heap size").ThatUint64(s.UploadHeapMinSize).Equals(uint64(131072))
	assert.For(ctx, "single draws").ThatBoolean(s.ForceSingleDrawPackets).Equals(true)
	assert.For(ctx, "full flush").ThatBoolean(s.ForceFullFlush).Equals(true)
	assert.For(ctx, "trace markers").ThatBoolean(s.TraceMarkers).Equals(true)
	// Unset keys keep their defaults.
	assert.For(ctx, "cache size").ThatInteger(s.SubprogramCacheSize).Equals(DefaultSettings().SubprogramCacheSize)
}

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	ctx := log.Testing(t)
	t.Setenv(settingsEnv, filepath.Join(t.TempDir(), "nope.toml"))
	s, err := LoadSettings(ctx)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "defaults").That(s).DeepEquals(DefaultSettings())
}

func TestLoadSettingsBadFileFails(t *testing.T) {
	ctx := log.Testing(t)
	path := filepath.Join(t.TempDir(), "basalt.toml")
	if err := os.WriteFile(path, []byte("upload_heap_min_size = \"lots\""), 0666); err != nil {
		t.Fatal(err)
	}
	t.Setenv(settingsEnv, path)
	_, err := LoadSettings(ctx)
	assert.For(ctx, "err").ThatError(err).Failed()
}
