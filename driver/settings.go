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
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/basalt-gpu/basalt/core/log"
)

// Settings are the tunables read at device creation. They come from an
// optional TOML file named by the BASALT_SETTINGS environment variable.
type Settings struct {
	// UploadHeapMinSize is the minimum size of an upload heap buffer.
	UploadHeapMinSize uint64 `toml:"upload_heap_min_size"`
	// SubprogramCacheSize bounds the device-wide subprogram cache.
	SubprogramCacheSize int `toml:"subprogram_cache_size"`
	// ForceSingleDrawPackets disables multi-draw packet batching.
	ForceSingleDrawPackets bool `toml:"force_single_draw_packets"`
	// ForceFullFlush widens every materialized flush to a full pipeline
	// drain, for bisecting synchronization bugs.
	ForceFullFlush bool `toml:"force_full_flush"`
	// TraceMarkers writes a trace id to device memory after every draw
	// and dispatch.
	TraceMarkers bool `toml:"trace_markers"`
	// DebugMarkers pads the stream with NOP markers around draws.
	DebugMarkers bool `toml:"debug_markers"`
}

// settingsEnv names the settings file to load, if set.
const settingsEnv = "BASALT_SETTINGS"

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() Settings {
	return Settings{
		UploadHeapMinSize:   64 << 10,
		SubprogramCacheSize: 1024,
	}
}

// LoadSettings returns the default settings overlaid with the TOML file
// named by BASALT_SETTINGS. A missing variable or file is not an error.
func LoadSettings(ctx context.Context) (Settings, error) {
	s := DefaultSettings()
	path := os.Getenv(settingsEnv)
	if path == "" {
		return s, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.W(ctx, "Settings file %v does not exist, using defaults", path)
		return s, nil
	}
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return s, errors.Wrapf(err, "parsing settings file %v", path)
	}
	if s.UploadHeapMinSize == 0 {
		return s, errors.Errorf("upload_heap_min_size must not be zero in %v", path)
	}
	log.I(ctx, "Loaded settings from %v", path)
	return s, nil
}
