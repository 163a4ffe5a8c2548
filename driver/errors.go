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

import "github.com/basalt-gpu/basalt/core/fault"

const (
	// ErrOutOfHostMemory is reported when a host side allocation fails.
	ErrOutOfHostMemory = fault.Const("out of host memory")
	// ErrOutOfDeviceMemory is reported when upload heap growth fails.
	ErrOutOfDeviceMemory = fault.Const("out of device memory")
	// ErrNotRecording is returned by recording calls outside Begin/End.
	ErrNotRecording = fault.Const("command buffer is not recording")
	// ErrAlreadyRecording is returned by Begin on a recording buffer.
	ErrAlreadyRecording = fault.Const("command buffer is already recording")
	// ErrInvalidValue is returned for out of range arguments.
	ErrInvalidValue = fault.Const("value out of range")
	// ErrUnsupported is returned when the device cannot express a request.
	ErrUnsupported = fault.Const("unsupported on this device")
)
