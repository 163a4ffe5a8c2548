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

package binary

// Reader provides methods for decoding values.
type Reader interface {
	// Data reads len(p) bytes into p in their entirety.
	Data(p []byte)
	// Bool decodes a boolean value from the Reader.
	Bool() bool
	// Uint8 decodes an unsigned, 8 bit integer value from the Reader.
	Uint8() uint8
	// Uint16 decodes an unsigned, 16 bit integer value from the Reader.
	Uint16() uint16
	// Uint32 decodes an unsigned, 32 bit integer value from the Reader.
	Uint32() uint32
	// Uint64 decodes an unsigned, 64 bit integer value from the Reader.
	Uint64() uint64
	// Float32 decodes a 32 bit floating-point value from the Reader.
	Float32() float32
	// If there is an error reading any input, all further reading returns
	// zero values. Error() returns the error which stopped reading from the
	// stream. If reading has not stopped it returns nil.
	Error() error
	// SetError sets the error state and stops reading from the stream.
	SetError(error)
}
