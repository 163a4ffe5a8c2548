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
	"encoding/binary"

	"github.com/pkg/errors"
)

// cacheLine is the placement granularity favored before caller alignment.
const cacheLine = 64

// Buffer is one device-visible allocation backing the upload heap.
type Buffer struct {
	addr       uint64
	data       []byte
	generation uint64
	released   bool
}

// Addr returns the buffer's device address.
func (b *Buffer) Addr() uint64 { return b.addr }

// Size returns the buffer's capacity in bytes.
func (b *Buffer) Size() uint64 { return uint64(len(b.data)) }

// release returns the backing memory to the system. It is idempotent; a
// buffer on both the retired list and the resident list is freed once.
func (b *Buffer) release() {
	if b.released {
		return
	}
	b.released = true
	unmapDeviceMemory(b.data)
	b.data = nil
}

// uploadHeap is a bump allocator over growable device-visible buffers.
// Retired buffers are kept until drain since in-flight GPU reads may still
// target them.
type uploadHeap struct {
	dev        *Device
	active     *Buffer
	cursor     uint64
	generation uint64
	retired    []*Buffer
	onGrow     func(*Buffer)
}

// alloc returns a device address and the host bytes behind it. The offset
// is rounded to a cache line first and then to align. On overflow the heap
// grows to max(2x the old capacity, the heap minimum, the request) and the
// old buffer moves to the retired list.
func (u *uploadHeap) alloc(size, align uint64) (uint64, []byte, error) {
	if align == 0 {
		align = 1
	}
	offset := alignUp(alignUp(u.cursor, cacheLine), align)
	if u.active == nil || offset+size > u.active.Size() {
		if err := u.grow(size + align); err != nil {
			return 0, nil, err
		}
		offset = 0
	}
	u.cursor = offset + size
	host := u.active.data[offset : offset+size : offset+size]
	return u.active.addr + offset, host, nil
}

// allocDwords is alloc for little-endian dword payloads.
func (u *uploadHeap) allocDwords(values []uint32, align uint64) (uint64, error) {
	addr, host, err := u.alloc(uint64(len(values))*4, align)
	if err != nil {
		return 0, err
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(host[i*4:], v)
	}
	return addr, nil
}

func (u *uploadHeap) grow(request uint64) error {
	size := u.dev.settings.UploadHeapMinSize
	if u.active != nil {
		if s := 2 * u.active.Size(); s > size {
			size = s
		}
	}
	if request > size {
		size = request
	}
	buf, err := u.dev.allocDeviceMemory(size)
	if err != nil {
		return errors.Wrap(err, "growing upload heap")
	}
	u.generation++
	buf.generation = u.generation
	if u.active != nil {
		u.retired = append(u.retired, u.active)
	}
	u.active = buf
	u.cursor = 0
	if u.onGrow != nil {
		u.onGrow(buf)
	}
	return nil
}

// drain releases every buffer the heap still owns. Safe to call twice.
func (u *uploadHeap) drain() {
	for _, b := range u.retired {
		b.release()
	}
	u.retired = u.retired[:0]
	if u.active != nil {
		u.active.release()
		u.active = nil
	}
	u.cursor = 0
}

// recycle drops retired buffers but keeps the active one for reuse.
func (u *uploadHeap) recycle() {
	for _, b := range u.retired {
		b.release()
	}
	u.retired = u.retired[:0]
	u.cursor = 0
}

// alignUp rounds v up to a power-of-two alignment.
func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
