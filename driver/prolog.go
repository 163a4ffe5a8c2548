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
	"sync"

	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/pkg/errors"

	"github.com/basalt-gpu/basalt/core/log"
)

// Subprogram is a small generated shader fragment, such as a vertex-input
// prolog or fragment epilog, keyed by a hash of its generation parameters.
type Subprogram struct {
	Key  uint64
	Addr uint64
	Size uint64
}

// CompileFunc generates the subprogram for a key. It runs outside any lock
// held by the cache and must be deterministic for a given key.
type CompileFunc func(ctx context.Context, key uint64) (*Subprogram, error)

// SubprogramCache is the device-wide, content-addressed cache of generated
// subprograms. Lookups are read-mostly across concurrently recording
// command buffers; misses recheck under the write lock so a key is
// compiled at most once.
type SubprogramCache struct {
	mu      sync.RWMutex
	lru     *simplelru.LRU
	compile CompileFunc
}

// NewSubprogramCache returns a cache bounded to size entries.
func NewSubprogramCache(size int, compile CompileFunc) (*SubprogramCache, error) {
	lru, err := simplelru.NewLRU(size, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating subprogram cache")
	}
	return &SubprogramCache{lru: lru, compile: compile}, nil
}

// Get returns the subprogram for key, compiling it on first use.
func (c *SubprogramCache) Get(ctx context.Context, key uint64) (*Subprogram, error) {
	c.mu.RLock()
	if v, ok := c.lru.Get(key); ok {
		c.mu.RUnlock()
		return v.(*Subprogram), nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another recorder may have compiled it while the lock was dropped.
	if v, ok := c.lru.Get(key); ok {
		return v.(*Subprogram), nil
	}
	log.D(ctx, "Compiling subprogram %016x", key)
	sp, err := c.compile(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling subprogram %016x", key)
	}
	c.lru.Add(key, sp)
	return sp, nil
}

// Len returns the number of cached subprograms.
func (c *SubprogramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}
