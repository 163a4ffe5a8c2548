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
	"sync/atomic"
	"testing"

	"github.com/basalt-gpu/basalt/core/assert"
	"github.com/basalt-gpu/basalt/core/log"
)

func TestSubprogramCompiledOnce(t *testing.T) {
	ctx := log.Testing(t)
	compiles := int32(0)
	cache, err := NewSubprogramCache(16, func(ctx context.Context, key uint64) (*Subprogram, error) {
		atomic.AddInt32(&compiles, 1)
		return &Subprogram{Key: key}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sp, err := cache.Get(ctx, 42)
				if err != nil || sp.Key != 42 {
					t.Errorf("Get returned %v, %v", sp, err)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.For(ctx, "compiles").ThatInteger(int(atomic.LoadInt32(&compiles))).Equals(1)
}

func TestSubprogramCacheEvicts(t *testing.T) {
	ctx := log.Testing(t)
	cache, err := NewSubprogramCache(4, func(ctx context.Context, key uint64) (*Subprogram, error) {
		return &Subprogram{Key: key}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for key := uint64(0); key < 10; key++ {
		if _, err := cache.Get(ctx, key); err != nil {
			t.Fatal(err)
		}
	}
	assert.For(ctx, "bounded").ThatInteger(cache.Len()).Equals(4)
}

func TestSubprogramCompileErrorPropagates(t *testing.T) {
	ctx := log.Testing(t)
	cache, err := NewSubprogramCache(4, func(ctx context.Context, key uint64) (*Subprogram, error) {
		return nil, ErrOutOfHostMemory
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = cache.Get(ctx, 7)
	assert.For(ctx, "err").ThatError(err).Failed()
	assert.For(ctx, "not cached").ThatInteger(cache.Len()).Equals(0)
}
