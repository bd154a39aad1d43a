// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conc

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSubmit(t *testing.T) {
	pool := NewPool[int](4)
	defer pool.Release()

	futures := make([]*Future[int], 0, 16)
	for i := 0; i < 16; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * 2, nil
		}))
	}
	require.NoError(t, AwaitAll(futures...))
	for i, f := range futures {
		assert.Equal(t, i*2, f.Value())
		assert.True(t, f.Done())
	}
	assert.Equal(t, 4, pool.Cap())
}

func TestPoolSubmitError(t *testing.T) {
	pool := NewPool[string](1)
	defer pool.Release()

	boom := errors.New("boom")
	f := pool.Submit(func() (string, error) { return "", boom })
	v, err := f.Await()
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, v)
	assert.False(t, f.OK())
	assert.ErrorIs(t, AwaitAll(f), boom)
}

func TestPoolPreHandler(t *testing.T) {
	var called atomic.Int32
	pool := NewPool[struct{}](2, WithPreHandler(func() { called.Add(1) }))
	defer pool.Release()

	require.NoError(t, AwaitAll(
		pool.Submit(func() (struct{}, error) { return struct{}{}, nil }),
		pool.Submit(func() (struct{}, error) { return struct{}{}, nil }),
	))
	assert.Equal(t, int32(2), called.Load())
}

func TestPoolResize(t *testing.T) {
	pool := NewPool[int](2)
	defer pool.Release()

	assert.NoError(t, pool.Resize(8))
	assert.Equal(t, 8, pool.Cap())
	assert.Error(t, pool.Resize(0))

	pre := NewPool[int](2, WithPreAlloc(true))
	defer pre.Release()
	assert.Error(t, pre.Resize(4))
}

func TestPoolNonBlockingFull(t *testing.T) {
	pool := NewPool[int](1, WithNonBlocking(true))
	defer pool.Release()

	release := make(chan struct{})
	first := pool.Submit(func() (int, error) {
		<-release
		return 1, nil
	})
	second := pool.Submit(func() (int, error) { return 2, nil })
	assert.Error(t, second.Err())
	close(release)
	assert.Equal(t, 1, first.Value())
}

func TestGo(t *testing.T) {
	f := Go(func() (time.Duration, error) { return time.Second, nil })
	assert.Equal(t, time.Second, f.Value())
	select {
	case <-f.Inner():
	default:
		t.Fatal("future should be done")
	}
}

func TestGetOrCreatePool(t *testing.T) {
	a := GetOrCreatePool[int]("test-shared", 2)
	b := GetOrCreatePool[int]("test-shared", 4)
	assert.Same(t, a, b)
	assert.Equal(t, 2, b.Cap())
}

func TestPoolConcealPanic(t *testing.T) {
	pool := NewPool[int](1, WithConcealPanic(true))
	defer pool.Release()

	f := pool.Submit(func() (int, error) { panic("bcrypt exploded") })
	_, err := f.Await()
	assert.Error(t, err)

	// 池在 panic 后仍可继续使用
	assert.Equal(t, 7, pool.Submit(func() (int, error) { return 7, nil }).Value())
}

func TestPoolExpiryAndPurge(t *testing.T) {
	pool := NewPool[int](2, WithExpiryDuration(10*time.Millisecond))
	defer pool.Release()
	require.NoError(t, AwaitAll(pool.Submit(func() (int, error) { return 1, nil })))
	assert.Eventually(t, func() bool { return pool.Running() == 0 }, time.Second, 5*time.Millisecond)

	hot := NewPool[int](2, WithPreAlloc(true), WithDisablePurge(true))
	defer hot.Release()
	assert.Equal(t, 1, hot.Submit(func() (int, error) { return 1, nil }).Value())
	assert.Equal(t, 2, hot.Cap())
}
