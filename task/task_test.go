// Copyright (c) 2026, The VNetSim Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package task

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnRunsToCompletion(t *testing.T) {
	rt := New()
	ran := false
	rt.Spawn(func(ctx context.Context) {
		ran = true
	})

	require.True(t, rt.HasWork())
	require.True(t, rt.NextStep())
	assert.True(t, ran)
	assert.False(t, rt.HasWork())
	assert.False(t, rt.NextStep())
}

func TestParkSuspendsUntilWoken(t *testing.T) {
	rt := New()
	var resumed bool
	var waker *Waker

	rt.Spawn(func(ctx context.Context) {
		Park(ctx, func(w *Waker) {
			waker = w
		})
		resumed = true
	})

	require.True(t, rt.NextStep())
	assert.False(t, resumed, "task should be parked, not resumed")
	assert.False(t, rt.HasWork(), "parked task must not be runnable")

	waker.Wake()
	require.True(t, rt.HasWork())
	require.True(t, rt.NextStep())
	assert.True(t, resumed)
}

func TestDuplicateWakeCollapses(t *testing.T) {
	rt := New()
	var waker *Waker
	polls := 0

	rt.Spawn(func(ctx context.Context) {
		Park(ctx, func(w *Waker) { waker = w })
		polls++
	})
	require.True(t, rt.NextStep())

	waker.Wake()
	waker.Wake()
	waker.Wake()

	steps := rt.MakeSteps(0)
	assert.Equal(t, 1, steps)
	assert.Equal(t, 1, polls)
}

func TestFIFOOrderAcrossTasks(t *testing.T) {
	rt := New()
	var order []int

	for i := 0; i < 3; i++ {
		i := i
		rt.Spawn(func(ctx context.Context) {
			order = append(order, i)
		})
	}

	rt.MakeSteps(0)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestJoinHandleReturnsValueAfterCompletion(t *testing.T) {
	rt := New()
	h := SpawnValue(rt, func(ctx context.Context) int { return 42 })

	var got int
	rt.Spawn(func(ctx context.Context) {
		got, _ = Join(ctx, h)
	})

	rt.MakeSteps(0)
	assert.Equal(t, 42, got)
}

func TestShutdownAbortsUnfinishedTask(t *testing.T) {
	rt := New()
	h := SpawnValue(rt, func(ctx context.Context) int {
		Park(ctx, func(w *Waker) {})
		return 42
	})
	require.True(t, rt.NextStep()) // task parks, nothing will ever wake it

	rt.Shutdown()

	rt2 := New()
	var err error
	rt2.Spawn(func(ctx context.Context) {
		_, err = Join(ctx, h)
	})
	rt2.MakeSteps(0)
	assert.ErrorIs(t, err, ErrAborted)
	assert.False(t, rt.HasWork())
}

func TestJoinParksWhenNotYetReady(t *testing.T) {
	rt := New()
	var producerWaker *Waker
	h := &JoinHandle[string]{}

	rt.Spawn(func(ctx context.Context) {
		Park(ctx, func(w *Waker) { producerWaker = w })
		h.mu.Lock()
		h.val = "done"
		h.ready = true
		waiting := h.wakers
		h.wakers = nil
		h.mu.Unlock()
		for _, w := range waiting {
			w.Wake()
		}
	})

	var got string
	rt.Spawn(func(ctx context.Context) {
		got, _ = Join(ctx, h)
	})

	require.True(t, rt.NextStep()) // producer parks
	require.True(t, rt.NextStep()) // consumer parks, registers waker
	assert.False(t, rt.HasWork())
	assert.Equal(t, "", got)

	producerWaker.Wake()
	rt.MakeSteps(0)
	assert.Equal(t, "done", got)
}

func TestWakeAfterRuntimeGoneIsNoOp(t *testing.T) {
	rt := New()
	var waker *Waker
	rt.Spawn(func(ctx context.Context) {
		Park(ctx, func(w *Waker) { waker = w })
	})
	require.True(t, rt.NextStep())

	rt = nil
	runtime.GC()
	runtime.GC()

	assert.NotPanics(t, func() { waker.Wake() })
}
