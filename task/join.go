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
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// ErrAborted is reported by Join when the task backing a JoinHandle was
// destroyed (its Runtime shut down) before it could produce a value.
var ErrAborted = errors.New("task aborted")

// JoinHandle is the output side of a spawned task that produces a value of
// type T. Exactly one task ever produces the value and any number of tasks
// may Join on it; once the value is set it is immutable, so concurrent
// reads after that point need no further synchronization.
type JoinHandle[T any] struct {
	mu     sync.Mutex
	val    T
	err    error
	ready  bool
	wakers []*Waker
}

// SpawnValue spawns fn on rt and returns a handle through which its return
// value can be retrieved once the task completes.
func SpawnValue[T any](rt *Runtime, fn func(ctx context.Context) T) *JoinHandle[T] {
	return SpawnValueCtx(rt, context.Background(), fn)
}

// SpawnValueCtx is SpawnValue with an explicit base context, the same
// relationship SpawnCtx has to Spawn.
func SpawnValueCtx[T any](rt *Runtime, base context.Context, fn func(ctx context.Context) T) *JoinHandle[T] {
	h := &JoinHandle[T]{}
	id := rt.SpawnCtx(base, func(ctx context.Context) {
		h.complete(fn(ctx), nil)
	})
	rt.setAbort(id, func() {
		var zero T
		h.complete(zero, ErrAborted)
	})
	return h
}

func (h *JoinHandle[T]) complete(v T, err error) {
	h.mu.Lock()
	if h.ready {
		h.mu.Unlock()
		return
	}
	h.val = v
	h.err = err
	h.ready = true
	waiting := h.wakers
	h.wakers = nil
	h.mu.Unlock()
	for _, w := range waiting {
		w.Wake()
	}
}

// Spawn schedules fn as a new task on the same Runtime as the task calling
// ctx, inheriting ctx's node/clock associations. It panics if ctx was not
// itself produced by a task on some Runtime (i.e. it is not a context.Context
// handed to a function passed to Spawn/SpawnCtx/SpawnValue/SpawnValueCtx).
func Spawn[T any](ctx context.Context, fn func(ctx context.Context) T) *JoinHandle[T] {
	rt, ok := ctx.Value(runtimeKey{}).(*Runtime)
	if !ok {
		panic(fmt.Errorf("task.Spawn called outside a running task"))
	}
	return SpawnValueCtx(rt, ctx, fn)
}

// TryJoin returns the task's result without suspending: ok reports whether
// a result is available yet. Unlike Join it may be called from anywhere,
// including outside any task.
func (h *JoinHandle[T]) TryJoin() (val T, err error, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.ready {
		var zero T
		return zero, nil, false
	}
	return h.val, h.err, true
}

// Join parks the calling task until the spawned task's result is
// available, then returns it. If the task's Runtime was shut down before
// the task finished, Join returns ErrAborted instead. It must itself be
// called from within a task running on the same Runtime that owns the
// JoinHandle.
func Join[T any](ctx context.Context, h *JoinHandle[T]) (T, error) {
	for {
		h.mu.Lock()
		if h.ready {
			v, err := h.val, h.err
			h.mu.Unlock()
			return v, err
		}
		h.mu.Unlock()

		Park(ctx, func(w *Waker) {
			h.mu.Lock()
			defer h.mu.Unlock()
			if h.ready {
				w.Wake()
				return
			}
			h.wakers = append(h.wakers, w)
		})
	}
}
