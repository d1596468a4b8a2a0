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

// Package progctx manages the lifetime of a program's long-running
// goroutines: a cancellable context, tracked goroutine spawning, and
// cleanups that run exactly once when the program winds down.
package progctx

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/vnetsim/vnetsim/logger"
)

// ProgCtx is the program-wide context. It embeds a cancellable
// context.Context, so it can be passed anywhere a plain Context is
// expected, and additionally tracks every goroutine started through Go so
// Wait can block until all of them have drained.
type ProgCtx struct {
	context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	active   map[string]int
	deferred []func()
}

// New creates a ProgCtx from parent (context.Background() if nil).
func New(parent context.Context) *ProgCtx {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &ProgCtx{
		Context: ctx,
		cancel:  cancel,
		active:  map[string]int{},
	}
}

// Go runs fn on a new tracked goroutine. name identifies the routine in
// diagnostics; several goroutines may share one name. Wait returns only
// after every goroutine started this way has finished.
func (ctx *ProgCtx) Go(name string, fn func()) {
	ctx.mu.Lock()
	ctx.active[name]++
	ctx.mu.Unlock()
	ctx.wg.Add(1)

	go func() {
		defer func() {
			ctx.mu.Lock()
			ctx.active[name]--
			if ctx.active[name] <= 0 {
				delete(ctx.active, name)
			}
			ctx.mu.Unlock()
			ctx.wg.Done()
		}()
		fn()
	}()
}

// Cancel cancels the context and runs every deferred cleanup. Only the
// first call has any effect.
func (ctx *ProgCtx) Cancel(reason error) {
	if ctx.Err() != nil {
		return
	}
	ctx.cancel()
	logger.Infof("progctx: shutting down: %v", reason)

	ctx.mu.Lock()
	deferred := ctx.deferred
	ctx.deferred = nil
	ctx.mu.Unlock()
	for _, f := range deferred {
		f()
	}
}

// Defer registers a cleanup to run when Cancel is first called. Panics if
// the context is already done: such a cleanup would never run.
func (ctx *ProgCtx) Defer(f func()) {
	if ctx.Err() != nil {
		panic(errors.New("progctx: Defer after context is done"))
	}
	ctx.mu.Lock()
	ctx.deferred = append(ctx.deferred, f)
	ctx.mu.Unlock()
}

// Active returns a snapshot of the currently running tracked goroutines,
// keyed by the name given to Go.
func (ctx *ProgCtx) Active() map[string]int {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	out := make(map[string]int, len(ctx.active))
	for k, v := range ctx.active {
		out[k] = v
	}
	return out
}

// Wait blocks until every goroutine started through Go has finished.
func (ctx *ProgCtx) Wait() {
	ctx.wg.Wait()
}
