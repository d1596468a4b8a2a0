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

package node

import "context"

// nodeKey is the context key under which a running task's owning node
// Handle is stashed. A node attaches itself once, when it spawns a task
// (directly or via task.Spawn for a nested spawn, since that reuses the
// parent task's context); every descendant inherits it the same way a
// Rust thread-local context guard would make the "current" node visible
// for the lifetime of a step, but made explicit through ctx instead of
// ambient mutable package state.
type nodeKey struct{}

func withNode(ctx context.Context, h *Handle) context.Context {
	return context.WithValue(ctx, nodeKey{}, h)
}

// Current returns the node whose task is executing, reading it out of ctx.
// It panics if ctx was not produced by a node's Spawn (directly or
// transitively), since there is no meaningful node identity to fall back
// to.
func Current(ctx context.Context) *Handle {
	h, ok := ctx.Value(nodeKey{}).(*Handle)
	if !ok {
		panic("node.Current called outside a running node task")
	}
	return h
}

// InSim reports whether ctx carries a node identity, without panicking.
func InSim(ctx context.Context) bool {
	_, ok := ctx.Value(nodeKey{}).(*Handle)
	return ok
}
