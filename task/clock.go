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
	"time"
)

// Clock is how a node's virtual time driver is made reachable from a
// task's context without task depending on the node package (which in
// turn depends on task). A node attaches itself as a Clock via WithClock
// when it spawns a task; Sleep and Now then resolve it back out of ctx.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration)
	Now() time.Duration
}

type clockKey struct{}

// WithClock attaches c to ctx so that Sleep and Now, called anywhere below
// ctx, resolve against it.
func WithClock(ctx context.Context, c Clock) context.Context {
	return context.WithValue(ctx, clockKey{}, c)
}

// Sleep suspends the calling task for d of virtual time, as measured by
// whatever Clock was attached to ctx. It returns an error instead of
// panicking if ctx carries no Clock, since a bare task.Runtime (as used in
// this package's own tests) never attaches one.
func Sleep(ctx context.Context, d time.Duration) error {
	c, ok := ctx.Value(clockKey{}).(Clock)
	if !ok {
		return errNoClock
	}
	c.Sleep(ctx, d)
	return nil
}

// Now returns the virtual time of the Clock attached to ctx, or zero if
// none is attached.
func Now(ctx context.Context) time.Duration {
	c, ok := ctx.Value(clockKey{}).(Clock)
	if !ok {
		return 0
	}
	return c.Now()
}

type clockError string

func (e clockError) Error() string { return string(e) }

const errNoClock = clockError("task: no Clock attached to context")
