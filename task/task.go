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

// Package task implements the single-threaded cooperative task runtime that
// drives one simulated node. Go has no suspendable, stackless coroutines, so
// each Task is backed by one goroutine parked on a rendezvous channel: the
// runtime resumes it by unblocking that channel and waits for the goroutine
// to either finish or park again before control returns to the scheduler.
// Exactly one task goroutine is ever unblocked at a time, so despite the
// extra goroutines this is exactly as single-threaded and deterministic as
// the simulator requires.
package task

import (
	"sync/atomic"
	"weak"
)

// ID uniquely identifies a task for its lifetime. IDs are never reused.
type ID uint64

var nextID atomic.Uint64

func newID() ID {
	return ID(nextID.Add(1))
}

// parkKey is the context key under which a task's own id and park channel
// are stored, so that Park (and anything built on it, like sleeping on a
// timer or a socket) can find its way back into the scheduler.
type parkKey struct{}

// parkState is what a spawned goroutine finds in its context.
type parkState struct {
	id       ID
	resume   chan struct{}
	stepDone chan struct{}
	runtime  weak.Pointer[Runtime]
}

// Task is one scheduled unit of work. The zero value is not usable; create
// one with Runtime.Spawn.
type Task struct {
	id       ID
	resume   chan struct{}
	stepDone chan struct{}
	done     bool
	panicVal any
}

// ID returns the task's stable identity, used by Waker to re-queue it.
func (t *Task) ID() ID {
	return t.id
}

// Done reports whether the task's function has returned.
func (t *Task) Done() bool {
	return t.done
}
