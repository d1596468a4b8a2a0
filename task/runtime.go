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
	"sync"
	"weak"
)

// Runtime is the single-threaded scheduler for one node. It owns a FIFO of
// runnable task ids and a table of all live tasks (runnable or parked). A
// parked task is only ever made runnable again by its own Waker (invoked,
// directly or indirectly, from something the task itself registered
// interest in, such as a timer or a socket event); the runtime never polls
// a task "just in case" the way a naive scheduler might. That is what lets
// NextStep's caller (the node) tell the difference between "there is
// CPU-bound work to do right now" and "nothing will happen until virtual
// time advances".
type Runtime struct {
	mu     sync.Mutex
	tasks  map[ID]*Task
	queue  []ID
	queued map[ID]bool
	aborts map[ID]func()
}

// New creates an empty Runtime.
func New() *Runtime {
	return &Runtime{
		tasks:  make(map[ID]*Task),
		queued: make(map[ID]bool),
		aborts: make(map[ID]func()),
	}
}

// Spawn schedules fn to run as a new task and returns its id. fn receives a
// context.Context carrying the task's scheduling handle; it must be passed
// down to Park (directly, or via helpers built on Park such as a sleep or a
// socket recv) for the task to ever be suspended and resumed correctly.
// fn runs on its own goroutine but never concurrently with any other task
// belonging to this Runtime. Equivalent to SpawnCtx with a background base
// context.
func (r *Runtime) Spawn(fn func(ctx context.Context)) ID {
	return r.SpawnCtx(context.Background(), fn)
}

// SpawnCtx is Spawn with an explicit base context. Values already attached
// to base (a node identity, a clock, this same Runtime for nested spawns)
// are visible to fn, so a task spawned from within another task inherits
// everything about the node that spawned it, not just this Runtime's own
// scheduling hook.
func (r *Runtime) SpawnCtx(base context.Context, fn func(ctx context.Context)) ID {
	t := &Task{
		id:       newID(),
		resume:   make(chan struct{}),
		stepDone: make(chan struct{}),
	}

	r.mu.Lock()
	r.tasks[t.id] = t
	r.pushLocked(t.id)
	r.mu.Unlock()

	ctx := context.WithValue(base, parkKey{}, &parkState{
		id:       t.id,
		resume:   t.resume,
		stepDone: t.stepDone,
		runtime:  weak.Make(r),
	})
	ctx = context.WithValue(ctx, runtimeKey{}, r)

	go func() {
		<-t.resume
		func() {
			defer func() {
				if p := recover(); p != nil {
					t.panicVal = p
				}
				t.done = true
				t.stepDone <- struct{}{}
			}()
			fn(ctx)
		}()
	}()

	return t.id
}

// runtimeKey is the context key under which a task's owning Runtime is
// stashed, so the free function Spawn can find it without requiring
// callers to thread a *Runtime around by hand.
type runtimeKey struct{}

// setAbort registers fn to run if id's task is still live when the Runtime
// shuts down. A task that completes normally never has its abort run.
func (r *Runtime) setAbort(id ID, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return
	}
	r.aborts[id] = fn
}

// Shutdown destroys every task still live on the Runtime, running the abort
// hook of each so that anything joined on an unfinished task observes
// ErrAborted instead of waiting forever. Goroutines of parked tasks remain
// parked until process exit; each still holds its task context, which
// references this Runtime, so the Runtime stays reachable while they exist.
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	aborts := make([]func(), 0, len(r.aborts))
	for id := range r.tasks {
		if fn, ok := r.aborts[id]; ok {
			aborts = append(aborts, fn)
		}
	}
	r.tasks = make(map[ID]*Task)
	r.queue = nil
	r.queued = make(map[ID]bool)
	r.aborts = make(map[ID]func())
	r.mu.Unlock()

	for _, fn := range aborts {
		fn()
	}
}

func (r *Runtime) pushLocked(id ID) {
	if r.queued[id] {
		return
	}
	r.queued[id] = true
	r.queue = append(r.queue, id)
}

// wake is called by a Waker to make a parked task runnable again. Waking a
// task that has already completed, or waking the same task more than once
// before it runs, is a harmless no-op: duplicate wakes collapse into a
// single queue entry.
func (r *Runtime) wake(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return
	}
	r.pushLocked(id)
}

// HasWork reports whether any task is runnable right now. The node consults
// this to decide between "run a task" and "advance virtual time": exactly
// one of those can make progress at a time.
func (r *Runtime) HasWork() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue) > 0
}

// NextStep pops one runnable task id and resumes its goroutine until it
// either finishes or parks again, then returns true. It returns false if no
// task is runnable. A task that parks without being woken synchronously
// during this step simply stays out of the queue until something wakes it.
func (r *Runtime) NextStep() bool {
	r.mu.Lock()
	var id ID
	for {
		if len(r.queue) == 0 {
			r.mu.Unlock()
			return false
		}
		id = r.queue[0]
		r.queue = r.queue[1:]
		delete(r.queued, id)
		if _, ok := r.tasks[id]; ok {
			break
		}
	}
	t := r.tasks[id]
	r.mu.Unlock()

	t.resume <- struct{}{}
	<-t.stepDone

	if t.done {
		r.mu.Lock()
		delete(r.tasks, id)
		delete(r.aborts, id)
		r.mu.Unlock()
		if t.panicVal != nil {
			panic(t.panicVal)
		}
	}
	return true
}

// MakeSteps calls NextStep until it returns false or the budget is
// exhausted (a non-positive budget means unbounded), returning the number
// of tasks actually polled.
func (r *Runtime) MakeSteps(budget int) int {
	steps := 0
	for budget <= 0 || steps < budget {
		if !r.NextStep() {
			break
		}
		steps++
	}
	return steps
}

// Park suspends the calling task until woken. register is invoked with a
// Waker bound to the calling task before the task actually parks, so the
// caller can hand that waker to whatever will eventually call Wake (a
// timer, a socket, another task). ctx must be the context passed into the
// function given to Spawn.
func Park(ctx context.Context, register func(w *Waker)) {
	ps, ok := ctx.Value(parkKey{}).(*parkState)
	if !ok {
		panic("task.Park called outside a task goroutine")
	}
	register(&Waker{runtime: ps.runtime, id: ps.id})
	ps.stepDone <- struct{}{}
	<-ps.resume
}
