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

// Package timedriver implements each node's virtual clock and its timer
// heap: a container/heap min-heap keyed by timestamp, with each entry
// tracking its own heap index so it can be removed in O(log n) when it
// fires ahead of its natural pop.
package timedriver

import (
	"container/heap"
	"context"

	"github.com/vnetsim/vnetsim/task"
)

// Timestamp is virtual time, expressed in nanoseconds since the start of
// the simulation.
type Timestamp uint64

// Entry is a shared handle to one pending timer, returned by AddTimer so
// the caller can register a waker on it (directly, or through Sleep) once
// it actually needs to suspend.
type Entry struct {
	Timestamp Timestamp
	waker     *task.Waker
	index     int
	removed   bool
}

// Register arms e with w: when e's timestamp is reached, w.Wake is called.
// If e is already due, w is woken immediately instead of being stored.
func (e *Entry) Register(d *TimeDriver, w *task.Waker) {
	if e.removed {
		w.Wake()
		return
	}
	e.waker = w
	if e.Timestamp <= d.now {
		d.remove(e)
		w.Wake()
	}
}

type timerHeap []*Entry

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].Timestamp < h[j].Timestamp }
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) {
	e := x.(*Entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// TimeDriver owns one node's virtual clock and its pending timers. It is
// not safe for concurrent use; a node drives it from exactly one goroutine
// at a time, just like its task.Runtime.
type TimeDriver struct {
	now Timestamp
	q   timerHeap
}

// New creates a TimeDriver starting at virtual time zero.
func New() *TimeDriver {
	d := &TimeDriver{}
	heap.Init(&d.q)
	return d
}

// Now returns the driver's current virtual time.
func (d *TimeDriver) Now() Timestamp {
	return d.now
}

// AddTimer registers a timer that will be ready at d.Now()+duration and
// returns a shared handle so the awaiter can register its waker against it,
// either directly (Entry.Register) or via Sleep.
func (d *TimeDriver) AddTimer(durationNanos int64) *Entry {
	e := &Entry{Timestamp: d.now + Timestamp(durationNanos)}
	heap.Push(&d.q, e)
	return e
}

// Sleep suspends the calling task until virtual time reaches
// d.Now()+duration. A zero duration still parks the task, but the timer it
// registers is already due: TimeDriver wakes it immediately, during this
// same call, without requiring any later AdvanceToTime.
func (d *TimeDriver) Sleep(ctx context.Context, durationNanos int64) {
	e := d.AddTimer(durationNanos)
	task.Park(ctx, func(w *task.Waker) {
		e.Register(d, w)
	})
}

// NextTimer returns the timestamp of the earliest pending timer and true,
// or false if no timer is pending.
func (d *TimeDriver) NextTimer() (Timestamp, bool) {
	if len(d.q) == 0 {
		return 0, false
	}
	return d.q[0].Timestamp, true
}

// remove pulls e out of the heap ahead of its natural pop, used when a
// timer fires early (a zero-duration sleep registered after time already
// passed its deadline).
func (d *TimeDriver) remove(e *Entry) {
	if e.removed {
		return
	}
	e.removed = true
	heap.Remove(&d.q, e.index)
}

// AdvanceToNextTimer moves virtual time forward to the earliest pending
// timer and fires it (and any other timer now due at that same instant).
// It is a no-op if no timer is pending.
func (d *TimeDriver) AdvanceToNextTimer() {
	ts, ok := d.NextTimer()
	if !ok {
		return
	}
	d.AdvanceToTime(ts)
}

// AdvanceToTime moves virtual time forward to ts (never backward: if ts is
// before the current time it is ignored) and fires every timer now due.
func (d *TimeDriver) AdvanceToTime(ts Timestamp) {
	if ts < d.now {
		return
	}
	d.now = ts
	for len(d.q) > 0 && d.q[0].Timestamp <= d.now {
		e := heap.Pop(&d.q).(*Entry)
		e.removed = true
		if e.waker != nil {
			e.waker.Wake()
		}
	}
}
