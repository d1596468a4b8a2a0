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

import (
	"context"
	"net/netip"
	"time"

	"github.com/vnetsim/vnetsim/netsim"
	"github.com/vnetsim/vnetsim/task"
	"github.com/vnetsim/vnetsim/timedriver"
)

// Handle is the public, user-facing reference to a Node. All of a Node's
// behavior is reached through its Handle; Node itself is an implementation
// detail shared between this package and sim.
type Handle struct {
	n *Node
}

// NewHandle wraps n. Used by sim.Sim.Insert once a Node has been added to a
// simulation's node table; Builder.Build reaches it indirectly through the
// simHost interface rather than calling it directly.
func NewHandle(n *Node) *Handle {
	return &Handle{n: n}
}

// IP returns the node's address.
func (h *Handle) IP() netip.Addr { return h.n.info.IP }

// Time returns the node's current virtual time.
func (h *Handle) Time() time.Duration {
	return time.Duration(h.n.clock.Now())
}

// Now satisfies task.Clock, so task.Now(ctx) resolves to this node's
// virtual time once the node has attached itself to ctx.
func (h *Handle) Now() time.Duration { return h.Time() }

// Sleep satisfies task.Clock: it suspends the calling task until the
// node's virtual clock reaches Now()+d.
func (h *Handle) Sleep(ctx context.Context, d time.Duration) {
	h.n.clock.Sleep(ctx, d.Nanoseconds())
}

// Network returns this node's weak handle to the shared network.
func (h *Handle) Network() *netsim.Handle { return h.n.network }

// Info returns the node's immutable configuration.
func (h *Handle) Info() Info { return h.n.info }

// Spawn schedules fn as a new task on this node's runtime. Inside fn,
// node.Current(ctx) resolves to h, task.Sleep(ctx, d) and task.Now(ctx)
// resolve against this node's clock, and task.Spawn(ctx, ...) schedules a
// nested task on the same runtime, all without fn needing to close over
// h itself.
func (h *Handle) Spawn(fn func(ctx context.Context) error) *task.JoinHandle[error] {
	base := withNode(context.Background(), h)
	base = task.WithClock(base, h)
	return task.SpawnValueCtx(h.n.runtime, base, fn)
}

// TakePort removes a specific port from the free set if requested is
// non-nil, or the smallest free port otherwise. It returns the port taken
// and whether the allocation succeeded.
func (h *Handle) TakePort(requested *uint16) (uint16, bool) {
	if requested != nil {
		return *requested, h.n.ports.takeSpecific(*requested)
	}
	return h.n.ports.takeAny()
}

// ReturnPort reinserts p into the free set. p must currently be assigned;
// returning an already-free port is an invariant violation.
func (h *Handle) ReturnPort(p uint16) {
	h.n.ports.ret(p)
}

// AddTimer registers a timer at Time()+d and returns its shared handle.
func (h *Handle) AddTimer(d time.Duration) *timedriver.Entry {
	return h.n.clock.AddTimer(d.Nanoseconds())
}

// NextEventTimestamp returns the earliest of: "now" if the runtime has
// runnable work, else the earlier of the next timer and the network's next
// delivery event (the earliest pending event network-wide, not only one
// addressed to this node). It returns false only
// when nothing will ever happen again (no work, no timers, no pending
// deliveries).
func (h *Handle) NextEventTimestamp() (timedriver.Timestamp, bool) {
	if h.n.runtime.HasWork() {
		return h.n.clock.Now(), true
	}
	nextTimer, hasTimer := h.n.clock.NextTimer()
	nextNet, hasNet := h.n.network.NextEventTimestamp()
	switch {
	case !hasTimer && !hasNet:
		return 0, false
	case !hasTimer:
		return nextNet, true
	case !hasNet:
		return nextTimer, true
	case nextTimer < nextNet:
		return nextTimer, true
	default:
		return nextNet, true
	}
}

// NextStep advances this node by exactly one unit of progress: either it
// polls one runnable task, or (if nothing is runnable) it advances both
// the network and this node's clock to the next scheduled event. It
// returns false once neither is possible.
func (h *Handle) NextStep() bool {
	if h.n.runtime.NextStep() {
		return true
	}
	ts, ok := h.NextEventTimestamp()
	if !ok {
		return false
	}
	h.n.network.AdvanceToTime(ts)
	h.n.clock.AdvanceToTime(ts)
	return true
}

// MakeSteps calls NextStep until it returns false or n steps have been
// taken; n < 0 means unbounded. It returns the number of steps actually
// performed.
func (h *Handle) MakeSteps(n int) int {
	steps := 0
	for n < 0 || steps < n {
		if !h.NextStep() {
			break
		}
		steps++
	}
	return steps
}

// StepDuration advances the node through every event due within d of
// virtual time, then sets its clock to exactly Now()+d even if no event
// landed precisely there.
func (h *Handle) StepDuration(d time.Duration) {
	until := h.n.clock.Now() + timedriver.Timestamp(d.Nanoseconds())
	for {
		ts, ok := h.NextEventTimestamp()
		if !ok || ts > until {
			break
		}
		h.NextStep()
	}
	h.n.network.AdvanceToTime(until)
	h.n.clock.AdvanceToTime(until)
}
