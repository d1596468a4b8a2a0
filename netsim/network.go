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

// Package netsim implements the shared virtual network: socket registry,
// one-hop topology, drop/delay sampling, and the scheduled-delivery event
// heap. Exactly one Network exists per simulation; every node reaches it
// through a weak Handle, so a node outliving the simulation (which cannot
// normally happen, but which an escaped socket handle must still tolerate)
// never dereferences freed state.
package netsim

import (
	"net/netip"
	"weak"

	"github.com/vnetsim/vnetsim/logger"
	"github.com/vnetsim/vnetsim/prng"
	"github.com/vnetsim/vnetsim/timedriver"
)

// Config holds the network's tunable parameters.
type Config struct {
	MinDelayNanos int64
	MaxDelayNanos int64
	DropRate      float64
}

// DefaultConfig returns the default network parameters: a [100ms, 500ms)
// delay window and a 5% base drop rate.
func DefaultConfig() Config {
	return Config{
		MinDelayNanos: 100_000_000,
		MaxDelayNanos: 500_000_000,
		DropRate:      0.05,
	}
}

// Network is the simulation's single shared virtual network. Every
// mutation funnels through its methods; because the simulator is
// single-threaded, nothing here needs its own locking.
type Network struct {
	cfg      Config
	rng      *prng.Source
	topology *topology
	registry *socketRegistry
	events   *eventQueue
	now      timedriver.Timestamp
	trace    *Trace
}

// New creates a Network seeded for deterministic drop/delay sampling.
func New(seed uint64, cfg Config) *Network {
	return &Network{
		cfg:      cfg,
		rng:      prng.New(seed),
		topology: newTopology(),
		registry: newSocketRegistry(),
		events:   newEventQueue(),
	}
}

// Handle is a weak reference to a Network, the only way anything outside
// sim.Sim is allowed to reach it. Every method upgrades the weak pointer on
// each call; a Handle used after its Network has been dropped returns
// ErrAddrNotAvailable-shaped failures rather than panicking, since an
// escaped socket handle must still be able to close cleanly.
type Handle struct {
	ptr weak.Pointer[Network]
}

// NewHandle wraps net in a weak Handle.
func NewHandle(net *Network) *Handle {
	return &Handle{ptr: weak.Make(net)}
}

// SetTrace attaches t so every subsequent send decision this Network makes
// is recorded to it. Passing nil detaches any previously attached Trace.
func (h *Handle) SetTrace(t *Trace) {
	if n, ok := h.get(); ok {
		n.trace = t
	}
}

// SetDropRate replaces the base probability that a non-loopback datagram is
// dropped at send time. Zero disables random loss entirely; delivery then
// depends only on the topology and the receiver being alive.
func (h *Handle) SetDropRate(rate float64) {
	if n, ok := h.get(); ok {
		n.cfg.DropRate = rate
	}
}

func (h *Handle) get() (*Network, bool) {
	n := h.ptr.Value()
	return n, n != nil
}

// RegisterNode adds ip to the topology, wiring bidirectional links to every
// already-registered node. Panics (via logger.AssertFalse) if ip is
// already registered.
func (h *Handle) RegisterNode(ip netip.Addr) {
	n, ok := h.get()
	if !ok {
		return
	}
	n.topology.registerNode(ip)
}

// Separate removes links between group and every node outside it.
func (h *Handle) Separate(group []netip.Addr) {
	if n, ok := h.get(); ok {
		n.topology.separate(group)
	}
}

// Repair adds a link between every ordered pair within group.
func (h *Handle) Repair(group []netip.Addr) {
	if n, ok := h.get(); ok {
		n.topology.repair(group)
	}
}

// RepairAll restores a full mesh over every registered node.
func (h *Handle) RepairAll() {
	if n, ok := h.get(); ok {
		n.topology.repairAll()
	}
}

// RegisterUDPSocket inserts a weak reference to state at its local
// address, failing with ErrAddrInUse if a live entry already occupies it.
func (h *Handle) RegisterUDPSocket(state *UDPSocketState) error {
	n, ok := h.get()
	if !ok {
		return opErr("register", state.LocalAddr(), ErrAddrNotAvailable)
	}
	if err := n.registry.registerUDP(state); err != nil {
		return opErr("register", state.LocalAddr(), err)
	}
	return nil
}

// DeregisterSocket removes the registry entry at addr.
func (h *Handle) DeregisterSocket(addr netip.AddrPort) {
	if n, ok := h.get(); ok {
		n.registry.deregister(addr)
	}
}

// SendUDPPacket attempts to deliver payload from from to to. It returns
// whether the datagram was dropped; a successful (non-dropped) call merely
// means a delivery event was scheduled, not that the receiver has accepted
// it yet (that happens at AdvanceToTime, and can still overflow the
// receiver's buffer).
func (h *Handle) SendUDPPacket(from, to netip.AddrPort, payload []byte) bool {
	n, ok := h.get()
	if !ok {
		return true
	}

	if _, alive := n.registry.lookupUDP(from); !alive {
		logger.Panicf("netsim: send from unregistered/dead socket %v", from)
	}

	if _, alive := n.registry.lookupUDP(to); !alive {
		n.traceDrop(from, to, payload, "no receiver")
		return true
	}

	if from != to && n.rng.DropRoll() < n.cfg.DropRate {
		n.traceDrop(from, to, payload, "random drop")
		return true
	}

	hops, reachable := n.topology.hops(from.Addr(), to.Addr())
	if !reachable {
		n.traceDrop(from, to, payload, "no route")
		return true
	}

	delay := n.cfg.MinDelayNanos + int64(n.rng.DelayFraction()*float64(n.cfg.MaxDelayNanos-n.cfg.MinDelayNanos))
	totalDelay := delay * int64(hops)
	ts := n.now + timedriver.Timestamp(totalDelay)

	d := Datagram{From: from, To: to, Payload: append([]byte(nil), payload...)}
	n.events.add(ts, d)
	if n.trace != nil {
		n.trace.record(TraceEntry{Timestamp: ts, From: from, To: to, Payload: d.Payload})
	}
	return false
}

func (n *Network) traceDrop(from, to netip.AddrPort, payload []byte, reason string) {
	n.traceDropAt(n.now, Datagram{From: from, To: to, Payload: payload}, reason)
}

func (n *Network) traceDropAt(ts timedriver.Timestamp, d Datagram, reason string) {
	if n.trace == nil {
		return
	}
	n.trace.record(TraceEntry{
		Timestamp: ts,
		From:      d.From,
		To:        d.To,
		Dropped:   true,
		Reason:    reason,
		Payload:   append([]byte(nil), d.Payload...),
	})
}

// NextEventTimestamp returns the timestamp of the earliest pending
// delivery event.
func (h *Handle) NextEventTimestamp() (timedriver.Timestamp, bool) {
	n, ok := h.get()
	if !ok {
		return 0, false
	}
	return n.events.nextTimestamp()
}

// AdvanceToTime pops and delivers every scheduled event due at or before
// target, then advances the network's own clock to target. A receiver that
// deregistered between scheduling and delivery, or whose receive buffer is
// full, drops the datagram here rather than at send time; both are traced
// the same as any other drop.
func (h *Handle) AdvanceToTime(target timedriver.Timestamp) {
	n, ok := h.get()
	if !ok {
		return
	}
	if target < n.now {
		return
	}
	for {
		ts, has := n.events.nextTimestamp()
		if !has || ts > target {
			break
		}
		evt := n.events.popNext()
		d := evt.datagram
		state, alive := n.registry.lookupUDP(d.To)
		if !alive {
			n.traceDropAt(ts, d, "receiver gone before delivery")
			continue
		}
		if !state.deliver(d) {
			n.traceDropAt(ts, d, "receive buffer full")
		}
	}
	n.now = target
}

// Now returns the network's current virtual time.
func (h *Handle) Now() timedriver.Timestamp {
	n, ok := h.get()
	if !ok {
		return 0
	}
	return n.now
}
