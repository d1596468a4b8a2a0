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

// Package sim is the top-level simulation driver: it owns the network and
// every node added to it, and drives them forward in the deterministic
// order the rest of the system depends on.
package sim

import (
	"net/netip"
	"sort"

	"github.com/google/uuid"
	"github.com/vnetsim/vnetsim/netsim"
	"github.com/vnetsim/vnetsim/node"
	"github.com/vnetsim/vnetsim/visualize"
	"golang.org/x/exp/maps"
)

// Sim strongly owns the network and every node added to it; everything
// outside this package reaches either through a weak netsim.Handle or a
// node.Handle.
type Sim struct {
	runID     uuid.UUID
	network   *netsim.Network
	netHandle *netsim.Handle
	nodes     map[netip.Addr]*node.Node
	handles   map[netip.Addr]*node.Handle
	trace     *netsim.Trace
	tracePos  int
	observer  visualize.Observer
}

// New constructs a Sim with a fresh network seeded for deterministic
// drop/delay sampling, default delay/drop parameters, and no nodes. The
// observer defaults to visualize.NopObserver; attach a real one with
// SetObserver before adding any nodes.
func New(seed uint64) *Sim {
	return NewWithConfig(seed, netsim.DefaultConfig())
}

// NewWithConfig is New with explicit network parameters, for callers that
// need a delay window or drop rate other than the defaults (a test that
// must observe every datagram sets DropRate to zero, for example).
func NewWithConfig(seed uint64, cfg netsim.Config) *Sim {
	net := netsim.New(seed, cfg)
	return &Sim{
		runID:     uuid.New(),
		network:   net,
		netHandle: netsim.NewHandle(net),
		nodes:     make(map[netip.Addr]*node.Node),
		handles:   make(map[netip.Addr]*node.Handle),
		observer:  visualize.NopObserver{},
	}
}

// SetObserver replaces the sim's observer, calling Stop on the previous one
// and Run on the new one. It is typically called once, right after New.
func (s *Sim) SetObserver(o visualize.Observer) {
	if o == nil {
		o = visualize.NopObserver{}
	}
	s.observer.Stop()
	s.observer = o
	s.observer.Run()
}

// RunID identifies this simulation run, for log correlation.
func (s *Sim) RunID() uuid.UUID { return s.runID }

// EnableTrace starts recording every send decision the network makes to an
// in-memory Trace, returning it so a caller can inspect Entries() later
// (e.g. to assert the trace is bitwise identical across two runs of the
// same seed and script). Calling it more than once replaces the prior
// Trace.
func (s *Sim) EnableTrace() *netsim.Trace {
	t := netsim.NewTrace()
	s.trace = t
	s.netHandle.SetTrace(t)
	return t
}

// EnablePcapTrace is EnableTrace plus mirroring the same stream to a real
// pcap capture file at path. The vnetsim command has no flag that calls it.
func (s *Sim) EnablePcapTrace(path string) (*netsim.Trace, error) {
	t := s.EnableTrace()
	if err := t.EnablePcap(path); err != nil {
		return nil, err
	}
	return t, nil
}

// Trace returns the Trace enabled by EnableTrace/EnablePcapTrace, or nil if
// tracing was never enabled.
func (s *Sim) Trace() *netsim.Trace { return s.trace }

// Close shuts down every node (aborting their unfinished tasks), stops the
// observer, and releases any resources tracing may have opened (e.g. a
// pcap file).
func (s *Sim) Close() error {
	for _, n := range s.nodes {
		n.Shutdown()
	}
	s.observer.Stop()
	if s.trace == nil {
		return nil
	}
	return s.trace.Close()
}

// NetworkHandle returns a weak handle to the shared network. It also
// satisfies node.simHost, letting Builder.Build wire a new node to this
// Sim's network without this package needing to be imported by node.
func (s *Sim) NetworkHandle() *netsim.Handle { return s.netHandle }

// Insert adds n under ip if no node is already registered there, wires it
// into the topology, and returns its Handle. Insert satisfies the other
// half of node.simHost; AddNode is the public entry point for callers that
// already built a *node.Node directly rather than through a Builder.
func (s *Sim) Insert(ip netip.Addr, n *node.Node) (*node.Handle, bool) {
	if _, exists := s.nodes[ip]; exists {
		return nil, false
	}
	s.nodes[ip] = n
	s.netHandle.RegisterNode(ip)
	h := node.NewHandle(n)
	s.handles[ip] = h
	s.observer.NodeAdded(ip)
	return h, true
}

// Separate partitions group from the rest of the topology and notifies the
// observer. Equivalent to Network().Separate(group) plus the notification;
// either form is safe to call.
func (s *Sim) Separate(group []netip.Addr) {
	s.netHandle.Separate(group)
	s.observer.Partitioned(group)
}

// Repair restores every link within group and notifies the observer.
func (s *Sim) Repair(group []netip.Addr) {
	s.netHandle.Repair(group)
	s.observer.Repaired(group)
}

// RepairAll restores a full mesh over every registered node and notifies
// the observer.
func (s *Sim) RepairAll() {
	s.netHandle.RepairAll()
	s.observer.RepairedAll()
}

// AddNode inserts n by its IP if no node is already registered there,
// registering the IP with the topology. A duplicate IP returns (nil,
// false) rather than replacing the existing node.
func (s *Sim) AddNode(n *node.Node) (*node.Handle, bool) {
	return s.Insert(n.IP(), n)
}

// Node looks up a previously added node's handle by address.
func (s *Sim) Node(addr netip.Addr) (*node.Handle, bool) {
	h, ok := s.handles[addr]
	return h, ok
}

// Network returns the shared network's weak handle.
func (s *Sim) Network() *netsim.Handle { return s.netHandle }

// MakeSteps repeatedly visits every node in ascending IP order, driving
// each to exhaustion with an unbounded make_steps; if any node advanced on
// a pass, it loops again. It terminates when a full pass makes zero
// progress, and returns the total number of steps taken across every node
// and every pass. Visiting nodes in a fixed, address-sorted order (rather
// than map iteration order) is what makes the interleaving deterministic
// for a given seed and node-add sequence.
func (s *Sim) MakeSteps() int {
	addrs := maps.Keys(s.handles)
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })

	total := 0
	for {
		progressed := 0
		for _, ip := range addrs {
			progressed += s.handles[ip].MakeSteps(-1)
		}
		total += progressed
		s.drainTrace()
		if progressed == 0 {
			return total
		}
	}
}

// drainTrace forwards every Trace entry recorded since the last call to the
// observer, in order. A no-op if tracing was never enabled.
func (s *Sim) drainTrace() {
	if s.trace == nil {
		return
	}
	entries := s.trace.Entries()
	for _, e := range entries[s.tracePos:] {
		s.observer.Delivery(e)
	}
	s.tracePos = len(entries)
}
