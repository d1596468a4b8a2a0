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

package netsim

import (
	"net/netip"

	"github.com/vnetsim/vnetsim/logger"
)

// topology is a directed-link set over registered node IPs. It deliberately
// models only one-hop reachability: hops() answers 0, 1, or "unreachable",
// never routes through an intermediate node.
type topology struct {
	nodes map[netip.Addr]struct{}
	links map[netip.Addr]map[netip.Addr]struct{}
}

func newTopology() *topology {
	return &topology{
		nodes: make(map[netip.Addr]struct{}),
		links: make(map[netip.Addr]map[netip.Addr]struct{}),
	}
}

func (t *topology) registerNode(ip netip.Addr) {
	_, already := t.nodes[ip]
	logger.AssertFalse(already, "node already registered: %v", ip)

	t.nodes[ip] = struct{}{}
	t.links[ip] = map[netip.Addr]struct{}{ip: {}}
	for other := range t.nodes {
		if other == ip {
			continue
		}
		t.link(ip, other)
		t.link(other, ip)
	}
}

func (t *topology) link(from, to netip.Addr) {
	if t.links[from] == nil {
		t.links[from] = make(map[netip.Addr]struct{})
	}
	t.links[from][to] = struct{}{}
}

func (t *topology) unlink(from, to netip.Addr) {
	delete(t.links[from], to)
}

func (t *topology) isRegistered(ip netip.Addr) bool {
	_, ok := t.nodes[ip]
	return ok
}

// separate removes links between every node in group and every node
// outside group, in both directions. Links within group, and among nodes
// outside group, are left untouched.
func (t *topology) separate(group []netip.Addr) {
	inGroup := make(map[netip.Addr]struct{}, len(group))
	for _, ip := range group {
		logger.AssertTrue(t.isRegistered(ip), "separate: unregistered node %v", ip)
		inGroup[ip] = struct{}{}
	}
	for _, s := range group {
		for o := range t.nodes {
			if _, ok := inGroup[o]; ok {
				continue
			}
			t.unlink(s, o)
			t.unlink(o, s)
		}
	}
}

// repair adds a link for every ordered pair within group.
func (t *topology) repair(group []netip.Addr) {
	for _, a := range group {
		logger.AssertTrue(t.isRegistered(a), "repair: unregistered node %v", a)
	}
	for _, a := range group {
		for _, b := range group {
			t.link(a, b)
		}
	}
}

// repairAll restores a full mesh over every registered node.
func (t *topology) repairAll() {
	for a := range t.nodes {
		for b := range t.nodes {
			t.link(a, b)
		}
	}
}

// hops returns the one-hop distance between from and to: 0 if equal, 1 if
// directly linked, or (0, false) if either is unregistered or unreachable.
func (t *topology) hops(from, to netip.Addr) (int, bool) {
	if !t.isRegistered(from) || !t.isRegistered(to) {
		return 0, false
	}
	if from == to {
		return 0, true
	}
	if _, ok := t.links[from][to]; ok {
		return 1, true
	}
	return 0, false
}
