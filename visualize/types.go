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

// Package visualize defines the observer interface the simulation driver
// notifies as it runs, and the two concrete observers this module ships: a
// no-op default and a structured-logging one. The event set covers what
// the simulator actually produces: node membership, topology edits, and
// datagram delivery decisions.
package visualize

import (
	"net/netip"

	"github.com/vnetsim/vnetsim/netsim"
)

// Observer receives notifications from a running sim.Sim. Implementations
// must not block: they are called synchronously from the simulation
// driver's own goroutine between steps.
type Observer interface {
	// Run is called once, when the observer is attached with SetObserver.
	Run()
	// Stop is called once, when the observer is replaced by another
	// SetObserver call or the owning Sim is closed.
	Stop()
	// NodeAdded reports that a node was registered at ip.
	NodeAdded(ip netip.Addr)
	// Partitioned reports a Separate(group) call.
	Partitioned(group []netip.Addr)
	// Repaired reports a Repair(group) call.
	Repaired(group []netip.Addr)
	// RepairedAll reports a RepairAll() call.
	RepairedAll()
	// Delivery reports one network send decision (delivered or dropped),
	// in the order the network made the decision.
	Delivery(entry netsim.TraceEntry)
}
