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

// Package node implements one simulated host: its cooperative task runtime,
// its virtual clock, its free-port set, and a weak handle to the shared
// network it sends and receives through.
package node

import (
	"net/netip"

	"github.com/vnetsim/vnetsim/netsim"
	"github.com/vnetsim/vnetsim/task"
	"github.com/vnetsim/vnetsim/timedriver"
)

// Info is the immutable configuration of a node, fixed once it is built.
type Info struct {
	IP                netip.Addr
	UDPSendBufferSize int
	UDPRecvBufferSize int
}

// defaultUDPBufferSize matches common OS defaults closely enough for a
// simulated default; callers needing a specific size use Builder's setters.
const defaultUDPBufferSize = 64 * 1024

// Node is one simulated host's state: its own task runtime, its own
// virtual clock, its own free-port set, and a weak reference to the
// network it was built into. Node is strongly owned by the Sim that built
// it; everything that needs to reach it from outside goes through a
// Handle.
type Node struct {
	info    Info
	runtime *task.Runtime
	clock   *timedriver.TimeDriver
	ports   *portSet
	network *netsim.Handle
}

// New constructs a standalone Node with its own fresh runtime, clock, and
// free-port set. Used by Builder.Build, and directly by tests and by
// callers that then pass the Node to Sim.AddNode; net is the simulation's
// shared network, which New wires in as a weak reference.
func New(info Info, net *netsim.Handle) *Node {
	if info.UDPSendBufferSize <= 0 {
		info.UDPSendBufferSize = defaultUDPBufferSize
	}
	if info.UDPRecvBufferSize <= 0 {
		info.UDPRecvBufferSize = defaultUDPBufferSize
	}
	return &Node{
		info:    info,
		runtime: task.New(),
		clock:   timedriver.New(),
		ports:   newPortSet(),
		network: net,
	}
}

// IP returns the node's immutable address.
func (n *Node) IP() netip.Addr { return n.info.IP }

// Shutdown destroys every task still live on the node's runtime, so that
// anything joined on an unfinished task observes task.ErrAborted. Called by
// the owning simulation when it is closed; a node is never reused after.
func (n *Node) Shutdown() {
	n.runtime.Shutdown()
}
