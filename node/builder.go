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
	"net/netip"

	"github.com/vnetsim/vnetsim/addr"
	"github.com/vnetsim/vnetsim/netsim"
)

// Builder assembles a Node's immutable Info before it is added to a
// simulation. The zero value is not usable; create one with NewBuilder.
type Builder struct {
	info Info
	err  error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithIP resolves ip and sets it as the node's address, rejecting loopback,
// multicast, and unspecified addresses: a node needs a concrete, routable
// identity. Any resolution or validation failure is returned by WithIP and
// also recorded on the Builder, so a later Build returns (nil, false).
func (b *Builder) WithIP(ip addr.Convertible) (*Builder, error) {
	candidates, err := ip.ToSocketAddrs()
	if err != nil {
		b.err = err
		return b, err
	}
	if len(candidates) == 0 {
		b.err = netsim.ErrAddrNotAvailable
		return b, b.err
	}
	a := candidates[0].Addr()
	if a.IsLoopback() || a.IsMulticast() || a.IsUnspecified() {
		b.err = netsim.ErrInvalidInput
		return b, b.err
	}
	b.info.IP = a
	return b, nil
}

// UDPSendBufferSize sets the maximum payload length a SendTo will write
// before truncating.
func (b *Builder) UDPSendBufferSize(n int) *Builder {
	b.info.UDPSendBufferSize = n
	return b
}

// UDPRecvBufferSize sets the receive buffer's byte capacity.
func (b *Builder) UDPRecvBufferSize(n int) *Builder {
	b.info.UDPRecvBufferSize = n
	return b
}

// simHost is what Build needs from a simulation: a place to register the
// finished node and obtain the network handle it should be wired to. Only
// *sim.Sim implements this in practice; the interface exists purely so
// this package need not import sim (which imports node), avoiding a cycle.
type simHost interface {
	NetworkHandle() *netsim.Handle
	Insert(ip netip.Addr, n *Node) (*Handle, bool)
}

// Build constructs the Node and adds it to host, returning its Handle and
// true on success. It returns (nil, false) if the Builder recorded an
// error from WithIP, or if host already has a node at this address.
func (b *Builder) Build(host simHost) (*Handle, bool) {
	if b.err != nil || !b.info.IP.IsValid() {
		return nil, false
	}
	n := New(b.info, host.NetworkHandle())
	return host.Insert(b.info.IP, n)
}
