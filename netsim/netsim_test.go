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
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vnetsim/vnetsim/timedriver"
)

func addrPort(t *testing.T, s string) netip.AddrPort {
	t.Helper()
	return netip.MustParseAddrPort(s)
}

func TestRegisterAndSendLoopbackZeroDelay(t *testing.T) {
	net := New(123, DefaultConfig())
	h := NewHandle(net)

	ip := netip.MustParseAddr("10.0.0.1")
	h.RegisterNode(ip)

	a := addrPort(t, "10.0.0.1:1000")
	state := NewUDPSocketState(a, 4096)
	require.NoError(t, h.RegisterUDPSocket(state))

	dropped := h.SendUDPPacket(a, a, []byte("hi"))
	assert.False(t, dropped)

	ts, ok := h.NextEventTimestamp()
	require.True(t, ok)
	assert.Equal(t, timedriver.Timestamp(0), ts, "loopback must have zero delay")

	h.AdvanceToTime(0)
	n, from, ok := state.TryRecv(make([]byte, 16))
	require.True(t, ok)
	assert.Equal(t, a, from)
	assert.Equal(t, 2, n)
}

func TestSendToDeadReceiverDrops(t *testing.T) {
	net := New(1, DefaultConfig())
	h := NewHandle(net)

	ipA := netip.MustParseAddr("10.0.0.1")
	ipB := netip.MustParseAddr("10.0.0.2")
	h.RegisterNode(ipA)
	h.RegisterNode(ipB)

	a := addrPort(t, "10.0.0.1:1000")
	b := addrPort(t, "10.0.0.2:2000")
	stateA := NewUDPSocketState(a, 4096)
	require.NoError(t, h.RegisterUDPSocket(stateA))

	dropped := h.SendUDPPacket(a, b, []byte("x"))
	assert.True(t, dropped, "send to an address with no live socket must drop")
	runtime.KeepAlive(stateA) // the registry only holds it weakly
}

func TestSendAcrossPartitionDrops(t *testing.T) {
	net := New(321, DefaultConfig())
	net.cfg.DropRate = 0 // isolate the partition behavior from random drop
	h := NewHandle(net)

	ipA := netip.MustParseAddr("10.0.0.1")
	ipB := netip.MustParseAddr("10.0.0.2")
	h.RegisterNode(ipA)
	h.RegisterNode(ipB)
	h.Separate([]netip.Addr{ipA})

	a := addrPort(t, "10.0.0.1:1000")
	b := addrPort(t, "10.0.0.2:2000")
	stateA := NewUDPSocketState(a, 4096)
	stateB := NewUDPSocketState(b, 4096)
	require.NoError(t, h.RegisterUDPSocket(stateA))
	require.NoError(t, h.RegisterUDPSocket(stateB))

	dropped := h.SendUDPPacket(a, b, []byte("x"))
	assert.True(t, dropped, "partitioned nodes must not reach each other")

	h.Repair([]netip.Addr{ipA, ipB})
	dropped = h.SendUDPPacket(a, b, []byte("x"))
	assert.False(t, dropped, "repaired nodes must reach each other again")
	runtime.KeepAlive(stateA)
	runtime.KeepAlive(stateB)
}

func TestRegisterUDPSocketRejectsDuplicateLiveAddress(t *testing.T) {
	net := New(1, DefaultConfig())
	h := NewHandle(net)
	ip := netip.MustParseAddr("10.0.0.1")
	h.RegisterNode(ip)

	a := addrPort(t, "10.0.0.1:1000")
	s1 := NewUDPSocketState(a, 4096)
	require.NoError(t, h.RegisterUDPSocket(s1))

	s2 := NewUDPSocketState(a, 4096)
	err := h.RegisterUDPSocket(s2)
	assert.ErrorIs(t, err, ErrAddrInUse)
	runtime.KeepAlive(s1)
}

func TestDeregisterFreesAddressForReuse(t *testing.T) {
	net := New(1, DefaultConfig())
	h := NewHandle(net)
	ip := netip.MustParseAddr("10.0.0.1")
	h.RegisterNode(ip)

	a := addrPort(t, "10.0.0.1:1000")
	s1 := NewUDPSocketState(a, 4096)
	require.NoError(t, h.RegisterUDPSocket(s1))
	h.DeregisterSocket(a)

	s2 := NewUDPSocketState(a, 4096)
	assert.NoError(t, h.RegisterUDPSocket(s2))
}

func TestDatagramBufferRejectsOverflow(t *testing.T) {
	b := newDatagramBuffer(4)
	assert.True(t, b.add(Datagram{Payload: []byte("ab")}))
	assert.True(t, b.add(Datagram{Payload: []byte("cd")}))
	assert.False(t, b.add(Datagram{Payload: []byte("e")}), "must reject once capacity is exceeded")

	d, ok := b.take()
	require.True(t, ok)
	assert.Equal(t, "ab", string(d.Payload))
	assert.True(t, b.add(Datagram{Payload: []byte("ef")}), "freed capacity must be reusable")
}

func TestTopologyHopsAndSeparate(t *testing.T) {
	top := newTopology()
	a := netip.MustParseAddr("10.0.0.1")
	b := netip.MustParseAddr("10.0.0.2")
	c := netip.MustParseAddr("10.0.0.3")

	top.registerNode(a)
	top.registerNode(b)
	top.registerNode(c)

	h, ok := top.hops(a, a)
	require.True(t, ok)
	assert.Equal(t, 0, h)

	h, ok = top.hops(a, b)
	require.True(t, ok)
	assert.Equal(t, 1, h)

	top.separate([]netip.Addr{a})
	_, ok = top.hops(a, b)
	assert.False(t, ok)
	_, ok = top.hops(b, c)
	assert.True(t, ok, "non-group links must be untouched by separate")

	top.repairAll()
	_, ok = top.hops(a, b)
	assert.True(t, ok)
}

func TestHopsUnregisteredIsUnreachable(t *testing.T) {
	top := newTopology()
	a := netip.MustParseAddr("10.0.0.1")
	b := netip.MustParseAddr("10.0.0.2")
	top.registerNode(a)
	_, ok := top.hops(a, b)
	assert.False(t, ok)
}
