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

// Package udpsocket implements the simulated UDP socket: bind, send,
// and cooperative receive, layered on node.Handle and netsim.Handle.
package udpsocket

import (
	"context"
	"net/netip"

	"github.com/vnetsim/vnetsim/addr"
	"github.com/vnetsim/vnetsim/netsim"
	"github.com/vnetsim/vnetsim/node"
	"github.com/vnetsim/vnetsim/task"
)

// Socket is a bound UDP socket on the node that is "current" in ctx at
// Bind time. It strongly owns its receive-side state. Only Close returns
// the bound port to the node: a Socket dropped without Close keeps its port
// taken, while its registry entry stops resolving once the state is
// collected, since the network's registry holds a weak reference.
type Socket struct {
	owner *node.Handle
	state *netsim.UDPSocketState
	local netip.AddrPort
}

// Bind resolves target against the node current in ctx and attempts each
// candidate in turn: multicast candidates are skipped, loopback and
// unspecified addresses are rewritten to the node's own IP, any other
// address that still isn't the node's own IP is skipped, and port 0 means
// "any free port". The first candidate whose port allocation and network
// registration both succeed wins. Bind fails with AddrInUse if every
// candidate is exhausted.
func Bind(ctx context.Context, target addr.Convertible) (*Socket, error) {
	h := node.Current(ctx)

	candidates, err := target.ToSocketAddrs()
	if err != nil {
		return nil, err
	}

	for _, cand := range candidates {
		ip := cand.Addr()
		if ip.IsMulticast() {
			continue
		}
		if ip.IsUnspecified() || ip.IsLoopback() {
			ip = h.IP()
		}
		if ip != h.IP() {
			continue
		}

		var allocated uint16
		var ok bool
		if port := cand.Port(); port != 0 {
			allocated, ok = h.TakePort(&port)
		} else {
			allocated, ok = h.TakePort(nil)
		}
		if !ok {
			continue
		}

		local := netip.AddrPortFrom(ip, allocated)
		state := netsim.NewUDPSocketState(local, h.Info().UDPRecvBufferSize)
		if err := h.Network().RegisterUDPSocket(state); err != nil {
			h.ReturnPort(allocated)
			continue
		}

		return &Socket{owner: h, state: state, local: local}, nil
	}

	return nil, netsim.ErrAddrInUse
}

// LocalAddr returns the address this socket is bound to.
func (s *Socket) LocalAddr() netip.AddrPort { return s.local }

// SendTo resolves target, takes its first candidate, rejects multicast and
// unspecified destinations, rewrites loopback to the owning node's IP,
// truncates payload to the node's send-buffer size, and hands the result
// to the network. It always returns the truncated length on success,
// regardless of whether the network ultimately drops the datagram:
// send-and-forget never reports delivery failure to the sender.
func (s *Socket) SendTo(payload []byte, target addr.Convertible) (int, error) {
	candidates, err := target.ToSocketAddrs()
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, netsim.ErrAddrNotAvailable
	}

	dest := candidates[0]
	ip := dest.Addr()
	if ip.IsMulticast() || ip.IsUnspecified() {
		return 0, netsim.ErrInvalidInput
	}
	if ip.IsLoopback() {
		ip = s.owner.IP()
	}
	dest = netip.AddrPortFrom(ip, dest.Port())

	sendLimit := s.owner.Info().UDPSendBufferSize
	data := payload
	if len(data) > sendLimit {
		data = data[:sendLimit]
	}

	s.owner.Network().SendUDPPacket(s.local, dest, data)
	return len(data), nil
}

// RecvFrom suspends the calling task until a datagram is available, then
// copies at most len(buf) bytes of its payload into buf (discarding any
// remainder) and returns the copied length and the sender.
func (s *Socket) RecvFrom(ctx context.Context, buf []byte) (int, netip.AddrPort, error) {
	for {
		if n, from, ok := s.state.TryRecv(buf); ok {
			return n, from, nil
		}
		task.Park(ctx, func(w *task.Waker) {
			s.state.RegisterWaiter(w)
		})
	}
}

// Close returns the bound port to the node's free-port set and deregisters
// the socket from the network. It is not idempotent: a socket must be
// closed exactly once.
func (s *Socket) Close() {
	s.owner.ReturnPort(s.local.Port())
	s.owner.Network().DeregisterSocket(s.local)
}
