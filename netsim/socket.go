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
	"sync"

	"github.com/vnetsim/vnetsim/task"
)

// UDPSocketState is the shared state behind one bound UDP socket: its
// receive buffer and the set of tasks parked waiting for data. The owning
// udpsocket.Socket holds a strong reference; the network's socket registry
// holds only a weak one, so the socket's state disappears the moment the
// user-facing handle is dropped and collected, with no explicit close
// protocol required between the two.
type UDPSocketState struct {
	mu      sync.Mutex
	local   netip.AddrPort
	buf     *datagramBuffer
	waiters []*task.Waker
}

// NewUDPSocketState creates the receive-side state for a socket bound to
// local, with a receive buffer capacity of recvBufferSize bytes.
func NewUDPSocketState(local netip.AddrPort, recvBufferSize int) *UDPSocketState {
	return &UDPSocketState{
		local: local,
		buf:   newDatagramBuffer(recvBufferSize),
	}
}

// LocalAddr returns the address this socket state was bound to.
func (s *UDPSocketState) LocalAddr() netip.AddrPort {
	return s.local
}

// TryRecv copies at most len(buf) bytes from the oldest queued datagram
// into buf (discarding any remainder, per UDP semantics) and returns the
// copied length, the sender, and true, or false if no datagram is queued.
func (s *UDPSocketState) TryRecv(buf []byte) (int, netip.AddrPort, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.buf.take()
	if !ok {
		return 0, netip.AddrPort{}, false
	}
	n := copy(buf, d.Payload)
	return n, d.From, true
}

// RegisterWaiter parks w to be woken the next time a datagram is
// delivered. Multiple waiters may be registered; delivery wakes all of
// them, and whichever polls first takes the datagram.
func (s *UDPSocketState) RegisterWaiter(w *task.Waker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waiters = append(s.waiters, w)
}

// deliver enqueues d into the receive buffer (dropping it silently on
// overflow, per spec) and wakes every currently registered waiter. It
// returns whether the datagram was admitted.
func (s *UDPSocketState) deliver(d Datagram) bool {
	s.mu.Lock()
	admitted := s.buf.add(d)
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	for _, w := range waiters {
		w.Wake()
	}
	return admitted
}
