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

import "net/netip"

// Datagram is a pure value: the sender, receiver, and payload bytes of one
// UDP send. It is cloned into a receive buffer at delivery time, never
// shared, so a caller mutating a payload slice after sending cannot affect
// what the receiver observes.
type Datagram struct {
	From    netip.AddrPort
	To      netip.AddrPort
	Payload []byte
}

// datagramBuffer is a bounded FIFO of datagrams with a running byte total.
// Insertion is rejected outright (the datagram is just dropped) if it would
// push the running total over capacity; nothing is ever partially
// admitted.
type datagramBuffer struct {
	capacity int
	total    int
	q        []Datagram
}

func newDatagramBuffer(capacity int) *datagramBuffer {
	return &datagramBuffer{capacity: capacity}
}

// add returns whether the datagram was admitted.
func (b *datagramBuffer) add(d Datagram) bool {
	if b.total+len(d.Payload) > b.capacity {
		return false
	}
	b.q = append(b.q, d)
	b.total += len(d.Payload)
	return true
}

// take pops the front datagram, if any.
func (b *datagramBuffer) take() (Datagram, bool) {
	if len(b.q) == 0 {
		return Datagram{}, false
	}
	d := b.q[0]
	b.q = b.q[1:]
	b.total -= len(d.Payload)
	return d, true
}
