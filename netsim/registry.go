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
	"weak"
)

// protocol tags a registry entry as carrying a live UDP socket, or as a
// reservation for a protocol this simulator doesn't otherwise model. TCP
// reservation exists so a future transport can claim the address space
// without colliding with UDP binds; this module never creates one itself.
type protocol int

const (
	protoUDP protocol = iota
	protoTCPReserved
)

type registryEntry struct {
	kind protocol
	udp  weak.Pointer[UDPSocketState]
}

func (e registryEntry) alive() bool {
	switch e.kind {
	case protoUDP:
		return e.udp.Value() != nil
	default:
		return true
	}
}

// socketRegistry maps a socket address to at most one live entry. A
// registration whose weak reference has been collected counts as absent on
// lookup, even though the map entry itself may not yet have been swept;
// exactly the "dead weak references may still appear; they count as
// absent" invariant from the data model.
type socketRegistry struct {
	entries map[netip.AddrPort]registryEntry
}

func newSocketRegistry() *socketRegistry {
	return &socketRegistry{entries: make(map[netip.AddrPort]registryEntry)}
}

// registerUDP inserts a weak reference to state at its local address,
// failing if a live entry already occupies that address.
func (r *socketRegistry) registerUDP(state *UDPSocketState) error {
	addr := state.LocalAddr()
	if e, ok := r.entries[addr]; ok && e.alive() {
		return ErrAddrInUse
	}
	r.entries[addr] = registryEntry{kind: protoUDP, udp: weak.Make(state)}
	return nil
}

// deregister removes the entry at addr. The entry must exist; callers only
// ever deregister an address they themselves registered.
func (r *socketRegistry) deregister(addr netip.AddrPort) {
	delete(r.entries, addr)
}

// lookupUDP returns the live UDP socket state at addr, if any.
func (r *socketRegistry) lookupUDP(addr netip.AddrPort) (*UDPSocketState, bool) {
	e, ok := r.entries[addr]
	if !ok || e.kind != protoUDP {
		return nil, false
	}
	s := e.udp.Value()
	if s == nil {
		delete(r.entries, addr)
		return nil, false
	}
	return s, true
}
