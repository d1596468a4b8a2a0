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
	"fmt"
	"net/netip"
)

// OpError is the simulator's user-facing error shape, deliberately mirroring
// the standard library's net.OpError: callers that already know how to
// handle a real net.OpError (via errors.As and a switch on Err) get the
// same shape here.
type OpError struct {
	Op   string
	Addr netip.AddrPort
	Err  error
}

func (e *OpError) Error() string {
	if e.Addr.IsValid() {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

type simpleError string

func (e simpleError) Error() string { return string(e) }

var (
	// ErrInvalidInput is returned for disallowed addresses: multicast, or
	// unspecified where a concrete address is required. A hostname is not
	// reported with this error: address conversion rejects it with
	// addr.ErrDNSNotSupported, which udpsocket.Bind, Socket.SendTo and
	// node.Builder.WithIP return unchanged.
	ErrInvalidInput = simpleError("invalid input")
	// ErrAddrInUse is returned when a bind candidate's address is already
	// registered to a live socket.
	ErrAddrInUse = simpleError("address already in use")
	// ErrAddrNotAvailable is returned when an address cannot be resolved
	// to any usable candidate.
	ErrAddrNotAvailable = simpleError("address not available")
)

func opErr(op string, addr netip.AddrPort, err error) error {
	return &OpError{Op: op, Addr: addr, Err: err}
}
