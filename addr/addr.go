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

// Package addr converts the handful of address shapes the simulator's API
// accepts (a netip.AddrPort, an (addr, port) pair, a literal "host:port"
// string, or a slice of addresses) into a canonical list of netip.AddrPort
// values. Each accepted shape maps to one implementation of Convertible
// below. There is no name resolution: a host that is not a literal IP is
// rejected outright, never looked up.
package addr

import (
	"net/netip"

	"github.com/pkg/errors"
)

// ErrDNSNotSupported is returned whenever a candidate host string is not a
// literal IP address. The simulator never performs name resolution.
var ErrDNSNotSupported = errors.New("vnetsim: DNS is not supported")

// Convertible is anything that can be turned into one or more socket
// addresses. The caller tries each returned address in order and takes the
// first that succeeds.
type Convertible interface {
	ToSocketAddrs() ([]netip.AddrPort, error)
}

// AddrPort is the identity conversion: a single already-resolved address.
type AddrPort netip.AddrPort

func (a AddrPort) ToSocketAddrs() ([]netip.AddrPort, error) {
	return []netip.AddrPort{netip.AddrPort(a)}, nil
}

// HostPort pairs a literal IP (as a netip.Addr) with a port.
type HostPort struct {
	Addr netip.Addr
	Port uint16
}

func (h HostPort) ToSocketAddrs() ([]netip.AddrPort, error) {
	if !h.Addr.IsValid() {
		return nil, errors.Wrap(ErrDNSNotSupported, "invalid address")
	}
	return []netip.AddrPort{netip.AddrPortFrom(h.Addr, h.Port)}, nil
}

// StringHostPort pairs a host string with a port. The host must parse as a
// literal IPv4 or IPv6 address; anything else (a hostname) is rejected.
type StringHostPort struct {
	Host string
	Port uint16
}

func (s StringHostPort) ToSocketAddrs() ([]netip.AddrPort, error) {
	a, err := netip.ParseAddr(s.Host)
	if err != nil {
		return nil, ErrDNSNotSupported
	}
	return []netip.AddrPort{netip.AddrPortFrom(a, s.Port)}, nil
}

// Literal is a single "host:port" string, e.g. "10.0.0.1:8080" or
// "[::1]:8080". Like StringHostPort, only literal IP hosts are accepted.
type Literal string

func (l Literal) ToSocketAddrs() ([]netip.AddrPort, error) {
	ap, err := netip.ParseAddrPort(string(l))
	if err != nil {
		return nil, ErrDNSNotSupported
	}
	return []netip.AddrPort{ap}, nil
}

// Many tries each address in the slice in order; used by callers that
// already hold a resolved candidate list (e.g. a DNS-free round-robin
// bind list assembled ahead of time).
type Many []netip.AddrPort

func (m Many) ToSocketAddrs() ([]netip.AddrPort, error) {
	out := make([]netip.AddrPort, len(m))
	copy(out, m)
	return out, nil
}

// Resolve runs c's conversion and is just a readability wrapper around
// calling ToSocketAddrs directly.
func Resolve(c Convertible) ([]netip.AddrPort, error) {
	return c.ToSocketAddrs()
}
