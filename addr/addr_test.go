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

package addr

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddrPortIdentity(t *testing.T) {
	ap := netip.MustParseAddrPort("127.0.0.1:8080")
	got, err := AddrPort(ap).ToSocketAddrs()
	require.NoError(t, err)
	assert.Equal(t, []netip.AddrPort{ap}, got)
}

func TestHostPortV4(t *testing.T) {
	got, err := HostPort{Addr: netip.MustParseAddr("10.13.1.1"), Port: 12345}.ToSocketAddrs()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "10.13.1.1", got[0].Addr().String())
	assert.Equal(t, uint16(12345), got[0].Port())
}

func TestHostPortV6(t *testing.T) {
	got, err := HostPort{
		Addr: netip.MustParseAddr("2001:db8:85a3::8a2e:370:7334"),
		Port: 54321,
	}.ToSocketAddrs()
	require.NoError(t, err)
	assert.Equal(t, uint16(54321), got[0].Port())
}

func TestStringHostPortLiteralIP(t *testing.T) {
	got, err := StringHostPort{Host: "1.1.1.1", Port: 123}.ToSocketAddrs()
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1:123", got[0].String())
}

func TestStringHostPortRejectsHostname(t *testing.T) {
	_, err := StringHostPort{Host: "localhost", Port: 123}.ToSocketAddrs()
	assert.ErrorIs(t, err, ErrDNSNotSupported)
}

func TestLiteralParsesFullAddress(t *testing.T) {
	got, err := Literal("1.1.1.1:123").ToSocketAddrs()
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1:123", got[0].String())
}

func TestLiteralRejectsHostname(t *testing.T) {
	_, err := Literal("localhost:123").ToSocketAddrs()
	assert.ErrorIs(t, err, ErrDNSNotSupported)
}

func TestManyPreservesOrder(t *testing.T) {
	a := netip.MustParseAddrPort("1.1.1.1:1024")
	b := netip.MustParseAddrPort("1.1.1.2:1025")
	got, err := Many{a, b}.ToSocketAddrs()
	require.NoError(t, err)
	assert.Equal(t, []netip.AddrPort{a, b}, got)
}

func TestResolveWrapsConvertible(t *testing.T) {
	got, err := Resolve(Literal("1.1.1.1:123"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
