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

package sim

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vnetsim/vnetsim/addr"
	"github.com/vnetsim/vnetsim/netsim"
	"github.com/vnetsim/vnetsim/node"
	"github.com/vnetsim/vnetsim/task"
	"github.com/vnetsim/vnetsim/udpsocket"
)

func addNode(t *testing.T, s *Sim, ip string) *node.Handle {
	t.Helper()
	b, err := node.NewBuilder().WithIP(addr.Literal(ip + ":0"))
	require.NoError(t, err)
	h, ok := b.Build(s)
	require.True(t, ok)
	return h
}

func TestTwoNodeUDPExchange(t *testing.T) {
	// Drop rate zeroed so the single datagram is guaranteed through; random
	// loss itself is covered by TestDropRateConverges.
	cfg := netsim.DefaultConfig()
	cfg.DropRate = 0
	s := NewWithConfig(123, cfg)
	n1 := addNode(t, s, "10.12.1.1")
	n2 := addNode(t, s, "10.12.1.2")

	var gotLen int
	var gotFrom netip.AddrPort
	var gotPayload string

	n1.Spawn(func(ctx context.Context) error {
		sock, err := udpsocket.Bind(ctx, addr.Literal("10.12.1.1:123"))
		if err != nil {
			return err
		}
		buf := make([]byte, 64)
		n, from, err := sock.RecvFrom(ctx, buf)
		if err != nil {
			return err
		}
		gotLen, gotFrom, gotPayload = n, from, string(buf[:n])
		return nil
	})

	n2.Spawn(func(ctx context.Context) error {
		sock, err := udpsocket.Bind(ctx, addr.Literal("10.12.1.2:345"))
		if err != nil {
			return err
		}
		_, err = sock.SendTo([]byte("hello"), addr.Literal("10.12.1.1:123"))
		return err
	})

	s.MakeSteps()

	assert.Equal(t, 5, gotLen)
	assert.Equal(t, netip.MustParseAddrPort("10.12.1.2:345"), gotFrom)
	assert.Equal(t, "hello", gotPayload)
}

func TestLoopbackZeroDelay(t *testing.T) {
	s := New(123)
	n1 := addNode(t, s, "10.12.1.1")

	var gotLen int
	var gotFrom netip.AddrPort
	var gotPayload string

	n1.Spawn(func(ctx context.Context) error {
		sock, err := udpsocket.Bind(ctx, addr.Literal("0.0.0.0:80"))
		if err != nil {
			return err
		}
		if _, err := sock.SendTo([]byte("hello"), addr.Literal("127.0.0.1:80")); err != nil {
			return err
		}
		buf := make([]byte, 64)
		n, from, err := sock.RecvFrom(ctx, buf)
		if err != nil {
			return err
		}
		gotLen, gotFrom, gotPayload = n, from, string(buf[:n])
		return nil
	})

	s.MakeSteps()

	assert.Equal(t, 5, gotLen)
	assert.Equal(t, netip.MustParseAddrPort("10.12.1.1:80"), gotFrom)
	assert.Equal(t, "hello", gotPayload)
	assert.Equal(t, time.Duration(0), n1.Time())
}

func TestPartitionedDeliveryNeverArrives(t *testing.T) {
	s := New(321)
	n1 := addNode(t, s, "10.12.1.1")
	n2 := addNode(t, s, "10.13.1.1")
	s.Network().Separate([]netip.Addr{netip.MustParseAddr("10.12.1.1")})

	received := 0
	n1.Spawn(func(ctx context.Context) error {
		sock, err := udpsocket.Bind(ctx, addr.Literal("10.12.1.1:123"))
		if err != nil {
			return err
		}
		buf := make([]byte, 64)
		_, _, err = sock.RecvFrom(ctx, buf)
		received++
		return err
	})

	n2.Spawn(func(ctx context.Context) error {
		sock, err := udpsocket.Bind(ctx, addr.Literal("10.13.1.1:1"))
		if err != nil {
			return err
		}
		for i := 0; i < 1000; i++ {
			if _, err := sock.SendTo([]byte("hello"), addr.Literal("10.12.1.1:123")); err != nil {
				return err
			}
		}
		return nil
	})

	s.MakeSteps()

	assert.Equal(t, 0, received, "node1 must never complete recv_from across a partition")
}

func TestSleepAndNow(t *testing.T) {
	s := New(1)
	n1 := addNode(t, s, "10.0.0.1")

	var before, afterFirstSleep, afterSubtask time.Duration

	n1.Spawn(func(ctx context.Context) error {
		before = task.Now(ctx)
		if err := task.Sleep(ctx, 2*time.Second); err != nil {
			return err
		}
		afterFirstSleep = task.Now(ctx)

		sub := task.Spawn(ctx, func(ctx context.Context) error {
			if err := task.Sleep(ctx, 1*time.Second); err != nil {
				return err
			}
			afterSubtask = task.Now(ctx)
			return nil
		})
		v, err := task.Join(ctx, sub)
		if err != nil {
			return err
		}
		return v
	})

	s.MakeSteps()

	assert.Equal(t, time.Duration(0), before)
	assert.Equal(t, 2*time.Second, afterFirstSleep)
	assert.Equal(t, 3*time.Second, afterSubtask)
}

func TestCloseAbortsUnfinishedTasks(t *testing.T) {
	s := New(1)
	n1 := addNode(t, s, "10.0.0.1")

	h := n1.Spawn(func(ctx context.Context) error {
		sock, err := udpsocket.Bind(ctx, addr.Literal("10.0.0.1:1"))
		if err != nil {
			return err
		}
		buf := make([]byte, 16)
		_, _, err = sock.RecvFrom(ctx, buf) // parks forever, nothing sends
		return err
	})

	s.MakeSteps()
	_, _, ok := h.TryJoin()
	require.False(t, ok, "task must still be parked on recv")

	require.NoError(t, s.Close())

	_, err, ok := h.TryJoin()
	require.True(t, ok)
	assert.ErrorIs(t, err, task.ErrAborted)
}

func TestAutoPortAllocationExhaustion(t *testing.T) {
	s := New(1)
	n1 := addNode(t, s, "10.0.0.1")

	ports := make(map[uint16]bool)
	var exhaustedErr error

	n1.Spawn(func(ctx context.Context) error {
		for i := 0; i < 65535; i++ {
			sock, err := udpsocket.Bind(ctx, addr.Literal("0.0.0.0:0"))
			if err != nil {
				return err
			}
			ports[sock.LocalAddr().Port()] = true
		}
		_, exhaustedErr = udpsocket.Bind(ctx, addr.Literal("0.0.0.0:0"))
		return nil
	})

	s.MakeSteps()

	assert.Len(t, ports, 65535)
	for p := 1; p <= 65535; p++ {
		assert.True(t, ports[uint16(p)], "port %d must have been allocated", p)
	}
	assert.ErrorIs(t, exhaustedErr, netsim.ErrAddrInUse)
}

func TestDropRateConverges(t *testing.T) {
	s := New(123)
	// The receiver sits on the lower address so its bind runs before the
	// sender's burst: node passes go in ascending IP order.
	n1 := addNode(t, s, "10.0.0.1")
	n2 := addNode(t, s, "10.0.0.2")

	const n = 20000
	recvd := 0

	n1.Spawn(func(ctx context.Context) error {
		sock, err := udpsocket.Bind(ctx, addr.Literal("10.0.0.1:1"))
		if err != nil {
			return err
		}
		buf := make([]byte, 16)
		for {
			if _, _, err := sock.RecvFrom(ctx, buf); err != nil {
				return err
			}
			recvd++
		}
	})
	n2.Spawn(func(ctx context.Context) error {
		sock, err := udpsocket.Bind(ctx, addr.Literal("10.0.0.2:2"))
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if _, err := sock.SendTo([]byte("x"), addr.Literal("10.0.0.1:1")); err != nil {
				return err
			}
		}
		return nil
	})

	// n1's receive loop never exits on its own (it just parks again once
	// nothing more is pending), so MakeSteps terminates naturally once
	// every send has either been delivered or dropped and node1 is left
	// parked with nothing left to wake it.
	s.MakeSteps()

	dropped := n - recvd
	assert.InDelta(t, float64(n)*0.05, float64(dropped), float64(n)*0.02)
}
