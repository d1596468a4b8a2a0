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
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vnetsim/vnetsim/addr"
	"github.com/vnetsim/vnetsim/netsim"
	"github.com/vnetsim/vnetsim/task"
)

func newTestNetwork() *netsim.Handle {
	return netsim.NewHandle(netsim.New(1, netsim.DefaultConfig()))
}

func TestBuilderRejectsLoopback(t *testing.T) {
	_, err := NewBuilder().WithIP(addr.Literal("127.0.0.1:9000"))
	assert.ErrorIs(t, err, netsim.ErrInvalidInput)
}

func TestBuilderRejectsMulticast(t *testing.T) {
	_, err := NewBuilder().WithIP(addr.Literal("239.1.2.3:9000"))
	assert.ErrorIs(t, err, netsim.ErrInvalidInput)
}

func TestBuilderRejectsUnspecified(t *testing.T) {
	_, err := NewBuilder().WithIP(addr.Literal("0.0.0.0:9000"))
	assert.ErrorIs(t, err, netsim.ErrInvalidInput)
}

func TestBuilderAcceptsRoutableAddress(t *testing.T) {
	b, err := NewBuilder().WithIP(addr.Literal("10.0.0.5:9000"))
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("10.0.0.5"), b.info.IP)
}

func TestPortTakeSpecificAndReturn(t *testing.T) {
	net := newTestNetwork()
	n := New(Info{IP: netip.MustParseAddr("10.0.0.1")}, net)
	h := NewHandle(n)

	p := uint16(5000)
	got, ok := h.TakePort(&p)
	require.True(t, ok)
	assert.Equal(t, uint16(5000), got)

	_, ok = h.TakePort(&p)
	assert.False(t, ok, "taking an already-taken port must fail")

	h.ReturnPort(p)
	got, ok = h.TakePort(&p)
	require.True(t, ok)
	assert.Equal(t, uint16(5000), got)
}

func TestPortTakeAnyPicksLowestFree(t *testing.T) {
	net := newTestNetwork()
	n := New(Info{IP: netip.MustParseAddr("10.0.0.1")}, net)
	h := NewHandle(n)

	first := uint16(1)
	h.TakePort(&first)

	got, ok := h.TakePort(nil)
	require.True(t, ok)
	assert.Equal(t, uint16(2), got)
}

func TestDefaultUDPBufferSizesApplied(t *testing.T) {
	n := New(Info{IP: netip.MustParseAddr("10.0.0.1")}, newTestNetwork())
	assert.Equal(t, defaultUDPBufferSize, n.info.UDPSendBufferSize)
	assert.Equal(t, defaultUDPBufferSize, n.info.UDPRecvBufferSize)
}

func TestNextStepAdvancesOneRunnableTaskBeforeTime(t *testing.T) {
	net := newTestNetwork()
	n := New(Info{IP: netip.MustParseAddr("10.0.0.1")}, net)
	h := NewHandle(n)

	ran := false
	h.Spawn(func(ctx context.Context) error {
		ran = true
		return nil
	})

	progressed := h.NextStep()
	assert.True(t, progressed)
	assert.True(t, ran)
	assert.Equal(t, time.Duration(0), h.Time())
}

func TestNextStepAdvancesClockWhenOnlyATimerIsPending(t *testing.T) {
	net := newTestNetwork()
	n := New(Info{IP: netip.MustParseAddr("10.0.0.1")}, net)
	h := NewHandle(n)

	h.Spawn(func(ctx context.Context) error {
		return task.Sleep(ctx, 50*time.Millisecond)
	})

	steps := h.MakeSteps(-1)
	assert.GreaterOrEqual(t, steps, 1)
	assert.Equal(t, 50*time.Millisecond, h.Time())
}

func TestNextStepFalseAndMakeStepsZeroWhenNothingPending(t *testing.T) {
	net := newTestNetwork()
	n := New(Info{IP: netip.MustParseAddr("10.0.0.1")}, net)
	h := NewHandle(n)

	assert.False(t, h.NextStep())
	assert.Equal(t, 0, h.MakeSteps(10))
}

func TestStepDurationLandsExactlyOnRequestedOffsetWithNoEvents(t *testing.T) {
	net := newTestNetwork()
	n := New(Info{IP: netip.MustParseAddr("10.0.0.1")}, net)
	h := NewHandle(n)

	h.StepDuration(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, h.Time())
}

func TestStepDurationRunsEventsDueWithinWindow(t *testing.T) {
	net := newTestNetwork()
	n := New(Info{IP: netip.MustParseAddr("10.0.0.1")}, net)
	h := NewHandle(n)

	var woke time.Duration
	h.Spawn(func(ctx context.Context) error {
		task.Sleep(ctx, 10*time.Millisecond)
		woke = task.Now(ctx)
		return nil
	})

	h.StepDuration(50 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, woke)
	assert.Equal(t, 50*time.Millisecond, h.Time())
}

func TestCurrentResolvesInsideSpawnedTask(t *testing.T) {
	net := newTestNetwork()
	n := New(Info{IP: netip.MustParseAddr("10.0.0.1")}, net)
	h := NewHandle(n)

	var seen *Handle
	var sawInSim bool
	h.Spawn(func(ctx context.Context) error {
		seen = Current(ctx)
		sawInSim = InSim(ctx)
		return nil
	})
	h.NextStep()

	assert.Same(t, h, seen)
	assert.True(t, sawInSim)
}

func TestInSimFalseOutsideAnyNode(t *testing.T) {
	assert.False(t, InSim(context.Background()))
}

func TestCurrentPanicsOutsideAnyNode(t *testing.T) {
	assert.Panics(t, func() {
		Current(context.Background())
	})
}
