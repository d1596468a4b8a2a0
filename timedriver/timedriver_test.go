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

package timedriver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vnetsim/vnetsim/task"
)

func TestAdvanceToNextTimerFiresEarliest(t *testing.T) {
	d := New()
	rt := task.New()

	var fired []string
	rt.Spawn(func(ctx context.Context) {
		d.Sleep(ctx, 100)
		fired = append(fired, "a")
	})
	rt.Spawn(func(ctx context.Context) {
		d.Sleep(ctx, 50)
		fired = append(fired, "b")
	})

	rt.MakeSteps(0) // both tasks park
	assert.Empty(t, fired)

	ts, ok := d.NextTimer()
	require.True(t, ok)
	assert.Equal(t, Timestamp(50), ts)

	d.AdvanceToNextTimer()
	rt.MakeSteps(0)
	assert.Equal(t, []string{"b"}, fired)
	assert.Equal(t, Timestamp(50), d.Now())

	d.AdvanceToNextTimer()
	rt.MakeSteps(0)
	assert.Equal(t, []string{"b", "a"}, fired)
	assert.Equal(t, Timestamp(100), d.Now())
}

func TestZeroDurationSleepCompletesWithoutAdvance(t *testing.T) {
	d := New()
	rt := task.New()

	done := false
	rt.Spawn(func(ctx context.Context) {
		d.Sleep(ctx, 0)
		done = true
	})

	rt.MakeSteps(0)
	assert.True(t, done, "sleep(0) must resolve without any AdvanceToTime call")
	assert.Equal(t, Timestamp(0), d.Now())
}

func TestAdvanceToTimeFiresAllDueAtOnce(t *testing.T) {
	d := New()
	rt := task.New()
	var fired []int

	for _, dur := range []int64{10, 10, 20} {
		dur := dur
		rt.Spawn(func(ctx context.Context) {
			d.Sleep(ctx, dur)
			fired = append(fired, int(dur))
		})
	}
	rt.MakeSteps(0)

	d.AdvanceToTime(15)
	rt.MakeSteps(0)
	assert.ElementsMatch(t, []int{10, 10}, fired)

	d.AdvanceToTime(20)
	rt.MakeSteps(0)
	assert.ElementsMatch(t, []int{10, 10, 20}, fired)
}

func TestAdvanceToTimeIgnoresBackwardMove(t *testing.T) {
	d := New()
	d.AdvanceToTime(100)
	d.AdvanceToTime(50)
	assert.Equal(t, Timestamp(100), d.Now())
}

func TestNextTimerEmptyWhenNoneScheduled(t *testing.T) {
	d := New()
	_, ok := d.NextTimer()
	assert.False(t, ok)
}

func TestAddTimerRegisterDirectly(t *testing.T) {
	d := New()
	e := d.AddTimer(5)
	woken := false
	rt := task.New()
	rt.Spawn(func(ctx context.Context) {
		task.Park(ctx, func(w *task.Waker) {
			e.Register(d, w)
		})
		woken = true
	})
	rt.MakeSteps(0)
	assert.False(t, woken)
	d.AdvanceToTime(5)
	rt.MakeSteps(0)
	assert.True(t, woken)
}
