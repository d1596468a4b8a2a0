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

// Package prng provides the seeded deterministic random sources used by the
// virtual network. Unlike a package-global PRNG, each Source is scoped to a
// single Network instance, so that two simulations running with the same
// seed (even in the same process) never share or perturb each other's
// random stream.
package prng

import "math/rand"

// Source is a deterministic random source derived from a single root seed.
// It is not safe for concurrent use, which is fine: the simulator is
// single-threaded by construction.
type Source struct {
	drop  *rand.Rand
	delay *rand.Rand
}

// New creates a Source from a root seed. Two sources created from the same
// seed produce identical sequences from every method below, in order.
func New(seed uint64) *Source {
	base := int64(seed)
	return &Source{
		drop:  rand.New(rand.NewSource(base + 1)),
		delay: rand.New(rand.NewSource(base + 2)),
	}
}

// DropRoll draws a new uniform [0, 1) sample used to decide whether a
// datagram is randomly dropped.
func (s *Source) DropRoll() float64 {
	return s.drop.Float64()
}

// DelayFraction draws a new uniform [0, 1) sample used to pick a delay
// within [min, max) before scaling by hop count.
func (s *Source) DelayFraction() float64 {
	return s.delay.Float64()
}
