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
	"github.com/bits-and-blooms/bitset"
	"github.com/vnetsim/vnetsim/logger"
)

const (
	minPort = 1
	maxPort = 65535
)

// portSet is a node's free-port set: every UDP port is either free or
// assigned to exactly one live socket on that node. Backed by a bitset
// rather than a map or a sorted slice, since the whole 1..65535 range is
// live from construction and membership/clear are the only operations
// that matter. A dense bitmap is both the simplest and the fastest
// representation for that.
type portSet struct {
	free *bitset.BitSet
}

func newPortSet() *portSet {
	b := bitset.New(maxPort + 1)
	for p := minPort; p <= maxPort; p++ {
		b.Set(uint(p))
	}
	return &portSet{free: b}
}

// takeSpecific removes p from the free set and returns true if it was
// present; otherwise returns false without modifying anything.
func (s *portSet) takeSpecific(p uint16) bool {
	if p < minPort || !s.free.Test(uint(p)) {
		return false
	}
	s.free.Clear(uint(p))
	return true
}

// takeAny removes and returns the smallest free port, or (0, false) if the
// set is empty.
func (s *portSet) takeAny() (uint16, bool) {
	i, ok := s.free.NextSet(minPort)
	if !ok {
		return 0, false
	}
	s.free.Clear(i)
	return uint16(i), true
}

// ret reinserts p, which must not already be free: returning a port twice
// or a port never taken is an invariant violation.
func (s *portSet) ret(p uint16) {
	logger.AssertFalse(s.free.Test(uint(p)), "port %d returned while already free", p)
	s.free.Set(uint(p))
}
