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
	"sync"

	"github.com/vnetsim/vnetsim/logger"
	"github.com/vnetsim/vnetsim/timedriver"
)

// TraceEntry records one send decision: a delivery, or a drop with its
// reason. Reason is empty for a delivered datagram.
type TraceEntry struct {
	Timestamp timedriver.Timestamp
	From, To  netip.AddrPort
	Dropped   bool
	Reason    string
	Payload   []byte
}

// Trace is an in-memory, append-only record of every send decision a
// Network has made. Two runs with the same seed and the same operation
// sequence produce identical traces, which is how reproducibility is
// asserted in tests. Attaching an optional pcap sink turns the same stream
// into a real capture file on disk; neither is enabled unless a caller
// opts in, since the simulator otherwise has no file or network I/O at
// its boundary.
type Trace struct {
	mu      sync.Mutex
	entries []TraceEntry
	pcap    *pcapWriter
}

// NewTrace returns an empty, in-memory-only Trace.
func NewTrace() *Trace {
	return &Trace{}
}

func (t *Trace) record(e TraceEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
	if t.pcap != nil {
		if err := t.pcap.writeUDP(e); err != nil {
			logger.Warnf("netsim: pcap write failed: %v", err)
		}
	}
}

// Entries returns a copy of every entry recorded so far, oldest first.
func (t *Trace) Entries() []TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// EnablePcap opens path and starts mirroring every recorded entry to it as
// a real pcap capture of synthesized UDP/IPv4 frames, in addition to the
// in-memory record. sim.Sim.EnablePcapTrace calls it; the vnetsim command
// has no flag that enables it.
func (t *Trace) EnablePcap(path string) error {
	w, err := newPcapWriter(path)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.pcap = w
	t.mu.Unlock()
	return nil
}

// Close releases the optional pcap sink, if one was enabled. It is a no-op
// otherwise.
func (t *Trace) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pcap == nil {
		return nil
	}
	return t.pcap.Close()
}
