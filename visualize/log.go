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

package visualize

import (
	"net/netip"

	"github.com/vnetsim/vnetsim/logger"
	"github.com/vnetsim/vnetsim/netsim"
)

// LogObserver reports every notification through the package logger, at
// Info level for membership/topology events and Debug level for individual
// deliveries (which can be numerous). It backs cmd/vnetsim's --verbose
// flag, letting a human watch a run unfold as structured log lines.
type LogObserver struct{}

func (LogObserver) Run()  { logger.Infof("visualize: observer attached") }
func (LogObserver) Stop() { logger.Infof("visualize: observer detached") }

func (LogObserver) NodeAdded(ip netip.Addr) {
	logger.Infof("visualize: node added ip=%s", ip)
}

func (LogObserver) Partitioned(group []netip.Addr) {
	logger.Infof("visualize: partitioned group=%v", group)
}

func (LogObserver) Repaired(group []netip.Addr) {
	logger.Infof("visualize: repaired group=%v", group)
}

func (LogObserver) RepairedAll() {
	logger.Infof("visualize: repaired-all")
}

func (LogObserver) Delivery(entry netsim.TraceEntry) {
	if entry.Dropped {
		logger.Debugf("visualize: drop from=%s to=%s reason=%q", entry.From, entry.To, entry.Reason)
		return
	}
	logger.Debugf("visualize: deliver from=%s to=%s bytes=%d", entry.From, entry.To, len(entry.Payload))
}
