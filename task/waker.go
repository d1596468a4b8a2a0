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

package task

import "weak"

// Waker lets something a task parked on (a timer, a socket, another task)
// make that task runnable again. A Waker holds only a weak reference to its
// Runtime: if the node the task belonged to has already been torn down,
// waking it is simply a no-op rather than a dangling-pointer bug. Waking
// from a goroutine other than the one driving the owning Runtime's steps is
// not supported; the simulator is single-threaded and nothing about Waker
// makes it safe to call concurrently with a NextStep on the same Runtime.
type Waker struct {
	runtime weak.Pointer[Runtime]
	id      ID
}

// Wake re-queues the task this Waker was bound to, if its Runtime is still
// alive. Calling Wake more than once, or after the task has already
// finished, is harmless.
func (w *Waker) Wake() {
	if w == nil {
		return
	}
	rt := w.runtime.Value()
	if rt == nil {
		return
	}
	rt.wake(w.id)
}
