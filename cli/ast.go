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

// This file defines the format of every scenario-script command and their
// flags: one exported struct per command, alternated with "| @@" into the
// top-level Command struct, with the grammar expressed entirely through
// participle struct tags.
package cli

import (
	"github.com/alecthomas/participle"
)

// Command is the top-level alternation every parsed line resolves to.
// Exactly one field is non-nil after a successful parse.
type Command struct {
	Node      *NodeCmd      `  @@` //nolint
	Bind      *BindCmd      `| @@` //nolint
	Send      *SendCmd      `| @@` //nolint
	Recv      *RecvCmd      `| @@` //nolint
	Sleep     *SleepCmd     `| @@` //nolint
	Partition *PartitionCmd `| @@` //nolint
	Repair    *RepairCmd    `| @@` //nolint
	RepairAll *RepairAllCmd `| @@` //nolint
	DropRate  *DropRateCmd  `| @@` //nolint
	Step      *StepCmd      `| @@` //nolint
	Go        *GoCmd        `| @@` //nolint
	Nodes     *NodesCmd     `| @@` //nolint
	Sockets   *SocketsCmd   `| @@` //nolint
	Help      *HelpCmd      `| @@` //nolint
	Exit      *ExitCmd      `| @@` //nolint
}

// HelpCmd defines the `help` command format: show general help, or help
// for a single named command.
type HelpCmd struct {
	Cmd     struct{} `"help"`     //nolint
	Command *string  `[ @Ident ]` //nolint
}

// NodeCmd defines the `node` command format: register a new node at the
// given IP. Example: `node "10.12.1.1"`.
type NodeCmd struct {
	Cmd struct{} `"node"`  //nolint
	IP  string   `@String` //nolint
}

// BindCmd defines the `bind` command format: bind a UDP socket on an
// already-registered node and give it a name for later reference. Example:
// `bind "10.12.1.1" rx "0.0.0.0:123"`.
type BindCmd struct {
	Cmd    struct{} `"bind"`  //nolint
	Node   string   `@String` //nolint
	Socket string   `@Ident`  //nolint
	Addr   string   `@String` //nolint
}

// SendCmd defines the `send` command format: send a payload from an
// already-bound socket to a target address. Example:
// `send "10.12.1.2" tx "10.12.1.1:123" "hello"`.
type SendCmd struct {
	Cmd     struct{} `"send"`  //nolint
	Node    string   `@String` //nolint
	Socket  string   `@Ident`  //nolint
	Target  string   `@String` //nolint
	Payload string   `@String` //nolint
}

// RecvCmd defines the `recv` command format: spawn a task that awaits one
// datagram on an already-bound socket and reports it once a `step`/`go`
// drives the simulation far enough for it to arrive.
type RecvCmd struct {
	Cmd    struct{} `"recv"`  //nolint
	Node   string   `@String` //nolint
	Socket string   `@Ident`  //nolint
}

// SleepCmd defines the `sleep` command format: spawn a task on a node that
// sleeps for the given number of seconds before reporting completion.
type SleepCmd struct {
	Cmd     struct{} `"sleep"`         //nolint
	Node    string   `@String`         //nolint
	Seconds float64  `(@Int | @Float)` //nolint
}

// PartitionCmd defines the `partition` command format: separate the named
// nodes from the rest of the topology.
type PartitionCmd struct {
	Cmd   struct{} `"partition"`  //nolint
	Nodes []string `( @String )+` //nolint
}

// RepairCmd defines the `repair` command format: restore every link within
// the named group.
type RepairCmd struct {
	Cmd   struct{} `"repair"`     //nolint
	Nodes []string `( @String )+` //nolint
}

// RepairAllCmd defines the `repairall` command format: restore a full mesh
// over every registered node.
type RepairAllCmd struct {
	Cmd struct{} `"repairall"` //nolint
}

// DropRateCmd defines the `droprate` command format: set the probability
// that any non-loopback datagram is lost in transit. Example:
// `droprate 0.25`, or `droprate 0` to make every send deterministic.
type DropRateCmd struct {
	Cmd  struct{} `"droprate"`      //nolint
	Rate float64  `(@Int | @Float)` //nolint
}

// StepCmd defines the `step` command format: drive the simulation forward
// until no node can make further progress.
type StepCmd struct {
	Cmd struct{} `"step"` //nolint
}

// GoCmd defines the `go` command format: advance every node's virtual clock
// by the given number of seconds, running any event due within that window.
type GoCmd struct {
	Cmd     struct{} `"go"`            //nolint
	Seconds float64  `(@Int | @Float)` //nolint
}

// NodesCmd defines the `nodes` command format: list every registered node.
type NodesCmd struct {
	Cmd struct{} `"nodes"` //nolint
}

// SocketsCmd defines the `sockets` command format: list every bound socket.
type SocketsCmd struct {
	Cmd struct{} `"sockets"` //nolint
}

// ExitCmd defines the `exit` command format.
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

var commandParser = participle.MustBuild(&Command{})

func parseCommand(line string) (*Command, error) {
	cmd := &Command{}
	if err := commandParser.ParseString(line, cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}
