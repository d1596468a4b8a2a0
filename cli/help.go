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

package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"
)

// Help formats command help text wrapped to the current terminal width.
type Help struct {
	termWidth   uint
	maxCmdWidth uint
	commands    []string
}

var commandHelp = map[string]string{
	"bind":      "Bind a UDP socket on a node, naming it for later reference.",
	"droprate":  "Set the probability that a non-loopback datagram is lost in transit.",
	"exit":      "Exit the console.",
	"go":        "Advance every node's virtual clock by a number of seconds.",
	"help":      "List every command, or describe a single named command.",
	"node":      "Register a new node at the given IP address.",
	"nodes":     "List all registered nodes and their current time.",
	"partition": "Separate the given node addresses from the rest of the topology.",
	"recv":      "Await one datagram on a bound socket and report it once it arrives.",
	"repair":    "Restore every link within the given node addresses.",
	"repairall": "Restore a full mesh over every registered node.",
	"send":      "Send a payload from a bound socket to a target address.",
	"sleep":     "Sleep a node's task for a number of seconds.",
	"sockets":   "List all bound sockets and their local addresses.",
	"step":      "Drive the simulation forward until no node can make further progress.",
}

// newHelp returns a Help ready to format text for the current terminal.
func newHelp() Help {
	h := Help{termWidth: 80, maxCmdWidth: 12}
	h.commands = make([]string, 0, len(commandHelp))
	for k := range commandHelp {
		h.commands = append(h.commands, k)
	}
	sort.Strings(h.commands)
	h.update()
	return h
}

func (help *Help) update() {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if width, _, err := term.GetSize(fd); err == nil {
			help.termWidth = uint(width)
		}
	}
}

// outputGeneralHelp lists every command with its one-line description.
func (help *Help) outputGeneralHelp() string {
	return help.outputHelp(help.commands)
}

// outputCommandHelp describes a single command.
func (help *Help) outputCommandHelp(command string) string {
	return help.outputHelp([]string{command})
}

func (help *Help) outputHelp(commands []string) string {
	help.update()
	var s strings.Builder
	for _, cmd := range commands {
		explanation, ok := commandHelp[cmd]
		if !ok {
			explanation = "(unknown command)"
		}
		w := help.termWidth - help.maxCmdWidth - 1
		for idx, line := range strings.Split(wordwrap.WrapString(explanation, w), "\n") {
			label := ""
			if idx == 0 {
				label = cmd
			}
			fmt.Fprintf(&s, "%-12s %s\n", label, line)
		}
	}
	return s.String()
}
