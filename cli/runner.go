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
	"context"
	"fmt"
	"io"
	"net/netip"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/vnetsim/vnetsim/addr"
	"github.com/vnetsim/vnetsim/node"
	"github.com/vnetsim/vnetsim/sim"
	"github.com/vnetsim/vnetsim/udpsocket"
)

// Runner executes parsed scenario commands against one simulation: one
// long-lived object that owns the simulation and a small amount of
// script-local bookkeeping (node handles by address, bound sockets by
// name).
type Runner struct {
	sim     *sim.Sim
	out     io.Writer
	nodes   map[netip.Addr]*node.Handle
	sockets map[socketKey]*udpsocket.Socket
	help    Help
}

type socketKey struct {
	node netip.Addr
	name string
}

// NewRunner returns a Runner driving s, writing command output to out.
func NewRunner(s *sim.Sim, out io.Writer) *Runner {
	return &Runner{
		sim:     s,
		out:     out,
		nodes:   make(map[netip.Addr]*node.Handle),
		sockets: make(map[socketKey]*udpsocket.Socket),
		help:    newHelp(),
	}
}

// GetPrompt satisfies CliHandler.
func (r *Runner) GetPrompt() string { return "vnetsim> " }

// HandleCommand satisfies CliHandler: parse line and execute it, writing
// "Done" or "Error: ..." to output.
func (r *Runner) HandleCommand(line string, output io.Writer) error {
	cmd, err := parseCommand(line)
	if err != nil {
		_, werr := fmt.Fprintf(output, "Error: %v\n", err)
		return werr
	}
	if err := r.Execute(cmd); err != nil {
		if errors.Is(err, errExit) {
			return err
		}
		_, werr := fmt.Fprintf(output, "Error: %v\n", err)
		if werr != nil {
			return werr
		}
		return nil
	}
	_, err = fmt.Fprintf(output, "Done\n")
	return err
}

// Execute runs one already-parsed command against r's simulation.
func (r *Runner) Execute(cmd *Command) error {
	switch {
	case cmd.Node != nil:
		return r.doNode(cmd.Node)
	case cmd.Bind != nil:
		return r.doBind(cmd.Bind)
	case cmd.Send != nil:
		return r.doSend(cmd.Send)
	case cmd.Recv != nil:
		return r.doRecv(cmd.Recv)
	case cmd.Sleep != nil:
		return r.doSleep(cmd.Sleep)
	case cmd.Partition != nil:
		return r.doPartition(cmd.Partition)
	case cmd.Repair != nil:
		return r.doRepair(cmd.Repair)
	case cmd.RepairAll != nil:
		r.sim.RepairAll()
		return nil
	case cmd.DropRate != nil:
		if cmd.DropRate.Rate < 0 || cmd.DropRate.Rate >= 1 {
			return errors.Errorf("drop rate %v outside [0, 1)", cmd.DropRate.Rate)
		}
		r.sim.Network().SetDropRate(cmd.DropRate.Rate)
		return nil
	case cmd.Step != nil:
		n := r.sim.MakeSteps()
		_, err := fmt.Fprintf(r.out, "stepped %d\n", n)
		return err
	case cmd.Go != nil:
		return r.doGo(cmd.Go)
	case cmd.Nodes != nil:
		return r.doNodes()
	case cmd.Sockets != nil:
		return r.doSockets()
	case cmd.Help != nil:
		return r.doHelp(cmd.Help)
	case cmd.Exit != nil:
		return errExit
	default:
		return errors.New("empty command")
	}
}

// errExit is returned by Execute for `exit` so both the REPL and a scenario
// script runner can recognize "stop processing" without a sentinel string.
var errExit = errors.New("exit")

func parseIP(s string) (netip.Addr, error) {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, errors.Wrapf(err, "invalid node address %q", s)
	}
	return a, nil
}

func (r *Runner) handle(ipStr string) (*node.Handle, error) {
	ip, err := parseIP(ipStr)
	if err != nil {
		return nil, err
	}
	h, ok := r.nodes[ip]
	if !ok {
		return nil, errors.Errorf("no such node %q", ipStr)
	}
	return h, nil
}

func (r *Runner) doNode(c *NodeCmd) error {
	b, err := node.NewBuilder().WithIP(addr.Literal(c.IP + ":0"))
	if err != nil {
		return err
	}
	h, ok := b.Build(r.sim)
	if !ok {
		return errors.Errorf("node %q already registered", c.IP)
	}
	r.nodes[h.IP()] = h
	return nil
}

func (r *Runner) doBind(c *BindCmd) error {
	h, err := r.handle(c.Node)
	if err != nil {
		return err
	}
	key := socketKey{node: h.IP(), name: c.Socket}
	if _, exists := r.sockets[key]; exists {
		return errors.Errorf("socket %q already bound on %s", c.Socket, c.Node)
	}

	var bindErr error
	var sock *udpsocket.Socket
	h.Spawn(func(ctx context.Context) error {
		sock, bindErr = udpsocket.Bind(ctx, addr.Literal(c.Addr))
		return bindErr
	})
	h.MakeSteps(1)

	if bindErr != nil {
		return bindErr
	}
	r.sockets[key] = sock
	_, err = fmt.Fprintf(r.out, "bound %s/%s at %s\n", c.Node, c.Socket, sock.LocalAddr())
	return err
}

func (r *Runner) doSend(c *SendCmd) error {
	h, err := r.handle(c.Node)
	if err != nil {
		return err
	}
	sock, ok := r.sockets[socketKey{node: h.IP(), name: c.Socket}]
	if !ok {
		return errors.Errorf("no such socket %q on %s", c.Socket, c.Node)
	}

	var sendErr error
	var n int
	h.Spawn(func(ctx context.Context) error {
		n, sendErr = sock.SendTo([]byte(c.Payload), addr.Literal(c.Target))
		return sendErr
	})
	h.MakeSteps(1)

	if sendErr != nil {
		return sendErr
	}
	_, err = fmt.Fprintf(r.out, "sent %d bytes from %s/%s to %s\n", n, c.Node, c.Socket, c.Target)
	return err
}

func (r *Runner) doRecv(c *RecvCmd) error {
	h, err := r.handle(c.Node)
	if err != nil {
		return err
	}
	sock, ok := r.sockets[socketKey{node: h.IP(), name: c.Socket}]
	if !ok {
		return errors.Errorf("no such socket %q on %s", c.Socket, c.Node)
	}

	out := r.out
	nodeAddr, socketName := c.Node, c.Socket
	h.Spawn(func(ctx context.Context) error {
		buf := make([]byte, 65535)
		n, from, err := sock.RecvFrom(ctx, buf)
		if err != nil {
			fmt.Fprintf(out, "recv on %s/%s failed: %v\n", nodeAddr, socketName, err)
			return err
		}
		fmt.Fprintf(out, "recv on %s/%s: %d bytes from %s: %q\n", nodeAddr, socketName, n, from, buf[:n])
		return nil
	})
	h.MakeSteps(1)
	return nil
}

func (r *Runner) doSleep(c *SleepCmd) error {
	h, err := r.handle(c.Node)
	if err != nil {
		return err
	}
	out := r.out
	nodeAddr := c.Node
	d := time.Duration(c.Seconds * float64(time.Second))
	h.Spawn(func(ctx context.Context) error {
		before := h.Time()
		h.Sleep(ctx, d)
		fmt.Fprintf(out, "%s slept from %s to %s\n", nodeAddr, before, h.Time())
		return nil
	})
	h.MakeSteps(1)
	return nil
}

func (r *Runner) groupAddrs(ips []string) ([]netip.Addr, error) {
	out := make([]netip.Addr, 0, len(ips))
	for _, s := range ips {
		ip, err := parseIP(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ip)
	}
	return out, nil
}

func (r *Runner) doPartition(c *PartitionCmd) error {
	group, err := r.groupAddrs(c.Nodes)
	if err != nil {
		return err
	}
	r.sim.Separate(group)
	return nil
}

func (r *Runner) doRepair(c *RepairCmd) error {
	group, err := r.groupAddrs(c.Nodes)
	if err != nil {
		return err
	}
	r.sim.Repair(group)
	return nil
}

func (r *Runner) doGo(c *GoCmd) error {
	d := time.Duration(c.Seconds * float64(time.Second))
	addrs := make([]netip.Addr, 0, len(r.nodes))
	for ip := range r.nodes {
		addrs = append(addrs, ip)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })
	for _, ip := range addrs {
		r.nodes[ip].StepDuration(d)
	}
	return nil
}

func (r *Runner) doNodes() error {
	addrs := make([]netip.Addr, 0, len(r.nodes))
	for ip := range r.nodes {
		addrs = append(addrs, ip)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })
	for _, ip := range addrs {
		if _, err := fmt.Fprintf(r.out, "%s t=%s\n", ip, r.nodes[ip].Time()); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) doHelp(c *HelpCmd) error {
	var text string
	if c.Command != nil {
		text = r.help.outputCommandHelp(*c.Command)
	} else {
		text = r.help.outputGeneralHelp()
	}
	_, err := fmt.Fprint(r.out, text)
	return err
}

func (r *Runner) doSockets() error {
	keys := make([]socketKey, 0, len(r.sockets))
	for k := range r.sockets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].node != keys[j].node {
			return keys[i].node.Less(keys[j].node)
		}
		return keys[i].name < keys[j].name
	})
	for _, k := range keys {
		if _, err := fmt.Fprintf(r.out, "%s/%s -> %s\n", k.node, k.name, r.sockets[k].LocalAddr()); err != nil {
			return err
		}
	}
	return nil
}
