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

// Command vnetsim runs or interactively drives a virtual network
// simulation from a scenario script.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vnetsim/vnetsim/cli"
	"github.com/vnetsim/vnetsim/logger"
	"github.com/vnetsim/vnetsim/progctx"
	"github.com/vnetsim/vnetsim/sim"
	"github.com/vnetsim/vnetsim/visualize"
)

// version is set externally via -ldflags "-X main.version=...".
var version = "dev"

var logLevel = "info"

func main() {
	root := &cobra.Command{
		Use:           "vnetsim",
		Short:         "Deterministic virtual network simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log", "info", "log level (trace, debug, info, warn, error, off)")

	root.AddCommand(newRunCmd(), newReplCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "vnetsim: %v\n", err)
		os.Exit(1)
	}
}

func applyLogLevel() error {
	lv, err := logger.ParseLevelString(logLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(lv)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the vnetsim version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var seed uint64
	var verbose bool
	c := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario script to completion and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyLogLevel(); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrapf(err, "reading scenario %q", args[0])
			}
			sc, err := cli.LoadScenario(data)
			if err != nil {
				return errors.Wrapf(err, "parsing scenario %q", args[0])
			}
			if cmd.Flags().Changed("seed") {
				sc.Seed = seed
			}

			s := sim.New(sc.Seed)
			if verbose {
				s.SetObserver(visualize.LogObserver{})
				s.EnableTrace()
			}
			defer func() { _ = s.Close() }()

			r := cli.NewRunner(s, cmd.OutOrStdout())
			return sc.Run(r, cmd.OutOrStdout())
		},
	}
	c.Flags().Uint64Var(&seed, "seed", 0, "override the scenario's RNG seed")
	c.Flags().BoolVar(&verbose, "verbose", false, "log every node add, partition and delivery decision")
	return c
}

func newReplCmd() *cobra.Command {
	var seed uint64
	var verbose bool
	c := &cobra.Command{
		Use:   "repl",
		Short: "Drive a simulation interactively from a readline console",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyLogLevel(); err != nil {
				return err
			}
			s := sim.New(seed)
			if verbose {
				s.SetObserver(visualize.LogObserver{})
				s.EnableTrace()
			}

			ctx := progctx.New(context.Background())
			handleSignals(ctx)

			r := cli.NewRunner(s, os.Stdout)

			var runErr error
			ctx.Go("repl", func() {
				runErr = cli.Run(r, nil)
				ctx.Cancel(errors.Wrap(runErr, "console exit"))
			})

			ctx.Wait()
			_ = s.Close()
			return runErr
		},
	}
	c.Flags().Uint64Var(&seed, "seed", 0, "RNG seed for the simulation")
	c.Flags().BoolVar(&verbose, "verbose", false, "log every node add, partition and delivery decision")
	return c
}

func handleSignals(ctx *progctx.ProgCtx) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	ctx.Go("signals", func() {
		select {
		case s := <-sig:
			ctx.Cancel(errors.Errorf("received signal %v", s))
		case <-ctx.Done():
		}
	})
}
