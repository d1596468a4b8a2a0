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

// Package cli implements the scenario-scripting console: a small
// participle grammar (ast.go), a Runner that executes parsed commands
// against a simulation (runner.go), a readline-backed REPL (this file),
// help text wrapped for the terminal width (help.go), and a YAML
// scenario-file loader (script.go).
package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/vnetsim/vnetsim/logger"
)

// CliHandler is anything the REPL can drive: parse-and-execute one line of
// input, and report the prompt to show. *Runner implements it; the loop
// below is otherwise agnostic to the command set.
type CliHandler interface {
	HandleCommand(cmd string, output io.Writer) error
	GetPrompt() string
}

// Options configures a REPL session. The zero value uses os.Stdin/Stdout
// and does not echo input.
type Options struct {
	EchoInput bool
	Stdin     *os.File
	Stdout    *os.File
}

func (o *Options) resolved() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	return o
}

// Run drives handler from a readline console until an `exit` command,
// Ctrl-D, Ctrl-C on an empty line, or EOF on stdin ends the loop.
func Run(handler CliHandler, opts *Options) error {
	opts = opts.resolved()

	stdin, stdout := opts.Stdin, opts.Stdout
	if readline.IsTerminal(int(stdin.Fd())) {
		state, err := readline.GetState(int(stdin.Fd()))
		if err != nil {
			return err
		}
		defer func() { _ = readline.Restore(int(stdin.Fd()), state) }()
	}
	if readline.IsTerminal(int(stdout.Fd())) {
		state, err := readline.GetState(int(stdout.Fd()))
		if err != nil {
			return err
		}
		defer func() { _ = readline.Restore(int(stdout.Fd()), state) }()
	}

	l, err := readline.NewEx(&readline.Config{
		Prompt:          handler.GetPrompt(),
		Stdin:           stdin,
		Stdout:          stdout,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold: true,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			if r == readline.CharCtrlZ {
				return r, false
			}
			return r, true
		},
	})
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	for {
		l.SetPrompt(handler.GetPrompt())
		line, err := l.Readline()

		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if len(line) == 0 {
				return nil
			}
			continue
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if opts.EchoInput {
			if _, err := stdout.WriteString(line + "\n"); err != nil {
				return err
			}
		}

		cmd := strings.TrimSpace(line)
		if len(cmd) == 0 {
			continue
		}

		if err := handler.HandleCommand(cmd, l.Stdout()); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			logger.Warnf("cli: command %q failed: %v", cmd, err)
		}
		_ = stdout.Sync()
	}
}
