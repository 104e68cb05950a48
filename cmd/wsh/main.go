// Copyright (c) 2024 wsh contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License version 3 as
// published by the Free Software Foundation.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command wsh is a small interactive/batch job-control shell.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/canonical/go-flags"
	"golang.org/x/sys/unix"

	"github.com/wsh-project/wsh/internal/jobcontrol"
	"github.com/wsh-project/wsh/internal/reaper"
	"github.com/wsh-project/wsh/internal/runner"
	"github.com/wsh-project/wsh/internal/shlog"
	"github.com/wsh-project/wsh/internal/termios"
)

var (
	// Standard streams, redirected for testing.
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

type options struct {
	Positional struct {
		BatchFile string `positional-arg-name:"batch_file"`
	} `positional-args:"yes"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts options
	parser := flags.NewParser(&opts, flags.PassDoubleDash)
	extra, err := parser.ParseArgs(args)
	if err != nil || len(extra) > 0 {
		fmt.Fprintf(Stderr, "Usage: ./wsh [batch_file]\n")
		return 1
	}

	ttyFd := int(os.Stdin.Fd())
	shellPgid, shellModes, err := takeControllingTerminal(ttyFd)
	if err != nil {
		shlog.Noticef("cannot take control of the terminal: %v", err)
		return 1
	}

	sh := jobcontrol.NewShell(ttyFd, shellPgid, shellModes)
	sh.Stdout = Stdout
	sh.Stderr = Stderr

	if err := startReaper(sh); err != nil {
		shlog.Noticef("cannot start reaper: %v", err)
		return 1
	}
	defer stopReaper()

	if opts.Positional.BatchFile != "" {
		code, err := runner.RunBatch(sh, opts.Positional.BatchFile)
		if err != nil {
			fmt.Fprintf(Stderr, "%s: %v\n", opts.Positional.BatchFile, err)
			return 1
		}
		return code
	}

	return runner.RunInteractive(sh, Stdin, Stdout, "wsh> ")
}

// takeControllingTerminal puts the shell into its own process group and
// grants it the controlling terminal, ignoring the job-control signals a
// shell must never be killed or stopped by directly. It mirrors the
// original C shell's startup sequence: wait until the shell's own
// process group is already the foreground group (a parent shell may
// still be finishing its own handoff), then claim it.
func takeControllingTerminal(ttyFd int) (pgid int, modes *termios.State, err error) {
	for {
		fg, ferr := termios.ForegroundPgrp(ttyFd)
		if ferr != nil {
			return 0, nil, ferr
		}
		if fg == unix.Getpgrp() {
			break
		}
		if err := unix.Kill(-unix.Getpgrp(), unix.SIGTTIN); err != nil {
			return 0, nil, err
		}
	}

	ignoreJobControlSignals()

	pid := unix.Getpid()
	if err := unix.Setpgid(pid, pid); err != nil && err != unix.EPERM {
		return 0, nil, err
	}
	if err := termios.SetForegroundPgrp(ttyFd, pid); err != nil {
		return 0, nil, err
	}

	modes, err = termios.GetState(ttyFd)
	if err != nil {
		return 0, nil, err
	}
	return pid, modes, nil
}

// ignoreJobControlSignals makes the shell immune to the signals that
// only ever make sense directed at a foreground job: the kernel resets
// each of these to its default disposition in a child on exec, since a
// caught (rather than ignored) disposition doesn't survive exec. See
// internal/jobcontrol.Launch.
func ignoreJobControlSignals() {
	sink := make(chan os.Signal, 16)
	signal.Notify(sink, unix.SIGINT, unix.SIGQUIT, unix.SIGTSTP, unix.SIGTTIN, unix.SIGTTOU)
}

func startReaper(sh *jobcontrol.Shell) error {
	return reaper.Start(sh.Table)
}

func stopReaper() {
	reaper.Stop()
}
