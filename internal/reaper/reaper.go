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

// Package reaper is wsh's asynchronous child-reaping path: it drains
// terminated and stopped children off SIGCHLD and reports each one to a
// StatusSink, so that the job table's liveness flags are kept up to
// date without the main loop or the foreground controller ever calling
// wait itself.
package reaper

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
	"gopkg.in/tomb.v2"
)

// StatusSink receives each pid the reaper observes changing state.
// MarkProcessStatus reports whether pid belongs to a process the sink
// knows about.
type StatusSink interface {
	MarkProcessStatus(pid int, status unix.WaitStatus) (found bool)
}

var (
	reaperTomb tomb.Tomb

	mutex   sync.Mutex
	sink    StatusSink
	diag    io.Writer = os.Stderr
	started bool
)

// Start begins draining SIGCHLD for the shell's children and reporting
// state changes to sink.
func Start(sink_ StatusSink) error {
	mutex.Lock()
	defer mutex.Unlock()

	if started {
		return nil
	}

	sink = sink_
	started = true
	reaperTomb = tomb.Tomb{}
	reaperTomb.Go(reapChildren)
	return nil
}

// Stop stops the reaper, waiting for its goroutine to exit.
func Stop() error {
	mutex.Lock()
	if !started {
		mutex.Unlock()
		return nil
	}
	mutex.Unlock()

	reaperTomb.Kill(nil)
	err := reaperTomb.Wait()

	mutex.Lock()
	started = false
	sink = nil
	mutex.Unlock()

	return err
}

// SetDiagnosticsWriter overrides where "No child process" and
// "Terminated by signal" diagnostics are printed (default os.Stderr).
func SetDiagnosticsWriter(w io.Writer) {
	mutex.Lock()
	defer mutex.Unlock()
	diag = w
}

func reapChildren() error {
	sigChld := make(chan os.Signal, 1)
	signal.Notify(sigChld, unix.SIGCHLD)
	defer signal.Stop(sigChld)
	for {
		select {
		case <-sigChld:
			reapOnce()
		case <-reaperTomb.Dying():
			return nil
		}
	}
}

// reapOnce drains every child ready to report, without blocking.
// WUNTRACED is included (unlike a reaper with no job-control duties)
// so that a child stopped by SIGTSTP is observed too, not just one that
// has exited or been signalled.
func reapOnce() {
	for {
		var status unix.WaitStatus
		pid, err := unix.Wait4(-1, &status, unix.WNOHANG|unix.WUNTRACED, nil)
		switch err {
		case nil:
			if pid <= 0 {
				return
			}
			report(pid, status)
		case unix.ECHILD:
			return
		default:
			fmt.Fprintf(diagWriter(), "wait: %v\n", err)
			return
		}
	}
}

func report(pid int, status unix.WaitStatus) {
	mutex.Lock()
	s := sink
	mutex.Unlock()

	var found bool
	if s != nil {
		found = s.MarkProcessStatus(pid, status)
	}
	if !found {
		fmt.Fprintf(diagWriter(), "No child process %d.\n", pid)
		return
	}
	if status.Signaled() {
		fmt.Fprintf(diagWriter(), "%d: Terminated by signal %d.\n", pid, status.Signal())
	}
}

func diagWriter() io.Writer {
	mutex.Lock()
	defer mutex.Unlock()
	return diag
}
