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

package jobcontrol

import (
	"io"
	"os"

	"github.com/wsh-project/wsh/internal/termios"
)

// Shell ties the job table, the foreground/background controller and
// the builtins dispatcher together: it is what the runner (§2's
// interactive/batch loop) drives one line at a time.
type Shell struct {
	Table      *Table
	Controller *Controller

	Stdout io.Writer
	Stderr io.Writer

	// Exit is set by the `exit` builtin; the runner checks it after
	// every line and stops the loop when true.
	Exit     bool
	ExitCode int
}

// NewShell wires a fresh job table and controller around the shell's
// own tty fd, pgid and saved terminal modes.
func NewShell(ttyFd, shellPgid int, shellModes *termios.State) *Shell {
	table := NewTable()
	return &Shell{
		Table:      table,
		Controller: NewController(table, ttyFd, shellPgid, shellModes),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

// RunLine parses and executes one line: builtins run in the shell
// process; anything else is launched as a (possibly piped,
// possibly backgrounded) job.
func (s *Shell) RunLine(line string) {
	parsed := ParseLine(line)
	if !parsed.Valid() {
		return
	}

	if !parsed.Piped && !parsed.Background && isBuiltinName(parsed.Stages[0][0]) {
		s.dispatchBuiltin(parsed.Stages[0])
		return
	}

	job := NewJob(parsed.Stages, !parsed.Background)
	s.Table.Insert(job)

	if err := Launch(job, s.Controller.TTYFd, s.Table); err != nil {
		return
	}

	if parsed.Background {
		return
	}
	s.Controller.RunForeground(job)
}

// Exited reports whether the exit builtin has run.
func (s *Shell) Exited() bool { return s.Exit }

// Code returns the exit code set by the exit builtin.
func (s *Shell) Code() int { return s.ExitCode }

// isBuiltinName reports whether name is one of wsh's recognized
// builtins (exit, cd, jobs, fg, bg).
func isBuiltinName(name string) bool {
	switch name {
	case "exit", "cd", "jobs", "fg", "bg":
		return true
	}
	return false
}
