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

// Package jobcontrol is wsh's core: the process/job data model, the
// line parser, the pipeline launcher, the foreground/background
// controller, the builtins dispatcher and the jobs listing.
package jobcontrol

import "golang.org/x/sys/unix"

// Process is one stage of a pipeline: one forked-and-exec'd program.
//
// A Process is created at parse time with Pid 0 and no status. Its Pid
// is set exactly once, by the launcher, right after fork. Its Stopped
// and Completed flags are set by the reaper as it observes state
// changes; Completed is also set by the launcher for a stage whose
// program could not be found, and Stopped is cleared when the job is
// resumed.
type Process struct {
	// Name is the display name (the program token).
	Name string
	// Argv is the full argument vector passed to exec.
	Argv []string

	Pid    int
	Status unix.WaitStatus

	Stopped   bool
	Completed bool
}

// Done reports whether the process has stopped or completed — i.e. is
// no longer running.
func (p *Process) Done() bool {
	return p.Stopped || p.Completed
}
