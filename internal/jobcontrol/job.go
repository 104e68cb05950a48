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
	"os"

	"github.com/wsh-project/wsh/internal/termios"
)

// Job is one pipeline: the unit of user-visible job control.
//
// Processes is an owned, ordered sequence rather than the original
// C source's intrusive next-pointer list — see DESIGN.md.
type Job struct {
	ID        int
	Processes []*Process
	Pgid      int

	Foreground bool
	Piped      bool
	Dead       bool

	// SavedModes holds the terminal modes captured when this job last
	// lost the tty, so a later `fg` can restore them when resuming it.
	SavedModes *termios.State

	Stdin, Stdout, Stderr *os.File
}

// NewJob builds a job for the given pipeline stages. Stdin/Stdout/Stderr
// default to the shell's own standard streams.
func NewJob(argvs [][]string, foreground bool) *Job {
	j := &Job{
		Foreground: foreground,
		Piped:      len(argvs) > 1,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
	for _, argv := range argvs {
		j.Processes = append(j.Processes, &Process{
			Name: argv[0],
			Argv: argv,
		})
	}
	return j
}

// IsStopped reports whether every process in the job has stopped or
// completed (invariant 5: no process is both).
func (j *Job) IsStopped() bool {
	for _, p := range j.Processes {
		if !p.Done() {
			return false
		}
	}
	return true
}

// IsCompleted reports whether every process in the job has completed.
func (j *Job) IsCompleted() bool {
	for _, p := range j.Processes {
		if !p.Completed {
			return false
		}
	}
	return true
}

// AnyStopped reports whether at least one (still-running) process has
// been stopped, e.g. via SIGTSTP.
func (j *Job) AnyStopped() bool {
	for _, p := range j.Processes {
		if p.Stopped {
			return true
		}
	}
	return false
}

// Leader returns the job's group-leader process (the first stage),
// whose pid is also the job's pgid once the launcher has assigned it.
func (j *Job) Leader() *Process {
	if len(j.Processes) == 0 {
		return nil
	}
	return j.Processes[0]
}

// String renders the job the way `jobs` displays it: stage names and
// arguments joined by " | ", with a trailing background marker.
func (j *Job) String() string {
	s := ""
	for i, p := range j.Processes {
		if i > 0 {
			s += "| "
		}
		s += p.Name + " "
		for _, a := range p.Argv[1:] {
			s += a + " "
		}
	}
	s += "& "
	return s
}
