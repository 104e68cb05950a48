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
	"fmt"
	"os"
	"strconv"
)

// dispatchBuiltin runs one of exit/cd/jobs/fg/bg in the shell process.
// argv[0] is assumed to already be a recognized builtin name.
func (s *Shell) dispatchBuiltin(argv []string) {
	switch argv[0] {
	case "exit":
		s.builtinExit(argv)
	case "cd":
		s.builtinCd(argv)
	case "jobs":
		s.builtinJobs(argv)
	case "fg":
		s.builtinFg(argv)
	case "bg":
		s.builtinBg(argv)
	}
}

func (s *Shell) builtinExit(argv []string) {
	s.Exit = true
	s.ExitCode = 0
}

// builtinCd changes the shell's working directory. With no argument it
// changes to the user's home directory (spec §9 Open Question,
// resolved in SPEC_FULL.md §12).
func (s *Shell) builtinCd(argv []string) {
	var dir string
	switch len(argv) {
	case 1:
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(s.Stderr, "Error: chdir to ~ failed.\n")
			return
		}
		dir = home
	case 2:
		dir = argv[1]
	default:
		fmt.Fprintf(s.Stderr, "USAGE: cd dir\n")
		return
	}

	if err := os.Chdir(dir); err != nil {
		fmt.Fprintf(s.Stderr, "Error: chdir to %s failed.\n", dir)
	}
}

func (s *Shell) builtinJobs(argv []string) {
	if len(argv) != 1 {
		fmt.Fprintf(s.Stderr, "USAGE: jobs\n")
		return
	}
	ListJobs(s.Table, s.Stdout)
}

// builtinFg selects the identified live job, or in its absence the
// most recent live job, gives it the tty, waits for it to stop or
// complete, then reclaims the tty.
func (s *Shell) builtinFg(argv []string) {
	job, ok := s.selectJob(argv, "fg")
	if !ok {
		return
	}
	if job == nil {
		return // silent no-op: no such job
	}
	job.Foreground = true
	s.Controller.Resume(job)
}

// builtinBg resumes the identified (or most recent) stopped job in the
// background by sending it SIGCONT; it does not wait.
func (s *Shell) builtinBg(argv []string) {
	job, ok := s.selectJob(argv, "bg")
	if !ok {
		return
	}
	if job == nil {
		return // silent no-op: no such job
	}
	job.Foreground = false
	if err := ResumeBackground(s.Table, job); err != nil {
		fmt.Fprintf(s.Stderr, "kill (SIGCONT): %v\n", err)
	}
}

// selectJob implements the shared fg/bg argument handling: zero
// arguments selects the most recent live job, one argument selects the
// job with that numeric id, anything else is a USAGE error. The second
// return value is false on a USAGE error (caller should do nothing
// else); a nil job with true means "no such job" (silent no-op).
func (s *Shell) selectJob(argv []string, name string) (*Job, bool) {
	switch len(argv) {
	case 1:
		return s.Table.MostRecent(), true
	case 2:
		id, err := strconv.Atoi(argv[1])
		if err != nil {
			return nil, true
		}
		return s.Table.FindByID(id), true
	default:
		fmt.Fprintf(s.Stderr, "USAGE: %s [job_id]\n", name)
		return nil, false
	}
}
