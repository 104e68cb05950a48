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
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/wsh-project/wsh/internal/shlog"
)

// Launch forks and execs every stage of j, wiring pipes between
// consecutive stages and placing every stage in j's process group.
// ttyFd is the shell's own file descriptor for the controlling
// terminal; it is only consulted when j.Foreground is true. table
// records the synchronous completion of a stage whose program could
// not be found, so that the foreground controller and `jobs` see it the
// same way they'd see a reaped exit.
//
// Dispositions for INT/QUIT/TSTP/TTIN/TTOU/CHLD are reset to default in
// each child without any child-side code: the shell installs its own
// ignoring of those signals via signal.Notify, which is a *caught*
// disposition from the kernel's point of view, and POSIX exec() resets
// caught (but not ignored) dispositions to SIG_DFL. See DESIGN.md.
func Launch(j *Job, ttyFd int, table *Table) error {
	if len(j.Processes) == 0 {
		return fmt.Errorf("jobcontrol: cannot launch a job with no stages")
	}

	infile := j.Stdin
	var cmds []*exec.Cmd

	for i, p := range j.Processes {
		last := i == len(j.Processes)-1

		var outfile *os.File
		var pipeReadEnd *os.File
		if !last {
			r, w, err := os.Pipe()
			if err != nil {
				return fmt.Errorf("pipe: %w", err)
			}
			outfile = w
			pipeReadEnd = r
		} else {
			outfile = j.Stdout
		}

		cmd := exec.Command(p.Argv[0], p.Argv[1:]...)
		cmd.Stdin = infile
		cmd.Stdout = outfile
		cmd.Stderr = j.Stderr
		cmd.SysProcAttr = sysProcAttrFor(j, i, ttyFd)

		if err := cmd.Start(); err != nil {
			// exec.Command resolves the program via LookPath before ever
			// forking, so a "command not found" stage surfaces here as
			// an *exec.Error rather than a fork failure. The spec treats
			// that case as the stage's child immediately exiting with
			// status 1, leaving the rest of the pipeline unaffected —
			// unlike a genuine fork failure, which aborts the whole
			// launch.
			var execErr *exec.Error
			if errors.As(err, &execErr) {
				shlog.Noticef("execvp: %v", execErr.Err)
				table.MarkStageExited(j, p, unix.WaitStatus(1<<8))
				closeIfPipe(infile, j.Stdin)
				closeIfPipe(outfile, j.Stdout)
				infile = pipeReadEnd
				continue
			}

			shlog.Noticef("fork: %v", err)
			closeIfPipe(infile, j.Stdin)
			closeIfPipe(outfile, j.Stdout)
			return err
		}
		p.Pid = cmd.Process.Pid

		if j.Pgid == 0 {
			j.Pgid = p.Pid
		}
		// Redundant parent-side setpgid, closing the race against the
		// same call made inside the child by SysProcAttr.Setpgid: ESRCH
		// just means the child already exited or exec'd, which is fine.
		if err := unix.Setpgid(p.Pid, j.Pgid); err != nil && err != unix.ESRCH {
			shlog.Debugf("setpgid(%d, %d): %v", p.Pid, j.Pgid, err)
		}

		cmds = append(cmds, cmd)

		closeIfPipe(infile, j.Stdin)
		closeIfPipe(outfile, j.Stdout)
		infile = pipeReadEnd
	}

	// The reaper — not cmd.Wait — owns collecting each stage's exit
	// status via wait4, so release os/exec's bookkeeping for each
	// Process now rather than leaving it to an unreachable Wait call.
	for _, cmd := range cmds {
		cmd.Process.Release()
	}
	return nil
}

// sysProcAttrFor builds the fork/exec attributes for stage index i of
// job j. Only the leader (i==0) creates the process group and, for a
// foreground job, claims the controlling terminal; every later stage
// just joins the group the leader created.
func sysProcAttrFor(j *Job, i int, ttyFd int) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{Setpgid: true}
	if i == 0 {
		attr.Pgid = 0
		if j.Foreground {
			attr.Foreground = true
			attr.Ctty = ttyFd
		}
	} else {
		attr.Pgid = j.Pgid
	}
	return attr
}

func closeIfPipe(f *os.File, jobDefault *os.File) {
	if f != nil && f != jobDefault {
		f.Close()
	}
}
