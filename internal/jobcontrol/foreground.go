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
	"golang.org/x/sys/unix"

	"github.com/wsh-project/wsh/internal/shlog"
	"github.com/wsh-project/wsh/internal/termios"
)

// Controller hands the controlling terminal between the shell and the
// job currently running in the foreground, and blocks the caller until
// a foreground job stops or completes.
//
// The reaper is the only caller of wait4 for every job, foreground or
// background; RunForeground and Resume simply block in Table.WaitUntil
// on the table's condition variable until the predicate the reaper's
// updates satisfy is true.
// This collapses the two wait policies in spec §4.5 (wait on the job's
// pgid vs. wait on any child) into one: whichever pgid the reaper
// actually reaped from, the table broadcasts and every waiter rechecks
// its own job's state.
type Controller struct {
	Table      *Table
	TTYFd      int
	ShellPgid  int
	ShellModes *termios.State
}

// NewController returns a controller bound to the shell's own tty fd,
// pgid and saved terminal modes.
func NewController(t *Table, ttyFd, shellPgid int, shellModes *termios.State) *Controller {
	return &Controller{Table: t, TTYFd: ttyFd, ShellPgid: shellPgid, ShellModes: shellModes}
}

// RunForeground grants j's pgid the controlling terminal, blocks until
// it stops or completes, then reclaims the tty for the shell and
// restores the shell's terminal modes.
func (c *Controller) RunForeground(j *Job) {
	if err := termios.SetForegroundPgrp(c.TTYFd, j.Pgid); err != nil {
		shlog.Debugf("tcsetpgrp(%d): %v", j.Pgid, err)
	}

	c.Table.WaitUntil(j, func(j *Job) bool {
		return j.IsCompleted() || j.AnyStopped()
	})

	c.reclaimTTY(j)
}

// Resume continues a previously stopped job in the foreground: it
// restores the job's saved terminal modes, grants it the tty, sends
// SIGCONT to its process group, waits for it to stop or complete again,
// then reclaims the tty.
func (c *Controller) Resume(j *Job) {
	if j.SavedModes != nil {
		if err := termios.Restore(c.TTYFd, j.SavedModes); err != nil {
			shlog.Debugf("restore saved modes: %v", err)
		}
	}
	if err := termios.SetForegroundPgrp(c.TTYFd, j.Pgid); err != nil {
		shlog.Debugf("tcsetpgrp(%d): %v", j.Pgid, err)
	}

	c.Table.ResetStoppedFlags(j)
	if err := unix.Kill(-j.Pgid, unix.SIGCONT); err != nil {
		shlog.Noticef("kill (SIGCONT): %v", err)
	}

	c.Table.WaitUntil(j, func(j *Job) bool {
		return j.IsCompleted() || j.AnyStopped()
	})

	c.reclaimTTY(j)
}

// ResumeBackground continues a stopped job in the background: it sends
// SIGCONT to the job's process group and returns immediately without
// touching the tty.
func ResumeBackground(t *Table, j *Job) error {
	t.ResetStoppedFlags(j)
	return unix.Kill(-j.Pgid, unix.SIGCONT)
}

func (c *Controller) reclaimTTY(j *Job) {
	if modes, err := termios.GetState(c.TTYFd); err == nil {
		j.SavedModes = modes
	} else {
		shlog.Debugf("capture terminal modes: %v", err)
	}

	if err := termios.SetForegroundPgrp(c.TTYFd, c.ShellPgid); err != nil {
		shlog.Debugf("tcsetpgrp(shell): %v", err)
	}
	if c.ShellModes != nil {
		if err := termios.Restore(c.TTYFd, c.ShellModes); err != nil {
			shlog.Debugf("restore shell modes: %v", err)
		}
	}
}
