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

package jobcontrol_test

import (
	"fmt"
	"os"
	"time"

	. "gopkg.in/check.v1"

	"golang.org/x/sys/unix"

	"github.com/wsh-project/wsh/internal/jobcontrol"
	"github.com/wsh-project/wsh/internal/reaper"
	"github.com/wsh-project/wsh/internal/termios"
)

// foregroundSuite drives the foreground/background controller against a
// real pty, since tcsetpgrp/TIOCGPGRP only make sense against an actual
// controlling terminal. It gives the test process its own session so
// the opened pty slave becomes that terminal, the way a freshly started
// wsh process's own session and terminal relate to each other.
type foregroundSuite struct {
	ptx, pty   *os.File
	table      *jobcontrol.Table
	controller *jobcontrol.Controller
}

var _ = Suite(&foregroundSuite{})

func (s *foregroundSuite) SetUpTest(c *C) {
	if _, err := unix.Setsid(); err != nil {
		c.Skip("cannot create a new session in this environment: " + err.Error())
	}

	ptx, pty, err := openPtyPair()
	if err != nil {
		c.Skip("cannot open a pty in this environment: " + err.Error())
	}
	s.ptx, s.pty = ptx, pty

	s.table = jobcontrol.NewTable()
	c.Assert(reaper.Start(s.table), IsNil)

	modes, err := termios.GetState(int(s.pty.Fd()))
	c.Assert(err, IsNil)
	s.controller = jobcontrol.NewController(s.table, int(s.pty.Fd()), unix.Getpgrp(), modes)
}

func (s *foregroundSuite) TearDownTest(c *C) {
	reaper.Stop()
	if s.pty != nil {
		s.pty.Close()
	}
	if s.ptx != nil {
		s.ptx.Close()
	}
}

func (s *foregroundSuite) launchForeground(c *C, argv []string) *jobcontrol.Job {
	job := jobcontrol.NewJob([][]string{argv}, true)
	job.Stdin, job.Stdout, job.Stderr = s.pty, s.pty, s.pty
	s.table.Insert(job)

	err := jobcontrol.Launch(job, int(s.pty.Fd()), s.table)
	c.Assert(err, IsNil)
	return job
}

func (s *foregroundSuite) TestRunForegroundGrantsTTYThenReclaimsForShell(c *C) {
	job := s.launchForeground(c, []string{"true"})

	s.controller.RunForeground(job)

	c.Check(job.Dead, Equals, true)

	fg, err := termios.ForegroundPgrp(int(s.pty.Fd()))
	c.Assert(err, IsNil)
	c.Check(fg, Equals, unix.Getpgrp())
}

func (s *foregroundSuite) TestResumeContinuesAStoppedForegroundJob(c *C) {
	job := s.launchForeground(c, []string{"sh", "-c", "kill -STOP $$; exit 7"})

	s.controller.RunForeground(job)

	c.Assert(job.AnyStopped(), Equals, true)
	c.Assert(job.Dead, Equals, false)
	c.Assert(job.SavedModes, NotNil)

	s.controller.Resume(job)

	c.Check(job.Dead, Equals, true)
	c.Check(job.Processes[0].Status.ExitStatus(), Equals, 7)

	fg, err := termios.ForegroundPgrp(int(s.pty.Fd()))
	c.Assert(err, IsNil)
	c.Check(fg, Equals, unix.Getpgrp())
}

func (s *foregroundSuite) TestResumeBackgroundSendsSIGCONTWithoutWaiting(c *C) {
	job := jobcontrol.NewJob([][]string{{"sh", "-c", "kill -STOP $$; sleep 0.2"}}, false)
	job.Stdin, job.Stdout, job.Stderr = s.pty, s.pty, s.pty
	s.table.Insert(job)

	c.Assert(jobcontrol.Launch(job, int(s.pty.Fd()), s.table), IsNil)

	deadline := time.Now().Add(2 * time.Second)
	for !job.AnyStopped() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	c.Assert(job.AnyStopped(), Equals, true)

	c.Assert(jobcontrol.ResumeBackground(s.table, job), IsNil)

	// ResumeBackground clears the stopped flag eagerly and returns
	// immediately; it never blocks on the job's completion.
	c.Check(job.AnyStopped(), Equals, false)

	deadline = time.Now().Add(2 * time.Second)
	for !job.Dead && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	c.Check(job.Dead, Equals, true)
}

// openPtyPair allocates a devpts pair via the TIOCSPTLCK/TIOCGPTN ioctl
// sequence on /dev/ptmx, so tests can drive the controller against a
// real controlling terminal.
func openPtyPair() (ptx, pty *os.File, err error) {
	ptx, err = os.OpenFile("/dev/ptmx", os.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, nil, err
	}
	if err := unix.IoctlSetPointerInt(int(ptx.Fd()), unix.TIOCSPTLCK, 0); err != nil {
		ptx.Close()
		return nil, nil, err
	}
	n, err := unix.IoctlGetInt(int(ptx.Fd()), unix.TIOCGPTN)
	if err != nil {
		ptx.Close()
		return nil, nil, err
	}
	pty, err = os.OpenFile(fmt.Sprintf("/dev/pts/%d", n), os.O_RDWR, 0)
	if err != nil {
		ptx.Close()
		return nil, nil, err
	}
	return ptx, pty, nil
}
