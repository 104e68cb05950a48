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

// Package termios wraps the tty primitives wsh's foreground controller
// needs: snapshotting and restoring terminal modes, and transferring
// foreground process-group ownership of the controlling terminal.
package termios

import (
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// State holds a terminal's mode bits, captured so they can later be
// restored (e.g. after a job that changed line discipline exits).
type State struct {
	Termios unix.Termios
}

// GetState returns the current mode of the terminal connected to fd.
func GetState(fd int) (*State, error) {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}
	return &State{Termios: *t}, nil
}

// Restore sets the terminal connected to fd back to a previously
// captured state.
func Restore(fd int, state *State) error {
	return termios.Tcsetattr(uintptr(fd), termios.TCSADRAIN, &state.Termios)
}

// ForegroundPgrp returns the process group currently owning fd as its
// controlling terminal.
func ForegroundPgrp(fd int) (int, error) {
	pgid, err := unix.IoctlGetInt(fd, unix.TIOCGPGRP)
	if err != nil {
		return 0, err
	}
	return pgid, nil
}

// SetForegroundPgrp hands fd's controlling-terminal ownership to pgid.
func SetForegroundPgrp(fd int, pgid int) error {
	return unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, pgid)
}
