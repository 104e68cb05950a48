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
	"io"
)

// ListJobs writes every live background job to w, in ascending job-id
// order, as "<id>: <name> <args> [| <name> <args>]... & ". Foreground
// jobs (there is at most one, per invariant 4) are skipped. If no
// background jobs are live, nothing is written.
func ListJobs(t *Table, w io.Writer) {
	t.IterateLive(func(j *Job) {
		if j.Foreground {
			return
		}
		fmt.Fprintf(w, "%d: %s\n", j.ID, j.String())
	})
}
