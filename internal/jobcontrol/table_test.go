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
	"testing"

	"golang.org/x/sys/unix"
)

func TestInsertAssignsSmallestFreeID(t *testing.T) {
	table := NewTable()
	j1 := NewJob([][]string{{"sleep", "1"}}, false)
	j2 := NewJob([][]string{{"sleep", "1"}}, false)

	if id := table.Insert(j1); id != 1 {
		t.Fatalf("expected first job to get id 1, got %d", id)
	}
	if id := table.Insert(j2); id != 2 {
		t.Fatalf("expected second job to get id 2, got %d", id)
	}

	j1.Dead = true
	if got := table.SmallestFreeID(); got != 1 {
		t.Fatalf("expected id 1 to be free again after job 1 died, got %d", got)
	}

	j3 := NewJob([][]string{{"sleep", "1"}}, false)
	if id := table.Insert(j3); id != 1 {
		t.Fatalf("expected reused id 1, got %d", id)
	}
}

func TestSmallestFreeIDOnEmptyTableIsOne(t *testing.T) {
	table := NewTable()
	if got := table.SmallestFreeID(); got != 1 {
		t.Fatalf("expected 1 on empty table, got %d", got)
	}
}

func TestLargestIDIgnoresDeadJobs(t *testing.T) {
	table := NewTable()
	j1 := NewJob([][]string{{"a"}}, false)
	j2 := NewJob([][]string{{"b"}}, false)
	table.Insert(j1)
	table.Insert(j2)

	if got := table.LargestID(); got != 2 {
		t.Fatalf("expected largest id 2, got %d", got)
	}

	j2.Dead = true
	if got := table.LargestID(); got != 1 {
		t.Fatalf("expected largest id 1 once job 2 died, got %d", got)
	}
}

func TestIterateLiveIsIDOrdered(t *testing.T) {
	table := NewTable()
	j1 := NewJob([][]string{{"a"}}, false)
	j2 := NewJob([][]string{{"b"}}, false)
	j3 := NewJob([][]string{{"c"}}, false)
	table.Insert(j1)
	table.Insert(j2)
	table.Insert(j3)
	j2.Dead = true

	var ids []int
	table.IterateLive(func(j *Job) { ids = append(ids, j.ID) })

	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("expected [1 3], got %v", ids)
	}
}

func TestMarkProcessStatusUpdatesJobAndDead(t *testing.T) {
	table := NewTable()
	job := NewJob([][]string{{"true"}}, false)
	job.Processes[0].Pid = 4242
	table.Insert(job)

	found := table.MarkProcessStatus(4242, exitedStatus(0))
	if !found {
		t.Fatalf("expected pid to be found")
	}
	if !job.Processes[0].Completed {
		t.Fatalf("expected process to be marked completed")
	}
	if !job.Dead {
		t.Fatalf("expected job to be marked dead once its only process completed")
	}
}

func TestMarkProcessStatusUnknownPidNotFound(t *testing.T) {
	table := NewTable()
	if table.MarkProcessStatus(99999, exitedStatus(0)) {
		t.Fatalf("expected unknown pid to be reported not found")
	}
}

// exitedStatus builds a WaitStatus as if a process exited cleanly with
// the given code — unix.WaitStatus has no public constructor, so tests
// encode the low byte pair the kernel uses for a normal exit.
func exitedStatus(code int) unix.WaitStatus {
	return unix.WaitStatus(code << 8)
}
