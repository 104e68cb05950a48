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
	"sync"

	"golang.org/x/sys/unix"
)

// TableCapacity is the job table's fixed slot count (spec: "at least
// 256 slots").
const TableCapacity = 256

// Table is the fixed-capacity job registry. It is shared between the
// shell's main goroutine (the sole inserter) and the reaper goroutine,
// guarded by one mutex. The reaper records Stopped/Completed/Dead for
// reaped pids; the main goroutine also writes these flags, through
// MarkStageExited and ResetStoppedFlags, under the same mutex.
//
// Because Go delivers SIGCHLD to a regular goroutine rather than an
// actual signal handler, MarkProcessStatus is free to take this mutex —
// there is no async-signal-safety constraint to honor here, only the
// ordinary one of not blocking the reaper's drain loop for long.
type Table struct {
	mu    sync.Mutex
	cond  *sync.Cond
	slots [TableCapacity]*Job
}

// NewTable returns an empty job table.
func NewTable() *Table {
	t := &Table{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Insert assigns the smallest free job id to j, stores it in the first
// slot that is empty or holds a dead job, and returns the assigned id.
func (t *Table) Insert(j *Job) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	j.ID = t.smallestFreeIDLocked()
	for i, slot := range t.slots {
		if slot == nil || slot.Dead {
			t.slots[i] = j
			return j.ID
		}
	}
	panic("jobcontrol: job table full")
}

// FindByID returns the live job with the given id, or nil.
func (t *Table) FindByID(id int) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.slots {
		if j != nil && !j.Dead && j.ID == id {
			return j
		}
	}
	return nil
}

// MostRecent returns the live job with the highest id, or nil if none
// are live.
func (t *Table) MostRecent() *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	var best *Job
	for _, j := range t.slots {
		if j != nil && !j.Dead && (best == nil || j.ID > best.ID) {
			best = j
		}
	}
	return best
}

// IterateLive calls fn for every live job, in ascending job-id order.
func (t *Table) IterateLive(fn func(*Job)) {
	t.mu.Lock()
	largest := t.largestIDLocked()
	live := make([]*Job, 0, TableCapacity)
	for id := 1; id <= largest; id++ {
		for _, j := range t.slots {
			if j != nil && !j.Dead && j.ID == id {
				live = append(live, j)
				break
			}
		}
	}
	t.mu.Unlock()

	for _, j := range live {
		fn(j)
	}
}

// SmallestFreeID returns the smallest positive integer not currently
// held by a live job.
func (t *Table) SmallestFreeID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.smallestFreeIDLocked()
}

func (t *Table) smallestFreeIDLocked() int {
	id := 1
	for {
		taken := false
		for _, j := range t.slots {
			if j != nil && !j.Dead && j.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
		id++
	}
}

// LargestID returns the greatest job id among live jobs, or 0 if none
// are live.
func (t *Table) LargestID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.largestIDLocked()
}

func (t *Table) largestIDLocked() int {
	largest := 0
	for _, j := range t.slots {
		if j != nil && !j.Dead && j.ID > largest {
			largest = j.ID
		}
	}
	return largest
}

// MarkProcessStatus implements reaper.StatusSink: it finds the process
// with the given pid, records its status word and stopped/completed
// flag, and marks the owning job dead once every one of its processes
// has completed. It returns false if no live job owns pid.
func (t *Table) MarkProcessStatus(pid int, status unix.WaitStatus) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, j := range t.slots {
		if j == nil || j.Dead {
			continue
		}
		for _, p := range j.Processes {
			if p.Pid != pid {
				continue
			}
			p.Status = status
			if status.Stopped() {
				p.Stopped = true
			} else {
				p.Completed = true
				p.Stopped = false
			}
			if j.IsCompleted() {
				j.Dead = true
			}
			t.cond.Broadcast()
			return true
		}
	}
	return false
}

// MarkStageExited records that p never actually forked (its program
// could not be found by the launcher) as if it had immediately exited
// with status, under the same lock the reaper uses for real pids — so
// a concurrent WaitUntil/IsCompleted check never races this write.
func (t *Table) MarkStageExited(j *Job, p *Process, status unix.WaitStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p.Status = status
	p.Completed = true
	if j.IsCompleted() {
		j.Dead = true
	}
	t.cond.Broadcast()
}

// ResetStoppedFlags clears every process in j's Stopped flag, under the
// same lock the reaper uses, so a subsequent WaitUntil observes the
// resumed job's next stop/completion rather than a stale one left over
// from before a SIGCONT.
func (t *Table) ResetStoppedFlags(j *Job) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range j.Processes {
		p.Stopped = false
	}
}

// WaitUntil blocks until pred(job) is true, rechecking it whenever the
// reaper reports a status change. The caller must not hold any lock of
// its own that the reaper might need.
func (t *Table) WaitUntil(j *Job, pred func(*Job) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for !pred(j) {
		t.cond.Wait()
	}
}
