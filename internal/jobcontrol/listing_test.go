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
	"bytes"
	"testing"
)

func TestListJobsSkipsForegroundAndDead(t *testing.T) {
	table := NewTable()

	bg1 := NewJob([][]string{{"sleep", "5"}}, false)
	table.Insert(bg1)

	fg := NewJob([][]string{{"vim"}}, true)
	table.Insert(fg)

	bg2 := NewJob([][]string{{"sleep", "10"}}, false)
	table.Insert(bg2)

	dead := NewJob([][]string{{"true"}}, false)
	table.Insert(dead)
	dead.Dead = true

	var buf bytes.Buffer
	ListJobs(table, &buf)

	want := "1: sleep 5 & \n3: sleep 10 & \n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestListJobsEmptyWhenNoBackgroundJobs(t *testing.T) {
	table := NewTable()
	var buf bytes.Buffer
	ListJobs(table, &buf)
	if buf.Len() != 0 {
		t.Fatalf("expected empty output, got %q", buf.String())
	}
}

func TestListJobsPipelineFormat(t *testing.T) {
	table := NewTable()
	job := NewJob([][]string{{"ls"}, {"wc", "-l"}}, false)
	table.Insert(job)

	var buf bytes.Buffer
	ListJobs(table, &buf)

	want := "1: ls | wc -l & \n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
