package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// DefaultWorkers returns the number of frames encoded in parallel when the
// user does not choose: one per logical CPU.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// Workers resolves a requested worker count against the number of jobs.
func Workers(requested, jobs int) int {
	n := requested
	if n <= 0 {
		n = DefaultWorkers()
	}
	if n > jobs {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}
