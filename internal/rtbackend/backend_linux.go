//go:build linux

package rtbackend

import (
	"fmt"
	"runtime"
	"syscall"
	"time"
	"unsafe"
)

// cpuSet mirrors glibc's cpu_set_t (CPU_SETSIZE=1024 bits) for
// sched_setaffinity(2).
type cpuSet [16]uint64

func (s *cpuSet) add(cpu int) {
	if cpu < 0 || cpu >= len(s)*64 {
		return
	}
	s[cpu/64] |= 1 << uint(cpu%64)
}

type schedParam struct {
	priority int32
}

const schedFIFO = 1 // SCHED_FIFO

// linuxBackend elevates the calling thread to SCHED_FIFO and pins it to
// the workspace's configured core set via raw sched_setscheduler/
// sched_setaffinity syscalls (spec §4.8). No example repo imports
// golang.org/x/sys/unix, which would be the idiomatic ecosystem wrapper
// for these — see DESIGN.md's standard-library justification.
type linuxBackend struct{}

func newPlatformBackend() Backend { return &linuxBackend{} }

func (b *linuxBackend) Prepare(cores []int) error {
	runtime.LockOSThread()
	tid := syscall.Gettid()

	param := schedParam{priority: 80}
	if _, _, errno := syscall.Syscall(syscall.SYS_SCHED_SETSCHEDULER,
		uintptr(tid), uintptr(schedFIFO), uintptr(unsafe.Pointer(&param))); errno != 0 {
		return fmt.Errorf("sched_setscheduler: %w", errno)
	}

	if len(cores) == 0 {
		return nil
	}
	var set cpuSet
	for _, c := range cores {
		set.add(c)
	}
	if _, _, errno := syscall.Syscall(syscall.SYS_SCHED_SETAFFINITY,
		uintptr(tid), unsafe.Sizeof(set), uintptr(unsafe.Pointer(&set))); errno != 0 {
		return fmt.Errorf("sched_setaffinity: %w", errno)
	}
	return nil
}

// SleepUntil busy-parks via time.Sleep to deadline and reports how far
// past deadline the caller resumed, so the scheduler can count an
// overrun (spec §4.8/§8 "deadline-overrun detection").
func (b *linuxBackend) SleepUntil(deadline time.Time) time.Duration {
	d := time.Until(deadline)
	if d <= 0 {
		return -d
	}
	time.Sleep(d)
	if over := time.Since(deadline); over > 0 {
		return over
	}
	return 0
}
