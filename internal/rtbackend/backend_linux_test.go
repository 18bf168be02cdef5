//go:build linux

package rtbackend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCPUSetAddSetsExpectedBit(t *testing.T) {
	var set cpuSet
	set.add(0)
	set.add(65)
	require.Equal(t, uint64(1), set[0]&1)
	require.Equal(t, uint64(2), set[1]&2)
}

func TestCPUSetAddIgnoresOutOfRange(t *testing.T) {
	var set cpuSet
	set.add(-1)
	set.add(len(set) * 64)
	for _, word := range set {
		require.Equal(t, uint64(0), word)
	}
}

func TestLinuxBackendSleepUntilReturnsNoOverrunWhenDeadlineIsFuture(t *testing.T) {
	b := &linuxBackend{}
	overrun := b.SleepUntil(time.Now().Add(5 * time.Millisecond))
	require.Equal(t, time.Duration(0), overrun)
}

func TestLinuxBackendSleepUntilReportsOverrunForPastDeadline(t *testing.T) {
	b := &linuxBackend{}
	overrun := b.SleepUntil(time.Now().Add(-10 * time.Millisecond))
	require.Greater(t, overrun, time.Duration(0))
}

func TestNewReturnsLinuxBackendOnLinux(t *testing.T) {
	b := New()
	_, ok := b.(*linuxBackend)
	require.True(t, ok)
}
