package wizard

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleReplacesPendingTimer(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired int32
	for i := 0; i < 5; i++ {
		s.Schedule("debounce", 30*time.Millisecond, func() {
			atomic.AddInt32(&fired, 1)
		})
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, 5*time.Millisecond)
	// No stragglers.
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
}

func TestIndependentNamesFireIndependently(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var a, b int32
	s.Schedule("a", 10*time.Millisecond, func() { atomic.AddInt32(&a, 1) })
	s.Schedule("b", 10*time.Millisecond, func() { atomic.AddInt32(&b, 1) })

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&a) == 1 && atomic.LoadInt32(&b) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCancelStopsTimer(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired int32
	s.Schedule("x", 20*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	s.Cancel("x")

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&fired))
}

func TestStopCancelsEverything(t *testing.T) {
	s := NewScheduler()

	var fired int32
	s.Schedule("x", 20*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	s.Schedule("y", 20*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	s.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&fired))
}
