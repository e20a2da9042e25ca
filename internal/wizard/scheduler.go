package wizard

import (
	"sync"
	"time"
)

// Scheduler owns every deferred side effect the controller arms: the
// auto-save debounce, the store mirror debounce, and the navigation
// flag reset. Scheduling under an existing name replaces the pending
// timer, giving debounce semantics; Stop cancels everything on
// teardown so no timer outlives the controller.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

// Schedule arms fn to run after d, replacing any pending timer with the
// same name.
func (s *Scheduler) Schedule(name string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[name]; ok {
		t.Stop()
	}
	s.timers[name] = time.AfterFunc(d, fn)
}

// Cancel drops the pending timer with the given name, if any.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
	}
}

// Stop cancels every pending timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, t := range s.timers {
		t.Stop()
		delete(s.timers, name)
	}
}
