package logic

import (
	"sync"
	"time"
)

// FakeScheduler is a manual clock for tests. Timers only fire from Advance,
// on the calling goroutine, in deadline order.
type FakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *FakeScheduler
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

// NewFakeScheduler creates a FakeScheduler at time zero.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

// AfterFunc schedules f to run once the clock has advanced by d.
func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &fakeTimer{s: s, at: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Stop cancels the timer.
func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.s.remove(t)
	return true
}

// Advance moves the clock forward by d, running every timer that falls due.
// Timers armed by a callback run in the same call if they fall due too.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.nextDue(target)
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		next.fired = true
		s.now = next.at
		s.remove(next)
		s.mu.Unlock()

		next.f()
	}
}

// Now returns the elapsed fake time.
func (s *FakeScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of armed timers.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *FakeScheduler) nextDue(target time.Duration) *fakeTimer {
	var next *fakeTimer
	for _, t := range s.timers {
		if t.at > target {
			continue
		}
		if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

func (s *FakeScheduler) remove(t *fakeTimer) {
	for i, cur := range s.timers {
		if cur == t {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return
		}
	}
}

// RecordingSink records fired events for test assertions.
type RecordingSink struct {
	mu     sync.Mutex
	Events []map[string]string
	Names  []string

	// FireError, if set, is returned by Fire and nothing is recorded.
	FireError error
}

// Fire records the event.
func (r *RecordingSink) Fire(event string, data map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FireError != nil {
		return r.FireError
	}
	r.Names = append(r.Names, event)
	r.Events = append(r.Events, data)
	return nil
}

// Actions returns the recorded action values in order.
func (r *RecordingSink) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e[AttrAction])
	}
	return out
}

// ActionsFor returns the recorded actions of one button, by full id.
func (r *RecordingSink) ActionsFor(fullID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.Events {
		if e[AttrFullID] == fullID {
			out = append(out, e[AttrAction])
		}
	}
	return out
}

// SetFireError changes the error returned by Fire.
func (r *RecordingSink) SetFireError(err error) {
	r.mu.Lock()
	r.FireError = err
	r.mu.Unlock()
}
