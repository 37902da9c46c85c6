// Package sched implements a registry of named, self-rescheduling
// periodic tasks.
//
// Each task runs once after its period and, upon finishing, schedules
// its next run another full period later. Wall-clock spacing is
// therefore the period plus the previous execution's duration; callers
// have designed around this additive drift, so it is not corrected
// into fixed-rate scheduling.
package sched

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gridlockgame/gridlock/mainloop"
)

// Scheduler is a registry of named periodic tasks.
type Scheduler struct {
	loop *mainloop.Loop

	mu     sync.RWMutex
	tasks  map[string]*intervalTask
	closed bool
}

// intervalTask is one self-rescheduling chain. The active flag is the
// cooperative cancellation token: once cleared, any queued execution
// becomes a no-op and no further run is scheduled.
type intervalTask struct {
	name      string
	period    time.Duration
	runOnMain bool
	body      func()

	active atomic.Bool

	timerMu sync.Mutex
	timer   *time.Timer
}

// New creates a Scheduler marshaling main-bound tasks onto loop.
func New(loop *mainloop.Loop) *Scheduler {
	return &Scheduler{
		loop:  loop,
		tasks: make(map[string]*intervalTask),
	}
}

// AddTask registers body to run every period, replacing any existing
// task of the same name. With runOnMain true the body executes on the
// main loop, otherwise on the timer goroutine. The first run happens
// one full period after registration.
func (s *Scheduler) AddTask(name string, period time.Duration, runOnMain bool, body func()) error {
	if name == "" {
		return ErrEmptyTaskName
	}
	if period <= 0 {
		return ErrInvalidPeriod
	}
	if body == nil {
		return ErrNilTaskBody
	}

	t := &intervalTask{
		name:      name,
		period:    period,
		runOnMain: runOnMain,
		body:      body,
	}
	t.active.Store(true)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	if old, ok := s.tasks[name]; ok {
		old.deactivate()
	}
	s.tasks[name] = t
	s.mu.Unlock()

	s.scheduleNext(t)
	return nil
}

// RemoveTask deactivates and forgets the named task. After it returns,
// no new execution of that task is scheduled; an execution already
// queued on the main loop becomes a no-op.
func (s *Scheduler) RemoveTask(name string) bool {
	s.mu.Lock()
	t, ok := s.tasks[name]
	if ok {
		delete(s.tasks, name)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	t.deactivate()
	return true
}

// HasTask reports whether a task of the given name is registered.
func (s *Scheduler) HasTask(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tasks[name]
	return ok
}

// Interval returns the period of the named task.
func (s *Scheduler) Interval(name string) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tasks[name]; ok {
		return t.period, true
	}
	return 0, false
}

// TaskCount returns the number of registered tasks.
func (s *Scheduler) TaskCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Shutdown deactivates and clears all tasks. The scheduler accepts no
// further registrations.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.closed = true
	tasks := s.tasks
	s.tasks = make(map[string]*intervalTask)
	s.mu.Unlock()

	for _, t := range tasks {
		t.deactivate()
	}
	if len(tasks) > 0 {
		log.Printf("[scheduler] shut down, cleared %d tasks", len(tasks))
	}
}

// scheduleNext arms the task's timer for one period from now.
func (s *Scheduler) scheduleNext(t *intervalTask) {
	if !t.active.Load() {
		return
	}
	t.timerMu.Lock()
	defer t.timerMu.Unlock()
	if !t.active.Load() {
		return
	}
	t.timer = time.AfterFunc(t.period, func() { s.fire(t) })
}

// fire runs one execution and chains the next one after it completes.
func (s *Scheduler) fire(t *intervalTask) {
	exec := func() {
		if !t.active.Load() {
			return
		}
		t.invoke()
		s.scheduleNext(t)
	}
	if t.runOnMain {
		s.loop.Post(exec)
	} else {
		exec()
	}
}

// invoke runs the body, containing panics so one broken task cannot
// kill its chain's goroutine.
func (t *intervalTask) invoke() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[scheduler] task %q panicked: %v", t.name, r)
		}
	}()
	t.body()
}

// deactivate clears the active flag and stops any armed timer.
func (t *intervalTask) deactivate() {
	t.active.Store(false)
	t.timerMu.Lock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timerMu.Unlock()
}
