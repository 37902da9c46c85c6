package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/gridlockgame/gridlock/mainloop"
)

func TestAddTaskValidation(t *testing.T) {
	s := New(mainloop.New())
	defer s.Shutdown()

	if err := s.AddTask("", time.Millisecond, false, func() {}); err != ErrEmptyTaskName {
		t.Errorf("Expected ErrEmptyTaskName, got %v", err)
	}
	if err := s.AddTask("t", 0, false, func() {}); err != ErrInvalidPeriod {
		t.Errorf("Expected ErrInvalidPeriod, got %v", err)
	}
	if err := s.AddTask("t", time.Millisecond, false, nil); err != ErrNilTaskBody {
		t.Errorf("Expected ErrNilTaskBody, got %v", err)
	}
}

func TestPeriodicExecution(t *testing.T) {
	s := New(mainloop.New())
	defer s.Shutdown()

	var count atomic.Int32
	if err := s.AddTask("tick", 10*time.Millisecond, false, func() {
		count.Add(1)
	}); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && count.Load() < 3 {
		time.Sleep(5 * time.Millisecond)
	}
	if count.Load() < 3 {
		t.Errorf("Expected at least 3 executions, got %d", count.Load())
	}
}

func TestRemoveTaskStopsExecutions(t *testing.T) {
	s := New(mainloop.New())
	defer s.Shutdown()

	var count atomic.Int32
	if err := s.AddTask("t", 50*time.Millisecond, false, func() {
		count.Add(1)
	}); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	// Wait for one observed increment, then remove.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && count.Load() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if count.Load() == 0 {
		t.Fatal("Task never ran")
	}

	if !s.RemoveTask("t") {
		t.Fatal("RemoveTask reported the task missing")
	}
	after := count.Load()

	time.Sleep(500 * time.Millisecond)
	if got := count.Load(); got != after {
		t.Errorf("Expected no executions after removal, count went %d -> %d", after, got)
	}
	if s.HasTask("t") {
		t.Error("Expected HasTask to be false after removal")
	}
}

func TestRemoveTaskDoesNotAffectOthers(t *testing.T) {
	s := New(mainloop.New())
	defer s.Shutdown()

	var kept atomic.Int32
	if err := s.AddTask("kept", 10*time.Millisecond, false, func() {
		kept.Add(1)
	}); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if err := s.AddTask("doomed", 10*time.Millisecond, false, func() {}); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	s.RemoveTask("doomed")

	before := kept.Load()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && kept.Load() <= before+1 {
		time.Sleep(5 * time.Millisecond)
	}
	if kept.Load() <= before+1 {
		t.Error("Surviving task stopped running after an unrelated removal")
	}
}

func TestAddTaskReplacesExisting(t *testing.T) {
	s := New(mainloop.New())
	defer s.Shutdown()

	var old, repl atomic.Int32
	if err := s.AddTask("t", 10*time.Millisecond, false, func() {
		old.Add(1)
	}); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if err := s.AddTask("t", 20*time.Millisecond, false, func() {
		repl.Add(1)
	}); err != nil {
		t.Fatalf("AddTask replacement failed: %v", err)
	}

	oldAt := old.Load()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && repl.Load() < 2 {
		time.Sleep(5 * time.Millisecond)
	}
	if repl.Load() < 2 {
		t.Error("Replacement task never ran")
	}
	// The replaced chain may have had one execution already in flight
	// at replacement time; it must not keep running.
	time.Sleep(100 * time.Millisecond)
	if got := old.Load(); got > oldAt+1 {
		t.Errorf("Replaced task kept running: %d -> %d", oldAt, got)
	}

	if period, ok := s.Interval("t"); !ok || period != 20*time.Millisecond {
		t.Errorf("Expected interval 20ms after replacement, got %v (ok=%v)", period, ok)
	}
}

func TestRunOnMain(t *testing.T) {
	loop := mainloop.New()
	s := New(loop)
	defer s.Shutdown()

	var count atomic.Int32
	if err := s.AddTask("ui", 10*time.Millisecond, true, func() {
		count.Add(1)
	}); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	// The body only runs when the main loop drains.
	time.Sleep(50 * time.Millisecond)
	if count.Load() != 0 {
		t.Fatalf("Main-bound task ran off the main loop %d times", count.Load())
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && count.Load() < 2 {
		loop.Drain()
		time.Sleep(5 * time.Millisecond)
	}
	if count.Load() < 2 {
		t.Error("Main-bound task did not run on drain")
	}
}

func TestShutdownClearsTasks(t *testing.T) {
	s := New(mainloop.New())

	var count atomic.Int32
	s.AddTask("a", 10*time.Millisecond, false, func() { count.Add(1) })
	s.AddTask("b", 10*time.Millisecond, false, func() { count.Add(1) })

	s.Shutdown()
	after := count.Load()

	time.Sleep(100 * time.Millisecond)
	if got := count.Load(); got != after {
		t.Errorf("Tasks kept running after shutdown: %d -> %d", after, got)
	}
	if s.TaskCount() != 0 {
		t.Errorf("Expected no tasks after shutdown, got %d", s.TaskCount())
	}
	if err := s.AddTask("c", time.Millisecond, false, func() {}); err != ErrSchedulerClosed {
		t.Errorf("Expected ErrSchedulerClosed, got %v", err)
	}
}
