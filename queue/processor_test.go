package queue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gridlockgame/gridlock/mainloop"
)

func newTestProcessor(t *testing.T, consumers int) *GameTaskProcessor {
	t.Helper()
	p, err := NewGameTaskProcessor("tasks", 16, consumers, mainloop.New(), Handlers{
		StateUpdate: func(task GameTask) (any, error) {
			return task.Payload, nil
		},
		CollisionCheck: func(task GameTask) (any, error) {
			return task.Payload == "hit", nil
		},
		PhysicsTick: func(task GameTask) (any, error) {
			return nil, errors.New("solver diverged")
		},
	})
	if err != nil {
		t.Fatalf("Failed to create processor: %v", err)
	}
	if err := p.Start(false); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return p
}

func TestProcessorRoutesResultByObjectID(t *testing.T) {
	p := newTestProcessor(t, 2)
	defer p.Shutdown()

	results := make(chan Result, 2)
	cb := func(res Result) { results <- res }

	if err := p.Submit(GameTask{Kind: TaskStateUpdate, ObjectID: 7, Payload: "moved"}, cb); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := p.Submit(GameTask{Kind: TaskCollisionCheck, ObjectID: 9, Payload: "hit"}, cb); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	seen := make(map[uint64]Result)
	for i := 0; i < 2; i++ {
		select {
		case res := <-results:
			seen[res.ObjectID] = res
		case <-time.After(time.Second):
			t.Fatal("Result was never routed")
		}
	}

	if res := seen[7]; res.Value != "moved" || res.Err != nil {
		t.Errorf("Unexpected state-update result: %+v", res)
	}
	if res := seen[9]; res.Value != true || res.Kind != TaskCollisionCheck {
		t.Errorf("Unexpected collision result: %+v", res)
	}
}

func TestProcessorDeliversErrors(t *testing.T) {
	p := newTestProcessor(t, 1)
	defer p.Shutdown()

	results := make(chan Result, 1)
	if err := p.Submit(GameTask{Kind: TaskPhysicsTick, ObjectID: 1}, func(res Result) {
		results <- res
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case res := <-results:
		if res.Err == nil {
			t.Error("Expected the handler error in the routed result")
		}
	case <-time.After(time.Second):
		t.Fatal("Error result was never routed")
	}
}

func TestProcessorCallbackConsumedOnce(t *testing.T) {
	p := newTestProcessor(t, 1)
	defer p.Shutdown()

	var mu sync.Mutex
	calls := 0
	done := make(chan struct{}, 2)
	cb := func(res Result) {
		mu.Lock()
		calls++
		mu.Unlock()
		done <- struct{}{}
	}

	if err := p.Submit(GameTask{Kind: TaskStateUpdate, ObjectID: 3}, cb); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	<-done

	// A second task for the same object without a callback must not
	// re-trigger the consumed registration.
	if err := p.Submit(GameTask{Kind: TaskStateUpdate, ObjectID: 3}, nil); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("Expected exactly one callback invocation, got %d", calls)
	}
}

func TestProcessorRejectsUnhandledKind(t *testing.T) {
	p := newTestProcessor(t, 1)
	defer p.Shutdown()

	// EffectTrigger has no handler in the test table.
	if err := p.Submit(GameTask{Kind: TaskEffectTrigger, ObjectID: 4}, nil); err != ErrNoHandler {
		t.Errorf("Expected ErrNoHandler, got %v", err)
	}
}

func TestShutdownResolvesPendingCallbacks(t *testing.T) {
	gate := make(chan struct{})
	p, err := NewGameTaskProcessor("tasks", 16, 1, mainloop.New(), Handlers{
		StateUpdate: func(task GameTask) (any, error) {
			<-gate
			return task.ObjectID, nil
		},
	})
	if err != nil {
		t.Fatalf("Failed to create processor: %v", err)
	}
	if err := p.Start(false); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Occupy the single consumer so the next task stays queued.
	if err := p.Submit(GameTask{Kind: TaskStateUpdate, ObjectID: 1}, nil); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for p.Pending() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("Consumer never picked up the first task")
		}
		time.Sleep(time.Millisecond)
	}

	results := make(chan Result, 1)
	if err := p.Submit(GameTask{Kind: TaskStateUpdate, ObjectID: 2}, func(res Result) {
		results <- res
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	shutdownDone := make(chan struct{})
	go func() {
		p.Shutdown()
		close(shutdownDone)
	}()
	time.Sleep(20 * time.Millisecond)
	close(gate)
	<-shutdownDone

	// The queued task either ran before the consumer stopped or was
	// dropped; its callback must fire either way.
	select {
	case res := <-results:
		if res.Err != nil && !errors.Is(res.Err, ErrQueueClosed) {
			t.Errorf("Expected ErrQueueClosed for a dropped task, got %v", res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Callback for an accepted task never fired after shutdown")
	}
}
