package queue

import (
	"log"
	"sync"

	"github.com/gridlockgame/gridlock/mainloop"
)

// TaskKind is the tag of a typed game task.
type TaskKind uint8

const (
	// TaskStateUpdate mutates a piece of game state
	TaskStateUpdate TaskKind = iota

	// TaskEffectTrigger fires a visual or audio effect
	TaskEffectTrigger

	// TaskCollisionCheck evaluates a collision query
	TaskCollisionCheck

	// TaskPhysicsTick advances a physics step
	TaskPhysicsTick
)

// String returns the string representation of TaskKind.
func (k TaskKind) String() string {
	switch k {
	case TaskStateUpdate:
		return "state-update"
	case TaskEffectTrigger:
		return "effect-trigger"
	case TaskCollisionCheck:
		return "collision-check"
	case TaskPhysicsTick:
		return "physics-tick"
	default:
		return "unknown"
	}
}

// GameTask is one typed unit of game work.
type GameTask struct {
	// Kind selects the handler
	Kind TaskKind

	// ObjectID correlates the asynchronous result back to whichever
	// caller registered a callback for it
	ObjectID uint64

	// Payload carries kind-specific data
	Payload any
}

// Result is delivered to the correlation callback registered for the
// task's object id.
type Result struct {
	ObjectID uint64
	Kind     TaskKind
	Value    any
	Err      error
}

// HandlerFunc processes one task of a given kind.
type HandlerFunc func(task GameTask) (any, error)

// Handlers holds one handler per task kind. A nil handler rejects the
// corresponding kind at submission time.
type Handlers struct {
	StateUpdate    HandlerFunc
	EffectTrigger  HandlerFunc
	CollisionCheck HandlerFunc
	PhysicsTick    HandlerFunc
}

// forKind returns the handler for a kind, or nil.
func (h Handlers) forKind(kind TaskKind) HandlerFunc {
	switch kind {
	case TaskStateUpdate:
		return h.StateUpdate
	case TaskEffectTrigger:
		return h.EffectTrigger
	case TaskCollisionCheck:
		return h.CollisionCheck
	case TaskPhysicsTick:
		return h.PhysicsTick
	default:
		return nil
	}
}

// GameTaskProcessor layers typed tasks and correlation callbacks over
// a Queue[GameTask].
type GameTaskProcessor struct {
	queue    *Queue[GameTask]
	handlers Handlers

	mu        sync.Mutex
	callbacks map[uint64]func(Result)
}

// NewGameTaskProcessor creates a processor with the given queue
// parameters and per-kind handlers.
func NewGameTaskProcessor(name string, capacity, consumers int, loop *mainloop.Loop, handlers Handlers) (*GameTaskProcessor, error) {
	q, err := New[GameTask](name, capacity, consumers, loop)
	if err != nil {
		return nil, err
	}
	return &GameTaskProcessor{
		queue:     q,
		handlers:  handlers,
		callbacks: make(map[uint64]func(Result)),
	}, nil
}

// Start spawns the underlying consumers.
func (p *GameTaskProcessor) Start(onMainLoop bool) error {
	return p.queue.Start(p.consume, onMainLoop)
}

// Submit registers callback under the task's object id (replacing any
// previous registration for that id) and enqueues the task. Submit
// blocks when the queue is at capacity. A nil callback just runs the
// task.
func (p *GameTaskProcessor) Submit(task GameTask, callback func(Result)) error {
	if p.handlers.forKind(task.Kind) == nil {
		return ErrNoHandler
	}

	if callback != nil {
		p.mu.Lock()
		p.callbacks[task.ObjectID] = callback
		p.mu.Unlock()
	}

	if err := p.queue.Produce(task); err != nil {
		// Never leave a registered callback behind for a task that
		// was not accepted.
		p.mu.Lock()
		delete(p.callbacks, task.ObjectID)
		p.mu.Unlock()
		return err
	}
	return nil
}

// Pending returns the number of queued tasks.
func (p *GameTaskProcessor) Pending() int {
	return p.queue.Len()
}

// Shutdown stops the underlying queue and resolves every callback that
// is still registered with ErrQueueClosed. A caller waiting on an
// accepted task always gets a terminal result.
func (p *GameTaskProcessor) Shutdown() {
	p.queue.Shutdown()

	p.mu.Lock()
	pending := p.callbacks
	p.callbacks = make(map[uint64]func(Result))
	p.mu.Unlock()

	if len(pending) > 0 {
		log.Printf("[%s] failing %d unresolved callbacks on shutdown", p.queue.name, len(pending))
	}
	for id, callback := range pending {
		callback(Result{ObjectID: id, Err: ErrQueueClosed})
	}
}

// consume dispatches one task by tag and routes its result.
func (p *GameTaskProcessor) consume(task GameTask) {
	handler := p.handlers.forKind(task.Kind)
	if handler == nil {
		// Submission checks the kind; reaching here means the handler
		// table changed underneath us, which it never should.
		log.Printf("[%s] no handler for %s task, object %d", p.queue.name, task.Kind, task.ObjectID)
		return
	}

	value, err := handler(task)
	p.route(Result{
		ObjectID: task.ObjectID,
		Kind:     task.Kind,
		Value:    value,
		Err:      err,
	})
}

// route delivers the result to the callback waiting on the object id,
// consuming the registration.
func (p *GameTaskProcessor) route(res Result) {
	p.mu.Lock()
	callback, ok := p.callbacks[res.ObjectID]
	if ok {
		delete(p.callbacks, res.ObjectID)
	}
	p.mu.Unlock()

	if ok {
		callback(res)
	}
}
