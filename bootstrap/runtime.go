package bootstrap

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/gridlockgame/gridlock/actor"
	"github.com/gridlockgame/gridlock/config"
	"github.com/gridlockgame/gridlock/game"
	"github.com/gridlockgame/gridlock/mainloop"
	"github.com/gridlockgame/gridlock/persist"
	"github.com/gridlockgame/gridlock/pool"
	"github.com/gridlockgame/gridlock/queue"
	"github.com/gridlockgame/gridlock/sched"
)

// autosaveInterval is how often an in-progress session is snapshotted.
const autosaveInterval = 30 * time.Second

// MoveRequest is the state-update payload asking to place a monster at
// a new slot in the execution order.
type MoveRequest struct {
	MonsterID int
	Position  int
}

// Runtime owns every long-lived component of the game and their
// startup and shutdown ordering.
type Runtime struct {
	config *config.Config

	loop         *mainloop.Loop
	workerPool   *pool.WorkerPool
	runner       *pool.Runner
	interactions *pool.InteractionPool
	scheduler    *sched.Scheduler
	safetyActor  *actor.Actor
	processor    *queue.GameTaskProcessor
	session      *game.Session
	store        persist.Store

	manager *LifecycleManager

	loopCancel context.CancelFunc
	loopDone   chan struct{}

	// startedAt anchors the remaining-time calculation for autosaves.
	startedMu sync.Mutex
	startedAt time.Time

	shutdownChan chan os.Signal
}

// NewRuntime assembles a runtime from the configuration. Nothing is
// started until Start is called.
func NewRuntime(cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rt := &Runtime{
		config:       cfg,
		loop:         mainloop.New(),
		session:      game.NewSession(seed),
		manager:      NewLifecycleManager(),
		loopDone:     make(chan struct{}),
		shutdownChan: make(chan os.Signal, 1),
	}

	workerPool, err := pool.NewWorkerPool(pool.Options{
		Name:      "game-pool",
		CoreSize:  cfg.Pool.CoreSize,
		MaxSize:   cfg.Pool.MaxSize,
		QueueSize: cfg.Pool.QueueSize,
		KeepAlive: cfg.Pool.KeepAlive,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create worker pool")
	}
	rt.workerPool = workerPool
	rt.runner = pool.NewRunner(workerPool, rt.loop)

	rt.interactions, err = pool.NewInteractionPool(cfg.Interaction.Size, cfg.Interaction.QueueSize, rt.loop)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create interaction pool")
	}

	rt.scheduler = sched.New(rt.loop)

	rt.safetyActor, err = actor.New("safety", cfg.Actor.MailboxSize, rt.handleMessage)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create safety actor")
	}

	rt.processor, err = queue.NewGameTaskProcessor("game-tasks",
		cfg.Queue.Capacity, cfg.Queue.Consumers, rt.loop, rt.taskHandlers())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create task processor")
	}

	if cfg.Persistence.Path != "" {
		store, err := persist.NewFileStore(cfg.Persistence.Path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create snapshot store")
		}
		rt.store = store
	} else {
		rt.store = persist.NewMemoryStore()
	}

	if err := rt.registerServices(); err != nil {
		return nil, errors.Wrap(err, "failed to register services")
	}
	return rt, nil
}

// Start brings every component up in dependency order.
func (rt *Runtime) Start(ctx context.Context) error {
	return rt.manager.Start(ctx)
}

// Shutdown brings every component down in reverse start order.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	return rt.manager.Stop(ctx)
}

// Run starts the runtime if needed and blocks until a termination
// signal arrives or the context is cancelled, then shuts down.
func (rt *Runtime) Run(ctx context.Context) error {
	if !rt.manager.IsStarted() {
		if err := rt.Start(ctx); err != nil {
			return err
		}
	}

	signal.Notify(rt.shutdownChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(rt.shutdownChan)

	select {
	case sig := <-rt.shutdownChan:
		log.Printf("[bootstrap] Received %v, shutting down", sig)
	case <-ctx.Done():
		log.Printf("[bootstrap] Context cancelled, shutting down")
	}
	return rt.Shutdown(context.Background())
}

// NewGame sets up a fresh puzzle at the given difficulty.
func (rt *Runtime) NewGame(difficulty game.Difficulty) error {
	if err := rt.session.Setup(difficulty); err != nil {
		return errors.Wrap(err, "failed to set up session")
	}
	rt.markStarted(time.Now())
	return nil
}

// ResumeGame restores the last saved session from the snapshot store.
func (rt *Runtime) ResumeGame() error {
	snapshot, err := rt.store.LoadSnapshot()
	if err != nil {
		return errors.Wrap(err, "failed to load snapshot")
	}
	if err := rt.session.Restore(snapshot.Monsters); err != nil {
		return errors.Wrap(err, "failed to restore session")
	}

	// Rewind the clock so the remaining budget matches the save.
	difficulty := rt.session.Difficulty()
	elapsed := difficulty.TimeBudget() - snapshot.RemainingTime
	rt.markStarted(time.Now().Add(-elapsed))
	return nil
}

// SaveGame snapshots the current session to the store.
func (rt *Runtime) SaveGame() error {
	monsters := rt.session.Monsters()
	if len(monsters) == 0 {
		return game.ErrSessionNotSetUp
	}
	snapshot := persist.NewSnapshot(rt.session.Difficulty(), monsters, rt.remainingTime())
	return rt.store.SaveSnapshot(snapshot)
}

// MoveMonster routes a reorder request through the game task queue and
// waits for the result. It reports whether the move was applied.
func (rt *Runtime) MoveMonster(monsterID, position int) (bool, error) {
	task := queue.GameTask{
		Kind:     queue.TaskStateUpdate,
		ObjectID: uint64(monsterID),
		Payload:  MoveRequest{MonsterID: monsterID, Position: position},
	}

	resultChan := make(chan queue.Result, 1)
	if err := rt.processor.Submit(task, func(res queue.Result) {
		resultChan <- res
	}); err != nil {
		return false, errors.Wrap(err, "failed to submit move")
	}

	res := <-resultChan
	if res.Err != nil {
		return false, res.Err
	}
	applied, _ := res.Value.(bool)
	return applied, nil
}

// RunSafetyCheck asks the safety actor to evaluate the current
// arrangement and waits for the verdict. It returns whether the
// arrangement is safe.
func (rt *Runtime) RunSafetyCheck() (bool, error) {
	verdict := make(chan bool, 1)
	msg := actor.NewMessage(actor.KindSafetyCheck, verdict)

	if !rt.safetyActor.SendAndAwait(msg, rt.config.Actor.AwaitTimeout) {
		return false, errors.New("safety check did not complete in time")
	}

	select {
	case safe := <-verdict:
		return safe, nil
	default:
		// Dispatched but no verdict means the session refused the run,
		// either not set up or already completed.
		return false, errors.New("safety check refused; session not ready")
	}
}

// Session returns the game session.
func (rt *Runtime) Session() *game.Session { return rt.session }

// Runner returns the async task runner.
func (rt *Runtime) Runner() *pool.Runner { return rt.runner }

// Interactions returns the interaction pool.
func (rt *Runtime) Interactions() *pool.InteractionPool { return rt.interactions }

// Scheduler returns the interval scheduler.
func (rt *Runtime) Scheduler() *sched.Scheduler { return rt.scheduler }

// Processor returns the game task processor.
func (rt *Runtime) Processor() *queue.GameTaskProcessor { return rt.processor }

// Loop returns the main loop.
func (rt *Runtime) Loop() *mainloop.Loop { return rt.loop }

// Store returns the snapshot store.
func (rt *Runtime) Store() persist.Store { return rt.store }

// Config returns the runtime configuration.
func (rt *Runtime) Config() *config.Config { return rt.config }

// registerServices wires the components into the lifecycle manager.
// The main loop underpins everything that posts to it, so it starts
// first and stops last.
func (rt *Runtime) registerServices() error {
	if err := rt.manager.RegisterFunc("main-loop",
		func(ctx context.Context) error {
			loopCtx, cancel := context.WithCancel(context.Background())
			rt.loopCancel = cancel
			go func() {
				defer close(rt.loopDone)
				rt.loop.Run(loopCtx)
			}()
			return nil
		},
		func(ctx context.Context) error {
			rt.loopCancel()
			select {
			case <-rt.loopDone:
				return nil
			case <-ctx.Done():
				return errors.New("main loop did not stop in time")
			}
		}); err != nil {
		return err
	}

	if err := rt.manager.RegisterFunc("worker-pool", nil,
		func(ctx context.Context) error {
			return rt.workerPool.Shutdown(true, rt.config.Pool.ShutdownTimeout)
		}, "main-loop"); err != nil {
		return err
	}

	if err := rt.manager.RegisterFunc("task-runner", nil,
		func(ctx context.Context) error {
			rt.runner.CancelAllTasks(false)
			return nil
		}, "worker-pool"); err != nil {
		return err
	}

	if err := rt.manager.RegisterFunc("interaction-pool", nil,
		func(ctx context.Context) error {
			return rt.interactions.Shutdown(true, rt.config.Pool.ShutdownTimeout)
		}, "main-loop"); err != nil {
		return err
	}

	if err := rt.manager.RegisterFunc("safety-actor", nil,
		func(ctx context.Context) error {
			rt.safetyActor.Shutdown()
			return nil
		}, "main-loop"); err != nil {
		return err
	}

	if err := rt.manager.RegisterFunc("task-processor",
		func(ctx context.Context) error {
			return rt.processor.Start(false)
		},
		func(ctx context.Context) error {
			rt.processor.Shutdown()
			return nil
		}, "main-loop"); err != nil {
		return err
	}

	if err := rt.manager.RegisterFunc("scheduler",
		func(ctx context.Context) error {
			return rt.scheduler.AddTask("autosave", autosaveInterval, false, rt.autosave)
		},
		func(ctx context.Context) error {
			rt.scheduler.Shutdown()
			return nil
		}, "main-loop"); err != nil {
		return err
	}

	return nil
}

// handleMessage is the safety actor's dispatch handler.
func (rt *Runtime) handleMessage(msg *actor.Message) {
	switch msg.Kind {
	case actor.KindSafetyCheck:
		alreadyDone := rt.session.IsCompleted()
		safe := rt.session.Run()
		if alreadyDone || !rt.session.IsCompleted() {
			// Run refused; leave the verdict channel empty.
			return
		}
		if verdict, ok := msg.Payload.(chan bool); ok {
			verdict <- safe
		}
	case actor.KindCustomWork:
		if work, ok := msg.Payload.(func()); ok {
			work()
		}
	}
}

// taskHandlers builds the per-kind handler table for the game task
// queue. State updates are the only kind that mutates the session.
func (rt *Runtime) taskHandlers() queue.Handlers {
	return queue.Handlers{
		StateUpdate: func(task queue.GameTask) (any, error) {
			req, ok := task.Payload.(MoveRequest)
			if !ok {
				return false, errors.Errorf("unexpected state-update payload %T", task.Payload)
			}
			return rt.session.Move(req.MonsterID, req.Position), nil
		},
		EffectTrigger: func(task queue.GameTask) (any, error) {
			if rt.config.IsDebugEnabled() {
				log.Printf("[runtime] effect %v for object %d", task.Payload, task.ObjectID)
			}
			return task.Payload, nil
		},
		CollisionCheck: func(task queue.GameTask) (any, error) {
			return task.Payload, nil
		},
		PhysicsTick: func(task queue.GameTask) (any, error) {
			return task.Payload, nil
		},
	}
}

// autosave snapshots the session while a puzzle is in progress.
func (rt *Runtime) autosave() {
	if rt.session.IsCompleted() || len(rt.session.Monsters()) == 0 {
		return
	}
	if err := rt.SaveGame(); err != nil {
		log.Printf("[runtime] autosave failed: %v", err)
	}
}

func (rt *Runtime) markStarted(at time.Time) {
	rt.startedMu.Lock()
	rt.startedAt = at
	rt.startedMu.Unlock()
}

// remainingTime returns how much of the difficulty's budget is left.
func (rt *Runtime) remainingTime() time.Duration {
	rt.startedMu.Lock()
	startedAt := rt.startedAt
	rt.startedMu.Unlock()

	budget := rt.session.Difficulty().TimeBudget()
	if startedAt.IsZero() {
		return budget
	}
	remaining := budget - time.Since(startedAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
