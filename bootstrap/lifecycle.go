// Package bootstrap wires configuration, the main loop, the pools, the
// scheduler, the safety actor, and persistence into one runnable game
// runtime.
package bootstrap

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Service is one unit managed by the lifecycle manager.
type Service interface {
	// Name identifies the service in logs and dependency lists
	Name() string

	// Start brings the service up; it must be safe to call Stop after
	// a failed Start
	Start(ctx context.Context) error

	// Stop brings the service down
	Stop(ctx context.Context) error
}

// funcService adapts start/stop closures to the Service interface.
type funcService struct {
	name  string
	start func(ctx context.Context) error
	stop  func(ctx context.Context) error
}

func (s *funcService) Name() string { return s.name }

func (s *funcService) Start(ctx context.Context) error {
	if s.start == nil {
		return nil
	}
	return s.start(ctx)
}

func (s *funcService) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	return s.stop(ctx)
}

// LifecycleManager starts registered services in dependency order and
// stops them in reverse start order.
type LifecycleManager struct {
	services     map[string]Service
	dependencies map[string][]string
	startOrder   []string

	mutex   sync.Mutex
	started bool
	timeout time.Duration
}

// NewLifecycleManager creates an empty lifecycle manager.
func NewLifecycleManager() *LifecycleManager {
	return &LifecycleManager{
		services:     make(map[string]Service),
		dependencies: make(map[string][]string),
		timeout:      30 * time.Second,
	}
}

// SetTimeout sets the per-service start and stop timeout.
func (lm *LifecycleManager) SetTimeout(timeout time.Duration) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	lm.timeout = timeout
}

// Register adds a service with optional dependencies. Dependencies are
// started first and stopped last.
func (lm *LifecycleManager) Register(name string, service Service, deps ...string) error {
	if name == "" {
		return errors.New("service name cannot be empty")
	}
	if service == nil {
		return errors.Errorf("service %s cannot be nil", name)
	}

	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	if lm.started {
		return errors.Errorf("cannot register %s after start", name)
	}
	if _, exists := lm.services[name]; exists {
		return errors.Errorf("service %s is already registered", name)
	}

	lm.services[name] = service
	lm.dependencies[name] = deps
	return nil
}

// RegisterFunc registers start and stop closures as a service.
func (lm *LifecycleManager) RegisterFunc(name string, start, stop func(ctx context.Context) error, deps ...string) error {
	return lm.Register(name, &funcService{name: name, start: start, stop: stop}, deps...)
}

// Start starts every service in dependency order. On failure the
// services already started are stopped in reverse order before the
// error is returned.
func (lm *LifecycleManager) Start(ctx context.Context) error {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	if lm.started {
		return errors.New("lifecycle manager already started")
	}

	order, err := lm.resolveOrder()
	if err != nil {
		return errors.Wrap(err, "failed to order services")
	}

	for _, name := range order {
		startCtx, cancel := context.WithTimeout(ctx, lm.timeout)
		err := lm.services[name].Start(startCtx)
		cancel()

		if err != nil {
			log.Printf("[bootstrap] Service %s failed to start: %v", name, err)
			lm.stopStartedLocked(context.Background())
			return errors.Wrapf(err, "failed to start service %s", name)
		}

		lm.startOrder = append(lm.startOrder, name)
		log.Printf("[bootstrap] Service %s started", name)
	}

	lm.started = true
	return nil
}

// Stop stops every started service in reverse start order. All services
// are attempted; the last error wins.
func (lm *LifecycleManager) Stop(ctx context.Context) error {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	if !lm.started {
		return nil
	}
	err := lm.stopStartedLocked(ctx)
	lm.started = false
	return err
}

// IsStarted reports whether Start has completed successfully.
func (lm *LifecycleManager) IsStarted() bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.started
}

// Services returns the registered service names, sorted.
func (lm *LifecycleManager) Services() []string {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	names := make([]string, 0, len(lm.services))
	for name := range lm.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartOrder returns the order services were started in.
func (lm *LifecycleManager) StartOrder() []string {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	order := make([]string, len(lm.startOrder))
	copy(order, lm.startOrder)
	return order
}

func (lm *LifecycleManager) stopStartedLocked(ctx context.Context) error {
	var lastErr error
	for i := len(lm.startOrder) - 1; i >= 0; i-- {
		name := lm.startOrder[i]

		stopCtx, cancel := context.WithTimeout(ctx, lm.timeout)
		err := lm.services[name].Stop(stopCtx)
		cancel()

		if err != nil {
			lastErr = errors.Wrapf(err, "failed to stop service %s", name)
			log.Printf("[bootstrap] Service %s failed to stop: %v", name, err)
		} else {
			log.Printf("[bootstrap] Service %s stopped", name)
		}
	}
	lm.startOrder = nil
	return lastErr
}

// resolveOrder topologically sorts the services by their dependencies
// using Kahn's algorithm.
func (lm *LifecycleManager) resolveOrder() ([]string, error) {
	inDegree := make(map[string]int, len(lm.services))
	dependents := make(map[string][]string, len(lm.services))
	for name := range lm.services {
		inDegree[name] = 0
	}

	for name, deps := range lm.dependencies {
		for _, dep := range deps {
			if _, exists := lm.services[dep]; !exists {
				return nil, errors.Errorf("dependency %s of service %s is not registered", dep, name)
			}
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	// Seed with dependency-free services, sorted for deterministic
	// start order across runs.
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(lm.services))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		next := dependents[current]
		sort.Strings(next)
		for _, dependent := range next {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(lm.services) {
		return nil, errors.New("circular dependency detected")
	}
	return order, nil
}
