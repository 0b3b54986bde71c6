// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultTaskTimeout bounds every detached task.
	DefaultTaskTimeout = 30 * time.Second

	// DefaultBacklog is the number of tasks that may wait for a worker.
	DefaultBacklog = 1024
)

// FailureHook observes the error of a detached task.
type FailureHook func(name string, err error)

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// Detacher runs fire-and-forget tasks on a bounded worker pool.
//
// A task never reports back to its submitter; its error, if any, goes to
// the failure hook. Tasks run under their own context, so they outlive the
// request that submitted them. Submission never blocks: when every worker
// is busy and the backlog is full the task is dropped with
// ErrDetacherOverloaded.
type Detacher struct {
	pool    *ants.Pool
	timeout time.Duration
	onFail  FailureHook
	logger  *slog.Logger

	backlogSize int
	backlog     chan task
	dispatched  chan struct{}

	mu       sync.Mutex
	released bool
	wg       sync.WaitGroup
}

// DetacherOption configures a Detacher.
type DetacherOption func(*Detacher) error

// WithWorkers sets the pool size. Default is runtime.NumCPU(), minimum 1.
func WithWorkers(size int) DetacherOption {
	return func(d *Detacher) error {
		if size < 1 {
			size = 1
		}
		if d.pool != nil {
			d.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		d.pool = pool
		return nil
	}
}

// WithBacklog sets how many tasks may queue behind busy workers.
// Default is DefaultBacklog, minimum 1.
func WithBacklog(size int) DetacherOption {
	return func(d *Detacher) error {
		d.backlogSize = max(size, 1)
		return nil
	}
}

// WithTaskTimeout sets the per-task timeout.
func WithTaskTimeout(timeout time.Duration) DetacherOption {
	return func(d *Detacher) error {
		if timeout > 0 {
			d.timeout = timeout
		}
		return nil
	}
}

// WithFailureHook replaces the default warn-level logging hook.
func WithFailureHook(hook FailureHook) DetacherOption {
	return func(d *Detacher) error {
		if hook == nil {
			return ErrFailureHookRequired
		}
		d.onFail = hook
		return nil
	}
}

// WithDetacherLogger sets a custom logger.
func WithDetacherLogger(logger *slog.Logger) DetacherOption {
	return func(d *Detacher) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// NewDetacher creates a Detacher.
func NewDetacher(opts ...DetacherOption) (*Detacher, error) {
	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}

	d := &Detacher{
		pool:        pool,
		timeout:     DefaultTaskTimeout,
		logger:      slog.Default().With("component", "detacher"),
		backlogSize: DefaultBacklog,
	}
	for _, opt := range opts {
		if optErr := opt(d); optErr != nil {
			d.pool.Release()
			return nil, optErr
		}
	}
	if d.onFail == nil {
		d.onFail = func(name string, err error) {
			d.logger.Warn("detached task failed", "task", name, "err", err)
		}
	}

	d.backlog = make(chan task, d.backlogSize)
	d.dispatched = make(chan struct{})
	go d.dispatch()
	return d, nil
}

// Go queues fn for detached execution and never waits. fn's error never
// reaches the caller. A task that cannot be queued is reported to the hook
// with ErrDetacherOverloaded, or ErrDetacherReleased after Release.
func (d *Detacher) Go(name string, fn func(ctx context.Context) error) {
	if err := d.enqueue(task{name: name, fn: fn}); err != nil {
		d.onFail(name, fmt.Errorf("submit: %w", err))
	}
}

func (d *Detacher) enqueue(t task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return ErrDetacherReleased
	}
	d.wg.Add(1)
	select {
	case d.backlog <- t:
		return nil
	default:
		d.wg.Done()
		return fmt.Errorf("%w: %w", ErrDetacherOverloaded, ants.ErrPoolOverload)
	}
}

// dispatch hands queued tasks to the pool, waiting for a free worker.
func (d *Detacher) dispatch() {
	defer close(d.dispatched)
	for t := range d.backlog {
		err := d.pool.Submit(func() {
			defer d.wg.Done()
			d.run(t.name, t.fn)
		})
		if err != nil {
			d.wg.Done()
			if errors.Is(err, ants.ErrPoolClosed) {
				err = ErrDetacherReleased
			}
			d.onFail(t.name, fmt.Errorf("submit: %w", err))
		}
	}
}

func (d *Detacher) run(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.onFail(name, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := fn(ctx); err != nil {
		d.onFail(name, err)
	}
}

// Wait blocks until every queued task has finished. It must not race with
// Go on an idle Detacher; use Release when shutting down.
func (d *Detacher) Wait() {
	d.wg.Wait()
}

// Release stops accepting tasks, drains the backlog and shuts the pool
// down. It is safe to call more than once and concurrently with Go.
// Tasks submitted afterwards are reported as ErrDetacherReleased.
func (d *Detacher) Release() {
	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		<-d.dispatched
		return
	}
	d.released = true
	close(d.backlog)
	d.mu.Unlock()

	<-d.dispatched
	d.wg.Wait()
	d.pool.Release()
}
