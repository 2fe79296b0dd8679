// Package sim - local asynchronous driver.
//
// LocalPool fans evaluations out over a fixed worker pool on this machine.
// Workers pull from a task channel and push completions to a results channel
// guarded by a done channel; Abort closes done and the pool drains every
// outstanding job as Cancelled.
package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/vars"
)

// PoolOptions configures a LocalPool.
// Zero value is not meaningful; use DefaultPoolOptions and override.
type PoolOptions struct {
	// Workers is the number of concurrent evaluations. Default: 4.
	Workers int

	// Timeout bounds each evaluation; zero means no limit. Timed-out jobs
	// complete with ErrTimeout and are never cached.
	Timeout time.Duration

	// QueueDepth bounds buffered launches before Launch blocks. Default: 64.
	QueueDepth int
}

// DefaultPoolOptions returns conservative pool defaults.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{Workers: 4, QueueDepth: 64}
}

// Validate checks the option combination.
func (o PoolOptions) Validate() error {
	if o.Workers <= 0 || o.QueueDepth <= 0 || o.Timeout < 0 {
		return ErrEvaluation
	}
	return nil
}

// LocalPool is an asynchronous Interface running evaluations on worker
// goroutines. Launch/Collect follow the engine contract: ids are monotonic,
// completions arrive in any order.
type LocalPool struct {
	id   string
	caps Capabilities
	fn   EvalFunc
	opts PoolOptions

	nextID  atomic.Int64
	pending atomic.Int64
	calls   atomic.Int64

	tasks   chan poolJob
	results chan Completion
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

type poolJob struct {
	id int64
	p  vars.Point
	as response.ActiveSet
}

// NewLocalPool starts the workers and returns a ready pool.
func NewLocalPool(id string, caps Capabilities, fn EvalFunc, opts PoolOptions) (*LocalPool, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	lp := &LocalPool{
		id:      id,
		caps:    caps,
		fn:      fn,
		opts:    opts,
		tasks:   make(chan poolJob, opts.QueueDepth),
		results: make(chan Completion, opts.QueueDepth),
		done:    make(chan struct{}),
	}
	lp.wg.Add(opts.Workers)
	for w := 0; w < opts.Workers; w++ {
		go lp.worker()
	}
	return lp, nil
}

// worker pulls jobs until the task channel closes or done fires.
func (lp *LocalPool) worker() {
	defer lp.wg.Done()
	for job := range channerics.OrDone[poolJob](lp.done, lp.tasks) {
		c := lp.run(job)
		select {
		case lp.results <- c:
		case <-lp.done:
			return
		}
	}
}

// run executes one job under the timeout policy.
func (lp *LocalPool) run(job poolJob) Completion {
	select {
	case <-lp.done:
		return Completion{EvalID: job.id, Point: job.p, Err: ErrCancelled}
	default:
	}
	lp.calls.Add(1)

	if lp.opts.Timeout <= 0 {
		r, err := lp.fn(job.p, job.as)
		return Completion{EvalID: job.id, Point: job.p, Response: r, Err: err}
	}

	type outcome struct {
		r   *response.Response
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		r, err := lp.fn(job.p, job.as)
		ch <- outcome{r: r, err: err}
	}()
	timer := time.NewTimer(lp.opts.Timeout)
	defer timer.Stop()
	select {
	case o := <-ch:
		return Completion{EvalID: job.id, Point: job.p, Response: o.r, Err: o.err}
	case <-timer.C:
		return Completion{EvalID: job.id, Point: job.p, Err: ErrTimeout}
	case <-lp.done:
		return Completion{EvalID: job.id, Point: job.p, Err: ErrCancelled}
	}
}

// ID implements Interface.
func (lp *LocalPool) ID() string { return lp.id }

// Capabilities implements Interface.
func (lp *LocalPool) Capabilities() Capabilities { return lp.caps }

// Calls returns the number of underlying function invocations.
func (lp *LocalPool) Calls() int64 { return lp.calls.Load() }

// Eval implements Interface synchronously, bypassing the pool.
func (lp *LocalPool) Eval(ctx context.Context, p vars.Point, as response.ActiveSet) (*response.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrCancelled
	}
	c := lp.run(poolJob{id: lp.nextID.Add(1), p: p.Clone(), as: as.Clone()})
	return c.Response, c.Err
}

// Launch implements Interface.
func (lp *LocalPool) Launch(p vars.Point, as response.ActiveSet) (int64, error) {
	select {
	case <-lp.done:
		return 0, ErrAborted
	default:
	}
	id := lp.nextID.Add(1)
	lp.pending.Add(1)
	select {
	case lp.tasks <- poolJob{id: id, p: p.Clone(), as: as.Clone()}:
		return id, nil
	case <-lp.done:
		lp.pending.Add(-1)
		return 0, ErrAborted
	}
}

// Collect implements Interface: blocks for the first completion, then drains
// whatever else is ready without blocking.
func (lp *LocalPool) Collect(ctx context.Context) ([]Completion, error) {
	if lp.pending.Load() == 0 {
		return nil, ErrNoPending
	}
	var out []Completion

	select {
	case c := <-lp.results:
		out = append(out, c)
		lp.pending.Add(-1)
	case <-lp.done:
		return lp.drainCancelled(), nil
	case <-ctx.Done():
		return nil, ErrCancelled
	}

	for {
		select {
		case c := <-lp.results:
			out = append(out, c)
			lp.pending.Add(-1)
		default:
			return out, nil
		}
	}
}

// drainCancelled empties the task queue after Abort, reporting every
// uncompleted job as Cancelled.
func (lp *LocalPool) drainCancelled() []Completion {
	var out []Completion
	for {
		select {
		case job := <-lp.tasks:
			out = append(out, Completion{EvalID: job.id, Point: job.p, Err: ErrCancelled})
			lp.pending.Add(-1)
		case c := <-lp.results:
			if c.Err == nil {
				c.Err = ErrCancelled
				c.Response = nil
			}
			out = append(out, c)
			lp.pending.Add(-1)
		default:
			return out
		}
	}
}

// Abort implements Interface: fires done exactly once and waits for workers
// to exit. Outstanding jobs surface as Cancelled on the next Collect.
func (lp *LocalPool) Abort() {
	lp.once.Do(func() {
		close(lp.done)
		lp.wg.Wait()
	})
}

// IsAborted reports whether Abort has fired.
func (lp *LocalPool) IsAborted() bool {
	select {
	case <-lp.done:
		return true
	default:
		return false
	}
}

var (
	_ Interface = (*LocalPool)(nil)
	_ Interface = (*FuncDriver)(nil)
)
