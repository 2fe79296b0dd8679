// Package sim - synchronous function-backed driver.
package sim

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/katalvlaran/optiq/response"
	"github.com/katalvlaran/optiq/vars"
)

// EvalFunc computes a response honoring as for the point p.
// Implementations report failures through the sim sentinels.
type EvalFunc func(p vars.Point, as response.ActiveSet) (*response.Response, error)

// FuncDriver adapts a plain Go function to the Interface contract. Launch
// queues work; Collect executes the queue in launch order on the calling
// goroutine. It is the reference driver for tests and built-in analytic
// problems.
type FuncDriver struct {
	id   string
	caps Capabilities
	fn   EvalFunc

	nextID    atomic.Int64
	calls     atomic.Int64
	mu        sync.Mutex
	queue     []funcJob
	cancelled []Completion
	aborted   bool
}

type funcJob struct {
	id int64
	p  vars.Point
	as response.ActiveSet
}

// NewFuncDriver builds a FuncDriver with the given identity and capability
// ceiling.
func NewFuncDriver(id string, caps Capabilities, fn EvalFunc) *FuncDriver {
	return &FuncDriver{id: id, caps: caps, fn: fn}
}

// ID implements Interface.
func (d *FuncDriver) ID() string { return d.id }

// Capabilities implements Interface.
func (d *FuncDriver) Capabilities() Capabilities { return d.caps }

// Calls returns the number of underlying function invocations; tests use it
// to prove duplicate detection caused zero new simulator calls.
func (d *FuncDriver) Calls() int64 { return d.calls.Load() }

// Eval implements Interface.
func (d *FuncDriver) Eval(ctx context.Context, p vars.Point, as response.ActiveSet) (*response.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrCancelled
	}
	d.calls.Add(1)
	return d.fn(p, as)
}

// Launch implements Interface; ids are monotonic within the driver.
func (d *FuncDriver) Launch(p vars.Point, as response.ActiveSet) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.aborted {
		return 0, ErrAborted
	}
	id := d.nextID.Add(1)
	d.queue = append(d.queue, funcJob{id: id, p: p.Clone(), as: as.Clone()})
	return id, nil
}

// Collect implements Interface: runs every queued job now, then reports any
// abort-drained jobs as Cancelled.
func (d *FuncDriver) Collect(ctx context.Context) ([]Completion, error) {
	d.mu.Lock()
	jobs := d.queue
	drained := d.cancelled
	d.queue, d.cancelled = nil, nil
	d.mu.Unlock()

	if len(jobs) == 0 && len(drained) == 0 {
		return nil, ErrNoPending
	}
	out := append(make([]Completion, 0, len(jobs)+len(drained)), drained...)
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			out = append(out, Completion{EvalID: j.id, Point: j.p, Err: ErrCancelled})
			continue
		}
		d.calls.Add(1)
		r, err := d.fn(j.p, j.as)
		out = append(out, Completion{EvalID: j.id, Point: j.p, Response: r, Err: err})
	}
	return out, nil
}

// Abort implements Interface: queued jobs are drained; the next Collect
// reports them as Cancelled.
func (d *FuncDriver) Abort() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.aborted = true
	for _, j := range d.queue {
		d.cancelled = append(d.cancelled, Completion{EvalID: j.id, Point: j.p, Err: ErrCancelled})
	}
	d.queue = nil
}
