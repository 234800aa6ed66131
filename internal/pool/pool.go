// Package pool runs closures on a fixed set of worker goroutines, taking
// jobs from a priority queue.
package pool

import (
	"container/heap"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/einsim-go/einsim/internal/log"
)

// Job is the unit of work. workerID is in [0, Workers).
type Job func(workerID int) (any, error)

// Options configures a Pool.
type Options struct {
	Workers int // default numCPU
	// Registerer receives the pool collectors; nil disables metrics.
	Registerer prometheus.Registerer
	Log        *log.Logger
}

func (o *Options) setDefaults() {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Log == nil {
		o.Log = log.Root()
	}
}

// Handle is the pending result of a submitted job.
type Handle struct {
	done chan struct{}
	val  any
	err  error
}

// Wait blocks until the job has run and returns its result.
func (h *Handle) Wait() (any, error) {
	<-h.done
	return h.val, h.err
}

// Done is closed once the result is available.
func (h *Handle) Done() <-chan struct{} { return h.done }

type item struct {
	prio int
	seq  uint64
	fn   Job
	h    *Handle
	done func()
}

// jobQueue orders by descending priority, FIFO among equals.
type jobQueue []*item

func (q jobQueue) Len() int { return len(q) }
func (q jobQueue) Less(i, j int) bool {
	if q[i].prio != q[j].prio {
		return q[i].prio > q[j].prio
	}
	return q[i].seq < q[j].seq
}
func (q jobQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *jobQueue) Push(x any)   { *q = append(*q, x.(*item)) }
func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}

// Pool is a fixed-size worker pool. The accounting getters are safe from
// any goroutine, and Completed()+Outstanding() == Submitted() holds in
// every Stats snapshot.
type Pool struct {
	workers int
	log     *log.Logger
	m       *metrics

	mu        sync.Mutex
	workAvail *sync.Cond
	idle      *sync.Cond
	q         jobQueue
	seq       uint64
	running   int
	submitted uint64
	completed uint64
	started   bool
	paused    bool
	stopping  bool

	eg errgroup.Group
}

func New(opts Options) (*Pool, error) {
	opts.setDefaults()
	p := &Pool{workers: opts.Workers, log: opts.Log.Module("pool")}
	p.workAvail = sync.NewCond(&p.mu)
	p.idle = sync.NewCond(&p.mu)
	m, err := newMetrics(opts.Registerer)
	if err != nil {
		return nil, err
	}
	p.m = m
	return p, nil
}

func (p *Pool) Workers() int { return p.workers }

// Start launches the workers. Jobs may be submitted before Start.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		id := i
		p.eg.Go(func() error { return p.worker(id) })
	}
	p.log.Debug("started", "workers", p.workers)
}

// Submit enqueues fn. Higher priorities run first.
func (p *Pool) Submit(priority int, fn Job) *Handle {
	return p.SubmitNotify(priority, fn, nil)
}

// SubmitNotify is Submit with done called once the job has been counted as
// completed, outside the pool lock. A rejected submission calls done
// immediately.
func (p *Pool) SubmitNotify(priority int, fn Job, done func()) *Handle {
	h := &Handle{done: make(chan struct{})}
	p.mu.Lock()
	if p.stopping {
		p.mu.Unlock()
		h.err = fmt.Errorf("pool: submit after shutdown")
		close(h.done)
		if done != nil {
			done()
		}
		return h
	}
	p.seq++
	heap.Push(&p.q, &item{prio: priority, seq: p.seq, fn: fn, h: h, done: done})
	p.submitted++
	p.m.submitted.Inc()
	p.m.outstanding.Inc()
	p.mu.Unlock()
	p.workAvail.Signal()
	return h
}

func (p *Pool) worker(id int) error {
	p.mu.Lock()
	for {
		for !p.stopping && (p.paused || len(p.q) == 0) {
			p.workAvail.Wait()
		}
		if p.stopping {
			p.mu.Unlock()
			return nil
		}
		it := heap.Pop(&p.q).(*item)
		p.running++
		p.m.busy.Inc()
		p.mu.Unlock()

		t0 := time.Now()
		val, err := run(id, it.fn)
		p.m.duration.Observe(time.Since(t0).Seconds())
		it.h.val, it.h.err = val, err

		p.mu.Lock()
		p.running--
		p.completed++
		p.m.busy.Dec()
		p.m.completed.Inc()
		p.m.outstanding.Dec()
		close(it.h.done)
		p.idle.Broadcast()
		if it.done != nil {
			p.mu.Unlock()
			it.done()
			p.mu.Lock()
		}
	}
}

func run(id int, fn Job) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pool: job panicked: %v", r)
		}
	}()
	return fn(id)
}

// Pause stops workers from taking new jobs and returns once no job is
// running. Queued jobs stay queued.
func (p *Pool) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
	for p.running > 0 {
		p.idle.Wait()
	}
}

func (p *Pool) Resume() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
	p.workAvail.Broadcast()
}

// Wait blocks until the queue is empty and no job is running. The pool
// must be started and not paused.
func (p *Pool) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.q) > 0 || p.running > 0 {
		p.idle.Wait()
	}
}

// Shutdown drains all queued work, then stops and joins the workers.
func (p *Pool) Shutdown() error {
	p.Resume()
	p.Start()
	p.Wait()
	p.mu.Lock()
	p.stopping = true
	p.mu.Unlock()
	p.workAvail.Broadcast()
	err := p.eg.Wait()
	p.log.Debug("stopped", "completed", p.Completed())
	return err
}

func (p *Pool) Submitted() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submitted
}

func (p *Pool) Completed() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}

// Outstanding counts queued and running jobs.
func (p *Pool) Outstanding() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submitted - p.completed
}

// Stats is a consistent snapshot of the counters.
type Stats struct {
	Submitted, Completed, Outstanding uint64
	Queued, Running                   int
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Submitted:   p.submitted,
		Completed:   p.completed,
		Outstanding: p.submitted - p.completed,
		Queued:      len(p.q),
		Running:     p.running,
	}
}

// ResetStats zeroes the completed count, keeping outstanding jobs counted
// as submitted.
func (p *Pool) ResetStats() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitted -= p.completed
	p.completed = 0
}
