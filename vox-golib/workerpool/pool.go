package workerpool

import (
	"sync"

	"github.com/voxlab/voxlab/vox-golib/errors"
)

// Job is a unit of work submitted to a Pool. A non-nil return value is
// collected and surfaced from Wait.
type Job func() error

// Pool runs submitted jobs on a fixed number of worker goroutines.
type Pool struct {
	jobs chan Job
	wg   sync.WaitGroup

	mu      sync.Mutex
	errs    errors.Errors
	stopped bool
}

// New creates a Pool with the given number of workers.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		jobs: make(chan Job),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for job := range p.jobs {
		if err := job(); err != nil {
			p.mu.Lock()
			p.errs = errors.Append(p.errs, err)
			p.mu.Unlock()
		}
		p.wg.Done()
	}
}

// Add submits jobs without blocking the caller.
func (p *Pool) Add(jobs []Job) {
	p.wg.Add(len(jobs))
	go func() {
		for _, job := range jobs {
			if p.isStopped() {
				p.wg.Done()
				continue
			}
			p.jobs <- job
		}
	}()
}

// AddBlocking submits jobs, blocking until all of them have been handed to a worker.
func (p *Pool) AddBlocking(jobs []Job) {
	p.wg.Add(len(jobs))
	for _, job := range jobs {
		if p.isStopped() {
			p.wg.Done()
			continue
		}
		p.jobs <- job
	}
}

// Stop discards jobs that have not started yet. Jobs already running are not interrupted.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
}

func (p *Pool) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Wait blocks until all submitted jobs have finished and returns any errors
// they produced. A nil result means every job succeeded.
func (p *Pool) Wait() error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.errs == nil {
		return nil
	}
	return p.errs
}
