// Package workerpool runs row-parallel conversion passes on a fixed set of
// goroutines. A Pool is created once per converter and reused for every
// frame, so a pass costs one channel send per worker instead of one
// goroutine spawn per band.
//
//	p := workerpool.New(runtime.GOMAXPROCS(0))
//	defer p.Close()
//	p.ParallelFor(height, func(y0, y1 int) {
//	    for y := y0; y < y1; y++ {
//	        convertRow(y)
//	    }
//	})
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent set of workers. The zero value is not usable; call New.
type Pool struct {
	workers int
	work    chan task

	// mu is held for reading from the closed check until the last task of
	// a pass is queued. Close takes it for writing.
	mu     sync.RWMutex
	closed atomic.Bool
}

type task struct {
	run  func()
	done *sync.WaitGroup
}

// New starts a pool of n workers. n <= 0 selects GOMAXPROCS.
func New(n int) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: n,
		work:    make(chan task, n*2),
	}
	for i := 0; i < n; i++ {
		go p.loop()
	}
	return p
}

func (p *Pool) loop() {
	for t := range p.work {
		t.run()
		t.done.Done()
	}
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// Close stops the workers after queued tasks finish. Later passes run on
// the calling goroutine. Close is idempotent and may race with passes in
// flight; it waits until they have queued their work.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return
	}
	p.closed.Store(true)
	close(p.work)
}

// Closed reports whether Close has been called.
func (p *Pool) Closed() bool {
	return p.closed.Load()
}

// ParallelFor splits [0, n) into at most Workers contiguous bands and calls
// fn(start, end) once per band. It returns when every band is done.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := min(p.workers, n)
	if workers == 1 {
		fn(0, n)
		return
	}

	p.mu.RLock()
	if p.closed.Load() {
		p.mu.RUnlock()
		fn(0, n)
		return
	}
	band := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += band {
		start := start
		end := min(start+band, n)
		wg.Add(1)
		p.work <- task{run: func() { fn(start, end) }, done: &wg}
	}
	p.mu.RUnlock()
	wg.Wait()
}

// ParallelForAtomic calls fn(i) for every i in [0, n). Workers claim
// indices one at a time from a shared counter, which balances uneven work.
func (p *Pool) ParallelForAtomic(n int, fn func(i int)) {
	p.ParallelForAtomicBatched(n, 1, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// ParallelForAtomicBatched is ParallelForAtomic with workers claiming batch
// consecutive indices per counter increment. fn receives [start, end).
func (p *Pool) ParallelForAtomicBatched(n, batch int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if batch <= 0 {
		batch = 1
	}
	batches := (n + batch - 1) / batch
	workers := min(p.workers, batches)
	if workers == 1 {
		fn(0, n)
		return
	}

	p.mu.RLock()
	if p.closed.Load() {
		p.mu.RUnlock()
		fn(0, n)
		return
	}
	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		p.work <- task{
			run: func() {
				for {
					start := int(next.Add(1)-1) * batch
					if start >= n {
						return
					}
					fn(start, min(start+batch, n))
				}
			},
			done: &wg,
		}
	}
	p.mu.RUnlock()
	wg.Wait()
}
