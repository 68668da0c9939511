// Package threadpool provides a shared worker pool with the tiled dispatch
// primitive used by the quill operators. Operators treat dispatch as a
// synchronous call: it returns only once every tile has completed.
package threadpool

import "runtime"

type task struct {
	run  func(start, end int)
	s, e int
	done chan struct{}
}

// Pool is a fixed set of worker goroutines. A nil *Pool is valid everywhere
// a pool is accepted and means "run synchronously on the calling goroutine".
type Pool struct {
	size      int
	tasks     chan task
	doneSlots chan chan struct{}
}

// New creates a pool with the given number of workers. A non-positive count
// uses GOMAXPROCS.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		size:      workers,
		tasks:     make(chan task, workers*2),
		doneSlots: make(chan chan struct{}, workers),
	}
	for range workers {
		p.doneSlots <- make(chan struct{}, 1)
	}
	for range workers {
		go func() {
			for t := range p.tasks {
				t.run(t.s, t.e)
				t.done <- struct{}{}
			}
		}()
	}
	return p
}

// Size returns the worker count, or zero for a nil pool.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return p.size
}

// Close stops the workers. Dispatching on a closed pool panics.
func (p *Pool) Close() {
	if p != nil {
		close(p.tasks)
	}
}

// Tile4DFunc processes one tile of a 4-D grid. i and j are unit-granularity
// indices of the first two dimensions; kStart/lStart are tile origins in the
// last two dimensions and kRange/lRange the tile extents (trailing tiles may
// be partial).
type Tile4DFunc func(i, j, kStart, lStart, kRange, lRange int)

// Compute4DTiled runs fn over the grid countI × countJ × rangeK × rangeL,
// with the last two dimensions partitioned into tiles of tileK × tileL.
// Tiles must be independent; they are distributed across the pool's workers
// and the call blocks until all of them have run. A nil pool (or a grid with
// a single tile) runs on the calling goroutine.
func Compute4DTiled(p *Pool, fn Tile4DFunc, countI, countJ, rangeK, rangeL, tileK, tileL int) {
	if countI <= 0 || countJ <= 0 || rangeK <= 0 || rangeL <= 0 {
		return
	}
	if tileK <= 0 || tileL <= 0 {
		panic("threadpool: tile sizes must be positive")
	}

	tilesK := (rangeK + tileK - 1) / tileK
	tilesL := (rangeL + tileL - 1) / tileL
	total := countI * countJ * tilesK * tilesL

	call := func(idx int) {
		l := idx % tilesL
		idx /= tilesL
		k := idx % tilesK
		idx /= tilesK
		j := idx % countJ
		i := idx / countJ

		kStart := k * tileK
		lStart := l * tileL
		fn(i, j, kStart, lStart, min(tileK, rangeK-kStart), min(tileL, rangeL-lStart))
	}

	run := func(start, end int) {
		for idx := start; idx < end; idx++ {
			call(idx)
		}
	}

	workers := p.Size()
	if workers > total {
		workers = total
	}
	if workers <= 1 {
		run(0, total)
		return
	}

	chunk := (total + workers - 1) / workers
	done := <-p.doneSlots
	for w := 0; w < workers; w++ {
		s := w * chunk
		p.tasks <- task{run: run, s: s, e: min(s+chunk, total), done: done}
	}
	for range workers {
		<-done
	}
	p.doneSlots <- done
}
