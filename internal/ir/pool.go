package ir

import "golang.org/x/sync/errgroup"

// Pool is the runtime worker pool that emitted code dispatches tasks to.
// It bounds how many tasks run concurrently; a started task set always
// runs to completion.
type Pool struct {
	workers int
}

// NewPool returns a pool running at most workers tasks at once. Values
// below one are clamped to one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers returns the pool's concurrency bound.
func (p *Pool) Workers() int { return p.workers }

// newGroup returns a join group bounded by the pool's worker count.
func (p *Pool) newGroup() *errgroup.Group {
	g := new(errgroup.Group)
	g.SetLimit(p.workers)
	return g
}
