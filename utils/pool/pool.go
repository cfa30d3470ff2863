// Package pool provides a typed wrapper around sync.Pool with added metrics.
package pool

import (
	"sync"

	"github.com/linchenxuan/sinklog/metrics"
)

// Pool is a typed sync.Pool that counts the objects it has to create.
type Pool[T any] struct {
	name string
	pool sync.Pool
}

// NewPool creates a new instrumented pool.
// The 'name' is used as the poolname dimension of the pool_create_total counter.
// The 'newFunc' is the function called to create a new item when the pool is empty.
func NewPool[T any](name string, newFunc func() T) *Pool[T] {
	p := &Pool[T]{
		name: name,
	}
	p.pool.New = func() any {
		metrics.IncrCounterWithDimGroup(metrics.NamePoolCreateTotal, metrics.GroupLog, 1, metrics.Dimension{
			metrics.DimPoolName: name,
		})
		return newFunc()
	}
	return p
}

// Name returns the name of the pool.
func (p *Pool[T]) Name() string {
	return p.name
}

// Put adds x back to the pool for reuse.
func (p *Pool[T]) Put(x T) {
	p.pool.Put(x)
}

// Get retrieves an item from the pool, creating one when the pool is empty.
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}
