package matrix

import "sync"

// Pool recycles Dense buffers for short-lived blocks.
type Pool[T Element] struct {
	pool sync.Pool
}

// Get returns a zeroed rows×cols matrix, reusing a pooled buffer when one
// is large enough.
func (p *Pool[T]) Get(rows, cols int) *Dense[T] {
	if rows < 0 || cols < 0 {
		return Zeros[T](rows, cols) // panics with ErrInvalidShape
	}
	size := rows * cols
	m, ok := p.pool.Get().(*Dense[T])
	if !ok || m == nil || cap(m.data) < size {
		poolMisses.Inc()
		return Zeros[T](rows, cols)
	}
	poolHits.Inc()
	m.rows, m.cols = rows, cols
	m.data = m.data[:size]
	clear(m.data)
	return m
}

// Put returns m to the pool. m must not be used afterwards.
func (p *Pool[T]) Put(m *Dense[T]) {
	if m == nil {
		return
	}
	m.rows, m.cols = 0, 0
	p.pool.Put(m)
}
