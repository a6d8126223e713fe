package matrix

var _ Matrix[float64] = (*Shared[float64])(nil)

// Shared is a read-only handle that many goroutines may hold at once.
// Any Set panics with a *MutationError. The wrapped matrix must not be
// modified through another handle while a Shared is in use.
type Shared[T Element] struct {
	m Matrix[T]
}

// Share wraps m in a read-only handle. Sharing a Shared returns it unchanged.
func Share[T Element](m Matrix[T]) *Shared[T] {
	if s, ok := m.(*Shared[T]); ok {
		return s
	}
	return &Shared[T]{m: m}
}

func (s *Shared[T]) Rows() int      { return s.m.Rows() }
func (s *Shared[T]) Cols() int      { return s.m.Cols() }
func (s *Shared[T]) Get(i, j int) T { return s.m.Get(i, j) }

// Base returns the wrapped matrix. Callers must only read through it.
func (s *Shared[T]) Base() Matrix[T] { return s.m }

func (s *Shared[T]) Set(i, j int, _ T) {
	panic(&MutationError{I: i, J: j})
}
