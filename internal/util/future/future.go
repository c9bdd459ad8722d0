package future

import "sync"

// Future is the result of a function running on its own goroutine. It
// completes exactly once.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	v    T
	err  error
}

// New starts fn and returns the Future it completes.
func New[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		v, err := fn()
		f.complete(v, err)
	}()
	return f
}

// Await blocks until fn has returned.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.v, f.err
}

func (f *Future[T]) Done() <-chan struct{} { return f.done }

// All waits for every future and returns the values in argument order, or
// the error of the earliest failed future in that order.
func All[T any](futures ...*Future[T]) ([]T, error) {
	out := make([]T, len(futures))
	var firstErr error
	for i, fut := range futures {
		v, err := fut.Await()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		out[i] = v
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.v, f.err = v, err
		close(f.done)
	})
}
