package ocr

import "context"

// Pool holds initialized recognizers for reuse across pipeline runs. Reuse is
// purely a performance optimization: recognizers carry no residual state
// between documents. The pool is owned by the pipeline's construction site,
// never ambient process state, so tests can substitute fakes freely.
type Pool struct {
	recognizers chan Recognizer
}

// NewPool builds a pool of size recognizers from the factory.
func NewPool(size int, factory func() Recognizer) *Pool {
	if size < 1 {
		size = 1
	}
	ch := make(chan Recognizer, size)
	for i := 0; i < size; i++ {
		ch <- factory()
	}
	return &Pool{recognizers: ch}
}

// Acquire checks out a recognizer, blocking until one is free or the context
// is done.
func (p *Pool) Acquire(ctx context.Context) (Recognizer, error) {
	select {
	case r := <-p.recognizers:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a recognizer to the pool.
func (p *Pool) Release(r Recognizer) {
	p.recognizers <- r
}

// Size reports the pool capacity.
func (p *Pool) Size() int {
	return cap(p.recognizers)
}
