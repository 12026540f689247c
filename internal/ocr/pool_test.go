package ocr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRecognizer struct {
	result Result
	err    error
}

func (s *staticRecognizer) Recognize(ctx context.Context, image []byte) (Result, error) {
	return s.result, s.err
}

func TestPool_AcquireRelease(t *testing.T) {
	built := 0
	pool := NewPool(2, func() Recognizer {
		built++
		return &staticRecognizer{}
	})

	assert.Equal(t, 2, pool.Size())
	assert.Equal(t, 2, built, "all recognizers are built up front")

	a, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	b, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, a)
	require.NotNil(t, b)

	pool.Release(a)
	c, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, a, c, "released recognizers are reused")
}

func TestPool_AcquireBlocksUntilContextDone(t *testing.T) {
	pool := NewPool(1, func() Recognizer { return &staticRecognizer{} })

	_, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_MinimumSizeOne(t *testing.T) {
	pool := NewPool(0, func() Recognizer { return &staticRecognizer{} })
	assert.Equal(t, 1, pool.Size())
}
