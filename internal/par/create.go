package par

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/23skdu/longbow-linalg/internal/algorithms"
	"github.com/23skdu/longbow-linalg/internal/matrix"
	"github.com/23skdu/longbow-linalg/internal/workers"
)

// blockPools holds one *matrix.Pool[T] per element type, keyed by T's zero value.
var blockPools sync.Map

func poolFor[T matrix.Element]() *matrix.Pool[T] {
	var zero T
	if p, ok := blockPools.Load(any(zero)); ok {
		return p.(*matrix.Pool[T])
	}
	p, _ := blockPools.LoadOrStore(any(zero), new(matrix.Pool[T]))
	return p.(*matrix.Pool[T])
}

// Create builds a rows×cols matrix from gen using the executor's block size.
func Create[T matrix.Element](ctx context.Context, e *Executor, rows, cols int, gen func(i, j int) T) (*matrix.Dense[T], error) {
	return CreateBlocked(ctx, e, rows, cols, e.blockSize, gen)
}

// CreateBlocked builds a rows×cols matrix from gen, one task per
// blockSize×blockSize block. Inside a block, gen is called in row-major
// order. gen must be safe for concurrent use.
func CreateBlocked[T matrix.Element](ctx context.Context, e *Executor, rows, cols, blockSize int, gen func(i, j int) T) (*matrix.Dense[T], error) {
	if blockSize < 1 {
		return nil, fmt.Errorf("Create: %w: %d", matrix.ErrInvalidBlockSize, blockSize)
	}
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("Create: %w: %dx%d", matrix.ErrInvalidShape, rows, cols)
	}
	ctx, span := tracer.Start(ctx, "Create", trace.WithAttributes(
		attribute.Int("rows", rows),
		attribute.Int("cols", cols),
		attribute.Int("block_size", blockSize),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		opDuration.WithLabelValues("create").Observe(time.Since(start).Seconds())
	}()

	out, err := createBlocked(ctx, e, rows, cols, blockSize, gen)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("Create: %w", err)
	}
	return out, nil
}

func createBlocked[T matrix.Element](_ context.Context, e *Executor, rows, cols, blockSize int, gen func(i, j int) T) (*matrix.Dense[T], error) {
	if rows == 0 || cols == 0 {
		return matrix.Zeros[T](rows, cols), nil
	}
	pool := poolFor[T]()

	var grid [][]*workers.Future[*matrix.Dense[T]]
	var all []*workers.Future[*matrix.Dense[T]]
	for i := 0; i < rows; i += blockSize {
		br := min(blockSize, rows-i)
		var row []*workers.Future[*matrix.Dense[T]]
		for j := 0; j < cols; j += blockSize {
			bc := min(blockSize, cols-j)
			i0, j0 := i, j
			f := workers.Spawn(e.pool, func() (*matrix.Dense[T], error) {
				block := pool.Get(br, bc)
				for ii := 0; ii < br; ii++ {
					for jj := 0; jj < bc; jj++ {
						block.Set(ii, jj, gen(i0+ii, j0+jj))
					}
				}
				blocksBuilt.Inc()
				return block, nil
			})
			row = append(row, f)
			all = append(all, f)
		}
		grid = append(grid, row)
	}

	blocks, err := workers.JoinAll(all...)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, b := range blocks {
			pool.Put(b)
		}
	}()

	// single block: hand back a copy so the pooled buffer can be reused
	if len(blocks) == 1 {
		return blocks[0].Clone(), nil
	}

	var out *matrix.Dense[T]
	k := 0
	for gi := range grid {
		var r *matrix.Dense[T]
		for gj := range grid[gi] {
			b := blocks[k]
			k++
			if gj == 0 {
				r = b
				continue
			}
			next, err := algorithms.ConcatCols[T](r, b)
			if err != nil {
				return nil, err
			}
			if gj > 1 {
				pool.Put(r)
			}
			r = next
		}
		if gi == 0 {
			out = r
			continue
		}
		next, err := algorithms.ConcatRows[T](out, r)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
