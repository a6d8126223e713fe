package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/23skdu/longbow-linalg/internal/algorithms"
	"github.com/23skdu/longbow-linalg/internal/matrix"
	"github.com/23skdu/longbow-linalg/internal/par"
)

// ErrVerify is returned when a benchmarked result disagrees with its
// reference beyond tolerance.
var ErrVerify = errors.New("verification failed")

// blasImpl names the BLAS implementation behind the gonum reference timings.
var blasImpl = "gonum"

type benchConfig struct {
	n         int
	seed      uint64
	cholBlock int
	verify    bool
}

type benchResults[T matrix.Float] struct {
	mul, mulPar, inv, invPar, chol, cholBlocked, cholPar *matrix.Dense[T]
}

func timed(name string, n int, fn func() error) error {
	start := time.Now()
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	elapsed := time.Since(start)
	log.Info().
		Str("op", name).
		Int("n", n).
		Dur("elapsed", elapsed).
		Float64("seconds", elapsed.Seconds()).
		Msg("Benchmark")
	return nil
}

// runBench times the sequential and parallel multiply, inverse and Cholesky
// routines on L·Lᵀ for a random unit lower-triangular L.
func runBench[T matrix.Float](ctx context.Context, x *par.Executor, cfg benchConfig) error {
	n := cfg.n
	log.Info().Int("n", n).Int("workers", x.Pool().MaxParallelism()).Int("block", x.BlockSize()).Msg("Benchmarking")

	rng := rand.New(rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15))
	l64 := matrix.RandL1(n, rng)
	l := matrix.New(n, n, func(i, j int) T { return T(l64.Get(i, j)) })
	lt := matrix.T[T](l)

	inline, err := par.NewExecutor(par.WithPool(nil), par.WithBlockSize(x.BlockSize()))
	if err != nil {
		return err
	}

	var res benchResults[T]
	steps := []struct {
		name string
		fn   func() error
	}{
		{"mul", func() (err error) { res.mul, err = algorithms.Mul[T](l, lt); return }},
		{"mul_blocked", func() error { _, err := par.Mul[T](ctx, inline, l, lt); return err }},
		{"mul_parallel", func() (err error) { res.mulPar, err = par.Mul[T](ctx, x, l, lt); return }},
	}
	for _, s := range steps {
		if err := timed(s.name, n, s.fn); err != nil {
			return err
		}
	}

	// L·Lᵀ of a unit lower-triangular L is too ill-conditioned to invert
	// meaningfully at benchmark sizes; shift the diagonal by n.
	a := res.mul.Clone()
	for i := 0; i < n; i++ {
		a.Set(i, i, a.Get(i, i)+T(n))
	}

	steps = []struct {
		name string
		fn   func() error
	}{
		{"inverse", func() (err error) { res.inv, err = algorithms.Inverse[T](ctx, a); return }},
		{"inverse_parallel", func() (err error) { res.invPar, err = par.Inverse[T](ctx, x, a); return }},
		{"cholesky_sequential", func() error {
			res.chol = a.Clone()
			return algorithms.CholeskySeqInPlace[T](res.chol)
		}},
		{"cholesky_blocked", func() (err error) {
			res.cholBlocked, err = algorithms.CholeskyBlocked[T](ctx, a, algorithms.WithBlockSize(cfg.cholBlock))
			return
		}},
		{"cholesky_parallel", func() (err error) { res.cholPar, err = par.CholeskyBlocked[T](ctx, x, a); return }},
	}
	for _, s := range steps {
		if err := timed(s.name, n, s.fn); err != nil {
			return err
		}
	}

	lg, ltg := matrix.ToGonum[T](l), matrix.ToGonum[T](lt)
	if err := timed("mul_gonum_"+blasImpl, n, func() error {
		var ref mat.Dense
		ref.Mul(lg, ltg)
		return nil
	}); err != nil {
		return err
	}

	if !cfg.verify {
		return nil
	}
	return verify(ctx, res, lg, ltg, matrix.ToGonum[T](a), tolerance[T]())
}

func tolerance[T matrix.Float]() float64 {
	var zero T
	if _, ok := any(zero).(float32); ok {
		return 1e-3
	}
	return 1e-8
}

// relErr is ‖got − want‖₂ / max(‖want‖₂, 1) over all entries.
func relErr(got, want *mat.Dense) float64 {
	g, w := got.RawMatrix().Data, want.RawMatrix().Data
	if len(g) != len(w) {
		return math.Inf(1)
	}
	return floats.Distance(g, w, 2) / math.Max(floats.Norm(w, 2), 1)
}

func verify[T matrix.Float](ctx context.Context, res benchResults[T], lg, ltg, ag *mat.Dense, tol float64) error {
	var mulRef, invRef, cholRef mat.Dense

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(3)
	g.Go(func() error {
		mulRef.Mul(lg, ltg)
		return nil
	})
	g.Go(func() error {
		return invRef.Inverse(ag)
	})
	g.Go(func() error {
		n, _ := ag.Dims()
		sym := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				sym.SetSym(i, j, ag.At(i, j))
			}
		}
		var chol mat.Cholesky
		if !chol.Factorize(sym) {
			return matrix.ErrNotPositiveDefinite
		}
		var lower mat.TriDense
		chol.LTo(&lower)
		cholRef.CloneFrom(&lower)
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("reference: %w", err)
	}

	checks := []struct {
		name string
		got  *matrix.Dense[T]
		want *mat.Dense
	}{
		{"mul", res.mul, &mulRef},
		{"mul_parallel", res.mulPar, &mulRef},
		{"inverse", res.inv, &invRef},
		{"inverse_parallel", res.invPar, &invRef},
		{"cholesky_sequential", res.chol, &cholRef},
		{"cholesky_blocked", res.cholBlocked, &cholRef},
		{"cholesky_parallel", res.cholPar, &cholRef},
	}
	var failed []string
	for _, c := range checks {
		e := relErr(matrix.ToGonum[T](c.got), c.want)
		ev := log.Info()
		if !(e <= tol) {
			ev = log.Warn()
			failed = append(failed, c.name)
		}
		ev.Str("op", c.name).Float64("rel_err", e).Float64("tol", tol).Msg("Verify")
	}

	// sequential and parallel multiply must agree with each other too
	if e := relErr(matrix.ToGonum[T](res.mulPar), matrix.ToGonum[T](res.mul)); !(e <= tol) {
		failed = append(failed, "mul_agreement")
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %v", ErrVerify, failed)
	}
	return nil
}
