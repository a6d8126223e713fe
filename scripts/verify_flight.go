//go:build ignore

package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/23skdu/longbow-linalg/internal/client"
	"github.com/23skdu/longbow-linalg/internal/matrix"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	addr := "localhost:9090"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}
	n := 64
	if len(os.Args) > 2 {
		v, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid size")
		}
		n = v
	}

	log.Info().Str("addr", addr).Msg("Connecting to linalg Flight server")
	c, err := client.NewFlightClient(addr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create client")
	}
	defer c.Close()

	rng := rand.New(rand.NewPCG(1, 2))
	a := matrix.SPD(n, rng)
	for i := 0; i < n; i++ {
		a.Set(i, i, a.Get(i, i)+float64(n))
	}

	// the server may still be starting
	var inv *matrix.Dense[float64]
	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		start := time.Now()
		inv, err = c.Compute(ctx, "inverse", a)
		cancel()
		if err == nil {
			log.Info().Dur("elapsed", time.Since(start)).Int("n", n).Msg("Received inverse")
			break
		}
		log.Warn().Err(err).Msg("Compute failed, retrying...")
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Compute failed after retries")
	}

	var prod mat.Dense
	prod.Mul(matrix.ToGonum[float64](a), matrix.ToGonum[float64](inv))
	if !mat.EqualApprox(&prod, matrix.ToGonum[float64](matrix.Identity[float64](n)), 1e-8) {
		log.Fatal().Msg("A·inverse(A) is not the identity")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	l, err := c.Compute(ctx, "cholesky", a)
	if err != nil {
		log.Fatal().Err(err).Msg("Cholesky failed")
	}
	var llt mat.Dense
	lg := matrix.ToGonum[float64](l)
	llt.Mul(lg, lg.T())
	if !mat.EqualApprox(&llt, matrix.ToGonum[float64](a), 1e-8*float64(n)) {
		log.Fatal().Msg("L·Lᵀ does not reproduce A")
	}

	fmt.Println("VERIFICATION PASSED")
}
