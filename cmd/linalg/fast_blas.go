//go:build cgo && netlib

package main

// Registers the netlib BLAS (system BLAS through cgo) for the gonum
// reference timings. Build with -tags netlib.

import (
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/netlib/blas/netlib"
)

func init() {
	blas64.Use(netlib.Implementation{})
	blasImpl = "netlib"
	log.Debug().Msg("CGO/BLAS acceleration enabled (netlib)")
}
